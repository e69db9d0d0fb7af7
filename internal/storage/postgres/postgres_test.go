package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"solana-revival-scanner/internal/storage"
)

func TestMapError(t *testing.T) {
	assert.ErrorIs(t, mapError(pgx.ErrNoRows, "get scan"), storage.ErrNotFound)
	assert.ErrorIs(t, mapError(&pgconn.PgError{Code: pgErrUniqueViolation}, "insert scan"), storage.ErrDuplicateKey)

	other := errors.New("connection reset")
	err := mapError(other, "insert result")
	assert.ErrorIs(t, err, other)
	assert.EqualError(t, err, "insert result: connection reset")
}
