package solana

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAddress(t *testing.T) {
	valid := []string{
		"So11111111111111111111111111111111111111112",
		"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		MetaplexProgramID,
	}
	for _, a := range valid {
		assert.NoError(t, ValidateAddress(a), a)
	}

	invalid := []string{
		"",
		"0OIl",                  // not base58
		"abc",                   // too short
		strings.Repeat("z", 60), // too long
	}
	for _, a := range invalid {
		assert.ErrorIs(t, ValidateAddress(a), ErrInvalidAddress, a)
	}
}

func TestIsOnCurve(t *testing.T) {
	// The all-zero encoding is a valid (low order) point.
	assert.True(t, IsOnCurve(make([]byte, PublicKeyLength)))
	assert.False(t, IsOnCurve([]byte{1, 2, 3}))
}

func TestMetadataAddress_OffCurve(t *testing.T) {
	pda, err := MetadataAddress("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	require.NoError(t, err)

	key, err := DecodeAddress(pda)
	require.NoError(t, err)
	assert.False(t, IsOnCurve(key))

	again, err := MetadataAddress("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	require.NoError(t, err)
	assert.Equal(t, pda, again)

	_, err = MetadataAddress("bad")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}
