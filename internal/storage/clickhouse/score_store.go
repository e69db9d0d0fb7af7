package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"solana-revival-scanner/internal/domain"
	"solana-revival-scanner/internal/observability"
	"solana-revival-scanner/internal/storage"
)

// ScoreStore implements storage.ScoreStore using ClickHouse.
type ScoreStore struct {
	conn *Conn
}

// NewScoreStore creates a new ScoreStore.
func NewScoreStore(conn *Conn) *ScoreStore {
	return &ScoreStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ScoreStore = (*ScoreStore)(nil)

// InsertScores appends points. Fails entire batch on duplicate (address, scan_id).
// MergeTree does not enforce keys, so duplicates are checked before the insert.
func (s *ScoreStore) InsertScores(ctx context.Context, points []domain.ScorePoint) (err error) {
	if len(points) == 0 {
		return nil
	}
	if err := storage.ValidateScores(points); err != nil {
		return err
	}
	defer func(start time.Time) {
		observability.RecordDBQuery("clickhouse", "insert_scores", time.Since(start).Seconds(), err)
	}(time.Now())

	for _, p := range points {
		exists, err := s.exists(ctx, p.Address, p.ScanID)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO revival_scores (
			address, scan_id, symbol, analyzed_at, price_score, smart_score, volume_score, revival_score, liquidity_usd
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		err = batch.Append(
			p.Address, p.ScanID, p.Symbol, p.At.UTC(),
			p.PriceScore, p.SmartScore, p.VolumeScore, p.Score, p.Liquidity,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// ScoreHistory returns points for a token within [from, to], ordered by time ASC.
func (s *ScoreStore) ScoreHistory(ctx context.Context, address string, from, to time.Time) ([]domain.ScorePoint, error) {
	query := `
		SELECT address, scan_id, symbol, analyzed_at, price_score, smart_score, volume_score, revival_score, liquidity_usd
		FROM revival_scores
		WHERE address = ? AND analyzed_at >= ? AND analyzed_at <= ?
		ORDER BY analyzed_at ASC
	`

	rows, err := s.conn.Query(ctx, query, address, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("query score history: %w", err)
	}
	defer rows.Close()

	return scanScores(rows)
}

// exists checks if a point with the given key exists.
func (s *ScoreStore) exists(ctx context.Context, address, scanID string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `
		SELECT count(*) FROM revival_scores
		WHERE address = ? AND scan_id = ?
	`, address, scanID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func scanScores(rows driver.Rows) ([]domain.ScorePoint, error) {
	var points []domain.ScorePoint
	for rows.Next() {
		var p domain.ScorePoint
		err := rows.Scan(
			&p.Address, &p.ScanID, &p.Symbol, &p.At,
			&p.PriceScore, &p.SmartScore, &p.VolumeScore, &p.Score, &p.Liquidity,
		)
		if err != nil {
			return nil, fmt.Errorf("scan score row: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate score rows: %w", err)
	}
	return points, nil
}
