package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"solana-revival-scanner/internal/domain"
	"solana-revival-scanner/internal/observability"
	"solana-revival-scanner/internal/storage"
)

// Store implements storage.Store using PostgreSQL.
type Store struct {
	pool *Pool
}

// NewStore creates a new Store.
func NewStore(pool *Pool) *Store {
	return &Store{pool: pool}
}

// Compile-time interface check.
var _ storage.Store = (*Store)(nil)

func observe(op string, start time.Time, err error) {
	observability.RecordDBQuery("postgres", op, time.Since(start).Seconds(), err)
}

// InsertScan adds a finished scan. Returns ErrDuplicateKey if the id exists.
func (s *Store) InsertScan(ctx context.Context, scan *domain.ScanCycle) (err error) {
	if scan == nil || scan.ID == "" {
		return storage.ErrInvalidInput
	}
	defer func(start time.Time) { observe("insert_scan", start, err) }(time.Now())

	counts, errs, err := storage.EncodeScanColumns(scan)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO scans (id, started_at, finished_at, status, phase_counts, alerts_sent, errors)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	var finished *time.Time
	if !scan.FinishedAt.IsZero() {
		finished = &scan.FinishedAt
	}
	_, err = s.pool.Exec(ctx, query,
		scan.ID,
		scan.StartedAt,
		finished,
		string(scan.Status),
		counts,
		scan.AlertsSent,
		errs,
	)
	if err != nil {
		return mapError(err, "insert scan")
	}
	return nil
}

const scanColumns = `id, started_at, finished_at, status, phase_counts, alerts_sent, errors`

// GetScan retrieves a scan by id. Returns ErrNotFound if not exists.
func (s *Store) GetScan(ctx context.Context, id string) (*domain.ScanCycle, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+scanColumns+` FROM scans WHERE id = $1`, id)
	scan, err := scanScan(row)
	if err != nil {
		return nil, mapError(err, "get scan")
	}
	return scan, nil
}

// ListScans returns up to limit scans, most recent first.
func (s *Store) ListScans(ctx context.Context, limit int) ([]*domain.ScanCycle, error) {
	query := `SELECT ` + scanColumns + ` FROM scans ORDER BY started_at DESC, id ASC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	defer rows.Close()

	var out []*domain.ScanCycle
	for rows.Next() {
		scan, err := scanScan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, scan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scans: %w", err)
	}
	return out, nil
}

func scanScan(row pgx.Row) (*domain.ScanCycle, error) {
	var (
		scan     domain.ScanCycle
		status   string
		finished *time.Time
		counts   []byte
		errs     []byte
	)
	if err := row.Scan(&scan.ID, &scan.StartedAt, &finished, &status, &counts, &scan.AlertsSent, &errs); err != nil {
		return nil, err
	}
	scan.Status = domain.ScanStatus(status)
	if finished != nil {
		scan.FinishedAt = *finished
	}
	if err := storage.DecodeScanColumns(counts, errs, &scan); err != nil {
		return nil, err
	}
	return &scan, nil
}

// InsertResults adds the results of one scan atomically.
func (s *Store) InsertResults(ctx context.Context, scanID string, results []*domain.RevivalResult) (err error) {
	if err := storage.ValidateResults(scanID, results); err != nil {
		return err
	}
	if len(results) == 0 {
		return nil
	}
	defer func(start time.Time) { observe("insert_results", start, err) }(time.Now())

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO revival_results (
			scan_id, address, symbol, name, price_score, smart_score, volume_score, revival_score,
			age_hours, liquidity_usd, volume_24h, price_change_24h, holder_count, market_cap_usd,
			fdv, buys_24h, sells_24h, url, error, source, details, analyzed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	`
	for _, r := range results {
		details, err := storage.EncodeDetails(r)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, query,
			scanID, r.Address, r.Symbol, r.Name,
			r.PriceScore, r.SmartScore, r.VolumeScore, r.RevivalScore,
			r.AgeHours, r.LiquidityUSD, r.Volume24hUSD, r.PriceChange24h,
			r.HolderCount, r.MarketCapUSD, r.FDV, r.Buys24h, r.Sells24h,
			r.URL, r.Error, string(r.Source), details, r.AnalyzedAt,
		)
		if err != nil {
			return mapError(err, "insert result")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

const resultColumns = `
	address, symbol, name, price_score, smart_score, volume_score, revival_score,
	age_hours, liquidity_usd, volume_24h, price_change_24h, holder_count, market_cap_usd,
	fdv, buys_24h, sells_24h, url, error, source, details, analyzed_at
`

// ResultsByScan returns the results of a scan ordered by revival score DESC.
func (s *Store) ResultsByScan(ctx context.Context, scanID string) ([]*domain.RevivalResult, error) {
	query := `SELECT ` + resultColumns + ` FROM revival_results WHERE scan_id = $1 ORDER BY revival_score DESC, address ASC`

	rows, err := s.pool.Query(ctx, query, scanID)
	if err != nil {
		return nil, fmt.Errorf("get results by scan: %w", err)
	}
	defer rows.Close()

	var out []*domain.RevivalResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return out, nil
}

// LatestByAddress returns the most recent result for a token. Returns ErrNotFound if none.
func (s *Store) LatestByAddress(ctx context.Context, address string) (*domain.RevivalResult, error) {
	query := `SELECT ` + resultColumns + ` FROM revival_results WHERE address = $1 ORDER BY analyzed_at DESC LIMIT 1`

	r, err := scanResult(s.pool.QueryRow(ctx, query, address))
	if err != nil {
		return nil, mapError(err, "get latest result")
	}
	return r, nil
}

func scanResult(row pgx.Row) (*domain.RevivalResult, error) {
	var (
		r       domain.RevivalResult
		source  string
		details []byte
	)
	err := row.Scan(
		&r.Address, &r.Symbol, &r.Name,
		&r.PriceScore, &r.SmartScore, &r.VolumeScore, &r.RevivalScore,
		&r.AgeHours, &r.LiquidityUSD, &r.Volume24hUSD, &r.PriceChange24h,
		&r.HolderCount, &r.MarketCapUSD, &r.FDV, &r.Buys24h, &r.Sells24h,
		&r.URL, &r.Error, &source, &details, &r.AnalyzedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Source = domain.DataSource(source)
	if err := storage.DecodeDetails(details, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Close closes the underlying pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
