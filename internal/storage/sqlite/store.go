package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"solana-revival-scanner/internal/domain"
	"solana-revival-scanner/internal/observability"
	"solana-revival-scanner/internal/storage"
)

// Store implements storage.Store using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a new Store on an opened database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Compile-time interface check.
var _ storage.Store = (*Store)(nil)

func observe(op string, start time.Time, err error) {
	observability.RecordDBQuery("sqlite", op, time.Since(start).Seconds(), err)
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
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
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO scans (id, started_at, finished_at, status, phase_counts, alerts_sent, errors)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		scan.ID, toMillis(scan.StartedAt), toMillis(scan.FinishedAt), string(scan.Status),
		string(counts), scan.AlertsSent, string(errs),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert scan: %w", err)
	}
	return nil
}

const scanColumns = `id, started_at, finished_at, status, phase_counts, alerts_sent, errors`

// GetScan retrieves a scan by id. Returns ErrNotFound if not exists.
func (s *Store) GetScan(ctx context.Context, id string) (*domain.ScanCycle, error) {
	scan, err := scanScan(s.db.QueryRowContext(ctx, `SELECT `+scanColumns+` FROM scans WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get scan: %w", err)
	}
	return scan, nil
}

// ListScans returns up to limit scans, most recent first.
func (s *Store) ListScans(ctx context.Context, limit int) ([]*domain.ScanCycle, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+scanColumns+` FROM scans ORDER BY started_at DESC, id ASC LIMIT ?`, limit)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScan(row rowScanner) (*domain.ScanCycle, error) {
	var (
		scan              domain.ScanCycle
		started, finished int64
		status            string
		counts, errs      string
	)
	if err := row.Scan(&scan.ID, &started, &finished, &status, &counts, &scan.AlertsSent, &errs); err != nil {
		return nil, err
	}
	scan.StartedAt = fromMillis(started)
	scan.FinishedAt = fromMillis(finished)
	scan.Status = domain.ScanStatus(status)
	if err := storage.DecodeScanColumns([]byte(counts), []byte(errs), &scan); err != nil {
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

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO revival_results (
			scan_id, address, symbol, name, price_score, smart_score, volume_score, revival_score,
			age_hours, liquidity_usd, volume_24h, price_change_24h, holder_count, market_cap_usd,
			fdv, buys_24h, sells_24h, url, error, source, details, analyzed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range results {
		details, err := storage.EncodeDetails(r)
		if err != nil {
			return err
		}
		_, err = stmt.ExecContext(ctx,
			scanID, r.Address, r.Symbol, r.Name,
			r.PriceScore, r.SmartScore, r.VolumeScore, r.RevivalScore,
			r.AgeHours, r.LiquidityUSD, r.Volume24hUSD, r.PriceChange24h,
			r.HolderCount, r.MarketCapUSD, r.FDV, r.Buys24h, r.Sells24h,
			r.URL, r.Error, string(r.Source), string(details), toMillis(r.AnalyzedAt),
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
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
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+resultColumns+` FROM revival_results WHERE scan_id = ? ORDER BY revival_score DESC, address ASC`, scanID)
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
	r, err := scanResult(s.db.QueryRowContext(ctx,
		`SELECT `+resultColumns+` FROM revival_results WHERE address = ? ORDER BY analyzed_at DESC LIMIT 1`, address))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest result: %w", err)
	}
	return r, nil
}

func scanResult(row rowScanner) (*domain.RevivalResult, error) {
	var (
		r        domain.RevivalResult
		source   string
		details  string
		analyzed int64
	)
	err := row.Scan(
		&r.Address, &r.Symbol, &r.Name,
		&r.PriceScore, &r.SmartScore, &r.VolumeScore, &r.RevivalScore,
		&r.AgeHours, &r.LiquidityUSD, &r.Volume24hUSD, &r.PriceChange24h,
		&r.HolderCount, &r.MarketCapUSD, &r.FDV, &r.Buys24h, &r.Sells24h,
		&r.URL, &r.Error, &source, &details, &analyzed,
	)
	if err != nil {
		return nil, err
	}
	r.Source = domain.DataSource(source)
	r.AnalyzedAt = fromMillis(analyzed)
	if err := storage.DecodeDetails([]byte(details), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
