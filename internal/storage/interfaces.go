package storage

import (
	"context"
	"sort"
	"time"

	"solana-revival-scanner/internal/domain"
)

// ScanStore persists finished scan cycles.
type ScanStore interface {
	// InsertScan adds a finished scan. Returns ErrDuplicateKey if the id exists.
	InsertScan(ctx context.Context, s *domain.ScanCycle) error

	// GetScan retrieves a scan by id. Returns ErrNotFound if not exists.
	GetScan(ctx context.Context, id string) (*domain.ScanCycle, error)

	// ListScans returns up to limit scans, most recent first.
	ListScans(ctx context.Context, limit int) ([]*domain.ScanCycle, error)
}

// ResultStore persists the revival results of each scan.
type ResultStore interface {
	// InsertResults adds the results of one scan atomically.
	// Returns ErrDuplicateKey if any (scan_id, address) exists.
	InsertResults(ctx context.Context, scanID string, results []*domain.RevivalResult) error

	// ResultsByScan returns the results of a scan ordered by revival score DESC.
	ResultsByScan(ctx context.Context, scanID string) ([]*domain.RevivalResult, error)

	// LatestByAddress returns the most recent result for a token. Returns ErrNotFound if none.
	LatestByAddress(ctx context.Context, address string) (*domain.RevivalResult, error)
}

// Store combines scan and result persistence behind one backend.
type Store interface {
	ScanStore
	ResultStore
	Close() error
}

// ScoreStore keeps the revival score time series.
type ScoreStore interface {
	// InsertScores appends points. Fails entire batch on duplicate (address, scan_id).
	InsertScores(ctx context.Context, points []domain.ScorePoint) error

	// ScoreHistory returns points for a token within [from, to], ordered by time ASC.
	ScoreHistory(ctx context.Context, address string, from, to time.Time) ([]domain.ScorePoint, error)
}

// ValidateResults checks a result batch for empty or repeated addresses.
func ValidateResults(scanID string, results []*domain.RevivalResult) error {
	if scanID == "" {
		return ErrInvalidInput
	}
	seen := make(map[string]struct{}, len(results))
	for _, r := range results {
		if r == nil || r.Address == "" {
			return ErrInvalidInput
		}
		if _, ok := seen[r.Address]; ok {
			return ErrDuplicateKey
		}
		seen[r.Address] = struct{}{}
	}
	return nil
}

// ValidateScores checks a score batch for missing keys or intra-batch duplicates.
func ValidateScores(points []domain.ScorePoint) error {
	type key struct{ address, scanID string }
	seen := make(map[key]struct{}, len(points))
	for _, p := range points {
		if p.Address == "" || p.ScanID == "" {
			return ErrInvalidInput
		}
		k := key{p.Address, p.ScanID}
		if _, ok := seen[k]; ok {
			return ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}
	return nil
}

// SortResults orders results by revival score DESC, then address ASC.
func SortResults(results []*domain.RevivalResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].RevivalScore != results[j].RevivalScore {
			return results[i].RevivalScore > results[j].RevivalScore
		}
		return results[i].Address < results[j].Address
	})
}
