package memory

import (
	"context"
	"sort"
	"sync"

	"solana-revival-scanner/internal/domain"
	"solana-revival-scanner/internal/storage"
)

// Store is an in-memory implementation of storage.Store.
type Store struct {
	mu      sync.RWMutex
	scans   map[string]*domain.ScanCycle
	results map[string]map[string]*domain.RevivalResult // scan_id -> address -> result
}

// NewStore creates a new in-memory scan and result store.
func NewStore() *Store {
	return &Store{
		scans:   make(map[string]*domain.ScanCycle),
		results: make(map[string]map[string]*domain.RevivalResult),
	}
}

// Compile-time interface check.
var _ storage.Store = (*Store)(nil)

// InsertScan adds a finished scan. Returns ErrDuplicateKey if the id exists.
func (s *Store) InsertScan(_ context.Context, scan *domain.ScanCycle) error {
	if scan == nil || scan.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.scans[scan.ID]; exists {
		return storage.ErrDuplicateKey
	}
	s.scans[scan.ID] = copyScan(scan)
	return nil
}

// GetScan retrieves a scan by id. Returns ErrNotFound if not exists.
func (s *Store) GetScan(_ context.Context, id string) (*domain.ScanCycle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scan, exists := s.scans[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyScan(scan), nil
}

// ListScans returns up to limit scans, most recent first.
func (s *Store) ListScans(_ context.Context, limit int) ([]*domain.ScanCycle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.ScanCycle, 0, len(s.scans))
	for _, scan := range s.scans {
		out = append(out, copyScan(scan))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// InsertResults adds the results of one scan atomically.
func (s *Store) InsertResults(_ context.Context, scanID string, results []*domain.RevivalResult) error {
	if err := storage.ValidateResults(scanID, results); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.results[scanID]
	for _, r := range results {
		if _, dup := existing[r.Address]; dup {
			return storage.ErrDuplicateKey
		}
	}
	if existing == nil {
		existing = make(map[string]*domain.RevivalResult, len(results))
		s.results[scanID] = existing
	}
	for _, r := range results {
		rc := *r
		existing[r.Address] = &rc
	}
	return nil
}

// ResultsByScan returns the results of a scan ordered by revival score DESC.
func (s *Store) ResultsByScan(_ context.Context, scanID string) ([]*domain.RevivalResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.RevivalResult
	for _, r := range s.results[scanID] {
		rc := *r
		out = append(out, &rc)
	}
	storage.SortResults(out)
	return out, nil
}

// LatestByAddress returns the most recent result for a token.
func (s *Store) LatestByAddress(_ context.Context, address string) (*domain.RevivalResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.RevivalResult
	for _, byAddr := range s.results {
		r, ok := byAddr[address]
		if !ok {
			continue
		}
		if latest == nil || r.AnalyzedAt.After(latest.AnalyzedAt) {
			latest = r
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}
	rc := *latest
	return &rc, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

func copyScan(scan *domain.ScanCycle) *domain.ScanCycle {
	c := *scan
	c.PhaseCounts = make(map[domain.Phase]int, len(scan.PhaseCounts))
	for k, v := range scan.PhaseCounts {
		c.PhaseCounts[k] = v
	}
	c.Errors = append([]string(nil), scan.Errors...)
	return &c
}
