package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"solana-revival-scanner/internal/domain"
	"solana-revival-scanner/internal/storage"
)

// ScoreStore is an in-memory implementation of storage.ScoreStore.
type ScoreStore struct {
	mu     sync.RWMutex
	points map[string][]domain.ScorePoint // keyed by address
}

// NewScoreStore creates a new in-memory score store.
func NewScoreStore() *ScoreStore {
	return &ScoreStore{points: make(map[string][]domain.ScorePoint)}
}

// Compile-time interface check.
var _ storage.ScoreStore = (*ScoreStore)(nil)

// InsertScores appends points. Fails entire batch on duplicate (address, scan_id).
func (s *ScoreStore) InsertScores(_ context.Context, points []domain.ScorePoint) error {
	if err := storage.ValidateScores(points); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range points {
		for _, existing := range s.points[p.Address] {
			if existing.ScanID == p.ScanID {
				return storage.ErrDuplicateKey
			}
		}
	}
	for _, p := range points {
		s.points[p.Address] = append(s.points[p.Address], p)
	}
	return nil
}

// ScoreHistory returns points for a token within [from, to], ordered by time ASC.
func (s *ScoreStore) ScoreHistory(_ context.Context, address string, from, to time.Time) ([]domain.ScorePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.ScorePoint
	for _, p := range s.points[address] {
		if p.At.Before(from) || p.At.After(to) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out, nil
}
