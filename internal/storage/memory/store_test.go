package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"solana-revival-scanner/internal/domain"
	"solana-revival-scanner/internal/storage"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func scan(id string, started time.Time) *domain.ScanCycle {
	return &domain.ScanCycle{
		ID:          id,
		StartedAt:   started,
		FinishedAt:  started.Add(time.Minute),
		Status:      domain.ScanCompleted,
		PhaseCounts: map[domain.Phase]int{domain.PhaseDiscovered: 10, domain.PhaseRevival: 1},
	}
}

func res(addr string, score float64, at time.Time) *domain.RevivalResult {
	return &domain.RevivalResult{Address: addr, Symbol: "S", RevivalScore: score, AnalyzedAt: at}
}

func TestStore_ScanInsertAndGet(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if err := store.InsertScan(ctx, scan("s1", t0)); err != nil {
		t.Fatalf("InsertScan failed: %v", err)
	}

	got, err := store.GetScan(ctx, "s1")
	if err != nil {
		t.Fatalf("GetScan failed: %v", err)
	}
	if got.PhaseCounts[domain.PhaseDiscovered] != 10 {
		t.Errorf("PhaseCounts mismatch: got %v", got.PhaseCounts)
	}

	// mutation of the returned copy must not leak
	got.PhaseCounts[domain.PhaseDiscovered] = 0
	again, _ := store.GetScan(ctx, "s1")
	if again.PhaseCounts[domain.PhaseDiscovered] != 10 {
		t.Error("store returned shared map")
	}
}

func TestStore_ScanErrors(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if err := store.InsertScan(ctx, &domain.ScanCycle{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	_ = store.InsertScan(ctx, scan("s1", t0))
	if err := store.InsertScan(ctx, scan("s1", t0)); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
	if _, err := store.GetScan(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_ListScansNewestFirst(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	for i, id := range []string{"a", "b", "c"} {
		_ = store.InsertScan(ctx, scan(id, t0.Add(time.Duration(i)*time.Hour)))
	}

	got, err := store.ListScans(ctx, 2)
	if err != nil {
		t.Fatalf("ListScans failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != "c" || got[1].ID != "b" {
		t.Errorf("unexpected order: %v, %v", got[0].ID, got[1].ID)
	}
}

func TestStore_Results(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	err := store.InsertResults(ctx, "s1", []*domain.RevivalResult{
		res("a", 0.5, t0), res("b", 0.9, t0), res("c", 0.5, t0),
	})
	if err != nil {
		t.Fatalf("InsertResults failed: %v", err)
	}
	_ = store.InsertResults(ctx, "s2", []*domain.RevivalResult{res("a", 0.7, t0.Add(time.Hour))})

	got, _ := store.ResultsByScan(ctx, "s1")
	if len(got) != 3 || got[0].Address != "b" || got[1].Address != "a" || got[2].Address != "c" {
		t.Errorf("unexpected result order")
	}

	latest, err := store.LatestByAddress(ctx, "a")
	if err != nil {
		t.Fatalf("LatestByAddress failed: %v", err)
	}
	if latest.RevivalScore != 0.7 {
		t.Errorf("latest score: got %v, want 0.7", latest.RevivalScore)
	}
	if _, err := store.LatestByAddress(ctx, "zzz"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_ResultsAtomicOnDuplicate(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	_ = store.InsertResults(ctx, "s1", []*domain.RevivalResult{res("a", 0.5, t0)})

	err := store.InsertResults(ctx, "s1", []*domain.RevivalResult{res("b", 0.5, t0), res("a", 0.1, t0)})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
	got, _ := store.ResultsByScan(ctx, "s1")
	if len(got) != 1 {
		t.Errorf("batch partially applied: %d results", len(got))
	}

	err = store.InsertResults(ctx, "s2", []*domain.RevivalResult{res("x", 0, t0), res("x", 0, t0)})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected intra-batch ErrDuplicateKey, got %v", err)
	}
}

func TestStore_ConcurrentInserts(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.InsertScan(ctx, scan(string(rune('a'+i)), t0))
		}(i)
	}
	wg.Wait()

	got, _ := store.ListScans(ctx, 0)
	if len(got) != 20 {
		t.Errorf("expected 20 scans, got %d", len(got))
	}
}

func TestScoreStore_History(t *testing.T) {
	store := NewScoreStore()
	ctx := context.Background()

	points := []domain.ScorePoint{
		{Address: "a", ScanID: "s2", At: t0.Add(2 * time.Hour), Score: 0.6},
		{Address: "a", ScanID: "s1", At: t0, Score: 0.4},
		{Address: "b", ScanID: "s1", At: t0, Score: 0.9},
	}
	if err := store.InsertScores(ctx, points); err != nil {
		t.Fatalf("InsertScores failed: %v", err)
	}

	got, _ := store.ScoreHistory(ctx, "a", t0, t0.Add(2*time.Hour))
	if len(got) != 2 || got[0].ScanID != "s1" || got[1].ScanID != "s2" {
		t.Errorf("unexpected history: %+v", got)
	}
	got, _ = store.ScoreHistory(ctx, "a", t0.Add(time.Hour), t0.Add(3*time.Hour))
	if len(got) != 1 {
		t.Errorf("range not applied: %d points", len(got))
	}

	err := store.InsertScores(ctx, []domain.ScorePoint{{Address: "a", ScanID: "s1", At: t0}})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
	err = store.InsertScores(ctx, []domain.ScorePoint{{Address: "a"}})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
