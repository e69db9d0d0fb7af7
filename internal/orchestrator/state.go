package orchestrator

import (
	"fmt"
	"sync"
	"time"

	"solana-revival-scanner/internal/domain"
)

// Retention limits of the State logs.
const (
	MaxActivity = 100
	MaxErrors   = 50
	MaxHistory  = 50
)

// Progress is the per-token progress of the running phase.
type Progress struct {
	Phase domain.Phase `json:"phase"`
	Done  int          `json:"done"`
	Total int          `json:"total"`
}

// Status is a point-in-time copy of the scanner state.
type Status struct {
	Running      bool         `json:"running"`  // continuous loop active
	Scanning     bool         `json:"scanning"` // a scan cycle is in progress
	CurrentScan  string       `json:"current_scan,omitempty"`
	CurrentPhase domain.Phase `json:"current_phase,omitempty"`
	Progress     Progress     `json:"progress"`
	LastScan     time.Time    `json:"last_scan,omitempty"`
	NextScan     time.Time    `json:"next_scan,omitempty"`
	TotalScans   int          `json:"total_scans"`
	TotalAlerts  int          `json:"total_alerts"`
	LastResults  int          `json:"last_results"`
}

// State is the single owner of scan state shared with the dashboard.
// All accessors return copies.
type State struct {
	mu sync.RWMutex

	running      bool
	scanning     bool
	currentScan  string
	currentPhase domain.Phase
	progress     Progress
	lastScan     time.Time
	nextScan     time.Time
	totalScans   int
	totalAlerts  int

	activity []ActivityEntry
	errors   []ActivityEntry
	results  []*domain.RevivalResult
	history  []domain.ScanCycle
	phases   map[domain.Phase][]domain.PhaseToken

	now func() time.Time
}

// NewState creates an empty state.
func NewState() *State {
	return &State{
		phases: make(map[domain.Phase][]domain.PhaseToken),
		now:    time.Now,
	}
}

// SetRunning marks the continuous loop as active or stopped.
func (s *State) SetRunning(running bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = running
	if !running {
		s.nextScan = time.Time{}
	}
}

// SetNextScan records when the loop will start the next cycle.
func (s *State) SetNextScan(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextScan = t
}

// Status returns the current status.
func (s *State) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		Running:      s.running,
		Scanning:     s.scanning,
		CurrentScan:  s.currentScan,
		CurrentPhase: s.currentPhase,
		Progress:     s.progress,
		LastScan:     s.lastScan,
		NextScan:     s.nextScan,
		TotalScans:   s.totalScans,
		TotalAlerts:  s.totalAlerts,
		LastResults:  len(s.results),
	}
}

// ActivityLog returns the activity log, oldest first.
func (s *State) ActivityLog() []ActivityEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ActivityEntry(nil), s.activity...)
}

// Errors returns the error log, oldest first.
func (s *State) Errors() []ActivityEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ActivityEntry(nil), s.errors...)
}

// Results returns the latest scan results with a score of at least minScore, highest first.
func (s *State) Results(minScore float64) []*domain.RevivalResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.RevivalResult
	for _, r := range s.results {
		if r.RevivalScore >= minScore {
			rc := *r
			out = append(out, &rc)
		}
	}
	return out
}

// History returns finished scans, most recent first.
func (s *State) History() []domain.ScanCycle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ScanCycle, len(s.history))
	for i := range s.history {
		out[i] = s.history[len(s.history)-1-i]
	}
	return out
}

// Phases returns the latest phase snapshot.
func (s *State) Phases() map[domain.Phase][]domain.PhaseToken {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[domain.Phase][]domain.PhaseToken, len(s.phases))
	for k, v := range s.phases {
		out[k] = append([]domain.PhaseToken(nil), v...)
	}
	return out
}

func (s *State) ScanStarted(scan *domain.ScanCycle) {
	s.mu.Lock()
	s.scanning = true
	s.currentScan = scan.ID
	s.currentPhase = ""
	s.progress = Progress{}
	s.phases = make(map[domain.Phase][]domain.PhaseToken)
	s.mu.Unlock()
	s.Activity(LevelInfo, fmt.Sprintf("Scan %s started", shortID(scan.ID)))
}

func (s *State) PhaseCompleted(_ string, phase domain.Phase, tokens []domain.PhaseToken) {
	s.mu.Lock()
	s.currentPhase = phase
	s.phases[phase] = append([]domain.PhaseToken(nil), tokens...)
	s.mu.Unlock()
	s.Activity(LevelInfo, fmt.Sprintf("Phase %s: %d tokens", phase, len(tokens)))
}

func (s *State) Progress(_ string, phase domain.Phase, done, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = Progress{Phase: phase, Done: done, Total: total}
}

func (s *State) Activity(level, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := ActivityEntry{Time: s.now(), Level: level, Message: message}
	s.activity = appendBounded(s.activity, e, MaxActivity)
	if level == LevelError || level == LevelWarning {
		s.errors = appendBounded(s.errors, e, MaxErrors)
	}
}

func (s *State) ScanFinished(res *ScanResult) {
	s.mu.Lock()
	s.finishLocked(res.Cycle)
	s.results = append([]*domain.RevivalResult(nil), res.Detected...)
	s.totalAlerts += res.Cycle.AlertsSent
	s.mu.Unlock()
	s.Activity(LevelSuccess, fmt.Sprintf("Scan %s completed: %d revivals, %d alerts",
		shortID(res.Cycle.ID), len(res.Detected), res.Cycle.AlertsSent))
}

func (s *State) ScanFailed(scan *domain.ScanCycle, err error) {
	s.mu.Lock()
	s.finishLocked(scan)
	s.mu.Unlock()
	s.Activity(LevelError, fmt.Sprintf("Scan %s failed: %v", shortID(scan.ID), err))
}

func (s *State) finishLocked(scan *domain.ScanCycle) {
	s.scanning = false
	s.currentScan = ""
	s.currentPhase = ""
	s.progress = Progress{}
	s.lastScan = scan.FinishedAt
	s.totalScans++
	entry := *scan
	entry.Snapshot = nil
	s.history = appendBounded(s.history, entry, MaxHistory)
}

func appendBounded[T any](xs []T, x T, limit int) []T {
	xs = append(xs, x)
	if len(xs) > limit {
		xs = append(xs[:0:0], xs[len(xs)-limit:]...)
	}
	return xs
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
