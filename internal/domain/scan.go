package domain

import "time"

// Phase names a pipeline stage in the scan snapshot.
type Phase string

const (
	PhaseDiscovered     Phase = "discovered"
	PhasePrefiltered    Phase = "prefiltered"
	PhaseAged           Phase = "aged"
	PhaseMarketFiltered Phase = "market_filtered"
	PhaseEnriched       Phase = "enriched"
	PhaseSecurityPassed Phase = "security_passed"
	PhaseRevival        Phase = "revival_detected"
)

// Phases lists all phases in pipeline order.
var Phases = []Phase{
	PhaseDiscovered,
	PhasePrefiltered,
	PhaseAged,
	PhaseMarketFiltered,
	PhaseEnriched,
	PhaseSecurityPassed,
	PhaseRevival,
}

// ScanStatus is the terminal state of a scan cycle.
type ScanStatus string

const (
	ScanRunning   ScanStatus = "running"
	ScanCompleted ScanStatus = "completed"
	ScanFailed    ScanStatus = "failed"
)

// PhaseToken is a survivor entry in the phase snapshot.
type PhaseToken struct {
	Address      string  `json:"address"`
	Symbol       string  `json:"symbol"`
	LiquidityUSD float64 `json:"liquidity_usd"`
	Score        float64 `json:"score,omitempty"`
}

// ScanCycle is one execution of the full pipeline.
// The phase snapshot is for observability only.
type ScanCycle struct {
	ID          string                 `json:"id"`
	StartedAt   time.Time              `json:"started_at"`
	FinishedAt  time.Time              `json:"finished_at"`
	Status      ScanStatus             `json:"status"`
	PhaseCounts map[Phase]int          `json:"phase_counts"`
	Snapshot    map[Phase][]PhaseToken `json:"-"`
	AlertsSent  int                    `json:"alerts_sent"`
	Errors      []string               `json:"errors,omitempty"`
}

// Duration returns the scan wall time.
func (s *ScanCycle) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
