package reporting

import (
	"time"

	"solana-revival-scanner/internal/domain"
)

// ScanReport is the rendered view of one finished scan.
type ScanReport struct {
	// Metadata
	ScanID      string
	GeneratedAt time.Time
	StartedAt   time.Time
	Duration    time.Duration
	Status      domain.ScanStatus
	AlertsSent  int

	// Funnel, in pipeline order
	Phases []PhaseCountRow

	// Results sorted by revival score DESC
	Results []ResultRow

	Errors []string
}

// PhaseCountRow is the token count after one phase.
type PhaseCountRow struct {
	Phase  domain.Phase
	Tokens int
}

// ResultRow is one scored token.
type ResultRow struct {
	Symbol         string
	Name           string
	Address        string
	RevivalScore   float64
	PriceScore     float64
	SmartScore     float64
	VolumeScore    float64
	AgeHours       float64
	LiquidityUSD   float64
	Volume24hUSD   float64
	PriceChange24h float64
	Source         domain.DataSource
	URL            string
}

// NewResultRow flattens a revival result.
func NewResultRow(r *domain.RevivalResult) ResultRow {
	return ResultRow{
		Symbol:         r.Symbol,
		Name:           r.Name,
		Address:        r.Address,
		RevivalScore:   r.RevivalScore,
		PriceScore:     r.PriceScore,
		SmartScore:     r.SmartScore,
		VolumeScore:    r.VolumeScore,
		AgeHours:       r.AgeHours,
		LiquidityUSD:   r.LiquidityUSD,
		Volume24hUSD:   r.Volume24hUSD,
		PriceChange24h: r.PriceChange24h,
		Source:         r.Source,
		URL:            domain.CanonicalURL(r.URL, r.Address),
	}
}

// NewScanReport builds a report from a scan and its results. Results are kept in the given order.
func NewScanReport(scan *domain.ScanCycle, results []*domain.RevivalResult, now time.Time) *ScanReport {
	r := &ScanReport{
		ScanID:      scan.ID,
		GeneratedAt: now,
		StartedAt:   scan.StartedAt,
		Duration:    scan.Duration(),
		Status:      scan.Status,
		AlertsSent:  scan.AlertsSent,
		Errors:      scan.Errors,
	}
	for _, p := range domain.Phases {
		r.Phases = append(r.Phases, PhaseCountRow{Phase: p, Tokens: scan.PhaseCounts[p]})
	}
	for _, res := range results {
		r.Results = append(r.Results, NewResultRow(res))
	}
	return r
}
