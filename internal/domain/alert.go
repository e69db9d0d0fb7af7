package domain

import "time"

// Priority is an alert priority derived from the revival score.
type Priority string

const (
	PriorityNone   Priority = ""
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// Priority thresholds (inclusive lower bounds).
const (
	HighThreshold   = 0.8
	MediumThreshold = 0.6
	LowThreshold    = 0.4
)

// PriorityFor maps a revival score to a priority.
func PriorityFor(score float64) Priority {
	switch {
	case score >= HighThreshold:
		return PriorityHigh
	case score >= MediumThreshold:
		return PriorityMedium
	case score >= LowThreshold:
		return PriorityLow
	default:
		return PriorityNone
	}
}

// Alert is a dispatched notification for a revival result.
type Alert struct {
	Address        string    `json:"address"`
	Symbol         string    `json:"symbol"`
	Name           string    `json:"name"`
	Priority       Priority  `json:"priority"`
	Score          float64   `json:"revival_score"`
	PriceScore     float64   `json:"price_score"`
	SmartScore     float64   `json:"smart_score"`
	VolumeScore    float64   `json:"volume_score"`
	AgeHours       float64   `json:"age_hours"`
	LiquidityUSD   float64   `json:"liquidity_usd"`
	Volume24hUSD   float64   `json:"volume_24h"`
	PriceChange24h float64   `json:"price_change_24h"`
	URL            string    `json:"dexscreener_url"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewAlert builds an alert from a result. Priority is computed from the score.
func NewAlert(r *RevivalResult, at time.Time) *Alert {
	return &Alert{
		Address:        r.Address,
		Symbol:         r.Symbol,
		Name:           r.Name,
		Priority:       PriorityFor(r.RevivalScore),
		Score:          r.RevivalScore,
		PriceScore:     r.PriceScore,
		SmartScore:     r.SmartScore,
		VolumeScore:    r.VolumeScore,
		AgeHours:       r.AgeHours,
		LiquidityUSD:   r.LiquidityUSD,
		Volume24hUSD:   r.Volume24hUSD,
		PriceChange24h: r.PriceChange24h,
		URL:            CanonicalURL(r.URL, r.Address),
		Timestamp:      at,
	}
}
