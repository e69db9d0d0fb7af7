package api

import (
	"time"

	"solana-revival-scanner/internal/alert"
	"solana-revival-scanner/internal/domain"
)

type resultView struct {
	Address        string            `json:"token_address"`
	Symbol         string            `json:"token_symbol"`
	Name           string            `json:"token_name"`
	RevivalScore   float64           `json:"revival_score"`
	PriceScore     float64           `json:"price_score"`
	SmartScore     float64           `json:"smart_score"`
	VolumeScore    float64           `json:"volume_score"`
	AgeHours       float64           `json:"age_hours"`
	LiquidityUSD   float64           `json:"liquidity_usd"`
	Volume24hUSD   float64           `json:"volume_24h"`
	PriceChange24h float64           `json:"price_change_24h"`
	HolderCount    int               `json:"holder_count"`
	MarketCapUSD   float64           `json:"market_cap"`
	URL            string            `json:"dexscreener_url"`
	Priority       domain.Priority   `json:"priority,omitempty"`
	Source         domain.DataSource `json:"data_source,omitempty"`
	Error          string            `json:"error,omitempty"`
	PriceDetails   map[string]any    `json:"price_details,omitempty"`
	SmartDetails   map[string]any    `json:"smart_details,omitempty"`
	HolderDetails  map[string]any    `json:"holder_details,omitempty"`
	AnalyzedAt     time.Time         `json:"analyzed_at"`
}

func newResultView(r *domain.RevivalResult) resultView {
	v := resultView{
		Address:        r.Address,
		Symbol:         r.Symbol,
		Name:           r.Name,
		RevivalScore:   r.RevivalScore,
		PriceScore:     r.PriceScore,
		SmartScore:     r.SmartScore,
		VolumeScore:    r.VolumeScore,
		AgeHours:       r.AgeHours,
		LiquidityUSD:   r.LiquidityUSD,
		Volume24hUSD:   r.Volume24hUSD,
		PriceChange24h: r.PriceChange24h,
		HolderCount:    r.HolderCount,
		MarketCapUSD:   r.MarketCapUSD,
		URL:            domain.CanonicalURL(r.URL, r.Address),
		Source:         r.Source,
		Error:          r.Error,
		PriceDetails:   r.PriceDetails,
		SmartDetails:   r.SmartDetails,
		HolderDetails:  r.HolderDetails,
		AnalyzedAt:     r.AnalyzedAt,
	}
	if r.Error == "" {
		v.Priority = domain.PriorityFor(r.RevivalScore)
	}
	return v
}

func newResultViews(results []*domain.RevivalResult) []resultView {
	out := make([]resultView, len(results))
	for i, r := range results {
		out[i] = newResultView(r)
	}
	return out
}

type summaryView struct {
	Date       string                  `json:"date"`
	Total      int                     `json:"total_alerts"`
	ByPriority map[domain.Priority]int `json:"by_priority"`
	Top        []*domain.Alert         `json:"top_alerts"`
}

func newSummaryView(s *alert.Summary) summaryView {
	top := s.Top
	if top == nil {
		top = []*domain.Alert{}
	}
	return summaryView{
		Date:       s.Date.Format("2006-01-02"),
		Total:      s.Total,
		ByPriority: s.ByPriority,
		Top:        top,
	}
}

type errorView struct {
	Error string `json:"error"`
}
