package domain

import "time"

// Composite score weights.
const (
	PriceWeight  = 0.5
	SmartWeight  = 0.3
	VolumeWeight = 0.2
)

// DataSource identifies where the revival scorer got its overview.
type DataSource string

const (
	DataSourceBirdEye     DataSource = "birdeye"
	DataSourceDexScreener DataSource = "dexscreener"
)

// RevivalResult is the immutable output of the revival scorer for one token.
type RevivalResult struct {
	Address        string
	Symbol         string
	Name           string
	PriceScore     float64
	SmartScore     float64
	VolumeScore    float64
	RevivalScore   float64
	AgeHours       float64
	LiquidityUSD   float64
	Volume24hUSD   float64
	PriceChange24h float64
	HolderCount    int
	MarketCapUSD   float64
	FDV            float64
	Buys24h        int
	Sells24h       int
	URL            string
	Error          string // gate failure or lookup problem; score is 0 when a gate fails
	PriceDetails   map[string]any
	SmartDetails   map[string]any
	HolderDetails  map[string]any
	Source         DataSource
	AnalyzedAt     time.Time
}

// CompositeScore returns the fixed weighted sum of the three sub-scores.
func CompositeScore(price, smart, volume float64) float64 {
	return PriceWeight*price + SmartWeight*smart + VolumeWeight*volume
}

// ScorePoint is one scored observation of a token, kept as a time series.
type ScorePoint struct {
	Address     string
	Symbol      string
	ScanID      string
	At          time.Time
	PriceScore  float64
	SmartScore  float64
	VolumeScore float64
	Score       float64
	Liquidity   float64
}

// NewScorePoint builds the time-series point of a result.
func NewScorePoint(scanID string, r *RevivalResult) ScorePoint {
	return ScorePoint{
		Address:     r.Address,
		Symbol:      r.Symbol,
		ScanID:      scanID,
		At:          r.AnalyzedAt,
		PriceScore:  r.PriceScore,
		SmartScore:  r.SmartScore,
		VolumeScore: r.VolumeScore,
		Score:       r.RevivalScore,
		Liquidity:   r.LiquidityUSD,
	}
}
