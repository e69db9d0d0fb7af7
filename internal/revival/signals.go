package revival

import "solana-revival-scanner/internal/provider/birdeye"

// Volume sub-score criteria.
const (
	volumeThreshold = 50_000
	volumeWeight    = 0.5
)

// SmartMoneyScore maps a whale count to the smart-money step function.
func SmartMoneyScore(whales int) float64 {
	switch {
	case whales >= 5:
		return 1.0
	case whales >= 3:
		return 0.75
	case whales >= 2:
		return 0.5
	case whales >= 1:
		return 0.25
	default:
		return 0
	}
}

// CountWhales counts traders among the first limit whose value exceeds whaleUSD.
func CountWhales(traders []birdeye.Trader, limit int, whaleUSD float64) (whales int, totalUSD float64, checked int) {
	if limit > 0 && len(traders) > limit {
		traders = traders[:limit]
	}
	for _, t := range traders {
		totalUSD += t.ValueUSD
		if t.ValueUSD > whaleUSD {
			whales++
		}
	}
	return whales, totalUSD, len(traders)
}

// VolumeScore is 0.5 for 24h volume above $50K plus 0.5 when buys exceed sells.
func VolumeScore(volume24h float64, buys, sells int) float64 {
	score := 0.0
	if volume24h > volumeThreshold {
		score += volumeWeight
	}
	if buys > sells {
		score += volumeWeight
	}
	return score
}

// Top10Share returns the percentage of the sampled balance held by the first ten
// holders. The denominator is the sum of the returned sample, not the circulating
// supply, so with a ten-holder sample the share is always 100 when non-empty.
func Top10Share(holders []birdeye.Holder) (share, sampled float64) {
	top := 0.0
	for i, h := range holders {
		sampled += h.UIAmount
		if i < 10 {
			top += h.UIAmount
		}
	}
	if sampled <= 0 {
		return 0, sampled
	}
	return top / sampled * 100, sampled
}
