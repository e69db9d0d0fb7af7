package revival

// Price pattern windows, in hourly candles.
const (
	MinCandles     = 24
	earlyWindow    = 12
	floorWindowEnd = 24
	recentWindow   = 6
	olderVolumeEnd = 18
)

// Price pattern criteria; each one met adds 0.25.
const (
	minDumpSeverity   = 0.2
	maxDumpSeverity   = 0.6
	minRecoveryRatio  = 1.2
	minVolumeIncrease = 1.5
	criterionWeight   = 0.25
)

// InsufficientPriceData is the annotation for a candle set shorter than MinCandles.
const InsufficientPriceData = "Insufficient price data"

// PricePattern scores the pump-dump-revival shape of hourly closes and volumes,
// ordered oldest first. Fewer than MinCandles closes score 0 with an error annotation.
func PricePattern(closes, volumes []float64) (float64, map[string]any) {
	if len(closes) < MinCandles {
		return 0, map[string]any{"error": InsufficientPriceData, "price_data_points": len(closes)}
	}

	earlyPeak := maxOf(closes[:earlyWindow])
	floorEnd := floorWindowEnd
	if len(closes) < floorEnd {
		floorEnd = len(closes)
	}
	floor := minOf(closes[earlyWindow:floorEnd])
	current := closes[len(closes)-1]

	dumpSeverity := 1.0
	if earlyPeak > 0 {
		dumpSeverity = floor / earlyPeak
	}
	recoveryRatio := 1.0
	if floor > 0 {
		recoveryRatio = current / floor
	}

	higherLows := HigherLows(tail(closes, recentWindow))

	recentVolume := 0.0
	if len(volumes) >= recentWindow {
		recentVolume = mean(tail(volumes, recentWindow))
	}
	olderVolume := recentVolume
	if len(volumes) >= olderVolumeEnd {
		olderVolume = mean(volumes[earlyWindow:olderVolumeEnd])
	}
	volumeIncrease := 1.0
	if olderVolume > 0 {
		volumeIncrease = recentVolume / olderVolume
	}

	score := 0.0
	if dumpSeverity >= minDumpSeverity && dumpSeverity <= maxDumpSeverity {
		score += criterionWeight
	}
	if recoveryRatio >= minRecoveryRatio {
		score += criterionWeight
	}
	if higherLows {
		score += criterionWeight
	}
	if volumeIncrease >= minVolumeIncrease {
		score += criterionWeight
	}

	return score, map[string]any{
		"early_peak":        earlyPeak,
		"floor_price":       floor,
		"current_price":     current,
		"dump_severity":     dumpSeverity,
		"recovery_ratio":    recoveryRatio,
		"higher_lows":       higherLows,
		"volume_increase":   volumeIncrease,
		"price_data_points": len(closes),
	}
}

// HigherLows reports whether the local minima of prices (points lower than both
// neighbours) number at least two and are strictly increasing.
func HigherLows(prices []float64) bool {
	if len(prices) < 3 {
		return false
	}
	var lows []float64
	for i := 1; i < len(prices)-1; i++ {
		if prices[i] < prices[i-1] && prices[i] < prices[i+1] {
			lows = append(lows, prices[i])
		}
	}
	if len(lows) < 2 {
		return false
	}
	for i := 1; i < len(lows); i++ {
		if lows[i] <= lows[i-1] {
			return false
		}
	}
	return true
}

func tail(xs []float64, n int) []float64 {
	if len(xs) <= n {
		return xs
	}
	return xs[len(xs)-n:]
}

func maxOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

func minOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
