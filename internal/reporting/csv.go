package reporting

import (
	"encoding/csv"
	"strconv"
	"strings"
)

var (
	resultsHeader = []string{
		"token_symbol", "token_name", "token_address", "revival_score", "price_score", "smart_score",
		"volume_score", "age_hours", "liquidity_usd", "volume_24h", "price_change_24h", "source", "dexscreener_url",
	}
	summaryHeader = []string{
		"token_symbol", "token_name", "revival_score", "age_hours", "liquidity_usd", "volume_24h", "dexscreener_url",
	}
)

// RenderResultsCSV renders every result column as CSV string.
func RenderResultsCSV(rows []ResultRow) string {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, resultsHeader)
	for _, r := range rows {
		records = append(records, []string{
			r.Symbol,
			r.Name,
			r.Address,
			ff(r.RevivalScore, 4),
			ff(r.PriceScore, 4),
			ff(r.SmartScore, 4),
			ff(r.VolumeScore, 4),
			ff(r.AgeHours, 1),
			ff(r.LiquidityUSD, 2),
			ff(r.Volume24hUSD, 2),
			ff(r.PriceChange24h, 2),
			string(r.Source),
			r.URL,
		})
	}
	return render(records)
}

// RenderSummaryCSV renders the short column set used for quick review.
func RenderSummaryCSV(rows []ResultRow) string {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, summaryHeader)
	for _, r := range rows {
		records = append(records, []string{
			r.Symbol,
			r.Name,
			ff(r.RevivalScore, 4),
			ff(r.AgeHours, 1),
			ff(r.LiquidityUSD, 2),
			ff(r.Volume24hUSD, 2),
			r.URL,
		})
	}
	return render(records)
}

func render(records [][]string) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	_ = w.WriteAll(records) // strings.Builder never fails
	return sb.String()
}

func ff(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}
