package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *ScanReport) string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# Scan %s\n\n", r.ScanID))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Started: %s | Duration: %s | Status: %s | Alerts: %d\n\n",
		r.StartedAt.Format(time.RFC3339), r.Duration.Round(time.Second), r.Status, r.AlertsSent))

	// Funnel
	sb.WriteString("## Funnel\n\n")
	sb.WriteString("| Phase | Tokens |\n")
	sb.WriteString("|-------|--------|\n")
	for _, p := range r.Phases {
		sb.WriteString(fmt.Sprintf("| %s | %d |\n", p.Phase, p.Tokens))
	}
	sb.WriteString("\n")

	// Results
	sb.WriteString("## Revivals\n\n")
	if len(r.Results) > 0 {
		sb.WriteString("| Symbol | Score | Price | Smart | Volume | Age (h) | Liquidity | Volume 24h | Chart |\n")
		sb.WriteString("|--------|-------|-------|-------|--------|---------|-----------|------------|-------|\n")
		for _, res := range r.Results {
			sb.WriteString(fmt.Sprintf("| %s | %.3f | %.2f | %.2f | %.2f | %.1f | $%.0f | $%.0f | %s |\n",
				res.Symbol, res.RevivalScore, res.PriceScore, res.SmartScore, res.VolumeScore,
				res.AgeHours, res.LiquidityUSD, res.Volume24hUSD, res.URL))
		}
	} else {
		sb.WriteString("No revival opportunities found this scan.\n")
	}
	sb.WriteString("\n")

	// Errors (always shown if present)
	if len(r.Errors) > 0 {
		sb.WriteString("## Errors\n\n")
		for _, err := range r.Errors {
			sb.WriteString(fmt.Sprintf("- %s\n", err))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
