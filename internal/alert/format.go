package alert

import (
	"fmt"
	"html"
	"strings"

	"solana-revival-scanner/internal/domain"
)

var priorityIcon = map[domain.Priority]string{
	domain.PriorityHigh:   "🚨",
	domain.PriorityMedium: "⚠️",
	domain.PriorityLow:    "ℹ️",
}

// FormatAlert renders an alert as a Telegram HTML message.
func FormatAlert(a *domain.Alert) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>%s REVIVAL</b> | %s\n\n", priorityIcon[a.Priority], a.Priority, html.EscapeString(a.Symbol)))
	if a.Name != "" {
		b.WriteString(fmt.Sprintf("%s\n", html.EscapeString(a.Name)))
	}
	b.WriteString(fmt.Sprintf("<code>%s</code>\n\n", a.Address))
	b.WriteString(fmt.Sprintf("Revival score: <b>%.2f</b>\n", a.Score))
	b.WriteString(fmt.Sprintf("  price %.2f | smart money %.2f | volume %.2f\n", a.PriceScore, a.SmartScore, a.VolumeScore))
	b.WriteString(fmt.Sprintf("Age: %.1f days\n", a.AgeHours/24))
	b.WriteString(fmt.Sprintf("Liquidity: $%.0f\n", a.LiquidityUSD))
	b.WriteString(fmt.Sprintf("Volume 24h: $%.0f (%+.1f%%)\n", a.Volume24hUSD, a.PriceChange24h))
	b.WriteString(fmt.Sprintf("\n<a href=\"%s\">DexScreener</a>", a.URL))
	return b.String()
}

// FormatSummary renders a daily summary as a Telegram HTML message.
func FormatSummary(s *Summary) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>Daily revival summary</b> | %s\n\n", s.Date.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Alerts today: %d\n", s.Total))
	for _, p := range []domain.Priority{domain.PriorityHigh, domain.PriorityMedium, domain.PriorityLow} {
		b.WriteString(fmt.Sprintf("  %s: %d\n", p, s.ByPriority[p]))
	}
	if len(s.Top) > 0 {
		b.WriteString("\n<b>Top tokens:</b>\n")
		for i, a := range s.Top {
			b.WriteString(fmt.Sprintf("%d. %s %.2f\n", i+1, html.EscapeString(a.Symbol), a.Score))
		}
	}
	return b.String()
}
