package alert

import (
	"context"

	"go.uber.org/zap"

	"solana-revival-scanner/internal/domain"
	"solana-revival-scanner/internal/logging"
)

// Channel delivers one alert.
type Channel interface {
	Name() string
	Send(ctx context.Context, a *domain.Alert) error
}

// LogChannel writes alerts as structured log lines. It never fails.
type LogChannel struct {
	logger *zap.Logger
}

// NewLogChannel creates a log channel.
func NewLogChannel(logger *zap.Logger) *LogChannel {
	return &LogChannel{logger: logging.OrNop(logger).Named("alert")}
}

func (c *LogChannel) Name() string { return "log" }

func (c *LogChannel) Send(_ context.Context, a *domain.Alert) error {
	c.logger.Info("revival alert",
		logging.Token(a.Address, a.Symbol),
		zap.String("priority", string(a.Priority)),
		zap.Float64("score", a.Score),
		zap.Float64("price_score", a.PriceScore),
		zap.Float64("smart_score", a.SmartScore),
		zap.Float64("volume_score", a.VolumeScore),
		zap.Float64("age_hours", a.AgeHours),
		zap.Float64("liquidity_usd", a.LiquidityUSD),
		zap.Float64("volume_24h", a.Volume24hUSD),
		zap.String("url", a.URL),
	)
	return nil
}

var (
	_ Channel = (*LogChannel)(nil)
	_ Channel = (*TelegramChannel)(nil)
	_ Channel = (*CSVLog)(nil)
)
