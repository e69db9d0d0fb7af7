package orchestrator

import (
	"context"
	"time"

	"solana-revival-scanner/internal/domain"
	"solana-revival-scanner/internal/provider"
	"solana-revival-scanner/internal/provider/birdeye"
)

// unconfigured stands in for a missing provider so its stage yields nothing.
type unconfigured struct{}

func (unconfigured) MemeList(context.Context, int, int) ([]domain.Token, error) {
	return nil, provider.ErrNotConfigured
}

func (unconfigured) TokenList(context.Context, string, int, int) ([]domain.Token, error) {
	return nil, provider.ErrNotConfigured
}

func (unconfigured) Trending(context.Context, int) ([]domain.Token, error) {
	return nil, provider.ErrNotConfigured
}

func (unconfigured) AgeHours(context.Context, string) (float64, error) {
	return 0, provider.ErrNotConfigured
}

func (unconfigured) Snapshot(context.Context, string) (*domain.MarketSnapshot, error) {
	return nil, provider.ErrNotConfigured
}

func (unconfigured) Overview(context.Context, string) (*birdeye.Overview, error) {
	return nil, provider.ErrNotConfigured
}

func (unconfigured) OHLCV(context.Context, string, string, time.Time, time.Time) ([]birdeye.Candle, error) {
	return nil, provider.ErrNotConfigured
}

func (unconfigured) Holders(context.Context, string, int) ([]birdeye.Holder, error) {
	return nil, provider.ErrNotConfigured
}

func (unconfigured) TopTraders(context.Context, string) ([]birdeye.Trader, error) {
	return nil, provider.ErrNotConfigured
}
