package pipeline

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"solana-revival-scanner/internal/cache"
	"solana-revival-scanner/internal/domain"
	"solana-revival-scanner/internal/logging"
	"solana-revival-scanner/internal/provider"
)

// MarketLookup returns the canonical pair snapshot of a token.
type MarketLookup interface {
	Snapshot(ctx context.Context, address string) (*domain.MarketSnapshot, error)
}

// CachedMarket wraps a MarketLookup with a read-through TTL cache so that the
// market filter, enrichment and security stages share one request per token.
type CachedMarket struct {
	next  MarketLookup
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedMarket creates a CachedMarket.
func NewCachedMarket(next MarketLookup, c cache.Cache, ttl time.Duration) *CachedMarket {
	return &CachedMarket{next: next, cache: c, ttl: ttl}
}

// Snapshot implements MarketLookup.
func (m *CachedMarket) Snapshot(ctx context.Context, address string) (*domain.MarketSnapshot, error) {
	return cache.Fetch(ctx, m.cache, "pair:"+address, m.ttl, func(ctx context.Context) (*domain.MarketSnapshot, error) {
		return m.next.Snapshot(ctx, address)
	})
}

// MarketFilter keeps tokens whose canonical pair has liquidity >= MinLiquidity
// and 1h volume >= MinVolume1h. Tokens without pair data are excluded.
type MarketFilter struct {
	market    MarketLookup
	minLiq    float64
	minVolume float64
	delay     time.Duration
	logger    *zap.Logger
	progress  ProgressFunc
}

// NewMarketFilter creates a MarketFilter.
func NewMarketFilter(market MarketLookup, minLiquidity, minVolume1h float64, delay time.Duration, logger *zap.Logger) *MarketFilter {
	return &MarketFilter{
		market:    market,
		minLiq:    minLiquidity,
		minVolume: minVolume1h,
		delay:     delay,
		logger:    logging.OrNop(logger).Named("market_filter"),
		progress:  nopProgress,
	}
}

// WithProgress sets the progress callback.
func (f *MarketFilter) WithProgress(p ProgressFunc) *MarketFilter {
	if p != nil {
		f.progress = p
	}
	return f
}

// Run returns the survivors.
func (f *MarketFilter) Run(ctx context.Context, tokens []domain.AgedToken) ([]domain.AgedToken, error) {
	var out []domain.AgedToken

	for i, t := range tokens {
		snap, err := f.market.Snapshot(ctx, t.Address)
		f.progress(i+1, len(tokens))
		switch {
		case errors.Is(err, provider.ErrNotConfigured):
			return nil, err
		case ctx.Err() != nil:
			return out, ctx.Err()
		case err != nil:
			f.logger.Debug("no market data", logging.Token(t.Address, t.Symbol), zap.Error(err))
		case snap.LiquidityUSD < f.minLiq:
			f.logger.Debug("dropped: liquidity below strict minimum", logging.Token(t.Address, t.Symbol),
				zap.Float64("liquidity", snap.LiquidityUSD))
		case snap.Volume1h < f.minVolume:
			f.logger.Debug("dropped: 1h volume below minimum", logging.Token(t.Address, t.Symbol),
				zap.Float64("volume_1h", snap.Volume1h))
		default:
			out = append(out, t)
		}

		if err := pause(ctx, f.delay, i, len(tokens)); err != nil {
			return out, err
		}
	}

	f.logger.Info("market filter complete", zap.Int("in", len(tokens)), zap.Int("out", len(out)))
	return out, nil
}
