package pipeline

import (
	"go.uber.org/zap"

	"solana-revival-scanner/internal/domain"
	"solana-revival-scanner/internal/logging"
)

// PrefilterConfig holds the liquidity and market-cap gate.
type PrefilterConfig struct {
	MinLiquidity float64 // inclusive
	MaxMarketCap float64 // inclusive; 0 disables the cap
}

// Prefilter keeps tokens with liquidity >= MinLiquidity and market cap <= MaxMarketCap.
// Order is preserved; no deduplication happens here.
func Prefilter(tokens []domain.Token, cfg PrefilterConfig, logger *zap.Logger) []domain.Token {
	logger = logging.OrNop(logger).Named("prefilter")

	out := make([]domain.Token, 0, len(tokens))
	for _, t := range tokens {
		if t.LiquidityUSD < cfg.MinLiquidity {
			logger.Debug("dropped: liquidity below minimum",
				logging.Token(t.Address, t.Symbol),
				zap.Float64("liquidity", t.LiquidityUSD),
				zap.Float64("min", cfg.MinLiquidity))
			continue
		}
		if cfg.MaxMarketCap > 0 && t.MarketCapUSD > cfg.MaxMarketCap {
			logger.Debug("dropped: market cap above maximum",
				logging.Token(t.Address, t.Symbol),
				zap.Float64("market_cap", t.MarketCapUSD),
				zap.Float64("max", cfg.MaxMarketCap))
			continue
		}
		out = append(out, t)
	}
	logger.Info("prefilter complete", zap.Int("in", len(tokens)), zap.Int("out", len(out)))
	return out
}
