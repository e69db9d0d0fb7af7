// Package revival computes the composite revival score of a token: a weighted
// sum of the pump-dump-revival price pattern, smart-money presence and volume
// activity, behind age, liquidity and holder-concentration gates.
package revival

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"solana-revival-scanner/internal/cache"
	"solana-revival-scanner/internal/domain"
	"solana-revival-scanner/internal/logging"
	"solana-revival-scanner/internal/observability"
	"solana-revival-scanner/internal/provider"
	"solana-revival-scanner/internal/provider/birdeye"
)

// ReasonNoTokenData is recorded when neither provider has the token.
const ReasonNoTokenData = "Could not fetch token data from any source"

const (
	holderSample   = 10
	priceHistory   = 72 * time.Hour
	overviewPrefix = "overview:"
)

// BirdEye is the analytics provider used for the overview and the three signals.
type BirdEye interface {
	Overview(ctx context.Context, address string) (*birdeye.Overview, error)
	OHLCV(ctx context.Context, address, interval string, from, to time.Time) ([]birdeye.Candle, error)
	Holders(ctx context.Context, address string, limit int) ([]birdeye.Holder, error)
	TopTraders(ctx context.Context, address string) ([]birdeye.Trader, error)
}

// MarketLookup returns the canonical DEX pair, used when the overview is unavailable.
type MarketLookup interface {
	Snapshot(ctx context.Context, address string) (*domain.MarketSnapshot, error)
}

// Config holds the scorer gates and batch limits.
type Config struct {
	MinAgeHours     float64
	MaxAgeHours     float64 // 0 disables the upper gate
	MinLiquidity    float64
	MaxTop10Percent float64
	WhaleUSD        float64
	TopTraders      int
	MinScore        float64
	MaxTokens       int
	Delay           time.Duration
	CacheTTL        time.Duration
}

// DefaultConfig returns the standard gates.
func DefaultConfig() Config {
	return Config{
		MinAgeHours:     24,
		MaxAgeHours:     4320,
		MinLiquidity:    80_000,
		MaxTop10Percent: 70,
		WhaleUSD:        100_000,
		TopTraders:      20,
		MinScore:        0.4,
		MaxTokens:       40,
		Delay:           2 * time.Second,
		CacheTTL:        300 * time.Second,
	}
}

// Scorer computes revival results.
type Scorer struct {
	birdeye  BirdEye
	market   MarketLookup
	cache    cache.Cache
	cfg      Config
	logger   *zap.Logger
	now      func() time.Time
	progress func(done, total int)
}

// NewScorer creates a scorer. market may be nil to disable the fallback.
func NewScorer(be BirdEye, market MarketLookup, cfg Config, logger *zap.Logger) *Scorer {
	if cfg.TopTraders <= 0 {
		cfg.TopTraders = 20
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 40
	}
	return &Scorer{
		birdeye:  be,
		market:   market,
		cache:    cache.Nop{},
		cfg:      cfg,
		logger:   logging.OrNop(logger).Named("revival"),
		now:      time.Now,
		progress: func(int, int) {},
	}
}

// WithCache sets the overview cache.
func (s *Scorer) WithCache(c cache.Cache) *Scorer {
	if c != nil {
		s.cache = c
	}
	return s
}

// WithClock sets the time source, used for ages and the OHLCV window.
func (s *Scorer) WithClock(now func() time.Time) *Scorer {
	s.now = now
	return s
}

// WithProgress sets the batch progress callback.
func (s *Scorer) WithProgress(p func(done, total int)) *Scorer {
	if p != nil {
		s.progress = p
	}
	return s
}

// overview is the provider-neutral token summary the gates read.
type overview struct {
	symbol, name   string
	ageHours       float64
	liquidity      float64
	volume24h      float64
	priceChange24h float64
	holders        int
	marketCap      float64
	fdv            float64
	buys, sells    int
	url            string
	source         domain.DataSource
}

// Score computes the revival result of one token. It never returns nil; a
// failed gate or missing data yields a zero score with Error set.
func (s *Scorer) Score(ctx context.Context, address string) *domain.RevivalResult {
	res := &domain.RevivalResult{Address: address, Symbol: "Unknown", AnalyzedAt: s.now()}

	ov, err := s.overview(ctx, address)
	if err != nil {
		res.Error = ReasonNoTokenData
		s.logger.Debug("no token data", zap.String("address", address), zap.Error(err))
		return res
	}
	res.Symbol, res.Name = ov.symbol, ov.name
	res.AgeHours = ov.ageHours
	res.LiquidityUSD = ov.liquidity
	res.Volume24hUSD = ov.volume24h
	res.PriceChange24h = ov.priceChange24h
	res.HolderCount = ov.holders
	res.MarketCapUSD = ov.marketCap
	res.FDV = ov.fdv
	res.Buys24h, res.Sells24h = ov.buys, ov.sells
	res.URL = domain.CanonicalURL(ov.url, address)
	res.Source = ov.source

	if reason := s.gate(ov); reason != "" {
		res.Error = reason
		return res
	}

	safe, holderDetails := s.holderCheck(ctx, address)
	res.HolderDetails = holderDetails
	if !safe {
		res.Error = fmt.Sprintf("Unsafe holder distribution: Top 10 hold %.1f%%", holderDetails["top_10_percentage"])
		return res
	}

	res.PriceScore, res.PriceDetails = s.pricePattern(ctx, address)
	res.SmartScore, res.SmartDetails = s.smartMoney(ctx, address)
	res.VolumeScore = VolumeScore(ov.volume24h, ov.buys, ov.sells)
	res.RevivalScore = domain.CompositeScore(res.PriceScore, res.SmartScore, res.VolumeScore)

	s.logger.Debug("scored",
		logging.Token(address, res.Symbol),
		zap.Float64("score", res.RevivalScore),
		zap.Float64("price", res.PriceScore),
		zap.Float64("smart", res.SmartScore),
		zap.Float64("volume", res.VolumeScore),
	)
	return res
}

func (s *Scorer) gate(ov *overview) string {
	if ov.ageHours < s.cfg.MinAgeHours {
		return fmt.Sprintf("Token age %.1fh below minimum %gh", ov.ageHours, s.cfg.MinAgeHours)
	}
	if s.cfg.MaxAgeHours > 0 && ov.ageHours > s.cfg.MaxAgeHours {
		return fmt.Sprintf("Token age %.1fh above maximum %gh (%.0f days)", ov.ageHours, s.cfg.MaxAgeHours, ov.ageHours/24)
	}
	if ov.liquidity < s.cfg.MinLiquidity {
		return fmt.Sprintf("Liquidity $%.0f below minimum $%g", ov.liquidity, s.cfg.MinLiquidity)
	}
	return ""
}

// overview prefers the cached BirdEye overview and falls back to the DEX pair.
// Age is derived at read time so cached entries do not freeze it.
func (s *Scorer) overview(ctx context.Context, address string) (*overview, error) {
	now := s.now()
	be, err := cache.Fetch(ctx, s.cache, overviewPrefix+address, s.cfg.CacheTTL, func(ctx context.Context) (*birdeye.Overview, error) {
		return s.birdeye.Overview(ctx, address)
	})
	if err == nil && be != nil {
		return &overview{
			symbol:         be.Symbol,
			name:           be.Name,
			ageHours:       be.AgeHours(now),
			liquidity:      be.LiquidityUSD,
			volume24h:      be.Volume24hUSD,
			priceChange24h: be.PriceChange24h,
			holders:        be.Holders,
			marketCap:      be.MarketCapUSD,
			fdv:            be.FDV,
			buys:           be.Buys24h,
			sells:          be.Sells24h,
			source:         domain.DataSourceBirdEye,
		}, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err == nil {
		err = provider.ErrNoData
	}
	if s.market == nil {
		return nil, err
	}

	snap, merr := s.market.Snapshot(ctx, address)
	if merr != nil || snap == nil {
		return nil, errors.Join(err, merr)
	}
	age := 0.0
	if snap.PairCreatedAt > 0 {
		age = now.Sub(time.UnixMilli(snap.PairCreatedAt)).Hours()
	}
	return &overview{
		symbol:         snap.Symbol,
		name:           snap.Name,
		ageHours:       age,
		liquidity:      snap.LiquidityUSD,
		volume24h:      snap.Volume24h,
		priceChange24h: snap.PriceChange24h,
		marketCap:      snap.MarketCapUSD,
		fdv:            snap.FDV,
		buys:           snap.Buys24h,
		sells:          snap.Sells24h,
		url:            snap.URL,
		source:         domain.DataSourceDexScreener,
	}, nil
}

// holderCheck passes when the holder sample is unavailable or empty.
func (s *Scorer) holderCheck(ctx context.Context, address string) (bool, map[string]any) {
	holders, err := s.birdeye.Holders(ctx, address, holderSample)
	if err != nil {
		return true, map[string]any{"error": err.Error()}
	}
	if len(holders) == 0 {
		return true, map[string]any{"error": "No holder data available"}
	}
	share, sampled := Top10Share(holders)
	safe := share <= s.cfg.MaxTop10Percent
	return safe, map[string]any{
		"top_10_percentage":    share,
		"total_supply_checked": sampled,
		"holder_count":         len(holders),
		"is_safe":              safe,
	}
}

func (s *Scorer) pricePattern(ctx context.Context, address string) (float64, map[string]any) {
	to := s.now()
	candles, err := s.birdeye.OHLCV(ctx, address, birdeye.Interval1H, to.Add(-priceHistory), to)
	if err != nil && !errors.Is(err, provider.ErrNoData) {
		return 0, map[string]any{"error": err.Error()}
	}
	closes := make([]float64, len(candles))
	volumes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
		volumes[i] = c.Volume
	}
	return PricePattern(closes, volumes)
}

func (s *Scorer) smartMoney(ctx context.Context, address string) (float64, map[string]any) {
	traders, err := s.birdeye.TopTraders(ctx, address)
	if err != nil && !errors.Is(err, provider.ErrNoData) {
		return 0, map[string]any{"error": err.Error()}
	}
	if len(traders) == 0 {
		return 0, map[string]any{"error": "No trader data available"}
	}
	whales, total, checked := CountWhales(traders, s.cfg.TopTraders, s.cfg.WhaleUSD)
	pct := float64(whales) / float64(checked) * 100
	return SmartMoneyScore(whales), map[string]any{
		"whale_wallets":         whales,
		"total_traders_checked": checked,
		"whale_percentage":      pct,
		"avg_holding_usd":       total / float64(checked),
		"total_smart_money_usd": total,
	}
}

// BatchResult is the outcome of ScoreBatch.
type BatchResult struct {
	Scored   []*domain.RevivalResult // every token scored, input order
	Detected []*domain.RevivalResult // score >= MinScore, highest first
	Failed   int                     // tokens that errored or panicked during scoring
}

// ScoreBatch scores up to MaxTokens addresses sequentially with Delay between
// tokens. A cancelled context stops the batch and returns what was scored.
func (s *Scorer) ScoreBatch(ctx context.Context, addresses []string) (*BatchResult, error) {
	if len(addresses) > s.cfg.MaxTokens {
		addresses = addresses[:s.cfg.MaxTokens]
	}
	out := &BatchResult{}
	for i, addr := range addresses {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		res, ok := s.safeScore(ctx, addr)
		if !ok {
			out.Failed++
		} else {
			out.Scored = append(out.Scored, res)
			observability.RecordRevivalScore(res.RevivalScore)
			if res.Error == "" && res.RevivalScore >= s.cfg.MinScore {
				out.Detected = append(out.Detected, res)
				s.logger.Info("revival detected",
					logging.Token(addr, res.Symbol),
					zap.Float64("score", res.RevivalScore))
			}
		}
		s.progress(i+1, len(addresses))
		if i < len(addresses)-1 {
			if err := provider.Sleep(ctx, s.cfg.Delay); err != nil {
				return out, err
			}
		}
	}
	sort.SliceStable(out.Detected, func(i, j int) bool {
		return out.Detected[i].RevivalScore > out.Detected[j].RevivalScore
	})
	return out, nil
}

func (s *Scorer) safeScore(ctx context.Context, address string) (res *domain.RevivalResult, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scorer panic", zap.String("address", address), zap.Any("panic", r))
			res, ok = nil, false
		}
	}()
	return s.Score(ctx, address), true
}
