package pipeline

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"solana-revival-scanner/internal/domain"
	"solana-revival-scanner/internal/logging"
	"solana-revival-scanner/internal/provider"
)

// Social score weights.
const (
	boostWeight       = 0.3
	twitterWeight     = 0.2
	telegramWeight    = 0.2
	discordWeight     = 0.1
	buyPressureWeight = 0.2
	buyPressureRatio  = 1.5
)

// DefaultMinSocialScore is the FilterBySocial threshold used when none is configured.
const DefaultMinSocialScore = 0.3

// Enricher attaches social and order-flow signals to market-filtered tokens.
// It never gates on social presence; a token is dropped only when its base lookup fails.
type Enricher struct {
	market   MarketLookup
	delay    time.Duration
	logger   *zap.Logger
	progress ProgressFunc
}

// NewEnricher creates an Enricher.
func NewEnricher(market MarketLookup, delay time.Duration, logger *zap.Logger) *Enricher {
	return &Enricher{
		market:   market,
		delay:    delay,
		logger:   logging.OrNop(logger).Named("enrichment"),
		progress: nopProgress,
	}
}

// WithProgress sets the progress callback.
func (e *Enricher) WithProgress(p ProgressFunc) *Enricher {
	if p != nil {
		e.progress = p
	}
	return e
}

// Run enriches tokens in order.
func (e *Enricher) Run(ctx context.Context, tokens []domain.AgedToken) ([]domain.EnrichedToken, error) {
	out := make([]domain.EnrichedToken, 0, len(tokens))

	for i, t := range tokens {
		snap, err := e.market.Snapshot(ctx, t.Address)
		e.progress(i+1, len(tokens))
		switch {
		case errors.Is(err, provider.ErrNotConfigured):
			return nil, err
		case ctx.Err() != nil:
			return out, ctx.Err()
		case err != nil:
			e.logger.Debug("social lookup failed", logging.Token(t.Address, t.Symbol), zap.Error(err))
		default:
			et := Enrich(t, snap)
			e.logger.Debug("enriched", logging.Token(et.Address, et.Symbol),
				zap.Int("boosts", et.Boosts),
				zap.Bool("twitter", et.HasTwitter),
				zap.Bool("telegram", et.HasTelegram),
				zap.Float64("buy_sell_ratio", et.BuySellRatio))
			out = append(out, et)
		}

		if err := pause(ctx, e.delay, i, len(tokens)); err != nil {
			return out, err
		}
	}

	e.logger.Info("enrichment complete", zap.Int("in", len(tokens)), zap.Int("out", len(out)))
	return out, nil
}

// Enrich combines an aged token with its pair snapshot.
func Enrich(t domain.AgedToken, snap *domain.MarketSnapshot) domain.EnrichedToken {
	if (t.Symbol == "" || t.Symbol == "Unknown") && snap.Symbol != "" {
		t.Symbol = snap.Symbol
	}
	if t.Name == "" {
		t.Name = snap.Name
	}

	et := domain.EnrichedToken{
		AgedToken:     t,
		Volume1h:      snap.Volume1h,
		PriceChange1h: snap.PriceChange1h,
		Boosts:        snap.Boosts,
		HasTwitter:    snap.Twitter != "",
		HasTelegram:   snap.Telegram != "",
		HasDiscord:    snap.Discord != "",
		HasWebsite:    snap.Website != "",
		WebsiteURL:    snap.Website,
		Buys24h:       snap.Buys24h,
		Sells24h:      snap.Sells24h,
		BuySellRatio:  domain.BuySellRatio(snap.Buys24h, snap.Sells24h),
		URL:           domain.CanonicalURL(snap.URL, t.Address),
	}
	et.SocialScore = SocialScore(&et)
	return et
}

// SocialScore sums the indicator weights, capped at 1.0. Informational only.
func SocialScore(t *domain.EnrichedToken) float64 {
	score := 0.0
	if t.Boosts > 0 {
		score += boostWeight
	}
	if t.HasTwitter {
		score += twitterWeight
	}
	if t.HasTelegram {
		score += telegramWeight
	}
	if t.HasDiscord {
		score += discordWeight
	}
	if t.BuySellRatio >= buyPressureRatio {
		score += buyPressureWeight
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// FilterBySocial is the opt-in gating variant. It keeps tokens with a social
// score >= minScore and, when requireSocials is set, a twitter or telegram link.
func FilterBySocial(tokens []domain.EnrichedToken, minScore float64, requireSocials bool) []domain.EnrichedToken {
	out := make([]domain.EnrichedToken, 0, len(tokens))
	for _, t := range tokens {
		if t.SocialScore < minScore {
			continue
		}
		if requireSocials && !t.HasTwitter && !t.HasTelegram {
			continue
		}
		out = append(out, t)
	}
	return out
}
