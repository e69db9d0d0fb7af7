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

// AgeLookup resolves a mint's on-chain age in hours.
type AgeLookup interface {
	AgeHours(ctx context.Context, mint string) (float64, error)
}

// AgeFilter keeps tokens at least MinAgeHours old.
// Lookups run sequentially with a fixed delay between them.
type AgeFilter struct {
	ages     AgeLookup
	minAge   float64
	delay    time.Duration
	logger   *zap.Logger
	progress ProgressFunc
}

// NewAgeFilter creates an AgeFilter.
func NewAgeFilter(ages AgeLookup, minAgeHours float64, delay time.Duration, logger *zap.Logger) *AgeFilter {
	return &AgeFilter{
		ages:     ages,
		minAge:   minAgeHours,
		delay:    delay,
		logger:   logging.OrNop(logger).Named("age_filter"),
		progress: nopProgress,
	}
}

// WithProgress sets the progress callback.
func (f *AgeFilter) WithProgress(p ProgressFunc) *AgeFilter {
	if p != nil {
		f.progress = p
	}
	return f
}

// Run returns the aged survivors. Unresolvable tokens are skipped, not retried.
func (f *AgeFilter) Run(ctx context.Context, tokens []domain.Token) ([]domain.AgedToken, error) {
	var out []domain.AgedToken
	failed := 0

	for i, t := range tokens {
		age, err := f.ages.AgeHours(ctx, t.Address)
		f.progress(i+1, len(tokens))
		switch {
		case errors.Is(err, provider.ErrNotConfigured):
			return nil, err
		case ctx.Err() != nil:
			return out, ctx.Err()
		case err != nil:
			failed++
			f.logger.Debug("age lookup failed", logging.Token(t.Address, t.Symbol), zap.Error(err))
		case age < f.minAge:
			f.logger.Debug("dropped: too young", logging.Token(t.Address, t.Symbol),
				zap.Float64("age_hours", age), zap.Float64("min", f.minAge))
		default:
			out = append(out, domain.AgedToken{Token: t, AgeHours: age})
		}

		if err := pause(ctx, f.delay, i, len(tokens)); err != nil {
			return out, err
		}
	}

	f.logger.Info("age filter complete",
		zap.Int("in", len(tokens)), zap.Int("out", len(out)), zap.Int("lookup_failures", failed))
	return out, nil
}
