package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"solana-revival-scanner/internal/domain"
	"solana-revival-scanner/internal/logging"
	"solana-revival-scanner/internal/provider"
	"solana-revival-scanner/internal/provider/birdeye"
	"solana-revival-scanner/internal/solana"
)

// ListSource is the paginated token discovery provider.
type ListSource interface {
	MemeList(ctx context.Context, offset, limit int) ([]domain.Token, error)
	TokenList(ctx context.Context, sortBy string, offset, limit int) ([]domain.Token, error)
	Trending(ctx context.Context, limit int) ([]domain.Token, error)
}

// MetadataLookup resolves on-chain token metadata.
type MetadataLookup interface {
	Resolve(ctx context.Context, mint string) (*solana.TokenMetadata, error)
}

// DiscoveryConfig sizes the discovery passes.
type DiscoveryConfig struct {
	TokensPerPass int
	PageSize      int
	TrendingLimit int
}

// PassStats describes one discovery pass.
type PassStats struct {
	Source     domain.Source
	Fetched    int
	Added      int
	Duplicates int
	Invalid    int
	FellBack   bool // pass 1 used the price-movers list because the meme list was empty
	Err        error
}

// DiscoveryResult is the merged output of all passes.
type DiscoveryResult struct {
	Tokens []domain.Token
	Passes []PassStats
}

// Discovery runs the three discovery passes and merges them first-seen-wins.
type Discovery struct {
	src    ListSource
	meta   MetadataLookup
	cfg    DiscoveryConfig
	logger *zap.Logger
}

// NewDiscovery creates a Discovery. Zero config fields take the defaults 200/50/20.
func NewDiscovery(src ListSource, cfg DiscoveryConfig, logger *zap.Logger) *Discovery {
	if cfg.TokensPerPass <= 0 {
		cfg.TokensPerPass = 200
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 50
	}
	if cfg.TrendingLimit <= 0 {
		cfg.TrendingLimit = 20
	}
	return &Discovery{src: src, cfg: cfg, logger: logging.OrNop(logger).Named("discovery")}
}

// WithMetadata enables the on-chain symbol/name fallback for rows without a symbol.
func (d *Discovery) WithMetadata(m MetadataLookup) *Discovery {
	d.meta = m
	return d
}

type pageFunc func(ctx context.Context, offset, limit int) ([]domain.Token, error)

// Run executes the passes. The returned error aggregates per-pass failures;
// the result is always usable. A missing API key fails every pass, so it is
// returned as the only error.
func (d *Discovery) Run(ctx context.Context) (*DiscoveryResult, error) {
	seen := make(map[string]struct{})
	res := &DiscoveryResult{}
	var errs *multierror.Error

	memes := func(ctx context.Context, offset, limit int) ([]domain.Token, error) {
		return d.src.MemeList(ctx, offset, limit)
	}
	movers := func(ctx context.Context, offset, limit int) ([]domain.Token, error) {
		return d.src.TokenList(ctx, birdeye.SortByPriceChange24h, offset, limit)
	}

	// Pass 1: meme list, falling back to the price movers list.
	tokens, err := d.paginate(ctx, memes)
	if errors.Is(err, provider.ErrNotConfigured) {
		return res, err
	}
	fellBack := false
	if len(tokens) == 0 {
		d.logger.Warn("meme list returned nothing, falling back to price movers", zap.Error(err))
		tokens, err = d.paginate(ctx, movers)
		fellBack = true
	}
	st := d.merge(res, seen, domain.SourceMemeList, tokens)
	st.FellBack, st.Err = fellBack, err
	res.Passes = append(res.Passes, st)
	errs = appendPassErr(errs, st)

	// Pass 2: price movers.
	tokens, err = d.paginate(ctx, movers)
	st = d.merge(res, seen, domain.SourcePriceMovers, tokens)
	st.Err = err
	res.Passes = append(res.Passes, st)
	errs = appendPassErr(errs, st)

	// Pass 3: trending.
	tokens, err = d.src.Trending(ctx, d.cfg.TrendingLimit)
	st = d.merge(res, seen, domain.SourceTrending, tokens)
	st.Err = err
	res.Passes = append(res.Passes, st)
	errs = appendPassErr(errs, st)

	if ctx.Err() != nil {
		return res, ctx.Err()
	}
	d.fillMetadata(ctx, res.Tokens)

	for _, p := range res.Passes {
		d.logger.Info("pass complete",
			zap.String("source", p.Source.String()),
			zap.Int("fetched", p.Fetched),
			zap.Int("added", p.Added),
			zap.Int("duplicates", p.Duplicates),
			zap.Int("invalid", p.Invalid))
	}
	d.logger.Info("discovery complete", zap.Int("unique", len(res.Tokens)))
	return res, errs.ErrorOrNil()
}

// paginate fetches pages until TokensPerPass is reached or a page fails or comes back empty.
func (d *Discovery) paginate(ctx context.Context, fetch pageFunc) ([]domain.Token, error) {
	pages := (d.cfg.TokensPerPass + d.cfg.PageSize - 1) / d.cfg.PageSize
	var out []domain.Token
	for page := 0; page < pages; page++ {
		offset := page * d.cfg.PageSize
		tokens, err := fetch(ctx, offset, d.cfg.PageSize)
		if err != nil {
			d.logger.Warn("page failed, stopping pagination", zap.Int("offset", offset), zap.Error(err))
			return out, err
		}
		if len(tokens) == 0 {
			break
		}
		out = append(out, tokens...)
	}
	return out, nil
}

func (d *Discovery) merge(res *DiscoveryResult, seen map[string]struct{}, src domain.Source, tokens []domain.Token) PassStats {
	st := PassStats{Source: src, Fetched: len(tokens)}
	for _, t := range tokens {
		if err := solana.ValidateAddress(t.Address); err != nil {
			st.Invalid++
			continue
		}
		if _, dup := seen[t.Address]; dup {
			st.Duplicates++
			continue
		}
		seen[t.Address] = struct{}{}
		if t.Source == "" {
			t.Source = src
		}
		res.Tokens = append(res.Tokens, t)
		st.Added++
	}
	return st
}

func (d *Discovery) fillMetadata(ctx context.Context, tokens []domain.Token) {
	if d.meta == nil {
		return
	}
	for i := range tokens {
		t := &tokens[i]
		if t.Symbol != "" && t.Symbol != "Unknown" {
			continue
		}
		md, err := d.meta.Resolve(ctx, t.Address)
		if err != nil {
			d.logger.Debug("metadata fallback failed", logging.Token(t.Address, t.Symbol), zap.Error(err))
			continue
		}
		if md.Symbol != "" {
			t.Symbol = md.Symbol
		}
		if t.Name == "" {
			t.Name = md.Name
		}
	}
}

func appendPassErr(errs *multierror.Error, st PassStats) *multierror.Error {
	if st.Err == nil {
		return errs
	}
	return multierror.Append(errs, fmt.Errorf("discovery %s: %w", st.Source, st.Err))
}
