// Package security runs the pass/fail scam checks on candidate tokens.
//
// Two sub-checks run per token. The DEX sanity check is a hard requirement: a
// missing pair or thin market fails the token. The third-party security scan
// is advisory when it cannot be obtained, but a detected honeypot or mint
// authority always fails the token.
package security

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"solana-revival-scanner/internal/domain"
	"solana-revival-scanner/internal/logging"
	"solana-revival-scanner/internal/observability"
	"solana-revival-scanner/internal/provider"
	"solana-revival-scanner/internal/provider/goplus"
)

// Failure reasons.
const (
	ReasonDexSanity = "Failed liquidity/volume requirements"
	ReasonScan      = "Failed security requirements"
	ReasonInternal  = "Internal error during security check"
)

// Risk penalties subtracted from 100.
const (
	honeypotPenalty  = 100
	mintablePenalty  = 50
	blacklistPenalty = 30
	freezePenalty    = 20
)

// MarketLookup returns the canonical pair snapshot of a token.
type MarketLookup interface {
	Snapshot(ctx context.Context, address string) (*domain.MarketSnapshot, error)
}

// Scanner returns the third-party security record of a token.
type Scanner interface {
	TokenSecurity(ctx context.Context, address string) (*goplus.TokenSecurity, error)
}

// Config holds the filter thresholds.
type Config struct {
	Workers      int
	MinLiquidity float64
	MinVolume    float64
	MinScore     int
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		Workers:      3,
		MinLiquidity: 5000,
		MinVolume:    5000,
		MinScore:     60,
	}
}

// Filter runs security checks over a bounded worker pool.
type Filter struct {
	market  MarketLookup
	scanner Scanner
	cfg     Config
	logger  *zap.Logger
	now     func() time.Time
}

// New creates a Filter. scanner may be nil, in which case every scan is unavailable.
func New(market MarketLookup, scanner Scanner, cfg Config, logger *zap.Logger) *Filter {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Filter{
		market:  market,
		scanner: scanner,
		cfg:     cfg,
		logger:  logging.OrNop(logger).Named("security"),
		now:     time.Now,
	}
}

// Check runs both sub-checks for one token.
func (f *Filter) Check(ctx context.Context, address string) domain.SecurityVerdict {
	v := domain.SecurityVerdict{Address: address, CheckedAt: f.now()}

	var symbol string
	v.Dex, symbol = f.dexSanity(ctx, address)
	v.Symbol = symbol
	v.LiquidityUSD = v.Dex.LiquidityUSD
	v.Volume24hUSD = v.Dex.Volume24hUSD
	if !v.Dex.Passed {
		v.FailureReason = ReasonDexSanity
		return v
	}

	v.Scan = f.scan(ctx, address)
	if !v.Scan.Passed {
		v.FailureReason = ReasonScan
		return v
	}
	if !v.Scan.Available {
		f.logger.Warn("security scan unavailable, passing with warning",
			logging.Token(address, symbol), zap.String("warning", v.Scan.Warning))
	}

	v.Passed = true
	return v
}

// dexSanity fails closed: no pair data is a failure.
func (f *Filter) dexSanity(ctx context.Context, address string) (domain.DexSanityCheck, string) {
	snap, err := f.market.Snapshot(ctx, address)
	if errors.Is(err, provider.ErrNoData) {
		return domain.DexSanityCheck{Reason: "No trading pairs found"}, ""
	}
	if err != nil {
		return domain.DexSanityCheck{Reason: fmt.Sprintf("DEX data unavailable: %v", err)}, ""
	}

	c := domain.DexSanityCheck{
		LiquidityUSD:  snap.LiquidityUSD,
		Volume24hUSD:  snap.Volume24h,
		LiquidityBase: snap.LiquidityBase,
	}
	switch {
	case c.LiquidityUSD < f.cfg.MinLiquidity:
		c.Reason = fmt.Sprintf("liquidity $%.0f below $%.0f", c.LiquidityUSD, f.cfg.MinLiquidity)
	case c.Volume24hUSD < f.cfg.MinVolume:
		c.Reason = fmt.Sprintf("24h volume $%.0f below $%.0f", c.Volume24hUSD, f.cfg.MinVolume)
	case c.LiquidityBase <= 0:
		c.Reason = "no base token reserve"
	default:
		c.Passed = true
	}
	return c, snap.Symbol
}

// scan fails open on infrastructure errors and closed on detected risk.
func (f *Filter) scan(ctx context.Context, address string) domain.SecurityScan {
	if f.scanner == nil {
		return domain.SecurityScan{Passed: true, Warning: "security scanner not configured"}
	}

	rec, err := f.scanner.TokenSecurity(ctx, address)
	if errors.Is(err, provider.ErrNoData) {
		return domain.SecurityScan{Passed: true, Warning: "No security data available"}
	}
	if err != nil {
		return domain.SecurityScan{Passed: true, Warning: fmt.Sprintf("security scan unavailable: %v", err)}
	}

	s := domain.SecurityScan{
		Available:   true,
		Honeypot:    bool(rec.Honeypot),
		Mintable:    bool(rec.Mintable),
		Blacklisted: bool(rec.Blacklisted),
		CanFreeze:   bool(rec.CanTakeBackOwnership),
	}
	s.Score = RiskScore(s.Honeypot, s.Mintable, s.Blacklisted, s.CanFreeze)
	s.Passed = !s.Honeypot && !s.Mintable && s.Score >= f.cfg.MinScore
	return s
}

// RiskScore returns 100 minus the weighted risk penalties, floored at 0.
func RiskScore(honeypot, mintable, blacklisted, canFreeze bool) int {
	risk := 0
	if honeypot {
		risk += honeypotPenalty
	}
	if mintable {
		risk += mintablePenalty
	}
	if blacklisted {
		risk += blacklistPenalty
	}
	if canFreeze {
		risk += freezePenalty
	}
	if risk > 100 {
		return 0
	}
	return 100 - risk
}

// Batch checks every address on the worker pool and returns exactly one
// verdict per input: passed verdicts first by liquidity descending, then the
// failures in input order.
func (f *Filter) Batch(ctx context.Context, addresses []string) []domain.SecurityVerdict {
	verdicts := make([]domain.SecurityVerdict, len(addresses))
	jobs := make(chan int)

	workers := f.cfg.Workers
	if workers > len(addresses) {
		workers = len(addresses)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				verdicts[i] = f.safeCheck(ctx, addresses[i])
			}
		}()
	}
	for i := range addresses {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	passed := 0
	for _, v := range verdicts {
		observability.RecordSecurityVerdict(v.Passed)
		if v.Passed {
			passed++
		}
	}
	sort.SliceStable(verdicts, func(i, j int) bool {
		if verdicts[i].Passed != verdicts[j].Passed {
			return verdicts[i].Passed
		}
		if verdicts[i].Passed {
			return verdicts[i].LiquidityUSD > verdicts[j].LiquidityUSD
		}
		return false
	})

	f.logger.Info("security filter complete",
		zap.Int("checked", len(verdicts)), zap.Int("passed", passed), zap.Int("workers", workers))
	return verdicts
}

// safeCheck turns a panic inside one check into a failed verdict for that token.
func (f *Filter) safeCheck(ctx context.Context, address string) (v domain.SecurityVerdict) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("security check panicked", zap.String("address", address), zap.Any("panic", r))
			v = domain.SecurityVerdict{
				Address:       address,
				FailureReason: fmt.Sprintf("%s: %v", ReasonInternal, r),
				CheckedAt:     f.now(),
			}
		}
	}()
	return f.Check(ctx, address)
}

// PassedAddresses returns the addresses of passed verdicts in order.
func PassedAddresses(verdicts []domain.SecurityVerdict) []string {
	var out []string
	for _, v := range verdicts {
		if v.Passed {
			out = append(out, v.Address)
		}
	}
	return out
}
