// Package orchestrator runs scan cycles end to end.
// It coordinates: discovery → pre-filter → age filter → market filter →
// enrichment → security → revival scoring → persistence → alerts.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"solana-revival-scanner/internal/alert"
	"solana-revival-scanner/internal/cache"
	"solana-revival-scanner/internal/config"
	"solana-revival-scanner/internal/domain"
	"solana-revival-scanner/internal/logging"
	"solana-revival-scanner/internal/observability"
	"solana-revival-scanner/internal/pipeline"
	"solana-revival-scanner/internal/provider"
	"solana-revival-scanner/internal/revival"
	"solana-revival-scanner/internal/security"
	"solana-revival-scanner/internal/storage"
	"solana-revival-scanner/internal/storage/memory"
)

// ErrScanInProgress is returned when a scan is requested while one is running.
var ErrScanInProgress = errors.New("scan already in progress")

// ResultWriter exports the detected results of a scan.
type ResultWriter interface {
	WriteResults(scanID string, at time.Time, results []*domain.RevivalResult) error
}

// Deps are the external collaborators of a scan. Optional fields may be nil.
type Deps struct {
	Lists    pipeline.ListSource
	Metadata pipeline.MetadataLookup // optional symbol fallback
	Ages     pipeline.AgeLookup
	Market   pipeline.MarketLookup
	Scanner  security.Scanner // optional; nil treats every scan as unavailable
	BirdEye  revival.BirdEye
	Cache    cache.Cache
	Alerts   *alert.Dispatcher
	Store    storage.Store      // defaults to an in-memory store
	Scores   storage.ScoreStore // optional score time series
	Reports  ResultWriter       // optional CSV export
}

// Options for creating Orchestrator.
type Options struct {
	Deps
	Config   *config.Config
	Observer Observer
	Logger   *zap.Logger
}

// Orchestrator coordinates scan cycles. At most one scan runs at a time.
type Orchestrator struct {
	deps     Deps
	market   *pipeline.CachedMarket
	observer Observer
	base     *zap.Logger // handed to the stages, which name themselves
	logger   *zap.Logger
	now      func() time.Time

	cfgMu sync.RWMutex
	cfg   config.Config

	scanMu sync.Mutex
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if opts.Store == nil {
		opts.Store = memory.NewStore()
	}
	if opts.Lists == nil {
		opts.Lists = unconfigured{}
	}
	if opts.Ages == nil {
		opts.Ages = unconfigured{}
	}
	if opts.Market == nil {
		opts.Market = unconfigured{}
	}
	if opts.BirdEye == nil {
		opts.BirdEye = unconfigured{}
	}
	if opts.Cache == nil {
		opts.Cache = cache.Nop{}
	}
	if opts.Observer == nil {
		opts.Observer = NopObserver{}
	}
	logger := logging.OrNop(opts.Logger)
	return &Orchestrator{
		deps:     opts.Deps,
		market:   pipeline.NewCachedMarket(opts.Market, opts.Cache, cfg.Revival.CacheTTL),
		observer: opts.Observer,
		base:     logger,
		logger:   logger.Named("orchestrator"),
		now:      time.Now,
		cfg:      *cfg,
	}
}

// Config returns a copy of the active configuration.
func (o *Orchestrator) Config() config.Config {
	o.cfgMu.RLock()
	defer o.cfgMu.RUnlock()
	return o.cfg
}

// Settings returns the runtime-tunable settings.
func (o *Orchestrator) Settings() config.Settings {
	cfg := o.Config()
	return cfg.Settings()
}

// UpdateSettings validates and applies s. It takes effect from the next scan.
func (o *Orchestrator) UpdateSettings(s config.Settings) (config.Settings, error) {
	o.cfgMu.Lock()
	defer o.cfgMu.Unlock()
	next, err := o.cfg.WithSettings(s)
	if err != nil {
		return config.Settings{}, err
	}
	o.cfg = *next
	o.observer.Activity(LevelInfo, "Settings updated")
	return next.Settings(), nil
}

// Scorer returns a revival scorer configured like the scan pipeline's.
func (o *Orchestrator) Scorer() *revival.Scorer {
	cfg := o.Config()
	return o.scorer(&cfg)
}

// Security returns a security filter configured like the scan pipeline's.
func (o *Orchestrator) Security() *security.Filter {
	cfg := o.Config()
	return o.security(&cfg)
}

// Store returns the scan store.
func (o *Orchestrator) Store() storage.Store {
	return o.deps.Store
}

// ScanResult contains results from one scan cycle.
type ScanResult struct {
	Cycle    *domain.ScanCycle
	Verdicts []domain.SecurityVerdict
	Scored   []*domain.RevivalResult
	Detected []*domain.RevivalResult // score >= min score, highest first
}

// RunScan executes one full scan cycle.
// Phases:
//  1. Discovery (three passes, deduplicated)
//  2. Pre-filter on liquidity and market cap
//  3. Age filter (minimum only)
//  4. Strict market filter
//  5. Social enrichment, optionally gated
//  6. Security filter (the only parallel stage)
//  7. Revival scoring
//  8. Persistence and alerts
//
// A stage that cannot run for lack of configuration yields no tokens and the
// scan continues. Context cancellation fails the scan.
func (o *Orchestrator) RunScan(ctx context.Context) (*ScanResult, error) {
	if !o.scanMu.TryLock() {
		return nil, ErrScanInProgress
	}
	defer o.scanMu.Unlock()

	cfg := o.Config()
	scan := &domain.ScanCycle{
		ID:          uuid.NewString(),
		StartedAt:   o.now(),
		Status:      domain.ScanRunning,
		PhaseCounts: make(map[domain.Phase]int, len(domain.Phases)),
		Snapshot:    make(map[domain.Phase][]domain.PhaseToken, len(domain.Phases)),
	}
	log := o.logger.With(zap.String("scan_id", scan.ID))
	observability.SetScanRunning(true)
	defer observability.SetScanRunning(false)
	o.observer.ScanStarted(scan)
	log.Info("scan started")

	res := &ScanResult{Cycle: scan}
	run := &scanRun{o: o, cfg: &cfg, scan: scan, log: log}

	if err := run.pipeline(ctx, res); err != nil {
		return nil, o.fail(ctx, scan, run.errs, err)
	}

	sent, err := o.alert(ctx, res.Detected)
	run.stageError("alerts", err)
	scan.AlertsSent = sent

	scan.FinishedAt = o.now()
	scan.Status = domain.ScanCompleted
	scan.Errors = errorStrings(run.errs)
	o.persist(ctx, res, run)
	scan.Errors = errorStrings(run.errs)

	observability.RecordScan(string(scan.Status), scan.Duration().Seconds(), scan.FinishedAt.Unix())
	o.observer.ScanFinished(res)
	log.Info("scan completed",
		zap.Duration("duration", scan.Duration()),
		zap.Int("detected", len(res.Detected)),
		zap.Int("alerts", sent),
		zap.Int("errors", len(scan.Errors)))
	return res, nil
}

// scanRun carries the per-scan state through the stages.
type scanRun struct {
	o    *Orchestrator
	cfg  *config.Config
	scan *domain.ScanCycle
	log  *zap.Logger
	errs *multierror.Error
}

// stageError records a non-fatal stage error.
func (r *scanRun) stageError(stage string, err error) {
	if err == nil {
		return
	}
	observability.RecordStageError(stage)
	r.errs = multierror.Append(r.errs, fmt.Errorf("%s: %w", stage, err))
	level := LevelWarning
	if errors.Is(err, provider.ErrNotConfigured) {
		level = LevelError
	}
	r.o.observer.Activity(level, fmt.Sprintf("%s: %v", stage, err))
	r.log.Warn("stage error", zap.String("stage", stage), zap.Error(err))
}

// fatal reports whether err must abort the scan. Other errors are recorded.
func (r *scanRun) fatal(ctx context.Context, stage string, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	r.stageError(stage, err)
	return nil
}

func (r *scanRun) progress(phase domain.Phase) pipeline.ProgressFunc {
	return func(done, total int) {
		r.o.observer.Progress(r.scan.ID, phase, done, total)
	}
}

func (r *scanRun) phase(phase domain.Phase, tokens []domain.PhaseToken) {
	r.scan.PhaseCounts[phase] = len(tokens)
	r.scan.Snapshot[phase] = tokens
	observability.SetPhaseTokens(string(phase), len(tokens))
	r.o.observer.PhaseCompleted(r.scan.ID, phase, tokens)
	if r.cfg.Scan.Verbose {
		r.log.Info("phase complete", zap.String("phase", string(phase)), zap.Int("tokens", len(tokens)))
	}
}

func (r *scanRun) pipeline(ctx context.Context, res *ScanResult) error {
	o, cfg := r.o, r.cfg

	// Phase 1: discovery
	disc := pipeline.NewDiscovery(o.deps.Lists, pipeline.DiscoveryConfig{
		TokensPerPass: cfg.Discovery.TokensPerPass,
		PageSize:      cfg.Discovery.PageSize,
		TrendingLimit: cfg.Discovery.TrendingLimit,
	}, o.base)
	if o.deps.Metadata != nil {
		disc.WithMetadata(o.deps.Metadata)
	}
	discovered, err := disc.Run(ctx)
	if err := r.fatal(ctx, "discovery", err); err != nil {
		return err
	}
	var tokens []domain.Token
	if discovered != nil {
		tokens = discovered.Tokens
	}
	r.phase(domain.PhaseDiscovered, tokenPhase(tokens))

	// Phase 2: pre-filter
	tokens = pipeline.Prefilter(tokens, pipeline.PrefilterConfig{
		MinLiquidity: cfg.Filters.MinLiquidityPrefilter,
		MaxMarketCap: cfg.Filters.MaxMarketCap,
	}, o.base)
	r.phase(domain.PhasePrefiltered, tokenPhase(tokens))

	// Phase 3: age
	aged, err := pipeline.NewAgeFilter(o.deps.Ages, cfg.Filters.MinAgeHours, cfg.Filters.AgeDelay, o.base).
		WithProgress(r.progress(domain.PhaseAged)).
		Run(ctx, tokens)
	if err := r.fatal(ctx, "age filter", err); err != nil {
		return err
	}
	r.phase(domain.PhaseAged, agedPhase(aged))

	// Phase 4: strict market filter
	aged, err = pipeline.NewMarketFilter(o.market, cfg.Filters.MinLiquidityStrict, cfg.Filters.MinVolume1h, cfg.Filters.MarketDelay, o.base).
		WithProgress(r.progress(domain.PhaseMarketFiltered)).
		Run(ctx, aged)
	if err := r.fatal(ctx, "market filter", err); err != nil {
		return err
	}
	r.phase(domain.PhaseMarketFiltered, agedPhase(aged))

	// Phase 5: enrichment
	enriched, err := pipeline.NewEnricher(o.market, cfg.Social.Delay, o.base).
		WithProgress(r.progress(domain.PhaseEnriched)).
		Run(ctx, aged)
	if err := r.fatal(ctx, "enrichment", err); err != nil {
		return err
	}
	if cfg.Social.Gate {
		enriched = pipeline.FilterBySocial(enriched, cfg.Social.MinScore, cfg.Social.RequireSocials)
	}
	r.phase(domain.PhaseEnriched, enrichedPhase(enriched))

	// Phase 6: security
	addresses := make([]string, len(enriched))
	for i, t := range enriched {
		addresses[i] = t.Address
	}
	res.Verdicts = o.security(cfg).Batch(ctx, addresses)
	if err := ctx.Err(); err != nil {
		return err
	}
	passed := security.PassedAddresses(res.Verdicts)
	r.phase(domain.PhaseSecurityPassed, verdictPhase(res.Verdicts, enriched))

	// Phase 7: revival scoring
	batch, err := o.scorer(cfg).
		WithProgress(r.progress(domain.PhaseRevival)).
		ScoreBatch(ctx, passed)
	if err != nil {
		return err
	}
	if batch.Failed > 0 {
		r.stageError("revival", fmt.Errorf("%d tokens failed to score", batch.Failed))
	}
	res.Scored, res.Detected = batch.Scored, batch.Detected
	r.phase(domain.PhaseRevival, resultPhase(res.Detected))
	return nil
}

func (o *Orchestrator) security(cfg *config.Config) *security.Filter {
	return security.New(o.market, o.deps.Scanner, security.Config{
		Workers:      cfg.Security.Workers,
		MinLiquidity: cfg.Security.MinLiquidity,
		MinVolume:    cfg.Security.MinVolume,
		MinScore:     cfg.Security.MinScore,
	}, o.base)
}

func (o *Orchestrator) scorer(cfg *config.Config) *revival.Scorer {
	return revival.NewScorer(o.deps.BirdEye, o.market, revival.Config{
		MinAgeHours:     cfg.Filters.MinAgeHours,
		MaxAgeHours:     cfg.Filters.MaxAgeHours,
		MinLiquidity:    cfg.Filters.MinLiquidityStrict,
		MaxTop10Percent: cfg.Revival.MaxTop10Percent,
		WhaleUSD:        cfg.Revival.WhaleUSD,
		MinScore:        cfg.Revival.MinScore,
		MaxTokens:       cfg.Revival.MaxTokens,
		Delay:           cfg.Revival.Delay,
		CacheTTL:        cfg.Revival.CacheTTL,
	}, o.base).WithCache(o.deps.Cache)
}

func (o *Orchestrator) alert(ctx context.Context, detected []*domain.RevivalResult) (int, error) {
	if o.deps.Alerts == nil || len(detected) == 0 {
		return 0, nil
	}
	return o.deps.Alerts.BatchAlert(ctx, detected)
}

// persist saves the scan even when the caller's context was cancelled after scoring.
func (o *Orchestrator) persist(ctx context.Context, res *ScanResult, run *scanRun) {
	ctx = context.WithoutCancel(ctx)
	scan := res.Cycle

	if err := o.deps.Store.InsertScan(ctx, scan); err != nil {
		run.stageError("store scan", err)
		return
	}
	if len(res.Scored) > 0 {
		run.stageError("store results", o.deps.Store.InsertResults(ctx, scan.ID, res.Scored))
	}
	if o.deps.Scores != nil && len(res.Scored) > 0 {
		points := make([]domain.ScorePoint, 0, len(res.Scored))
		for _, r := range res.Scored {
			if r.Error == "" {
				points = append(points, domain.NewScorePoint(scan.ID, r))
			}
		}
		if len(points) > 0 {
			run.stageError("store scores", o.deps.Scores.InsertScores(ctx, points))
		}
	}
	if o.deps.Reports != nil && len(res.Detected) > 0 {
		run.stageError("export results", o.deps.Reports.WriteResults(scan.ID, scan.FinishedAt, res.Detected))
	}
}

func (o *Orchestrator) fail(ctx context.Context, scan *domain.ScanCycle, errs *multierror.Error, cause error) error {
	scan.FinishedAt = o.now()
	scan.Status = domain.ScanFailed
	scan.Errors = append(errorStrings(errs), cause.Error())
	if err := o.deps.Store.InsertScan(context.WithoutCancel(ctx), scan); err != nil {
		o.logger.Warn("store failed scan", zap.Error(err))
	}
	observability.RecordScan(string(scan.Status), scan.Duration().Seconds(), scan.FinishedAt.Unix())
	o.observer.ScanFailed(scan, cause)
	o.logger.Error("scan failed", zap.String("scan_id", scan.ID), zap.Error(cause))
	return fmt.Errorf("scan %s: %w", scan.ID, cause)
}

func errorStrings(errs *multierror.Error) []string {
	if errs == nil {
		return nil
	}
	out := make([]string, len(errs.Errors))
	for i, e := range errs.Errors {
		out[i] = e.Error()
	}
	return out
}
