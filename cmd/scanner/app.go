package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"solana-revival-scanner/internal/alert"
	"solana-revival-scanner/internal/cache"
	"solana-revival-scanner/internal/config"
	"solana-revival-scanner/internal/orchestrator"
	"solana-revival-scanner/internal/provider"
	"solana-revival-scanner/internal/provider/birdeye"
	"solana-revival-scanner/internal/provider/dexscreener"
	"solana-revival-scanner/internal/provider/goplus"
	"solana-revival-scanner/internal/reporting"
	"solana-revival-scanner/internal/solana"
	"solana-revival-scanner/internal/storage"
	chstore "solana-revival-scanner/internal/storage/clickhouse"
	"solana-revival-scanner/internal/storage/memory"
	"solana-revival-scanner/internal/storage/migrations"
	pgstore "solana-revival-scanner/internal/storage/postgres"
	"solana-revival-scanner/internal/storage/sqlite"
)

const (
	breakerTrips = 5
	breakerReset = 30 * time.Second

	// creation times never change; ages are derived from them at read time
	creationTimeTTL = 24 * time.Hour
)

// app holds the wired components of one process.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	orch    *orchestrator.Orchestrator
	state   *orchestrator.State
	alerts  *alert.Dispatcher
	store   storage.Store
	closers []io.Closer
}

// buildApp wires providers, cache, stores and the alert dispatcher.
// observers receive scan events in addition to the returned state.
func buildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, observers ...orchestrator.Observer) (*app, error) {
	a := &app{cfg: cfg, logger: logger, state: orchestrator.NewState()}

	c, err := a.openCache(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	store, err := a.openStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.store = store

	scores, err := a.openScores(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	alerts, err := a.openAlerts()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.alerts = alerts

	p := cfg.Providers
	be := birdeye.New(p.BirdEye.BaseURL, p.BirdEye.APIKey, providerOptions(p.BirdEye, logger)...)
	dex := dexscreener.New(p.DexScreener.BaseURL, providerOptions(p.DexScreener, logger)...)
	gp := goplus.New(p.GoPlus.BaseURL, p.GoPlus.APIKey, providerOptions(p.GoPlus, logger)...)

	deps := orchestrator.Deps{
		Lists:   be,
		Market:  dex,
		Scanner: gp,
		BirdEye: be,
		Cache:   c,
		Alerts:  alerts,
		Store:   store,
		Scores:  scores,
		Reports: reporting.NewWriter(cfg.Storage.ResultsDir),
	}
	if p.Helius.BaseURL != "" {
		rpc := solana.NewHTTPClient(p.Helius.BaseURL,
			solana.WithTimeout(p.Helius.Timeout),
			solana.WithRate(p.Helius.RatePerSecond),
			solana.WithRetryAfter(p.Helius.RetryAfter),
			solana.WithLogger(logger))
		deps.Ages = solana.NewAgeResolver(rpc,
			solana.WithSignaturePages(cfg.Filters.AgeSignaturePages),
			solana.WithAgeCache(c, creationTimeTTL))
		deps.Metadata = solana.NewMetadataResolver(rpc)
	} else {
		logger.Warn("no Solana RPC endpoint configured, the age filter will pass nothing")
	}

	a.orch = orchestrator.New(orchestrator.Options{
		Deps:     deps,
		Config:   cfg,
		Observer: append(orchestrator.MultiObserver{a.state}, observers...),
		Logger:   logger,
	})
	return a, nil
}

func providerOptions(pc config.ProviderConfig, logger *zap.Logger) []provider.Option {
	return []provider.Option{
		provider.WithTimeout(pc.Timeout),
		provider.WithRate(pc.RatePerSecond),
		provider.WithRetryAfter(pc.RetryAfter),
		provider.WithBreaker(breakerTrips, breakerReset),
		provider.WithLogger(logger),
	}
}

func (a *app) openCache(ctx context.Context) (cache.Cache, error) {
	cc := a.cfg.Cache
	if cc.RedisAddr == "" {
		return cache.NewMemory(cc.MaxEntries), nil
	}
	r, err := cache.NewRedis(ctx, cc.RedisAddr, cc.RedisPassword, cc.RedisDB)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, r)
	a.logger.Info("using redis response cache", zap.String("addr", cc.RedisAddr))
	return r, nil
}

func (a *app) openStore(ctx context.Context) (storage.Store, error) {
	sc := a.cfg.Storage
	var store storage.Store
	switch sc.Driver {
	case config.DriverPostgres:
		pool, err := pgstore.NewPool(ctx, sc.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}
		store = pgstore.NewStore(pool)
	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, sc.SQLitePath)
		if err != nil {
			return nil, err
		}
		store = sqlite.NewStore(db)
	default:
		store = memory.NewStore()
	}
	a.closers = append(a.closers, store)
	a.logger.Info("scan store ready", zap.String("driver", sc.Driver))
	return store, nil
}

// openScores returns nil when no ClickHouse DSN is configured.
func (a *app) openScores(ctx context.Context) (storage.ScoreStore, error) {
	dsn := a.cfg.Storage.ClickHouseDSN
	if dsn == "" {
		return nil, nil
	}
	conn, err := migrations.RunClickhouseMigrations(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("clickhouse: %w", err)
	}
	a.closers = append(a.closers, conn)
	return chstore.NewScoreStore(conn), nil
}

func (a *app) openAlerts() (*alert.Dispatcher, error) {
	ac := a.cfg.Alerts
	history, err := alert.LoadHistory(ac.HistoryPath)
	if err != nil {
		return nil, err
	}
	channels := []alert.Channel{alert.NewCSVLog(ac.LogDir)}
	if tg := alert.NewTelegramChannel(ac.Telegram.BaseURL, ac.Telegram.BotToken, ac.Telegram.ChatID); tg.Configured() {
		channels = append(channels, tg)
	}
	return alert.NewDispatcher(history, a.logger, channels...).WithDelay(ac.Delay), nil
}

// Close releases stores and connections in reverse order of opening.
func (a *app) Close() error {
	var errs *multierror.Error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	a.closers = nil
	return errs.ErrorOrNil()
}
