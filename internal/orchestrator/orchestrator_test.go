package orchestrator

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-revival-scanner/internal/alert"
	"solana-revival-scanner/internal/config"
	"solana-revival-scanner/internal/domain"
	"solana-revival-scanner/internal/provider"
	"solana-revival-scanner/internal/provider/birdeye"
	"solana-revival-scanner/internal/storage/memory"
)

const (
	mintRevival = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	mintIlliq   = "So11111111111111111111111111111111111111112"
	mintYoung   = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
)

type fakeLists struct {
	memes []domain.Token
}

func (f *fakeLists) MemeList(_ context.Context, offset, _ int) ([]domain.Token, error) {
	if offset > 0 {
		return nil, nil
	}
	return f.memes, nil
}

func (f *fakeLists) TokenList(context.Context, string, int, int) ([]domain.Token, error) {
	return nil, nil
}

func (f *fakeLists) Trending(context.Context, int) ([]domain.Token, error) {
	return nil, nil
}

type fakeAges map[string]float64

func (f fakeAges) AgeHours(_ context.Context, address string) (float64, error) {
	if age, ok := f[address]; ok {
		return age, nil
	}
	return 0, provider.ErrNoData
}

type fakeMarket map[string]*domain.MarketSnapshot

func (f fakeMarket) Snapshot(_ context.Context, address string) (*domain.MarketSnapshot, error) {
	if s, ok := f[address]; ok {
		return s, nil
	}
	return nil, provider.ErrNoData
}

type fakeBirdEye struct {
	overviews map[string]*birdeye.Overview
	candles   []birdeye.Candle
}

func (f *fakeBirdEye) Overview(_ context.Context, address string) (*birdeye.Overview, error) {
	if ov, ok := f.overviews[address]; ok {
		return ov, nil
	}
	return nil, provider.ErrNoData
}

func (f *fakeBirdEye) OHLCV(context.Context, string, string, time.Time, time.Time) ([]birdeye.Candle, error) {
	return f.candles, nil
}

func (f *fakeBirdEye) Holders(context.Context, string, int) ([]birdeye.Holder, error) {
	return nil, nil
}

func (f *fakeBirdEye) TopTraders(context.Context, string) ([]birdeye.Trader, error) {
	return nil, nil
}

// recordingObserver keeps the order of lifecycle events.
type recordingObserver struct {
	NopObserver
	mu     sync.Mutex
	events []string
}

func (r *recordingObserver) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingObserver) ScanStarted(*domain.ScanCycle) { r.add("started") }

func (r *recordingObserver) PhaseCompleted(_ string, phase domain.Phase, _ []domain.PhaseToken) {
	r.add(string(phase))
}

func (r *recordingObserver) ScanFinished(*ScanResult) { r.add("finished") }

func (r *recordingObserver) ScanFailed(*domain.ScanCycle, error) { r.add("failed") }

// revivalCandles dumps from 100 to 45 and recovers to 60 on rising volume.
func revivalCandles() []birdeye.Candle {
	closes := []float64{
		50, 60, 80, 100, 90, 80, 70, 65, 60, 58, 55, 52,
		50, 48, 47, 46, 46, 47, 46, 45, 47, 48, 49, 50,
		52, 50, 55, 53, 58, 60,
	}
	out := make([]birdeye.Candle, len(closes))
	for i, c := range closes {
		vol := 1000.0
		if i >= len(closes)-6 {
			vol = 1600
		}
		out[i] = birdeye.Candle{UnixTime: int64(i) * 3600, Close: c, Volume: vol}
	}
	return out
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Filters.MinLiquidityPrefilter = 50_000
	cfg.Filters.MaxMarketCap = 30_000_000
	cfg.Filters.MinAgeHours = 24
	cfg.Filters.MinLiquidityStrict = 80_000
	cfg.Filters.MinVolume1h = 20_000
	cfg.Filters.AgeDelay = 0
	cfg.Filters.MarketDelay = 0
	cfg.Social.Delay = 0
	cfg.Social.Gate = false
	cfg.Security.MinLiquidity = 10_000
	cfg.Security.MinVolume = 10_000
	cfg.Revival.Delay = 0
	cfg.Revival.MinScore = 0.4
	return cfg
}

func testDeps(t *testing.T) Deps {
	t.Helper()
	history, err := alert.LoadHistory(filepath.Join(t.TempDir(), "alert_history.json"))
	require.NoError(t, err)

	return Deps{
		Lists: &fakeLists{memes: []domain.Token{
			{Address: mintRevival, Symbol: "REV", LiquidityUSD: 200_000, MarketCapUSD: 1_000_000},
			{Address: mintIlliq, Symbol: "DRY", LiquidityUSD: 10_000, MarketCapUSD: 1_000_000},
			{Address: mintYoung, Symbol: "NEW", LiquidityUSD: 200_000, MarketCapUSD: 1_000_000},
		}},
		Ages: fakeAges{mintRevival: 100, mintYoung: 2},
		Market: fakeMarket{mintRevival: {
			Address:       mintRevival,
			Symbol:        "REV",
			LiquidityUSD:  200_000,
			LiquidityBase: 1_000_000,
			Volume1h:      50_000,
			Volume24h:     100_000,
			Buys24h:       300,
			Sells24h:      100,
		}},
		BirdEye: &fakeBirdEye{
			overviews: map[string]*birdeye.Overview{mintRevival: {
				Address:      mintRevival,
				Symbol:       "REV",
				LiquidityUSD: 200_000,
				Volume24hUSD: 100_000,
				Buys24h:      300,
				Sells24h:     100,
				CreationTime: time.Now().Add(-100 * time.Hour).Unix(),
			}},
			candles: revivalCandles(),
		},
		Alerts: alert.NewDispatcher(history, nil),
		Store:  memory.NewStore(),
		Scores: memory.NewScoreStore(),
	}
}

func TestRunScan_FullPipeline(t *testing.T) {
	deps := testDeps(t)
	state := NewState()
	rec := &recordingObserver{}
	o := New(Options{Deps: deps, Config: testConfig(), Observer: MultiObserver{state, rec}})

	res, err := o.RunScan(context.Background())
	require.NoError(t, err)

	scan := res.Cycle
	assert.Equal(t, domain.ScanCompleted, scan.Status)
	assert.Empty(t, scan.Errors)
	assert.Equal(t, map[domain.Phase]int{
		domain.PhaseDiscovered:     3,
		domain.PhasePrefiltered:    2,
		domain.PhaseAged:           1,
		domain.PhaseMarketFiltered: 1,
		domain.PhaseEnriched:       1,
		domain.PhaseSecurityPassed: 1,
		domain.PhaseRevival:        1,
	}, scan.PhaseCounts)

	require.Len(t, res.Detected, 1)
	got := res.Detected[0]
	assert.Equal(t, mintRevival, got.Address)
	assert.InDelta(t, 0.7, got.RevivalScore, 1e-9) // price 1.0, no whales, volume 1.0
	assert.Equal(t, 1, scan.AlertsSent)

	want := append([]string{"started"}, phaseNames()...)
	assert.Equal(t, append(want, "finished"), rec.events)

	ctx := context.Background()
	stored, err := deps.Store.GetScan(ctx, scan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ScanCompleted, stored.Status)
	results, err := deps.Store.ResultsByScan(ctx, scan.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	points, err := deps.Scores.ScoreHistory(ctx, mintRevival, time.Time{}, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, points, 1)

	status := state.Status()
	assert.False(t, status.Scanning)
	assert.Equal(t, 1, status.TotalScans)
	assert.Equal(t, 1, status.TotalAlerts)
	assert.Len(t, state.Results(0.5), 1)
	assert.Empty(t, state.Results(0.8))
	assert.Len(t, state.Phases()[domain.PhaseAged], 1)
}

func phaseNames() []string {
	out := make([]string, len(domain.Phases))
	for i, p := range domain.Phases {
		out[i] = string(p)
	}
	return out
}

func TestRunScan_SecondScanDoesNotRealert(t *testing.T) {
	o := New(Options{Deps: testDeps(t), Config: testConfig()})

	first, err := o.RunScan(context.Background())
	require.NoError(t, err)
	second, err := o.RunScan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, first.Cycle.AlertsSent)
	assert.Equal(t, 0, second.Cycle.AlertsSent)
	assert.Len(t, second.Detected, 1)
	assert.NotEqual(t, first.Cycle.ID, second.Cycle.ID)
}

func TestRunScan_UnconfiguredProvidersYieldEmptyScan(t *testing.T) {
	o := New(Options{Config: testConfig()})

	res, err := o.RunScan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.ScanCompleted, res.Cycle.Status)
	assert.Empty(t, res.Detected)
	for _, p := range domain.Phases {
		assert.Zero(t, res.Cycle.PhaseCounts[p], p)
	}
	require.NotEmpty(t, res.Cycle.Errors)
	assert.True(t, strings.HasPrefix(res.Cycle.Errors[0], "discovery:"), res.Cycle.Errors[0])
}

func TestRunScan_SocialGate(t *testing.T) {
	cfg := testConfig()
	cfg.Social.Gate = true
	cfg.Social.RequireSocials = true
	o := New(Options{Deps: testDeps(t), Config: cfg})

	res, err := o.RunScan(context.Background())
	require.NoError(t, err)

	assert.Zero(t, res.Cycle.PhaseCounts[domain.PhaseEnriched])
	assert.Empty(t, res.Detected)
}

func TestRunScan_Cancelled(t *testing.T) {
	deps := testDeps(t)
	rec := &recordingObserver{}
	o := New(Options{Deps: deps, Config: testConfig(), Observer: rec})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := o.RunScan(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)

	scans, err := deps.Store.ListScans(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, scans, 1)
	assert.Equal(t, domain.ScanFailed, scans[0].Status)
	assert.Equal(t, "failed", rec.events[len(rec.events)-1])
}

func TestRunScan_InProgress(t *testing.T) {
	o := New(Options{Config: testConfig()})
	o.scanMu.Lock()
	defer o.scanMu.Unlock()

	_, err := o.RunScan(context.Background())
	assert.ErrorIs(t, err, ErrScanInProgress)
}

func TestUpdateSettings(t *testing.T) {
	o := New(Options{Config: testConfig()})

	s := o.Settings()
	s.MinRevivalScore = 0.65
	s.ScanIntervalSeconds = 600
	got, err := o.UpdateSettings(s)
	require.NoError(t, err)
	assert.Equal(t, 0.65, got.MinRevivalScore)

	cfg := o.Config()
	assert.Equal(t, 0.65, cfg.Revival.MinScore)
	assert.Equal(t, 10*time.Minute, cfg.Scan.Interval)

	s.MinRevivalScore = 1.5
	_, err = o.UpdateSettings(s)
	require.Error(t, err)
	cfg = o.Config()
	assert.Equal(t, 0.65, cfg.Revival.MinScore, "rejected settings must not apply")
}

func TestVerdictPhase_UsesEnrichedSymbol(t *testing.T) {
	verdicts := []domain.SecurityVerdict{
		{Address: "a", Passed: true, LiquidityUSD: 5, Scan: domain.SecurityScan{Score: 90}},
		{Address: "b", Passed: false},
	}
	enriched := []domain.EnrichedToken{{AgedToken: domain.AgedToken{Token: domain.Token{Address: "a", Symbol: "AAA"}}}}

	got := verdictPhase(verdicts, enriched)
	require.Len(t, got, 1)
	assert.Equal(t, domain.PhaseToken{Address: "a", Symbol: "AAA", LiquidityUSD: 5, Score: 90}, got[0])
}
