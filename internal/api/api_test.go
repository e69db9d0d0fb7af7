package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-revival-scanner/internal/config"
	"solana-revival-scanner/internal/domain"
	"solana-revival-scanner/internal/orchestrator"
	"solana-revival-scanner/internal/revival"
)

const mint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

type fixture struct {
	server *Server
	state  *orchestrator.State
	orch   *orchestrator.Orchestrator
	loop   *orchestrator.Loop
	hub    *Hub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.Default()
	cfg.Revival.Delay = 0

	state := orchestrator.NewState()
	hub := NewHub(nil)
	orch := orchestrator.New(orchestrator.Options{Config: cfg, Observer: orchestrator.MultiObserver{state, hub}})
	loop := orchestrator.NewLoop(context.Background(), orch, state)
	t.Cleanup(func() {
		loop.Stop()
		loop.Wait()
		hub.Close()
	})
	return &fixture{
		server: New(Options{Orchestrator: orch, Loop: loop, State: state, Hub: hub}),
		state:  state,
		orch:   orch,
		loop:   loop,
		hub:    hub,
	}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]any](t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = f.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatus(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	st := decode[orchestrator.Status](t, rec)
	assert.False(t, st.Running)
	assert.Zero(t, st.TotalScans)
}

func TestResults_MinScore(t *testing.T) {
	f := newFixture(t)
	f.state.ScanFinished(&orchestrator.ScanResult{
		Cycle: &domain.ScanCycle{ID: "scan"},
		Detected: []*domain.RevivalResult{
			{Address: "a", Symbol: "HI", RevivalScore: 0.85},
			{Address: "b", Symbol: "MID", RevivalScore: 0.5},
		},
	})

	rec := f.do(t, http.MethodGet, "/api/results?min_score=0.8", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[[]map[string]any](t, rec)
	require.Len(t, got, 1)
	assert.Equal(t, "HI", got[0]["token_symbol"])
	assert.Equal(t, "HIGH", got[0]["priority"])
	assert.Equal(t, "https://dexscreener.com/solana/a", got[0]["dexscreener_url"])

	rec = f.do(t, http.MethodGet, "/api/results", "")
	assert.Len(t, decode[[]map[string]any](t, rec), 2, "default min score 0.4")

	rec = f.do(t, http.MethodGet, "/api/results?min_score=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSettings(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/settings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0.4, decode[config.Settings](t, rec).MinRevivalScore)

	rec = f.do(t, http.MethodPut, "/api/settings", `{"min_revival_score": 0.7, "social_gate": true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	s := decode[config.Settings](t, rec)
	assert.Equal(t, 0.7, s.MinRevivalScore)
	assert.True(t, s.SocialGate)
	assert.Equal(t, 40, s.MaxTokensToScore, "unspecified fields keep their value")
	cfg := f.orch.Config()
	assert.Equal(t, 0.7, cfg.Revival.MinScore)

	rec = f.do(t, http.MethodPut, "/api/settings", `{"min_revival_score": 2}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPut, "/api/settings", `{"bogus": 1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestToken(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/token/not-an-address", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/token/"+mint, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[map[string]any](t, rec)
	assert.Equal(t, mint, got["token_address"])
	assert.Equal(t, revival.ReasonNoTokenData, got["error"])
	assert.Zero(t, got["revival_score"])
}

func TestScanControls(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/scan/once", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	f.loop.Wait()

	rec = f.do(t, http.MethodGet, "/api/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[[]domain.ScanCycle](t, rec)
	require.Len(t, history, 1)
	assert.Equal(t, domain.ScanCompleted, history[0].Status)

	rec = f.do(t, http.MethodPost, "/api/scan/start", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	rec = f.do(t, http.MethodPost, "/api/scan/start", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/scan/stop", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode[map[string]any](t, rec)["stopped"])

	rec = f.do(t, http.MethodGet, "/api/scan/stop", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	f := newFixture(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/scan/stop"},
		{http.MethodGet, "/api/scan/start"},
		{http.MethodPost, "/api/status"},
		{http.MethodDelete, "/api/settings"},
		{http.MethodPost, "/api/token/EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"},
	} {
		rec := f.do(t, tc.method, tc.path, "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, "%s %s", tc.method, tc.path)
		assert.Equal(t, "method not allowed", decode[map[string]string](t, rec)["error"])
	}

	rec := f.do(t, http.MethodGet, "/api/status", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestActivityErrorsAlertsPhases(t *testing.T) {
	f := newFixture(t)
	f.state.Activity(orchestrator.LevelInfo, "hello")
	f.state.Activity(orchestrator.LevelError, "boom")

	rec := f.do(t, http.MethodGet, "/api/activity", "")
	assert.Len(t, decode[[]orchestrator.ActivityEntry](t, rec), 2)

	rec = f.do(t, http.MethodGet, "/api/errors", "")
	errs := decode[[]orchestrator.ActivityEntry](t, rec)
	require.Len(t, errs, 1)
	assert.Equal(t, "boom", errs[0].Message)

	rec = f.do(t, http.MethodGet, "/api/alerts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), decode[map[string]any](t, rec)["total_alerts"])

	rec = f.do(t, http.MethodGet, "/api/phases", "")
	require.Equal(t, http.StatusOK, rec.Code)
	phases := decode[map[string][]domain.PhaseToken](t, rec)
	assert.Len(t, phases, len(domain.Phases))
}

func TestNotFound(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not found", decode[errorView](t, rec).Error)
}

func TestWebSocket_BroadcastsObserverEvents(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.server.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return f.hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)
	f.hub.Activity(orchestrator.LevelSuccess, "scan done")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev struct {
		Type string                     `json:"type"`
		Data orchestrator.ActivityEntry `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, EventActivity, ev.Type)
	assert.Equal(t, "scan done", ev.Data.Message)
	assert.Equal(t, orchestrator.LevelSuccess, ev.Data.Level)
}
