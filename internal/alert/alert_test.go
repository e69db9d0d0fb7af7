package alert

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-revival-scanner/internal/domain"
	"solana-revival-scanner/internal/provider"
)

var testNow = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

type recordingChannel struct {
	mu   sync.Mutex
	sent []*domain.Alert
	err  error
}

func (c *recordingChannel) Name() string { return "recording" }

func (c *recordingChannel) Send(_ context.Context, a *domain.Alert) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, a)
	return nil
}

func result(addr string, score float64) *domain.RevivalResult {
	return &domain.RevivalResult{Address: addr, Symbol: strings.ToUpper(addr), RevivalScore: score, AgeHours: 48}
}

func newTestDispatcher(t *testing.T, chans ...Channel) (*Dispatcher, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "alert_history.json")
	h, err := LoadHistory(path)
	require.NoError(t, err)
	return NewDispatcher(h, nil, chans...).WithClock(func() time.Time { return testNow }), path
}

func TestDispatch_PriorityMapping(t *testing.T) {
	rec := &recordingChannel{}
	d, _ := newTestDispatcher(t, rec)

	tests := []struct {
		addr  string
		score float64
		want  domain.Priority
		sent  bool
	}{
		{"high", 0.8, domain.PriorityHigh, true},
		{"medium", 0.79, domain.PriorityMedium, true},
		{"low", 0.4, domain.PriorityLow, true},
		{"none", 0.39, domain.PriorityNone, false},
	}
	for _, tt := range tests {
		ok, err := d.Dispatch(context.Background(), result(tt.addr, tt.score))
		require.NoError(t, err)
		assert.Equal(t, tt.sent, ok, tt.addr)
		assert.Equal(t, tt.want, domain.PriorityFor(tt.score), tt.addr)
	}
	require.Len(t, rec.sent, 3)
	assert.Equal(t, domain.PriorityHigh, rec.sent[0].Priority)
	assert.Equal(t, "https://dexscreener.com/solana/high", rec.sent[0].URL)
}

func TestDispatch_AtMostOnceAcrossRestarts(t *testing.T) {
	rec := &recordingChannel{}
	d, path := newTestDispatcher(t, rec)

	ok, err := d.Dispatch(context.Background(), result("tok", 0.9))
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = d.Dispatch(context.Background(), result("tok", 0.95))
	require.NoError(t, err)
	assert.False(t, ok)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var f struct {
		AlertedTokens []string `json:"alerted_tokens"`
	}
	require.NoError(t, json.Unmarshal(data, &f))
	assert.Equal(t, []string{"tok"}, f.AlertedTokens)

	h, err := LoadHistory(path)
	require.NoError(t, err)
	restarted := NewDispatcher(h, nil, rec)
	ok, err = restarted.Dispatch(context.Background(), result("tok", 0.99))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, rec.sent, 1)
}

func TestDispatch_ChannelErrorStillRecords(t *testing.T) {
	bad := &recordingChannel{err: errors.New("down")}
	d, _ := newTestDispatcher(t, bad)

	ok, err := d.Dispatch(context.Background(), result("tok", 0.9))
	assert.True(t, ok, "log channel delivered")
	assert.ErrorContains(t, err, "down")
	assert.True(t, d.history.Contains("tok"))
}

// slowChannel holds each send long enough for concurrent dispatches to overlap.
type slowChannel struct {
	recordingChannel
	delay time.Duration
}

func (c *slowChannel) Send(ctx context.Context, a *domain.Alert) error {
	time.Sleep(c.delay)
	return c.recordingChannel.Send(ctx, a)
}

func TestDispatch_ConcurrentSameAddressSendsOnce(t *testing.T) {
	ch := &slowChannel{delay: 20 * time.Millisecond}
	d, _ := newTestDispatcher(t, ch)

	const callers = 4
	oks := make([]bool, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := d.Dispatch(context.Background(), result("mint1", 0.9))
			assert.NoError(t, err)
			oks[i] = ok
		}(i)
	}
	wg.Wait()

	sent := 0
	for _, ok := range oks {
		if ok {
			sent++
		}
	}
	assert.Equal(t, 1, sent)
	assert.Len(t, ch.sent, 1)
	assert.Len(t, d.Sent(), 1)
	assert.Equal(t, 1, d.history.Len())
}

func TestHistory_ReserveRelease(t *testing.T) {
	h, err := LoadHistory("")
	require.NoError(t, err)

	assert.True(t, h.Reserve("a"))
	assert.False(t, h.Reserve("a"), "pending address is held")
	h.Release("a")
	assert.True(t, h.Reserve("a"), "released address can be retried")

	require.NoError(t, h.Add("a"))
	assert.False(t, h.Reserve("a"), "alerted address is never reserved again")
	assert.True(t, h.Contains("a"))
}

func TestDispatch_SkipsGateFailures(t *testing.T) {
	d, _ := newTestDispatcher(t)
	r := result("tok", 0.9)
	r.Error = "Liquidity $10 below minimum $80000"

	ok, err := d.Dispatch(context.Background(), r)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBatchAlert_HighestFirst(t *testing.T) {
	rec := &recordingChannel{}
	d, _ := newTestDispatcher(t, rec)

	n, err := d.BatchAlert(context.Background(), []*domain.RevivalResult{
		result("a", 0.5), nil, result("b", 0.9), result("c", 0.1), result("d", 0.7),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.Len(t, rec.sent, 3)
	assert.Equal(t, "b", rec.sent[0].Address)
	assert.Equal(t, "d", rec.sent[1].Address)
	assert.Equal(t, "a", rec.sent[2].Address)
}

func TestDailySummary(t *testing.T) {
	d, _ := newTestDispatcher(t)
	scores := []float64{0.41, 0.95, 0.62, 0.85, 0.5, 0.7, 0.45}
	for i, s := range scores {
		_, err := d.Dispatch(context.Background(), result(string(rune('a'+i)), s))
		require.NoError(t, err)
	}
	// an alert from yesterday is excluded
	d.mu.Lock()
	d.sent = append(d.sent, &domain.Alert{Address: "old", Priority: domain.PriorityHigh, Score: 0.99, Timestamp: testNow.Add(-24 * time.Hour)})
	d.mu.Unlock()

	s := d.DailySummary()
	assert.Equal(t, 7, s.Total)
	assert.Equal(t, 2, s.ByPriority[domain.PriorityHigh])
	assert.Equal(t, 2, s.ByPriority[domain.PriorityMedium])
	assert.Equal(t, 3, s.ByPriority[domain.PriorityLow])
	require.Len(t, s.Top, 5)
	assert.Equal(t, 0.95, s.Top[0].Score)
	assert.Equal(t, 0.5, s.Top[4].Score)
	assert.Contains(t, FormatSummary(s), "Alerts today: 7")
}

func TestCSVLog_DatedFileWithHeader(t *testing.T) {
	dir := t.TempDir()
	log := NewCSVLog(dir)
	a := domain.NewAlert(result("tok", 0.85), testNow)

	require.NoError(t, log.Send(context.Background(), a))
	require.NoError(t, log.Send(context.Background(), a))

	path := filepath.Join(dir, "alerts_20260314.csv")
	assert.Equal(t, path, log.Path(testNow))
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, "timestamp,priority,symbol,address,revival_score,age_hours,liquidity,volume_24h,price_change_24h,dexscreener_url",
		strings.Join(rows[0], ","))
	assert.Equal(t, "HIGH", rows[1][1])
	assert.Equal(t, "tok", rows[1][3])
	assert.Equal(t, "0.8500", rows[1][4])
	assert.Equal(t, "https://dexscreener.com/solana/tok", rows[1][9])
}

func TestCSVLog_ReadDay(t *testing.T) {
	log := NewCSVLog(t.TempDir())

	got, err := log.Read(testNow)
	require.NoError(t, err)
	assert.Empty(t, got)

	a := domain.NewAlert(result("tok", 0.85), testNow)
	require.NoError(t, log.Send(context.Background(), a))

	got, err = log.Read(testNow)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "tok", got[0].Address)
	assert.Equal(t, domain.PriorityHigh, got[0].Priority)
	assert.InDelta(t, 0.85, got[0].Score, 1e-9)
	assert.True(t, got[0].Timestamp.Equal(testNow.Truncate(time.Second)))
	assert.Equal(t, "https://dexscreener.com/solana/tok", got[0].URL)
}

func TestDailySummary_FromCSVLog(t *testing.T) {
	dir := t.TempDir()
	earlier := NewCSVLog(dir)
	require.NoError(t, earlier.Send(context.Background(), domain.NewAlert(result("x", 0.9), testNow)))
	require.NoError(t, earlier.Send(context.Background(), domain.NewAlert(result("y", 0.5), testNow)))

	// a fresh dispatcher sees alerts written by an earlier process
	d, _ := newTestDispatcher(t, NewCSVLog(dir))
	s := d.DailySummary()
	assert.Equal(t, 2, s.Total)
	assert.Equal(t, 1, s.ByPriority[domain.PriorityHigh])
	assert.Equal(t, 1, s.ByPriority[domain.PriorityLow])
}

func TestTelegramChannel_SendMessage(t *testing.T) {
	var got map[string]any
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	ch := NewTelegramChannel(srv.URL, "123:abc", "42")
	require.NoError(t, ch.Send(context.Background(), domain.NewAlert(result("tok", 0.9), testNow)))

	assert.Equal(t, "/bot123:abc/sendMessage", path)
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "HTML", got["parse_mode"])
	assert.Contains(t, got["text"], "HIGH REVIVAL")
	assert.Contains(t, got["text"], "<code>tok</code>")
}

func TestTelegramChannel_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false,"description":"chat not found"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewTelegramChannel(srv.URL, "t", "c").SendText(context.Background(), "hi")
	var se *provider.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Code)

	err = NewTelegramChannel(srv.URL, "", "c").SendText(context.Background(), "hi")
	assert.ErrorIs(t, err, provider.ErrNotConfigured)
}

func TestLoadHistory_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "h.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := LoadHistory(path)
	assert.Error(t, err)
}
