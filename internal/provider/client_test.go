package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(serverURL string, opts ...Option) *Client {
	opts = append([]Option{WithRate(0), WithRetryAfter(time.Millisecond)}, opts...)
	return NewClient("test", serverURL, opts...)
}

func TestClient_GetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/items", r.URL.Path)
		assert.Equal(t, "7", r.URL.Query().Get("limit"))
		assert.Equal(t, "secret", r.Header.Get("X-API-KEY"))
		w.Write([]byte(`{"value": 42}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL, WithHeader("X-API-KEY", "secret"))

	var out struct {
		Value int `json:"value"`
	}
	err := c.GetJSON(context.Background(), "/v1/items", url.Values{"limit": {"7"}}, &out)
	require.NoError(t, err)
	assert.Equal(t, 42, out.Value)
}

func TestClient_RetriesOnceOn429(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	var slept time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		slept = d
		return nil
	}

	err := c.GetJSON(context.Background(), "/", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, time.Millisecond, slept)
}

func TestClient_Persistent429(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	err := c.GetJSON(context.Background(), "/", nil, nil)

	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, int32(2), calls.Load(), "exactly one retry")
}

func TestClient_StatusErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		case "/bad":
			w.WriteHeader(http.StatusBadRequest)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	ctx := context.Background()

	assert.ErrorIs(t, c.GetJSON(ctx, "/missing", nil, nil), ErrNoData)

	err := c.GetJSON(ctx, "/bad", nil, nil)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.Code)
	assert.True(t, IsClientError(err))

	err = c.GetJSON(ctx, "/boom", nil, nil)
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.Code)
	assert.False(t, IsClientError(err))
}

func TestClient_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	var out map[string]any
	err := newTestClient(server.URL).GetJSON(context.Background(), "/", nil, &out)
	assert.Error(t, err)
}

func TestClient_NotConfigured(t *testing.T) {
	c := NewClient("empty", "")
	assert.False(t, c.Configured())
	assert.ErrorIs(t, c.GetJSON(context.Background(), "/", nil, nil), ErrNotConfigured)
}

func TestClient_BreakerOpensOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := newTestClient(server.URL, WithBreaker(2, time.Minute))
	ctx := context.Background()

	_ = c.GetJSON(ctx, "/", nil, nil)
	_ = c.GetJSON(ctx, "/", nil, nil)
	err := c.GetJSON(ctx, "/", nil, nil)

	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_BreakerIgnoresNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := newTestClient(server.URL, WithBreaker(1, time.Minute))
	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, c.GetJSON(context.Background(), "/", nil, nil), ErrNoData)
	}
}
