package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"solana-revival-scanner/internal/logging"
	"solana-revival-scanner/internal/observability"
)

// Default configuration values.
const (
	DefaultTimeout       = 15 * time.Second
	DefaultRetryAfter    = 60 * time.Second
	DefaultRatePerSecond = 1.0
	DefaultBreakerTrips  = 5
	DefaultBreakerReset  = 30 * time.Second
	maxResponseBytes     = 8 << 20
)

// Client performs rate-limited JSON GETs against one provider.
// A 429 response is retried exactly once after the retry-after back-off.
type Client struct {
	name       string
	baseURL    string
	client     *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	retryAfter time.Duration
	headers    http.Header
	logger     *zap.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// Option configures Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithRate sets the request ceiling in requests per second. Zero or less disables limiting.
func WithRate(perSecond float64) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithRetryAfter sets the back-off before the single 429 retry.
func WithRetryAfter(d time.Duration) Option {
	return func(c *Client) {
		c.retryAfter = d
	}
}

// WithHeader adds a header sent on every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		if value != "" {
			c.headers.Set(key, value)
		}
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logging.OrNop(l)
	}
}

// WithBreaker overrides the circuit breaker trip threshold and open timeout.
func WithBreaker(consecutiveFailures uint32, openFor time.Duration) Option {
	return func(c *Client) {
		c.breaker = newBreaker(c.name, consecutiveFailures, openFor, c)
	}
}

// NewClient creates a provider client rooted at baseURL.
func NewClient(name, baseURL string, opts ...Option) *Client {
	c := &Client{
		name:       name,
		baseURL:    strings.TrimRight(baseURL, "/"),
		client:     &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRatePerSecond), 1),
		retryAfter: DefaultRetryAfter,
		headers:    make(http.Header),
		logger:     zap.NewNop(),
		sleep:      sleepCtx,
	}
	c.headers.Set("Accept", "application/json")
	c.breaker = newBreaker(name, DefaultBreakerTrips, DefaultBreakerReset, c)
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named(name)
	return c
}

func newBreaker(name string, trips uint32, openFor time.Duration, c *Client) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= trips
		},
		// Missing records and bad requests are answers, not outages.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNoData) || IsClientError(err) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state change",
				zap.String("breaker", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})
}

// Name returns the provider name.
func (c *Client) Name() string {
	return c.name
}

// Configured reports whether the client has an endpoint.
func (c *Client) Configured() bool {
	return c.baseURL != ""
}

// GetJSON issues GET baseURL+path?query and decodes the JSON body into out.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.getWithRetry(ctx, u, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s: %w", c.name, err)
	}
	return err
}

func (c *Client) getWithRetry(ctx context.Context, u string, out any) error {
	status, body, err := c.do(ctx, u)
	if err != nil {
		return err
	}

	if status == http.StatusTooManyRequests {
		c.logger.Warn("rate limit hit, backing off", zap.Duration("retry_after", c.retryAfter))
		if err := c.sleep(ctx, c.retryAfter); err != nil {
			return err
		}
		status, body, err = c.do(ctx, u)
		if err != nil {
			return err
		}
		if status == http.StatusTooManyRequests {
			return fmt.Errorf("%s: %w", c.name, ErrRateLimited)
		}
	}

	if status == http.StatusNotFound {
		return fmt.Errorf("%s: %w", c.name, ErrNoData)
	}
	if status != http.StatusOK {
		return &StatusError{Provider: c.name, Code: status, Body: string(body)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: unmarshal response: %w", c.name, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, u string) (int, []byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: create request: %w", c.name, err)
	}
	for k, v := range c.headers {
		req.Header[k] = v
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		observability.RecordProviderRequest(c.name, "error", time.Since(start).Seconds())
		return 0, nil, fmt.Errorf("%s: http request: %w", c.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	observability.RecordProviderRequest(c.name, outcome(resp.StatusCode), time.Since(start).Seconds())
	if err != nil {
		return 0, nil, fmt.Errorf("%s: read response: %w", c.name, err)
	}
	return resp.StatusCode, body, nil
}

func outcome(status int) string {
	switch {
	case status == http.StatusOK:
		return "ok"
	case status == http.StatusTooManyRequests:
		return "rate_limited"
	case status >= 500:
		return "server_error"
	default:
		return "client_error"
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Sleep waits for d or until ctx is done. Used for fixed inter-request delays.
func Sleep(ctx context.Context, d time.Duration) error {
	return sleepCtx(ctx, d)
}
