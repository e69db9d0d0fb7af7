// Package birdeye is a client for the BirdEye public API: token discovery lists,
// token overview, hourly OHLCV, holders and top traders.
package birdeye

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"solana-revival-scanner/internal/provider"
)

// Defaults matching the standard-tier ceiling.
const (
	DefaultBaseURL = "https://public-api.birdeye.so"
	DefaultTimeout = 15 * time.Second
	DefaultRate    = 1.0
)

// Client is a BirdEye API client. All endpoints require an API key.
type Client struct {
	http   *provider.Client
	apiKey string
}

// New creates a client. Options override the defaults.
func New(baseURL, apiKey string, opts ...provider.Option) *Client {
	base := []provider.Option{
		provider.WithTimeout(DefaultTimeout),
		provider.WithRate(DefaultRate),
		provider.WithHeader("X-API-KEY", apiKey),
		provider.WithHeader("x-chain", "solana"),
	}
	return &Client{
		http:   provider.NewClient("birdeye", baseURL, append(base, opts...)...),
		apiKey: apiKey,
	}
}

// Configured reports whether the client has both an endpoint and an API key.
func (c *Client) Configured() bool {
	return c.apiKey != "" && c.http.Configured()
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// get decodes data of a {"success", "data"} envelope into out.
// success=false and a null data field are reported as provider.ErrNoData.
func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	if !c.Configured() {
		return fmt.Errorf("birdeye: %w", provider.ErrNotConfigured)
	}

	var env envelope
	if err := c.http.GetJSON(ctx, path, q, &env); err != nil {
		return err
	}
	if !env.Success {
		if env.Message != "" {
			return fmt.Errorf("birdeye %s: %w: %s", path, provider.ErrNoData, env.Message)
		}
		return fmt.Errorf("birdeye %s: %w: success=false", path, provider.ErrNoData)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("birdeye %s: %w", path, provider.ErrNoData)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("birdeye %s: decode data: %w", path, err)
	}
	return nil
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
