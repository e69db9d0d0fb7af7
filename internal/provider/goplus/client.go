// Package goplus reads Solana token security flags from the GoPlus API.
package goplus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"solana-revival-scanner/internal/provider"
)

// Defaults for the free tier.
const (
	DefaultBaseURL = "https://api.gopluslabs.io"
	DefaultTimeout = 10 * time.Second
	DefaultRate    = 2.0
)

// Flag is a GoPlus boolean. It is sent as "1"/"0", as a number, or as
// an object carrying a "status" field depending on the endpoint version.
type Flag bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*f = false
	case b[0] == '{':
		var obj struct {
			Status json.RawMessage `json:"status"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		if len(obj.Status) == 0 {
			*f = false
			return nil
		}
		return f.UnmarshalJSON(obj.Status)
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = s == "1"
	default:
		*f = string(b) == "1" || string(b) == "true"
	}
	return nil
}

// TokenSecurity is the subset of the GoPlus record the security filter uses.
type TokenSecurity struct {
	Honeypot             Flag   `json:"is_honeypot"`
	Mintable             Flag   `json:"is_mintable"`
	Blacklisted          Flag   `json:"is_blacklisted"`
	CanTakeBackOwnership Flag   `json:"can_take_back_ownership"`
	HolderCount          string `json:"holder_count"`
	OwnerAddress         string `json:"owner_address"`
}

type securityResponse struct {
	Code    int                       `json:"code"`
	Message string                    `json:"message"`
	Result  map[string]*TokenSecurity `json:"result"`
}

// Client is a GoPlus API client. The API key is optional.
type Client struct {
	http *provider.Client
}

// New creates a client. An empty apiKey uses the anonymous tier.
func New(baseURL, apiKey string, opts ...provider.Option) *Client {
	base := []provider.Option{
		provider.WithTimeout(DefaultTimeout),
		provider.WithRate(DefaultRate),
	}
	if apiKey != "" {
		base = append(base, provider.WithHeader("Authorization", "Bearer "+apiKey))
	}
	return &Client{http: provider.NewClient("goplus", baseURL, append(base, opts...)...)}
}

// TokenSecurity fetches the security record for a mint.
// A response without a record for the address returns provider.ErrNoData.
func (c *Client) TokenSecurity(ctx context.Context, address string) (*TokenSecurity, error) {
	var resp securityResponse
	q := url.Values{"contract_addresses": {address}}
	if err := c.http.GetJSON(ctx, "/api/v1/token_security/sol", q, &resp); err != nil {
		return nil, err
	}

	rec := lookup(resp.Result, address)
	if rec == nil {
		return nil, fmt.Errorf("goplus %s: %w", address, provider.ErrNoData)
	}
	return rec, nil
}

// lookup finds the record keyed by the lowercase address, falling back to the exact key.
func lookup(result map[string]*TokenSecurity, address string) *TokenSecurity {
	if result == nil {
		return nil
	}
	if rec, ok := result[strings.ToLower(address)]; ok && rec != nil {
		return rec
	}
	return result[address]
}
