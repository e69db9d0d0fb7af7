// Package dexscreener reads trading pairs from the public DexScreener API.
package dexscreener

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"time"

	"solana-revival-scanner/internal/domain"
	"solana-revival-scanner/internal/provider"
)

// Defaults for the free tier (300 req/min).
const (
	DefaultBaseURL = "https://api.dexscreener.com"
	DefaultTimeout = 10 * time.Second
	DefaultRate    = 5.0
)

// Pair is the subset of a DexScreener pair the scanner consumes.
type Pair struct {
	ChainID     string `json:"chainId"`
	DexID       string `json:"dexId"`
	URL         string `json:"url"`
	PairAddress string `json:"pairAddress"`
	BaseToken   struct {
		Address string `json:"address"`
		Name    string `json:"name"`
		Symbol  string `json:"symbol"`
	} `json:"baseToken"`
	PriceUSD provider.Float `json:"priceUsd"`
	Txns     struct {
		H24 struct {
			Buys  int `json:"buys"`
			Sells int `json:"sells"`
		} `json:"h24"`
	} `json:"txns"`
	Volume struct {
		H1  provider.Float `json:"h1"`
		H6  provider.Float `json:"h6"`
		H24 provider.Float `json:"h24"`
	} `json:"volume"`
	PriceChange struct {
		H1  provider.Float `json:"h1"`
		H6  provider.Float `json:"h6"`
		H24 provider.Float `json:"h24"`
	} `json:"priceChange"`
	Liquidity *struct {
		USD  provider.Float `json:"usd"`
		Base provider.Float `json:"base"`
	} `json:"liquidity"`
	FDV           provider.Float `json:"fdv"`
	MarketCap     provider.Float `json:"marketCap"`
	PairCreatedAt int64          `json:"pairCreatedAt"`
	Info          *struct {
		Websites []struct {
			URL string `json:"url"`
		} `json:"websites"`
		Socials []struct {
			Type string `json:"type"`
			URL  string `json:"url"`
		} `json:"socials"`
	} `json:"info"`
	Boosts *struct {
		Active int `json:"active"`
	} `json:"boosts"`
}

// LiquidityUSD returns the pool liquidity, 0 when the pair reports none.
func (p *Pair) LiquidityUSD() float64 {
	if p.Liquidity == nil {
		return 0
	}
	return p.Liquidity.USD.Float64()
}

type tokensResponse struct {
	Pairs []Pair `json:"pairs"`
}

// Client is a DexScreener API client.
type Client struct {
	http *provider.Client
}

// New creates a client. Options override the free-tier defaults.
func New(baseURL string, opts ...provider.Option) *Client {
	base := []provider.Option{
		provider.WithTimeout(DefaultTimeout),
		provider.WithRate(DefaultRate),
	}
	return &Client{http: provider.NewClient("dexscreener", baseURL, append(base, opts...)...)}
}

// Pairs returns every pair DexScreener lists for the token.
func (c *Client) Pairs(ctx context.Context, address string) ([]Pair, error) {
	var resp tokensResponse
	if err := c.http.GetJSON(ctx, "/latest/dex/tokens/"+url.PathEscape(address), nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Pairs) == 0 {
		return nil, provider.ErrNoData
	}
	return resp.Pairs, nil
}

// Snapshot returns the token's most liquid pair as a MarketSnapshot.
func (c *Client) Snapshot(ctx context.Context, address string) (*domain.MarketSnapshot, error) {
	pairs, err := c.Pairs(ctx, address)
	if err != nil {
		return nil, err
	}
	return Canonical(address, pairs), nil
}

// Canonical builds a snapshot from the most liquid of pairs. pairs must be non-empty.
// PairCreatedAt is the earliest creation time across all pairs so that it
// approximates the token launch rather than the listing of its current top pool.
func Canonical(address string, pairs []Pair) *domain.MarketSnapshot {
	sorted := make([]Pair, len(pairs))
	copy(sorted, pairs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].LiquidityUSD() > sorted[j].LiquidityUSD()
	})
	top := sorted[0]

	snap := &domain.MarketSnapshot{
		Address:        address,
		PairAddress:    top.PairAddress,
		DexID:          top.DexID,
		Symbol:         top.BaseToken.Symbol,
		Name:           top.BaseToken.Name,
		PriceUSD:       top.PriceUSD.Float64(),
		LiquidityUSD:   top.LiquidityUSD(),
		Volume1h:       top.Volume.H1.Float64(),
		Volume6h:       top.Volume.H6.Float64(),
		Volume24h:      top.Volume.H24.Float64(),
		PriceChange1h:  top.PriceChange.H1.Float64(),
		PriceChange6h:  top.PriceChange.H6.Float64(),
		PriceChange24h: top.PriceChange.H24.Float64(),
		Buys24h:        top.Txns.H24.Buys,
		Sells24h:       top.Txns.H24.Sells,
		MarketCapUSD:   top.MarketCap.Float64(),
		FDV:            top.FDV.Float64(),
		URL:            domain.CanonicalURL(top.URL, address),
	}
	if snap.Symbol == "" {
		snap.Symbol = "Unknown"
	}
	if top.Liquidity != nil {
		snap.LiquidityBase = top.Liquidity.Base.Float64()
	}
	if top.Boosts != nil {
		snap.Boosts = top.Boosts.Active
	}
	if top.Info != nil {
		for _, s := range top.Info.Socials {
			t := strings.ToLower(s.Type)
			switch {
			case strings.Contains(t, "twitter"):
				snap.Twitter = s.URL
			case strings.Contains(t, "telegram"):
				snap.Telegram = s.URL
			case strings.Contains(t, "discord"):
				snap.Discord = s.URL
			}
		}
		if len(top.Info.Websites) > 0 {
			snap.Website = top.Info.Websites[0].URL
		}
	}

	for _, p := range pairs {
		if p.PairCreatedAt > 0 && (snap.PairCreatedAt == 0 || p.PairCreatedAt < snap.PairCreatedAt) {
			snap.PairCreatedAt = p.PairCreatedAt
		}
	}
	return snap
}
