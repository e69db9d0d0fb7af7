package birdeye

import (
	"context"
	"net/url"

	"solana-revival-scanner/internal/domain"
	"solana-revival-scanner/internal/provider"
)

// Sort fields accepted by the token list endpoint.
const (
	SortByPriceChange24h = "v24hChangePercent"
	SortByVolume24h      = "v24hUSD"
	SortByLiquidity      = "liquidity"
)

type listedToken struct {
	Address   string         `json:"address"`
	Symbol    string         `json:"symbol"`
	Name      string         `json:"name"`
	Liquidity provider.Float `json:"liquidity"`
	V24hUSD   provider.Float `json:"v24hUSD"`
	MC        provider.Float `json:"mc"`
}

// listPage accepts both the "tokens" and the "items" list shapes.
type listPage struct {
	Tokens []listedToken `json:"tokens"`
	Items  []listedToken `json:"items"`
}

func (p *listPage) toTokens(src domain.Source) []domain.Token {
	rows := p.Tokens
	if len(rows) == 0 {
		rows = p.Items
	}
	out := make([]domain.Token, 0, len(rows))
	for _, r := range rows {
		if r.Address == "" {
			continue
		}
		sym := r.Symbol
		if sym == "" {
			sym = "Unknown"
		}
		out = append(out, domain.Token{
			Address:      r.Address,
			Symbol:       sym,
			Name:         r.Name,
			LiquidityUSD: r.Liquidity.Float64(),
			Volume24hUSD: r.V24hUSD.Float64(),
			MarketCapUSD: r.MC.Float64(),
			Source:       src,
		})
	}
	return out
}

// MemeList returns one page of the Solana meme token list.
func (c *Client) MemeList(ctx context.Context, offset, limit int) ([]domain.Token, error) {
	q := url.Values{
		"chain":  {"solana"},
		"offset": {itoa(offset)},
		"limit":  {itoa(limit)},
	}
	var page listPage
	if err := c.get(ctx, "/defi/v3/token/meme/list", q, &page); err != nil {
		return nil, err
	}
	return page.toTokens(domain.SourceMemeList), nil
}

// TokenList returns one page of the token list sorted descending by sortBy.
func (c *Client) TokenList(ctx context.Context, sortBy string, offset, limit int) ([]domain.Token, error) {
	q := url.Values{
		"sort_by":   {sortBy},
		"sort_type": {"desc"},
		"offset":    {itoa(offset)},
		"limit":     {itoa(limit)},
	}
	var page listPage
	if err := c.get(ctx, "/defi/tokenlist", q, &page); err != nil {
		return nil, err
	}
	return page.toTokens(domain.SourcePriceMovers), nil
}

// Trending returns the trending list truncated to limit. The endpoint serves 20 at most.
func (c *Client) Trending(ctx context.Context, limit int) ([]domain.Token, error) {
	var page listPage
	if err := c.get(ctx, "/defi/token_trending", nil, &page); err != nil {
		return nil, err
	}
	tokens := page.toTokens(domain.SourceTrending)
	if limit > 0 && len(tokens) > limit {
		tokens = tokens[:limit]
	}
	return tokens, nil
}
