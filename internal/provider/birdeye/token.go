package birdeye

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"solana-revival-scanner/internal/provider"
)

// Overview is the consolidated token record from /defi/token_overview.
type Overview struct {
	Address        string  `json:"address"`
	Symbol         string  `json:"symbol"`
	Name           string  `json:"name"`
	Decimals       int     `json:"decimals"`
	LiquidityUSD   float64 `json:"liquidity_usd"`
	MarketCapUSD   float64 `json:"market_cap"`
	FDV            float64 `json:"fdv"`
	PriceUSD       float64 `json:"price_usd"`
	PriceChange24h float64 `json:"price_change_24h"`
	Volume24hUSD   float64 `json:"volume_24h"`
	Holders        int     `json:"holder_count"`
	Buys24h        int     `json:"buys_24h"`
	Sells24h       int     `json:"sells_24h"`
	CreationTime   int64   `json:"creation_time"` // unix seconds, 0 if unknown
	Creator        string  `json:"creator,omitempty"`
}

// AgeHours returns hours since CreationTime, or 0 when it is unknown.
func (o *Overview) AgeHours(now time.Time) float64 {
	if o.CreationTime <= 0 {
		return 0
	}
	return now.Sub(time.Unix(o.CreationTime, 0)).Hours()
}

type overviewData struct {
	Address           string         `json:"address"`
	Symbol            string         `json:"symbol"`
	Name              string         `json:"name"`
	Decimals          int            `json:"decimals"`
	Liquidity         provider.Float `json:"liquidity"`
	MC                provider.Float `json:"mc"`
	RealMC            provider.Float `json:"realMc"`
	Price             provider.Float `json:"price"`
	V24hChangePercent provider.Float `json:"v24hChangePercent"`
	V24hUSD           provider.Float `json:"v24hUSD"`
	Holder            int            `json:"holder"`
	Buy24h            int            `json:"buy24h"`
	Sell24h           int            `json:"sell24h"`
	CreationTime      provider.Float `json:"creationTime"`
	Creator           string         `json:"creator"`
}

// Overview fetches the token overview.
func (c *Client) Overview(ctx context.Context, address string) (*Overview, error) {
	var d overviewData
	if err := c.get(ctx, "/defi/token_overview", url.Values{"address": {address}}, &d); err != nil {
		return nil, err
	}

	o := &Overview{
		Address:        address,
		Symbol:         d.Symbol,
		Name:           d.Name,
		Decimals:       d.Decimals,
		LiquidityUSD:   d.Liquidity.Float64(),
		MarketCapUSD:   d.MC.Float64(),
		FDV:            d.RealMC.Float64(),
		PriceUSD:       d.Price.Float64(),
		PriceChange24h: d.V24hChangePercent.Float64(),
		Volume24hUSD:   d.V24hUSD.Float64(),
		Holders:        d.Holder,
		Buys24h:        d.Buy24h,
		Sells24h:       d.Sell24h,
		CreationTime:   int64(d.CreationTime.Float64()),
		Creator:        d.Creator,
	}
	if o.Symbol == "" {
		o.Symbol = "Unknown"
	}
	if o.Name == "" {
		o.Name = "Unknown"
	}
	if o.Decimals == 0 {
		o.Decimals = 9
	}
	return o, nil
}

// Candle is one OHLCV bucket.
type Candle struct {
	UnixTime int64
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}

// Interval names accepted by the OHLCV endpoint.
const (
	Interval1H = "1H"
	Interval4H = "4H"
	Interval1D = "1D"
)

type ohlcvData struct {
	Items []struct {
		UnixTime int64          `json:"unixTime"`
		O        provider.Float `json:"o"`
		H        provider.Float `json:"h"`
		L        provider.Float `json:"l"`
		C        provider.Float `json:"c"`
		V        provider.Float `json:"v"`
	} `json:"items"`
}

// OHLCV returns candles in [from, to] ordered oldest first.
func (c *Client) OHLCV(ctx context.Context, address, interval string, from, to time.Time) ([]Candle, error) {
	q := url.Values{
		"address":   {address},
		"type":      {interval},
		"time_from": {strconv.FormatInt(from.Unix(), 10)},
		"time_to":   {strconv.FormatInt(to.Unix(), 10)},
	}
	var d ohlcvData
	if err := c.get(ctx, "/defi/ohlcv", q, &d); err != nil {
		return nil, err
	}

	candles := make([]Candle, len(d.Items))
	for i, it := range d.Items {
		candles[i] = Candle{
			UnixTime: it.UnixTime,
			Open:     it.O.Float64(),
			High:     it.H.Float64(),
			Low:      it.L.Float64(),
			Close:    it.C.Float64(),
			Volume:   it.V.Float64(),
		}
	}
	sort.SliceStable(candles, func(i, j int) bool { return candles[i].UnixTime < candles[j].UnixTime })
	return candles, nil
}

// Holder is one entry of the holder list.
type Holder struct {
	Owner    string
	UIAmount float64
}

type holdersData struct {
	Items []struct {
		Owner     string         `json:"owner"`
		UIAmount  provider.Float `json:"uiAmount"`
		UIAmount2 provider.Float `json:"ui_amount"`
	} `json:"items"`
}

// Holders returns up to limit of the largest holders.
func (c *Client) Holders(ctx context.Context, address string, limit int) ([]Holder, error) {
	q := url.Values{
		"address": {address},
		"offset":  {"0"},
		"limit":   {itoa(limit)},
	}
	var d holdersData
	if err := c.get(ctx, "/defi/v3/token/holder", q, &d); err != nil {
		return nil, err
	}

	holders := make([]Holder, len(d.Items))
	for i, it := range d.Items {
		amt := it.UIAmount.Float64()
		if amt == 0 {
			amt = it.UIAmount2.Float64()
		}
		holders[i] = Holder{Owner: it.Owner, UIAmount: amt}
	}
	return holders, nil
}

// Trader is one entry of the top traders list.
type Trader struct {
	Owner    string
	ValueUSD float64
}

type tradersData struct {
	Items []struct {
		Owner    string         `json:"owner"`
		ValueUSD provider.Float `json:"value_usd"`
	} `json:"items"`
}

// TopTraders returns the top traders of the token by USD value.
func (c *Client) TopTraders(ctx context.Context, address string) ([]Trader, error) {
	var d tradersData
	if err := c.get(ctx, "/defi/v2/tokens/top_traders", url.Values{"address": {address}}, &d); err != nil {
		return nil, fmt.Errorf("top traders: %w", err)
	}

	traders := make([]Trader, len(d.Items))
	for i, it := range d.Items {
		traders[i] = Trader{Owner: it.Owner, ValueUSD: it.ValueUSD.Float64()}
	}
	return traders, nil
}
