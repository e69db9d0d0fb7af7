package domain

import "fmt"

// DexScreenerBaseURL is the canonical public page prefix for Solana pairs.
const DexScreenerBaseURL = "https://dexscreener.com/solana/"

// Token is a discovery candidate. Read-only after discovery.
type Token struct {
	Address      string  // mint address (base58)
	Symbol       string  // ticker, "Unknown" when the provider has none
	Name         string  // display name
	LiquidityUSD float64 // pool liquidity in USD
	Volume24hUSD float64 // 24h traded volume in USD
	MarketCapUSD float64 // market cap in USD
	Source       Source  // discovery pass that returned it first
}

// AgedToken is a Token with a resolved on-chain age.
type AgedToken struct {
	Token
	AgeHours float64 // hours since the first on-chain transaction
}

// MarketSnapshot is the canonical (most liquid) trading pair of a token.
type MarketSnapshot struct {
	Address        string
	PairAddress    string
	DexID          string
	Symbol         string
	Name           string
	PriceUSD       float64
	LiquidityUSD   float64
	LiquidityBase  float64 // base token reserve in the pool
	Volume1h       float64
	Volume6h       float64
	Volume24h      float64
	PriceChange1h  float64
	PriceChange6h  float64
	PriceChange24h float64
	Buys24h        int
	Sells24h       int
	MarketCapUSD   float64
	FDV            float64
	PairCreatedAt  int64 // unix ms of the earliest pair, 0 if unknown
	URL            string
	Boosts         int
	Twitter        string
	Telegram       string
	Discord        string
	Website        string
}

// EnrichedToken is an aged, market-filtered token with social signals attached.
type EnrichedToken struct {
	AgedToken
	Volume1h      float64
	PriceChange1h float64
	Boosts        int
	HasTwitter    bool
	HasTelegram   bool
	HasDiscord    bool
	HasWebsite    bool
	WebsiteURL    string
	Buys24h       int
	Sells24h      int
	BuySellRatio  float64 // buys / max(sells, 1)
	SocialScore   float64 // informational, in [0,1]
	URL           string
}

// BuySellRatio returns buys / max(sells, 1).
func BuySellRatio(buys, sells int) float64 {
	if sells < 1 {
		sells = 1
	}
	return float64(buys) / float64(sells)
}

// CanonicalURL returns url when set, otherwise the DexScreener page for address.
func CanonicalURL(url, address string) string {
	if url != "" {
		return url
	}
	return DexScreenerBaseURL + address
}

// ShortAddress returns the first 8 characters of an address for log lines.
func ShortAddress(address string) string {
	if len(address) <= 8 {
		return address
	}
	return fmt.Sprintf("%s...", address[:8])
}
