package domain

import "time"

// SecurityVerdict is the pass/fail result of the security filter for one token.
type SecurityVerdict struct {
	Address       string
	Symbol        string
	Passed        bool
	FailureReason string
	LiquidityUSD  float64
	Volume24hUSD  float64
	Dex           DexSanityCheck
	Scan          SecurityScan
	CheckedAt     time.Time
}

// DexSanityCheck is the liquidity/volume/pair sanity sub-check.
type DexSanityCheck struct {
	Passed        bool
	LiquidityUSD  float64
	Volume24hUSD  float64
	LiquidityBase float64
	Reason        string
}

// SecurityScan is the third-party token security sub-check.
// Available=false means the scan could not be obtained and was treated as advisory.
type SecurityScan struct {
	Available   bool
	Passed      bool
	Honeypot    bool
	Mintable    bool
	Blacklisted bool
	CanFreeze   bool
	Score       int // 0-100, higher is safer
	Warning     string
}
