package config

import (
	"fmt"
	"time"
)

// Settings is the runtime-tunable subset of Config exposed by the dashboard.
type Settings struct {
	ScanIntervalSeconds int     `json:"scan_interval"`
	MinRevivalScore     float64 `json:"min_revival_score"`
	MaxTokensToScore    int     `json:"max_tokens_to_score"`
	MinLiquidityStrict  float64 `json:"min_liquidity_strict"`
	MinVolume1h         float64 `json:"min_volume_1h"`
	MinAgeHours         float64 `json:"min_age_hours"`
	SocialGate          bool    `json:"social_gate"`
}

// Settings returns the current runtime settings.
func (c *Config) Settings() Settings {
	return Settings{
		ScanIntervalSeconds: int(c.Scan.Interval / time.Second),
		MinRevivalScore:     c.Revival.MinScore,
		MaxTokensToScore:    c.Revival.MaxTokens,
		MinLiquidityStrict:  c.Filters.MinLiquidityStrict,
		MinVolume1h:         c.Filters.MinVolume1h,
		MinAgeHours:         c.Filters.MinAgeHours,
		SocialGate:          c.Social.Gate,
	}
}

// Validate checks settings bounds.
func (s Settings) Validate() error {
	if s.ScanIntervalSeconds < 60 {
		return fmt.Errorf("scan_interval must be at least 60 seconds")
	}
	if s.MinRevivalScore < 0 || s.MinRevivalScore > 1 {
		return fmt.Errorf("min_revival_score must be in [0,1]")
	}
	if s.MaxTokensToScore < 1 {
		return fmt.Errorf("max_tokens_to_score must be at least 1")
	}
	if s.MinLiquidityStrict < 0 || s.MinVolume1h < 0 || s.MinAgeHours < 0 {
		return fmt.Errorf("thresholds must not be negative")
	}
	return nil
}

// WithSettings returns a copy of c with s applied.
func (c *Config) WithSettings(s Settings) (*Config, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	next := *c
	next.Scan.Interval = time.Duration(s.ScanIntervalSeconds) * time.Second
	next.Revival.MinScore = s.MinRevivalScore
	next.Revival.MaxTokens = s.MaxTokensToScore
	next.Filters.MinLiquidityStrict = s.MinLiquidityStrict
	next.Filters.MinVolume1h = s.MinVolume1h
	next.Filters.MinAgeHours = s.MinAgeHours
	next.Social.Gate = s.SocialGate
	return &next, nil
}
