// Package config loads scanner configuration from YAML with environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"solana-revival-scanner/internal/logging"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	Log       logging.Config  `yaml:"log"`
	Providers ProvidersConfig `yaml:"providers"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Filters   FiltersConfig   `yaml:"filters"`
	Social    SocialConfig    `yaml:"social"`
	Security  SecurityConfig  `yaml:"security"`
	Revival   RevivalConfig   `yaml:"revival"`
	Scan      ScanConfig      `yaml:"scan"`
	Alerts    AlertsConfig    `yaml:"alerts"`
	Storage   StorageConfig   `yaml:"storage"`
	Cache     CacheConfig     `yaml:"cache"`
	HTTP      HTTPConfig      `yaml:"http"`
}

// ProviderConfig configures one external data provider.
type ProviderConfig struct {
	BaseURL       string        `yaml:"base_url"`
	APIKey        string        `yaml:"api_key"`
	Timeout       time.Duration `yaml:"timeout"`
	RatePerSecond float64       `yaml:"rate_per_second"`
	RetryAfter    time.Duration `yaml:"retry_after"` // back-off before the single 429 retry
}

// ProvidersConfig groups all external providers.
type ProvidersConfig struct {
	BirdEye     ProviderConfig `yaml:"birdeye"`
	DexScreener ProviderConfig `yaml:"dexscreener"`
	GoPlus      ProviderConfig `yaml:"goplus"`
	Helius      ProviderConfig `yaml:"helius"` // BaseURL is the JSON-RPC endpoint
}

// DiscoveryConfig controls the three discovery passes.
type DiscoveryConfig struct {
	TokensPerPass int `yaml:"tokens_per_pass"`
	PageSize      int `yaml:"page_size"`
	TrendingLimit int `yaml:"trending_limit"`
}

// FiltersConfig holds pipeline thresholds.
type FiltersConfig struct {
	MinLiquidityPrefilter float64       `yaml:"min_liquidity_prefilter"`
	MaxMarketCap          float64       `yaml:"max_market_cap"`
	MinAgeHours           float64       `yaml:"min_age_hours"`
	MaxAgeHours           float64       `yaml:"max_age_hours"` // scorer only; 0 disables
	MinLiquidityStrict    float64       `yaml:"min_liquidity_strict"`
	MinVolume1h           float64       `yaml:"min_volume_1h"`
	AgeDelay              time.Duration `yaml:"age_delay"`
	AgeSignaturePages     int           `yaml:"age_signature_pages"`
	MarketDelay           time.Duration `yaml:"market_delay"`
}

// SocialConfig controls enrichment and the opt-in social gate.
type SocialConfig struct {
	Gate           bool          `yaml:"gate"`
	MinScore       float64       `yaml:"min_score"`
	RequireSocials bool          `yaml:"require_socials"`
	Delay          time.Duration `yaml:"delay"`
}

// SecurityConfig controls the security filter.
type SecurityConfig struct {
	Workers      int     `yaml:"workers"`
	MinLiquidity float64 `yaml:"min_liquidity"`
	MinVolume    float64 `yaml:"min_volume"`
	MinScore     int     `yaml:"min_score"`
}

// RevivalConfig controls the revival scorer.
type RevivalConfig struct {
	MaxTokens       int           `yaml:"max_tokens"`
	Delay           time.Duration `yaml:"delay"`
	MinScore        float64       `yaml:"min_score"`
	MaxTop10Percent float64       `yaml:"max_top10_percent"`
	WhaleUSD        float64       `yaml:"whale_usd"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
}

// ScanConfig controls the continuous loop.
type ScanConfig struct {
	Interval time.Duration `yaml:"interval"`
	Cooldown time.Duration `yaml:"cooldown"`
	Cron     string        `yaml:"cron"` // overrides Interval when set
	Verbose  bool          `yaml:"verbose"`
}

// TelegramConfig configures the optional Telegram alert channel.
type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
	BaseURL  string `yaml:"base_url"`
}

// AlertsConfig controls alert dispatch and persistence.
type AlertsConfig struct {
	HistoryPath string         `yaml:"history_path"`
	LogDir      string         `yaml:"log_dir"`
	Delay       time.Duration  `yaml:"delay"`
	Telegram    TelegramConfig `yaml:"telegram"`
}

// StorageConfig selects the scan store backend.
type StorageConfig struct {
	Driver        string `yaml:"driver"`
	PostgresDSN   string `yaml:"postgres_dsn"`
	SQLitePath    string `yaml:"sqlite_path"`
	ClickHouseDSN string `yaml:"clickhouse_dsn"` // optional score time series
	ResultsDir    string `yaml:"results_dir"`    // dated CSV result logs
}

// CacheConfig controls the response cache.
type CacheConfig struct {
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	MaxEntries    int    `yaml:"max_entries"`
}

// HTTPConfig controls the dashboard server.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns a configuration populated with default values.
func Default() *Config {
	return &Config{
		Log: logging.Config{Level: "info", Encoding: "console"},
		Providers: ProvidersConfig{
			BirdEye: ProviderConfig{
				BaseURL:       "https://public-api.birdeye.so",
				Timeout:       15 * time.Second,
				RatePerSecond: 1,
				RetryAfter:    60 * time.Second,
			},
			DexScreener: ProviderConfig{
				BaseURL:       "https://api.dexscreener.com",
				Timeout:       10 * time.Second,
				RatePerSecond: 5,
				RetryAfter:    60 * time.Second,
			},
			GoPlus: ProviderConfig{
				BaseURL:       "https://api.gopluslabs.io",
				Timeout:       10 * time.Second,
				RatePerSecond: 5,
				RetryAfter:    60 * time.Second,
			},
			Helius: ProviderConfig{
				Timeout:       10 * time.Second,
				RatePerSecond: 10,
				RetryAfter:    60 * time.Second,
			},
		},
		Discovery: DiscoveryConfig{
			TokensPerPass: 200,
			PageSize:      50,
			TrendingLimit: 20,
		},
		Filters: FiltersConfig{
			MinLiquidityPrefilter: 50_000,
			MaxMarketCap:          30_000_000,
			MinAgeHours:           24,
			MaxAgeHours:           4320,
			MinLiquidityStrict:    80_000,
			MinVolume1h:           20_000,
			AgeDelay:              100 * time.Millisecond,
			AgeSignaturePages:     1,
			MarketDelay:           200 * time.Millisecond,
		},
		Social: SocialConfig{
			MinScore: 0.3,
			Delay:    200 * time.Millisecond,
		},
		Security: SecurityConfig{
			Workers:      3,
			MinLiquidity: 5_000,
			MinVolume:    5_000,
			MinScore:     60,
		},
		Revival: RevivalConfig{
			MaxTokens:       40,
			Delay:           2 * time.Second,
			MinScore:        0.4,
			MaxTop10Percent: 70,
			WhaleUSD:        100_000,
			CacheTTL:        300 * time.Second,
		},
		Scan: ScanConfig{
			Interval: 2 * time.Hour,
			Cooldown: 60 * time.Second,
			Verbose:  true,
		},
		Alerts: AlertsConfig{
			HistoryPath: "data/alert_history.json",
			LogDir:      "data/alerts",
			Delay:       500 * time.Millisecond,
			Telegram:    TelegramConfig{BaseURL: "https://api.telegram.org"},
		},
		Storage: StorageConfig{
			Driver:     DriverMemory,
			SQLitePath: "data/scanner.db",
			ResultsDir: "data/results",
		},
		Cache: CacheConfig{
			MaxEntries: 10_000,
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
	}
}

// Load reads config from a YAML file over the defaults, then applies environment overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv applies environment variable overrides.
func (c *Config) applyEnv() {
	setString(&c.Providers.BirdEye.APIKey, "BIRDEYE_API_KEY")
	setString(&c.Providers.GoPlus.APIKey, "GOPLUS_API_KEY")
	setString(&c.Providers.Helius.APIKey, "HELIUS_API_KEY")
	setString(&c.Providers.Helius.BaseURL, "HELIUS_RPC_URL")
	if c.Providers.Helius.BaseURL == "" && c.Providers.Helius.APIKey != "" {
		c.Providers.Helius.BaseURL = "https://mainnet.helius-rpc.com/?api-key=" + c.Providers.Helius.APIKey
	}

	setString(&c.Storage.PostgresDSN, "POSTGRES_DSN")
	setString(&c.Storage.ClickHouseDSN, "CLICKHOUSE_DSN")
	setString(&c.Storage.SQLitePath, "SQLITE_PATH")
	setString(&c.Storage.Driver, "STORAGE_DRIVER")
	setString(&c.Cache.RedisAddr, "REDIS_ADDR")
	setString(&c.Cache.RedisPassword, "REDIS_PASSWORD")
	setString(&c.Alerts.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	setString(&c.Alerts.Telegram.ChatID, "TELEGRAM_CHAT_ID")
	setString(&c.HTTP.Addr, "SCANNER_HTTP_ADDR")
	setString(&c.Log.Level, "LOG_LEVEL")

	if v := os.Getenv("SCAN_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Scan.Interval = d
		} else if secs, err := strconv.Atoi(v); err == nil {
			c.Scan.Interval = time.Duration(secs) * time.Second
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

var scheduleParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ParseSchedule parses a cron expression with an optional leading seconds field.
func ParseSchedule(expr string) (cron.Schedule, error) {
	return scheduleParser.Parse(expr)
}

// Validate checks that the configuration is usable.
// Missing API keys are not errors: the dependent stage returns no data.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverSQLite:
	case DriverPostgres:
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn is required for driver %q", DriverPostgres)
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == DriverSQLite && c.Storage.SQLitePath == "" {
		return fmt.Errorf("storage.sqlite_path is required for driver %q", DriverSQLite)
	}

	if c.Scan.Cron != "" {
		if _, err := ParseSchedule(c.Scan.Cron); err != nil {
			return fmt.Errorf("scan.cron: %w", err)
		}
	} else if c.Scan.Interval <= 0 {
		return fmt.Errorf("scan.interval must be positive")
	}

	if c.Security.Workers < 1 {
		return fmt.Errorf("security.workers must be at least 1")
	}
	if c.Security.MinScore < 0 || c.Security.MinScore > 100 {
		return fmt.Errorf("security.min_score must be in [0,100]")
	}
	if c.Revival.MinScore < 0 || c.Revival.MinScore > 1 {
		return fmt.Errorf("revival.min_score must be in [0,1]")
	}
	if c.Revival.MaxTokens < 1 {
		return fmt.Errorf("revival.max_tokens must be at least 1")
	}
	if c.Filters.MaxAgeHours != 0 && c.Filters.MaxAgeHours < c.Filters.MinAgeHours {
		return fmt.Errorf("filters.max_age_hours must not be below min_age_hours")
	}
	if c.Discovery.PageSize < 1 {
		return fmt.Errorf("discovery.page_size must be at least 1")
	}
	return nil
}
