// Package config loads SENTINEL's process configuration from YAML files
// layered with environment variables, following the teacher's viper-based
// Load()/setDefaults() shape.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for the SENTINEL process.
type Config struct {
	LogLevel string          `mapstructure:"log_level"`
	API      *APIConfig      `mapstructure:"api"`
	Database *DatabaseConfig `mapstructure:"database"`
	Redis    *RedisConfig    `mapstructure:"redis"`
	Telegram *TelegramConfig `mapstructure:"telegram"`
	Fetcher  *FetcherConfig  `mapstructure:"fetcher"`
	Engine   *EngineConfig   `mapstructure:"engine"`
	Tracker  *TrackerConfig  `mapstructure:"tracker"`
	Monitor  *MonitorConfig  `mapstructure:"monitor"`
	Features *FeatureFlags   `mapstructure:"features"`
}

// APIConfig controls the diagnostics/health HTTP server.
type APIConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	ReadTimeout    int    `mapstructure:"read_timeout"`
	WriteTimeout   int    `mapstructure:"write_timeout"`
	MaxHeaderBytes int    `mapstructure:"max_header_bytes"`
}

// DatabaseConfig is the relational store (signals/kol_activity/telegram_calls/outcomes).
type DatabaseConfig struct {
	Host              string `mapstructure:"host"`
	Port              int    `mapstructure:"port"`
	User              string `mapstructure:"user"`
	Password          string `mapstructure:"password"`
	Name              string `mapstructure:"name"`
	SSLMode           string `mapstructure:"ssl_mode"`
	MaxConnections    int    `mapstructure:"max_connections"`
	MinConnections    int    `mapstructure:"min_connections"`
	MaxConnLifetime   int    `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   int    `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod int    `mapstructure:"health_check_period"`
}

// RedisConfig backs the fetcher TTL caches and the ingress streams.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// TelegramConfig configures the outbound publisher (go-telegram/bot).
type TelegramConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         int64         `mapstructure:"chat_id"`
	RetryAttempts  int           `mapstructure:"retry_attempts"`
	RetryBackoff   time.Duration `mapstructure:"retry_backoff"`
	HealthFailures int           `mapstructure:"health_failures"`
}

// FetcherConfig holds cache TTLs, credit/retry knobs, and the upstream
// provider endpoints.
type FetcherConfig struct {
	MetadataTTL        time.Duration `mapstructure:"metadata_ttl"`
	HoldersTTL         time.Duration `mapstructure:"holders_ttl"`
	BondingCurveTTL    time.Duration `mapstructure:"bonding_curve_ttl"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	RetryAttempts      int           `mapstructure:"retry_attempts"`
	BatchWindow        time.Duration `mapstructure:"batch_window"`
	MetadataBatchLimit int           `mapstructure:"metadata_batch_limit"`
	HoldersCreditCost  int64         `mapstructure:"holders_credit_cost"`
	MetadataCreditCost int64         `mapstructure:"metadata_credit_cost"`

	DexBaseURL           string        `mapstructure:"dex_base_url"`
	DexRateLimitDelay    time.Duration `mapstructure:"dex_rate_limit_delay"`
	OnChainBaseURL       string        `mapstructure:"onchain_base_url"`
	BondingCurveBaseURL  string        `mapstructure:"bonding_curve_base_url"`
	SecurityScoreBaseURL string        `mapstructure:"security_score_base_url"`
}

// EngineConfig consolidates the conviction-engine thresholds.
type EngineConfig struct {
	MinConvictionScore  int           `mapstructure:"min_conviction_score"`
	PostGradThreshold   int           `mapstructure:"post_grad_threshold"`
	MaxMcapPreGrad      float64       `mapstructure:"max_mcap_pre_grad"`
	MaxMcapPostGrad     float64       `mapstructure:"max_mcap_post_grad"`
	EarlyTriggerBonding float64       `mapstructure:"early_trigger_bonding_pct"`
	EarlyTriggerBuyers  int           `mapstructure:"early_trigger_min_unique_buyers"`
	EarlyTriggerGrace   int           `mapstructure:"early_trigger_grace_points"`
	MultiKOLWindow      time.Duration `mapstructure:"multi_kol_window"`
	MultiKOLMinWallets  int           `mapstructure:"multi_kol_min_wallets"`
	MultiKOLBonus       int           `mapstructure:"multi_kol_bonus"`
}

// TrackerConfig holds the per-token polling and retirement knobs.
type TrackerConfig struct {
	InitialInterval       time.Duration `mapstructure:"initial_interval"`
	InitialDuration       time.Duration `mapstructure:"initial_duration"`
	NormalInterval        time.Duration `mapstructure:"normal_interval"`
	SlowInterval          time.Duration `mapstructure:"slow_interval"`
	StuckThreshold        int           `mapstructure:"stuck_threshold"`
	MaxAge                time.Duration `mapstructure:"max_age"`
	SignaledMaxAge        time.Duration `mapstructure:"signaled_max_age"`
	LowScoreFloor         int           `mapstructure:"low_score_floor"`
	LowScoreGrace         time.Duration `mapstructure:"low_score_grace"`
	EarlyKillMinNewBuyers int           `mapstructure:"early_kill_min_new_buyers"`
	EarlyKillWindow       time.Duration `mapstructure:"early_kill_window"`
	EarlyKillBondingPct   float64       `mapstructure:"early_kill_bonding_pct"`
	SourceFailureLimit    int           `mapstructure:"source_failure_limit"`
}

// MonitorConfig holds the post-call monitor's parameters.
type MonitorConfig struct {
	Window             time.Duration `mapstructure:"window"`
	Interval           time.Duration `mapstructure:"interval"`
	ExitAlertThreshold float64       `mapstructure:"exit_alert_threshold"`
	FetchTimeout       time.Duration `mapstructure:"fetch_timeout"`
}

// FeatureFlags are the capability-selection switches.
type FeatureFlags struct {
	EnableNarratives         bool `mapstructure:"enable_narratives"`
	EnableTelegramCalls      bool `mapstructure:"enable_telegram_calls"`
	EnableMLPredictions      bool `mapstructure:"enable_ml_predictions"`
	EnableRealtimeNarratives bool `mapstructure:"enable_realtime_narratives"`
	EnableDevSellDetection   bool `mapstructure:"enable_dev_sell_detection"`
}

// Load reads configuration from config.yaml (optionally overridden by
// config.<APP_ENV>.yaml) and environment variables, validating the
// required fields before returning.
func Load() (*Config, error) {
	setDefaults()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("../config")
	viper.AddConfigPath("/etc/sentinel")

	viper.SetEnvPrefix("sentinel")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	if err := viper.MergeInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading environment config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate enforces the required fields: missing database credentials are
// a fatal ConfigurationError at startup. Missing Telegram credentials are
// not fatal — the publisher degrades to disabled and gates every Post()
// with a warning log instead, per its own initialization check.
func (c *Config) Validate() error {
	var missing []string
	if c.Database == nil || c.Database.Name == "" {
		missing = append(missing, "database.name")
	}
	if len(missing) > 0 {
		return fmt.Errorf("configuration error: missing required fields: %v", missing)
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("log_level", "info")

	viper.SetDefault("api.host", "0.0.0.0")
	viper.SetDefault("api.port", 8090)
	viper.SetDefault("api.read_timeout", 10)
	viper.SetDefault("api.write_timeout", 10)
	viper.SetDefault("api.max_header_bytes", 1048576)

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "sentinel")
	viper.SetDefault("database.password", "sentinel")
	viper.SetDefault("database.name", "sentinel")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.max_connections", 20)
	viper.SetDefault("database.min_connections", 2)
	viper.SetDefault("database.max_conn_lifetime", 3600)
	viper.SetDefault("database.max_conn_idle_time", 1800)
	viper.SetDefault("database.health_check_period", 60)

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.pool_size", 20)

	viper.SetDefault("telegram.enabled", true)
	viper.SetDefault("telegram.bot_token", "")
	viper.SetDefault("telegram.chat_id", 0)
	viper.SetDefault("telegram.retry_attempts", 3)
	viper.SetDefault("telegram.retry_backoff", "2s")
	viper.SetDefault("telegram.health_failures", 3)

	viper.SetDefault("fetcher.metadata_ttl", 60*time.Minute)
	viper.SetDefault("fetcher.holders_ttl", 120*time.Minute)
	viper.SetDefault("fetcher.bonding_curve_ttl", 5*time.Second)
	viper.SetDefault("fetcher.request_timeout", 10*time.Second)
	viper.SetDefault("fetcher.retry_attempts", 3)
	viper.SetDefault("fetcher.batch_window", 1*time.Second)
	viper.SetDefault("fetcher.metadata_batch_limit", 100)
	viper.SetDefault("fetcher.holders_credit_cost", 10)
	viper.SetDefault("fetcher.metadata_credit_cost", 1)
	viper.SetDefault("fetcher.dex_base_url", "https://api.dexscreener.com")
	viper.SetDefault("fetcher.dex_rate_limit_delay", 500*time.Millisecond)
	viper.SetDefault("fetcher.onchain_base_url", "https://api.helius.xyz")
	viper.SetDefault("fetcher.bonding_curve_base_url", "https://api.pump.fun")
	viper.SetDefault("fetcher.security_score_base_url", "https://api.rugcheck.xyz")

	viper.SetDefault("engine.min_conviction_score", 45)
	viper.SetDefault("engine.post_grad_threshold", 75)
	viper.SetDefault("engine.max_mcap_pre_grad", 25000.0)
	viper.SetDefault("engine.max_mcap_post_grad", 50000.0)
	viper.SetDefault("engine.early_trigger_bonding_pct", 30.0)
	viper.SetDefault("engine.early_trigger_min_unique_buyers", 200)
	viper.SetDefault("engine.early_trigger_grace_points", 5)
	viper.SetDefault("engine.multi_kol_window", 5*time.Minute)
	viper.SetDefault("engine.multi_kol_min_wallets", 3)
	viper.SetDefault("engine.multi_kol_bonus", 15)

	viper.SetDefault("tracker.initial_interval", 5*time.Second)
	viper.SetDefault("tracker.initial_duration", 120*time.Second)
	viper.SetDefault("tracker.normal_interval", 15*time.Second)
	viper.SetDefault("tracker.slow_interval", 30*time.Second)
	viper.SetDefault("tracker.stuck_threshold", 3)
	viper.SetDefault("tracker.max_age", 30*time.Minute)
	viper.SetDefault("tracker.signaled_max_age", 60*time.Minute)
	viper.SetDefault("tracker.low_score_floor", 30)
	viper.SetDefault("tracker.low_score_grace", 30*time.Minute)
	viper.SetDefault("tracker.early_kill_min_new_buyers", 5)
	viper.SetDefault("tracker.early_kill_window", 120*time.Second)
	viper.SetDefault("tracker.early_kill_bonding_pct", 50.0)
	viper.SetDefault("tracker.source_failure_limit", 3)

	viper.SetDefault("monitor.window", 300*time.Second)
	viper.SetDefault("monitor.interval", 30*time.Second)
	viper.SetDefault("monitor.exit_alert_threshold", -15.0)
	viper.SetDefault("monitor.fetch_timeout", 5*time.Second)

	viper.SetDefault("features.enable_narratives", true)
	viper.SetDefault("features.enable_telegram_calls", true)
	viper.SetDefault("features.enable_ml_predictions", false)
	viper.SetDefault("features.enable_realtime_narratives", false)
	viper.SetDefault("features.enable_dev_sell_detection", false)
}
