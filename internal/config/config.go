package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ThomasGit2000/trading-bot/internal/alert"
	"github.com/ThomasGit2000/trading-bot/internal/collector"
	"github.com/ThomasGit2000/trading-bot/internal/collector/alpaca"
	"github.com/ThomasGit2000/trading-bot/internal/core"
	"github.com/ThomasGit2000/trading-bot/internal/notifier/telegram"
	"github.com/ThomasGit2000/trading-bot/internal/notifier/webhook"
	"github.com/ThomasGit2000/trading-bot/internal/snapshot"
	"github.com/ThomasGit2000/trading-bot/internal/storage/archive"
	"github.com/ThomasGit2000/trading-bot/internal/strategy"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides: TRADEBOT_SERVER_PORT=9090.
const EnvPrefix = "TRADEBOT"

type Config struct {
	Server   ServerConfig               `mapstructure:"server"`
	Data     DataConfig                 `mapstructure:"data"`
	Backtest BacktestConfig             `mapstructure:"backtest"`
	Presets  map[string]strategy.Config `mapstructure:"presets"`
	Storage  StorageConfig              `mapstructure:"storage"`
	Snapshot SnapshotConfig             `mapstructure:"snapshot"`
	Notify   NotifyConfig               `mapstructure:"notify"`
	Metrics  MetricsConfig              `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	APIKey      string `mapstructure:"api_key"`
	JobTTLHours int    `mapstructure:"job_ttl_hours"`
	MaxJobs     int    `mapstructure:"max_jobs"`
	// ReplayDelay paces bars when a run is replayed into the snapshot hub.
	ReplayDelay time.Duration `mapstructure:"replay_delay"`
}

// DataConfig selects where historical bars come from.
type DataConfig struct {
	Provider string        `mapstructure:"provider"` // "yahoo" or "alpaca"
	Period   string        `mapstructure:"period"`
	Timeout  time.Duration `mapstructure:"timeout"`
	// CacheDir enables the Parquet bar cache when set.
	CacheDir string        `mapstructure:"cache_dir"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	Yahoo    YahooConfig   `mapstructure:"yahoo"`
	Alpaca   alpaca.Config `mapstructure:"alpaca"`
}

type YahooConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// BacktestConfig holds run defaults for the CLI and the HTTP API.
type BacktestConfig struct {
	InitialCapital float64 `mapstructure:"initial_capital"`
	PositionSize   int     `mapstructure:"position_size"`
	Strategy       string  `mapstructure:"strategy"` // preset name
	EarningsFile   string  `mapstructure:"earnings_file"`
	// SampleEarnings falls back to the built-in calendar, which has lookahead.
	SampleEarnings bool     `mapstructure:"sample_earnings"`
	Symbols        []string `mapstructure:"symbols"`
	Workers        int      `mapstructure:"workers"`
}

type StorageConfig struct {
	Results ResultsConfig `mapstructure:"results"`
	Archive ArchiveConfig `mapstructure:"archive"`
}

// ResultsConfig points at the run summary database. Empty disables it.
type ResultsConfig struct {
	DSN string `mapstructure:"dsn"`
}

type ArchiveConfig struct {
	Type string           `mapstructure:"type"` // "", "localfs" or "s3"
	Path string           `mapstructure:"path"` // For localfs
	S3   archive.S3Config `mapstructure:"s3"`   // For S3
}

type SnapshotConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Enabled              bool `mapstructure:"enabled"`
	snapshot.RedisConfig `mapstructure:",squash"`
}

// NotifyConfig enables run reports. A notifier is active when its target is set.
// Rules attach alerts to reports; with OnlyOnAlert, reports without one are
// not sent.
type NotifyConfig struct {
	Webhook     webhook.Config  `mapstructure:"webhook"`
	Telegram    telegram.Config `mapstructure:"telegram"`
	Rules       []alert.Rule    `mapstructure:"rules"`
	Cooldown    time.Duration   `mapstructure:"cooldown"`
	OnlyOnAlert bool            `mapstructure:"only_on_alert"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file on top of Defaults
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("reading config: %w", err))
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unmarshaling config: %w", err))
	}

	// presets start from the default strategy so files only list what differs
	for name := range v.GetStringMap("presets") {
		preset := strategy.DefaultConfig()
		if sub := v.Sub("presets." + name); sub != nil {
			if err := sub.Unmarshal(&preset); err != nil {
				return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("preset %s: %w", name, err))
			}
		}
		cfg.Presets[name] = preset
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			JobTTLHours: 1,
			MaxJobs:     100,
			ReplayDelay: 50 * time.Millisecond,
		},
		Data: DataConfig{
			Provider: "yahoo",
			Period:   collector.DefaultPeriod,
			Timeout:  10 * time.Second,
			CacheTTL: 12 * time.Hour,
			Alpaca:   alpaca.Config{Feed: "iex"},
		},
		Backtest: BacktestConfig{
			InitialCapital: 10000,
			PositionSize:   15,
			Strategy:       "default",
			Workers:        4,
		},
		Presets: map[string]strategy.Config{},
		Snapshot: SnapshotConfig{
			Redis: RedisConfig{
				RedisConfig: snapshot.RedisConfig{
					Addr:    "localhost:6379",
					Channel: snapshot.DefaultChannel,
				},
			},
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.MaxJobs < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("max_jobs cannot be negative, got %d", c.Server.MaxJobs))
	}

	// Data validation
	switch c.Data.Provider {
	case "yahoo":
	case "alpaca":
		if c.Data.Alpaca.APIKey == "" || c.Data.Alpaca.APISecret == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("alpaca api_key and api_secret required when provider is alpaca"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("data provider must be yahoo or alpaca, got %q", c.Data.Provider))
	}
	if err := collector.ValidatePeriod(c.Data.Period); err != nil {
		return err
	}

	// Backtest validation
	if c.Backtest.InitialCapital <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("initial_capital must be positive, got %f", c.Backtest.InitialCapital))
	}
	if c.Backtest.PositionSize <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("position_size must be positive, got %d", c.Backtest.PositionSize))
	}
	if c.Backtest.Workers < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("workers must be at least 1, got %d", c.Backtest.Workers))
	}
	for name, preset := range c.Presets {
		if err := preset.Validate(); err != nil {
			return fmt.Errorf("preset %s: %w", name, err)
		}
	}

	// Storage validation
	switch c.Storage.Archive.Type {
	case "":
	case "localfs":
		if c.Storage.Archive.Path == "" {
			return core.WrapError(core.ErrConfigMissing, fmt.Errorf("archive path required for localfs"))
		}
	case "s3":
		if c.Storage.Archive.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing, fmt.Errorf("archive s3 bucket required"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("archive type must be localfs or s3, got %q", c.Storage.Archive.Type))
	}

	if c.Snapshot.Redis.Enabled && c.Snapshot.Redis.Addr == "" {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("redis addr required when snapshot redis is enabled"))
	}

	if tg := c.Notify.Telegram; (tg.BotToken == "") != (tg.ChatID == "") {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("telegram needs both bot_token and chat_id"))
	}
	for i := range c.Notify.Rules {
		if err := c.Notify.Rules[i].Validate(); err != nil {
			return core.WrapError(core.ErrConfigInvalid, err)
		}
	}

	return nil
}
