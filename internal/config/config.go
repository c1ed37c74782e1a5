package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Provider ProviderConfig `mapstructure:"provider"`
	Fallback FallbackConfig `mapstructure:"fallback"`
}

type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	ClientTimeout  time.Duration `mapstructure:"client_timeout"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`       // "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // optional rotating file sink
	Environment string `mapstructure:"environment"` // "dev" or "prod"
}

type CacheConfig struct {
	RefreshWindow  time.Duration `mapstructure:"refresh_window"`  // below this age an entry is served as-is
	StaleTolerance time.Duration `mapstructure:"stale_tolerance"` // beyond this age an entry is no longer an acceptable fallback
	WarmInterval   time.Duration `mapstructure:"warm_interval"`   // background list refresh cadence, 0 disables
}

type ProviderConfig struct {
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout"` // per upstream call
	CoinGecko      UpstreamConfig `mapstructure:"coingecko"`
	Binance        UpstreamConfig `mapstructure:"binance"`
	Coinbase       UpstreamConfig `mapstructure:"coinbase"`
	MetalPrice     UpstreamConfig `mapstructure:"metalprice"`
	MaxRPS         float64        `mapstructure:"max_rps"`   // per single-symbol upstream, 0 disables limiting
	Burst          int            `mapstructure:"burst"`
	ListCount      int            `mapstructure:"list_count"` // bulk snapshot size
}

type UpstreamConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

type FallbackConfig struct {
	// Static enables the last-resort static price table when live and stale
	// data are both unavailable.
	Static bool               `mapstructure:"static"`
	Prices map[string]float64 `mapstructure:"prices"`
}

// Load reads config.yaml (optional) and overrides with environment variables
// using dot-to-underscore notation (e.g. PROVIDER_METALPRICE_API_KEY).
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.request_timeout", 15*time.Second)
	v.SetDefault("server.client_timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.environment", "prod")

	v.SetDefault("cache.refresh_window", 10*time.Second)
	v.SetDefault("cache.stale_tolerance", 5*time.Minute)
	v.SetDefault("cache.warm_interval", time.Minute)

	v.SetDefault("provider.attempt_timeout", 6*time.Second)
	v.SetDefault("provider.coingecko.base_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("provider.binance.base_url", "https://api.binance.com")
	v.SetDefault("provider.coinbase.base_url", "https://api.coinbase.com")
	v.SetDefault("provider.metalprice.base_url", "https://api.metalpriceapi.com/v1")
	// Keys must have defaults for AutomaticEnv overrides to survive Unmarshal.
	v.SetDefault("provider.coingecko.api_key", "")
	v.SetDefault("provider.metalprice.api_key", "")
	v.SetDefault("provider.max_rps", 4.0)
	v.SetDefault("provider.burst", 2)
	v.SetDefault("provider.list_count", 100)

	v.SetDefault("fallback.static", false)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Missing file is fine: defaults + env cover everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
