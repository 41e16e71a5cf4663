package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration. Values come from environment
// variables (YETRIA_ prefix) with an optional config.yaml override, env
// taking precedence.
type Config struct {
	HTTPAddr     string        `mapstructure:"http_addr"`
	DataDir      string        `mapstructure:"data_dir"`
	ArtifactsDir string        `mapstructure:"artifacts_dir"`
	JWTSecret    string        `mapstructure:"jwt_secret"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`

	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`

	AllowedOrigins []string `mapstructure:"allowed_origins"`
	LogLevel       string   `mapstructure:"log_level"`
}

// Load reads configuration with defaults suitable for local development.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("http_addr", ":8080")
	v.SetDefault("data_dir", "./data")
	v.SetDefault("artifacts_dir", "./artifacts")
	v.SetDefault("jwt_secret", "change-me-in-production")
	v.SetDefault("token_ttl", 24*time.Hour)
	v.SetDefault("requests_per_minute", 120)
	v.SetDefault("cache_ttl", 15*time.Minute)
	v.SetDefault("request_timeout", 30*time.Second)
	v.SetDefault("allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})
	v.SetDefault("log_level", "info")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	v.SetEnvPrefix("YETRIA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPAddr == "" {
		return fmt.Errorf("http_addr must not be empty")
	}
	if c.ArtifactsDir == "" {
		return fmt.Errorf("artifacts_dir must not be empty")
	}
	if c.RequestsPerMinute <= 0 {
		return fmt.Errorf("requests_per_minute must be positive, got %d", c.RequestsPerMinute)
	}
	return nil
}
