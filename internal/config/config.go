package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	CatalogAPI CatalogAPIConfig `mapstructure:"catalog_api"`
	Views      ViewsConfig      `mapstructure:"views"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Log        LogConfig        `mapstructure:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            int    `mapstructure:"port"`
	Host            string `mapstructure:"host"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// CatalogAPIConfig holds the remote catalog API configuration
type CatalogAPIConfig struct {
	BaseURL              string   `mapstructure:"base_url"`
	Timeout              int      `mapstructure:"timeout"`
	MaxRetries           int      `mapstructure:"max_retries"`
	MaxRequestsPerSecond int      `mapstructure:"max_requests_per_second"`
	DetailScanPages      int      `mapstructure:"detail_scan_pages"`
	Proxies              []string `mapstructure:"proxies"`
}

func (c CatalogAPIConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// ViewsConfig controls where per-visit view state lives and how it renders
type ViewsConfig struct {
	Store         string `mapstructure:"store"` // memory or redis
	TTL           int    `mapstructure:"ttl"`
	SweepInterval int    `mapstructure:"sweep_interval"`
	PageWindow    int    `mapstructure:"page_window"`
}

func (v ViewsConfig) TTLDuration() time.Duration {
	return time.Duration(v.TTL) * time.Second
}

func (v ViewsConfig) SweepDuration() time.Duration {
	return time.Duration(v.SweepInterval) * time.Second
}

// RedisConfig holds Redis connection details
type RedisConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	Database  int    `mapstructure:"database"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

// Load loads configuration from an optional YAML file with .env and
// environment variable overrides. Extra search paths may be given; the
// current directory is always searched.
func Load(paths ...string) (*Config, error) {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.AddConfigPath(".")

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Names used by the front-end build of the viewer
	if err := v.BindEnv("catalog_api.base_url", "CATALOG_API_BASE_URL", "API_BASE_URL", "VITE_API_BASE_URL"); err != nil {
		return nil, fmt.Errorf("error binding env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	if c.CatalogAPI.BaseURL == "" {
		return fmt.Errorf("catalog_api.base_url is required")
	}
	u, err := url.Parse(c.CatalogAPI.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("catalog_api.base_url must be an absolute URL, got %q", c.CatalogAPI.BaseURL)
	}
	c.CatalogAPI.BaseURL = strings.TrimRight(c.CatalogAPI.BaseURL, "/")

	switch c.Views.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("views.store must be memory or redis, got %q", c.Views.Store)
	}

	if c.CatalogAPI.DetailScanPages < 1 {
		c.CatalogAPI.DetailScanPages = 1
	}
	if c.Views.PageWindow < 0 {
		c.Views.PageWindow = 0
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.shutdown_timeout", 10)

	v.SetDefault("catalog_api.base_url", "")
	v.SetDefault("catalog_api.timeout", 30)
	v.SetDefault("catalog_api.max_retries", 0)
	v.SetDefault("catalog_api.max_requests_per_second", 0)
	v.SetDefault("catalog_api.detail_scan_pages", 1)
	v.SetDefault("catalog_api.proxies", []string{})

	v.SetDefault("views.store", "memory")
	v.SetDefault("views.ttl", 1800)
	v.SetDefault("views.sweep_interval", 60)
	v.SetDefault("views.page_window", 2)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.key_prefix", "storefront:view:")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}
