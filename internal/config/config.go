package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the location of the optional YAML config file.
const ConfigPathEnvVar = "CONFIG_PATH"

const defaultSessionSecret = "secret_key_change_me"

var defaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
}

type Config struct {
	DatabaseURL       string        `koanf:"database_url"`
	SessionSecret     string        `koanf:"session_secret"`
	Port              int           `koanf:"port"`
	LogMode           string        `koanf:"log_mode"`
	IngredientsPath   string        `koanf:"ingredients_path"`
	CatalogCacheSize  int           `koanf:"catalog_cache_size"`
	CatalogCacheTTL   time.Duration `koanf:"catalog_cache_ttl"`
	CORSOrigins       []string      `koanf:"cors_origins"` // empty disables CORS
	AuthRatePerMinute int           `koanf:"auth_rate_per_minute"`
	AuthRateBurst     int           `koanf:"auth_rate_burst"`
	TrustedProxies    []string      `koanf:"trusted_proxies"` // empty trusts no X-Forwarded-For
}

func defaultConfig() Config {
	return Config{
		// Fallback for local dev if not set
		DatabaseURL:       "host=localhost user=postgres password=postgres dbname=foodgram port=5432 sslmode=disable",
		SessionSecret:     defaultSessionSecret,
		Port:              8080,
		LogMode:           "dev",
		IngredientsPath:   "data/ingredients.json",
		CatalogCacheSize:  500,
		CatalogCacheTTL:   5 * time.Minute,
		AuthRatePerMinute: 30,
		AuthRateBurst:     10,
	}
}

// Load layers defaults, an optional YAML file and the environment, in that
// order of increasing priority. A .env file, when present, is loaded into the
// environment first.
func Load() (*Config, error) {
	// Missing .env is fine, env vars may come from the system
	_ = godotenv.Load()

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// DATABASE_URL -> database_url
	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		return p
	}
	for _, p := range defaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func (c *Config) IsProduction() bool {
	switch strings.ToLower(c.LogMode) {
	case "prod", "production":
		return true
	}
	return false
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return errors.New("database_url must not be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	if c.IsProduction() && (c.SessionSecret == "" || c.SessionSecret == defaultSessionSecret) {
		return errors.New("session_secret must be set in production")
	}
	if c.CatalogCacheSize <= 0 {
		return fmt.Errorf("catalog_cache_size must be positive, got %d", c.CatalogCacheSize)
	}
	if c.AuthRatePerMinute > 0 && c.AuthRateBurst <= 0 {
		return fmt.Errorf("auth_rate_burst must be positive when auth_rate_per_minute is set, got %d", c.AuthRateBurst)
	}
	return nil
}
