// Package config loads storefront settings from a YAML file and STOREFRONT_*
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "STOREFRONT_"

// Config is the full storefront configuration.
type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	API      APIConfig      `yaml:"api"`
	Logging  LoggingConfig  `yaml:"logging"`
	HTTP     HTTPConfig     `yaml:"http"`
	Tree     TreeConfig     `yaml:"tree"`
	Cart     CartConfig     `yaml:"cart"`
	Checkout CheckoutConfig `yaml:"checkout"`
}

// StorageConfig selects the durable local store.
type StorageConfig struct {
	Driver      string   `yaml:"driver"` // memory, fs, sqlite, postgres, s3
	FSRoot      string   `yaml:"fs_root"`
	SQLitePath  string   `yaml:"sqlite_path"`
	PostgresDSN string   `yaml:"postgres_dsn"`
	S3          S3Config `yaml:"s3"`
}

// S3Config configures the s3 storage driver.
type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Prefix          string `yaml:"prefix"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	PathStyle       bool   `yaml:"path_style"`
}

// APIConfig points at the catalog backend.
type APIConfig struct {
	BaseURL   string `yaml:"base_url"`
	Timeout   string `yaml:"timeout"`
	CacheSize int    `yaml:"cache_size"`
	CacheTTL  string `yaml:"cache_ttl"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// HTTPConfig configures the local JSON API.
type HTTPConfig struct {
	Addr            string `yaml:"addr"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// TreeConfig configures the category tree presenter.
type TreeConfig struct {
	Policy   string `yaml:"policy"` // sticky, manual-wins
	Language string `yaml:"language"`
}

// CartConfig configures the cart store.
type CartConfig struct {
	StorageKey  string `yaml:"storage_key"`
	MaxQuantity int    `yaml:"max_quantity"`
}

// CheckoutConfig configures order summary and placement.
type CheckoutConfig struct {
	Shipping int64  `yaml:"shipping"`
	Delay    string `yaml:"delay"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Driver:     "sqlite",
			FSRoot:     "./storefront-data",
			SQLitePath: "./storefront.db",
		},
		API: APIConfig{
			BaseURL:   "http://localhost:3001",
			Timeout:   "10s",
			CacheSize: 256,
			CacheTTL:  "30s",
		},
		Logging:  LoggingConfig{Level: "info", Format: "console"},
		HTTP:     HTTPConfig{Addr: "127.0.0.1:8080", ShutdownTimeout: "5s"},
		Tree:     TreeConfig{Policy: "sticky", Language: "cs"},
		Cart:     CartConfig{StorageKey: "cart-storage"},
		Checkout: CheckoutConfig{Shipping: 4900, Delay: "2s"},
	}
}

// Load reads path over the defaults and then applies environment overrides.
// A missing file is not an error. An empty path skips the file entirely.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	str := map[string]*string{
		"STORAGE_DRIVER":       &c.Storage.Driver,
		"FS_ROOT":              &c.Storage.FSRoot,
		"SQLITE_PATH":          &c.Storage.SQLitePath,
		"POSTGRES_DSN":         &c.Storage.PostgresDSN,
		"S3_BUCKET":            &c.Storage.S3.Bucket,
		"S3_REGION":            &c.Storage.S3.Region,
		"S3_PREFIX":            &c.Storage.S3.Prefix,
		"S3_ENDPOINT":          &c.Storage.S3.Endpoint,
		"S3_ACCESS_KEY_ID":     &c.Storage.S3.AccessKeyID,
		"S3_SECRET_ACCESS_KEY": &c.Storage.S3.SecretAccessKey,
		"API_BASE_URL":         &c.API.BaseURL,
		"API_TIMEOUT":          &c.API.Timeout,
		"API_CACHE_TTL":        &c.API.CacheTTL,
		"LOG_LEVEL":            &c.Logging.Level,
		"LOG_FORMAT":           &c.Logging.Format,
		"HTTP_ADDR":            &c.HTTP.Addr,
		"TREE_POLICY":          &c.Tree.Policy,
		"TREE_LANGUAGE":        &c.Tree.Language,
		"CHECKOUT_DELAY":       &c.Checkout.Delay,
	}
	for name, dst := range str {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	if v := os.Getenv(EnvPrefix + "S3_PATH_STYLE"); v != "" {
		c.Storage.S3.PathStyle = strings.EqualFold(v, "true")
	}
	if err := envInt("API_CACHE_SIZE", &c.API.CacheSize); err != nil {
		return err
	}
	if err := envInt("CART_MAX_QUANTITY", &c.Cart.MaxQuantity); err != nil {
		return err
	}
	if v := os.Getenv(EnvPrefix + "CHECKOUT_SHIPPING"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sCHECKOUT_SHIPPING: %w", EnvPrefix, err)
		}
		c.Checkout.Shipping = n
	}
	return nil
}

func envInt(name string, dst *int) error {
	v := os.Getenv(EnvPrefix + name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
	}
	*dst = n
	return nil
}

// Validate checks enumerations and duration strings.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "", "memory", "fs", "sqlite", "postgres", "s3":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}
	switch c.Tree.Policy {
	case "", "sticky", "manual-wins":
	default:
		return fmt.Errorf("unknown tree policy %q", c.Tree.Policy)
	}
	if c.Checkout.Shipping < 0 {
		return fmt.Errorf("checkout shipping must not be negative")
	}
	for name, v := range map[string]string{
		"api.timeout":           c.API.Timeout,
		"api.cache_ttl":         c.API.CacheTTL,
		"http.shutdown_timeout": c.HTTP.ShutdownTimeout,
		"checkout.delay":        c.Checkout.Delay,
	} {
		if _, err := parseDuration(v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// APITimeout is the backend request timeout.
func (c *Config) APITimeout() time.Duration { return mustDuration(c.API.Timeout) }

// CacheTTL is how long backend responses stay cached.
func (c *Config) CacheTTL() time.Duration { return mustDuration(c.API.CacheTTL) }

// ShutdownTimeout bounds graceful HTTP shutdown.
func (c *Config) ShutdownTimeout() time.Duration { return mustDuration(c.HTTP.ShutdownTimeout) }

// CheckoutDelay is the simulated order placement latency.
func (c *Config) CheckoutDelay() time.Duration { return mustDuration(c.Checkout.Delay) }

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration %q must not be negative", s)
	}
	return d, nil
}

// mustDuration is only called on validated configs; invalid input reads as zero.
func mustDuration(s string) time.Duration {
	d, _ := parseDuration(s)
	return d
}
