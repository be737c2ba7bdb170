package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the Pi-hole InfluxDB monitor.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	IntervalSeconds int            `yaml:"interval_seconds"`
	Pihole          PiholeConfig   `yaml:"pihole"`
	InfluxDB        InfluxDBConfig `yaml:"influxdb"`
	Database        DatabaseConfig `yaml:"database"`
	Logging         LoggingConfig  `yaml:"logging"`
}

// PiholeConfig contains the monitored Pi-hole instances and query limits.
//
// Aliases, Addresses and Passwords are parallel comma-separated lists. The
// password list may be shorter than the others; instances without a password
// are polled in degraded mode (unauthenticated endpoints only).
type PiholeConfig struct {
	Aliases       string `yaml:"aliases"`
	Addresses     string `yaml:"addresses"`
	Passwords     string `yaml:"passwords"`
	NumTopItems   int    `yaml:"num_top_items"`
	NumTopClients int    `yaml:"num_top_clients"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	URL          string `yaml:"url"`
	Token        string `yaml:"token"`
	Org          string `yaml:"org"`
	Bucket       string `yaml:"bucket"`
	CreateBucket bool   `yaml:"create_bucket"`
	VerifySSL    bool   `yaml:"verify_ssl"`
}

// DatabaseConfig contains SQLite settings for the history watermark store.
// An empty path disables persistence; watermarks are then kept in memory only.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables use the names established by the original deployment
// surface: INTERVAL_SECONDS, PIHOLE_ALIAS, PIHOLE_ADDRESS, PIHOLE_PASSWORD,
// PIHOLE_NUM_TOP_ITEMS, PIHOLE_NUM_TOP_CLIENTS, INFLUXDB_ADDRESS, INFLUXDB_ORG,
// INFLUXDB_TOKEN, INFLUXDB_BUCKET, INFLUXDB_CREATE_BUCKET, INFLUXDB_VERIFY_SSL.
//
// Parameters:
//   - path: Path to the YAML configuration file; empty string skips the file
//     and builds the configuration from defaults and environment only
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		IntervalSeconds: 60,
		Pihole: PiholeConfig{
			Aliases:       "pihole",
			Addresses:     "http://pi.hole:80",
			NumTopItems:   10,
			NumTopClients: 10,
		},
		InfluxDB: InfluxDBConfig{
			URL:       "http://influxdb:8086",
			Org:       "my-org",
			Bucket:    "pihole",
			VerifySSL: true,
		},
		Database: DatabaseConfig{
			BusyTimeout: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.IntervalSeconds = n
		}
	}

	// Pi-hole instances
	if v := os.Getenv("PIHOLE_ALIAS"); v != "" {
		cfg.Pihole.Aliases = v
	}
	if v := os.Getenv("PIHOLE_ADDRESS"); v != "" {
		cfg.Pihole.Addresses = v
	}
	if v := os.Getenv("PIHOLE_PASSWORD"); v != "" {
		cfg.Pihole.Passwords = v
	}
	if v := os.Getenv("PIHOLE_NUM_TOP_ITEMS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pihole.NumTopItems = n
		}
	}
	if v := os.Getenv("PIHOLE_NUM_TOP_CLIENTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pihole.NumTopClients = n
		}
	}

	// InfluxDB
	if v := os.Getenv("INFLUXDB_ADDRESS"); v != "" {
		cfg.InfluxDB.URL = v
	}
	if v := os.Getenv("INFLUXDB_ORG"); v != "" {
		cfg.InfluxDB.Org = v
	}
	if v := os.Getenv("INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
	if v := os.Getenv("INFLUXDB_BUCKET"); v != "" {
		cfg.InfluxDB.Bucket = v
	}
	if v := os.Getenv("INFLUXDB_CREATE_BUCKET"); v != "" {
		cfg.InfluxDB.CreateBucket = parseBool(v)
	}
	if v := os.Getenv("INFLUXDB_VERIFY_SSL"); v != "" {
		cfg.InfluxDB.VerifySSL = parseBool(v)
	}

	// Watermark database
	if v := os.Getenv("WATERMARK_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Logging
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// parseBool interprets common truthy spellings used in container environments.
func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// Validate checks the configuration for errors.
//
// Parallel-list consistency (alias/address counts, duplicate aliases) is
// validated by the instance registry, which owns that contract.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.IntervalSeconds <= 0 {
		errs = append(errs, "interval_seconds must be positive")
	}

	if strings.TrimSpace(c.Pihole.Addresses) == "" {
		errs = append(errs, "pihole.addresses is required")
	}
	if c.Pihole.NumTopItems <= 0 {
		errs = append(errs, "pihole.num_top_items must be positive")
	}
	if c.Pihole.NumTopClients <= 0 {
		errs = append(errs, "pihole.num_top_clients must be positive")
	}

	if c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required")
	}
	if c.InfluxDB.Token == "" {
		errs = append(errs, "influxdb.token is required (set INFLUXDB_TOKEN environment variable)")
	}
	if c.InfluxDB.Org == "" {
		errs = append(errs, "influxdb.org is required")
	}
	if c.InfluxDB.Bucket == "" {
		errs = append(errs, "influxdb.bucket is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// Interval returns the polling interval as a Duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// RequestTimeout returns the per-request timeout for upstream API calls:
// half the polling interval, capped at 30 seconds. A hung Pi-hole can then
// never stall a cycle past its own interval.
func (c *Config) RequestTimeout() time.Duration {
	timeout := c.Interval() / 2
	if timeout > 30*time.Second {
		timeout = 30 * time.Second
	}
	return timeout
}
