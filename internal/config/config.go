package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr string `yaml:"addr"` // Listen address, e.g. ":8080".
}

// DatabaseConfig holds persistence settings.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"` // PostgreSQL or SQLite DSN.
}

// JWTConfig holds token signing settings.
type JWTConfig struct {
	Secret      string `yaml:"secret"`
	ExpiryHours int    `yaml:"expiry-hours"`
}

// Expiry returns the configured token lifetime.
func (c JWTConfig) Expiry() time.Duration {
	hours := c.ExpiryHours
	if hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}

// AuctionConfig holds auction engine settings.
type AuctionConfig struct {
	FeePercent          int64 `yaml:"fee-percent"`           // System cut at settlement.
	PollIntervalSeconds int   `yaml:"poll-interval-seconds"` // Expiry sweep interval.
}

// PollInterval returns the expiry sweep interval.
func (c AuctionConfig) PollInterval() time.Duration {
	seconds := c.PollIntervalSeconds
	if seconds <= 0 {
		seconds = 60
	}
	return time.Duration(seconds) * time.Second
}

// RedisConfig holds the optional cross-instance event relay settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"` // Empty disables the relay.
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// UploadsConfig holds file upload settings.
type UploadsConfig struct {
	Dir string `yaml:"dir"` // Directory for card images.
}

// PaymentsConfig holds payment processor settings.
type PaymentsConfig struct {
	WebhookSecret string `yaml:"webhook-secret"` // Shared secret for webhook calls.
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // logrus level name.
	File  string `yaml:"file"`  // Empty logs to stderr only.
}

// SeedConfig holds catalog seeding settings.
type SeedConfig struct {
	CharactersURL string `yaml:"characters-url"` // Paginated character API endpoint.
}

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	JWT      JWTConfig      `yaml:"jwt"`
	Auction  AuctionConfig  `yaml:"auction"`
	Redis    RedisConfig    `yaml:"redis"`
	Uploads  UploadsConfig  `yaml:"uploads"`
	Payments PaymentsConfig `yaml:"payments"`
	Log      LogConfig      `yaml:"log"`
	Seed     SeedConfig     `yaml:"seed"`
}

// Load reads and validates a YAML config file, applying defaults.
func Load(path string) (Config, error) {
	var cfg Config
	data, errRead := os.ReadFile(path)
	if errRead != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, errRead)
	}
	if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, errUnmarshal)
	}

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		cfg.Server.Addr = ":8080"
	}
	if strings.TrimSpace(cfg.Database.DSN) == "" {
		cfg.Database.DSN = "cardverse.db"
	}
	if strings.TrimSpace(cfg.JWT.Secret) == "" {
		return cfg, fmt.Errorf("config: jwt.secret is required")
	}
	if cfg.Auction.FeePercent < 0 || cfg.Auction.FeePercent > 100 {
		return cfg, fmt.Errorf("config: auction.fee-percent must be within [0, 100]")
	}
	if cfg.Auction.FeePercent == 0 {
		cfg.Auction.FeePercent = 5
	}
	if strings.TrimSpace(cfg.Uploads.Dir) == "" {
		cfg.Uploads.Dir = "uploads"
	}
	return cfg, nil
}
