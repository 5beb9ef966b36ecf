package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "arbigrid/backend/libs/config"
	"arbigrid/backend/services/market-service/internal/address"
)

const (
	defaultPort            = "8085"
	defaultPlatformAccount = "platform"
	defaultStatsCron       = "@every 1m"
)

// HTTPConfig holds listener settings.
type HTTPConfig struct {
	Port string `yaml:"port" env:"MARKET_HTTP_PORT" default:"8085"`
}

// DatabaseConfig enables Postgres persistence when DSN is set.
type DatabaseConfig struct {
	DSN          string        `yaml:"dsn" env:"MARKET_POSTGRES_DSN"`
	MaxOpenConns int           `yaml:"maxOpenConns" env:"MARKET_POSTGRES_MAX_OPEN_CONNS"`
	ConnLifetime time.Duration `yaml:"connLifetime" env:"MARKET_POSTGRES_CONN_LIFETIME"`
}

// RedisConfig enables the stats cache and event fan-out when Addr is set.
type RedisConfig struct {
	Addr     string        `yaml:"addr" env:"MARKET_REDIS_ADDR"`
	Password string        `yaml:"password" env:"MARKET_REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"MARKET_REDIS_DB"`
	StatsTTL time.Duration `yaml:"statsTTL" env:"MARKET_REDIS_STATS_TTL" default:"2m"`
	Channel  string        `yaml:"channel" env:"MARKET_REDIS_CHANNEL" default:"market-events"`
}

// JWTConfig configures bearer token validation.
type JWTConfig struct {
	Secret   string        `yaml:"secret" env:"MARKET_JWT_SECRET"`
	TokenTTL time.Duration `yaml:"tokenTTL" env:"MARKET_JWT_TOKEN_TTL" default:"24h"`
}

// MarketConfig holds trading settings.
type MarketConfig struct {
	// PlatformAccount is credited with trading fees.
	PlatformAccount string `yaml:"platformAccount" env:"MARKET_PLATFORM_ACCOUNT" default:"platform"`
	// SettlementAccount is the only caller allowed to move transaction status.
	SettlementAccount string `yaml:"settlementAccount" env:"MARKET_SETTLEMENT_ACCOUNT"`
	StatsCron         string `yaml:"statsCron" env:"MARKET_STATS_CRON" default:"@every 1m"`
}

// Config defines market service configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	JWT      JWTConfig      `yaml:"jwt"`
	Market   MarketConfig   `yaml:"market"`
}

// Load applies defaults, then CONFIG_FILE, then MARKET_* environment overrides.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings and normalises wallet addresses.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return errors.New("jwt secret required")
	}
	if c.Redis.Addr != "" && c.Redis.StatsTTL <= 0 {
		return errors.New("redis stats ttl must be positive")
	}

	platform := strings.TrimSpace(c.Market.PlatformAccount)
	if platform == "" {
		platform = defaultPlatformAccount
	}
	if strings.HasPrefix(platform, "0x") || strings.HasPrefix(platform, "0X") {
		normalized, err := address.Normalize(platform)
		if err != nil {
			return fmt.Errorf("platform account: %w", err)
		}
		platform = normalized
	}
	c.Market.PlatformAccount = platform

	if s := strings.TrimSpace(c.Market.SettlementAccount); s != "" {
		normalized, err := address.Normalize(s)
		if err != nil {
			return fmt.Errorf("settlement account: %w", err)
		}
		c.Market.SettlementAccount = normalized
	}
	if strings.TrimSpace(c.Market.StatsCron) == "" {
		c.Market.StatsCron = defaultStatsCron
	}
	return nil
}

// HTTPAddress returns :port style string. Values already holding a host
// (host:port) are returned unchanged.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = defaultPort
	}
	if strings.Contains(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}
