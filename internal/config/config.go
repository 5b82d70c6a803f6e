package config

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/monshare/monshare-backend/internal/auth"
	"github.com/monshare/monshare-backend/internal/chain"
	"github.com/monshare/monshare-backend/internal/events"
	"github.com/monshare/monshare-backend/internal/service"
)

// Config represents the complete configuration for the marketplace service
type Config struct {
	Server      ServerConfig   `yaml:"server"`
	Database    DatabaseConfig `yaml:"database"`
	Chain       chain.Config   `yaml:"chain"`
	Auth        auth.Config    `yaml:"auth"`
	NATS        events.Config  `yaml:"nats"`
	Marketplace service.Config `yaml:"marketplace"`
	LogLevel    string         `yaml:"log_level"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	URL            string        `yaml:"url"`
	MaxConnections int           `yaml:"max_connections"`
	MinConnections int           `yaml:"min_connections"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxLifetime    time.Duration `yaml:"max_lifetime"`
}

// Validate validates the configuration. The admin address is deliberately
// not required here: bookings report it per-request so the rest of the
// service stays usable without it.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.URL == "" {
		return fmt.Errorf("database URL is required")
	}

	if c.Chain.RPCURL == "" {
		return fmt.Errorf("chain RPC URL is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if c.Auth.AppSecret == "" {
		return fmt.Errorf("attestation app secret is required")
	}

	if c.Marketplace.RentFee.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("rent fee must be positive")
	}
	if c.Marketplace.DefaultPriceMON.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("default listing price must be positive")
	}
	if c.Marketplace.DefaultDurationDays <= 0 {
		return fmt.Errorf("default rental duration must be positive")
	}
	if c.Marketplace.DefaultMaxShares <= 0 {
		return fmt.Errorf("default max shares must be positive")
	}

	if c.NATS.Enabled && c.NATS.Address == "" {
		return fmt.Errorf("NATS address is required when events are enabled")
	}

	return nil
}

// GetDatabaseConfig returns database configuration for pgxpool
func (c *Config) GetDatabaseConfig() (*pgxpool.Config, error) {
	config, err := pgxpool.ParseConfig(c.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = int32(c.Database.MaxConnections)
	config.MinConns = int32(c.Database.MinConnections)
	config.MaxConnLifetime = c.Database.MaxLifetime
	config.MaxConnIdleTime = c.Database.IdleTimeout

	return config, nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.LogLevel == "debug"
}
