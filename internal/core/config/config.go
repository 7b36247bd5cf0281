package config

import (
	"time"

	"github.com/tdvu/marketsnap/internal/core/domain"
	"github.com/tdvu/marketsnap/internal/infra/exchange"
	redisclient "github.com/tdvu/marketsnap/internal/infra/redis"
	"github.com/tdvu/marketsnap/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Exchange exchange.Config    `yaml:"exchange"`
	Market   MarketConfig       `yaml:"market"`
	Redis    redisclient.Config `yaml:"redis"`
	Logging  LoggingConfig      `yaml:"logging"`
	Database postgres.Config    `yaml:"database"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// MarketConfig holds settings for the tracked collection. The priced proto
// range is half-open: [proto_from, proto_to).
type MarketConfig struct {
	Collection       string         `yaml:"collection"`
	Currency         string         `yaml:"currency"`
	ProtoFrom        domain.ProtoID `yaml:"proto_from"`
	ProtoTo          domain.ProtoID `yaml:"proto_to"`
	MaxRetries       int            `yaml:"max_retries"`
	SyncInterval     time.Duration  `yaml:"sync_interval"`
	SnapshotInterval time.Duration  `yaml:"snapshot_interval"`
	RetentionPeriod  time.Duration  `yaml:"retention_period"` // 0 = infinite
	Requeue          bool           `yaml:"requeue"`          // Enable requeue worker
}
