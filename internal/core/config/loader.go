package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/tdvu/marketsnap/internal/core/asyncjob"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set defaults; intervals must stay positive or the tickers they feed
	// would panic, so zero and negative values both fall back.
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Exchange.PageSize <= 0 {
		cfg.Exchange.PageSize = 200
	}
	if cfg.Exchange.Timeout <= 0 {
		cfg.Exchange.Timeout = 30 * time.Second
	}
	if cfg.Market.Currency == "" {
		cfg.Market.Currency = "ETH"
	}
	if cfg.Market.MaxRetries <= 0 {
		cfg.Market.MaxRetries = asyncjob.DefaultRetryOptions.MaxRetries
	}
	if cfg.Market.SyncInterval <= 0 {
		cfg.Market.SyncInterval = 15 * time.Minute
	}
	if cfg.Market.SnapshotInterval <= 0 {
		cfg.Market.SnapshotInterval = time.Hour
	}
	if cfg.Market.RetentionPeriod < 0 {
		cfg.Market.RetentionPeriod = 0
	}
	if cfg.Redis.PriceTTL <= 0 {
		cfg.Redis.PriceTTL = 10 * time.Minute
	}

	if cfg.Market.Collection == "" {
		return nil, fmt.Errorf("market.collection is required")
	}
	if cfg.Market.ProtoTo < cfg.Market.ProtoFrom {
		return nil, fmt.Errorf("market.proto_to must not be below market.proto_from")
	}

	return &cfg, nil
}
