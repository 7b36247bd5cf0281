package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tdvu/marketsnap/internal/core/domain"
)

// Client wraps Redis operations for the price cache and requeue pipeline.
type Client struct {
	rdb *redis.Client
}

// Config holds Redis connection configuration.
type Config struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	PriceTTL time.Duration `yaml:"price_ttl"`
}

// NewClient creates a new Redis client.
func NewClient(cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Health checks if Redis is reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func priceCacheKey(collection string, proto domain.ProtoID) string {
	return fmt.Sprintf("price:%s:%s", collection, proto)
}

// CachePrice stores a proto price with a TTL.
func (c *Client) CachePrice(
	ctx context.Context,
	price *domain.ProtoPrice,
	ttl time.Duration,
) error {
	data, err := json.Marshal(price)
	if err != nil {
		return fmt.Errorf("failed to marshal price: %w", err)
	}

	key := priceCacheKey(price.Collection, price.Proto)
	if err := c.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache price: %w", err)
	}
	return nil
}

// GetCachedPrice retrieves a cached proto price. Returns (nil, nil) on a
// cache miss.
func (c *Client) GetCachedPrice(
	ctx context.Context,
	collection string,
	proto domain.ProtoID,
) (*domain.ProtoPrice, error) {
	data, err := c.rdb.Get(ctx, priceCacheKey(collection, proto)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached price: %w", err)
	}

	var price domain.ProtoPrice
	if err := json.Unmarshal(data, &price); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached price: %w", err)
	}
	return &price, nil
}
