package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/finledger/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// receivablesKeyPrefix namespaces all cached receivables data in Redis.
const receivablesKeyPrefix = "receivables:party:"

// RedisReceivablesCache caches per-party receivables snapshots in Redis and
// drops them after a financial write. It is suitable for distributed
// deployments where multiple instances need to share cache state.
type RedisReceivablesCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisReceivablesCache creates a cache backed by a new Redis connection
func NewRedisReceivablesCache(cfg *config.RedisConfig, ttl time.Duration) (*RedisReceivablesCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisReceivablesCache{client: client, ttl: ttl}, nil
}

// NewRedisReceivablesCacheWithClient creates a cache with an existing Redis client.
// This is useful for testing or when sharing a client across components.
func NewRedisReceivablesCacheWithClient(client *redis.Client, ttl time.Duration) *RedisReceivablesCache {
	return &RedisReceivablesCache{client: client, ttl: ttl}
}

// Get returns the cached payload for a party, or false when absent
func (c *RedisReceivablesCache) Get(ctx context.Context, partyID uuid.UUID) ([]byte, bool, error) {
	payload, err := c.client.Get(ctx, c.key(partyID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read receivables cache: %w", err)
	}
	return payload, true, nil
}

// Set stores the payload for a party with the configured TTL
func (c *RedisReceivablesCache) Set(ctx context.Context, partyID uuid.UUID, payload []byte) error {
	if err := c.client.Set(ctx, c.key(partyID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write receivables cache: %w", err)
	}
	return nil
}

// InvalidateParty drops the cached snapshot for one party
func (c *RedisReceivablesCache) InvalidateParty(ctx context.Context, partyID uuid.UUID) error {
	if err := c.client.Del(ctx, c.key(partyID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate receivables cache: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisReceivablesCache) Close() error {
	return c.client.Close()
}

func (c *RedisReceivablesCache) key(partyID uuid.UUID) string {
	return receivablesKeyPrefix + partyID.String()
}

// NoopReceivablesCache satisfies the invalidator boundary when caching is
// disabled, for single-instance deployments and tests.
type NoopReceivablesCache struct{}

// NewNoopReceivablesCache creates a no-op cache
func NewNoopReceivablesCache() *NoopReceivablesCache {
	return &NoopReceivablesCache{}
}

// InvalidateParty does nothing
func (NoopReceivablesCache) InvalidateParty(ctx context.Context, partyID uuid.UUID) error {
	return nil
}
