package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/solana-scanner/internal/config"
)

// Redis is a Store backed by a shared Redis instance, so multiple scanner
// processes can share fetched data. Expiry is delegated to Redis TTLs.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedis creates a Redis-backed cache. The prefix keeps the logical caches
// from colliding inside one keyspace.
func NewRedis(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

func (r *Redis) key(key string) string {
	return r.prefix + ":" + key
}

// Get implements Store
func (r *Redis) Get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get from cache: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached value: %w", err)
	}
	return true, nil
}

// Set implements Store
func (r *Redis) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return r.client.Set(ctx, r.key(key), data, r.ttl).Err()
}

// TTL implements Store
func (r *Redis) TTL() time.Duration {
	return r.ttl
}

// NewRedisCaches builds all four caches on top of one Redis client
func NewRedisCaches(client *redis.Client, ttls TTLConfig) *Caches {
	return &Caches{
		Metadata:  NewRedis(client, "metadata", ttls.Metadata),
		Price:     NewRedis(client, "price", ttls.Price),
		TokenList: NewRedis(client, "tokenlist", ttls.TokenList),
		Security:  NewRedis(client, "security", ttls.Security),
	}
}
