package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ftl/radarview/frame"
)

const (
	DefaultKey = "radarview:latest"
	DefaultTTL = 10 * time.Second
)

// RedisClient defines the Redis operations used by the publisher.
type RedisClient interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Close() error
}

// RedisPublisher keeps the latest snapshot document under a single key. The key expires
// when no snapshot was published within the TTL.
type RedisPublisher struct {
	client RedisClient
	key    string
	ttl    time.Duration
}

// ConnectRedis connects to the Redis server at the given address.
func ConnectRedis(ctx context.Context, addr string, key string, ttl time.Duration) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisPublisher(client, key, ttl), nil
}

// NewRedisPublisher creates a publisher that uses the given client. An empty key selects
// DefaultKey, a non-positive ttl selects DefaultTTL.
func NewRedisPublisher(client RedisClient, key string, ttl time.Duration) *RedisPublisher {
	if key == "" {
		key = DefaultKey
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisPublisher{
		client: client,
		key:    key,
		ttl:    ttl,
	}
}

func (p *RedisPublisher) Key() string {
	return p.key
}

func (p *RedisPublisher) Publish(ctx context.Context, snapshot frame.Snapshot) error {
	data, err := json.Marshal(NewDocument(snapshot))
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	err = p.client.Set(ctx, p.key, data, p.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}
	return nil
}

// Latest returns the most recently published document, or nil if there is none.
func (p *RedisPublisher) Latest(ctx context.Context) (*Document, error) {
	data, err := p.client.Get(ctx, p.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}

	var result Document
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal latest snapshot: %w", err)
	}
	return &result, nil
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
