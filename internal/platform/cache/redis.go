package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

// Redis is a Cache backed by a shared Redis instance. It serves the
// near-static reference tier (catalog metadata, popular feeds) where a
// long TTL and cross-replica sharing pay off. Values are stored as JSON
// and decoded into the caller's typed destination on Get.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to Redis and wires optional NATS key-level invalidation.
func NewRedis(url string, ttl time.Duration, nc *nats.Conn, subj string) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	c := &Redis{client: redis.NewClient(opt), ttl: ttl}
	if nc != nil && subj != "" {
		_, _ = nc.Subscribe(subj, func(m *nats.Msg) {
			key := string(m.Data)
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if key == "" || strings.EqualFold(key, "ALL") {
				_ = c.client.FlushDB(ctx).Err()
				return
			}
			_ = c.client.Del(ctx, key).Err()
		})
	}
	return c, nil
}

func (c *Redis) Get(key string, dest any) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	b, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return decodeCached(b, dest)
}

// decodeCached unmarshals a stored JSON value into the caller's destination.
// A body that no longer matches the destination shape counts as a miss.
func decodeCached(b []byte, dest any) bool {
	return json.Unmarshal(b, dest) == nil
}

func (c *Redis) Set(key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = c.client.Set(ctx, key, b, c.ttl).Err()
}

// Ping verifies connectivity; used by the readiness probe.
func (c *Redis) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
