package redis

import (
	"context"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Client wraps a go-redis universal client. Cluster mode is picked
// automatically when more than one address is configured.
type Client struct {
	rdb goredis.UniversalClient
}

// NewClient connects and pings to fail fast on bad config.
func NewClient(addrs string) (*Client, error) {
	c := &Client{
		rdb: goredis.NewUniversalClient(&goredis.UniversalOptions{
			Addrs: strings.Split(addrs, ","),
		}),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return c, nil
}

// Raw exposes the underlying client for adapters that need the full API.
func (c *Client) Raw() goredis.UniversalClient {
	return c.rdb
}

// Dedup returns true exactly once per key within ttl. Used for idempotent
// handling of retried payment-gateway callbacks.
func (c *Client) Dedup(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, key, "1", ttl).Result()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
