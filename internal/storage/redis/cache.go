package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const snapshotTTL = 10 * time.Minute

type Client struct {
	*redis.Client
}

func NewClient(redisURL string) *Client {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		opt = &redis.Options{
			Addr: redisURL,
		}
	}

	client := redis.NewClient(opt)

	return &Client{client}
}

func (c *Client) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return c.Set(ctx, key, data, expiration).Err()
}

func (c *Client) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := c.Get(ctx, key).Result()
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(data), dest)
}

// CacheSnapshot keeps the tenant's latest monitoring snapshot hot so the
// dashboard read path skips the database entirely.
func (c *Client) CacheSnapshot(ctx context.Context, tenantID string, snapshot interface{}) error {
	key := fmt.Sprintf("snapshot:%s", tenantID)
	return c.SetJSON(ctx, key, snapshot, snapshotTTL)
}

func (c *Client) GetCachedSnapshot(ctx context.Context, tenantID string, dest interface{}) error {
	key := fmt.Sprintf("snapshot:%s", tenantID)
	return c.GetJSON(ctx, key, dest)
}
