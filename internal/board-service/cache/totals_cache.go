package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache struct{ R *redis.Client }

func New(r *redis.Client) *Cache { return &Cache{R: r} }

// mesma chave escrita pelo totals-projection-worker
func keyTotals(eventID string) string { return "pool:totals:" + eventID }

func (c *Cache) GetTotals(ctx context.Context, eventID string, dst any) (bool, error) {
	b, err := c.R.Get(ctx, keyTotals(eventID)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(b, dst)
}

func (c *Cache) SetTotals(ctx context.Context, eventID string, v any, ttl time.Duration) error {
	b, _ := json.Marshal(v)
	return c.R.Set(ctx, keyTotals(eventID), b, ttl).Err()
}
