package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/hero-pool-platform/pkg/contracts/events"
)

// RedisCache guarda o snapshot corrente de totais por evento com TTL
type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisCache(c *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{Client: c, TTL: ttl}
}

// key gera a chave Redis do snapshot de totais de um evento
func key(eventID string) string { return "pool:totals:" + eventID }

// SetCurrent armazena o snapshot do evento no Redis com TTL definido
func (r *RedisCache) SetCurrent(ctx context.Context, snap *events.TotalsSnapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, key(snap.EventID), b, r.TTL).Err()
}
