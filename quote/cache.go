package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisCacheTTL = 5 * time.Minute

// RedisCache decorates a Source with a shared Redis cache so several
// processes stay inside one upstream rate-limit budget. Cache failures
// degrade to the inner source; they never fail a lookup.
type RedisCache struct {
	inner Source
	rdb   *redis.Client
	ttl   time.Duration
}

func NewRedisCache(inner Source, rdb *redis.Client) *RedisCache {
	return &RedisCache{inner: inner, rdb: rdb, ttl: redisCacheTTL}
}

func (c *RedisCache) LastClose(ctx context.Context, ticker string) (Quote, error) {
	key := fmt.Sprintf("quote:%s:last", ticker)

	if raw, err := c.rdb.Get(ctx, key).Result(); err == nil {
		var q Quote
		if err := json.Unmarshal([]byte(raw), &q); err == nil {
			return q, nil
		}
	} else if err != redis.Nil {
		log.Printf("quote: redis get %s: %v", key, err)
	}

	q, err := c.inner.LastClose(ctx, ticker)
	if err != nil {
		return Quote{}, err
	}

	if raw, err := json.Marshal(q); err == nil {
		if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			log.Printf("quote: redis set %s: %v", key, err)
		}
	}
	return q, nil
}
