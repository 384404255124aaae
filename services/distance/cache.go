package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fadetogo/models"
	"fadetogo/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "distance:"

// Cached is a read-through Redis cache in front of another Provider. Cache
// failures fall through to the wrapped provider.
type Cached struct {
	Next   Provider
	Client *redis.Client
	TTL    time.Duration
}

func NewCached(next Provider, client *redis.Client, ttl time.Duration) *Cached {
	return &Cached{Next: next, Client: client, TTL: ttl}
}

// cacheKey rounds coordinates to ~11m so nearby lookups share an entry.
func cacheKey(origin, destination models.Location) string {
	return fmt.Sprintf("%s%.4f,%.4f|%.4f,%.4f", cacheKeyPrefix,
		origin.Latitude, origin.Longitude, destination.Latitude, destination.Longitude)
}

func (c *Cached) Resolve(ctx context.Context, origin, destination models.Location) (Result, error) {
	logger := utils.GetLogger()
	key := cacheKey(origin, destination)

	if raw, err := c.Client.Get(ctx, key).Bytes(); err == nil {
		var cached Result
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		logger.Warn("Discarding corrupt distance cache entry", zap.String("key", key))
	} else if err != redis.Nil {
		logger.Warn("Distance cache read failed", zap.Error(err))
	}

	res, err := c.Next.Resolve(ctx, origin, destination)
	if err != nil {
		return Result{}, err
	}

	if raw, err := json.Marshal(res); err == nil {
		if err := c.Client.Set(ctx, key, raw, c.TTL).Err(); err != nil {
			logger.Warn("Distance cache write failed", zap.Error(err))
		}
	}
	return res, nil
}
