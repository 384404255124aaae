package utils

import (
	"context"
	"time"

	"fadetogo/config"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// CacheClient is the Redis client for distance lookups.
var CacheClient *redis.Client

// InitCache connects the cache client. The service runs without a cache, so a
// failed ping is logged and the client is left nil.
func InitCache() error {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCacheDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		GetLogger().Warn("Redis cache unavailable, distance lookups are not cached",
			zap.String("addr", config.AppConfig.RedisAddr), zap.Error(err))
		_ = client.Close()
		return err
	}
	CacheClient = client
	return nil
}

// GetCacheClient returns the cache client, or nil when Redis is unreachable.
func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		_ = InitCache()
	}
	return CacheClient
}

func CloseCache() {
	if CacheClient != nil {
		_ = CacheClient.Close()
	}
}
