package config

import (
	"context"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

var (
	redisOnce   sync.Once
	redisClient *redis.Client
	redisLocker *redislock.Client
)

// GetRedis returns the shared Redis client, or nil when REDIS_ADDRESS is not
// set or the server did not answer a ping.
func GetRedis(cfg *Config) *redis.Client {
	redisOnce.Do(func() {
		if cfg.RedisAddress == "" {
			return
		}
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       0,
			PoolSize: 20,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			LogError(GetLogger(), "config", "GetRedis", "redis ping failed, falling back to in-process stores", cfg.RedisAddress, err)
			_ = rdb.Close()
			return
		}
		redisClient = rdb
		redisLocker = redislock.New(rdb)
		GetLogger().WithField("addr", cfg.RedisAddress).Info("connected to redis")
	})
	return redisClient
}

// GetRedisLock returns the lock client bound to GetRedis, or nil without Redis.
func GetRedisLock(cfg *Config) *redislock.Client {
	GetRedis(cfg)
	return redisLocker
}
