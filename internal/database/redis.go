package database

import (
	"context"
	"log"

	"github.com/go-redis/redis/v8"

	"github.com/rufm/ledger/internal/config"
)

// InitRedis connects to Redis. It returns nil when Redis is not configured
// or unreachable; callers treat a nil client as "feature disabled".
func InitRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	if cfg.Host == "" {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("Redis connection failed, continuing without Redis: %v", err)
		rdb.Close()
		return nil
	}

	log.Println("Redis connection established")
	return rdb
}
