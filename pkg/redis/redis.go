package redis

import (
	"fmt"
	"log"

	"github.com/ds124wfegd/classbooker/config"
	"github.com/go-redis/redis/v8"
)

// NewRedisClient создает клиент для распределенной блокировки занятий.
// Настройки пула оставлены по умолчанию: единственный потребитель —
// короткие SETNX/EVAL вызовы блокировки.
func NewRedisClient(cfg *config.RedisConfig) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	log.Println("Successfully connected to Redis")
	return client
}
