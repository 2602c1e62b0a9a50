package db

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"example.com/ticket-orders/pkg/config"
	"example.com/ticket-orders/pkg/logger"
)

// ConnectRedis создаёт клиент Redis для кэша каталога. Недоступность Redis
// не фатальна: кэш деградирует до прямых походов в каталог, поэтому при
// неудачном ping сервис стартует с предупреждением.
func ConnectRedis(cfg config.RedisConfig) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", cfg.Addr()).
			Msg("Redis недоступен при старте, кэш каталога будет деградировать")
	}

	return rdb
}
