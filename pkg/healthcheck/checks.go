// Package healthcheck предоставляет проверки зависимостей для /health/ready.
// Заказ нельзя ни создать, ни прочитать без MySQL, а кэш каталога деградирует
// без Redis, поэтому readiness смотрит на обе зависимости.
package healthcheck

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Check — одна именованная проверка зависимости.
type Check struct {
	Name string
	Fn   func(context.Context) error
}

// MySQL возвращает проверку доступности MySQL через пул GORM.
func MySQL(db *gorm.DB) Check {
	return Check{
		Name: "mysql",
		Fn: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
}

// Redis возвращает проверку доступности Redis.
func Redis(rdb *redis.Client) Check {
	return Check{
		Name: "redis",
		Fn: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		},
	}
}

// Composite объединяет проверки в одну функцию готовности. Ошибка
// оборачивается именем отказавшей зависимости.
func Composite(checks ...Check) func(context.Context) error {
	return func(ctx context.Context) error {
		for _, check := range checks {
			if err := check.Fn(ctx); err != nil {
				return fmt.Errorf("%s: %w", check.Name, err)
			}
		}
		return nil
	}
}
