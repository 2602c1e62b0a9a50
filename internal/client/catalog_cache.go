package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"example.com/ticket-orders/pkg/logger"
)

// CachedCatalog — read-through кэш над клиентом каталога.
// Карточка мероприятия почти не меняется, а CreateOrder читает её на каждый
// заказ: короткий TTL снимает нагрузку с каталога, не рискуя продажей
// по закрытому мероприятию.
type CachedCatalog struct {
	inner Catalog
	rdb   *redis.Client
	ttl   time.Duration
}

// NewCachedCatalog оборачивает клиент каталога кэшем в Redis.
func NewCachedCatalog(inner Catalog, rdb *redis.Client, ttl time.Duration) *CachedCatalog {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedCatalog{inner: inner, rdb: rdb, ttl: ttl}
}

func catalogCacheKey(eventID int64) string {
	return fmt.Sprintf("catalog:event:%d", eventID)
}

// GetEvent читает карточку из кэша, при промахе — из каталога.
// Ошибки Redis не фатальны: кэш деградирует до прямого похода в каталог.
func (c *CachedCatalog) GetEvent(ctx context.Context, eventID int64) (*EventInfo, error) {
	key := catalogCacheKey(eventID)
	log := logger.FromContext(ctx)

	cached, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var info EventInfo
		if unmarshalErr := json.Unmarshal(cached, &info); unmarshalErr == nil {
			log.Debug().Int64("event_id", eventID).Msg("Карточка мероприятия из кэша")
			return &info, nil
		}
		// Битая запись — удаляем и идём в каталог.
		_ = c.rdb.Del(ctx, key).Err()
	} else if err != redis.Nil {
		log.Warn().Err(err).Msg("Ошибка чтения кэша каталога")
	}

	info, err := c.inner.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if data, marshalErr := json.Marshal(info); marshalErr == nil {
		if setErr := c.rdb.Set(ctx, key, data, c.ttl).Err(); setErr != nil {
			log.Warn().Err(setErr).Msg("Ошибка записи кэша каталога")
		}
	}

	return info, nil
}

// Invalidate удаляет карточку мероприятия из кэша.
// Вызывается при получении события отмены мероприятия.
func (c *CachedCatalog) Invalidate(ctx context.Context, eventID int64) {
	if err := c.rdb.Del(ctx, catalogCacheKey(eventID)).Err(); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Int64("event_id", eventID).Msg("Ошибка инвалидации кэша каталога")
	}
}
