package outbox

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrRecordNotFound — запись outbox не найдена.
var ErrRecordNotFound = errors.New("запись outbox не найдена")

// Repository определяет методы работы с таблицей outbox_events.
type Repository interface {
	// Create создаёт новую запись outbox. tx может быть транзакцией —
	// тогда запись фиксируется атомарно с изменением заказа.
	Create(ctx context.Context, tx *gorm.DB, record *Record) error

	// GetUndispatched возвращает неразосланные записи для диспетчера.
	// Записи с retry_count >= maxRetries (dead letter) не возвращаются.
	GetUndispatched(ctx context.Context, limit, maxRetries int) ([]*Record, error)

	// MarkDispatched помечает запись как разосланную.
	MarkDispatched(ctx context.Context, id string) error

	// MarkFailed увеличивает счётчик попыток и сохраняет текст ошибки.
	MarkFailed(ctx context.Context, id string, err error) error

	// DeleteDispatchedBefore удаляет разосланные записи старше указанного
	// времени. Возвращает количество удалённых записей.
	DeleteDispatchedBefore(ctx context.Context, before time.Time) (int64, error)
}

// repository — GORM реализация Repository.
type repository struct {
	db *gorm.DB
}

// NewRepository создаёт репозиторий outbox.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Create создаёт запись outbox. Если tx == nil, используется основное подключение.
func (r *repository) Create(ctx context.Context, tx *gorm.DB, record *Record) error {
	db := tx
	if db == nil {
		db = r.db
	}

	model := ModelFromDomain(record)
	if err := db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	record.CreatedAt = model.CreatedAt
	return nil
}

// GetUndispatched возвращает неразосланные записи.
// Записи с большим retry_count обрабатываются позже (простой backoff);
// исчерпавшие лимит остаются в таблице как dead letter и не выбираются.
func (r *repository) GetUndispatched(ctx context.Context, limit, maxRetries int) ([]*Record, error) {
	var models []Model

	if err := r.db.WithContext(ctx).
		Where("dispatched_at IS NULL AND retry_count < ?", maxRetries).
		Order("retry_count ASC, created_at ASC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}

	result := make([]*Record, len(models))
	for i := range models {
		result[i] = models[i].ToDomain()
	}
	return result, nil
}

// MarkDispatched помечает запись как разосланную.
func (r *repository) MarkDispatched(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Model(&Model{}).
		Where("id = ?", id).
		Update("dispatched_at", time.Now().UTC())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// MarkFailed увеличивает счётчик попыток и сохраняет текст ошибки.
func (r *repository) MarkFailed(ctx context.Context, id string, err error) error {
	errStr := err.Error()
	result := r.db.WithContext(ctx).Model(&Model{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"retry_count": gorm.Expr("retry_count + 1"),
			"last_error":  errStr,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// DeleteDispatchedBefore удаляет разосланные записи старше указанного времени.
// Удаляет пачками по 1000, чтобы не держать длинные блокировки.
func (r *repository) DeleteDispatchedBefore(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("dispatched_at IS NOT NULL AND dispatched_at < ?", before).
		Limit(1000).
		Delete(&Model{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
