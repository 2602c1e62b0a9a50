// Package outbox реализует паттерн transactional outbox: события жизненного
// цикла заказа записываются в таблицу outbox в той же транзакции, что и
// изменение заказа, а фоновый диспетчер рассылает их с гарантией at-least-once.
package outbox

import (
	"time"

	"github.com/google/uuid"
)

// Record — запись outbox: одно доменное событие, ожидающее рассылки.
type Record struct {
	ID            string     // UUID записи, назначается при создании
	AggregateType string     // Тип агрегата ("Order")
	AggregateID   string     // Идентификатор агрегата (order_id строкой)
	EventType     string     // Тип события (OrderConfirmed / OrderCancelled / OrderRefunded)
	Payload       []byte     // Сериализованное тело события (JSON)
	CorrelationID string     // Correlation ID бизнес-операции, породившей событие
	CreatedAt     time.Time  // Время создания
	DispatchedAt  *time.Time // Время успешной рассылки (nil — ещё не разослано)
	RetryCount    int        // Количество неудачных попыток рассылки
	LastError     *string    // Текст последней ошибки рассылки
}

// NewRecord создаёт новую запись outbox с уникальным ID.
func NewRecord(aggregateType, aggregateID, eventType string, payload []byte, correlationID string) *Record {
	return &Record{
		ID:            uuid.NewString(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       payload,
		CorrelationID: correlationID,
		CreatedAt:     time.Now().UTC(),
	}
}

// Dispatched сообщает, была ли запись успешно разослана.
func (r *Record) Dispatched() bool {
	return r.DispatchedAt != nil
}

// Model — GORM модель таблицы outbox_events.
type Model struct {
	ID            string     `gorm:"column:id;type:varchar(36);primaryKey"`
	AggregateType string     `gorm:"column:aggregate_type;type:varchar(50);not null;index:idx_outbox_aggregate"`
	AggregateID   string     `gorm:"column:aggregate_id;type:varchar(36);not null;index:idx_outbox_aggregate"`
	EventType     string     `gorm:"column:event_type;type:varchar(100);not null"`
	Payload       []byte     `gorm:"column:payload;type:json;not null"`
	CorrelationID string     `gorm:"column:correlation_id;type:varchar(64);not null"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	DispatchedAt  *time.Time `gorm:"column:dispatched_at;index:idx_outbox_undispatched"`
	RetryCount    int        `gorm:"column:retry_count;not null;default:0"`
	LastError     *string    `gorm:"column:last_error;type:text"`
}

// TableName возвращает имя таблицы в БД.
func (Model) TableName() string {
	return "outbox_events"
}

// ToDomain конвертирует GORM модель в доменную запись.
func (m *Model) ToDomain() *Record {
	return &Record{
		ID:            m.ID,
		AggregateType: m.AggregateType,
		AggregateID:   m.AggregateID,
		EventType:     m.EventType,
		Payload:       m.Payload,
		CorrelationID: m.CorrelationID,
		CreatedAt:     m.CreatedAt,
		DispatchedAt:  m.DispatchedAt,
		RetryCount:    m.RetryCount,
		LastError:     m.LastError,
	}
}

// ModelFromDomain конвертирует доменную запись в GORM модель.
func ModelFromDomain(r *Record) *Model {
	return &Model{
		ID:            r.ID,
		AggregateType: r.AggregateType,
		AggregateID:   r.AggregateID,
		EventType:     r.EventType,
		Payload:       r.Payload,
		CorrelationID: r.CorrelationID,
		CreatedAt:     r.CreatedAt,
		DispatchedAt:  r.DispatchedAt,
		RetryCount:    r.RetryCount,
		LastError:     r.LastError,
	}
}
