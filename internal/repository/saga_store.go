package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"example.com/ticket-orders/internal/domain"
	"example.com/ticket-orders/pkg/outbox"
)

// SagaStore — персистентность оркестратора: все мутации заказов, билетов
// и записей outbox. Переходы с событием выполняются в одной транзакции,
// это гарантирует ровно один OutboxEvent на переход.
type SagaStore interface {
	// GetByIdempotencyKey возвращает заказ по ключу идемпотентности.
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error)

	// GetByID возвращает заказ с билетами.
	GetByID(ctx context.Context, orderID int64) (*domain.Order, error)

	// CreateOrder сохраняет новый заказ и проставляет ему ID.
	// При занятом idempotency_key возвращает domain.ErrDuplicateOrder.
	CreateOrder(ctx context.Context, order *domain.Order) error

	// ConfirmOrderWithTickets атомарно обновляет заказ, вставляет билеты
	// пакетно и добавляет запись outbox.
	ConfirmOrderWithTickets(ctx context.Context, order *domain.Order, tickets []domain.Ticket, record *outbox.Record) error

	// UpdateOrderWithOutbox атомарно обновляет заказ и, если record != nil,
	// добавляет запись outbox в той же транзакции.
	UpdateOrderWithOutbox(ctx context.Context, order *domain.Order, record *outbox.Record) error

	// GetConfirmedByEvent возвращает подтверждённые заказы мероприятия
	// с билетами. Используется при массовом возврате после отмены мероприятия.
	GetConfirmedByEvent(ctx context.Context, eventID int64) ([]*domain.Order, error)
}

// sagaStore — GORM реализация SagaStore.
type sagaStore struct {
	db         *gorm.DB
	outboxRepo outbox.Repository
}

// NewSagaStore создаёт хранилище оркестратора.
func NewSagaStore(db *gorm.DB, outboxRepo outbox.Repository) SagaStore {
	return &sagaStore{db: db, outboxRepo: outboxRepo}
}

// GetByIdempotencyKey возвращает заказ по ключу идемпотентности.
func (s *sagaStore) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	var model OrderModel

	if err := s.db.WithContext(ctx).
		Preload("Tickets").
		Where("idempotency_key = ?", key).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}

	return model.toDomain(), nil
}

// GetByID возвращает заказ с билетами.
func (s *sagaStore) GetByID(ctx context.Context, orderID int64) (*domain.Order, error) {
	var model OrderModel

	if err := s.db.WithContext(ctx).
		Preload("Tickets").
		Where("id = ?", orderID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}

	return model.toDomain(), nil
}

// CreateOrder сохраняет новый заказ.
func (s *sagaStore) CreateOrder(ctx context.Context, order *domain.Order) error {
	model := orderModelFromDomain(order)

	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		if isDuplicateKeyError(err) {
			return domain.ErrDuplicateOrder
		}
		return err
	}

	order.ID = model.ID
	order.CreatedAt = model.CreatedAt
	order.UpdatedAt = model.UpdatedAt
	return nil
}

// ConfirmOrderWithTickets атомарно фиксирует подтверждение заказа.
func (s *sagaStore) ConfirmOrderWithTickets(ctx context.Context, order *domain.Order, tickets []domain.Ticket, record *outbox.Record) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateOrder(tx, order); err != nil {
			return err
		}

		models := make([]TicketModel, len(tickets))
		for i := range tickets {
			tickets[i].OrderID = order.ID
			models[i] = *ticketModelFromDomain(&tickets[i])
		}
		if err := tx.Create(&models).Error; err != nil {
			return err
		}
		for i := range models {
			tickets[i].ID = models[i].ID
			tickets[i].CreatedAt = models[i].CreatedAt
		}
		order.Tickets = tickets

		return s.outboxRepo.Create(ctx, tx, record)
	})
}

// UpdateOrderWithOutbox атомарно обновляет заказ и добавляет запись outbox.
func (s *sagaStore) UpdateOrderWithOutbox(ctx context.Context, order *domain.Order, record *outbox.Record) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateOrder(tx, order); err != nil {
			return err
		}
		if record == nil {
			return nil
		}
		return s.outboxRepo.Create(ctx, tx, record)
	})
}

// GetConfirmedByEvent возвращает подтверждённые заказы мероприятия.
func (s *sagaStore) GetConfirmedByEvent(ctx context.Context, eventID int64) ([]*domain.Order, error) {
	var models []OrderModel

	if err := s.db.WithContext(ctx).
		Preload("Tickets").
		Where("event_id = ? AND status = ?", eventID, string(domain.OrderStatusConfirmed)).
		Order("id ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	orders := make([]*domain.Order, len(models))
	for i := range models {
		orders[i] = models[i].toDomain()
	}
	return orders, nil
}

// updateOrder записывает изменяемые поля заказа.
func updateOrder(tx *gorm.DB, order *domain.Order) error {
	updates := map[string]any{
		"status":         string(order.Status),
		"payment_status": string(order.PaymentStatus),
		"updated_at":     time.Now().UTC(),
	}
	if order.FailureReason != nil {
		updates["failure_reason"] = *order.FailureReason
	}

	result := tx.Model(&OrderModel{}).
		Where("id = ?", order.ID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// isDuplicateKeyError определяет нарушение уникального индекса.
// MySQL возвращает ошибку 1062 Duplicate entry.
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(errMsg, "Duplicate entry") ||
		strings.Contains(errMsg, "1062")
}
