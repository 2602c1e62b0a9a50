package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"example.com/ticket-orders/internal/domain"
)

// TicketRepository — читающая сторона доступа к билетам.
// Вставка билетов принадлежит SagaStore.
type TicketRepository interface {
	// GetByID возвращает билет по идентификатору.
	GetByID(ctx context.Context, ticketID int64) (*domain.Ticket, error)

	// ListByOrder возвращает билеты заказа.
	ListByOrder(ctx context.Context, orderID int64) ([]*domain.Ticket, error)

	// ListByEvent возвращает билеты мероприятия.
	ListByEvent(ctx context.Context, eventID int64) ([]*domain.Ticket, error)
}

// ticketRepository — GORM реализация TicketRepository.
type ticketRepository struct {
	db *gorm.DB
}

// NewTicketRepository создаёт репозиторий билетов.
func NewTicketRepository(db *gorm.DB) TicketRepository {
	return &ticketRepository{db: db}
}

// GetByID возвращает билет по идентификатору.
func (r *ticketRepository) GetByID(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	var model TicketModel

	if err := r.db.WithContext(ctx).
		Where("id = ?", ticketID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTicketNotFound
		}
		return nil, err
	}

	return model.toDomain(), nil
}

// ListByOrder возвращает билеты заказа.
func (r *ticketRepository) ListByOrder(ctx context.Context, orderID int64) ([]*domain.Ticket, error) {
	return r.list(ctx, "order_id = ?", orderID)
}

// ListByEvent возвращает билеты мероприятия.
func (r *ticketRepository) ListByEvent(ctx context.Context, eventID int64) ([]*domain.Ticket, error) {
	return r.list(ctx, "event_id = ?", eventID)
}

func (r *ticketRepository) list(ctx context.Context, cond string, arg int64) ([]*domain.Ticket, error) {
	var models []TicketModel

	if err := r.db.WithContext(ctx).
		Where(cond, arg).
		Order("id ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	tickets := make([]*domain.Ticket, len(models))
	for i := range models {
		tickets[i] = models[i].toDomain()
	}
	return tickets, nil
}
