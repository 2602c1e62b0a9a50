package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"example.com/ticket-orders/internal/domain"
)

// OrderStatistics — агрегаты по заказам для GET /api/v1/orders/statistics.
type OrderStatistics struct {
	TotalOrders       int64        `json:"total_orders"`
	ConfirmedOrders   int64        `json:"confirmed_orders"`
	CancelledOrders   int64        `json:"cancelled_orders"`
	RefundedOrders    int64        `json:"refunded_orders"`
	FulfillmentFailed int64        `json:"fulfillment_failed"`
	TotalRevenue      domain.Money `json:"total_revenue"`
	TotalTickets      int64        `json:"total_tickets"`
}

// OrderRepository — читающая сторона доступа к заказам.
// Мутации принадлежат оркестратору и идут через SagaStore.
type OrderRepository interface {
	// GetByID возвращает заказ с билетами.
	GetByID(ctx context.Context, orderID int64) (*domain.Order, error)

	// ListByUser возвращает заказы пользователя, новые первыми.
	ListByUser(ctx context.Context, userID int64) ([]*domain.Order, error)

	// ListByEvent возвращает заказы мероприятия, новые первыми.
	ListByEvent(ctx context.Context, eventID int64) ([]*domain.Order, error)

	// List возвращает страницу заказов и общее количество.
	List(ctx context.Context, offset, limit int) ([]*domain.Order, int64, error)

	// Statistics возвращает агрегаты по всем заказам.
	Statistics(ctx context.Context) (*OrderStatistics, error)
}

// orderRepository — GORM реализация OrderRepository.
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository создаёт репозиторий заказов.
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// GetByID возвращает заказ с билетами.
func (r *orderRepository) GetByID(ctx context.Context, orderID int64) (*domain.Order, error) {
	var model OrderModel

	if err := r.db.WithContext(ctx).
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

// ListByUser возвращает заказы пользователя.
func (r *orderRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Order, error) {
	return r.list(ctx, r.db.WithContext(ctx).Where("user_id = ?", userID))
}

// ListByEvent возвращает заказы мероприятия.
func (r *orderRepository) ListByEvent(ctx context.Context, eventID int64) ([]*domain.Order, error) {
	return r.list(ctx, r.db.WithContext(ctx).Where("event_id = ?", eventID))
}

func (r *orderRepository) list(ctx context.Context, query *gorm.DB) ([]*domain.Order, error) {
	var models []OrderModel

	if err := query.
		Preload("Tickets").
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	orders := make([]*domain.Order, len(models))
	for i := range models {
		orders[i] = models[i].toDomain()
	}
	return orders, nil
}

// List возвращает страницу заказов и общее количество.
func (r *orderRepository) List(ctx context.Context, offset, limit int) ([]*domain.Order, int64, error) {
	var totalCount int64
	if err := r.db.WithContext(ctx).Model(&OrderModel{}).Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	var models []OrderModel
	if err := r.db.WithContext(ctx).
		Preload("Tickets").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, err
	}

	orders := make([]*domain.Order, len(models))
	for i := range models {
		orders[i] = models[i].toDomain()
	}
	return orders, totalCount, nil
}

// Statistics возвращает агрегаты по заказам.
func (r *orderRepository) Statistics(ctx context.Context) (*OrderStatistics, error) {
	stats := &OrderStatistics{}
	db := r.db.WithContext(ctx)

	if err := db.Model(&OrderModel{}).Count(&stats.TotalOrders).Error; err != nil {
		return nil, err
	}

	byStatus := []struct {
		status string
		dest   *int64
	}{
		{string(domain.OrderStatusConfirmed), &stats.ConfirmedOrders},
		{string(domain.OrderStatusCancelled), &stats.CancelledOrders},
		{string(domain.OrderStatusRefunded), &stats.RefundedOrders},
		{string(domain.OrderStatusFulfillmentFailed), &stats.FulfillmentFailed},
	}
	for _, q := range byStatus {
		if err := db.Model(&OrderModel{}).
			Where("status = ?", q.status).
			Count(q.dest).Error; err != nil {
			return nil, err
		}
	}

	// Выручка — сумма итогов подтверждённых заказов.
	var revenue *domain.Money
	if err := db.Model(&OrderModel{}).
		Select("SUM(order_total)").
		Where("status = ?", string(domain.OrderStatusConfirmed)).
		Scan(&revenue).Error; err != nil {
		return nil, err
	}
	if revenue != nil {
		stats.TotalRevenue = *revenue
	}

	if err := db.Model(&TicketModel{}).Count(&stats.TotalTickets).Error; err != nil {
		return nil, err
	}

	return stats, nil
}
