// Package repository содержит GORM модели и доступ к данным сервиса заказов.
package repository

import (
	"time"

	"example.com/ticket-orders/internal/domain"
)

// OrderModel — GORM модель таблицы orders.
// Отделена от доменной сущности: колонки, индексы и типы — забота этого слоя.
type OrderModel struct {
	ID             int64         `gorm:"column:id;primaryKey;autoIncrement"`
	UserID         int64         `gorm:"column:user_id;not null;index"`
	EventID        int64         `gorm:"column:event_id;not null;index"`
	Status         string        `gorm:"column:status;type:varchar(48);not null;index"`
	PaymentStatus  string        `gorm:"column:payment_status;type:varchar(16);not null"`
	OrderTotal     domain.Money  `gorm:"column:order_total;type:decimal(12,2);not null"`
	IdempotencyKey *string       `gorm:"column:idempotency_key;type:varchar(64);uniqueIndex"`
	FailureReason  *string       `gorm:"column:failure_reason;type:text"`
	CreatedAt      time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time     `gorm:"column:updated_at;autoUpdateTime"`
	Tickets        []TicketModel `gorm:"foreignKey:OrderID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName возвращает имя таблицы в БД.
func (OrderModel) TableName() string {
	return "orders"
}

// TicketModel — GORM модель таблицы tickets.
type TicketModel struct {
	ID        int64        `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID   int64        `gorm:"column:order_id;not null;index"`
	EventID   int64        `gorm:"column:event_id;not null;index"`
	SeatID    string       `gorm:"column:seat_id;type:varchar(64);not null;index"`
	PricePaid domain.Money `gorm:"column:price_paid;type:decimal(12,2);not null"`
	CreatedAt time.Time    `gorm:"column:created_at;autoCreateTime"`
}

// TableName возвращает имя таблицы в БД.
func (TicketModel) TableName() string {
	return "tickets"
}

// toDomain конвертирует GORM модель заказа в доменную сущность.
func (m *OrderModel) toDomain() *domain.Order {
	order := &domain.Order{
		ID:            m.ID,
		UserID:        m.UserID,
		EventID:       m.EventID,
		Status:        domain.OrderStatus(m.Status),
		PaymentStatus: domain.PaymentStatus(m.PaymentStatus),
		Total:         m.OrderTotal,
		FailureReason: m.FailureReason,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
		Tickets:       make([]domain.Ticket, len(m.Tickets)),
	}

	if m.IdempotencyKey != nil {
		order.IdempotencyKey = *m.IdempotencyKey
	}

	for i := range m.Tickets {
		order.Tickets[i] = *m.Tickets[i].toDomain()
	}

	return order
}

// toDomain конвертирует GORM модель билета в доменную сущность.
func (m *TicketModel) toDomain() *domain.Ticket {
	return &domain.Ticket{
		ID:        m.ID,
		OrderID:   m.OrderID,
		EventID:   m.EventID,
		SeatID:    m.SeatID,
		PricePaid: m.PricePaid,
		CreatedAt: m.CreatedAt,
	}
}

// orderModelFromDomain конвертирует доменную сущность заказа в GORM модель.
// Билеты не включаются: их вставляет SagaStore отдельным bulk insert.
func orderModelFromDomain(o *domain.Order) *OrderModel {
	model := &OrderModel{
		ID:            o.ID,
		UserID:        o.UserID,
		EventID:       o.EventID,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		OrderTotal:    o.Total,
		FailureReason: o.FailureReason,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}

	// Пустой ключ идемпотентности хранится как NULL, иначе уникальный
	// индекс не пропустил бы два заказа без ключа.
	if o.IdempotencyKey != "" {
		model.IdempotencyKey = &o.IdempotencyKey
	}

	return model
}

// ticketModelFromDomain конвертирует доменную сущность билета в GORM модель.
func ticketModelFromDomain(t *domain.Ticket) *TicketModel {
	return &TicketModel{
		ID:        t.ID,
		OrderID:   t.OrderID,
		EventID:   t.EventID,
		SeatID:    t.SeatID,
		PricePaid: t.PricePaid,
	}
}
