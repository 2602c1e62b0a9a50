package domain

import "time"

// Типы событий жизненного цикла заказа, публикуемых через outbox.
const (
	EventTypeOrderConfirmed = "OrderConfirmed"
	EventTypeOrderCancelled = "OrderCancelled"
	EventTypeOrderRefunded  = "OrderRefunded"
)

// AggregateTypeOrder — тип агрегата для записей outbox.
const AggregateTypeOrder = "Order"

// OrderConfirmedEvent — payload события подтверждения заказа.
type OrderConfirmedEvent struct {
	OrderID       int64     `json:"order_id"`
	UserID        int64     `json:"user_id"`
	EventID       int64     `json:"event_id"`
	EventTitle    string    `json:"event_title"`
	OrderTotal    Money     `json:"order_total"`
	SeatIDs       []string  `json:"seat_ids"`
	ConfirmedAt   time.Time `json:"confirmed_at"`
	CorrelationID string    `json:"correlation_id"`
}

// OrderCancelledEvent — payload события отмены заказа.
type OrderCancelledEvent struct {
	OrderID       int64     `json:"order_id"`
	UserID        int64     `json:"user_id"`
	EventID       int64     `json:"event_id"`
	Reason        string    `json:"reason"`
	CancelledAt   time.Time `json:"cancelled_at"`
	CorrelationID string    `json:"correlation_id"`
}

// OrderRefundedEvent — payload события возврата средств.
type OrderRefundedEvent struct {
	OrderID       int64     `json:"order_id"`
	UserID        int64     `json:"user_id"`
	EventID       int64     `json:"event_id"`
	Amount        Money     `json:"amount"`
	Reason        string    `json:"reason"`
	RefundedAt    time.Time `json:"refunded_at"`
	CorrelationID string    `json:"correlation_id"`
}
