// Package handler содержит HTTP обработчики для REST API.
package handler

import (
	"time"

	"example.com/ticket-orders/internal/domain"
)

// === Request/Response DTOs ===

// CreateOrderRequest — запрос на создание заказа.
type CreateOrderRequest struct {
	UserID         int64    `json:"user_id" binding:"required,min=1"`
	EventID        int64    `json:"event_id" binding:"required,min=1"`
	SeatIDs        []string `json:"seat_ids" binding:"required,min=1"`
	IdempotencyKey string   `json:"idempotency_key"`
}

// OrderResponse — снимок заказа в ответе API.
type OrderResponse struct {
	ID            int64            `json:"id"`
	UserID        int64            `json:"user_id"`
	EventID       int64            `json:"event_id"`
	Status        string           `json:"status"`
	PaymentStatus string           `json:"payment_status"`
	OrderTotal    domain.Money     `json:"order_total"`
	FailureReason *string          `json:"failure_reason,omitempty"`
	Tickets       []TicketResponse `json:"tickets"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// TicketResponse — билет в ответе API.
type TicketResponse struct {
	ID        int64        `json:"id"`
	OrderID   int64        `json:"order_id"`
	EventID   int64        `json:"event_id"`
	SeatID    string       `json:"seat_id"`
	PricePaid domain.Money `json:"price_paid"`
	CreatedAt time.Time    `json:"created_at"`
}

// ListOrdersResponse — страница заказов.
type ListOrdersResponse struct {
	Data       []OrderResponse    `json:"data"`
	Pagination PaginationResponse `json:"pagination"`
}

// PaginationResponse — информация о пагинации.
type PaginationResponse struct {
	CurrentPage int   `json:"current_page"`
	PageSize    int   `json:"page_size"`
	TotalItems  int64 `json:"total_items"`
	TotalPages  int   `json:"total_pages"`
}

// EventCancelledWebhookRequest — webhook каталога об отмене мероприятия.
type EventCancelledWebhookRequest struct {
	EventID     int64     `json:"event_id" binding:"required,min=1"`
	EventTitle  string    `json:"event_title"`
	CancelledAt time.Time `json:"cancelled_at"`
	Reason      string    `json:"reason"`
}

// EventCancelledWebhookResponse — итог массового возврата по webhook.
type EventCancelledWebhookResponse struct {
	EventID       int64        `json:"event_id"`
	Success       int          `json:"success"`
	Failure       int          `json:"failure"`
	TotalRefunded domain.Money `json:"total_refunded"`
}

// === Конвертеры ===

// orderToResponse преобразует domain.Order в OrderResponse.
func orderToResponse(o *domain.Order) OrderResponse {
	tickets := make([]TicketResponse, len(o.Tickets))
	for i := range o.Tickets {
		tickets[i] = ticketToResponse(&o.Tickets[i])
	}

	return OrderResponse{
		ID:            o.ID,
		UserID:        o.UserID,
		EventID:       o.EventID,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		OrderTotal:    o.Total,
		FailureReason: o.FailureReason,
		Tickets:       tickets,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

// ordersToResponse преобразует список заказов.
func ordersToResponse(orders []*domain.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = orderToResponse(o)
	}
	return out
}

// ticketToResponse преобразует domain.Ticket в TicketResponse.
func ticketToResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:        t.ID,
		OrderID:   t.OrderID,
		EventID:   t.EventID,
		SeatID:    t.SeatID,
		PricePaid: t.PricePaid,
		CreatedAt: t.CreatedAt,
	}
}

// ticketsToResponse преобразует список билетов.
func ticketsToResponse(tickets []*domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, len(tickets))
	for i, t := range tickets {
		out[i] = ticketToResponse(t)
	}
	return out
}
