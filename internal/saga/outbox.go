package saga

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"example.com/ticket-orders/internal/domain"
	"example.com/ticket-orders/pkg/logger"
	"example.com/ticket-orders/pkg/outbox"
)

// Сборщики записей outbox. Каждый переход CONFIRMED/CANCELLED/REFUNDED
// сопровождается ровно одной записью; фиксирует её SagaStore в той же
// транзакции, что и сам переход.

func newOrderConfirmedRecord(ctx context.Context, order *domain.Order, eventTitle string, seatIDs []string) (*outbox.Record, error) {
	correlationID := logger.CorrelationIDFromContext(ctx)

	payload, err := json.Marshal(domain.OrderConfirmedEvent{
		OrderID:       order.ID,
		UserID:        order.UserID,
		EventID:       order.EventID,
		EventTitle:    eventTitle,
		OrderTotal:    order.Total,
		SeatIDs:       seatIDs,
		ConfirmedAt:   time.Now().UTC(),
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}

	return outbox.NewRecord(
		domain.AggregateTypeOrder,
		strconv.FormatInt(order.ID, 10),
		domain.EventTypeOrderConfirmed,
		payload,
		correlationID,
	), nil
}

func newOrderCancelledRecord(ctx context.Context, order *domain.Order, reason string) (*outbox.Record, error) {
	correlationID := logger.CorrelationIDFromContext(ctx)

	payload, err := json.Marshal(domain.OrderCancelledEvent{
		OrderID:       order.ID,
		UserID:        order.UserID,
		EventID:       order.EventID,
		Reason:        reason,
		CancelledAt:   time.Now().UTC(),
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}

	return outbox.NewRecord(
		domain.AggregateTypeOrder,
		strconv.FormatInt(order.ID, 10),
		domain.EventTypeOrderCancelled,
		payload,
		correlationID,
	), nil
}

func newOrderRefundedRecord(ctx context.Context, order *domain.Order, reason string) (*outbox.Record, error) {
	correlationID := logger.CorrelationIDFromContext(ctx)

	payload, err := json.Marshal(domain.OrderRefundedEvent{
		OrderID:       order.ID,
		UserID:        order.UserID,
		EventID:       order.EventID,
		Amount:        order.Total,
		Reason:        reason,
		RefundedAt:    time.Now().UTC(),
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}

	return outbox.NewRecord(
		domain.AggregateTypeOrder,
		strconv.FormatInt(order.ID, 10),
		domain.EventTypeOrderRefunded,
		payload,
		correlationID,
	), nil
}
