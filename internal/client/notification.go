package client

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"example.com/ticket-orders/pkg/logger"
	"example.com/ticket-orders/pkg/outbox"
)

// notificationEvent — тело запроса к notification-сервису.
// event_id — ключ дедупликации на стороне получателя (at-least-once).
type notificationEvent struct {
	EventID       string          `json:"event_id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	CorrelationID string          `json:"correlation_id"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Notification — клиент notification-сервиса.
// Реализует outbox.Sender: диспетчер доставляет через него события outbox.
type Notification struct {
	httpClient
}

// NewNotification создаёт клиент notification-сервиса.
func NewNotification(baseURL string, timeout time.Duration) *Notification {
	return &Notification{newHTTPClient("notification", baseURL, timeout)}
}

// Send доставляет одно событие outbox. Успех — только 2xx ответ.
func (c *Notification) Send(ctx context.Context, record *outbox.Record) error {
	ctx = logger.WithCorrelationID(ctx, record.CorrelationID)

	event := notificationEvent{
		EventID:       record.ID,
		AggregateType: record.AggregateType,
		AggregateID:   record.AggregateID,
		EventType:     record.EventType,
		Payload:       record.Payload,
		CorrelationID: record.CorrelationID,
		CreatedAt:     record.CreatedAt,
	}

	return c.doJSON(ctx, http.MethodPost, "/api/v1/events", event, nil)
}
