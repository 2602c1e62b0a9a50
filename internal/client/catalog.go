package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"example.com/ticket-orders/internal/domain"
)

// Статусы мероприятия в каталоге.
const (
	EventStatusOnSale    = "ON_SALE"
	EventStatusSoldOut   = "SOLD_OUT"
	EventStatusCancelled = "CANCELLED"
)

// EventInfo — карточка мероприятия из каталога.
type EventInfo struct {
	EventID   int64        `json:"event_id"`
	Title     string       `json:"title"`
	Status    string       `json:"status"`
	EventDate time.Time    `json:"event_date"`
	VenueID   int64        `json:"venue_id"`
	VenueName string       `json:"venue_name"`
	City      string       `json:"city"`
	BasePrice domain.Money `json:"base_price"`
}

// Sellable сообщает, открыты ли продажи по мероприятию.
func (e *EventInfo) Sellable() bool {
	return e.Status == EventStatusOnSale
}

// Catalog — клиент каталога мероприятий.
type Catalog interface {
	// GetEvent возвращает карточку мероприятия или domain.ErrEventNotFound.
	GetEvent(ctx context.Context, eventID int64) (*EventInfo, error)
}

// catalogClient — HTTP реализация Catalog.
type catalogClient struct {
	httpClient
}

// NewCatalog создаёт клиент каталога.
func NewCatalog(baseURL string, timeout time.Duration) Catalog {
	return &catalogClient{newHTTPClient("catalog", baseURL, timeout)}
}

// GetEvent возвращает карточку мероприятия.
func (c *catalogClient) GetEvent(ctx context.Context, eventID int64) (*EventInfo, error) {
	var info EventInfo
	path := fmt.Sprintf("/api/v1/events/%d", eventID)

	if err := c.doJSON(ctx, http.MethodGet, path, nil, &info); err != nil {
		if isNotFound(err) {
			return nil, domain.ErrEventNotFound
		}
		return nil, err
	}
	return &info, nil
}
