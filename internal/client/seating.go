package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"example.com/ticket-orders/internal/domain"
	"example.com/ticket-orders/pkg/circuitbreaker"
	"example.com/ticket-orders/pkg/logger"
)

// Seat — место в схеме зала.
type Seat struct {
	SeatID     string       `json:"seat_id"`
	Section    string       `json:"section"`
	Row        string       `json:"row"`
	SeatNumber string       `json:"seat_number"`
	Price      domain.Money `json:"price"`
	EventID    int64        `json:"event_id"`
}

// ReserveSeatsRequest — запрос на резервирование мест.
type ReserveSeatsRequest struct {
	EventID    int64    `json:"event_id"`
	SeatIDs    []string `json:"seat_ids"`
	UserID     int64    `json:"user_id"`
	TTLSeconds int      `json:"ttl_seconds"`
}

// ReserveSeatsResult — ответ на резервирование.
type ReserveSeatsResult struct {
	Success       bool     `json:"success"`
	Message       string   `json:"message"`
	ReservedSeats []string `json:"reserved_seats,omitempty"`
}

// SeatsRequest — запрос на выкуп или освобождение мест.
type SeatsRequest struct {
	EventID int64    `json:"event_id"`
	UserID  int64    `json:"user_id"`
	SeatIDs []string `json:"seat_ids"`
}

// Seating — клиент сервиса рассадки.
type Seating interface {
	// GetSeats возвращает схему мест мероприятия.
	GetSeats(ctx context.Context, eventID int64) ([]Seat, error)

	// ReserveSeats резервирует места на время TTL.
	// Отказ резервирования — domain.ErrSeatUnavailable.
	ReserveSeats(ctx context.Context, req ReserveSeatsRequest) (*ReserveSeatsResult, error)

	// AllocateSeats окончательно выкупает зарезервированные места.
	// Идемпотентен для уже выкупленного набора того же пользователя.
	AllocateSeats(ctx context.Context, req SeatsRequest) error

	// ReleaseSeats освобождает места. Best-effort: безопасен для
	// неизвестных и уже освобождённых мест.
	ReleaseSeats(ctx context.Context, req SeatsRequest) error
}

// seatingClient — HTTP реализация Seating с Circuit Breaker.
type seatingClient struct {
	httpClient
	breaker *circuitbreaker.Breaker
}

// NewSeating создаёт клиент рассадки.
// Бизнес-отказы (место занято) не учитываются в статистике breaker.
func NewSeating(baseURL string, timeout time.Duration) Seating {
	return &seatingClient{
		httpClient: newHTTPClient("seating", baseURL, timeout),
		breaker: circuitbreaker.New("seating", func(err error) bool {
			return !isSeatingBusinessError(err)
		}),
	}
}

// isSeatingBusinessError сообщает, является ли ошибка бизнес-отказом рассадки.
// Такие отказы не должны открывать breaker.
func isSeatingBusinessError(err error) bool {
	return errors.Is(err, domain.ErrSeatUnavailable) ||
		errors.Is(err, domain.ErrSeatNotFound) ||
		isNotFound(err)
}

// GetSeats возвращает схему мест мероприятия.
func (c *seatingClient) GetSeats(ctx context.Context, eventID int64) ([]Seat, error) {
	var seats []Seat
	path := fmt.Sprintf("/api/v1/seats/event/%d", eventID)

	err := doBreaker(ctx, c.name, c.breaker, func() error {
		return c.doJSON(ctx, http.MethodGet, path, nil, &seats)
	})
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrEventNotFound
		}
		return nil, err
	}
	return seats, nil
}

// ReserveSeats резервирует места.
func (c *seatingClient) ReserveSeats(ctx context.Context, req ReserveSeatsRequest) (*ReserveSeatsResult, error) {
	var result ReserveSeatsResult

	err := doBreaker(ctx, c.name, c.breaker, func() error {
		return c.doJSON(ctx, http.MethodPost, "/api/v1/seats/reserve", req, &result)
	})
	if err != nil {
		return nil, err
	}

	if !result.Success {
		log := logger.FromContext(ctx)
		log.Warn().
			Int64("event_id", req.EventID).
			Strs("seat_ids", req.SeatIDs).
			Str("message", result.Message).
			Msg("Отказ резервирования мест")
		return &result, fmt.Errorf("%s: %w", result.Message, domain.ErrSeatUnavailable)
	}

	return &result, nil
}

// AllocateSeats выкупает зарезервированные места.
func (c *seatingClient) AllocateSeats(ctx context.Context, req SeatsRequest) error {
	var result struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}

	err := doBreaker(ctx, c.name, c.breaker, func() error {
		return c.doJSON(ctx, http.MethodPost, "/api/v1/seats/allocate", req, &result)
	})
	if err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("выкуп мест отклонён: %s: %w", result.Message, domain.ErrSeatUnavailable)
	}
	return nil
}

// ReleaseSeats освобождает места. Breaker не применяется:
// освобождение best-effort и должно доходить даже при деградации.
func (c *seatingClient) ReleaseSeats(ctx context.Context, req SeatsRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/api/v1/seats/release", req, nil)
}
