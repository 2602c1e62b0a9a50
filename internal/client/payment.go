package client

import (
	"context"
	"net/http"
	"time"

	"example.com/ticket-orders/internal/domain"
	"example.com/ticket-orders/pkg/circuitbreaker"
	"example.com/ticket-orders/pkg/logger"
)

// Статусы платежа в ответе платёжного сервиса.
const (
	PaymentResultSuccess = "SUCCESS"
	PaymentResultFailed  = "FAILED"
)

// ChargeRequest — запрос на списание.
type ChargeRequest struct {
	OrderID        int64        `json:"order_id"`
	UserID         int64        `json:"user_id"`
	Amount         domain.Money `json:"amount"`
	IdempotencyKey string       `json:"idempotency_key"`
}

// ChargeResult — ответ платёжного сервиса на списание.
// Success=false — окончательный отказ (карта отклонена), не ошибка транспорта.
type ChargeResult struct {
	Success              bool    `json:"success"`
	PaymentID            *string `json:"payment_id,omitempty"`
	Status               string  `json:"status"`
	Message              string  `json:"message"`
	TransactionReference *string `json:"transaction_reference,omitempty"`
}

// RefundRequest — запрос на возврат средств.
type RefundRequest struct {
	OrderID int64        `json:"order_id"`
	Amount  domain.Money `json:"amount"`
	Reason  string       `json:"reason"`
}

// RefundResult — ответ на возврат.
type RefundResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Payment — клиент платёжного сервиса.
type Payment interface {
	// Charge списывает средства. Платёжный сервис дедуплицирует по
	// idempotency_key. Окончательный отказ возвращается результатом,
	// а не ошибкой.
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)

	// Refund возвращает средства по заказу.
	Refund(ctx context.Context, req RefundRequest) (*RefundResult, error)
}

// paymentClient — HTTP реализация Payment с Circuit Breaker.
type paymentClient struct {
	httpClient
	breaker *circuitbreaker.Breaker
}

// NewPayment создаёт клиент платёжного сервиса.
// В статистике breaker учитываются только инфраструктурные ошибки:
// отказ карты приходит как Success=false и ошибкой не является.
func NewPayment(baseURL string, timeout time.Duration) Payment {
	return &paymentClient{
		httpClient: newHTTPClient("payment", baseURL, timeout),
		breaker:    circuitbreaker.New("payment", nil),
	}
}

// Charge списывает средства.
func (c *paymentClient) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	var result ChargeResult

	err := doBreaker(ctx, c.name, c.breaker, func() error {
		return c.doJSON(ctx, http.MethodPost, "/api/v1/payments/charge", req, &result)
	})
	if err != nil {
		return nil, err
	}

	if !result.Success {
		log := logger.FromContext(ctx)
		log.Warn().
			Int64("order_id", req.OrderID).
			Str("message", result.Message).
			Msg("Платёж отклонён платёжным сервисом")
	}

	return &result, nil
}

// Refund возвращает средства.
func (c *paymentClient) Refund(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	var result RefundResult

	err := doBreaker(ctx, c.name, c.breaker, func() error {
		return c.doJSON(ctx, http.MethodPost, "/api/v1/payments/refund", req, &result)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
