package domain

import (
	"strings"
	"time"
)

// OrderStatus — статус заказа в системе.
type OrderStatus string

const (
	// OrderStatusCreated — заказ создан, платёж ещё не завершён.
	OrderStatusCreated OrderStatus = "CREATED"

	// OrderStatusConfirmed — оплата прошла, места выкуплены, билеты выданы.
	OrderStatusConfirmed OrderStatus = "CONFIRMED"

	// OrderStatusCancelled — заказ отменён (отказ платежа или отмена пользователем).
	OrderStatusCancelled OrderStatus = "CANCELLED"

	// OrderStatusRefunded — по заказу выполнен возврат средств.
	OrderStatusRefunded OrderStatus = "REFUNDED"

	// OrderStatusFulfillmentFailed — деньги списаны, но выдача билетов не
	// завершилась и компенсирующий возврат не удался. Терминальное состояние,
	// разбирается оператором вручную.
	OrderStatusFulfillmentFailed OrderStatus = "PAYMENT_COMPLETED_BUT_FULFILLMENT_FAILED"
)

// PaymentStatus — статус оплаты заказа.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusSuccess  PaymentStatus = "SUCCESS"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

// Order — заказ на билеты.
// Доменная сущность без зависимостей от инфраструктуры (GORM, HTTP).
type Order struct {
	ID             int64         // Идентификатор заказа (auto-increment, назначает БД)
	UserID         int64         // Пользователь, создавший заказ
	EventID        int64         // Мероприятие, на которое покупаются билеты
	Status         OrderStatus   // Текущий статус заказа
	PaymentStatus  PaymentStatus // Статус оплаты
	Total          Money         // Итоговая сумма с налогом
	IdempotencyKey string        // Ключ идемпотентности ("" если не передан)
	FailureReason  *string       // Причина отказа/отмены (nil если заказ успешен)
	Tickets        []Ticket      // Выданные билеты (пусто до подтверждения)
	CreatedAt      time.Time     // Время создания (UTC)
	UpdatedAt      time.Time     // Время последнего обновления (UTC)
}

// Validate проверяет корректность запроса на создание заказа.
func (o *Order) Validate() error {
	if o.UserID <= 0 {
		return ErrInvalidUserID
	}
	return nil
}

// ValidateSeatIDs проверяет список мест: непустой, без повторов и пустых строк.
func ValidateSeatIDs(seatIDs []string) error {
	if len(seatIDs) == 0 {
		return ErrEmptySeatList
	}

	seen := make(map[string]struct{}, len(seatIDs))
	for _, id := range seatIDs {
		if strings.TrimSpace(id) == "" {
			return ErrEmptySeatList
		}
		if _, ok := seen[id]; ok {
			return ErrDuplicateSeatID
		}
		seen[id] = struct{}{}
	}
	return nil
}

// Confirm переводит заказ из CREATED в CONFIRMED после успешной оплаты и
// выкупа мест.
func (o *Order) Confirm() error {
	if o.Status != OrderStatusCreated {
		return ErrOrderStateTransition
	}
	o.Status = OrderStatusConfirmed
	o.PaymentStatus = PaymentStatusSuccess
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// CancelPaymentFailed переводит заказ в CANCELLED после отказа платежа.
// reason — сообщение платёжного сервиса, сохраняется для события OrderCancelled.
func (o *Order) CancelPaymentFailed(reason string) error {
	if o.Status != OrderStatusCreated {
		return ErrOrderStateTransition
	}
	o.Status = OrderStatusCancelled
	o.PaymentStatus = PaymentStatusFailed
	o.FailureReason = &reason
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// Cancel отменяет заказ без возврата средств (оплата не проходила).
func (o *Order) Cancel(reason string) error {
	switch o.Status {
	case OrderStatusCancelled:
		return ErrAlreadyCancelled
	case OrderStatusRefunded:
		return ErrAlreadyRefunded
	}
	o.Status = OrderStatusCancelled
	if reason != "" {
		o.FailureReason = &reason
	}
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// Refund фиксирует успешный возврат средств по заказу.
// Допустим из CONFIRMED (отмена/отмена мероприятия), из CREATED (компенсация
// после сбоя выдачи) и из PAYMENT_COMPLETED_BUT_FULFILLMENT_FAILED
// (ручное разрешение оператором через повторную отмену).
func (o *Order) Refund() error {
	switch o.Status {
	case OrderStatusCancelled:
		return ErrAlreadyCancelled
	case OrderStatusRefunded:
		return ErrAlreadyRefunded
	}
	o.Status = OrderStatusRefunded
	o.PaymentStatus = PaymentStatusRefunded
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkFulfillmentFailed переводит заказ в терминальное состояние
// PAYMENT_COMPLETED_BUT_FULFILLMENT_FAILED: оплата прошла, но билеты не
// выданы и возврат не удался.
func (o *Order) MarkFulfillmentFailed(reason string) {
	o.Status = OrderStatusFulfillmentFailed
	o.PaymentStatus = PaymentStatusSuccess
	o.FailureReason = &reason
	o.UpdatedAt = time.Now().UTC()
}

// SeatIDs возвращает идентификаторы мест выданных билетов.
func (o *Order) SeatIDs() []string {
	if len(o.Tickets) == 0 {
		return nil
	}
	ids := make([]string, len(o.Tickets))
	for i := range o.Tickets {
		ids[i] = o.Tickets[i].SeatID
	}
	return ids
}
