package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =====================================
// Тесты валидации
// =====================================

func TestOrder_Validate(t *testing.T) {
	tests := []struct {
		name        string
		order       *Order
		expectedErr error
	}{
		{
			name:        "валидные данные",
			order:       &Order{UserID: 1, EventID: 25},
			expectedErr: nil,
		},
		{
			name:        "нулевой UserID",
			order:       &Order{UserID: 0, EventID: 25},
			expectedErr: ErrInvalidUserID,
		},
		{
			name:        "отрицательный UserID",
			order:       &Order{UserID: -1, EventID: 25},
			expectedErr: ErrInvalidUserID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.order.Validate()
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateSeatIDs(t *testing.T) {
	tests := []struct {
		name        string
		seatIDs     []string
		expectedErr error
	}{
		{"валидный список", []string{"A-1", "A-2"}, nil},
		{"пустой список", []string{}, ErrEmptySeatList},
		{"nil список", nil, ErrEmptySeatList},
		{"пустой идентификатор", []string{"A-1", " "}, ErrEmptySeatList},
		{"повтор идентификатора", []string{"A-1", "A-1"}, ErrDuplicateSeatID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSeatIDs(tt.seatIDs)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// =====================================
// Тесты переходов статуса
// =====================================

func TestOrder_Confirm(t *testing.T) {
	order := &Order{Status: OrderStatusCreated, PaymentStatus: PaymentStatusPending}

	require.NoError(t, order.Confirm())
	assert.Equal(t, OrderStatusConfirmed, order.Status)
	assert.Equal(t, PaymentStatusSuccess, order.PaymentStatus)
	assert.False(t, order.UpdatedAt.IsZero())
}

func TestOrder_Confirm_InvalidTransition(t *testing.T) {
	order := &Order{Status: OrderStatusCancelled}

	assert.ErrorIs(t, order.Confirm(), ErrOrderStateTransition)
	assert.Equal(t, OrderStatusCancelled, order.Status)
}

func TestOrder_CancelPaymentFailed(t *testing.T) {
	order := &Order{Status: OrderStatusCreated, PaymentStatus: PaymentStatusPending}

	require.NoError(t, order.CancelPaymentFailed("Card declined"))
	assert.Equal(t, OrderStatusCancelled, order.Status)
	assert.Equal(t, PaymentStatusFailed, order.PaymentStatus)
	require.NotNil(t, order.FailureReason)
	assert.Equal(t, "Card declined", *order.FailureReason)
}

func TestOrder_Cancel(t *testing.T) {
	order := &Order{Status: OrderStatusConfirmed, PaymentStatus: PaymentStatusSuccess}

	require.NoError(t, order.Cancel("отмена пользователем"))
	assert.Equal(t, OrderStatusCancelled, order.Status)
	// Cancel не трогает payment_status: возврат фиксирует Refund.
	assert.Equal(t, PaymentStatusSuccess, order.PaymentStatus)
}

func TestOrder_Cancel_Terminal(t *testing.T) {
	cancelled := &Order{Status: OrderStatusCancelled}
	assert.ErrorIs(t, cancelled.Cancel(""), ErrAlreadyCancelled)

	refunded := &Order{Status: OrderStatusRefunded}
	assert.ErrorIs(t, refunded.Cancel(""), ErrAlreadyRefunded)
}

func TestOrder_Refund(t *testing.T) {
	order := &Order{Status: OrderStatusConfirmed, PaymentStatus: PaymentStatusSuccess}

	require.NoError(t, order.Refund())
	assert.Equal(t, OrderStatusRefunded, order.Status)
	assert.Equal(t, PaymentStatusRefunded, order.PaymentStatus)

	// Повторный возврат запрещён.
	assert.ErrorIs(t, order.Refund(), ErrAlreadyRefunded)
}

func TestOrder_MarkFulfillmentFailed(t *testing.T) {
	order := &Order{Status: OrderStatusCreated, PaymentStatus: PaymentStatusPending}

	order.MarkFulfillmentFailed("возврат после сбоя выдачи не прошёл")

	assert.Equal(t, OrderStatusFulfillmentFailed, order.Status)
	assert.Equal(t, PaymentStatusSuccess, order.PaymentStatus)
	require.NotNil(t, order.FailureReason)
}

func TestOrder_SeatIDs(t *testing.T) {
	order := &Order{
		Tickets: []Ticket{
			{SeatID: "A-1"},
			{SeatID: "A-2"},
		},
	}
	assert.Equal(t, []string{"A-1", "A-2"}, order.SeatIDs())

	empty := &Order{}
	assert.Nil(t, empty.SeatIDs())
}
