// Моки зависимостей оркестратора для unit-тестов.
package saga

import (
	"context"

	"github.com/stretchr/testify/mock"

	"example.com/ticket-orders/internal/client"
	"example.com/ticket-orders/internal/domain"
	"example.com/ticket-orders/pkg/outbox"
)

// =============================================================================
// MockSagaStore — мок repository.SagaStore
// =============================================================================

type MockSagaStore struct {
	mock.Mock
}

func (m *MockSagaStore) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockSagaStore) GetByID(ctx context.Context, orderID int64) (*domain.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockSagaStore) CreateOrder(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockSagaStore) ConfirmOrderWithTickets(ctx context.Context, order *domain.Order, tickets []domain.Ticket, record *outbox.Record) error {
	args := m.Called(ctx, order, tickets, record)
	return args.Error(0)
}

func (m *MockSagaStore) UpdateOrderWithOutbox(ctx context.Context, order *domain.Order, record *outbox.Record) error {
	args := m.Called(ctx, order, record)
	return args.Error(0)
}

func (m *MockSagaStore) GetConfirmedByEvent(ctx context.Context, eventID int64) ([]*domain.Order, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Order), args.Error(1)
}

// =============================================================================
// MockCatalog — мок client.Catalog
// =============================================================================

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) GetEvent(ctx context.Context, eventID int64) (*client.EventInfo, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.EventInfo), args.Error(1)
}

// =============================================================================
// MockSeating — мок client.Seating
// =============================================================================

type MockSeating struct {
	mock.Mock
}

func (m *MockSeating) GetSeats(ctx context.Context, eventID int64) ([]client.Seat, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]client.Seat), args.Error(1)
}

func (m *MockSeating) ReserveSeats(ctx context.Context, req client.ReserveSeatsRequest) (*client.ReserveSeatsResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.ReserveSeatsResult), args.Error(1)
}

func (m *MockSeating) AllocateSeats(ctx context.Context, req client.SeatsRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockSeating) ReleaseSeats(ctx context.Context, req client.SeatsRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

// =============================================================================
// MockPayment — мок client.Payment
// =============================================================================

type MockPayment struct {
	mock.Mock
}

func (m *MockPayment) Charge(ctx context.Context, req client.ChargeRequest) (*client.ChargeResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.ChargeResult), args.Error(1)
}

func (m *MockPayment) Refund(ctx context.Context, req client.RefundRequest) (*client.RefundResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.RefundResult), args.Error(1)
}
