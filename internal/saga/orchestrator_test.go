package saga

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"example.com/ticket-orders/internal/client"
	"example.com/ticket-orders/internal/domain"
	"example.com/ticket-orders/pkg/metrics"
	"example.com/ticket-orders/pkg/outbox"
)

// Моки определены в mocks_test.go

func newTestOrchestrator(store *MockSagaStore, catalog *MockCatalog, seating *MockSeating, payment *MockPayment) Orchestrator {
	return NewOrchestrator(store, catalog, seating, payment, nil, DefaultConfig())
}

func onSaleEvent() *client.EventInfo {
	return &client.EventInfo{
		EventID:   25,
		Title:     "Концерт",
		Status:    client.EventStatusOnSale,
		EventDate: time.Now().Add(30 * 24 * time.Hour),
	}
}

func threeSeats() []client.Seat {
	return []client.Seat{
		{SeatID: "A-1", Price: domain.Money(100025), EventID: 25},
		{SeatID: "A-2", Price: domain.Money(100025), EventID: 25},
		{SeatID: "A-3", Price: domain.Money(100025), EventID: 25},
	}
}

// =============================================================================
// CreateOrder — happy path
// =============================================================================

func TestOrchestrator_CreateOrder_Success(t *testing.T) {
	ctx := context.Background()
	store := new(MockSagaStore)
	catalog := new(MockCatalog)
	seating := new(MockSeating)
	payment := new(MockPayment)

	catalog.On("GetEvent", mock.Anything, int64(25)).Return(onSaleEvent(), nil)
	seating.On("GetSeats", mock.Anything, int64(25)).Return(threeSeats(), nil)
	seating.On("ReserveSeats", mock.Anything, mock.MatchedBy(func(req client.ReserveSeatsRequest) bool {
		return req.EventID == 25 && req.TTLSeconds == 900 && len(req.SeatIDs) == 3
	})).Return(&client.ReserveSeatsResult{Success: true}, nil)

	store.On("CreateOrder", mock.Anything, mock.AnythingOfType("*domain.Order")).
		Run(func(args mock.Arguments) {
			order := args.Get(1).(*domain.Order)
			order.ID = 101
			// 3000.75 * 1.05 = 3150.7875 -> 3150.79
			assert.Equal(t, "3150.79", order.Total.String())
			assert.Equal(t, domain.OrderStatusCreated, order.Status)
			assert.Equal(t, domain.PaymentStatusPending, order.PaymentStatus)
		}).
		Return(nil)

	payment.On("Charge", mock.Anything, mock.MatchedBy(func(req client.ChargeRequest) bool {
		return req.OrderID == 101 && req.Amount == domain.Money(315079) && req.IdempotencyKey != ""
	})).Return(&client.ChargeResult{Success: true, Status: client.PaymentResultSuccess}, nil)

	seating.On("AllocateSeats", mock.Anything, mock.Anything).Return(nil)

	store.On("ConfirmOrderWithTickets", mock.Anything, mock.AnythingOfType("*domain.Order"), mock.Anything, mock.AnythingOfType("*outbox.Record")).
		Run(func(args mock.Arguments) {
			order := args.Get(1).(*domain.Order)
			tickets := args.Get(2).([]domain.Ticket)
			record := args.Get(3).(*outbox.Record)

			assert.Equal(t, domain.OrderStatusConfirmed, order.Status)
			assert.Equal(t, domain.PaymentStatusSuccess, order.PaymentStatus)
			require.Len(t, tickets, 3)
			assert.Equal(t, domain.Money(100025), tickets[0].PricePaid)
			assert.Equal(t, domain.EventTypeOrderConfirmed, record.EventType)
			assert.Equal(t, "101", record.AggregateID)
			assert.NotEmpty(t, record.CorrelationID)
		}).
		Return(nil)

	orch := newTestOrchestrator(store, catalog, seating, payment)

	order, err := orch.CreateOrder(ctx, CreateOrderRequest{
		UserID:  1,
		EventID: 25,
		SeatIDs: []string{"A-1", "A-2", "A-3"},
	})

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, order.Status)
	assert.Equal(t, "3150.79", order.Total.String())
	store.AssertExpectations(t)
	payment.AssertExpectations(t)
	seating.AssertExpectations(t)
}

// =============================================================================
// CreateOrder — отказы до оплаты
// =============================================================================

func TestOrchestrator_CreateOrder_EventSoldOut(t *testing.T) {
	ctx := context.Background()
	store := new(MockSagaStore)
	catalog := new(MockCatalog)
	seating := new(MockSeating)
	payment := new(MockPayment)

	event := onSaleEvent()
	event.Status = client.EventStatusSoldOut
	catalog.On("GetEvent", mock.Anything, int64(25)).Return(event, nil)

	orch := newTestOrchestrator(store, catalog, seating, payment)

	_, err := orch.CreateOrder(ctx, CreateOrderRequest{
		UserID:  1,
		EventID: 25,
		SeatIDs: []string{"A-1"},
	})

	assert.ErrorIs(t, err, domain.ErrEventNotSellable)
	// Дальше каталога сага не пошла.
	seating.AssertNotCalled(t, "GetSeats", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestOrchestrator_CreateOrder_EventNotFound(t *testing.T) {
	ctx := context.Background()
	store := new(MockSagaStore)
	catalog := new(MockCatalog)
	seating := new(MockSeating)
	payment := new(MockPayment)

	catalog.On("GetEvent", mock.Anything, int64(404)).Return(nil, domain.ErrEventNotFound)

	orch := newTestOrchestrator(store, catalog, seating, payment)

	_, err := orch.CreateOrder(ctx, CreateOrderRequest{
		UserID:  1,
		EventID: 404,
		SeatIDs: []string{"A-1"},
	})

	assert.ErrorIs(t, err, domain.ErrEventNotFound)
}

func TestOrchestrator_CreateOrder_SeatMissingFromLayout(t *testing.T) {
	ctx := context.Background()
	store := new(MockSagaStore)
	catalog := new(MockCatalog)
	seating := new(MockSeating)
	payment := new(MockPayment)

	catalog.On("GetEvent", mock.Anything, int64(25)).Return(onSaleEvent(), nil)
	seating.On("GetSeats", mock.Anything, int64(25)).Return(threeSeats(), nil)

	orch := newTestOrchestrator(store, catalog, seating, payment)

	_, err := orch.CreateOrder(ctx, CreateOrderRequest{
		UserID:  1,
		EventID: 25,
		SeatIDs: []string{"A-1", "Z-99"},
	})

	assert.ErrorIs(t, err, domain.ErrSeatNotFound)
	seating.AssertNotCalled(t, "ReserveSeats", mock.Anything, mock.Anything)
}

func TestOrchestrator_CreateOrder_ReservationRefused(t *testing.T) {
	ctx := context.Background()
	store := new(MockSagaStore)
	catalog := new(MockCatalog)
	seating := new(MockSeating)
	payment := new(MockPayment)

	catalog.On("GetEvent", mock.Anything, int64(25)).Return(onSaleEvent(), nil)
	seating.On("GetSeats", mock.Anything, int64(25)).Return(threeSeats(), nil)
	seating.On("ReserveSeats", mock.Anything, mock.Anything).
		Return(nil, domain.ErrSeatUnavailable)

	orch := newTestOrchestrator(store, catalog, seating, payment)

	_, err := orch.CreateOrder(ctx, CreateOrderRequest{
		UserID:  1,
		EventID: 25,
		SeatIDs: []string{"A-1"},
	})

	assert.ErrorIs(t, err, domain.ErrSeatUnavailable)
	store.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

// Транспортный сбой при резервировании считается наравне с отказом рассадки.
func TestOrchestrator_CreateOrder_ReserveTransportFailureCounted(t *testing.T) {
	ctx := context.Background()
	store := new(MockSagaStore)
	catalog := new(MockCatalog)
	seating := new(MockSeating)
	payment := new(MockPayment)

	catalog.On("GetEvent", mock.Anything, int64(25)).Return(onSaleEvent(), nil)
	seating.On("GetSeats", mock.Anything, int64(25)).Return(threeSeats(), nil)
	seating.On("ReserveSeats", mock.Anything, mock.Anything).
		Return(nil, domain.ErrUpstreamUnavailable)

	orch := newTestOrchestrator(store, catalog, seating, payment)
	before := testutil.ToFloat64(metrics.SeatReservationsFailed)

	_, err := orch.CreateOrder(ctx, CreateOrderRequest{
		UserID:  1,
		EventID: 25,
		SeatIDs: []string{"A-1"},
	})

	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.SeatReservationsFailed))
	store.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestOrchestrator_CreateOrder_ValidationErrors(t *testing.T) {
	orch := newTestOrchestrator(new(MockSagaStore), new(MockCatalog), new(MockSeating), new(MockPayment))
	ctx := context.Background()

	_, err := orch.CreateOrder(ctx, CreateOrderRequest{UserID: 0, EventID: 25, SeatIDs: []string{"A-1"}})
	assert.ErrorIs(t, err, domain.ErrInvalidUserID)

	_, err = orch.CreateOrder(ctx, CreateOrderRequest{UserID: 1, EventID: 25})
	assert.ErrorIs(t, err, domain.ErrEmptySeatList)

	_, err = orch.CreateOrder(ctx, CreateOrderRequest{UserID: 1, EventID: 25, SeatIDs: []string{"A-1", "A-1"}})
	assert.ErrorIs(t, err, domain.ErrDuplicateSeatID)
}

// =============================================================================
// CreateOrder — идемпотентность
// =============================================================================

func TestOrchestrator_CreateOrder_IdempotentReplay(t *testing.T) {
	ctx := context.Background()
	store := new(MockSagaStore)
	catalog := new(MockCatalog)
	seating := new(MockSeating)
	payment := new(MockPayment)

	stored := &domain.Order{
		ID:             101,
		UserID:         1,
		EventID:        25,
		Status:         domain.OrderStatusConfirmed,
		PaymentStatus:  domain.PaymentStatusSuccess,
		Total:          domain.Money(315079),
		IdempotencyKey: "k-42",
	}
	store.On("GetByIdempotencyKey", mock.Anything, "k-42").Return(stored, nil)

	orch := newTestOrchestrator(store, catalog, seating, payment)

	order, err := orch.CreateOrder(ctx, CreateOrderRequest{
		UserID:         1,
		EventID:        25,
		SeatIDs:        []string{"A-1"},
		IdempotencyKey: "k-42",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(101), order.ID)
	// Внешние сервисы не вызывались.
	catalog.AssertNotCalled(t, "GetEvent", mock.Anything, mock.Anything)
	seating.AssertNotCalled(t, "ReserveSeats", mock.Anything, mock.Anything)
	payment.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything)
}

func TestOrchestrator_CreateOrder_IdempotencyRace(t *testing.T) {
	ctx := context.Background()
	store := new(MockSagaStore)
	catalog := new(MockCatalog)
	seating := new(MockSeating)
	payment := new(MockPayment)

	winner := &domain.Order{
		ID:             77,
		UserID:         1,
		EventID:        25,
		Status:         domain.OrderStatusConfirmed,
		PaymentStatus:  domain.PaymentStatusSuccess,
		IdempotencyKey: "k-42",
	}

	// Первая проба не находит заказ, вставка проигрывает гонку,
	// перечитывание возвращает победителя.
	store.On("GetByIdempotencyKey", mock.Anything, "k-42").Return(nil, domain.ErrOrderNotFound).Once()
	catalog.On("GetEvent", mock.Anything, int64(25)).Return(onSaleEvent(), nil)
	seating.On("GetSeats", mock.Anything, int64(25)).Return(threeSeats(), nil)
	seating.On("ReserveSeats", mock.Anything, mock.Anything).Return(&client.ReserveSeatsResult{Success: true}, nil)
	store.On("CreateOrder", mock.Anything, mock.Anything).Return(domain.ErrDuplicateOrder)
	seating.On("ReleaseSeats", mock.Anything, mock.Anything).Return(nil)
	store.On("GetByIdempotencyKey", mock.Anything, "k-42").Return(winner, nil).Once()

	orch := newTestOrchestrator(store, catalog, seating, payment)

	order, err := orch.CreateOrder(ctx, CreateOrderRequest{
		UserID:         1,
		EventID:        25,
		SeatIDs:        []string{"A-1"},
		IdempotencyKey: "k-42",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(77), order.ID)
	payment.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything)
	seating.AssertExpectations(t)
}

// =============================================================================
// CreateOrder — отказ оплаты и компенсации
// =============================================================================

func TestOrchestrator_CreateOrder_PaymentRefused(t *testing.T) {
	ctx := context.Background()
	store := new(MockSagaStore)
	catalog := new(MockCatalog)
	seating := new(MockSeating)
	payment := new(MockPayment)

	catalog.On("GetEvent", mock.Anything, int64(25)).Return(onSaleEvent(), nil)
	seating.On("GetSeats", mock.Anything, int64(25)).Return(threeSeats(), nil)
	seating.On("ReserveSeats", mock.Anything, mock.Anything).Return(&client.ReserveSeatsResult{Success: true}, nil)
	store.On("CreateOrder", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { args.Get(1).(*domain.Order).ID = 101 }).
		Return(nil)
	payment.On("Charge", mock.Anything, mock.Anything).
		Return(&client.ChargeResult{Success: false, Status: client.PaymentResultFailed, Message: "Card declined"}, nil)
	seating.On("ReleaseSeats", mock.Anything, mock.Anything).Return(nil)

	store.On("UpdateOrderWithOutbox", mock.Anything, mock.AnythingOfType("*domain.Order"), mock.AnythingOfType("*outbox.Record")).
		Run(func(args mock.Arguments) {
			order := args.Get(1).(*domain.Order)
			record := args.Get(2).(*outbox.Record)

			assert.Equal(t, domain.OrderStatusCancelled, order.Status)
			assert.Equal(t, domain.PaymentStatusFailed, order.PaymentStatus)
			require.NotNil(t, order.FailureReason)
			assert.Equal(t, "Card declined", *order.FailureReason)
			assert.Equal(t, domain.EventTypeOrderCancelled, record.EventType)
		}).
		Return(nil)

	orch := newTestOrchestrator(store, catalog, seating, payment)

	order, err := orch.CreateOrder(ctx, CreateOrderRequest{
		UserID:  1,
		EventID: 25,
		SeatIDs: []string{"A-1", "A-2", "A-3"},
	})

	assert.ErrorIs(t, err, domain.ErrPaymentFailed)
	require.NotNil(t, order)
	assert.Equal(t, domain.OrderStatusCancelled, order.Status)
	store.AssertExpectations(t)
	seating.AssertExpectations(t)
}

func TestOrchestrator_CreateOrder_AllocateFailsRefundSucceeds(t *testing.T) {
	ctx := context.Background()
	store := new(MockSagaStore)
	catalog := new(MockCatalog)
	seating := new(MockSeating)
	payment := new(MockPayment)

	catalog.On("GetEvent", mock.Anything, int64(25)).Return(onSaleEvent(), nil)
	seating.On("GetSeats", mock.Anything, int64(25)).Return(threeSeats(), nil)
	seating.On("ReserveSeats", mock.Anything, mock.Anything).Return(&client.ReserveSeatsResult{Success: true}, nil)
	store.On("CreateOrder", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { args.Get(1).(*domain.Order).ID = 101 }).
		Return(nil)
	payment.On("Charge", mock.Anything, mock.Anything).
		Return(&client.ChargeResult{Success: true, Status: client.PaymentResultSuccess}, nil)
	seating.On("AllocateSeats", mock.Anything, mock.Anything).Return(errors.New("seating timeout"))
	payment.On("Refund", mock.Anything, mock.MatchedBy(func(req client.RefundRequest) bool {
		return req.OrderID == 101 && req.Amount == domain.Money(315079)
	})).Return(&client.RefundResult{Success: true}, nil)

	store.On("UpdateOrderWithOutbox", mock.Anything, mock.AnythingOfType("*domain.Order"), mock.AnythingOfType("*outbox.Record")).
		Run(func(args mock.Arguments) {
			order := args.Get(1).(*domain.Order)
			record := args.Get(2).(*outbox.Record)

			assert.Equal(t, domain.OrderStatusRefunded, order.Status)
			assert.Equal(t, domain.PaymentStatusRefunded, order.PaymentStatus)
			assert.Equal(t, domain.EventTypeOrderRefunded, record.EventType)
		}).
		Return(nil)

	orch := newTestOrchestrator(store, catalog, seating, payment)

	order, err := orch.CreateOrder(ctx, CreateOrderRequest{
		UserID:  1,
		EventID: 25,
		SeatIDs: []string{"A-1", "A-2", "A-3"},
	})

	assert.ErrorIs(t, err, domain.ErrFulfillmentFailed)
	require.NotNil(t, order)
	assert.Equal(t, domain.OrderStatusRefunded, order.Status)
	store.AssertExpectations(t)
}

func TestOrchestrator_CreateOrder_AllocateFailsRefundFails(t *testing.T) {
	ctx := context.Background()
	store := new(MockSagaStore)
	catalog := new(MockCatalog)
	seating := new(MockSeating)
	payment := new(MockPayment)

	catalog.On("GetEvent", mock.Anything, int64(25)).Return(onSaleEvent(), nil)
	seating.On("GetSeats", mock.Anything, int64(25)).Return(threeSeats(), nil)
	seating.On("ReserveSeats", mock.Anything, mock.Anything).Return(&client.ReserveSeatsResult{Success: true}, nil)
	store.On("CreateOrder", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { args.Get(1).(*domain.Order).ID = 101 }).
		Return(nil)
	payment.On("Charge", mock.Anything, mock.Anything).
		Return(&client.ChargeResult{Success: true, Status: client.PaymentResultSuccess}, nil)
	seating.On("AllocateSeats", mock.Anything, mock.Anything).Return(errors.New("seating timeout"))
	payment.On("Refund", mock.Anything, mock.Anything).
		Return(&client.RefundResult{Success: false, Message: "gateway error"}, nil)

	// Компенсирующее событие не пишется: бизнес-состояние не разрешено.
	store.On("UpdateOrderWithOutbox", mock.Anything, mock.AnythingOfType("*domain.Order"), mock.Anything).
		Run(func(args mock.Arguments) {
			order := args.Get(1).(*domain.Order)
			assert.Equal(t, domain.OrderStatusFulfillmentFailed, order.Status)
			assert.Equal(t, domain.PaymentStatusSuccess, order.PaymentStatus)
			assert.Nil(t, args.Get(2))
		}).
		Return(nil)

	orch := newTestOrchestrator(store, catalog, seating, payment)

	order, err := orch.CreateOrder(ctx, CreateOrderRequest{
		UserID:  1,
		EventID: 25,
		SeatIDs: []string{"A-1", "A-2", "A-3"},
	})

	assert.ErrorIs(t, err, domain.ErrFulfillmentFailed)
	require.NotNil(t, order)
	assert.Equal(t, domain.OrderStatusFulfillmentFailed, order.Status)
	store.AssertExpectations(t)
}

// =============================================================================
// CancelOrder
// =============================================================================

func confirmedOrder() *domain.Order {
	return &domain.Order{
		ID:            55,
		UserID:        1,
		EventID:       25,
		Status:        domain.OrderStatusConfirmed,
		PaymentStatus: domain.PaymentStatusSuccess,
		Total:         domain.Money(315079),
		Tickets: []domain.Ticket{
			{ID: 1, OrderID: 55, EventID: 25, SeatID: "A-1", PricePaid: domain.Money(100025)},
			{ID: 2, OrderID: 55, EventID: 25, SeatID: "A-2", PricePaid: domain.Money(100025)},
		},
	}
}

func TestOrchestrator_CancelOrder_ConfirmedRefundSucceeds(t *testing.T) {
	ctx := context.Background()
	store := new(MockSagaStore)
	catalog := new(MockCatalog)
	seating := new(MockSeating)
	payment := new(MockPayment)

	store.On("GetByID", mock.Anything, int64(55)).Return(confirmedOrder(), nil)
	seating.On("ReleaseSeats", mock.Anything, mock.MatchedBy(func(req client.SeatsRequest) bool {
		return req.EventID == 25 && len(req.SeatIDs) == 2
	})).Return(nil)
	payment.On("Refund", mock.Anything, mock.Anything).Return(&client.RefundResult{Success: true}, nil)

	store.On("UpdateOrderWithOutbox", mock.Anything, mock.AnythingOfType("*domain.Order"), mock.AnythingOfType("*outbox.Record")).
		Run(func(args mock.Arguments) {
			order := args.Get(1).(*domain.Order)
			record := args.Get(2).(*outbox.Record)
			assert.Equal(t, domain.OrderStatusRefunded, order.Status)
			assert.Equal(t, domain.PaymentStatusRefunded, order.PaymentStatus)
			assert.Equal(t, domain.EventTypeOrderRefunded, record.EventType)
		}).
		Return(nil)

	orch := newTestOrchestrator(store, catalog, seating, payment)

	order, err := orch.CancelOrder(ctx, 55)

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusRefunded, order.Status)
	store.AssertExpectations(t)
	seating.AssertExpectations(t)
}

func TestOrchestrator_CancelOrder_RefundFailsStillCancels(t *testing.T) {
	ctx := context.Background()
	store := new(MockSagaStore)
	catalog := new(MockCatalog)
	seating := new(MockSeating)
	payment := new(MockPayment)

	store.On("GetByID", mock.Anything, int64(55)).Return(confirmedOrder(), nil)
	seating.On("ReleaseSeats", mock.Anything, mock.Anything).Return(nil)
	payment.On("Refund", mock.Anything, mock.Anything).Return(nil, domain.ErrUpstreamUnavailable)

	store.On("UpdateOrderWithOutbox", mock.Anything, mock.AnythingOfType("*domain.Order"), mock.AnythingOfType("*outbox.Record")).
		Run(func(args mock.Arguments) {
			order := args.Get(1).(*domain.Order)
			record := args.Get(2).(*outbox.Record)
			assert.Equal(t, domain.OrderStatusCancelled, order.Status)
			// payment_status не трогаем: деньги не возвращены.
			assert.Equal(t, domain.PaymentStatusSuccess, order.PaymentStatus)
			assert.Equal(t, domain.EventTypeOrderCancelled, record.EventType)
		}).
		Return(nil)

	orch := newTestOrchestrator(store, catalog, seating, payment)

	order, err := orch.CancelOrder(ctx, 55)

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, order.Status)
	store.AssertExpectations(t)
}

func TestOrchestrator_CancelOrder_Conflicts(t *testing.T) {
	ctx := context.Background()
	store := new(MockSagaStore)
	orch := newTestOrchestrator(store, new(MockCatalog), new(MockSeating), new(MockPayment))

	cancelled := &domain.Order{ID: 1, Status: domain.OrderStatusCancelled}
	store.On("GetByID", mock.Anything, int64(1)).Return(cancelled, nil)
	_, err := orch.CancelOrder(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrAlreadyCancelled)

	refunded := &domain.Order{ID: 2, Status: domain.OrderStatusRefunded}
	store.On("GetByID", mock.Anything, int64(2)).Return(refunded, nil)
	_, err = orch.CancelOrder(ctx, 2)
	assert.ErrorIs(t, err, domain.ErrAlreadyRefunded)

	store.On("GetByID", mock.Anything, int64(3)).Return(nil, domain.ErrOrderNotFound)
	_, err = orch.CancelOrder(ctx, 3)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

// =============================================================================
// HandleEventCancelled
// =============================================================================

func TestOrchestrator_HandleEventCancelled_AllRefunded(t *testing.T) {
	ctx := context.Background()
	store := new(MockSagaStore)
	catalog := new(MockCatalog)
	seating := new(MockSeating)
	payment := new(MockPayment)

	orders := []*domain.Order{
		{ID: 1, UserID: 1, EventID: 77, Status: domain.OrderStatusConfirmed, PaymentStatus: domain.PaymentStatusSuccess, Total: domain.Money(100000)},
		{ID: 2, UserID: 2, EventID: 77, Status: domain.OrderStatusConfirmed, PaymentStatus: domain.PaymentStatusSuccess, Total: domain.Money(200000)},
		{ID: 3, UserID: 3, EventID: 77, Status: domain.OrderStatusConfirmed, PaymentStatus: domain.PaymentStatusSuccess, Total: domain.Money(50000)},
	}
	store.On("GetConfirmedByEvent", mock.Anything, int64(77)).Return(orders, nil)
	payment.On("Refund", mock.Anything, mock.Anything).Return(&client.RefundResult{Success: true}, nil).Times(3)

	seenOrders := make(map[int64]bool)
	store.On("UpdateOrderWithOutbox", mock.Anything, mock.AnythingOfType("*domain.Order"), mock.AnythingOfType("*outbox.Record")).
		Run(func(args mock.Arguments) {
			order := args.Get(1).(*domain.Order)
			record := args.Get(2).(*outbox.Record)
			assert.Equal(t, domain.OrderStatusRefunded, order.Status)
			assert.Equal(t, domain.EventTypeOrderRefunded, record.EventType)
			seenOrders[order.ID] = true
		}).
		Return(nil).Times(3)

	orch := newTestOrchestrator(store, catalog, seating, payment)

	report, err := orch.HandleEventCancelled(ctx, 77, "Отменённый концерт", "отмена площадки")

	require.NoError(t, err)
	assert.Equal(t, 3, report.Success)
	assert.Equal(t, 0, report.Failure)
	assert.Equal(t, domain.Money(350000), report.TotalRefunded)
	// Три события с разными order_id.
	assert.Len(t, seenOrders, 3)
	store.AssertExpectations(t)
	payment.AssertExpectations(t)
}

func TestOrchestrator_HandleEventCancelled_PartialFailure(t *testing.T) {
	ctx := context.Background()
	store := new(MockSagaStore)
	payment := new(MockPayment)

	orders := []*domain.Order{
		{ID: 1, UserID: 1, EventID: 77, Status: domain.OrderStatusConfirmed, PaymentStatus: domain.PaymentStatusSuccess, Total: domain.Money(100000)},
		{ID: 2, UserID: 2, EventID: 77, Status: domain.OrderStatusConfirmed, PaymentStatus: domain.PaymentStatusSuccess, Total: domain.Money(200000)},
	}
	store.On("GetConfirmedByEvent", mock.Anything, int64(77)).Return(orders, nil)

	payment.On("Refund", mock.Anything, mock.MatchedBy(func(req client.RefundRequest) bool {
		return req.OrderID == 1
	})).Return(&client.RefundResult{Success: true}, nil)
	payment.On("Refund", mock.Anything, mock.MatchedBy(func(req client.RefundRequest) bool {
		return req.OrderID == 2
	})).Return(nil, domain.ErrUpstreamUnavailable)

	store.On("UpdateOrderWithOutbox", mock.Anything, mock.AnythingOfType("*domain.Order"), mock.AnythingOfType("*outbox.Record")).
		Return(nil).Once()

	orch := newTestOrchestrator(store, new(MockCatalog), new(MockSeating), payment)

	report, err := orch.HandleEventCancelled(ctx, 77, "Концерт", "")

	require.NoError(t, err)
	assert.Equal(t, 1, report.Success)
	assert.Equal(t, 1, report.Failure)
	assert.Equal(t, domain.Money(100000), report.TotalRefunded)
	store.AssertExpectations(t)
}
