// Package saga реализует оркестрацию покупки билетов: линейную сагу
// CreateOrder с именованными компенсациями, отмену заказа и массовый
// возврат при отмене мероприятия.
package saga

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"example.com/ticket-orders/internal/client"
	"example.com/ticket-orders/internal/domain"
	"example.com/ticket-orders/internal/repository"
	"example.com/ticket-orders/pkg/logger"
	"example.com/ticket-orders/pkg/metrics"
)

// =============================================================================
// Orchestrator — координатор саги покупки билетов
// =============================================================================

// CreateOrderRequest — запрос на создание заказа.
type CreateOrderRequest struct {
	UserID         int64
	EventID        int64
	SeatIDs        []string
	IdempotencyKey string
}

// EventCancellationReport — итог массового возврата после отмены мероприятия.
type EventCancellationReport struct {
	EventID       int64
	Success       int
	Failure       int
	TotalRefunded domain.Money
}

// CatalogCacheInvalidator сбрасывает кэш карточки мероприятия.
type CatalogCacheInvalidator interface {
	Invalidate(ctx context.Context, eventID int64)
}

// Config — параметры саги.
type Config struct {
	// ReservationTTLSeconds — TTL резервации мест: по его истечении
	// seating освобождает места сам, компенсация не требуется.
	ReservationTTLSeconds int

	// TaxRateBasisPoints — налоговая ставка в базисных пунктах.
	TaxRateBasisPoints int64
}

// DefaultConfig возвращает параметры по умолчанию.
func DefaultConfig() Config {
	return Config{
		ReservationTTLSeconds: 900,
		TaxRateBasisPoints:    domain.TaxRateBasisPoints,
	}
}

// Orchestrator координирует распределённую покупку билетов.
// Единственный владелец мутаций Order/Ticket и записей outbox.
type Orchestrator interface {
	// CreateOrder выполняет сагу создания заказа:
	// валидация -> резервирование -> оплата -> выкуп -> билеты -> событие.
	// Возвращает снимок заказа и в терминальных отказах тоже: заказ со
	// статусом CANCELLED — валидный результат, ошибку несёт второй параметр.
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*domain.Order, error)

	// CancelOrder отменяет заказ: освобождает места и возвращает деньги,
	// если оплата прошла.
	CancelOrder(ctx context.Context, orderID int64) (*domain.Order, error)

	// HandleEventCancelled выполняет возврат по всем подтверждённым
	// заказам отменённого мероприятия. Отказ одного возврата не
	// прерывает пакет.
	HandleEventCancelled(ctx context.Context, eventID int64, eventTitle, reason string) (*EventCancellationReport, error)
}

// orchestrator — реализация Orchestrator.
type orchestrator struct {
	store   repository.SagaStore
	catalog client.Catalog
	seating client.Seating
	payment client.Payment
	cache   CatalogCacheInvalidator // опционально
	cfg     Config
}

// NewOrchestrator создаёт координатор саги.
// cache может быть nil — тогда кэш каталога не инвалидируется.
func NewOrchestrator(
	store repository.SagaStore,
	catalog client.Catalog,
	seating client.Seating,
	payment client.Payment,
	cache CatalogCacheInvalidator,
	cfg Config,
) Orchestrator {
	if cfg.ReservationTTLSeconds <= 0 {
		cfg.ReservationTTLSeconds = DefaultConfig().ReservationTTLSeconds
	}
	if cfg.TaxRateBasisPoints <= 0 {
		cfg.TaxRateBasisPoints = DefaultConfig().TaxRateBasisPoints
	}
	return &orchestrator{
		store:   store,
		catalog: catalog,
		seating: seating,
		payment: payment,
		cache:   cache,
		cfg:     cfg,
	}
}

// =============================================================================
// CreateOrder
// =============================================================================

// CreateOrder выполняет сагу создания заказа.
func (o *orchestrator) CreateOrder(ctx context.Context, req CreateOrderRequest) (*domain.Order, error) {
	ctx = ensureCorrelationID(ctx)
	log := logger.FromContext(ctx)

	// Шаг 1: проба идемпотентности. При попадании возвращаем сохранённый
	// снимок без повторения внешних вызовов.
	if req.IdempotencyKey != "" {
		existing, err := o.store.GetByIdempotencyKey(ctx, req.IdempotencyKey)
		if err == nil {
			log.Info().
				Int64("order_id", existing.ID).
				Str("idempotency_key", req.IdempotencyKey).
				Msg("Повторный запрос: возвращаем существующий заказ")
			return existing, nil
		}
		if !errors.Is(err, domain.ErrOrderNotFound) {
			return nil, fmt.Errorf("ошибка пробы идемпотентности: %w", err)
		}
	}

	// Шаг 2: валидация запроса.
	if req.UserID <= 0 {
		return nil, domain.ErrInvalidUserID
	}
	if err := domain.ValidateSeatIDs(req.SeatIDs); err != nil {
		return nil, err
	}

	// Шаг 3: валидация мероприятия.
	event, err := o.catalog.GetEvent(ctx, req.EventID)
	if err != nil {
		return nil, err
	}
	if !event.Sellable() {
		log.Warn().
			Int64("event_id", req.EventID).
			Str("event_status", event.Status).
			Msg("Продажи по мероприятию закрыты")
		return nil, fmt.Errorf("статус мероприятия %s: %w", event.Status, domain.ErrEventNotSellable)
	}

	// Шаг 4: валидация мест и сбор цен.
	seats, err := o.seating.GetSeats(ctx, req.EventID)
	if err != nil {
		return nil, err
	}
	priceBySeat := make(map[string]domain.Money, len(seats))
	for _, seat := range seats {
		priceBySeat[seat.SeatID] = seat.Price
	}
	for _, seatID := range req.SeatIDs {
		if _, ok := priceBySeat[seatID]; !ok {
			return nil, fmt.Errorf("место %s: %w", seatID, domain.ErrSeatNotFound)
		}
	}

	// Шаг 5: резервирование мест с TTL.
	if _, err := o.seating.ReserveSeats(ctx, client.ReserveSeatsRequest{
		EventID:    req.EventID,
		SeatIDs:    req.SeatIDs,
		UserID:     req.UserID,
		TTLSeconds: o.cfg.ReservationTTLSeconds,
	}); err != nil {
		// Считаются все неудачи резервирования: и отказ рассадки,
		// и транспортные сбои.
		metrics.SeatReservationsFailed.Inc()
		return nil, err
	}

	// Шаг 6: расчёт итога. subtotal + налог, округление half away from zero.
	var subtotal domain.Money
	for _, seatID := range req.SeatIDs {
		subtotal = subtotal.Add(priceBySeat[seatID])
	}
	total := subtotal.Add(subtotal.TaxAt(o.cfg.TaxRateBasisPoints))

	// Шаг 7: сохранение заказа в CREATED/PENDING.
	order := &domain.Order{
		UserID:         req.UserID,
		EventID:        req.EventID,
		Status:         domain.OrderStatusCreated,
		PaymentStatus:  domain.PaymentStatusPending,
		Total:          total,
		IdempotencyKey: req.IdempotencyKey,
	}
	if err := o.store.CreateOrder(ctx, order); err != nil {
		if errors.Is(err, domain.ErrDuplicateOrder) {
			// Гонка по ключу идемпотентности: победителя перечитываем,
			// свою резервацию отпускаем (иначе она висит до TTL).
			o.releaseSeats(ctx, req.EventID, req.UserID, req.SeatIDs)
			winner, readErr := o.store.GetByIdempotencyKey(ctx, req.IdempotencyKey)
			if readErr != nil {
				return nil, fmt.Errorf("ошибка перечитывания заказа после гонки: %w", readErr)
			}
			log.Info().
				Int64("order_id", winner.ID).
				Msg("Гонка по ключу идемпотентности: возвращаем заказ победителя")
			return winner, nil
		}
		return nil, fmt.Errorf("ошибка сохранения заказа: %w", err)
	}

	log.Info().
		Int64("order_id", order.ID).
		Int64("event_id", req.EventID).
		Str("total", total.String()).
		Int("seats", len(req.SeatIDs)).
		Msg("Заказ создан, начинаем оплату")

	// Шаг 8: оплата.
	chargeKey := req.IdempotencyKey
	if chargeKey == "" {
		chargeKey = uuid.NewString()
	}
	chargeResult, chargeErr := o.payment.Charge(ctx, client.ChargeRequest{
		OrderID:        order.ID,
		UserID:         order.UserID,
		Amount:         order.Total,
		IdempotencyKey: chargeKey,
	})

	if chargeErr != nil {
		// Транспортная ошибка или отмена запроса: списание могло пройти
		// на стороне платёжного сервиса. Пробуем вернуть деньги
		// (возврат по неуспешному списанию безопасен), затем отменяем.
		log.Error().Err(chargeErr).Int64("order_id", order.ID).Msg("Ошибка вызова платёжного сервиса")
		o.tryRefundQuietly(ctx, order, "сбой вызова платёжного сервиса")
		return o.releaseAndCancel(ctx, order, req, fmt.Sprintf("сбой платёжного сервиса: %v", chargeErr))
	}

	if !chargeResult.Success {
		// Окончательный отказ платежа.
		return o.releaseAndCancel(ctx, order, req, chargeResult.Message)
	}

	// Шаг 9: выкуп мест и подтверждение.
	return o.allocateAndConfirm(ctx, order, req, event.Title, priceBySeat)
}

// allocateAndConfirm выполняет пост-платёжную часть саги. Любая ошибка
// здесь — после успешного списания, поэтому компенсация — возврат средств.
// priceBySeat — цены мест на момент резервирования, они же цены билетов.
func (o *orchestrator) allocateAndConfirm(ctx context.Context, order *domain.Order, req CreateOrderRequest, eventTitle string, priceBySeat map[string]domain.Money) (*domain.Order, error) {
	log := logger.FromContext(ctx)

	if err := o.seating.AllocateSeats(ctx, client.SeatsRequest{
		EventID: req.EventID,
		UserID:  req.UserID,
		SeatIDs: req.SeatIDs,
	}); err != nil {
		log.Error().Err(err).Int64("order_id", order.ID).Msg("Ошибка выкупа мест после оплаты")
		return o.compensatePayment(ctx, order, fmt.Sprintf("ошибка выкупа мест: %v", err))
	}

	if err := order.Confirm(); err != nil {
		return o.compensatePayment(ctx, order, fmt.Sprintf("недопустимый переход статуса: %v", err))
	}

	tickets := make([]domain.Ticket, len(req.SeatIDs))
	for i, seatID := range req.SeatIDs {
		tickets[i] = domain.Ticket{
			OrderID:   order.ID,
			EventID:   order.EventID,
			SeatID:    seatID,
			PricePaid: priceBySeat[seatID],
		}
	}

	record, err := newOrderConfirmedRecord(ctx, order, eventTitle, req.SeatIDs)
	if err != nil {
		return o.compensatePayment(ctx, order, fmt.Sprintf("ошибка сборки события: %v", err))
	}

	if err := o.store.ConfirmOrderWithTickets(ctx, order, tickets, record); err != nil {
		log.Error().Err(err).Int64("order_id", order.ID).Msg("Ошибка фиксации подтверждения заказа")
		// Фиксация не прошла: заказ в БД остался CREATED.
		order.Status = domain.OrderStatusCreated
		order.PaymentStatus = domain.PaymentStatusPending
		return o.compensatePayment(ctx, order, fmt.Sprintf("ошибка фиксации подтверждения: %v", err))
	}

	metrics.OrdersTotal.WithLabelValues(string(order.Status)).Inc()
	log.Info().
		Int64("order_id", order.ID).
		Int("tickets", len(order.Tickets)).
		Msg("Заказ подтверждён, билеты выданы")
	return order, nil
}

// compensatePayment — компенсация после успешного списания: возврат средств.
// При успехе возврата заказ уходит в REFUNDED, при отказе — в терминальный
// PAYMENT_COMPLETED_BUT_FULFILLMENT_FAILED с алертом оператору.
func (o *orchestrator) compensatePayment(ctx context.Context, order *domain.Order, reason string) (*domain.Order, error) {
	log := logger.FromContext(ctx)

	refundResult, refundErr := o.payment.Refund(ctx, client.RefundRequest{
		OrderID: order.ID,
		Amount:  order.Total,
		Reason:  reason,
	})

	if refundErr != nil || !refundResult.Success {
		order.MarkFulfillmentFailed(reason)
		if err := o.store.UpdateOrderWithOutbox(ctx, order, nil); err != nil {
			log.Error().Err(err).Int64("order_id", order.ID).Msg("Ошибка сохранения статуса fulfillment failed")
		}
		metrics.OrdersTotal.WithLabelValues(string(order.Status)).Inc()

		// Алерт оператору: деньги списаны, состояние не разрешено.
		alert := log.Error().
			Int64("order_id", order.ID).
			Int64("user_id", order.UserID).
			Str("total", order.Total.String()).
			Str("reason", reason)
		if refundErr != nil {
			alert = alert.AnErr("refund_error", refundErr)
		} else {
			alert = alert.Str("refund_message", refundResult.Message)
		}
		alert.Msg("ОПЕРАТОР: оплата прошла, выдача билетов и возврат не удались")

		return order, fmt.Errorf("%s: %w", reason, domain.ErrFulfillmentFailed)
	}

	if err := order.Refund(); err != nil {
		return order, err
	}
	record, err := newOrderRefundedRecord(ctx, order, reason)
	if err != nil {
		return order, fmt.Errorf("ошибка сборки события возврата: %w", err)
	}
	if err := o.store.UpdateOrderWithOutbox(ctx, order, record); err != nil {
		return order, fmt.Errorf("ошибка сохранения возврата: %w", err)
	}

	metrics.OrdersTotal.WithLabelValues(string(order.Status)).Inc()
	log.Warn().
		Int64("order_id", order.ID).
		Str("reason", reason).
		Msg("Выдача билетов не удалась, средства возвращены")

	return order, fmt.Errorf("%s: %w", reason, domain.ErrFulfillmentFailed)
}

// releaseAndCancel — компенсация при отказе оплаты: освобождение мест
// (best-effort) и отмена заказа с событием OrderCancelled.
func (o *orchestrator) releaseAndCancel(ctx context.Context, order *domain.Order, req CreateOrderRequest, failureMessage string) (*domain.Order, error) {
	log := logger.FromContext(ctx)

	o.releaseSeats(ctx, req.EventID, req.UserID, req.SeatIDs)

	if err := order.CancelPaymentFailed(failureMessage); err != nil {
		return order, err
	}
	metrics.PaymentsFailedTotal.Inc()

	record, err := newOrderCancelledRecord(ctx, order, failureMessage)
	if err != nil {
		return order, fmt.Errorf("ошибка сборки события отмены: %w", err)
	}
	if err := o.store.UpdateOrderWithOutbox(ctx, order, record); err != nil {
		return order, fmt.Errorf("ошибка сохранения отмены заказа: %w", err)
	}

	metrics.OrdersTotal.WithLabelValues(string(order.Status)).Inc()
	log.Warn().
		Int64("order_id", order.ID).
		Str("message", failureMessage).
		Msg("Оплата отклонена, заказ отменён")

	return order, fmt.Errorf("%s: %w", failureMessage, domain.ErrPaymentFailed)
}

// =============================================================================
// CancelOrder
// =============================================================================

// CancelOrder отменяет заказ по запросу пользователя.
func (o *orchestrator) CancelOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	ctx = ensureCorrelationID(ctx)
	log := logger.FromContext(ctx)

	order, err := o.store.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch order.Status {
	case domain.OrderStatusCancelled:
		return nil, domain.ErrAlreadyCancelled
	case domain.OrderStatusRefunded:
		return nil, domain.ErrAlreadyRefunded
	}

	// Освобождаем места выданных билетов (best-effort).
	if seatIDs := order.SeatIDs(); len(seatIDs) > 0 {
		o.releaseSeats(ctx, order.EventID, order.UserID, seatIDs)
	}

	const reason = "отмена по запросу пользователя"

	if order.PaymentStatus == domain.PaymentStatusSuccess {
		refundResult, refundErr := o.payment.Refund(ctx, client.RefundRequest{
			OrderID: order.ID,
			Amount:  order.Total,
			Reason:  reason,
		})

		if refundErr == nil && refundResult.Success {
			if err := order.Refund(); err != nil {
				return nil, err
			}
			record, err := newOrderRefundedRecord(ctx, order, reason)
			if err != nil {
				return nil, fmt.Errorf("ошибка сборки события возврата: %w", err)
			}
			if err := o.store.UpdateOrderWithOutbox(ctx, order, record); err != nil {
				return nil, fmt.Errorf("ошибка сохранения возврата: %w", err)
			}
			log.Info().Int64("order_id", order.ID).Msg("Заказ отменён, средства возвращены")
			return order, nil
		}

		// Возврат не прошёл: заказ отменяем, payment_status не трогаем.
		prevPaymentStatus := order.PaymentStatus
		if err := order.Cancel(reason); err != nil {
			return nil, err
		}
		order.PaymentStatus = prevPaymentStatus

		record, err := newOrderCancelledRecord(ctx, order, reason)
		if err != nil {
			return nil, fmt.Errorf("ошибка сборки события отмены: %w", err)
		}
		if err := o.store.UpdateOrderWithOutbox(ctx, order, record); err != nil {
			return nil, fmt.Errorf("ошибка сохранения отмены: %w", err)
		}

		alert := log.Error().Int64("order_id", order.ID).Str("total", order.Total.String())
		if refundErr != nil {
			alert = alert.AnErr("refund_error", refundErr)
		} else {
			alert = alert.Str("refund_message", refundResult.Message)
		}
		alert.Msg("ОПЕРАТОР: заказ отменён, но возврат средств не удался")
		return order, nil
	}

	if err := order.Cancel(reason); err != nil {
		return nil, err
	}
	record, err := newOrderCancelledRecord(ctx, order, reason)
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки события отмены: %w", err)
	}
	if err := o.store.UpdateOrderWithOutbox(ctx, order, record); err != nil {
		return nil, fmt.Errorf("ошибка сохранения отмены: %w", err)
	}

	log.Info().Int64("order_id", order.ID).Msg("Заказ отменён")
	return order, nil
}

// =============================================================================
// HandleEventCancelled
// =============================================================================

// HandleEventCancelled выполняет массовый возврат по отменённому мероприятию.
func (o *orchestrator) HandleEventCancelled(ctx context.Context, eventID int64, eventTitle, reason string) (*EventCancellationReport, error) {
	ctx = ensureCorrelationID(ctx)
	log := logger.FromContext(ctx)

	if o.cache != nil {
		o.cache.Invalidate(ctx, eventID)
	}

	orders, err := o.store.GetConfirmedByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения заказов мероприятия: %w", err)
	}

	if reason == "" {
		reason = fmt.Sprintf("мероприятие %q отменено", eventTitle)
	}

	report := &EventCancellationReport{EventID: eventID}
	for _, order := range orders {
		if err := o.refundCancelledEventOrder(ctx, order, reason); err != nil {
			report.Failure++
			log.Error().Err(err).Int64("order_id", order.ID).Msg("Возврат по отменённому мероприятию не удался")
			continue
		}
		report.Success++
		report.TotalRefunded = report.TotalRefunded.Add(order.Total)
	}

	log.Info().
		Int64("event_id", eventID).
		Int("success", report.Success).
		Int("failure", report.Failure).
		Str("total_refunded", report.TotalRefunded.String()).
		Msg("Массовый возврат по отменённому мероприятию завершён")

	return report, nil
}

// refundCancelledEventOrder возвращает деньги по одному заказу пакета.
func (o *orchestrator) refundCancelledEventOrder(ctx context.Context, order *domain.Order, reason string) error {
	refundResult, err := o.payment.Refund(ctx, client.RefundRequest{
		OrderID: order.ID,
		Amount:  order.Total,
		Reason:  reason,
	})
	if err != nil {
		return err
	}
	if !refundResult.Success {
		return fmt.Errorf("возврат отклонён: %s", refundResult.Message)
	}

	if err := order.Refund(); err != nil {
		return err
	}
	record, err := newOrderRefundedRecord(ctx, order, reason)
	if err != nil {
		return fmt.Errorf("ошибка сборки события возврата: %w", err)
	}
	return o.store.UpdateOrderWithOutbox(ctx, order, record)
}

// =============================================================================
// Вспомогательные методы
// =============================================================================

// releaseSeats освобождает места. Best-effort: ошибка логируется и глушится.
func (o *orchestrator) releaseSeats(ctx context.Context, eventID, userID int64, seatIDs []string) {
	if err := o.seating.ReleaseSeats(ctx, client.SeatsRequest{
		EventID: eventID,
		UserID:  userID,
		SeatIDs: seatIDs,
	}); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().
			Err(err).
			Int64("event_id", eventID).
			Strs("seat_ids", seatIDs).
			Msg("Не удалось освободить места, резервация истечёт по TTL")
	}
}

// tryRefundQuietly — best-effort возврат при неопределённом исходе списания.
func (o *orchestrator) tryRefundQuietly(ctx context.Context, order *domain.Order, reason string) {
	result, err := o.payment.Refund(ctx, client.RefundRequest{
		OrderID: order.ID,
		Amount:  order.Total,
		Reason:  reason,
	})
	log := logger.FromContext(ctx)
	if err != nil {
		log.Warn().Err(err).Int64("order_id", order.ID).Msg("Страховочный возврат не выполнен")
		return
	}
	if !result.Success {
		log.Debug().Int64("order_id", order.ID).Str("message", result.Message).Msg("Страховочный возврат: возвращать нечего")
	}
}

// ensureCorrelationID гарантирует наличие correlation_id в контексте.
func ensureCorrelationID(ctx context.Context) context.Context {
	if logger.CorrelationIDFromContext(ctx) != "" {
		return ctx
	}
	return logger.WithCorrelationID(ctx, uuid.NewString())
}
