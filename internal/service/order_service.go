// Package service содержит бизнес-логику поверх репозиториев и саги.
package service

import (
	"context"
	"errors"
	"fmt"

	"example.com/ticket-orders/internal/domain"
	"example.com/ticket-orders/internal/repository"
	"example.com/ticket-orders/internal/saga"
	"example.com/ticket-orders/pkg/logger"
)

// Константы для валидации пагинации.
const (
	defaultPage     = 1
	defaultPageSize = 50
	maxPageSize     = 100
	minPageSize     = 1
)

// OrderService определяет интерфейс бизнес-логики заказов.
type OrderService interface {
	// CreateOrder запускает сагу создания заказа.
	// При повторе с тем же idempotency_key возвращает сохранённый заказ.
	CreateOrder(ctx context.Context, req saga.CreateOrderRequest) (*domain.Order, error)

	// GetOrder возвращает заказ с билетами по ID.
	GetOrder(ctx context.Context, orderID int64) (*domain.Order, error)

	// ListByUser возвращает заказы пользователя, новые первыми.
	ListByUser(ctx context.Context, userID int64) ([]*domain.Order, error)

	// ListByEvent возвращает заказы мероприятия, новые первыми.
	ListByEvent(ctx context.Context, eventID int64) ([]*domain.Order, error)

	// List возвращает страницу заказов.
	// Возвращает список, общее количество и нормализованные page/pageSize.
	List(ctx context.Context, page, pageSize int) ([]*domain.Order, int64, int, int, error)

	// CancelOrder отменяет заказ с возвратом средств, если он был оплачен.
	CancelOrder(ctx context.Context, orderID int64) (*domain.Order, error)

	// Statistics возвращает агрегаты по всем заказам.
	Statistics(ctx context.Context) (*repository.OrderStatistics, error)

	// HandleEventCancelled выполняет массовый возврат по отменённому мероприятию.
	HandleEventCancelled(ctx context.Context, eventID int64, eventTitle, reason string) (*saga.EventCancellationReport, error)
}

// orderService — реализация OrderService.
type orderService struct {
	repo         repository.OrderRepository
	orchestrator saga.Orchestrator
}

// NewOrderService создаёт сервис заказов.
func NewOrderService(repo repository.OrderRepository, orchestrator saga.Orchestrator) OrderService {
	return &orderService{
		repo:         repo,
		orchestrator: orchestrator,
	}
}

// CreateOrder запускает сагу создания заказа.
func (s *orderService) CreateOrder(ctx context.Context, req saga.CreateOrderRequest) (*domain.Order, error) {
	return s.orchestrator.CreateOrder(ctx, req)
}

// GetOrder возвращает заказ по ID.
func (s *orderService) GetOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	log := logger.FromContext(ctx)

	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			log.Debug().
				Int64("order_id", orderID).
				Msg("Заказ не найден")
			return nil, err
		}
		log.Error().
			Err(err).
			Int64("order_id", orderID).
			Msg("Ошибка получения заказа")
		return nil, fmt.Errorf("ошибка получения заказа: %w", err)
	}

	return order, nil
}

// ListByUser возвращает заказы пользователя.
func (s *orderService) ListByUser(ctx context.Context, userID int64) ([]*domain.Order, error) {
	orders, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().
			Err(err).
			Int64("user_id", userID).
			Msg("Ошибка получения заказов пользователя")
		return nil, fmt.Errorf("ошибка получения заказов пользователя: %w", err)
	}
	return orders, nil
}

// ListByEvent возвращает заказы мероприятия.
func (s *orderService) ListByEvent(ctx context.Context, eventID int64) ([]*domain.Order, error) {
	orders, err := s.repo.ListByEvent(ctx, eventID)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().
			Err(err).
			Int64("event_id", eventID).
			Msg("Ошибка получения заказов мероприятия")
		return nil, fmt.Errorf("ошибка получения заказов мероприятия: %w", err)
	}
	return orders, nil
}

// List возвращает страницу заказов с нормализованной пагинацией.
func (s *orderService) List(ctx context.Context, page, pageSize int) ([]*domain.Order, int64, int, int, error) {
	log := logger.FromContext(ctx)

	page = normalizePage(page)
	pageSize = normalizePageSize(pageSize)
	offset := (page - 1) * pageSize

	orders, total, err := s.repo.List(ctx, offset, pageSize)
	if err != nil {
		log.Error().
			Err(err).
			Int("page", page).
			Int("page_size", pageSize).
			Msg("Ошибка получения списка заказов")
		return nil, 0, page, pageSize, fmt.Errorf("ошибка получения списка заказов: %w", err)
	}

	log.Debug().
		Int("page", page).
		Int("page_size", pageSize).
		Int64("total", total).
		Int("returned", len(orders)).
		Msg("Список заказов получен")

	return orders, total, page, pageSize, nil
}

// CancelOrder отменяет заказ через сагу.
func (s *orderService) CancelOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	return s.orchestrator.CancelOrder(ctx, orderID)
}

// Statistics возвращает агрегаты по заказам.
func (s *orderService) Statistics(ctx context.Context) (*repository.OrderStatistics, error) {
	stats, err := s.repo.Statistics(ctx)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().
			Err(err).
			Msg("Ошибка получения статистики заказов")
		return nil, fmt.Errorf("ошибка получения статистики заказов: %w", err)
	}
	return stats, nil
}

// HandleEventCancelled выполняет массовый возврат по отменённому мероприятию.
func (s *orderService) HandleEventCancelled(ctx context.Context, eventID int64, eventTitle, reason string) (*saga.EventCancellationReport, error) {
	return s.orchestrator.HandleEventCancelled(ctx, eventID, eventTitle, reason)
}

// normalizePage нормализует номер страницы. Возвращает минимум 1.
func normalizePage(page int) int {
	if page < 1 {
		return defaultPage
	}
	return page
}

// normalizePageSize зажимает размер страницы в диапазон
// [minPageSize, maxPageSize]. Значение по умолчанию подставляет хендлер
// при отсутствии параметра.
func normalizePageSize(pageSize int) int {
	if pageSize < minPageSize {
		return minPageSize
	}
	if pageSize > maxPageSize {
		return maxPageSize
	}
	return pageSize
}
