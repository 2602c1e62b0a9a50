package service

import (
	"context"
	"errors"
	"fmt"

	"example.com/ticket-orders/internal/domain"
	"example.com/ticket-orders/internal/repository"
	"example.com/ticket-orders/pkg/logger"
)

// TicketService определяет интерфейс чтения билетов.
// Билеты создаются только сагой при подтверждении заказа.
type TicketService interface {
	// GetTicket возвращает билет по ID.
	GetTicket(ctx context.Context, ticketID int64) (*domain.Ticket, error)

	// ListByOrder возвращает билеты заказа.
	ListByOrder(ctx context.Context, orderID int64) ([]*domain.Ticket, error)

	// ListByEvent возвращает билеты мероприятия.
	ListByEvent(ctx context.Context, eventID int64) ([]*domain.Ticket, error)
}

// ticketService — реализация TicketService.
type ticketService struct {
	repo repository.TicketRepository
}

// NewTicketService создаёт сервис билетов.
func NewTicketService(repo repository.TicketRepository) TicketService {
	return &ticketService{repo: repo}
}

// GetTicket возвращает билет по ID.
func (s *ticketService) GetTicket(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	log := logger.FromContext(ctx)

	ticket, err := s.repo.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, domain.ErrTicketNotFound) {
			log.Debug().
				Int64("ticket_id", ticketID).
				Msg("Билет не найден")
			return nil, err
		}
		log.Error().
			Err(err).
			Int64("ticket_id", ticketID).
			Msg("Ошибка получения билета")
		return nil, fmt.Errorf("ошибка получения билета: %w", err)
	}

	return ticket, nil
}

// ListByOrder возвращает билеты заказа.
func (s *ticketService) ListByOrder(ctx context.Context, orderID int64) ([]*domain.Ticket, error) {
	tickets, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().
			Err(err).
			Int64("order_id", orderID).
			Msg("Ошибка получения билетов заказа")
		return nil, fmt.Errorf("ошибка получения билетов заказа: %w", err)
	}
	return tickets, nil
}

// ListByEvent возвращает билеты мероприятия.
func (s *ticketService) ListByEvent(ctx context.Context, eventID int64) ([]*domain.Ticket, error) {
	tickets, err := s.repo.ListByEvent(ctx, eventID)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().
			Err(err).
			Int64("event_id", eventID).
			Msg("Ошибка получения билетов мероприятия")
		return nil, fmt.Errorf("ошибка получения билетов мероприятия: %w", err)
	}
	return tickets, nil
}
