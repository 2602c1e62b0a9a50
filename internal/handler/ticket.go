package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"example.com/ticket-orders/internal/service"
)

// TicketHandler — обработчик билетов.
type TicketHandler struct {
	ticketService service.TicketService
}

// NewTicketHandler создаёт обработчик билетов.
func NewTicketHandler(ticketService service.TicketService) *TicketHandler {
	return &TicketHandler{ticketService: ticketService}
}

// GetTicket возвращает билет по ID.
// GET /v1/tickets/:id
func (h *TicketHandler) GetTicket(c *gin.Context) {
	ticketID, ok := pathID(c, "id")
	if !ok {
		return
	}

	ticket, err := h.ticketService.GetTicket(c.Request.Context(), ticketID)
	if err != nil {
		HandleError(c, err, "GetTicket")
		return
	}

	c.JSON(http.StatusOK, ticketToResponse(ticket))
}

// ListByOrder возвращает билеты заказа.
// GET /v1/tickets/order/:order_id
func (h *TicketHandler) ListByOrder(c *gin.Context) {
	orderID, ok := pathID(c, "order_id")
	if !ok {
		return
	}

	tickets, err := h.ticketService.ListByOrder(c.Request.Context(), orderID)
	if err != nil {
		HandleError(c, err, "ListByOrder")
		return
	}

	c.JSON(http.StatusOK, ticketsToResponse(tickets))
}

// ListByEvent возвращает билеты мероприятия.
// GET /v1/tickets/event/:event_id
func (h *TicketHandler) ListByEvent(c *gin.Context) {
	eventID, ok := pathID(c, "event_id")
	if !ok {
		return
	}

	tickets, err := h.ticketService.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		HandleError(c, err, "ListByEvent")
		return
	}

	c.JSON(http.StatusOK, ticketsToResponse(tickets))
}
