package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"example.com/ticket-orders/internal/service"
	"example.com/ticket-orders/pkg/logger"
)

// WebhookHandler — обработчик входящих webhook каталога.
type WebhookHandler struct {
	orderService service.OrderService
}

// NewWebhookHandler создаёт обработчик webhook.
func NewWebhookHandler(orderService service.OrderService) *WebhookHandler {
	return &WebhookHandler{orderService: orderService}
}

// EventCancelled обрабатывает отмену мероприятия: массовый возврат средств
// по всем подтверждённым заказам.
// POST /api/webhooks/event-cancelled
func (h *WebhookHandler) EventCancelled(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	var req EventCancelledWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debug().Err(err).Msg("Невалидный webhook отмены мероприятия")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message:       "невалидные данные запроса",
			CorrelationID: logger.CorrelationIDFromContext(ctx),
		})
		return
	}

	report, err := h.orderService.HandleEventCancelled(ctx, req.EventID, req.EventTitle, req.Reason)
	if err != nil {
		HandleError(c, err, "EventCancelled")
		return
	}

	log.Info().
		Int64("event_id", req.EventID).
		Int("success", report.Success).
		Int("failure", report.Failure).
		Msg("Webhook отмены мероприятия обработан")

	c.JSON(http.StatusOK, EventCancelledWebhookResponse{
		EventID:       req.EventID,
		Success:       report.Success,
		Failure:       report.Failure,
		TotalRefunded: report.TotalRefunded,
	})
}
