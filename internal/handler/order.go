package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"example.com/ticket-orders/internal/saga"
	"example.com/ticket-orders/internal/service"
	"example.com/ticket-orders/pkg/logger"
)

// OrderHandler — обработчик заказов.
type OrderHandler struct {
	orderService service.OrderService
}

// NewOrderHandler создаёт обработчик заказов.
func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// CreateOrder создаёт новый заказ через сагу.
// POST /api/v1/orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debug().Err(err).Msg("Невалидный запрос на создание заказа")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message:       "невалидные данные запроса",
			CorrelationID: logger.CorrelationIDFromContext(ctx),
		})
		return
	}

	order, err := h.orderService.CreateOrder(ctx, saga.CreateOrderRequest{
		UserID:         req.UserID,
		EventID:        req.EventID,
		SeatIDs:        req.SeatIDs,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		HandleError(c, err, "CreateOrder")
		return
	}

	log.Info().
		Int64("order_id", order.ID).
		Int64("user_id", order.UserID).
		Int64("event_id", order.EventID).
		Str("status", string(order.Status)).
		Msg("Заказ создан")

	c.JSON(http.StatusCreated, orderToResponse(order))
}

// GetOrder возвращает заказ по ID.
// GET /api/v1/orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		HandleError(c, err, "GetOrder")
		return
	}

	c.JSON(http.StatusOK, orderToResponse(order))
}

// ListByUser возвращает заказы пользователя.
// GET /api/v1/orders/user/:user_id
func (h *OrderHandler) ListByUser(c *gin.Context) {
	userID, ok := pathID(c, "user_id")
	if !ok {
		return
	}

	orders, err := h.orderService.ListByUser(c.Request.Context(), userID)
	if err != nil {
		HandleError(c, err, "ListByUser")
		return
	}

	c.JSON(http.StatusOK, ordersToResponse(orders))
}

// ListByEvent возвращает заказы мероприятия.
// GET /api/v1/orders/event/:event_id
func (h *OrderHandler) ListByEvent(c *gin.Context) {
	eventID, ok := pathID(c, "event_id")
	if !ok {
		return
	}

	orders, err := h.orderService.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		HandleError(c, err, "ListByEvent")
		return
	}

	c.JSON(http.StatusOK, ordersToResponse(orders))
}

// List возвращает страницу заказов.
// GET /api/v1/orders?page=1&pageSize=50
func (h *OrderHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "50"))

	orders, total, page, pageSize, err := h.orderService.List(c.Request.Context(), page, pageSize)
	if err != nil {
		HandleError(c, err, "List")
		return
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	c.JSON(http.StatusOK, ListOrdersResponse{
		Data: ordersToResponse(orders),
		Pagination: PaginationResponse{
			CurrentPage: page,
			PageSize:    pageSize,
			TotalItems:  total,
			TotalPages:  totalPages,
		},
	})
}

// CancelOrder отменяет заказ с возвратом средств, если он был оплачен.
// POST /api/v1/orders/:id/cancel
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	ctx := c.Request.Context()

	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.CancelOrder(ctx, orderID)
	if err != nil {
		HandleError(c, err, "CancelOrder")
		return
	}

	log := logger.FromContext(ctx)
	log.Info().
		Int64("order_id", order.ID).
		Str("status", string(order.Status)).
		Msg("Заказ отменён")

	c.JSON(http.StatusOK, orderToResponse(order))
}

// Statistics возвращает агрегаты по заказам.
// GET /api/v1/orders/statistics
func (h *OrderHandler) Statistics(c *gin.Context) {
	stats, err := h.orderService.Statistics(c.Request.Context())
	if err != nil {
		HandleError(c, err, "Statistics")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// pathID извлекает числовой идентификатор из path-параметра.
// При невалидном значении отправляет 400 и возвращает false.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message:       "некорректный идентификатор: " + name,
			CorrelationID: logger.CorrelationIDFromContext(c.Request.Context()),
		})
		return 0, false
	}
	return id, true
}
