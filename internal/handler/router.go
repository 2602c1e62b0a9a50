package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"example.com/ticket-orders/pkg/metrics"
)

// RouterConfig — зависимости HTTP роутера.
type RouterConfig struct {
	OrderHandler   *OrderHandler
	TicketHandler  *TicketHandler
	WebhookHandler *WebhookHandler

	// ReadyCheck проверяет готовность зависимостей для /health/ready.
	// nil означает "всегда готов".
	ReadyCheck func(context.Context) error

	// ServiceName используется в именах otel span.
	ServiceName string

	// TracingEnabled включает otelgin middleware.
	TracingEnabled bool
}

// NewRouter собирает Gin engine со всеми маршрутами сервиса.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	if cfg.TracingEnabled {
		router.Use(otelgin.Middleware(cfg.ServiceName))
	}
	router.Use(CorrelationMiddleware())
	router.Use(metrics.GinMetricsMiddleware())

	// Заказы
	ordersAPI := router.Group("/api/v1/orders")
	{
		ordersAPI.POST("", cfg.OrderHandler.CreateOrder)
		ordersAPI.GET("", cfg.OrderHandler.List)
		ordersAPI.GET("/statistics", cfg.OrderHandler.Statistics)
		ordersAPI.GET("/user/:user_id", cfg.OrderHandler.ListByUser)
		ordersAPI.GET("/event/:event_id", cfg.OrderHandler.ListByEvent)
		ordersAPI.GET("/:id", cfg.OrderHandler.GetOrder)
		ordersAPI.POST("/:id/cancel", cfg.OrderHandler.CancelOrder)
	}

	// Билеты
	ticketsAPI := router.Group("/v1/tickets")
	{
		ticketsAPI.GET("/order/:order_id", cfg.TicketHandler.ListByOrder)
		ticketsAPI.GET("/event/:event_id", cfg.TicketHandler.ListByEvent)
		ticketsAPI.GET("/:id", cfg.TicketHandler.GetTicket)
	}

	// Webhooks
	router.POST("/api/webhooks/event-cancelled", cfg.WebhookHandler.EventCancelled)

	// Служебные endpoints
	router.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/health/ready", func(c *gin.Context) {
		if cfg.ReadyCheck != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
			defer cancel()
			if err := cfg.ReadyCheck(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	return router
}
