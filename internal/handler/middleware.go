package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"example.com/ticket-orders/pkg/logger"
)

// HeaderCorrelationID — заголовок сквозного идентификатора запроса.
const HeaderCorrelationID = "X-Correlation-ID"

// CorrelationMiddleware устанавливает correlation_id запроса:
// принимает входящий X-Correlation-ID или генерирует новый, кладёт его
// в контекст и возвращает в заголовке ответа. trace_id берётся из
// otel span, если трейсинг включён.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader(HeaderCorrelationID)
		if correlationID == "" {
			correlationID = uuid.NewString()
		}

		traceID := ""
		if span := trace.SpanFromContext(c.Request.Context()); span.SpanContext().HasTraceID() {
			traceID = span.SpanContext().TraceID().String()
		}

		ctx := logger.NewContextWithIDs(c.Request.Context(), traceID, correlationID)
		c.Request = c.Request.WithContext(ctx)

		c.Header(HeaderCorrelationID, correlationID)
		c.Next()
	}
}
