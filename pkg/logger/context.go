package logger

import (
	"context"

	"github.com/rs/zerolog"
)

// Приватный тип ключей контекста защищает от коллизий с другими пакетами.
type ctxKey string

const (
	traceIDKey       ctxKey = "trace_id"
	correlationIDKey ctxKey = "correlation_id"
	loggerKey        ctxKey = "logger"
)

// WithTraceID добавляет trace_id в контекст.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceIDFromContext извлекает trace_id из контекста.
// Возвращает пустую строку, если trace_id не установлен.
func TraceIDFromContext(ctx context.Context) string {
	if traceID, ok := ctx.Value(traceIDKey).(string); ok {
		return traceID
	}
	return ""
}

// WithCorrelationID добавляет correlation_id в контекст.
// Correlation ID связывает все операции одного бизнес-запроса:
// HTTP-вызовы внешних сервисов, записи outbox, события и строки логов.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKey, correlationID)
}

// CorrelationIDFromContext извлекает correlation_id из контекста.
// Возвращает пустую строку, если correlation_id не установлен.
func CorrelationIDFromContext(ctx context.Context) string {
	if correlationID, ok := ctx.Value(correlationIDKey).(string); ok {
		return correlationID
	}
	return ""
}

// WithLogger добавляет настроенный логгер в контекст.
func WithLogger(ctx context.Context, l zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext извлекает логгер из контекста, обогащая его trace_id и
// correlation_id, если те присутствуют. Если логгер в контекст не клали,
// используется глобальный. Основной способ получить логгер в хендлерах,
// саге и клиентах:
//
//	log := logger.FromContext(ctx)
//	log.Info().Int64("order_id", orderID).Msg("Заказ подтверждён")
func FromContext(ctx context.Context) zerolog.Logger {
	l := log
	if ctxLogger, ok := ctx.Value(loggerKey).(zerolog.Logger); ok {
		l = ctxLogger
	}

	if traceID := TraceIDFromContext(ctx); traceID != "" {
		l = l.With().Str("trace_id", traceID).Logger()
	}
	if correlationID := CorrelationIDFromContext(ctx); correlationID != "" {
		l = l.With().Str("correlation_id", correlationID).Logger()
	}

	return l
}

// NewContextWithIDs добавляет в контекст непустые trace_id и correlation_id.
// Используется на входных точках: HTTP middleware и kafka consumer.
func NewContextWithIDs(ctx context.Context, traceID, correlationID string) context.Context {
	if traceID != "" {
		ctx = WithTraceID(ctx, traceID)
	}
	if correlationID != "" {
		ctx = WithCorrelationID(ctx, correlationID)
	}
	return ctx
}
