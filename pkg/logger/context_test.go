package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// FromContext возвращает значение zerolog.Logger: перед вызовом уровневых
// методов его присваивают переменной.
func TestFromContext_EnrichesWithIDs(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), zerolog.New(&buf))
	ctx = WithTraceID(ctx, "trace-1")
	ctx = WithCorrelationID(ctx, "corr-1")

	log := FromContext(ctx)
	log.Warn().Int64("order_id", 101).Msg("проверка обогащения")

	out := buf.String()
	require.NotEmpty(t, out)
	assert.Contains(t, out, `"trace_id":"trace-1"`)
	assert.Contains(t, out, `"correlation_id":"corr-1"`)
	assert.Contains(t, out, `"order_id":101`)
}

func TestFromContext_FallsBackToGlobal(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger()
	SetGlobalLogger(zerolog.New(&buf))
	t.Cleanup(func() { SetGlobalLogger(prev) })

	log := FromContext(context.Background())
	log.Error().Msg("глобальный логгер")

	assert.Contains(t, buf.String(), "глобальный логгер")
}

func TestIDsFromContext_Empty(t *testing.T) {
	ctx := context.Background()

	assert.Empty(t, TraceIDFromContext(ctx))
	assert.Empty(t, CorrelationIDFromContext(ctx))
}
