package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/ticket-orders/internal/domain"
	"example.com/ticket-orders/pkg/outbox"
)

func TestNotification_Send(t *testing.T) {
	var got notificationEvent
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/events", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	record := outbox.NewRecord(
		domain.AggregateTypeOrder,
		"101",
		domain.EventTypeOrderConfirmed,
		[]byte(`{"order_id":101}`),
		"corr-1",
	)

	notification := NewNotification(srv.URL, 5*time.Second)

	err := notification.Send(context.Background(), record)

	require.NoError(t, err)
	assert.Equal(t, record.ID, got.EventID)
	assert.Equal(t, "Order", got.AggregateType)
	assert.Equal(t, "101", got.AggregateID)
	assert.Equal(t, domain.EventTypeOrderConfirmed, got.EventType)
	assert.Equal(t, "corr-1", got.CorrelationID)
	assert.JSONEq(t, `{"order_id":101}`, string(got.Payload))
}

func TestNotification_Send_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	record := outbox.NewRecord(domain.AggregateTypeOrder, "101", domain.EventTypeOrderConfirmed, []byte(`{}`), "corr-1")
	notification := NewNotification(srv.URL, 5*time.Second)

	err := notification.Send(context.Background(), record)

	// Ошибка доставки — запись останется в outbox до следующего тика.
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}
