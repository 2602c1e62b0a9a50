// Package kafka предоставляет обёртки над kafka-go для подписки на события
// каталога мероприятий. Включает Consumer с повторами и DLQ.
package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"example.com/ticket-orders/pkg/logger"
)

// Топики, с которыми работает сервис заказов.
const (
	// TopicEventCancelled — события отмены мероприятий от каталога.
	TopicEventCancelled = "catalog.event.cancelled"

	// TopicDLQ — Dead Letter Queue для необработанных сообщений.
	TopicDLQ = "dlq.ticket-orders"
)

// Ключи headers сообщений Kafka.
const (
	HeaderTraceID       = "trace_id"
	HeaderCorrelationID = "correlation_id"
	HeaderTimestamp     = "timestamp"
)

// Config содержит настройки подключения к Kafka.
type Config struct {
	// Brokers — список адресов брокеров.
	Brokers []string

	// ConsumerGroup — имя consumer group.
	ConsumerGroup string
}

// Message представляет сообщение Kafka с метаданными.
type Message struct {
	Key       []byte
	Value     []byte
	Topic     string
	Partition int
	Offset    int64
	Headers   map[string]string
	Time      time.Time
}

func fromKafkaMessage(m kafka.Message) *Message {
	headers := make(map[string]string, len(m.Headers))
	for _, h := range m.Headers {
		headers[h.Key] = string(h.Value)
	}

	return &Message{
		Key:       m.Key,
		Value:     m.Value,
		Topic:     m.Topic,
		Partition: m.Partition,
		Offset:    m.Offset,
		Headers:   headers,
		Time:      m.Time,
	}
}

func (m *Message) toKafkaMessage() kafka.Message {
	headers := make([]kafka.Header, 0, len(m.Headers))
	for k, v := range m.Headers {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}

	return kafka.Message{
		Key:     m.Key,
		Value:   m.Value,
		Topic:   m.Topic,
		Headers: headers,
		Time:    m.Time,
	}
}

// contextFromHeaders переносит trace_id и correlation_id из headers сообщения
// в контекст, чтобы логи обработчика связывались с исходным запросом.
func contextFromHeaders(ctx context.Context, msg *Message) context.Context {
	if traceID, ok := msg.Headers[HeaderTraceID]; ok {
		ctx = logger.WithTraceID(ctx, traceID)
	}
	if correlationID, ok := msg.Headers[HeaderCorrelationID]; ok {
		ctx = logger.WithCorrelationID(ctx, correlationID)
	}
	return ctx
}
