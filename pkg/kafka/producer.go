package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"example.com/ticket-orders/pkg/logger"
)

// Producer отправляет сообщения в Kafka. Сервису заказов он нужен только
// для DLQ — основная рассылка событий идёт через outbox и notification.
type Producer struct {
	writer *kafka.Writer
	cfg    Config
}

// NewProducer создаёт Producer.
func NewProducer(cfg Config) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("не указаны брокеры Kafka")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	logger.Info().
		Strs("brokers", cfg.Brokers).
		Msg("Создан Kafka Producer")

	return &Producer{writer: writer, cfg: cfg}, nil
}

// SendMessage отправляет подготовленный Message, дополняя headers
// идентификаторами из контекста.
func (p *Producer) SendMessage(ctx context.Context, msg *Message) error {
	if msg.Headers == nil {
		msg.Headers = make(map[string]string)
	}

	if _, ok := msg.Headers[HeaderTraceID]; !ok {
		if traceID := logger.TraceIDFromContext(ctx); traceID != "" {
			msg.Headers[HeaderTraceID] = traceID
		}
	}
	if _, ok := msg.Headers[HeaderCorrelationID]; !ok {
		if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
			msg.Headers[HeaderCorrelationID] = correlationID
		}
	}
	if _, ok := msg.Headers[HeaderTimestamp]; !ok {
		msg.Headers[HeaderTimestamp] = time.Now().UTC().Format(time.RFC3339Nano)
	}

	if err := p.writer.WriteMessages(ctx, msg.toKafkaMessage()); err != nil {
		logger.Error().
			Err(err).
			Str("topic", msg.Topic).
			Str("key", string(msg.Key)).
			Msg("Ошибка отправки сообщения в Kafka")
		return fmt.Errorf("ошибка отправки в Kafka: %w", err)
	}

	logger.Debug().
		Str("topic", msg.Topic).
		Str("key", string(msg.Key)).
		Msg("Сообщение отправлено в Kafka")

	return nil
}

// SendToDLQ отправляет сообщение в Dead Letter Queue с информацией об ошибке.
func (p *Producer) SendToDLQ(ctx context.Context, originalMsg *Message, processingError error) error {
	headers := make(map[string]string, len(originalMsg.Headers)+3)
	for k, v := range originalMsg.Headers {
		headers[k] = v
	}
	headers["dlq_error"] = processingError.Error()
	headers["dlq_original_topic"] = originalMsg.Topic
	headers["dlq_timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)

	return p.SendMessage(ctx, &Message{
		Topic:   TopicDLQ,
		Key:     originalMsg.Key,
		Value:   originalMsg.Value,
		Headers: headers,
		Time:    time.Now(),
	})
}

// Close закрывает соединение с Kafka.
func (p *Producer) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("ошибка закрытия producer: %w", err)
	}
	logger.Info().Msg("Kafka Producer закрыт")
	return nil
}
