package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"example.com/ticket-orders/pkg/logger"
)

// MessageHandler — функция обработки сообщения. Контекст уже обогащён
// trace_id и correlation_id из headers.
type MessageHandler func(ctx context.Context, msg *Message) error

// Consumer читает сообщения из топика и передаёт их обработчику.
// Graceful shutdown через отмену контекста.
type Consumer struct {
	reader   *kafka.Reader
	producer *Producer // для отправки в DLQ, опционально
	topic    string
}

// NewConsumer создаёт Consumer. Несколько инстансов с одним groupID
// распределяют партиции между собой.
func NewConsumer(cfg Config, topic, groupID string) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("не указаны брокеры Kafka")
	}
	if topic == "" {
		return nil, fmt.Errorf("не указан топик")
	}
	if groupID == "" {
		return nil, fmt.Errorf("не указан group ID")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        100 * time.Millisecond,
		CommitInterval: time.Second,
		StartOffset:    kafka.LastOffset,
	})

	logger.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", topic).
		Str("group_id", groupID).
		Msg("Создан Kafka Consumer")

	return &Consumer{reader: reader, topic: topic}, nil
}

// SetDLQProducer устанавливает Producer для отправки ошибочных сообщений в DLQ.
func (c *Consumer) SetDLQProducer(p *Producer) {
	c.producer = p
}

// Consume запускает чтение сообщений. Блокирует до отмены контекста.
// Offset коммитится независимо от результата обработки: ошибочные
// сообщения уходят в DLQ, а не блокируют партицию.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	logger.Info().Str("topic", c.topic).Msg("Запуск чтения сообщений из Kafka")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Str("topic", c.topic).Msg("Остановка Kafka Consumer")
			return ctx.Err()
		default:
		}

		kafkaMsg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			logger.Error().Err(err).Str("topic", c.topic).Msg("Ошибка чтения сообщения из Kafka")
			continue
		}
		msg := fromKafkaMessage(kafkaMsg)

		if err := c.processMessage(ctx, msg, handler); err != nil {
			logger.Error().
				Err(err).
				Str("topic", c.topic).
				Str("key", string(msg.Key)).
				Int("partition", msg.Partition).
				Int64("offset", msg.Offset).
				Msg("Ошибка обработки сообщения")

			if c.producer != nil {
				if dlqErr := c.producer.SendToDLQ(ctx, msg, err); dlqErr != nil {
					logger.Error().Err(dlqErr).Msg("Ошибка отправки в DLQ")
				}
			}
		}

		if err := c.commitMessage(ctx, msg); err != nil {
			logger.Error().Err(err).Msg("Ошибка коммита offset")
		}
	}
}

// ConsumeWithRetry запускает чтение с повторами обработки каждого сообщения.
// После maxRetries неудачных попыток сообщение уходит в DLQ.
func (c *Consumer) ConsumeWithRetry(ctx context.Context, handler MessageHandler, maxRetries int) error {
	retryHandler := func(ctx context.Context, msg *Message) error {
		var lastErr error
		for attempt := 0; attempt <= maxRetries; attempt++ {
			if attempt > 0 {
				// Экспоненциальная задержка: 100ms, 200ms, 400ms...
				delay := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
				logger.Warn().
					Int("attempt", attempt).
					Str("key", string(msg.Key)).
					Dur("delay", delay).
					Msg("Повторная попытка обработки сообщения")

				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(delay):
				}
			}

			if err := handler(ctx, msg); err != nil {
				lastErr = err
				continue
			}
			return nil
		}
		return fmt.Errorf("исчерпаны попытки обработки: %w", lastErr)
	}

	return c.Consume(ctx, retryHandler)
}

func (c *Consumer) processMessage(ctx context.Context, msg *Message, handler MessageHandler) error {
	msgCtx := contextFromHeaders(ctx, msg)

	log := logger.FromContext(msgCtx)
	log.Debug().
		Str("topic", msg.Topic).
		Str("key", string(msg.Key)).
		Int("partition", msg.Partition).
		Int64("offset", msg.Offset).
		Msg("Получено сообщение из Kafka")

	return handler(msgCtx, msg)
}

func (c *Consumer) commitMessage(ctx context.Context, msg *Message) error {
	return c.reader.CommitMessages(ctx, kafka.Message{
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
	})
}

// Close закрывает Consumer.
func (c *Consumer) Close() error {
	if err := c.reader.Close(); err != nil {
		return fmt.Errorf("ошибка закрытия consumer: %w", err)
	}
	logger.Info().Str("topic", c.topic).Msg("Kafka Consumer закрыт")
	return nil
}
