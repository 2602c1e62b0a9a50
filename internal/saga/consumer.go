package saga

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"example.com/ticket-orders/pkg/kafka"
	"example.com/ticket-orders/pkg/logger"
)

// EventCancelledMessage — сообщение каталога об отмене мероприятия
// из топика catalog.event.cancelled. Дублирует payload webhook-а:
// оба пути сходятся в HandleEventCancelled, который идемпотентен
// (повторная обработка не находит подтверждённых заказов).
type EventCancelledMessage struct {
	EventID     int64     `json:"event_id"`
	EventTitle  string    `json:"event_title"`
	CancelledAt time.Time `json:"cancelled_at"`
	Reason      string    `json:"reason"`
}

// EventCancelledConsumer слушает события отмены мероприятий и запускает
// массовый возврат средств.
type EventCancelledConsumer struct {
	consumer     *kafka.Consumer
	orchestrator Orchestrator
}

// NewEventCancelledConsumer создаёт consumer отмен мероприятий.
func NewEventCancelledConsumer(consumer *kafka.Consumer, orchestrator Orchestrator) *EventCancelledConsumer {
	return &EventCancelledConsumer{
		consumer:     consumer,
		orchestrator: orchestrator,
	}
}

// Run запускает чтение с повторами. Блокирует до отмены контекста.
func (c *EventCancelledConsumer) Run(ctx context.Context) error {
	return c.consumer.ConsumeWithRetry(ctx, c.handle, 3)
}

// handle обрабатывает одно сообщение об отмене мероприятия.
func (c *EventCancelledConsumer) handle(ctx context.Context, msg *kafka.Message) error {
	var event EventCancelledMessage
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("ошибка разбора сообщения об отмене мероприятия: %w", err)
	}
	if event.EventID <= 0 {
		return fmt.Errorf("некорректный event_id в сообщении об отмене: %d", event.EventID)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Int64("event_id", event.EventID).
		Str("event_title", event.EventTitle).
		Msg("Получено событие отмены мероприятия")

	report, err := c.orchestrator.HandleEventCancelled(ctx, event.EventID, event.EventTitle, event.Reason)
	if err != nil {
		return err
	}

	// Частичные отказы не считаются ошибкой обработки сообщения:
	// отказавшие заказы остаются CONFIRMED и разрешаются оператором
	// через CancelOrder.
	if report.Failure > 0 {
		log.Error().
			Int64("event_id", event.EventID).
			Int("failure", report.Failure).
			Msg("Часть возвратов по отменённому мероприятию не прошла")
	}

	return nil
}
