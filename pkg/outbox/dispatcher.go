package outbox

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"example.com/ticket-orders/pkg/logger"
)

// Sender доставляет одно событие outbox получателю (notification-сервис).
// Ошибка означает, что доставку нужно повторить на следующем тике.
type Sender interface {
	Send(ctx context.Context, record *Record) error
}

// DispatcherConfig — настройки фонового диспетчера outbox.
type DispatcherConfig struct {
	// Interval — интервал между проходами по таблице outbox.
	Interval time.Duration

	// BatchSize — количество записей за один проход.
	BatchSize int

	// Concurrency — максимум параллельных доставок внутри одного прохода.
	Concurrency int

	// MaxRetries — лимит попыток доставки. Записи с исчерпанным лимитом
	// остаются в таблице с dispatched_at = NULL и last_error (dead letter),
	// но выборкой больше не возвращаются.
	MaxRetries int
}

// DefaultDispatcherConfig возвращает конфигурацию по умолчанию.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		Interval:    60 * time.Second,
		BatchSize:   100,
		Concurrency: 8,
		MaxRetries:  5,
	}
}

// cleanupInterval — интервал очистки разосланных записей.
const cleanupInterval = 1 * time.Hour

// cleanupRetention — срок хранения разосланных записей.
const cleanupRetention = 7 * 24 * time.Hour

// Dispatcher периодически читает неразосланные записи outbox и доставляет
// их через Sender. Гарантия — at-least-once: запись помечается разосланной
// только после успешной доставки, получатель обязан быть идемпотентным.
type Dispatcher struct {
	repo   Repository
	sender Sender
	cfg    DispatcherConfig

	// inFlight защищает от наложения проходов: если предыдущий проход
	// ещё не завершился, очередной тик пропускается.
	inFlight atomic.Bool
}

// NewDispatcher создаёт диспетчер outbox.
func NewDispatcher(repo Repository, sender Sender, cfg DispatcherConfig) *Dispatcher {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultDispatcherConfig().Interval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultDispatcherConfig().BatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultDispatcherConfig().Concurrency
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultDispatcherConfig().MaxRetries
	}
	return &Dispatcher{
		repo:   repo,
		sender: sender,
		cfg:    cfg,
	}
}

// Run запускает диспетчер: первый проход сразу, дальше по тикеру.
// Блокирует выполнение до отмены контекста.
func (d *Dispatcher) Run(ctx context.Context) {
	log := logger.FromContext(ctx)
	log.Info().
		Dur("interval", d.cfg.Interval).
		Int("batch_size", d.cfg.BatchSize).
		Int("concurrency", d.cfg.Concurrency).
		Msg("Запуск диспетчера outbox")

	d.Dispatch(ctx)

	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	cleanupTicker := time.NewTicker(cleanupInterval)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Остановка диспетчера outbox")
			return
		case <-ticker.C:
			d.Dispatch(ctx)
		case <-cleanupTicker.C:
			d.cleanupDispatched(ctx)
		}
	}
}

// Dispatch выполняет один проход: читает пачку неразосланных записей и
// доставляет их параллельно с ограничением Concurrency.
func (d *Dispatcher) Dispatch(ctx context.Context) {
	log := logger.FromContext(ctx)

	if !d.inFlight.CompareAndSwap(false, true) {
		log.Warn().Msg("Проход outbox пропущен: предыдущий ещё выполняется")
		return
	}
	defer d.inFlight.Store(false)

	records, err := d.repo.GetUndispatched(ctx, d.cfg.BatchSize, d.cfg.MaxRetries)
	if err != nil {
		log.Error().Err(err).Msg("Ошибка чтения outbox")
		return
	}
	if len(records) == 0 {
		return
	}

	log.Debug().Int("count", len(records)).Msg("Рассылка записей outbox")

	sem := make(chan struct{}, d.cfg.Concurrency)
	var wg sync.WaitGroup

	for _, record := range records {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(record *Record) {
			defer wg.Done()
			defer func() { <-sem }()
			d.dispatchOne(ctx, record)
		}(record)
	}

	wg.Wait()
}

// dispatchOne доставляет одну запись и обновляет её статус.
func (d *Dispatcher) dispatchOne(ctx context.Context, record *Record) {
	ctx = logger.WithCorrelationID(ctx, record.CorrelationID)
	log := logger.FromContext(ctx)

	if err := d.sender.Send(ctx, record); err != nil {
		log.Error().
			Err(err).
			Str("outbox_id", record.ID).
			Str("event_type", record.EventType).
			Msg("Ошибка доставки события outbox")

		if markErr := d.repo.MarkFailed(ctx, record.ID, err); markErr != nil {
			log.Error().Err(markErr).Str("outbox_id", record.ID).Msg("Ошибка пометки outbox как failed")
		}

		// Dead letter: запись с исчерпанным лимитом выпадает из выборки,
		// dispatched_at остаётся NULL, last_error хранит причину. Возврат
		// в очередь — ручной сброс retry_count оператором.
		if record.RetryCount+1 >= d.cfg.MaxRetries {
			log.Warn().
				Str("outbox_id", record.ID).
				Str("event_type", record.EventType).
				Str("aggregate_id", record.AggregateID).
				Int("retry_count", record.RetryCount+1).
				Msg("Dead letter: исчерпан лимит попыток доставки")
		}
		return
	}

	if err := d.repo.MarkDispatched(ctx, record.ID); err != nil {
		log.Error().Err(err).Str("outbox_id", record.ID).Msg("Ошибка пометки outbox как разосланной")
		return
	}

	log.Debug().
		Str("outbox_id", record.ID).
		Str("event_type", record.EventType).
		Msg("Событие outbox доставлено")
}

// cleanupDispatched удаляет разосланные записи старше срока хранения.
func (d *Dispatcher) cleanupDispatched(ctx context.Context) {
	log := logger.FromContext(ctx)

	before := time.Now().UTC().Add(-cleanupRetention)
	deleted, err := d.repo.DeleteDispatchedBefore(ctx, before)
	if err != nil {
		log.Error().Err(err).Msg("Ошибка очистки outbox")
		return
	}

	if deleted > 0 {
		log.Info().Int64("deleted", deleted).Msg("Очистка разосланных записей outbox")
	}
}
