// Сервис заказов билетной платформы: saga-оркестрация покупки билетов,
// транзакционный outbox и REST API заказов и билетов.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"example.com/ticket-orders/internal/client"
	"example.com/ticket-orders/internal/handler"
	"example.com/ticket-orders/internal/repository"
	"example.com/ticket-orders/internal/saga"
	"example.com/ticket-orders/internal/service"
	"example.com/ticket-orders/pkg/config"
	"example.com/ticket-orders/pkg/db"
	"example.com/ticket-orders/pkg/healthcheck"
	"example.com/ticket-orders/pkg/kafka"
	"example.com/ticket-orders/pkg/logger"
	"example.com/ticket-orders/pkg/outbox"
	"example.com/ticket-orders/pkg/tracing"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка загрузки конфигурации: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	logger.Init(logger.Config{
		Level:  cfg.App.LogLevel,
		Pretty: cfg.App.LogPretty,
	})

	log := logger.With().Str("service", cfg.App.Name).Logger()

	log.Info().
		Str("env", cfg.App.Env).
		Int("port", cfg.HTTP.Port).
		Msg("Запуск сервиса заказов")

	// Tracing
	shutdownTracer, err := tracing.InitTracer(tracing.Config{
		ServiceName:    cfg.App.Name,
		JaegerEndpoint: cfg.Jaeger.OTLPEndpoint(),
		Enabled:        cfg.Jaeger.Enabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Ошибка инициализации tracing")
	}

	// Подключаемся к MySQL
	gormDB, err := db.ConnectMySQL(cfg.MySQL, cfg.IsDevelopment())
	if err != nil {
		log.Fatal().Err(err).Msg("Ошибка подключения к MySQL")
	}
	log.Info().Msg("Подключение к MySQL установлено")

	// Миграция схемы: заказы, билеты, outbox
	if err := gormDB.AutoMigrate(
		&repository.OrderModel{},
		&repository.TicketModel{},
		&outbox.Model{},
	); err != nil {
		log.Fatal().Err(err).Msg("Ошибка миграции схемы БД")
	}

	// Подключаемся к Redis (кэш каталога)
	rdb := db.ConnectRedis(cfg.Redis)

	// Клиенты внешних сервисов
	catalogClient := client.NewCatalog(cfg.Services.CatalogURL, cfg.Services.ClientTimeout)
	cachedCatalog := client.NewCachedCatalog(catalogClient, rdb, cfg.Services.CatalogCacheTTL)
	seatingClient := client.NewSeating(cfg.Services.SeatingURL, cfg.Services.ClientTimeout)
	paymentClient := client.NewPayment(cfg.Services.PaymentURL, cfg.Services.ClientTimeout)
	notificationClient := client.NewNotification(cfg.Services.NotificationURL, cfg.Services.ClientTimeout)

	// Слои приложения
	outboxRepo := outbox.NewRepository(gormDB)
	sagaStore := repository.NewSagaStore(gormDB, outboxRepo)
	orderRepo := repository.NewOrderRepository(gormDB)
	ticketRepo := repository.NewTicketRepository(gormDB)

	orchestrator := saga.NewOrchestrator(sagaStore, cachedCatalog, seatingClient, paymentClient, cachedCatalog, saga.Config{
		ReservationTTLSeconds: cfg.Seat.ReservationTTLSeconds,
		TaxRateBasisPoints:    cfg.Tax.RateBasisPoints,
	})

	orderService := service.NewOrderService(orderRepo, orchestrator)
	ticketService := service.NewTicketService(ticketRepo)

	// Корневой контекст фоновых воркеров
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Диспетчер outbox: доставляет события в notification-сервис
	dispatcher := outbox.NewDispatcher(outboxRepo, notificationClient, outbox.DispatcherConfig{
		Interval:    cfg.Outbox.DispatchInterval,
		BatchSize:   cfg.Outbox.BatchSize,
		Concurrency: cfg.Outbox.Concurrency,
	})
	go dispatcher.Run(ctx)

	// Kafka consumer отмен мероприятий (опционально)
	var eventConsumer *kafka.Consumer
	if cfg.Kafka.Enabled {
		kafkaCfg := kafka.Config{
			Brokers:       cfg.Kafka.Brokers,
			ConsumerGroup: cfg.Kafka.ConsumerGroup,
		}

		eventConsumer, err = kafka.NewConsumer(kafkaCfg, kafka.TopicEventCancelled, cfg.Kafka.ConsumerGroup)
		if err != nil {
			log.Fatal().Err(err).Msg("Ошибка создания Kafka consumer")
		}

		dlqProducer, err := kafka.NewProducer(kafkaCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Ошибка создания Kafka producer для DLQ")
		}
		eventConsumer.SetDLQProducer(dlqProducer)

		cancelledConsumer := saga.NewEventCancelledConsumer(eventConsumer, orchestrator)
		go func() {
			if err := cancelledConsumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("Kafka consumer завершился с ошибкой")
			}
		}()
	}

	// HTTP сервер
	router := handler.NewRouter(handler.RouterConfig{
		OrderHandler:   handler.NewOrderHandler(orderService),
		TicketHandler:  handler.NewTicketHandler(ticketService),
		WebhookHandler: handler.NewWebhookHandler(orderService),
		ReadyCheck: healthcheck.Composite(
			healthcheck.MySQL(gormDB),
			healthcheck.Redis(rdb),
		),
		ServiceName:    cfg.App.Name,
		TracingEnabled: cfg.Jaeger.Enabled,
	})

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("HTTP сервер запущен")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Ошибка HTTP сервера")
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Получен сигнал завершения, останавливаем сервис...")

	// Останавливаем фоновые воркеры
	cancel()

	// Graceful shutdown HTTP сервера
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Ошибка остановки HTTP сервера")
	}

	if eventConsumer != nil {
		if err := eventConsumer.Close(); err != nil {
			log.Error().Err(err).Msg("Ошибка закрытия Kafka consumer")
		}
	}

	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Msg("Ошибка закрытия Redis")
	}

	if sqlDB, err := gormDB.DB(); err == nil && sqlDB != nil {
		if err := sqlDB.Close(); err != nil {
			log.Error().Err(err).Msg("Ошибка закрытия MySQL")
		}
	}

	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Ошибка остановки tracing")
	}

	log.Info().Msg("Сервис заказов остановлен")
}
