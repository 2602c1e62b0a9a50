// Package config предоставляет загрузку конфигурации из переменных окружения.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config содержит полную конфигурацию сервиса заказов.
type Config struct {
	App      AppConfig
	HTTP     HTTPConfig
	MySQL    MySQLConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Services ServicesConfig
	Seat     SeatConfig
	Tax      TaxConfig
	Outbox   OutboxConfig
	Jaeger   JaegerConfig
}

// AppConfig содержит общие настройки приложения.
type AppConfig struct {
	Name      string `env:"APP_NAME" envDefault:"ticket-orders"`
	Env       string `env:"APP_ENV" envDefault:"development"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`
}

// HTTPConfig содержит настройки HTTP сервера.
type HTTPConfig struct {
	Port         int           `env:"HTTP_PORT" envDefault:"8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"35s"`
}

// Addr возвращает адрес HTTP сервера.
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// MySQLConfig содержит настройки подключения к MySQL.
type MySQLConfig struct {
	Host            string        `env:"MYSQL_HOST" envDefault:"localhost"`
	Port            int           `env:"MYSQL_PORT" envDefault:"3306"`
	User            string        `env:"MYSQL_USER" envDefault:"root"`
	Password        string        `env:"MYSQL_PASSWORD" envDefault:"root"`
	Database        string        `env:"MYSQL_DATABASE" envDefault:"ticket_orders"`
	MaxOpenConns    int           `env:"MYSQL_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"MYSQL_MAX_IDLE_CONNS" envDefault:"10"`
	ConnMaxLifetime time.Duration `env:"MYSQL_CONN_MAX_LIFETIME" envDefault:"5m"`
}

// DSN возвращает строку подключения к MySQL.
// parseTime и loc=UTC — timestamps храним и читаем в UTC.
func (c MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// RedisConfig содержит настройки подключения к Redis (кэш каталога).
type RedisConfig struct {
	Host     string `env:"REDIS_HOST" envDefault:"localhost"`
	Port     int    `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// Addr возвращает адрес Redis сервера.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// KafkaConfig содержит настройки подписки на события каталога.
// Enabled=false отключает consumer — отмена мероприятий тогда приходит
// только через webhook.
type KafkaConfig struct {
	Enabled       bool     `env:"KAFKA_ENABLED" envDefault:"true"`
	Brokers       []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	ConsumerGroup string   `env:"KAFKA_CONSUMER_GROUP" envDefault:"ticket-orders"`
}

// ServicesConfig содержит базовые URL внешних сервисов.
// Каждый клиент использует общий таймаут ClientTimeout на запрос.
type ServicesConfig struct {
	CatalogURL      string        `env:"SERVICES_CATALOG_URL,required"`
	SeatingURL      string        `env:"SERVICES_SEATING_URL,required"`
	PaymentURL      string        `env:"SERVICES_PAYMENT_URL,required"`
	NotificationURL string        `env:"SERVICES_NOTIFICATION_URL,required"`
	ClientTimeout   time.Duration `env:"SERVICES_CLIENT_TIMEOUT" envDefault:"30s"`
	CatalogCacheTTL time.Duration `env:"SERVICES_CATALOG_CACHE_TTL" envDefault:"30s"`
}

// SeatConfig содержит настройки резервирования мест.
type SeatConfig struct {
	// ReservationTTLSeconds — время жизни резервации; по его истечении
	// seating-сервис освобождает места самостоятельно.
	ReservationTTLSeconds int `env:"SEAT_RESERVATION_TTL_SECONDS" envDefault:"900"`
}

// TaxConfig содержит налоговую ставку.
type TaxConfig struct {
	// RateBasisPoints — ставка в базисных пунктах: 500 = 5%.
	// Базисные пункты вместо float — денежная арифметика остаётся целочисленной.
	RateBasisPoints int64 `env:"TAX_RATE_BP" envDefault:"500"`
}

// OutboxConfig содержит настройки диспетчера outbox.
type OutboxConfig struct {
	DispatchInterval time.Duration `env:"OUTBOX_DISPATCH_INTERVAL" envDefault:"60s"`
	BatchSize        int           `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`
	Concurrency      int           `env:"OUTBOX_CONCURRENCY" envDefault:"8"`
}

// JaegerConfig содержит настройки трассировки.
type JaegerConfig struct {
	Enabled  bool   `env:"JAEGER_ENABLED" envDefault:"false"`
	Host     string `env:"JAEGER_HOST" envDefault:"localhost"`
	OTLPPort int    `env:"JAEGER_OTLP_PORT" envDefault:"4317"`
}

// OTLPEndpoint возвращает OTLP gRPC endpoint.
func (c JaegerConfig) OTLPEndpoint() string {
	return fmt.Sprintf("%s:%d", c.Host, c.OTLPPort)
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подхватывает .env файл, если он существует.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("ошибка парсинга конфигурации: %w", err)
	}

	return cfg, nil
}

// IsDevelopment возвращает true в development режиме.
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}
