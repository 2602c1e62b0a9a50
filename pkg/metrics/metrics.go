// Package metrics предоставляет Prometheus метрики сервиса заказов.
//
// Типы метрик:
//   - Counter: только растёт (заказы, отказы) — "сколько всего произошло"
//   - Histogram: распределение значений (latency) — "как быстро работает"
//
// Доменные счётчики инкрементирует оркестратор саги, HTTP-метрики
// собирает GinMetricsMiddleware, endpoint /metrics отдаёт Handler().
package metrics

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// =============================================================================
// Доменные метрики саги
// =============================================================================

var (
	// OrdersTotal — количество созданных заказов по итоговому статусу.
	// Инкрементируется на каждый неидемпотентный CreateOrder, сохранивший заказ.
	// PromQL пример: sum(rate(orders_total[5m])) by (status)
	OrdersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_total",
			Help: "Количество созданных заказов по итоговому статусу",
		},
		[]string{"status"},
	)

	// PaymentsFailedTotal — количество окончательных отказов платёжного сервиса.
	PaymentsFailedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "payments_failed_total",
			Help: "Количество окончательных отказов оплаты",
		},
	)

	// SeatReservationsFailed — количество неудачных резервирований мест.
	SeatReservationsFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seat_reservations_failed",
			Help: "Количество отказов резервирования мест",
		},
	)
)

// =============================================================================
// HTTP метрики
// =============================================================================

var (
	// RequestsTotal — счётчик HTTP запросов.
	// PromQL пример: rate(requests_total{status="error"}[5m])
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "requests_total",
			Help: "Общее количество запросов по методу и статусу",
		},
		[]string{"method", "status"},
	)

	// RequestDuration — гистограмма latency запросов.
	// PromQL пример: histogram_quantile(0.95, rate(request_duration_seconds_bucket[5m]))
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "request_duration_seconds",
			Help: "Время выполнения запроса в секундах",
			// Buckets от 5ms до 10s под типичные API вызовы
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method"},
	)
)

// RecordRequest записывает метрики одного HTTP запроса.
func RecordRequest(method, status string, duration time.Duration) {
	RequestsTotal.WithLabelValues(method, status).Inc()
	RequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// GinMetricsMiddleware возвращает Gin middleware для сбора HTTP метрик.
func GinMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := "success"
		if c.Writer.Status() >= 400 {
			status = "error"
		}

		RecordRequest(c.FullPath(), status, time.Since(start))
	}
}

// Handler возвращает HTTP handler для endpoint /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
