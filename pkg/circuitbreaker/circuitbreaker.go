// Package circuitbreaker предоставляет Circuit Breaker для HTTP-клиентов
// внешних сервисов (payment, seating). Защищает от каскадных сбоев:
// при недоступности сервиса запросы отклоняются мгновенно, без ожидания таймаута.
//
// Состояния:
//   - Closed: нормальная работа, запросы проходят
//   - Open: запросы отклоняются мгновенно
//   - Half-Open: пробный период, пропускаем часть запросов
package circuitbreaker

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"

	"example.com/ticket-orders/pkg/logger"
)

// ErrOpen возвращается при отклонении запроса открытым breaker.
var ErrOpen = errors.New("сервис временно недоступен (circuit breaker открыт)")

// Settings — настройки Circuit Breaker.
type Settings struct {
	MaxRequests  uint32        // Макс. запросов в Half-Open состоянии
	Interval     time.Duration // Интервал сброса счётчика в Closed
	Timeout      time.Duration // Время в Open до перехода в Half-Open
	FailureRatio float64       // Доля ошибок для перехода в Open
	MinRequests  uint32        // Мин. запросов для расчёта ratio
}

// DefaultSettings возвращает настройки по умолчанию.
func DefaultSettings() Settings {
	return Settings{
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

// FailureClassifier решает, учитывать ли ошибку в статистике breaker.
// Бизнес-отказы (место занято, платёж отклонён) не должны открывать breaker —
// только инфраструктурные ошибки.
type FailureClassifier func(err error) bool

// Breaker — обёртка над gobreaker с логированием смены состояний.
type Breaker struct {
	cb        *gobreaker.CircuitBreaker[any]
	name      string
	isFailure FailureClassifier
}

// New создаёт Circuit Breaker с настройками по умолчанию.
// Если classifier == nil, любая ошибка считается сбоем.
func New(name string, classifier FailureClassifier) *Breaker {
	return NewWithSettings(name, DefaultSettings(), classifier)
}

// NewWithSettings создаёт Circuit Breaker с пользовательскими настройками.
func NewWithSettings(name string, s Settings, classifier FailureClassifier) *Breaker {
	if classifier == nil {
		classifier = func(err error) bool { return true }
	}

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= s.FailureRatio
		},

		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log := logger.With().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Logger()

			switch to {
			case gobreaker.StateOpen:
				log.Warn().Msg("Circuit Breaker ОТКРЫТ — сервис недоступен")
			case gobreaker.StateHalfOpen:
				log.Info().Msg("Circuit Breaker ПОЛУОТКРЫТ — пробуем восстановить")
			case gobreaker.StateClosed:
				log.Info().Msg("Circuit Breaker ЗАКРЫТ — сервис восстановлен")
			}
		},
	})

	return &Breaker{cb: cb, name: name, isFailure: classifier}
}

// Do выполняет fn через Circuit Breaker. Ошибки, которые classifier не
// признал сбоем, возвращаются вызывающему, но статистику breaker не портят.
func (b *Breaker) Do(_ context.Context, fn func() error) error {
	var fnErr error

	_, cbErr := b.cb.Execute(func() (any, error) {
		fnErr = fn()
		if fnErr != nil && b.isFailure(fnErr) {
			return nil, fnErr
		}
		return nil, nil
	})

	if errors.Is(cbErr, gobreaker.ErrOpenState) || errors.Is(cbErr, gobreaker.ErrTooManyRequests) {
		return ErrOpen
	}

	return fnErr
}

// State возвращает текущее состояние breaker.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

// Name возвращает имя breaker.
func (b *Breaker) Name() string {
	return b.name
}
