package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"example.com/ticket-orders/internal/domain"
	"example.com/ticket-orders/pkg/logger"
)

// ErrorResponse — стандартный формат ошибки API.
// correlation_id позволяет сопоставить ответ со строками логов и событиями.
type ErrorResponse struct {
	Message       string `json:"message"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// HandleError преобразует доменную ошибку в HTTP ответ.
// Используется всеми handlers для единообразной обработки ошибок:
// валидация и бизнес-отказы — 400, не найдено — 404, остальное — 500.
func HandleError(c *gin.Context, err error, method string) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)
	correlationID := logger.CorrelationIDFromContext(ctx)

	// Guard: nil ошибка — баг в вызывающем коде.
	if err == nil {
		log.Error().Str("method", method).Msg("HandleError вызван с nil ошибкой — баг в коде")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message:       "внутренняя ошибка сервера",
			CorrelationID: correlationID,
		})
		return
	}

	switch {
	case isBusinessError(err):
		log.Warn().Err(err).Str("method", method).Msg("Бизнес-отказ")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message:       businessMessage(err),
			CorrelationID: correlationID,
		})

	case isNotFoundError(err):
		log.Debug().Err(err).Str("method", method).Msg("Ресурс не найден")
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message:       err.Error(),
			CorrelationID: correlationID,
		})

	default:
		// Сюда попадают ErrUpstreamUnavailable, ErrFulfillmentFailed
		// и инфраструктурные ошибки.
		log.Error().Err(err).Str("method", method).Msg("Внутренняя ошибка")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message:       "внутренняя ошибка сервера",
			CorrelationID: correlationID,
		})
	}
}

// isBusinessError отличает отказы валидации и бизнес-правил,
// которые клиент может исправить, от инфраструктурных сбоев.
func isBusinessError(err error) bool {
	for _, target := range []error{
		domain.ErrInvalidUserID,
		domain.ErrEmptySeatList,
		domain.ErrDuplicateSeatID,
		domain.ErrEventNotSellable,
		domain.ErrSeatUnavailable,
		domain.ErrSeatNotFound,
		domain.ErrPaymentFailed,
		domain.ErrAlreadyCancelled,
		domain.ErrAlreadyRefunded,
		domain.ErrOrderStateTransition,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// isNotFoundError — отсутствующие сущности.
func isNotFoundError(err error) bool {
	return errors.Is(err, domain.ErrOrderNotFound) ||
		errors.Is(err, domain.ErrTicketNotFound) ||
		errors.Is(err, domain.ErrEventNotFound)
}

// businessMessage возвращает стабильный текст для известных бизнес-отказов,
// чтобы ответ не зависел от внутренних обёрток ошибки.
func businessMessage(err error) string {
	for _, target := range []error{
		domain.ErrInvalidUserID,
		domain.ErrEmptySeatList,
		domain.ErrDuplicateSeatID,
		domain.ErrEventNotSellable,
		domain.ErrSeatUnavailable,
		domain.ErrSeatNotFound,
		domain.ErrPaymentFailed,
		domain.ErrAlreadyCancelled,
		domain.ErrAlreadyRefunded,
		domain.ErrOrderStateTransition,
	} {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return err.Error()
}
