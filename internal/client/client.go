// Package client содержит HTTP-клиенты внешних сервисов платформы:
// catalog, seating, payment и notification. Все клиенты пробрасывают
// X-Correlation-ID и соблюдают общий таймаут запроса.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"example.com/ticket-orders/internal/domain"
	"example.com/ticket-orders/pkg/circuitbreaker"
	"example.com/ticket-orders/pkg/logger"
)

// headerCorrelationID — заголовок сквозного идентификатора запроса.
const headerCorrelationID = "X-Correlation-ID"

// httpClient — общая основа клиентов внешних сервисов.
type httpClient struct {
	baseURL string
	client  *http.Client
	name    string
}

func newHTTPClient(name, baseURL string, timeout time.Duration) httpClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		name:    name,
	}
}

// doJSON выполняет запрос с JSON телом и декодирует JSON ответ в out.
// Транспортные ошибки и таймауты сворачиваются в domain.ErrUpstreamUnavailable,
// HTTP 404 — в domain.ErrEventNotFound-подобные ошибки на стороне вызывающего
// через httpStatusError.
func (c *httpClient) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("ошибка сериализации запроса %s: %w", c.name, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса %s: %w", c.name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
		req.Header.Set(headerCorrelationID, correlationID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().
			Err(err).
			Str("client", c.name).
			Str("path", path).
			Msg("Транспортная ошибка внешнего сервиса")
		return fmt.Errorf("%s: %w", c.name, domain.ErrUpstreamUnavailable)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Тело читаем ограниченно: оно попадает только в текст ошибки.
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &httpStatusError{
			client:     c.name,
			path:       path,
			statusCode: resp.StatusCode,
			body:       string(data),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ошибка декодирования ответа %s: %w", c.name, err)
	}
	return nil
}

// httpStatusError — не-2xx ответ внешнего сервиса.
type httpStatusError struct {
	client     string
	path       string
	statusCode int
	body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.client, e.path, e.statusCode, e.body)
}

// Unwrap сворачивает 5xx в ErrUpstreamUnavailable: для вызывающего кода
// недоступность сервиса и его внутренняя ошибка эквивалентны.
func (e *httpStatusError) Unwrap() error {
	if e.statusCode >= 500 {
		return domain.ErrUpstreamUnavailable
	}
	return nil
}

// isNotFound сообщает, был ли ответ HTTP 404.
func isNotFound(err error) bool {
	var statusErr *httpStatusError
	return errors.As(err, &statusErr) && statusErr.statusCode == http.StatusNotFound
}

// doBreaker выполняет fn через Circuit Breaker. Отказ открытого breaker
// для вызывающего кода эквивалентен таймауту или 5xx, поэтому сворачивается
// в domain.ErrUpstreamUnavailable.
func doBreaker(ctx context.Context, name string, b *circuitbreaker.Breaker, fn func() error) error {
	err := b.Do(ctx, fn)
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return fmt.Errorf("%s: %w: %w", name, circuitbreaker.ErrOpen, domain.ErrUpstreamUnavailable)
	}
	return err
}
