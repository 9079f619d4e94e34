package middleware

import (
	"strings"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/kpp-all/drip-bot/internal/bot/handlers"
	"github.com/kpp-all/drip-bot/pkg/metrics"
)

// Metrics measures execution time and status for bot handlers, reporting them to Prometheus.
func Metrics(next handlers.Handler) handlers.Handler {
	if next == nil {
		return nil
	}

	return func(c telebot.Context) error {
		start := time.Now()
		err := next(c)

		handler := extractHandlerName(c)
		status := "ok"
		if err != nil {
			status = "error"
		}

		metrics.RecordUpdate(handler, status, time.Since(start))

		return err
	}
}

// extractHandlerName keeps metric cardinality bounded: callback payloads
// collapse to their prefix, contact cards to a fixed label.
func extractHandlerName(c telebot.Context) string {
	if c == nil {
		return "unknown"
	}

	if cb := c.Callback(); cb != nil && cb.Data != "" {
		if idx := strings.IndexByte(cb.Data, ':'); idx > 0 {
			return cb.Data[:idx]
		}
		return cb.Data
	}

	if msg := c.Message(); msg != nil && msg.Contact != nil {
		return "contact"
	}

	if text := c.Text(); text != "" && strings.HasPrefix(text, "/") {
		return text
	}

	return "text"
}
