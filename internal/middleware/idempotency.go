package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/kpp-all/drip-bot/internal/bot/handlers"
	"github.com/kpp-all/drip-bot/internal/idempotency"
)

// dedupTTL bounds how long a processed update key is remembered. Telegram
// redelivers within minutes; a day is comfortably past that.
const dedupTTL = 24 * time.Hour

// Idempotency runs each Telegram update through the handler at most once.
// Callbacks are keyed by chat, message and button payload rather than by
// callback ID, so a double tap on the same button counts as a duplicate
// even though Telegram assigns each tap a fresh ID.
func Idempotency(manager idempotency.Manager, log *slog.Logger) handlers.Middleware {
	if manager == nil {
		return func(next handlers.Handler) handlers.Handler {
			return next
		}
	}
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			key := updateKey(c)
			if key == "" {
				return next(c)
			}

			result, err := manager.Execute(context.Background(), key, dedupTTL,
				func(context.Context) (interface{}, error) {
					return nil, next(c)
				})
			switch {
			case errors.Is(err, idempotency.ErrRequestInProgress):
				log.Debug("dropping duplicate update mid-flight", slog.String("key", key))
				return nil
			case err != nil:
				return err
			case result != nil && result.FromCache:
				log.Debug("dropping already processed update", slog.String("key", key))
			}

			return nil
		}
	}
}

// updateKey derives the dedup key for an update, or "" when the update
// carries nothing stable to key on.
func updateKey(c telebot.Context) string {
	if c == nil {
		return ""
	}

	if cb := c.Callback(); cb != nil {
		if cb.Message != nil && cb.Message.Chat != nil {
			return fmt.Sprintf("tap:%d:%d:%s", cb.Message.Chat.ID, cb.Message.ID, cb.Data)
		}
		if cb.ID != "" {
			return "cb:" + cb.ID
		}
		return ""
	}

	if msg := c.Message(); msg != nil && msg.Chat != nil && msg.ID != 0 {
		return fmt.Sprintf("msg:%d:%d", msg.Chat.ID, msg.ID)
	}

	return ""
}
