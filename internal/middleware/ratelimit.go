package middleware

import (
	"context"
	"fmt"
	"log/slog"

	"gopkg.in/telebot.v3"

	errors "github.com/kpp-all/drip-bot/internal/errors"
	"github.com/kpp-all/drip-bot/internal/ratelimit"
)

// RateLimitMiddleware enforces per-user and global rate limits for incoming Telegram updates.
type RateLimitMiddleware struct {
	limiter ratelimit.Limiter
	rules   *ratelimit.Rules
	log     *slog.Logger
}

// NewRateLimitMiddleware constructs a rate-limit middleware component.
func NewRateLimitMiddleware(limiter ratelimit.Limiter, rules *ratelimit.Rules, log *slog.Logger) *RateLimitMiddleware {
	if log == nil {
		log = slog.Default()
	}

	return &RateLimitMiddleware{
		limiter: limiter,
		rules:   rules,
		log:     log,
	}
}

// Handle returns a telebot middleware that enforces the configured limits.
func (m *RateLimitMiddleware) Handle(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		if m.limiter == nil || m.rules == nil {
			return next(c)
		}

		sender := c.Sender()
		if sender == nil {
			return next(c)
		}

		userID := sender.ID
		if m.rules.IsWhitelisted(userID) {
			return next(c)
		}

		if allowed, retryAfter := m.check(userID); !allowed {
			m.log.Warn("rate limit exceeded", slog.Int64("chat_id", userID))
			appErr := errors.NewRateLimitError(retryAfter)
			return c.Send(appErr.UserMessage)
		}

		return next(c)
	}
}

func (m *RateLimitMiddleware) check(userID int64) (bool, int) {
	ctx := context.Background()

	if limit, window, err := m.rules.GetGlobalLimit(); err == nil {
		result, err := m.limiter.Check(ctx, "global", limit, window)
		if err != nil {
			m.log.Warn("rate limiter error", slog.Any("error", err))
		} else if !result.Allowed {
			return false, int(window.Seconds())
		}
	}

	limit, window, err := m.rules.GetPerUserLimit()
	if err != nil {
		m.log.Error("failed to load per-user rate limit", slog.Int64("chat_id", userID), slog.Any("error", err))
		return true, 0
	}

	key := fmt.Sprintf("user:%d", userID)
	result, err := m.limiter.Check(ctx, key, limit, window)
	if err != nil {
		m.log.Warn("rate limiter error", slog.Int64("chat_id", userID), slog.Any("error", err))
		return true, 0
	}

	if !result.Allowed {
		return false, int(window.Seconds())
	}

	return true, 0
}
