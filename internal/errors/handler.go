package errors

import (
	"context"
	"errors"
	"log/slog"

	"github.com/getsentry/sentry-go"

	"github.com/kpp-all/drip-bot/pkg/logger"
)

const fallbackUserMessage = "Произошла ошибка. Попробуйте позже"

// Handler is the single sink for handler-level failures. It logs by
// severity, reports serious errors to Sentry, and translates everything
// into a user-facing message.
type Handler struct {
	log           *slog.Logger
	sentryEnabled bool
}

func NewHandler(log *slog.Logger, sentryEnabled bool) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		log:           log,
		sentryEnabled: sentryEnabled,
	}
}

// Handle logs err and returns the message to show the user plus whether
// the operation may be retried.
func (h *Handler) Handle(ctx context.Context, err error) (string, bool) {
	if err == nil {
		return "", false
	}
	if ctx == nil {
		ctx = context.Background()
	}

	appErr := h.normalize(err)

	attrs := []slog.Attr{
		slog.String("code", appErr.Code),
		slog.String("message", appErr.Message),
		slog.String("severity", string(appErr.Severity)),
		slog.Bool("retryable", appErr.Retryable),
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		attrs = append(attrs, slog.String("correlation_id", id))
	}

	h.log.LogAttrs(ctx, logLevel(appErr.Severity), "handled error", attrs...)

	if h.sentryEnabled && (appErr.Severity == SeverityCritical || appErr.Severity == SeverityHigh) {
		h.report(err, appErr)
	}

	message := appErr.UserMessage
	if message == "" {
		message = fallbackUserMessage
	}

	return message, appErr.Retryable
}

// normalize folds arbitrary errors into the AppError taxonomy. Unknown
// errors are treated as serious and non-retryable.
func (h *Handler) normalize(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil {
		return appErr
	}

	return &AppError{
		Code:        "E000",
		Message:     err.Error(),
		Severity:    SeverityHigh,
		Retryable:   false,
		UserMessage: fallbackUserMessage,
	}
}

func logLevel(severity Severity) slog.Level {
	switch severity {
	case SeverityLow:
		return slog.LevelInfo
	case SeverityMedium:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

func (h *Handler) report(err error, appErr *AppError) {
	sentry.WithScope(func(scope *sentry.Scope) {
		if appErr.Code != "" {
			scope.SetTag("code", appErr.Code)
		}
		if appErr.Severity != "" {
			scope.SetTag("severity", string(appErr.Severity))
		}
		sentry.CaptureException(err)
	})
}
