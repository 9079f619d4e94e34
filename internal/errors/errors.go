package errors

import (
	stderrors "errors"
	"fmt"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

const (
	CodeValidation       = "E100"
	CodeStoreUnavailable = "E200"
	CodeTelegram         = "E300"
	CodeProgression      = "E400"
	CodeRateLimit        = "E500"
)

type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

func (e *AppError) Cause() error {
	return e.Unwrap()
}

func NewValidationError(msg string) *AppError {
	return &AppError{
		Code:        CodeValidation,
		Message:     msg,
		UserMessage: fmt.Sprintf("Неверный формат данных. %s", msg),
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       nil,
	}
}

// NewStoreUnavailableError marks a failed call to the tabular store: network,
// auth, or API rate-limit trouble. Always retryable, since every store write
// is an idempotent cell overwrite.
func NewStoreUnavailableError(cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:        CodeStoreUnavailable,
		Message:     fmt.Sprintf("Store unavailable: %s", underlyingMsg),
		UserMessage: "Ошибка при загрузке. Попробуйте позже.",
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}

func NewTelegramError(cause error) *AppError {
	return &AppError{
		Code:        CodeTelegram,
		Message:     "Telegram API error",
		UserMessage: "Сервис временно недоступен",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

func NewProgressionError(msg string) *AppError {
	return &AppError{
		Code:        CodeProgression,
		Message:     msg,
		UserMessage: "Операция невозможна в текущем состоянии",
		Severity:    SeverityMedium,
		Retryable:   false,
		cause:       nil,
	}
}

func NewRateLimitError(retryAfter int) *AppError {
	return &AppError{
		Code:        CodeRateLimit,
		Message:     fmt.Sprintf("Rate limit exceeded: retry after %d seconds", retryAfter),
		UserMessage: fmt.Sprintf("Слишком много запросов. Попробуйте через %d секунд", retryAfter),
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       nil,
	}
}

// IsStoreUnavailable reports whether err is (or wraps) a store transport
// failure. Callers must treat this distinctly from "row not found".
func IsStoreUnavailable(err error) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) && appErr != nil {
		return appErr.Code == CodeStoreUnavailable
	}

	return false
}
