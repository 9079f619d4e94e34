package logger

import (
	"context"
	"log/slog"
	"strings"
)

// Keys whose values are secrets and are blanked entirely.
var secretKeys = []string{
	"password",
	"token",
	"secret",
	"api_key",
	"authorization",
	"private_key",
}

// Keys carrying learner phone numbers. Phones are PII but operators match
// log lines against registry rows, so the last digits stay visible.
var phoneKeys = []string{
	"phone",
	"phone_number",
}

const phoneVisibleDigits = 4

// MaskingHandler blanks secrets and truncates phone numbers before the
// record reaches any sink.
type MaskingHandler struct {
	next slog.Handler
}

func NewMaskingHandler(next slog.Handler) *MaskingHandler {
	return &MaskingHandler{next: next}
}

func (h *MaskingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *MaskingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &MaskingHandler{next: h.next.WithAttrs(maskAttrs(attrs))}
}

func (h *MaskingHandler) WithGroup(name string) slog.Handler {
	return &MaskingHandler{next: h.next.WithGroup(name)}
}

func (h *MaskingHandler) Handle(ctx context.Context, record slog.Record) error {
	masked := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)

	record.Attrs(func(attr slog.Attr) bool {
		masked.AddAttrs(maskAttr(attr))
		return true
	})

	return h.next.Handle(ctx, masked)
}

func maskAttrs(attrs []slog.Attr) []slog.Attr {
	out := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		out[i] = maskAttr(attr)
	}
	return out
}

func maskAttr(attr slog.Attr) slog.Attr {
	switch {
	case matchesKey(attr.Key, secretKeys):
		attr.Value = slog.StringValue("***")
	case matchesKey(attr.Key, phoneKeys):
		attr.Value = slog.StringValue(maskPhone(attr.Value.String()))
	}
	return attr
}

func matchesKey(key string, set []string) bool {
	for _, candidate := range set {
		if strings.EqualFold(key, candidate) {
			return true
		}
	}
	return false
}

func maskPhone(phone string) string {
	if len(phone) <= phoneVisibleDigits {
		return "***"
	}
	return strings.Repeat("*", len(phone)-phoneVisibleDigits) + phone[len(phone)-phoneVisibleDigits:]
}
