package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureRecord(t *testing.T, attrs ...any) string {
	t.Helper()

	var buf bytes.Buffer
	log := slog.New(NewMaskingHandler(slog.NewTextHandler(&buf, nil)))
	log.LogAttrs(context.Background(), slog.LevelInfo, "event", argsToAttrs(attrs)...)

	return buf.String()
}

func argsToAttrs(args []any) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		attrs = append(attrs, slog.String(args[i].(string), args[i+1].(string)))
	}
	return attrs
}

func TestMaskingHandler_BlanksSecrets(t *testing.T) {
	out := captureRecord(t, "token", "super-secret", "api_key", "abc123")

	assert.NotContains(t, out, "super-secret")
	assert.NotContains(t, out, "abc123")
	assert.Contains(t, out, "token=***")
}

func TestMaskingHandler_TruncatesPhones(t *testing.T) {
	out := captureRecord(t, "phone", "79991234567")

	assert.NotContains(t, out, "79991234567")
	assert.Contains(t, out, "4567")
	assert.Contains(t, out, "*******4567")
}

func TestMaskingHandler_ShortPhoneFullyMasked(t *testing.T) {
	out := captureRecord(t, "phone", "123")

	assert.NotContains(t, out, "123")
	assert.Contains(t, out, "phone=***")
}

func TestMaskingHandler_PassesOrdinaryAttrs(t *testing.T) {
	out := captureRecord(t, "chat_id", "42")

	require.Contains(t, out, "chat_id=42")
}
