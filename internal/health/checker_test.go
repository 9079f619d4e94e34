package health

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

type probe struct {
	err error
}

func (p probe) HealthCheck(ctx context.Context) error {
	return p.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestChecker_AllHealthy(t *testing.T) {
	checker := NewChecker(testLogger())
	checker.AddCheck("store", probe{})
	checker.AddCheck("redis", probe{})

	report := checker.Check(context.Background())

	assert.True(t, report.Healthy())
	assert.Equal(t, Report{"store": "OK", "redis": "OK"}, report)
}

func TestChecker_ReportsFailureDetail(t *testing.T) {
	checker := NewChecker(testLogger())
	checker.AddCheck("store", probe{})
	checker.AddCheck("redis", probe{err: errors.New("connection refused")})

	report := checker.Check(context.Background())

	assert.False(t, report.Healthy())
	assert.Equal(t, "OK", report["store"])
	assert.Equal(t, "connection refused", report["redis"])
}

func TestChecker_IgnoresInvalidRegistrations(t *testing.T) {
	checker := NewChecker(testLogger())
	checker.AddCheck("", probe{})
	checker.AddCheck("nil", nil)

	report := checker.Check(context.Background())

	assert.Empty(t, report)
	assert.True(t, report.Healthy())
}
