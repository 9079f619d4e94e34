package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream failed")

func TestCircuitBreaker_StaysClosedUnderThreshold(t *testing.T) {
	cb := NewCircuitBreaker("test")

	for i := 0; i < MinRequests; i++ {
		_ = cb.Call(func() error { return nil })
	}

	assert.Equal(t, BreakerClosed, cb.State())
}

func TestCircuitBreaker_OpensOnErrorRate(t *testing.T) {
	cb := NewCircuitBreaker("test")

	for i := 0; i < MinRequests; i++ {
		_ = cb.Call(func() error { return errUpstream })
	}

	assert.Equal(t, BreakerOpen, cb.State())

	err := cb.Call(func() error { return nil })
	require.Error(t, err, "open breaker must reject calls without invoking fn")
}

func TestCircuitBreaker_MixedTrafficBelowThresholdStaysClosed(t *testing.T) {
	cb := NewCircuitBreaker("test")

	for i := 0; i < MinRequests; i++ {
		if i%3 == 0 {
			_ = cb.Call(func() error { return errUpstream })
		} else {
			_ = cb.Call(func() error { return nil })
		}
	}

	assert.Equal(t, BreakerClosed, cb.State())
}

func TestRegisterBreakerStateRecorder_ObservesTransitions(t *testing.T) {
	var gotName string
	var gotState BreakerState

	RegisterBreakerStateRecorder(func(name string, state BreakerState) {
		gotName = name
		gotState = state
	})
	t.Cleanup(func() { RegisterBreakerStateRecorder(nil) })

	cb := NewCircuitBreaker("sheets")
	for i := 0; i < MinRequests; i++ {
		_ = cb.Call(func() error { return errUpstream })
	}

	assert.Equal(t, "sheets", gotName)
	assert.Equal(t, BreakerOpen, gotState)
}
