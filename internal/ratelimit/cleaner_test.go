package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleaner_DropsIdleWindowsOnSchedule(t *testing.T) {
	limiter := NewMemoryLimiter(testLogger())
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		_, err := limiter.Check(ctx, fmt.Sprintf("user:%d", i), 5, time.Millisecond)
		require.NoError(t, err)
	}
	time.Sleep(5 * time.Millisecond)

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		NewCleaner(limiter, testLogger(), 5*time.Millisecond, time.Millisecond).Run(runCtx)
	}()

	assert.Eventually(t, func() bool {
		limiter.mu.Lock()
		defer limiter.mu.Unlock()
		return len(limiter.windows) == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}
