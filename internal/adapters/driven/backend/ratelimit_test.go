package backend

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func responseWith(status int, retryAfter string) *http.Response {
	resp := &http.Response{StatusCode: status, Header: http.Header{}}
	if retryAfter != "" {
		resp.Header.Set(HeaderRetryAfter, retryAfter)
	}
	return resp
}

func TestRateLimiter_UnlimitedDoesNotBlock(t *testing.T) {
	limiter := NewRateLimiter(0)
	for i := 0; i < 50; i++ {
		require.NoError(t, limiter.Wait(context.Background()))
	}
}

func TestRateLimiter_ObserveIgnoresSuccess(t *testing.T) {
	limiter := NewRateLimiter(0)
	limiter.Observe(responseWith(http.StatusOK, "60"))
	assert.True(t, limiter.PausedUntil().IsZero())
}

func TestRateLimiter_ObserveIgnoresBadHeader(t *testing.T) {
	limiter := NewRateLimiter(0)
	limiter.Observe(responseWith(http.StatusTooManyRequests, "soon"))
	limiter.Observe(responseWith(http.StatusTooManyRequests, "0"))
	assert.True(t, limiter.PausedUntil().IsZero())
}

func TestRateLimiter_ObserveKeepsLongestPause(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(0)
	limiter.now = func() time.Time { return now }

	limiter.Observe(responseWith(http.StatusServiceUnavailable, "10"))
	limiter.Observe(responseWith(http.StatusTooManyRequests, "2"))

	assert.Equal(t, now.Add(10*time.Second), limiter.PausedUntil())
}

func TestRateLimiter_WaitHonoursContextDuringPause(t *testing.T) {
	limiter := NewRateLimiter(0)
	limiter.Observe(responseWith(http.StatusTooManyRequests, "60"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := limiter.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRateLimiter_WaitReturnsAfterPause(t *testing.T) {
	limiter := NewRateLimiter(0)
	limiter.pauseUntil = time.Now().Add(10 * time.Millisecond)

	start := time.Now()
	require.NoError(t, limiter.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
}
