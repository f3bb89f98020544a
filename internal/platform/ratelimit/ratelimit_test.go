package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SlidingWindow(t *testing.T) {
	m := NewMemory()
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	now := start
	m.now = func() time.Time { return now }
	ctx := context.Background()

	for i := range 2 {
		res, err := m.Allow(ctx, "k", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 1-i, res.Remaining)
	}

	res, err := m.Allow(ctx, "k", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, start.Add(time.Minute), res.ResetAt)
	assert.Equal(t, 30, res.RetryAfter(start.Add(30*time.Second)))

	res, err = m.Allow(ctx, "other", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed, "keys are independent")

	now = start.Add(time.Minute + time.Second)
	res, err = m.Allow(ctx, "k", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed, "window slid past the first requests")
}

func TestResult_RetryAfterIsAtLeastOneSecond(t *testing.T) {
	now := time.Now()
	assert.Equal(t, 1, Result{ResetAt: now.Add(-time.Second)}.RetryAfter(now))
}

type failingStore struct{}

func (failingStore) Allow(context.Context, string, int, time.Duration) (Result, error) {
	return Result{}, errors.New("down")
}

func serve(h http.Handler) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/submissions/", nil)
	req.RemoteAddr = "10.0.0.1:5000"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	t.Run("rejects once the window is full", func(t *testing.T) {
		h := New(NewMemory(), "start", 1, time.Minute).Handler(ok)

		w := serve(h)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

		w = serve(h)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.NotEmpty(t, w.Header().Get("Retry-After"))
		assert.Contains(t, w.Body.String(), "rate_limit_exceeded")
	})

	t.Run("disabled without a limit", func(t *testing.T) {
		h := New(NewMemory(), "start", 0, time.Minute).Handler(ok)
		for range 3 {
			assert.Equal(t, http.StatusNoContent, serve(h).Code)
		}
	})

	t.Run("store failure lets requests through", func(t *testing.T) {
		h := New(failingStore{}, "start", 1, time.Minute).Handler(ok)
		assert.Equal(t, http.StatusNoContent, serve(h).Code)
	})
}
