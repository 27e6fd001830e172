package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestKeyedRateLimiter_SeparateBuckets(t *testing.T) {
	limiter := NewKeyedRateLimiter(rate.Limit(0.001), 1)

	assert.True(t, limiter.GetLimiter("emp-1").Allow())
	assert.False(t, limiter.GetLimiter("emp-1").Allow())
	assert.True(t, limiter.GetLimiter("emp-2").Allow())
	assert.Equal(t, 2, limiter.Len())
}

func TestKeyedRateLimiter_Sweep(t *testing.T) {
	now := time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC)
	limiter := NewKeyedRateLimiter(rate.Limit(1), 1)
	limiter.now = func() time.Time { return now }

	limiter.GetLimiter("emp-1")
	now = now.Add(5 * time.Minute)
	limiter.GetLimiter("emp-2")
	now = now.Add(6 * time.Minute)

	limiter.Sweep()

	assert.Equal(t, 1, limiter.Len())
}

func TestRateLimitByUser_FallsBackToIP(t *testing.T) {
	limiter := NewKeyedRateLimiter(rate.Limit(0.001), 1)
	handler := RateLimitByUser(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func(remote string, userID string) int {
		req := httptest.NewRequest(http.MethodPost, "/check-in", nil)
		req.RemoteAddr = remote
		if userID != "" {
			req = req.WithContext(WithUserID(req.Context(), userID))
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, send("10.0.0.1:5000", ""))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:5001", ""))
	assert.Equal(t, http.StatusNoContent, send("10.0.0.2:5000", ""))
	assert.Equal(t, http.StatusNoContent, send("10.0.0.1:5002", "emp-1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.3:5000", "emp-1"))
}
