package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateLimiterAllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(1, 3)
	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d should be within burst", i+1)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Fatalf("expected burst to be exhausted")
	}
	// A different IP has its own bucket.
	if !rl.Allow("5.6.7.8") {
		t.Fatalf("expected independent bucket per ip")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	mw := RateLimit(0.001, 1)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/webchat/message", nil)
	req.Header.Set("X-Real-Ip", "9.9.9.9")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request should pass, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request should be limited, got %d", rec.Code)
	}
}
