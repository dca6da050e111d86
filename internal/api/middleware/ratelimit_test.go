package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/eventhall/server/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestRateLimitBlocksAfterBurst(t *testing.T) {
	limit := RateLimit(config.RateLimitConfig{PublicPerMinute: 3})
	handler := limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	request := func() int {
		req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
		req.RemoteAddr = "10.0.0.1:50000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, request(), "request %d within burst", i+1)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req.RemoteAddr = "10.0.0.1:50000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestRateLimitKeyedByClient(t *testing.T) {
	limit := RateLimit(config.RateLimitConfig{PublicPerMinute: 1})
	handler := limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	request := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, request("10.0.0.1:50000"))
	assert.Equal(t, http.StatusTooManyRequests, request("10.0.0.1:50001"), "same IP, different port")
	assert.Equal(t, http.StatusOK, request("10.0.0.2:50000"), "other clients unaffected")
}

func TestRateLimitZeroDisablesTier(t *testing.T) {
	limit := RateLimit(config.RateLimitConfig{AdminPerMinute: 0})
	handler := WithRateLimitTierHandler(TierAdmin)(limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})))

	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
		req.RemoteAddr = "10.0.0.1:50000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimitSkipsProbes(t *testing.T) {
	limit := RateLimit(config.RateLimitConfig{PublicPerMinute: 1})
	handler := limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "10.0.0.1:50000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimitTiersAreIndependent(t *testing.T) {
	limit := RateLimit(config.RateLimitConfig{PublicPerMinute: 1, AuthPerMinute: 1})
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	public := limit(next)
	authed := WithRateLimitTierHandler(TierAuth)(limit(next))

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req.RemoteAddr = "10.0.0.1:50000"
	rec := httptest.NewRecorder()
	public.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Same client still has budget on the auth tier.
	req = httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.RemoteAddr = "10.0.0.1:50000"
	rec = httptest.NewRecorder()
	authed.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.5:43210"
	assert.Equal(t, "192.168.1.5", clientKey(req))

	req.RemoteAddr = "192.168.1.5"
	assert.Equal(t, "192.168.1.5", clientKey(req))

	// Forwarding headers are ignored.
	req.RemoteAddr = "192.168.1.5:43210"
	req.Header.Set("X-Forwarded-For", "1.2.3.4")
	assert.Equal(t, "192.168.1.5", clientKey(req))
}
