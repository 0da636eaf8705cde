package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	pkghttp "github.com/BradenHooton/admingate/pkg/http"
)

func newLimitedHandler(perMinute int) http.Handler {
	return LoginRateLimit(RateLimitConfig{
		RequestsPerMinute: perMinute,
		IPConfig:          &pkghttp.IPConfig{},
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func sendFrom(handler http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/admin/login", nil)
	req.RemoteAddr = remoteAddr
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

// TestLoginRateLimit_EnforcesLimit verifies requests beyond the limit get 429
func TestLoginRateLimit_EnforcesLimit(t *testing.T) {
	handler := newLimitedHandler(3)

	for i := 0; i < 3; i++ {
		if rec := sendFrom(handler, "192.0.2.10:1000"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected status 200, got %d", i+1, rec.Code)
		}
	}

	rec := sendFrom(handler, "192.0.2.10:1000")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["ok"] != false {
		t.Errorf("expected ok=false, got %v", body["ok"])
	}
	if ms, _ := body["retryAfterMs"].(float64); ms <= 0 {
		t.Errorf("expected positive retryAfterMs, got %v", body["retryAfterMs"])
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

// TestLoginRateLimit_PerClient verifies clients are limited independently
func TestLoginRateLimit_PerClient(t *testing.T) {
	handler := newLimitedHandler(1)

	if rec := sendFrom(handler, "192.0.2.20:1000"); rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if rec := sendFrom(handler, "192.0.2.21:1000"); rec.Code != http.StatusOK {
		t.Errorf("second client: expected status 200, got %d", rec.Code)
	}
	if rec := sendFrom(handler, "192.0.2.20:1000"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("first client again: expected status 429, got %d", rec.Code)
	}
}

// TestLoginRateLimit_KeysOnForwardedIdentity verifies the key matches the ledger identity
func TestLoginRateLimit_KeysOnForwardedIdentity(t *testing.T) {
	handler := newLimitedHandler(1)

	send := func(forwarded string) int {
		req := httptest.NewRequest("POST", "/admin/login", nil)
		req.RemoteAddr = "10.0.0.1:1000"
		req.Header.Set("X-Forwarded-For", forwarded)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("198.51.100.1"); code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", code)
	}
	if code := send("198.51.100.2"); code != http.StatusOK {
		t.Errorf("different forwarded client: expected status 200, got %d", code)
	}
}
