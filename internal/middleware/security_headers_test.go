package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func serveWithHeaders(env string, req *http.Request) *httptest.ResponseRecorder {
	handler := SecurityHeaders(SecurityHeadersConfig{Env: env})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestSecurityHeaders_Common(t *testing.T) {
	w := serveWithHeaders("development", httptest.NewRequest("GET", "/admin/verify", nil))

	tests := []struct {
		header   string
		expected string
	}{
		{"X-Frame-Options", "DENY"},
		{"X-Content-Type-Options", "nosniff"},
		{"Referrer-Policy", "no-referrer"},
		{"Cache-Control", "no-store"},
		{"Cross-Origin-Opener-Policy", "same-origin"},
	}

	for _, tt := range tests {
		if got := w.Header().Get(tt.header); got != tt.expected {
			t.Errorf("Header %s: got %q, want %q", tt.header, got, tt.expected)
		}
	}

	if csp := w.Header().Get("Content-Security-Policy"); !strings.Contains(csp, "default-src 'none'") {
		t.Errorf("CSP should deny all resources: %s", csp)
	}
	if hsts := w.Header().Get("Strict-Transport-Security"); hsts != "" {
		t.Errorf("HSTS should not be sent in development, got %q", hsts)
	}
}

func TestSecurityHeaders_HSTSInProduction(t *testing.T) {
	plain := serveWithHeaders("production", httptest.NewRequest("GET", "/", nil))
	if hsts := plain.Header().Get("Strict-Transport-Security"); hsts != "" {
		t.Errorf("HSTS should not be sent over plain HTTP, got %q", hsts)
	}

	forwarded := httptest.NewRequest("GET", "/", nil)
	forwarded.Header.Set("X-Forwarded-Proto", "https")
	if hsts := serveWithHeaders("production", forwarded).Header().Get("Strict-Transport-Security"); hsts == "" {
		t.Error("HSTS missing behind TLS-terminating proxy")
	}

	direct := httptest.NewRequest("GET", "/", nil)
	direct.TLS = &tls.ConnectionState{}
	if hsts := serveWithHeaders("production", direct).Header().Get("Strict-Transport-Security"); hsts == "" {
		t.Error("HSTS missing on direct TLS")
	}
}
