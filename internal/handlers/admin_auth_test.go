package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/BradenHooton/admingate/internal/auth"
	"github.com/BradenHooton/admingate/internal/models"
	"github.com/BradenHooton/admingate/internal/services"
	pkghttp "github.com/BradenHooton/admingate/pkg/http"
	"github.com/filecoin-project/go-clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(service AdminAuthServiceInterface, verifier auth.SessionVerifier, status StatusServiceInterface, production bool) *AdminAuthHandler {
	env := "development"
	if production {
		env = "production"
	}
	return NewAdminAuthHandler(service, verifier, status, AdminAuthHandlerConfig{
		IPConfig:        &pkghttp.IPConfig{},
		CookieConfig:    auth.DefaultCookieConfig(env, ""),
		SessionLifetime: 2 * time.Hour,
		Production:      production,
	}, newDiscardLogger())
}

func TestAdminAuthHandler_Login_Success(t *testing.T) {
	service := &MockAdminAuthService{
		LoginFunc: func(ctx context.Context, in services.LoginInput) (*services.IssuedSession, error) {
			return &services.IssuedSession{Token: "signed-token"}, nil
		},
	}
	h := newTestHandler(service, nil, nil, true)

	req := NewTestRequest(t, "POST", "/admin/login", map[string]string{"password": "secret"})
	req.Header.Set("User-Agent", "Mozilla/5.0")
	w := httptest.NewRecorder()
	h.Login(w, req)

	var resp LoginResponse
	AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.True(t, resp.OK)
	assert.Empty(t, resp.Error)

	assert.Equal(t, "secret", service.LastLogin.Password)
	assert.Equal(t, "203.0.113.20", service.LastLogin.Identity)
	assert.Equal(t, "Mozilla/5.0", service.LastLogin.UserAgent)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.SessionCookieName, cookies[0].Name)
	assert.Equal(t, "signed-token", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, 7200, cookies[0].MaxAge)
}

func TestAdminAuthHandler_Login_InvalidPassword(t *testing.T) {
	h := newTestHandler(&MockAdminAuthService{}, nil, nil, false)

	w := httptest.NewRecorder()
	h.Login(w, NewTestRequest(t, "POST", "/admin/login", map[string]string{"password": "nope"}))

	var resp LoginResponse
	AssertJSONResponse(t, w, http.StatusUnauthorized, &resp)
	assert.False(t, resp.OK)
	assert.NotEmpty(t, resp.Error)
	assert.Nil(t, resp.RetryAfterMs)
	assert.Empty(t, w.Result().Cookies())
}

func TestAdminAuthHandler_Login_RateLimited(t *testing.T) {
	service := &MockAdminAuthService{
		LoginFunc: func(ctx context.Context, in services.LoginInput) (*services.IssuedSession, error) {
			return nil, &models.RateLimitedError{RetryAfter: 14*time.Minute + 500*time.Millisecond}
		},
	}
	h := newTestHandler(service, nil, nil, false)

	w := httptest.NewRecorder()
	h.Login(w, NewTestRequest(t, "POST", "/admin/login", map[string]string{"password": "secret"}))

	var resp LoginResponse
	AssertJSONResponse(t, w, http.StatusTooManyRequests, &resp)
	assert.False(t, resp.OK)
	require.NotNil(t, resp.RetryAfterMs)
	assert.Equal(t, int64(840500), *resp.RetryAfterMs)
	assert.Equal(t, "841", w.Header().Get("Retry-After"))
}

func TestAdminAuthHandler_Login_InternalError(t *testing.T) {
	service := &MockAdminAuthService{
		LoginFunc: func(ctx context.Context, in services.LoginInput) (*services.IssuedSession, error) {
			return nil, models.ErrInternalServer
		},
	}
	h := newTestHandler(service, nil, nil, false)

	w := httptest.NewRecorder()
	h.Login(w, NewTestRequest(t, "POST", "/admin/login", map[string]string{"password": "secret"}))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAdminAuthHandler_Login_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "password=secret"},
		{"wrong type", `{"password": 12345}`},
		{"oversized password", `{"password": "` + strings.Repeat("a", 300) + `"}`},
		{"otp not numeric", `{"password": "secret", "otp": "abcdef"}`},
		{"otp wrong length", `{"password": "secret", "otp": "123"}`},
		{"oversized body", `{"password": "` + strings.Repeat("a", 5000) + `"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &MockAdminAuthService{}
			h := newTestHandler(service, nil, nil, false)

			req := httptest.NewRequest("POST", "/admin/login", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			h.Login(w, req)

			var resp LoginResponse
			AssertJSONResponse(t, w, http.StatusBadRequest, &resp)
			assert.False(t, resp.OK)
			assert.NotEmpty(t, resp.Error)
			assert.Empty(t, service.LastLogin.Identity, "service must not be called")
		})
	}
}

func TestAdminAuthHandler_Login_MissingPasswordIsAttempt(t *testing.T) {
	service := &MockAdminAuthService{}
	h := newTestHandler(service, nil, nil, false)

	w := httptest.NewRecorder()
	h.Login(w, NewTestRequest(t, "POST", "/admin/login", map[string]string{}))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "203.0.113.20", service.LastLogin.Identity)
}

func TestAdminAuthHandler_LoginStatus(t *testing.T) {
	service := &MockAdminAuthService{
		LoginStatusFunc: func(ctx context.Context, identity string) (bool, time.Duration) {
			return true, 90 * time.Second
		},
	}
	h := newTestHandler(service, nil, nil, false)

	w := httptest.NewRecorder()
	h.LoginStatus(w, NewTestRequest(t, "GET", "/admin/login", nil))

	var resp LoginStatusResponse
	AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.True(t, resp.Blocked)
	assert.Equal(t, int64(90000), resp.RetryAfterMs)
	assert.Equal(t, "203.0.113.20", resp.Identity)
	assert.Empty(t, service.ResetIdentities)
}

func TestAdminAuthHandler_LoginStatus_Reset(t *testing.T) {
	t.Run("development", func(t *testing.T) {
		service := &MockAdminAuthService{}
		h := newTestHandler(service, nil, nil, false)

		w := httptest.NewRecorder()
		h.LoginStatus(w, NewTestRequest(t, "GET", "/admin/login?reset=true", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"203.0.113.20"}, service.ResetIdentities)
	})

	t.Run("production ignores reset", func(t *testing.T) {
		service := &MockAdminAuthService{}
		h := newTestHandler(service, nil, nil, true)

		w := httptest.NewRecorder()
		h.LoginStatus(w, NewTestRequest(t, "GET", "/admin/login?reset=true", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, service.ResetIdentities)
	})
}

func TestAdminAuthHandler_Logout(t *testing.T) {
	service := &MockAdminAuthService{}
	h := newTestHandler(service, nil, nil, false)

	req := NewTestRequest(t, "POST", "/admin/logout", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: "signed-token"})
	w := httptest.NewRecorder()
	h.Logout(w, req)

	var resp LogoutResponse
	AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, []string{"signed-token"}, service.LogoutTokens)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestAdminAuthHandler_Logout_WithoutSession(t *testing.T) {
	h := newTestHandler(&MockAdminAuthService{}, nil, nil, false)

	w := httptest.NewRecorder()
	h.Logout(w, NewTestRequest(t, "POST", "/admin/logout", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminAuthHandler_Verify(t *testing.T) {
	tests := []struct {
		name       string
		result     models.VerificationResult
		wantStatus int
	}{
		{"authenticated", models.VerificationResult{Outcome: models.OutcomeAuthenticated, Credential: &models.SessionCredential{}}, http.StatusOK},
		{"unauthenticated", models.VerificationResult{Outcome: models.OutcomeUnauthenticated, Reason: models.ErrExpiredCredential}, http.StatusUnauthorized},
		{"suspicious", models.VerificationResult{Outcome: models.OutcomeSuspicious, Reason: models.ErrSuspiciousRequest}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(&MockAdminAuthService{}, &MockSessionVerifier{Result: tt.result}, nil, false)

			w := httptest.NewRecorder()
			h.Verify(w, NewTestRequest(t, "GET", "/admin/verify", nil))

			var resp map[string]interface{}
			AssertJSONResponse(t, w, tt.wantStatus, &resp)
			assert.Equal(t, tt.wantStatus == http.StatusOK, resp["authenticated"])
			if tt.wantStatus == http.StatusOK {
				assert.NotEmpty(t, resp["timestamp"])
			}
		})
	}
}

func TestAdminAuthHandler_SecurityStatus(t *testing.T) {
	status := &MockStatusService{Result: models.StatusReport{
		LedgerBackend: "memory",
		LedgerSize:    3,
		SessionValid:  true,
	}}
	h := newTestHandler(&MockAdminAuthService{}, nil, status, false)

	cred := &models.SessionCredential{Authenticated: true, IssuedAt: time.Now()}
	req := WithSessionContext(NewTestRequest(t, "GET", "/admin/security-status", nil), cred)
	w := httptest.NewRecorder()
	h.SecurityStatus(w, req)

	var resp models.StatusReport
	AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.Equal(t, "memory", resp.LedgerBackend)
	assert.Equal(t, 3, resp.LedgerSize)
	assert.True(t, resp.SessionValid)
	assert.Same(t, cred, status.LastCredential)
}

func TestAdminAuthHandler_UsesInjectedClock(t *testing.T) {
	mock := clock.NewMock()
	now := time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)
	mock.Set(now)

	service := &MockAdminAuthService{
		LoginFunc: func(ctx context.Context, in services.LoginInput) (*services.IssuedSession, error) {
			return &services.IssuedSession{Token: "signed-token"}, nil
		},
	}
	verifier := &MockSessionVerifier{Result: models.VerificationResult{
		Outcome:    models.OutcomeAuthenticated,
		Credential: &models.SessionCredential{},
	}}
	h := NewAdminAuthHandler(service, verifier, nil, AdminAuthHandlerConfig{
		IPConfig:        &pkghttp.IPConfig{},
		CookieConfig:    auth.DefaultCookieConfig("production", ""),
		SessionLifetime: 2 * time.Hour,
		Production:      true,
		Clock:           mock,
	}, newDiscardLogger())

	req := NewTestRequest(t, "POST", "/admin/login", map[string]string{"password": "secret"})
	req.Header.Set("User-Agent", "Mozilla/5.0")
	w := httptest.NewRecorder()
	h.Login(w, req)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].Expires.Equal(now.Add(2*time.Hour)), "expires %s", cookies[0].Expires)

	w = httptest.NewRecorder()
	h.Verify(w, NewTestRequest(t, "GET", "/admin/verify", nil))
	var resp VerifyResponse
	AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.Equal(t, "2026-05-04T10:30:00Z", resp.Timestamp)
}
