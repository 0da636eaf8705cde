package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BradenHooton/admingate/internal/auth"
	"github.com/BradenHooton/admingate/internal/models"
	"github.com/BradenHooton/admingate/internal/services"
	"github.com/stretchr/testify/assert"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.20:50000"
	return req
}

// WithSessionContext adds a verified admin session to the request context
func WithSessionContext(req *http.Request, cred *models.SessionCredential) *http.Request {
	return req.WithContext(auth.WithSession(req.Context(), cred))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	contentType := w.Header().Get("Content-Type")
	assert.Equal(t, "application/json", contentType, "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockAdminAuthService implements AdminAuthServiceInterface for testing
type MockAdminAuthService struct {
	LoginFunc       func(ctx context.Context, in services.LoginInput) (*services.IssuedSession, error)
	LoginStatusFunc func(ctx context.Context, identity string) (bool, time.Duration)

	LastLogin       services.LoginInput
	ResetIdentities []string
	LogoutTokens    []string
}

func (m *MockAdminAuthService) Login(ctx context.Context, in services.LoginInput) (*services.IssuedSession, error) {
	m.LastLogin = in
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, in)
	}
	return nil, models.ErrInvalidCredentials
}

func (m *MockAdminAuthService) LoginStatus(ctx context.Context, identity string) (bool, time.Duration) {
	if m.LoginStatusFunc != nil {
		return m.LoginStatusFunc(ctx, identity)
	}
	return false, 0
}

func (m *MockAdminAuthService) ResetIdentity(ctx context.Context, identity string) {
	m.ResetIdentities = append(m.ResetIdentities, identity)
}

func (m *MockAdminAuthService) Logout(ctx context.Context, token, identity string) {
	m.LogoutTokens = append(m.LogoutTokens, token)
}

// MockSessionVerifier implements auth.SessionVerifier for testing
type MockSessionVerifier struct {
	Result models.VerificationResult
}

func (m *MockSessionVerifier) Verify(ctx context.Context, meta models.RequestMeta) models.VerificationResult {
	return m.Result
}

// MockStatusService implements StatusServiceInterface for testing
type MockStatusService struct {
	LastCredential *models.SessionCredential
	Result         models.StatusReport
}

func (m *MockStatusService) Report(ctx context.Context, cred *models.SessionCredential) models.StatusReport {
	m.LastCredential = cred
	return m.Result
}

// MockPinger implements Pinger for testing
type MockPinger struct {
	Err error
}

func (m *MockPinger) Ping(ctx context.Context) error {
	return m.Err
}
