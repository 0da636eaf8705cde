package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/BradenHooton/admingate/internal/auth"
	"github.com/BradenHooton/admingate/internal/models"
	"github.com/BradenHooton/admingate/internal/services"
	pkghttp "github.com/BradenHooton/admingate/pkg/http"
	"github.com/filecoin-project/go-clock"
)

// maxLoginBodyBytes bounds the login request body
const maxLoginBodyBytes = 4 << 10

// AdminAuthServiceInterface defines the interface for the admin login flow
type AdminAuthServiceInterface interface {
	Login(ctx context.Context, in services.LoginInput) (*services.IssuedSession, error)
	LoginStatus(ctx context.Context, identity string) (bool, time.Duration)
	ResetIdentity(ctx context.Context, identity string)
	Logout(ctx context.Context, token, identity string)
}

// StatusServiceInterface defines the interface for security telemetry
type StatusServiceInterface interface {
	Report(ctx context.Context, cred *models.SessionCredential) models.StatusReport
}

// AdminAuthHandler handles the /admin session endpoints
type AdminAuthHandler struct {
	service      AdminAuthServiceInterface
	verifier     auth.SessionVerifier
	status       StatusServiceInterface
	ipConfig     *pkghttp.IPConfig
	cookieConfig auth.CookieConfig
	lifetime     time.Duration
	production   bool
	clock        clock.Clock
	logger       *slog.Logger
}

// AdminAuthHandlerConfig holds transport settings for AdminAuthHandler
type AdminAuthHandlerConfig struct {
	IPConfig        *pkghttp.IPConfig
	CookieConfig    auth.CookieConfig
	SessionLifetime time.Duration
	Production      bool
	// Clock stamps verify responses and cookie expiry. Defaults to the wall clock.
	Clock clock.Clock
}

// NewAdminAuthHandler creates a new AdminAuthHandler
func NewAdminAuthHandler(
	service AdminAuthServiceInterface,
	verifier auth.SessionVerifier,
	status StatusServiceInterface,
	config AdminAuthHandlerConfig,
	logger *slog.Logger,
) *AdminAuthHandler {
	clk := config.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &AdminAuthHandler{
		service:      service,
		verifier:     verifier,
		status:       status,
		ipConfig:     config.IPConfig,
		cookieConfig: config.CookieConfig,
		lifetime:     config.SessionLifetime,
		production:   config.Production,
		clock:        clk,
		logger:       logger,
	}
}

// Request DTOs

// LoginRequest represents the request body for the admin login. A missing
// password is not a validation error: it is a failed attempt like any other.
type LoginRequest struct {
	Password string `json:"password" validate:"max=256"`
	OTP      string `json:"otp" validate:"omitempty,len=6,numeric"`
}

// Response DTOs

// LoginResponse is the body of every POST /admin/login response
type LoginResponse struct {
	OK           bool   `json:"ok"`
	Error        string `json:"error,omitempty"`
	RetryAfterMs *int64 `json:"retryAfterMs,omitempty"`
}

// LoginStatusResponse is the body of GET /admin/login
type LoginStatusResponse struct {
	Blocked      bool   `json:"blocked"`
	RetryAfterMs int64  `json:"retryAfterMs"`
	Identity     string `json:"identity"`
}

// LogoutResponse is the body of POST /admin/logout
type LogoutResponse struct {
	Success bool `json:"success"`
}

// VerifyResponse is the body of a successful GET /admin/verify
type VerifyResponse struct {
	Authenticated bool   `json:"authenticated"`
	Timestamp     string `json:"timestamp"`
}

// Login handles POST /admin/login
func (h *AdminAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := decodeJSON(w, r, &req, maxLoginBodyBytes); err != nil {
		pkghttp.WriteJSON(w, http.StatusBadRequest, LoginResponse{Error: err.Error()})
		return
	}

	identity := pkghttp.ExtractClientIP(r, h.ipConfig)

	session, err := h.service.Login(r.Context(), services.LoginInput{
		Password:  req.Password,
		OTP:       req.OTP,
		Identity:  identity,
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		var rateLimited *models.RateLimitedError
		switch {
		case errors.As(err, &rateLimited):
			retryAfterMs := rateLimited.RetryAfter.Milliseconds()
			pkghttp.SetRetryAfter(w, rateLimited.RetryAfter)
			pkghttp.WriteJSON(w, http.StatusTooManyRequests, LoginResponse{
				Error:        "Too many failed attempts. Try again later.",
				RetryAfterMs: &retryAfterMs,
			})
		case errors.Is(err, models.ErrInvalidCredentials):
			pkghttp.WriteJSON(w, http.StatusUnauthorized, LoginResponse{Error: "Invalid password"})
		default:
			h.logger.Error("admin login failed", slog.Any("error", err))
			pkghttp.WriteJSON(w, http.StatusInternalServerError, LoginResponse{Error: "Internal server error"})
		}
		return
	}

	auth.SetSessionCookie(w, session.Token, h.clock.Now(), h.lifetime, h.cookieConfig)
	pkghttp.WriteJSON(w, http.StatusOK, LoginResponse{OK: true})
}

// LoginStatus handles GET /admin/login. Outside production, ?reset=true
// clears the caller's own ledger entry first.
func (h *AdminAuthHandler) LoginStatus(w http.ResponseWriter, r *http.Request) {
	identity := pkghttp.ExtractClientIP(r, h.ipConfig)

	if r.URL.Query().Get("reset") == "true" && !h.production {
		h.service.ResetIdentity(r.Context(), identity)
	}

	blocked, remaining := h.service.LoginStatus(r.Context(), identity)
	pkghttp.WriteJSON(w, http.StatusOK, LoginStatusResponse{
		Blocked:      blocked,
		RetryAfterMs: remaining.Milliseconds(),
		Identity:     identity,
	})
}

// Logout handles POST /admin/logout. It always succeeds.
func (h *AdminAuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := auth.GetSessionCookie(r)
	h.service.Logout(r.Context(), token, pkghttp.ExtractClientIP(r, h.ipConfig))

	auth.ClearSessionCookie(w, h.cookieConfig)
	pkghttp.WriteJSON(w, http.StatusOK, LogoutResponse{Success: true})
}

// Verify handles GET /admin/verify
func (h *AdminAuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	result := h.verifier.Verify(r.Context(), auth.RequestMetaFromRequest(r, h.ipConfig))
	if !result.Authenticated() {
		auth.WriteVerificationFailure(w, result)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, VerifyResponse{
		Authenticated: true,
		Timestamp:     h.clock.Now().UTC().Format(time.RFC3339),
	})
}

// SecurityStatus handles GET /admin/security-status. Must be mounted behind
// auth.RequireAdminSession.
func (h *AdminAuthHandler) SecurityStatus(w http.ResponseWriter, r *http.Request) {
	report := h.status.Report(r.Context(), auth.GetSessionFromContext(r))
	pkghttp.WriteJSON(w, http.StatusOK, report)
}
