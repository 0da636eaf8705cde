package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/BradenHooton/admingate/internal/models"
	pkghttp "github.com/BradenHooton/admingate/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// SessionContextKey is the key for storing the verified session in context
	SessionContextKey contextKey = "admin_session"
)

// SessionVerifier classifies a request's admin credential
type SessionVerifier interface {
	Verify(ctx context.Context, meta models.RequestMeta) models.VerificationResult
}

// RequestMetaFromRequest collects what session verification needs from r
func RequestMetaFromRequest(r *http.Request, ipConfig *pkghttp.IPConfig) models.RequestMeta {
	return models.RequestMeta{
		Credential: GetSessionCookie(r),
		Identity:   pkghttp.ExtractClientIP(r, ipConfig),
		UserAgent:  r.UserAgent(),
		Origin:     r.Header.Get("Origin"),
		Host:       r.Host,
	}
}

type unauthenticatedResponse struct {
	Authenticated bool   `json:"authenticated"`
	Error         string `json:"error,omitempty"`
}

// WriteVerificationFailure writes the external form of a failed verification:
// 403 for suspicious requests, 401 for everything else. The internal reason
// is never included.
func WriteVerificationFailure(w http.ResponseWriter, result models.VerificationResult) {
	if result.Outcome == models.OutcomeSuspicious {
		pkghttp.WriteJSON(w, http.StatusForbidden, unauthenticatedResponse{Error: "forbidden"})
		return
	}
	pkghttp.WriteJSON(w, http.StatusUnauthorized, unauthenticatedResponse{})
}

// RequireAdminSession only lets requests with a valid admin session through
// and injects the verified credential into the request context
func RequireAdminSession(verifier SessionVerifier, ipConfig *pkghttp.IPConfig, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result := verifier.Verify(r.Context(), RequestMetaFromRequest(r, ipConfig))
			if !result.Authenticated() {
				if logger != nil {
					logger.Debug("admin session rejected",
						"path", r.URL.Path,
						"outcome", string(result.Outcome),
						"reason", errString(result.Reason))
				}
				WriteVerificationFailure(w, result)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), result.Credential)))
		})
	}
}

// WithSession returns a copy of ctx carrying cred
func WithSession(ctx context.Context, cred *models.SessionCredential) context.Context {
	return context.WithValue(ctx, SessionContextKey, cred)
}

// GetSessionFromContext extracts the verified session from the request context
func GetSessionFromContext(r *http.Request) *models.SessionCredential {
	cred, ok := r.Context().Value(SessionContextKey).(*models.SessionCredential)
	if !ok {
		return nil
	}
	return cred
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
