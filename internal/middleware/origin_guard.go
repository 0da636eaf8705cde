package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	pkghttp "github.com/BradenHooton/admingate/pkg/http"
)

// OriginGuard rejects cross-site state-changing requests. A POST whose Origin
// header names neither the request host nor an allowed origin gets 403.
// Requests without an Origin header (non-browser clients) pass through.
func OriginGuard(allowedOrigins []string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isStateChangingMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			origin := r.Header.Get("Origin")
			if origin == "" || sameHost(origin, r.Host) || contains(allowedOrigins, origin) {
				next.ServeHTTP(w, r)
				return
			}

			logger.Warn("cross-origin request blocked",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("origin", origin))
			pkghttp.WriteError(w, http.StatusForbidden, "Cross-origin request rejected")
		})
	}
}

func isStateChangingMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func sameHost(origin, host string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host != "" && strings.EqualFold(u.Host, host)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
