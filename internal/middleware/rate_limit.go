package middleware

import (
	"net/http"
	"strconv"
	"time"

	pkghttp "github.com/BradenHooton/admingate/pkg/http"
	"github.com/go-chi/httprate"
)

// RateLimitConfig holds request-rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int
	IPConfig          *pkghttp.IPConfig
}

type rateLimitResponse struct {
	OK           bool   `json:"ok"`
	Error        string `json:"error"`
	RetryAfterMs int64  `json:"retryAfterMs"`
}

// LoginRateLimit caps raw request volume per client identity on the login
// endpoint. It sits in front of the attempt ledger and counts every request,
// successful or not.
func LoginRateLimit(config RateLimitConfig) func(next http.Handler) http.Handler {
	return httprate.Limit(
		config.RequestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return pkghttp.ExtractClientIP(r, config.IPConfig), nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			retryAfter := w.Header().Get("Retry-After")
			seconds, _ := strconv.ParseInt(retryAfter, 10, 64)
			if seconds <= 0 {
				seconds = 60
				w.Header().Set("Retry-After", "60")
			}
			pkghttp.WriteJSON(w, http.StatusTooManyRequests, rateLimitResponse{
				Error:        "Rate limit exceeded",
				RetryAfterMs: seconds * 1000,
			})
		}),
	)
}
