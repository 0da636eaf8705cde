package http

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"
)

// ErrorBody is the JSON shape of every gateway error that has no richer body
type ErrorBody struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// WriteJSON writes v as an uncacheable JSON body with the given status code
func WriteJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)

	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes an ErrorBody carrying message
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorBody{Error: message})
}

// RetryAfterSeconds rounds d up to whole seconds so clients never retry early
func RetryAfterSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64(math.Ceil(d.Seconds()))
}

// SetRetryAfter sets the Retry-After header for d and returns the seconds sent
func SetRetryAfter(w http.ResponseWriter, d time.Duration) int64 {
	seconds := RetryAfterSeconds(d)
	w.Header().Set("Retry-After", strconv.FormatInt(seconds, 10))
	return seconds
}
