package http_test

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	pkghttp "github.com/BradenHooton/admingate/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	pkghttp.WriteJSON(w, 429, map[string]interface{}{"ok": false, "retryAfterMs": 1000})

	assert.Equal(t, 429, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["ok"])
	assert.Equal(t, float64(1000), resp["retryAfterMs"])
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	pkghttp.WriteError(w, 403, "Cross-origin request rejected")

	assert.Equal(t, 403, w.Code)

	var resp pkghttp.ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.OK)
	assert.Equal(t, "Cross-origin request rejected", resp.Error)
}

func TestRetryAfterSeconds(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want int64
	}{
		{0, 0},
		{-time.Second, 0},
		{time.Millisecond, 1},
		{time.Second, 1},
		{14*time.Minute + 1, 841},
		{14 * time.Minute, 840},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, pkghttp.RetryAfterSeconds(tt.in), tt.in.String())
	}
}

func TestSetRetryAfter(t *testing.T) {
	w := httptest.NewRecorder()

	seconds := pkghttp.SetRetryAfter(w, 90*time.Second+time.Millisecond)

	assert.Equal(t, int64(91), seconds)
	assert.Equal(t, "91", w.Header().Get("Retry-After"))
}
