package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/BradenHooton/admingate/internal/models"
	pkghttp "github.com/BradenHooton/admingate/pkg/http"
)

// Pinger is anything whose availability /health reports
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports liveness and backing store reachability
type HealthHandler struct {
	store  Pinger
	logger *slog.Logger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(store Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{store: store, logger: logger}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		store := "error"
		if errors.Is(err, models.ErrStoreUnavailable) {
			store = "unreachable"
		}
		h.logger.Warn("health check failed", slog.String("store", store), slog.Any("error", err))
		pkghttp.WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "degraded", Store: store})
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok", Store: "ok"})
}
