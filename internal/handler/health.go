package handler

import (
	"log/slog"
	"net/http"
	"time"
)

type HealthHandler struct {
	ping func(r *http.Request) error
}

// NewHealthHandler takes the readiness probe as a function so main can wire
// in a database ping, a redis ping, or nothing.
func NewHealthHandler(ping func(r *http.Request) error) *HealthHandler {
	return &HealthHandler{ping: ping}
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"version":   "1.0.0",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK

	if h.ping != nil {
		if err := h.ping(r); err != nil {
			slog.Warn("readiness check failed", "error", err)
			status = "down"
			httpStatus = http.StatusServiceUnavailable
		}
	}

	RespondJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
