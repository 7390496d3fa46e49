package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/Taswoor2507/movie-api/internal/logging"
)

// HealthHandler responds with service health information.
type HealthHandler struct {
	Checks  []HealthCheck
	Timeout time.Duration
}

// Handle implements GET /healthz.
func (h HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	payload := map[string]string{"status": "ok"}
	status := http.StatusOK
	for _, check := range h.Checks {
		if err := check.Check(ctx); err != nil {
			logging.FromContext(ctx).Warn("health check failed", "check", check.Name, "error", err)
			payload[check.Name] = "unavailable"
			payload["status"] = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		payload[check.Name] = "ok"
	}

	render.Status(r, status)
	render.JSON(w, r, payload)
}
