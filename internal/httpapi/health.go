package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/cory-johannsen/ficha/internal/observability"
)

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	if err := h.Health(r.Context()); err != nil {
		observability.Logger(r.Context(), h.Logger).Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
