package handlers

import (
	"net/http"

	"github.com/tweettube/backend/internal/apperr"
)

// HealthHandler responds with service health information.
type HealthHandler struct {
	DB Pinger
}

// Handle implements GET /healthz and GET /api/v1/healthcheck.
func (h HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.DB != nil {
		if err := h.DB.Ping(ctx); err != nil {
			respondError(ctx, w, apperr.Wrap(apperr.Internal, "database unreachable", err))
			return
		}
	}

	respond(ctx, w, http.StatusOK, map[string]string{"status": "ok"}, "healthy")
}
