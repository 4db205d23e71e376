package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/tweettube/backend/internal/apperr"
	"github.com/tweettube/backend/internal/logging"
)

// envelope is the uniform response shape every endpoint returns, success and
// failure alike.
type envelope struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

func respond(ctx context.Context, w http.ResponseWriter, status int, data any, message string) {
	writeEnvelope(ctx, w, envelope{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < http.StatusBadRequest,
	})
}

// respondError maps an error onto its wire status and caller-safe message.
// The underlying cause stays in the logs.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	status := apperr.KindOf(err).HTTPStatus()

	logger := logging.FromContext(ctx)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request returned client error", "status", status, "error", err)
	}

	writeEnvelope(ctx, w, envelope{
		StatusCode: status,
		Data:       nil,
		Message:    apperr.MessageOf(err),
		Success:    false,
	})
}

func writeEnvelope(ctx context.Context, w http.ResponseWriter, e envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)

	if err := json.NewEncoder(w).Encode(e); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", e.StatusCode, "error", err)
	}
}
