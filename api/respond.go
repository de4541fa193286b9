package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/garnizeh/staffdir/pkg/apperror"
)

type errorResponse struct {
	Error     string `json:"error"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encode response", slog.Any("err", err))
	}
}

// writeError reports err to the client with the status of its kind. Errors of
// no known kind are logged and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperror.MapErrorToStatus(err)
	resp := errorResponse{Error: err.Error(), RequestID: RequestID(r.Context())}

	var verr *apperror.ValidationError
	switch {
	case errors.As(err, &verr):
		resp.Field = verr.Field
		resp.Error = verr.Message
	case errors.Is(err, apperror.ErrNotFound):
	case errors.Is(err, apperror.ErrStorageIO):
		logger.Error("attachment storage", slog.Any("err", err), slog.String("request_id", resp.RequestID))
	default:
		logger.Error("request failed", slog.Any("err", err), slog.String("request_id", resp.RequestID))
		resp.Error = "internal error"
	}

	writeJSON(w, resp, status)
}
