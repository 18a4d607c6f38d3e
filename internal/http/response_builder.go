package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"spendlog/internal/core"
	applog "spendlog/internal/log"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response",
			applog.FieldComponent, applog.ComponentHTTP,
			applog.FieldError, err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeServiceError maps service errors onto HTTP statuses. Unknown errors
// are reported without their details.
func writeServiceError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	writeError(w, status, message)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, core.ErrEmptyDate),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrReservedCategory),
		errors.Is(err, core.ErrInvalidAmount):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrUnknownField), errors.Is(err, core.ErrInvalidPeriod):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
