package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/code-editor-backend/internal/apperror"
)

// successResponse is the envelope every successful endpoint returns.
// Message and Data are omitted when a handler has nothing to put in them.
type successResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// errorStatus maps each domain error kind to its HTTP status code.
// The service layer never sees HTTP; this table is the only place
// where that translation happens.
var errorStatus = []struct {
	kind   error
	status int
}{
	{apperror.ErrValidation, http.StatusBadRequest},
	{apperror.ErrUnprocessable, http.StatusUnprocessableEntity},
	{apperror.ErrNotFound, http.StatusNotFound},
	{apperror.ErrForbidden, http.StatusForbidden},
	{apperror.ErrUnauthenticated, http.StatusUnauthorized},
	{apperror.ErrUnavailable, http.StatusServiceUnavailable},
}

// writeJSON sends a JSON response with the given status code.
// Headers must be set before the body is written; once Encode runs,
// the status line is already on the wire.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError translates a domain error into the wire shape clients expect.
//
// Validation errors carry a per-field message map under "error".
// Unprocessable errors use the {"message": ..., "errors": {...}} shape.
// Every other recognised kind becomes {"error": <message>} with its
// mapped status. Anything unrecognised is a 500 carrying the
// operation's catch-all message so internal details never leak.
func writeError(w http.ResponseWriter, err error, fallback string) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		for _, e := range errorStatus {
			if !errors.Is(err, e.kind) {
				continue
			}
			switch e.kind {
			case apperror.ErrValidation:
				writeJSON(w, e.status, map[string]any{"error": appErr.Fields})
			case apperror.ErrUnprocessable:
				writeJSON(w, e.status, map[string]any{
					"message": appErr.Message,
					"errors":  appErr.Fields,
				})
			default:
				writeJSON(w, e.status, map[string]string{"error": appErr.Message})
			}
			return
		}
	}

	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": fallback})
}
