// Package handler contains the HTTP layer: it parses requests, calls the
// service layer, and writes the JSON envelopes the editor frontend expects.
// No business rules live here.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/code-editor-backend/internal/apperror"
	"github.com/sakif/code-editor-backend/internal/auth"
	"github.com/sakif/code-editor-backend/internal/service"
)

// Catch-all messages returned when an operation fails for a reason the API
// does not classify. The auth middleware reuses them for legacy-mode token
// decode failures, so each route is wired with its own.
const (
	MsgListFailed   = "Could not fetch user codes"
	MsgGetFailed    = "Could not fetch code file"
	MsgCreateFailed = "Could not create code file"
	MsgUpdateFailed = "Could not update code file"
	MsgDeleteFailed = "Could not delete code file"
	MsgRunFailed    = "Could not run code file"
)

// CodeFileHandler serves the /api/codefiles endpoints.
type CodeFileHandler struct {
	service *service.CodeFileService
	logger  *slog.Logger
}

// NewCodeFileHandler creates a new CodeFileHandler.
func NewCodeFileHandler(svc *service.CodeFileService, logger *slog.Logger) *CodeFileHandler {
	return &CodeFileHandler{
		service: svc,
		logger:  logger,
	}
}

// createRequest is the body accepted by HandleCreate. Both fields are
// required; the service reports every failing field at once.
type createRequest struct {
	Language   string `json:"language"`
	SourceCode string `json:"source_code"`
}

// updateRequest is the body accepted by HandleUpdate. Pointer fields keep
// "absent" and "explicitly empty" distinguishable: a missing key leaves the
// stored value untouched, an empty string overwrites it.
type updateRequest struct {
	Language   *string `json:"language"`
	SourceCode *string `json:"source_code"`
}

// HandleList returns every code file owned by the caller, newest first.
func (h *CodeFileHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Token not provided"})
		return
	}

	files, err := h.service.ListOwned(r.Context(), identity.Subject)
	if err != nil {
		writeError(w, err, MsgListFailed)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Status: "success", Data: files})
}

// HandleGetByID returns a single code file owned by the caller. A file that
// exists under another owner gets the same 404 as a missing id.
func (h *CodeFileHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Token not provided"})
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeError(w, err, MsgGetFailed)
		return
	}

	file, err := h.service.GetByID(r.Context(), identity.Subject, id)
	if err != nil {
		writeError(w, err, MsgGetFailed)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Status: "success", Data: file})
}

// HandleCreate validates and stores a new code file owned by the caller.
func (h *CodeFileHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Token not provided"})
		return
	}

	// A body that fails to decode is treated as an empty one, so the client
	// still gets the usual per-field validation response instead of a parse
	// error it has no UI for.
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid create request body", slog.String("error", err.Error()))
		req = createRequest{}
	}

	file, err := h.service.Create(r.Context(), identity, req.Language, req.SourceCode)
	if err != nil {
		writeError(w, err, MsgCreateFailed)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{
		Status:  "success",
		Message: "Code file created successfully",
		Data:    file,
	})
}

// HandleUpdate applies a partial update to one of the caller's code files.
func (h *CodeFileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Token not provided"})
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeError(w, err, MsgUpdateFailed)
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid update request body", slog.String("error", err.Error()))
		req = updateRequest{}
	}

	file, err := h.service.Update(r.Context(), identity.Subject, id, req.Language, req.SourceCode)
	if err != nil {
		writeError(w, err, MsgUpdateFailed)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{
		Status:  "success",
		Message: "Code file updated successfully",
		Data:    file,
	})
}

// HandleDelete removes one of the caller's code files.
func (h *CodeFileHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Token not provided"})
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeError(w, err, MsgDeleteFailed)
		return
	}

	if err := h.service.Delete(r.Context(), identity.Subject, id); err != nil {
		writeError(w, err, MsgDeleteFailed)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{
		Status:  "success",
		Message: "Code file deleted successfully",
	})
}

// HandleRun executes one of the caller's code files in the sandbox and
// returns the captured output.
func (h *CodeFileHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Token not provided"})
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeError(w, err, MsgRunFailed)
		return
	}

	result, err := h.service.Run(r.Context(), identity.Subject, id)
	if err != nil {
		writeError(w, err, MsgRunFailed)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Status: "success", Data: result})
}

// pathID parses the {id} route parameter. Anything that is not an integer
// is a 422, reported before any service call happens.
func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperror.Unprocessable("id", "The id field must be an integer.")
	}
	return id, nil
}
