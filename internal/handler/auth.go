package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/sakif/code-editor-backend/internal/auth"
	"github.com/sakif/code-editor-backend/internal/service"
)

// MsgAuthFailed is the catch-all for unclassified failures on the auth routes.
const MsgAuthFailed = "Could not authenticate"

// AuthHandler serves registration, login, the GitHub OAuth flow, and /api/me.
//
// Both sign-in paths respond with the same {user, token} payload; the client
// stores the token and sends it as a Bearer header on every API call.
type AuthHandler struct {
	service *service.AuthService
	github  *auth.GitHubProvider // nil when OAuth is not configured
	logger  *slog.Logger
}

// NewAuthHandler creates an AuthHandler. github may be nil; the OAuth routes
// then report the feature as unavailable.
func NewAuthHandler(svc *service.AuthService, github *auth.GitHubProvider, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service: svc,
		github:  github,
		logger:  logger,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates a local account and signs it in.
//
// HTTP: POST /api/auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid register request body", slog.String("error", err.Error()))
		req = credentialsRequest{}
	}

	result, err := h.service.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err, MsgAuthFailed)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Status: "success", Data: result})
}

// HandleLogin verifies local credentials and signs the user in.
//
// HTTP: POST /api/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid login request body", slog.String("error", err.Error()))
		req = credentialsRequest{}
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err, MsgAuthFailed)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Status: "success", Data: result})
}

// HandleGitHubLogin redirects the browser to GitHub's authorization page.
//
// HTTP: GET /auth/github/login
//
// The random state lands in a short-lived HttpOnly cookie; the callback
// checks it to reject forged redirects.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "GitHub login is not configured"})
		return
	}

	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth flow: verify the state, exchange
// the code for a GitHub profile, upsert the account, and hand back the same
// {user, token} payload the local login produces.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "GitHub login is not configured"})
		return
	}

	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: state missing or mismatched")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid OAuth state"})
		return
	}

	// Single use.
	http.SetCookie(w, &http.Cookie{
		Name:   "oauth_state",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Authorization denied"})
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing OAuth code"})
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: GitHub exchange failed", slog.String("error", err.Error()))
		writeError(w, err, MsgAuthFailed)
		return
	}

	result, err := h.service.LoginOrRegisterGitHub(r.Context(), ghUser)
	if err != nil {
		h.logger.Error("auth callback: sign-in failed",
			slog.Int64("githubID", ghUser.ID),
			slog.String("error", err.Error()),
		)
		writeError(w, err, MsgAuthFailed)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Status: "success", Data: result})
}

// HandleMe returns the authenticated user's profile.
//
// HTTP: GET /api/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Token not provided"})
		return
	}

	user, err := h.service.GetUserByID(r.Context(), identity.Subject)
	if err != nil {
		h.logger.Error("failed to load current user",
			slog.Int64("userID", identity.Subject),
			slog.String("error", err.Error()),
		)
		writeError(w, err, "Could not fetch user")
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Status: "success", Data: user})
}
