package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. If you use a plain string like
// context.WithValue(ctx, "identity", id), ANY package that knows the string
// can read or shadow your value. A package-private type prevents collisions:
// only this package can create a key of type contextKey, so only this package
// can read or write Identity values in the context.
type contextKey string

const identityKey contextKey = "identity"

// Middleware authenticates API requests from the Authorization header.
//
// Historically each endpoint re-decoded the token itself, which meant the
// decode logic (and its quirks) was copied five times. Centralizing it here
// means handlers just read the Identity from the context.
//
// One quirk is preserved deliberately: the legacy API reported token decode
// failures (expired, malformed, bad signature) as 500 with the endpoint's
// generic failure message, not as 401. Clients grew to depend on that, so
// LegacyDecodeErrors keeps it reproducible; turn it off to get the sane 401.
type Middleware struct {
	tokens *TokenService

	// LegacyDecodeErrors maps token decode failures to 500 instead of 401.
	// Missing tokens are always 401 regardless of this flag.
	LegacyDecodeErrors bool
}

// NewMiddleware creates the auth middleware around a TokenService.
func NewMiddleware(tokens *TokenService, legacyDecodeErrors bool) *Middleware {
	return &Middleware{tokens: tokens, LegacyDecodeErrors: legacyDecodeErrors}
}

// Require returns a chi-compatible middleware that enforces authentication.
//
// failMessage is the endpoint's generic failure message ("Could not fetch
// user codes", ...) used as the response body when token decoding fails —
// the same body the endpoint's catch-all would produce, so callers cannot
// tell an auth failure from any other internal failure.
//
// Behavior:
//   - No Authorization header / no Bearer token →
//     401 {"error": "Token not provided"}. The request never reaches the
//     handler, so no store access happens.
//   - Token present but fails to decode →
//     500 (legacy) or 401 with {"error": failMessage}.
//   - Token valid → Identity stored in the request context, chain continues.
func (m *Middleware) Require(failMessage string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeAuthError(w, http.StatusUnauthorized, "Token not provided")
				return
			}

			identity, err := m.tokens.Validate(token)
			if err != nil {
				status := http.StatusUnauthorized
				if m.LegacyDecodeErrors {
					status = http.StatusInternalServerError
				}
				writeAuthError(w, status, failMessage)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext retrieves the authenticated caller from the request context.
//
// Returns (Identity{}, false) on routes not wrapped by Require — handlers on
// protected routes can rely on ok being true.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
// Returns "" if the header is absent or not in Bearer form.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// writeAuthError writes the flat {"error": ...} body the auth layer has
// always produced. It does not use the handler package's helpers to keep
// this package free of that import (handlers import auth, not vice versa).
func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
