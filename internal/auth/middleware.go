package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Claims describe an authenticated client.
type Claims struct {
	Subject string   `json:"sub"`
	Scopes  []string `json:"scopes"`
}

// ContextKey is used for storing claims in request context.
type ContextKey string

const (
	ClaimsKey ContextKey = "claims"
)

// Scopes
const (
	ScopeRead    = "read"
	ScopeControl = "control"
)

// CookieName is the cookie set by the web interface.
const CookieName = "authentication_token"

// Middleware handles authentication and authorization.
type Middleware struct {
	token    string
	verifier *Verifier
	logger   zerolog.Logger
}

// NewMiddleware creates a middleware accepting token and JWTs signed
// with it.
func NewMiddleware(token string, logger zerolog.Logger) (*Middleware, error) {
	verifier, err := NewVerifier(token)
	if err != nil {
		return nil, err
	}
	return &Middleware{
		token:    token,
		verifier: verifier,
		logger:   logger.With().Str("component", "auth").Logger(),
	}, nil
}

// Verifier returns the verifier used for JWTs.
func (m *Middleware) Verifier() *Verifier {
	return m.verifier
}

// RequireAuth rejects requests without a valid token.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := m.authenticate(r)
		if claims == nil {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Missing or invalid authentication token")
			return
		}
		ctx := context.WithValue(r.Context(), ClaimsKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// RequireScope rejects authenticated requests lacking one of the scopes.
func (m *Middleware) RequireScope(requiredScopes ...string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaimsFromRequest(r)
			if claims == nil {
				writeError(w, http.StatusForbidden, "FORBIDDEN", "Missing or invalid authentication token")
				return
			}
			if !claims.HasScopes(requiredScopes...) {
				writeError(w, http.StatusForbidden, "FORBIDDEN", "Insufficient permissions")
				return
			}
			next(w, r)
		}
	}
}

// Protect combines RequireAuth and RequireScope.
func (m *Middleware) Protect(next http.HandlerFunc, scopes ...string) http.HandlerFunc {
	return m.RequireAuth(m.RequireScope(scopes...)(next))
}

// authenticate tries the bearer header first, then the query parameter,
// then the cookie.
func (m *Middleware) authenticate(r *http.Request) *Claims {
	for _, candidate := range candidates(r) {
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(m.token)) == 1 {
			return &Claims{Subject: "owner", Scopes: []string{ScopeRead, ScopeControl}}
		}
		claims, err := m.verifier.VerifyToken(candidate)
		if err == nil {
			return claims
		}
		m.logger.Debug().Err(err).Str("path", r.URL.Path).Msg("Token rejected")
	}
	return nil
}

func candidates(r *http.Request) []string {
	var tokens []string
	if parts := strings.Fields(r.Header.Get("Authorization")); len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		tokens = append(tokens, parts[1])
	}
	if token := r.URL.Query().Get("token"); token != "" {
		tokens = append(tokens, token)
	}
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		tokens = append(tokens, cookie.Value)
	}
	return tokens
}

// HasScopes reports whether the claims grant every given scope.
func (c *Claims) HasScopes(scopes ...string) bool {
	for _, required := range scopes {
		found := false
		for _, scope := range c.Scopes {
			if scope == required {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// GetClaimsFromRequest extracts claims from the request context.
func GetClaimsFromRequest(r *http.Request) *Claims {
	claims, ok := r.Context().Value(ClaimsKey).(*Claims)
	if !ok {
		return nil
	}
	return claims
}

// writeError writes an error response in the API format.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"result":        "error",
		"code":          code,
		"message":       message,
		"correlationId": uuid.NewString(),
	})
}
