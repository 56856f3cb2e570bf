package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "s3cr3tTk"

func newTestMiddleware(t *testing.T) *Middleware {
	t.Helper()
	m, err := NewMiddleware(testToken, zerolog.Nop())
	require.NoError(t, err)
	return m
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetClaimsFromRequest(r)
	_, _ = w.Write([]byte(claims.Subject))
}

func TestNewMiddlewareRequiresToken(t *testing.T) {
	_, err := NewMiddleware("", zerolog.Nop())
	assert.Error(t, err)
}

func TestRequireAuthTokenSources(t *testing.T) {
	m := newTestMiddleware(t)
	handler := m.RequireAuth(okHandler)

	tests := []struct {
		name    string
		prepare func(r *http.Request)
		want    int
	}{
		{"none", func(r *http.Request) {}, http.StatusForbidden},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+testToken) }, http.StatusOK},
		{"bearer_lowercase", func(r *http.Request) { r.Header.Set("Authorization", "bearer "+testToken) }, http.StatusOK},
		{"bearer_wrong", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusForbidden},
		{"basic", func(r *http.Request) { r.Header.Set("Authorization", "Basic "+testToken) }, http.StatusForbidden},
		{"query", func(r *http.Request) { r.URL.RawQuery = "token=" + testToken }, http.StatusOK},
		{"query_wrong", func(r *http.Request) { r.URL.RawQuery = "token=other" }, http.StatusForbidden},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieName, Value: testToken}) }, http.StatusOK},
		{
			"bad_bearer_good_query",
			func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer nope")
				r.URL.RawQuery = "token=" + testToken
			},
			http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/remoshock/config", nil)
			tt.prepare(req)
			rec := httptest.NewRecorder()
			handler(rec, req)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, "owner", rec.Body.String())
			} else {
				assert.Contains(t, rec.Body.String(), `"code":"FORBIDDEN"`)
			}
		})
	}
}

func TestRequireScopeWithIssuedTokens(t *testing.T) {
	m := newTestMiddleware(t)
	handler := m.Protect(okHandler, ScopeControl)

	readOnly, err := m.Verifier().Issue("guest", []string{ScopeRead}, time.Hour)
	require.NoError(t, err)
	control, err := m.Verifier().Issue("partner", []string{ScopeRead, ScopeControl}, 0)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/remoshock/command?token="+readOnly, nil)
	rec := httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Insufficient permissions")

	req = httptest.NewRequest(http.MethodPost, "/remoshock/command", nil)
	req.Header.Set("Authorization", "Bearer "+control)
	rec = httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "partner", rec.Body.String())
}

func TestVerifyToken(t *testing.T) {
	v, err := NewVerifier(testToken)
	require.NoError(t, err)
	issued := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	v.now = func() time.Time { return issued }

	token, err := v.Issue("guest", []string{ScopeRead}, time.Minute)
	require.NoError(t, err)

	claims, err := v.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "guest", claims.Subject)
	assert.True(t, claims.HasScopes(ScopeRead))
	assert.False(t, claims.HasScopes(ScopeRead, ScopeControl))

	v.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = v.VerifyToken(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestVerifyTokenRejects(t *testing.T) {
	v, err := NewVerifier(testToken)
	require.NoError(t, err)

	sign := func(method jwt.SigningMethod, key interface{}, claims TokenClaims) string {
		t.Helper()
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	valid := TokenClaims{Scopes: []string{ScopeRead}, RegisteredClaims: jwt.RegisteredClaims{Issuer: Issuer, Subject: "x"}}

	tests := map[string]string{
		"other_secret":  sign(jwt.SigningMethodHS256, []byte("different"), valid),
		"hs512":         sign(jwt.SigningMethodHS512, []byte(testToken), valid),
		"wrong_issuer":  sign(jwt.SigningMethodHS256, []byte(testToken), TokenClaims{Scopes: []string{ScopeRead}, RegisteredClaims: jwt.RegisteredClaims{Issuer: "else"}}),
		"no_scopes":     sign(jwt.SigningMethodHS256, []byte(testToken), TokenClaims{RegisteredClaims: jwt.RegisteredClaims{Issuer: Issuer}}),
		"unknown_scope": sign(jwt.SigningMethodHS256, []byte(testToken), TokenClaims{Scopes: []string{"admin"}, RegisteredClaims: jwt.RegisteredClaims{Issuer: Issuer}}),
		"garbage":       "not.a.jwt",
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := v.VerifyToken(token)
			assert.True(t, errors.Is(err, ErrInvalidToken))
		})
	}
}
