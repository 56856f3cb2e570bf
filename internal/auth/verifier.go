package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for tokens that fail verification.
var ErrInvalidToken = errors.New("INVALID_TOKEN")

// Issuer is the iss claim of issued tokens.
const Issuer = "remoshock"

// TokenClaims are the JWT claims of an issued token.
type TokenClaims struct {
	Scopes []string `json:"scopes"`
	jwt.RegisteredClaims
}

// Verifier issues and verifies HS256 tokens signed with the web
// authentication token.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

// NewVerifier creates a verifier for the given secret.
func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("web authentication token must not be empty")
	}
	return &Verifier{secret: []byte(secret), now: time.Now}, nil
}

// Issue signs a token for subject with the given scopes. A ttl of zero
// issues a token without expiry.
func (v *Verifier) Issue(subject string, scopes []string, ttl time.Duration) (string, error) {
	now := v.now()
	claims := TokenClaims{
		Scopes: scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   Issuer,
			Subject:  subject,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken checks signature, issuer, expiry and scopes of a token.
func (v *Verifier) VerifyToken(tokenString string) (*Claims, error) {
	claims := &TokenClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if len(claims.Scopes) == 0 {
		return nil, fmt.Errorf("%w: no scopes", ErrInvalidToken)
	}
	for _, scope := range claims.Scopes {
		if scope != ScopeRead && scope != ScopeControl {
			return nil, fmt.Errorf("%w: unknown scope %q", ErrInvalidToken, scope)
		}
	}

	return &Claims{Subject: claims.Subject, Scopes: claims.Scopes}, nil
}
