// Package token mints and parses signed session tokens for transport layers.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "userhub"

var (
	// ErrSecretRequired indicates the signer was built without key material.
	ErrSecretRequired = errors.New("signing secret is required")
	// ErrTokenInvalid indicates the token failed signature or claim checks.
	ErrTokenInvalid = errors.New("session token is invalid")
)

// Signer mints HS256 tokens that carry a session id as the subject claim.
//
// Tokens exist so the HTTP collaborator can hand out opaque bearer
// credentials; the embedded expiry is informational and session liveness is
// always decided by the session document, never by the clock.
type Signer struct {
	secret []byte
	clock  func() time.Time
}

// NewSigner creates a Signer from secret key material.
func NewSigner(secret []byte) (*Signer, error) {
	if len(secret) == 0 {
		return nil, ErrSecretRequired
	}
	return &Signer{secret: secret, clock: time.Now}, nil
}

// WithClock overrides the time source, for deterministic tests.
func (s *Signer) WithClock(clock func() time.Time) *Signer {
	if s == nil || clock == nil {
		return s
	}
	s.clock = clock
	return s
}

// IssueSessionToken mints a signed token for the given session id.
func (s *Signer) IssueSessionToken(sessionID string) (string, error) {
	if s == nil || len(s.secret) == 0 {
		return "", ErrSecretRequired
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return "", fmt.Errorf("session id is required")
	}
	now := s.clock().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:   issuer,
		Subject:  sessionID,
		IssuedAt: jwt.NewNumericDate(now),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// ParseSessionToken validates a token and returns the embedded session id.
func (s *Signer) ParseSessionToken(raw string) (string, error) {
	if s == nil || len(s.secret) == 0 {
		return "", ErrSecretRequired
	}
	parsed, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(issuer))
	if err != nil || !parsed.Valid {
		return "", ErrTokenInvalid
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || strings.TrimSpace(claims.Subject) == "" {
		return "", ErrTokenInvalid
	}
	return claims.Subject, nil
}
