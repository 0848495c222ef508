package auth

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNoToken = errors.New("no access token set")

// TokenStore holds the bearer token for the current session and the claims
// decoded from it. The token is issued and signed by the backend; the client
// only reads the claims, it never verifies the signature, so ParseUnverified
// is the right tool here.
type TokenStore struct {
	mu        sync.RWMutex
	raw       string
	userID    string
	expiresAt time.Time
}

func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

// SetToken replaces the session token and decodes its claims. A token whose
// claims cannot be parsed is still stored, since the backend is the only
// party that needs to understand it.
func (t *TokenStore) SetToken(raw string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.raw = raw
	t.userID = ""
	t.expiresAt = time.Time{}
	if raw == "" {
		return ErrNoToken
	}

	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return err
	}

	if sub, err := claims.GetSubject(); err == nil {
		t.userID = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		t.expiresAt = exp.Time
	}
	return nil
}

// Token returns the raw bearer token, or "" when none is set.
func (t *TokenStore) Token() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.raw
}

// UserID returns the viewer's user id from the token subject claim.
func (t *TokenStore) UserID() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.userID
}

// ExpiresWithin reports whether the token expires inside the given window.
// Tokens without an exp claim never report as expiring.
func (t *TokenStore) ExpiresWithin(window time.Duration) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.expiresAt.IsZero() {
		return false
	}
	return time.Until(t.expiresAt) < window
}
