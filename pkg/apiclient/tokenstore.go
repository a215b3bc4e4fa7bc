package apiclient

import (
	"sync"
	"time"

	"shopino/pkg/tokens"
)

// TokenStore caches the current access token and its expiry for one
// client process. The refresh token never appears here: it lives only
// in the HTTP cookie jar.
type TokenStore struct {
	mu          sync.RWMutex
	accessToken string
	expiresAt   time.Time
	now         func() time.Time
}

func NewTokenStore() *TokenStore {
	return &TokenStore{now: time.Now}
}

// Get returns the cached access token, or false if none is set.
func (s *TokenStore) Get() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.accessToken == "" {
		return "", false
	}
	return s.accessToken, true
}

// Set stores a fresh access token. expiresIn is the unix epoch second
// of expiry, matching the server's expires_in field.
func (s *TokenStore) Set(accessToken string, expiresIn int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = accessToken
	s.expiresAt = time.Unix(expiresIn, 0)
}

// Invalidate drops the cached token only if it still matches the one
// the server just rejected. A token rotated in by a concurrent refresh
// stays untouched.
func (s *TokenStore) Invalidate(rejected string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accessToken == rejected {
		s.accessToken = ""
		s.expiresAt = time.Time{}
	}
}

// Clear drops the cached token, on logout or terminal auth failure.
func (s *TokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = ""
	s.expiresAt = time.Time{}
}

// Expired reports whether the cached token is unusable. Tokens within
// the expiry skew of their deadline count as expired so a request never
// races the boundary.
func (s *TokenStore) Expired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.accessToken == "" {
		return true
	}
	return !s.now().Before(s.expiresAt.Add(-tokens.ExpirySkew))
}
