package auth

import (
	"context"
	"sync"
	"time"
)

// DefaultCacheTTL bounds how long a validated principal is reused without
// re-verifying the token.
const DefaultCacheTTL = 5 * time.Minute

type cacheEntry struct {
	principal *Principal
	expiresAt time.Time
}

// Authenticator validates bearer tokens through an IdentityProvider and
// caches successful validations keyed by the raw token value. Failures are
// never cached, so a client can retry immediately with a fresh token.
type Authenticator struct {
	provider IdentityProvider
	ttl      time.Duration

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewAuthenticator creates an Authenticator. A non-positive ttl falls back
// to DefaultCacheTTL.
func NewAuthenticator(provider IdentityProvider, ttl time.Duration) *Authenticator {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Authenticator{
		provider: provider,
		ttl:      ttl,
		cache:    make(map[string]cacheEntry),
	}
}

// Validate verifies the token and returns its Principal. Expired cache
// entries are evicted lazily: an expired hit is treated as a miss and the
// token is re-verified.
func (a *Authenticator) Validate(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, ErrInvalidCredential
	}

	now := time.Now()

	a.mu.Lock()
	if entry, ok := a.cache[token]; ok {
		if now.Before(entry.expiresAt) {
			a.mu.Unlock()
			return entry.principal, nil
		}
		delete(a.cache, token)
	}
	a.mu.Unlock()

	// Provider call may block on a network round-trip; it is scoped to the
	// caller only, so the cache lock is not held across it.
	claims, err := a.provider.Verify(ctx, token)
	if err != nil {
		return nil, err
	}

	principal := &Principal{
		Subject:       claims.Subject,
		DisplayName:   claims.Name,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Roles:         claims.Roles,
	}

	a.mu.Lock()
	a.cache[token] = cacheEntry{principal: principal, expiresAt: now.Add(a.ttl)}
	a.mu.Unlock()

	return principal, nil
}

// Flush drops all cached validations.
func (a *Authenticator) Flush() {
	a.mu.Lock()
	a.cache = make(map[string]cacheEntry)
	a.mu.Unlock()
}
