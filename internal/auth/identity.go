package auth

import (
	"context"
	"errors"
)

// ErrInvalidCredential is returned when the identity provider rejects a
// token. The websocket gatekeeper surfaces it as an unauthenticated
// handshake; the HTTP middleware maps it to 401.
var ErrInvalidCredential = errors.New("invalid credential")

// Claims are the verified claims extracted from a credential.
type Claims struct {
	Subject       string
	Name          string
	Email         string
	EmailVerified bool
	Roles         []string
}

// IdentityProvider verifies a bearer token and returns its claims. The
// implementation is chosen once at startup: JWT verification in real
// deployments, a deterministic synthetic provider for development.
type IdentityProvider interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}
