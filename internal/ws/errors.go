package ws

import "errors"

var (
	// ErrUnauthenticated rejects a handshake missing a valid credential
	// while authentication is mandatory.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrUnauthorized rejects a subscribe or send denied by the rule table.
	// The connection stays open.
	ErrUnauthorized = errors.New("unauthorized destination")

	// ErrInvalidDestination rejects a path outside the destination namespace.
	ErrInvalidDestination = errors.New("invalid destination")

	// ErrMessageTooLarge rejects a publish whose payload exceeds the
	// configured maximum before any delivery happens.
	ErrMessageTooLarge = errors.New("message too large")

	// ErrRelayUnavailable is fatal at startup when relay mode is enabled and
	// the relay cannot be reached.
	ErrRelayUnavailable = errors.New("relay unavailable")
)
