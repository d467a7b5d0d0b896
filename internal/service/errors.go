// Package service implements the platform's business logic on top of the
// repository, storage, broker, and event-stream layers.
package service

import "errors"

var (
	// ErrSessionNotFound means the referenced chat session does not exist.
	ErrSessionNotFound = errors.New("chat session not found")

	// ErrSessionClosed rejects writes to an ended session.
	ErrSessionClosed = errors.New("chat session closed")

	// ErrMessageNotFound means the referenced chat message does not exist.
	ErrMessageNotFound = errors.New("chat message not found")

	// ErrTicketNotFound means the referenced ticket does not exist.
	ErrTicketNotFound = errors.New("ticket not found")

	// ErrNotParticipant rejects access to a session by a non-participant.
	ErrNotParticipant = errors.New("not a session participant")

	// ErrInvalidTransition rejects a ticket status change the lifecycle
	// does not permit.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrEmailTaken rejects registration with an address already in use.
	ErrEmailTaken = errors.New("email already registered")

	// ErrBadCredentials rejects a login with a wrong email or password.
	ErrBadCredentials = errors.New("bad credentials")

	// ErrSlotUnavailable rejects a consultation outside the expert's
	// published availability.
	ErrSlotUnavailable = errors.New("expert not available at that time")

	// ErrBookingConflict rejects a consultation overlapping an existing
	// booking.
	ErrBookingConflict = errors.New("consultation overlaps an existing booking")

	// ErrForbidden rejects an operation the caller lacks rights for.
	ErrForbidden = errors.New("forbidden")

	// ErrFileTooLarge rejects an upload over the configured size cap.
	ErrFileTooLarge = errors.New("file too large")
)
