// Package events publishes audit events for ticket and chat activity to an
// external stream so downstream consumers (analytics, search indexers) can
// react without coupling to the API server.
package events

import (
	"context"
	"time"
)

// Event is one audit record on the stream. Key selects the partition so all
// events for one entity stay ordered.
type Event struct {
	Type       string    `json:"type"`
	EntityID   string    `json:"entity_id"`
	ActorID    string    `json:"actor_id,omitempty"`
	Payload    any       `json:"payload,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Event types on the stream.
const (
	EventTicketCreated       = "ticket.created"
	EventTicketAssigned      = "ticket.assigned"
	EventTicketStatusChanged = "ticket.status_changed"
	EventChatSessionOpened   = "chat.session_opened"
	EventChatSessionClosed   = "chat.session_closed"
	EventChatMessagePosted   = "chat.message_posted"
	EventConsultationBooked  = "consultation.booked"
)

// Producer emits events to the stream. Publish is best-effort from the
// caller's point of view; delivery failures are logged, not surfaced.
type Producer interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NoopProducer discards every event. Used when the event stream is disabled.
type NoopProducer struct{}

func (NoopProducer) Publish(context.Context, Event) error { return nil }
func (NoopProducer) Close() error                         { return nil }
