// Package repository defines persistence interfaces for the platform's
// domain types, with gorm-backed and in-memory implementations.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/drdata1010/plan-b-backend-sub001/internal/domain"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("repository: not found")

// ErrDuplicate is returned when a uniqueness constraint would be violated.
var ErrDuplicate = errors.New("repository: duplicate")

// Page bounds list queries.
type Page struct {
	Offset int
	Limit  int
}

// Normalize clamps the page to sane bounds.
func (p Page) Normalize() Page {
	if p.Limit <= 0 || p.Limit > 200 {
		p.Limit = 50
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// UserRepository stores account profiles.
type UserRepository interface {
	Create(ctx context.Context, user *domain.UserProfile) error
	GetByID(ctx context.Context, id string) (*domain.UserProfile, error)
	GetByEmail(ctx context.Context, email string) (*domain.UserProfile, error)
	Update(ctx context.Context, user *domain.UserProfile) error
	List(ctx context.Context, page Page) ([]*domain.UserProfile, error)
	Delete(ctx context.Context, id string) error
}

// TicketRepository stores tickets, their comments, and the number sequence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByNumber(ctx context.Context, number string) (*domain.Ticket, error)
	Update(ctx context.Context, ticket *domain.Ticket) error
	List(ctx context.Context, filter domain.TicketFilter, page Page) ([]*domain.Ticket, error)
	NextNumber(ctx context.Context) (int64, error)

	AddComment(ctx context.Context, comment *domain.TicketComment) error
	ListComments(ctx context.Context, ticketID string) ([]*domain.TicketComment, error)
}

// ChatRepository stores chat sessions and messages.
type ChatRepository interface {
	CreateSession(ctx context.Context, session *domain.ChatSession) error
	GetSession(ctx context.Context, id string) (*domain.ChatSession, error)
	UpdateSession(ctx context.Context, session *domain.ChatSession) error
	ListSessionsByUser(ctx context.Context, userID string, page Page) ([]*domain.ChatSession, error)

	CreateMessage(ctx context.Context, msg *domain.ChatMessage) error
	GetMessage(ctx context.Context, id string) (*domain.ChatMessage, error)
	ListMessages(ctx context.Context, sessionID string, page Page) ([]*domain.ChatMessage, error)
	MarkMessageRead(ctx context.Context, id string) error
	MarkMessagesRead(ctx context.Context, sessionID, readerID string) (int64, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
}

// ExpertRepository stores expert profiles and availability slots.
type ExpertRepository interface {
	Create(ctx context.Context, expert *domain.Expert) error
	GetByID(ctx context.Context, id string) (*domain.Expert, error)
	GetByUserID(ctx context.Context, userID string) (*domain.Expert, error)
	Update(ctx context.Context, expert *domain.Expert) error
	List(ctx context.Context, onlyAvailable bool, page Page) ([]*domain.Expert, error)

	AddSlot(ctx context.Context, slot *domain.AvailabilitySlot) error
	ListSlots(ctx context.Context, expertID string) ([]*domain.AvailabilitySlot, error)
	RemoveSlot(ctx context.Context, slotID string) error
}

// ConsultationRepository stores bookings.
type ConsultationRepository interface {
	Create(ctx context.Context, c *domain.Consultation) error
	GetByID(ctx context.Context, id string) (*domain.Consultation, error)
	Update(ctx context.Context, c *domain.Consultation) error
	ListByUser(ctx context.Context, userID string, page Page) ([]*domain.Consultation, error)
	ListByExpert(ctx context.Context, expertID string, page Page) ([]*domain.Consultation, error)
	// ListOverlapping returns scheduled consultations for the expert whose
	// windows intersect [start, start+duration).
	ListOverlapping(ctx context.Context, expertID string, start time.Time, durationMinutes int) ([]*domain.Consultation, error)
}

// AttachmentRepository stores file metadata.
type AttachmentRepository interface {
	Create(ctx context.Context, a *domain.Attachment) error
	GetByID(ctx context.Context, id string) (*domain.Attachment, error)
	ListByEntity(ctx context.Context, entityType, entityID string) ([]*domain.Attachment, error)
	Delete(ctx context.Context, id string) error
}

// Repositories bundles every store for wiring.
type Repositories struct {
	Users         UserRepository
	Tickets       TicketRepository
	Chats         ChatRepository
	Experts       ExpertRepository
	Consultations ConsultationRepository
	Attachments   AttachmentRepository
}
