package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/drdata1010/plan-b-backend-sub001/internal/auth"
	"github.com/drdata1010/plan-b-backend-sub001/internal/domain"
	"github.com/drdata1010/plan-b-backend-sub001/internal/events"
	"github.com/drdata1010/plan-b-backend-sub001/internal/repository"
	"github.com/drdata1010/plan-b-backend-sub001/pkg/log"
)

// ticketTransitions lists the permitted status moves. Absent pairs are
// rejected with ErrInvalidTransition.
var ticketTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketOpen:               {domain.TicketInProgress, domain.TicketCancelled},
	domain.TicketInProgress:         {domain.TicketWaitingForCustomer, domain.TicketWaitingForExpert, domain.TicketResolved, domain.TicketCancelled},
	domain.TicketWaitingForCustomer: {domain.TicketInProgress, domain.TicketResolved, domain.TicketCancelled},
	domain.TicketWaitingForExpert:   {domain.TicketInProgress, domain.TicketResolved, domain.TicketCancelled},
	domain.TicketResolved:           {domain.TicketClosed, domain.TicketInProgress},
	domain.TicketClosed:             {},
	domain.TicketCancelled:          {},
}

// TicketService implements the ticket lifecycle.
type TicketService struct {
	tickets  repository.TicketRepository
	notifier *NotificationService
	producer events.Producer
}

// NewTicketService creates a ticket service.
func NewTicketService(tickets repository.TicketRepository, notifier *NotificationService, producer events.Producer) *TicketService {
	return &TicketService{tickets: tickets, notifier: notifier, producer: producer}
}

// Create opens a ticket with a freshly allocated number.
func (s *TicketService) Create(ctx context.Context, userID string, req *domain.CreateTicketRequest) (*domain.Ticket, error) {
	n, err := s.tickets.NextNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("allocate ticket number: %w", err)
	}

	priority := req.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}

	ticket := &domain.Ticket{
		Number:      fmt.Sprintf("TKT-%06d", n),
		Title:       req.Title,
		Description: req.Description,
		Status:      domain.TicketOpen,
		Priority:    priority,
		Category:    req.Category,
		UserID:      userID,
		DueDate:     req.DueDate,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	log.L().Info().
		Str(log.FieldTicketID, ticket.ID).
		Str("number", ticket.Number).
		Msg("ticket created")

	s.emit(ctx, events.EventTicketCreated, ticket.ID, userID, ticket)
	s.notifier.NotifyRole(auth.RoleSupport, domain.NotifyTicketCreated, "New ticket", ticket.Number+": "+ticket.Title)
	return ticket, nil
}

// Get returns a ticket by id.
func (s *TicketService) Get(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTicketNotFound
	}
	return ticket, err
}

// GetByNumber returns a ticket by its human-facing number.
func (s *TicketService) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByNumber(ctx, number)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTicketNotFound
	}
	return ticket, err
}

// List returns tickets matching the filter.
func (s *TicketService) List(ctx context.Context, filter domain.TicketFilter, page repository.Page) ([]*domain.Ticket, error) {
	return s.tickets.List(ctx, filter, page)
}

// Update edits mutable ticket fields. Status is changed via Transition.
func (s *TicketService) Update(ctx context.Context, id string, req *domain.UpdateTicketRequest) (*domain.Ticket, error) {
	ticket, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		ticket.Title = *req.Title
	}
	if req.Description != nil {
		ticket.Description = *req.Description
	}
	if req.Priority != nil {
		ticket.Priority = *req.Priority
	}
	if req.Category != nil {
		ticket.Category = *req.Category
	}
	if req.DueDate != nil {
		ticket.DueDate = req.DueDate
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// Transition moves a ticket to a new status when the lifecycle permits it.
func (s *TicketService) Transition(ctx context.Context, id string, to domain.TicketStatus, actorID string) (*domain.Ticket, error) {
	ticket, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !transitionAllowed(ticket.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, ticket.Status, to)
	}

	now := time.Now()
	ticket.Status = to
	switch to {
	case domain.TicketResolved:
		ticket.ResolvedAt = &now
	case domain.TicketClosed:
		ticket.ClosedAt = &now
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}

	log.L().Info().
		Str(log.FieldTicketID, ticket.ID).
		Str("status", string(to)).
		Msg("ticket status changed")

	s.emit(ctx, events.EventTicketStatusChanged, ticket.ID, actorID, map[string]any{"status": to})
	s.notifier.NotifyUser(ticket.UserID, domain.NotifyTicketStatusChanged,
		"Ticket "+ticket.Number, "Status changed to "+string(to))
	if ticket.AssignedExpertID != nil && *ticket.AssignedExpertID != actorID {
		s.notifier.NotifyUser(*ticket.AssignedExpertID, domain.NotifyTicketStatusChanged,
			"Ticket "+ticket.Number, "Status changed to "+string(to))
	}
	return ticket, nil
}

// Assign hands a ticket to an expert and moves it to IN_PROGRESS when still
// open.
func (s *TicketService) Assign(ctx context.Context, id, expertUserID, actorID string) (*domain.Ticket, error) {
	ticket, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ticket.AssignedExpertID = &expertUserID
	if ticket.Status == domain.TicketOpen {
		ticket.Status = domain.TicketInProgress
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}

	s.emit(ctx, events.EventTicketAssigned, ticket.ID, actorID, map[string]any{"expert_id": expertUserID})
	s.notifier.NotifyUser(expertUserID, domain.NotifyTicketAssigned,
		"Ticket assigned", ticket.Number+": "+ticket.Title)
	s.notifier.NotifyUser(ticket.UserID, domain.NotifyTicketAssigned,
		"Ticket "+ticket.Number, "An expert has been assigned")
	return ticket, nil
}

// AddComment appends a comment to a ticket.
func (s *TicketService) AddComment(ctx context.Context, ticketID, authorID, content string) (*domain.TicketComment, error) {
	if _, err := s.Get(ctx, ticketID); err != nil {
		return nil, err
	}
	comment := &domain.TicketComment{
		TicketID: ticketID,
		AuthorID: authorID,
		Content:  content,
	}
	if err := s.tickets.AddComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// ListComments returns a ticket's comments in posting order.
func (s *TicketService) ListComments(ctx context.Context, ticketID string) ([]*domain.TicketComment, error) {
	if _, err := s.Get(ctx, ticketID); err != nil {
		return nil, err
	}
	return s.tickets.ListComments(ctx, ticketID)
}

func (s *TicketService) emit(ctx context.Context, typ, entityID, actorID string, payload any) {
	err := s.producer.Publish(ctx, events.Event{
		Type:       typ,
		EntityID:   entityID,
		ActorID:    actorID,
		Payload:    payload,
		OccurredAt: time.Now(),
	})
	if err != nil {
		log.L().Warn().Err(err).Str("event", typ).Msg("event publish failed")
	}
}

func transitionAllowed(from, to domain.TicketStatus) bool {
	for _, s := range ticketTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
