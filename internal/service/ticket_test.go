package service

import (
	"context"
	"errors"
	"testing"

	"github.com/drdata1010/plan-b-backend-sub001/internal/domain"
	"github.com/drdata1010/plan-b-backend-sub001/internal/events"
	"github.com/drdata1010/plan-b-backend-sub001/internal/repository"
)

func newTicketService() (*TicketService, *recordingBroker) {
	broker := newRecordingBroker()
	return NewTicketService(
		repository.NewMemoryTicketRepository(),
		NewNotificationService(broker),
		events.NoopProducer{},
	), broker
}

func TestTicketCreate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTicketService()

	t.Run("numbers are sequential", func(t *testing.T) {
		first, err := svc.Create(ctx, "u1", &domain.CreateTicketRequest{Title: "first"})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		second, _ := svc.Create(ctx, "u1", &domain.CreateTicketRequest{Title: "second"})

		if first.Number != "TKT-000001" {
			t.Fatalf("first number = %q", first.Number)
		}
		if second.Number != "TKT-000002" {
			t.Fatalf("second number = %q", second.Number)
		}
	})

	t.Run("defaults applied", func(t *testing.T) {
		ticket, _ := svc.Create(ctx, "u1", &domain.CreateTicketRequest{Title: "plain"})
		if ticket.Status != domain.TicketOpen {
			t.Fatalf("status = %q", ticket.Status)
		}
		if ticket.Priority != domain.PriorityMedium {
			t.Fatalf("priority = %q", ticket.Priority)
		}
	})

	t.Run("creation notifies the support topic", func(t *testing.T) {
		svc, broker := newTicketService()
		if _, err := svc.Create(ctx, "u1", &domain.CreateTicketRequest{Title: "urgent"}); err != nil {
			t.Fatalf("create: %v", err)
		}
		if got := broker.count("/topic/role/support"); got != 1 {
			t.Fatalf("support topic publishes = %d, want 1", got)
		}
	})

	t.Run("lookup by number", func(t *testing.T) {
		created, _ := svc.Create(ctx, "u1", &domain.CreateTicketRequest{Title: "findable"})
		found, err := svc.GetByNumber(ctx, created.Number)
		if err != nil {
			t.Fatalf("get by number: %v", err)
		}
		if found.ID != created.ID {
			t.Fatalf("found %q, want %q", found.ID, created.ID)
		}
	})
}

func TestTicketTransitions(t *testing.T) {
	ctx := context.Background()

	t.Run("permitted path open to closed", func(t *testing.T) {
		svc, _ := newTicketService()
		ticket, _ := svc.Create(ctx, "u1", &domain.CreateTicketRequest{Title: "t"})

		for _, status := range []domain.TicketStatus{
			domain.TicketInProgress,
			domain.TicketResolved,
			domain.TicketClosed,
		} {
			var err error
			ticket, err = svc.Transition(ctx, ticket.ID, status, "s1")
			if err != nil {
				t.Fatalf("transition to %s: %v", status, err)
			}
		}
		if ticket.ResolvedAt == nil || ticket.ClosedAt == nil {
			t.Fatalf("timestamps not set: %+v", ticket)
		}
	})

	t.Run("resolved can reopen", func(t *testing.T) {
		svc, _ := newTicketService()
		ticket, _ := svc.Create(ctx, "u1", &domain.CreateTicketRequest{Title: "t"})
		svc.Transition(ctx, ticket.ID, domain.TicketInProgress, "s1")
		svc.Transition(ctx, ticket.ID, domain.TicketResolved, "s1")

		reopened, err := svc.Transition(ctx, ticket.ID, domain.TicketInProgress, "u1")
		if err != nil {
			t.Fatalf("reopen: %v", err)
		}
		if reopened.Status != domain.TicketInProgress {
			t.Fatalf("status = %q", reopened.Status)
		}
	})

	t.Run("forbidden transitions rejected", func(t *testing.T) {
		svc, _ := newTicketService()
		ticket, _ := svc.Create(ctx, "u1", &domain.CreateTicketRequest{Title: "t"})

		// OPEN cannot jump straight to RESOLVED or CLOSED.
		for _, status := range []domain.TicketStatus{domain.TicketResolved, domain.TicketClosed} {
			if _, err := svc.Transition(ctx, ticket.ID, status, "s1"); !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("transition to %s: err = %v, want ErrInvalidTransition", status, err)
			}
		}

		// Terminal states accept nothing.
		svc.Transition(ctx, ticket.ID, domain.TicketCancelled, "s1")
		if _, err := svc.Transition(ctx, ticket.ID, domain.TicketOpen, "s1"); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("err = %v, want ErrInvalidTransition", err)
		}
	})

	t.Run("unknown ticket", func(t *testing.T) {
		svc, _ := newTicketService()
		if _, err := svc.Transition(ctx, "nope", domain.TicketInProgress, "s1"); !errors.Is(err, ErrTicketNotFound) {
			t.Fatalf("err = %v, want ErrTicketNotFound", err)
		}
	})
}

func TestTicketAssign(t *testing.T) {
	ctx := context.Background()
	svc, broker := newTicketService()

	ticket, _ := svc.Create(ctx, "u1", &domain.CreateTicketRequest{Title: "t"})
	assigned, err := svc.Assign(ctx, ticket.ID, "e1", "s1")
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if assigned.AssignedExpertID == nil || *assigned.AssignedExpertID != "e1" {
		t.Fatalf("assignee = %v", assigned.AssignedExpertID)
	}
	if assigned.Status != domain.TicketInProgress {
		t.Fatalf("status = %q, want IN_PROGRESS", assigned.Status)
	}

	// Both the expert and the ticket owner are notified.
	if got := broker.count("/user/e1/queue/notifications"); got != 1 {
		t.Fatalf("expert notifications = %d, want 1", got)
	}
	if got := broker.count("/user/u1/queue/notifications"); got != 1 {
		t.Fatalf("owner notifications = %d, want 1", got)
	}
}

func TestTicketComments(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTicketService()

	ticket, _ := svc.Create(ctx, "u1", &domain.CreateTicketRequest{Title: "t"})

	if _, err := svc.AddComment(ctx, "nope", "u1", "x"); !errors.Is(err, ErrTicketNotFound) {
		t.Fatalf("err = %v, want ErrTicketNotFound", err)
	}

	svc.AddComment(ctx, ticket.ID, "u1", "first")
	svc.AddComment(ctx, ticket.ID, "e1", "second")

	comments, err := svc.ListComments(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(comments) != 2 || comments[0].Content != "first" || comments[1].Content != "second" {
		t.Fatalf("comments = %+v", comments)
	}
}

func TestTicketListFilters(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTicketService()

	svc.Create(ctx, "u1", &domain.CreateTicketRequest{Title: "a", Category: "billing"})
	svc.Create(ctx, "u2", &domain.CreateTicketRequest{Title: "b", Category: "billing"})
	t3, _ := svc.Create(ctx, "u2", &domain.CreateTicketRequest{Title: "c", Category: "outage"})
	svc.Assign(ctx, t3.ID, "e1", "s1")

	byUser, _ := svc.List(ctx, domain.TicketFilter{UserID: "u2"}, repository.Page{})
	if len(byUser) != 2 {
		t.Fatalf("u2 tickets = %d, want 2", len(byUser))
	}

	byCategory, _ := svc.List(ctx, domain.TicketFilter{Category: "billing"}, repository.Page{})
	if len(byCategory) != 2 {
		t.Fatalf("billing tickets = %d, want 2", len(byCategory))
	}

	byExpert, _ := svc.List(ctx, domain.TicketFilter{AssignedExpertID: "e1"}, repository.Page{})
	if len(byExpert) != 1 {
		t.Fatalf("e1 tickets = %d, want 1", len(byExpert))
	}

	unassigned, _ := svc.List(ctx, domain.TicketFilter{Unassigned: true}, repository.Page{})
	if len(unassigned) != 2 {
		t.Fatalf("unassigned tickets = %d, want 2", len(unassigned))
	}
}
