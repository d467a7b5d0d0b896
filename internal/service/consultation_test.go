package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/drdata1010/plan-b-backend-sub001/internal/domain"
	"github.com/drdata1010/plan-b-backend-sub001/internal/events"
	"github.com/drdata1010/plan-b-backend-sub001/internal/repository"
)

func newConsultationFixture(t *testing.T) (*ConsultationService, *ExpertService, *domain.Expert) {
	t.Helper()
	experts := repository.NewMemoryExpertRepository()
	expertSvc := NewExpertService(experts)
	svc := NewConsultationService(
		repository.NewMemoryConsultationRepository(),
		experts,
		NewNotificationService(newRecordingBroker()),
		events.NoopProducer{},
	)

	expert, err := expertSvc.Register(context.Background(), "e1", &domain.ExpertRegistrationRequest{
		DisplayName: "Expert One",
	})
	if err != nil {
		t.Fatalf("register expert: %v", err)
	}
	return svc, expertSvc, expert
}

// nextWeekday returns the next future time on the given weekday at the
// given minute of day.
func nextWeekday(weekday time.Weekday, minute int) time.Time {
	now := time.Now()
	t := time.Date(now.Year(), now.Month(), now.Day(), minute/60, minute%60, 0, 0, time.Local)
	for t.Weekday() != weekday || t.Before(now) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

func TestConsultationBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("no published slots accepts any time", func(t *testing.T) {
		svc, _, expert := newConsultationFixture(t)

		c, err := svc.Book(ctx, "u1", &domain.BookConsultationRequest{
			ExpertID:        expert.ID,
			ScheduledAt:     nextWeekday(time.Tuesday, 9*60),
			DurationMinutes: 60,
		})
		if err != nil {
			t.Fatalf("book: %v", err)
		}
		if c.Status != domain.ConsultationScheduled {
			t.Fatalf("status = %q", c.Status)
		}
	})

	t.Run("inside published slot", func(t *testing.T) {
		svc, expertSvc, expert := newConsultationFixture(t)
		// Tuesdays 09:00-12:00.
		if _, err := expertSvc.AddSlot(ctx, expert.ID, int(time.Tuesday), 9*60, 12*60); err != nil {
			t.Fatalf("add slot: %v", err)
		}

		if _, err := svc.Book(ctx, "u1", &domain.BookConsultationRequest{
			ExpertID:        expert.ID,
			ScheduledAt:     nextWeekday(time.Tuesday, 10*60),
			DurationMinutes: 60,
		}); err != nil {
			t.Fatalf("book inside slot: %v", err)
		}
	})

	t.Run("outside published slot", func(t *testing.T) {
		svc, expertSvc, expert := newConsultationFixture(t)
		expertSvc.AddSlot(ctx, expert.ID, int(time.Tuesday), 9*60, 12*60)

		cases := []struct {
			name   string
			start  time.Time
			durMin int
		}{
			{"wrong weekday", nextWeekday(time.Wednesday, 10*60), 60},
			{"before window", nextWeekday(time.Tuesday, 8*60), 60},
			{"overruns window", nextWeekday(time.Tuesday, 11*60+30), 60},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := svc.Book(ctx, "u1", &domain.BookConsultationRequest{
					ExpertID:        expert.ID,
					ScheduledAt:     tc.start,
					DurationMinutes: tc.durMin,
				})
				if !errors.Is(err, ErrSlotUnavailable) {
					t.Fatalf("err = %v, want ErrSlotUnavailable", err)
				}
			})
		}
	})

	t.Run("overlapping booking rejected", func(t *testing.T) {
		svc, _, expert := newConsultationFixture(t)
		start := nextWeekday(time.Tuesday, 10*60)

		if _, err := svc.Book(ctx, "u1", &domain.BookConsultationRequest{
			ExpertID:        expert.ID,
			ScheduledAt:     start,
			DurationMinutes: 60,
		}); err != nil {
			t.Fatalf("first booking: %v", err)
		}

		// Same window, half-overlap, and containing window all conflict.
		for _, offset := range []time.Duration{0, 30 * time.Minute, -30 * time.Minute} {
			_, err := svc.Book(ctx, "u2", &domain.BookConsultationRequest{
				ExpertID:        expert.ID,
				ScheduledAt:     start.Add(offset),
				DurationMinutes: 90,
			})
			if !errors.Is(err, ErrBookingConflict) {
				t.Fatalf("offset %v: err = %v, want ErrBookingConflict", offset, err)
			}
		}

		// Back to back is fine.
		if _, err := svc.Book(ctx, "u2", &domain.BookConsultationRequest{
			ExpertID:        expert.ID,
			ScheduledAt:     start.Add(time.Hour),
			DurationMinutes: 30,
		}); err != nil {
			t.Fatalf("adjacent booking: %v", err)
		}
	})

	t.Run("cancelled bookings free the window", func(t *testing.T) {
		svc, _, expert := newConsultationFixture(t)
		start := nextWeekday(time.Tuesday, 10*60)

		c, _ := svc.Book(ctx, "u1", &domain.BookConsultationRequest{
			ExpertID:        expert.ID,
			ScheduledAt:     start,
			DurationMinutes: 60,
		})
		if _, err := svc.Cancel(ctx, c.ID, "u1"); err != nil {
			t.Fatalf("cancel: %v", err)
		}

		if _, err := svc.Book(ctx, "u2", &domain.BookConsultationRequest{
			ExpertID:        expert.ID,
			ScheduledAt:     start,
			DurationMinutes: 60,
		}); err != nil {
			t.Fatalf("rebook after cancel: %v", err)
		}
	})

	t.Run("unavailable expert rejects bookings", func(t *testing.T) {
		svc, expertSvc, expert := newConsultationFixture(t)
		expertSvc.SetAvailable(ctx, expert.ID, false)

		_, err := svc.Book(ctx, "u1", &domain.BookConsultationRequest{
			ExpertID:        expert.ID,
			ScheduledAt:     nextWeekday(time.Tuesday, 10*60),
			DurationMinutes: 60,
		})
		if !errors.Is(err, ErrSlotUnavailable) {
			t.Fatalf("err = %v, want ErrSlotUnavailable", err)
		}
	})
}

func TestConsultationAccess(t *testing.T) {
	ctx := context.Background()
	svc, _, expert := newConsultationFixture(t)

	c, _ := svc.Book(ctx, "u1", &domain.BookConsultationRequest{
		ExpertID:        expert.ID,
		ScheduledAt:     nextWeekday(time.Friday, 14*60),
		DurationMinutes: 30,
	})

	t.Run("booking user sees it", func(t *testing.T) {
		if _, err := svc.Get(ctx, c.ID, "u1"); err != nil {
			t.Fatalf("get as user: %v", err)
		}
	})

	t.Run("expert account sees it", func(t *testing.T) {
		if _, err := svc.Get(ctx, c.ID, "e1"); err != nil {
			t.Fatalf("get as expert: %v", err)
		}
	})

	t.Run("stranger denied", func(t *testing.T) {
		if _, err := svc.Get(ctx, c.ID, "stranger"); !errors.Is(err, ErrForbidden) {
			t.Fatalf("err = %v, want ErrForbidden", err)
		}
	})

	t.Run("complete then cancel rejected", func(t *testing.T) {
		if _, err := svc.Complete(ctx, c.ID, "e1", "went well"); err != nil {
			t.Fatalf("complete: %v", err)
		}
		if _, err := svc.Cancel(ctx, c.ID, "u1"); err == nil {
			t.Fatal("cancel after complete should fail")
		}
	})
}
