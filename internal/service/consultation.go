package service

import (
	"context"
	"errors"
	"time"

	"github.com/drdata1010/plan-b-backend-sub001/internal/domain"
	"github.com/drdata1010/plan-b-backend-sub001/internal/events"
	"github.com/drdata1010/plan-b-backend-sub001/internal/repository"
	"github.com/drdata1010/plan-b-backend-sub001/pkg/log"
)

// ConsultationService books and manages expert consultations.
type ConsultationService struct {
	consultations repository.ConsultationRepository
	experts       repository.ExpertRepository
	notifier      *NotificationService
	producer      events.Producer
}

// NewConsultationService creates a consultation service.
func NewConsultationService(consultations repository.ConsultationRepository, experts repository.ExpertRepository, notifier *NotificationService, producer events.Producer) *ConsultationService {
	return &ConsultationService{
		consultations: consultations,
		experts:       experts,
		notifier:      notifier,
		producer:      producer,
	}
}

// Book schedules a consultation. The window must fall inside one of the
// expert's published availability slots and must not overlap an existing
// scheduled booking.
func (s *ConsultationService) Book(ctx context.Context, userID string, req *domain.BookConsultationRequest) (*domain.Consultation, error) {
	expert, err := s.experts.GetByID(ctx, req.ExpertID)
	if err != nil {
		return nil, err
	}
	if !expert.Available {
		return nil, ErrSlotUnavailable
	}

	if err := s.checkAvailability(ctx, expert.ID, req.ScheduledAt, req.DurationMinutes); err != nil {
		return nil, err
	}

	overlapping, err := s.consultations.ListOverlapping(ctx, expert.ID, req.ScheduledAt, req.DurationMinutes)
	if err != nil {
		return nil, err
	}
	if len(overlapping) > 0 {
		return nil, ErrBookingConflict
	}

	c := &domain.Consultation{
		UserID:          userID,
		ExpertID:        expert.ID,
		TicketID:        req.TicketID,
		ScheduledAt:     req.ScheduledAt,
		DurationMinutes: req.DurationMinutes,
		Status:          domain.ConsultationScheduled,
		Notes:           req.Notes,
	}
	if err := s.consultations.Create(ctx, c); err != nil {
		return nil, err
	}

	log.L().Info().
		Str("consultation_id", c.ID).
		Str(log.FieldExpertID, expert.ID).
		Time("scheduled_at", c.ScheduledAt).
		Msg("consultation booked")

	s.emitBooked(ctx, c, userID)
	s.notifier.NotifyUser(expert.UserID, domain.NotifyConsultationBooked,
		"Consultation booked", c.ScheduledAt.Format(time.RFC1123))
	return c, nil
}

// Get returns a consultation visible to the caller (the booking user or
// the expert's account).
func (s *ConsultationService) Get(ctx context.Context, id, callerID string) (*domain.Consultation, error) {
	c, err := s.consultations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != callerID {
		expert, err := s.experts.GetByID(ctx, c.ExpertID)
		if err != nil || expert.UserID != callerID {
			return nil, ErrForbidden
		}
	}
	return c, nil
}

// ListForUser returns the caller's bookings.
func (s *ConsultationService) ListForUser(ctx context.Context, userID string, page repository.Page) ([]*domain.Consultation, error) {
	return s.consultations.ListByUser(ctx, userID, page)
}

// ListForExpert returns an expert's bookings.
func (s *ConsultationService) ListForExpert(ctx context.Context, expertID string, page repository.Page) ([]*domain.Consultation, error) {
	return s.consultations.ListByExpert(ctx, expertID, page)
}

// Cancel marks a scheduled consultation cancelled. Completed bookings
// cannot be cancelled.
func (s *ConsultationService) Cancel(ctx context.Context, id, callerID string) (*domain.Consultation, error) {
	c, err := s.Get(ctx, id, callerID)
	if err != nil {
		return nil, err
	}
	if c.Status != domain.ConsultationScheduled {
		return nil, errors.New("consultation is not scheduled")
	}
	c.Status = domain.ConsultationCancelled
	if err := s.consultations.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Complete marks a scheduled consultation done, with optional notes.
func (s *ConsultationService) Complete(ctx context.Context, id, callerID, notes string) (*domain.Consultation, error) {
	c, err := s.Get(ctx, id, callerID)
	if err != nil {
		return nil, err
	}
	if c.Status != domain.ConsultationScheduled {
		return nil, errors.New("consultation is not scheduled")
	}
	c.Status = domain.ConsultationCompleted
	if notes != "" {
		c.Notes = notes
	}
	if err := s.consultations.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// checkAvailability verifies the window falls inside a published slot.
// Experts with no published slots accept any time.
func (s *ConsultationService) checkAvailability(ctx context.Context, expertID string, start time.Time, durationMinutes int) error {
	slots, err := s.experts.ListSlots(ctx, expertID)
	if err != nil {
		return err
	}
	if len(slots) == 0 {
		return nil
	}

	weekday := int(start.Weekday())
	startMinute := start.Hour()*60 + start.Minute()
	endMinute := startMinute + durationMinutes
	for _, slot := range slots {
		if slot.Covers(weekday, startMinute, endMinute) {
			return nil
		}
	}
	return ErrSlotUnavailable
}

func (s *ConsultationService) emitBooked(ctx context.Context, c *domain.Consultation, actorID string) {
	err := s.producer.Publish(ctx, events.Event{
		Type:       events.EventConsultationBooked,
		EntityID:   c.ID,
		ActorID:    actorID,
		Payload:    c,
		OccurredAt: time.Now(),
	})
	if err != nil {
		log.L().Warn().Err(err).Msg("event publish failed")
	}
}
