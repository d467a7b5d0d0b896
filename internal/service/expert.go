package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/drdata1010/plan-b-backend-sub001/internal/domain"
	"github.com/drdata1010/plan-b-backend-sub001/internal/repository"
)

// ExpertService manages expert profiles and availability windows.
type ExpertService struct {
	experts repository.ExpertRepository
}

// NewExpertService creates an expert service.
func NewExpertService(experts repository.ExpertRepository) *ExpertService {
	return &ExpertService{experts: experts}
}

// Register creates an expert profile for the user. One profile per account.
func (s *ExpertService) Register(ctx context.Context, userID string, req *domain.ExpertRegistrationRequest) (*domain.Expert, error) {
	expert := &domain.Expert{
		UserID:         userID,
		DisplayName:    req.DisplayName,
		Specialization: req.Specialization,
		Bio:            req.Bio,
		HourlyRate:     req.HourlyRate,
		Available:      true,
	}
	if err := s.experts.Create(ctx, expert); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("expert profile already exists: %w", repository.ErrDuplicate)
		}
		return nil, err
	}
	return expert, nil
}

// Get returns an expert profile by id.
func (s *ExpertService) Get(ctx context.Context, id string) (*domain.Expert, error) {
	return s.experts.GetByID(ctx, id)
}

// GetByUserID returns the expert profile backing a user account.
func (s *ExpertService) GetByUserID(ctx context.Context, userID string) (*domain.Expert, error) {
	return s.experts.GetByUserID(ctx, userID)
}

// List returns expert profiles, optionally only those accepting work.
func (s *ExpertService) List(ctx context.Context, onlyAvailable bool, page repository.Page) ([]*domain.Expert, error) {
	return s.experts.List(ctx, onlyAvailable, page)
}

// Update persists profile edits made by the owning user.
func (s *ExpertService) Update(ctx context.Context, expert *domain.Expert) error {
	return s.experts.Update(ctx, expert)
}

// SetAvailable toggles whether the expert accepts new work.
func (s *ExpertService) SetAvailable(ctx context.Context, expertID string, available bool) (*domain.Expert, error) {
	expert, err := s.experts.GetByID(ctx, expertID)
	if err != nil {
		return nil, err
	}
	expert.Available = available
	if err := s.experts.Update(ctx, expert); err != nil {
		return nil, err
	}
	return expert, nil
}

// AddSlot publishes a weekly availability window.
func (s *ExpertService) AddSlot(ctx context.Context, expertID string, weekday, startMinute, endMinute int) (*domain.AvailabilitySlot, error) {
	if weekday < 0 || weekday > 6 {
		return nil, fmt.Errorf("weekday out of range: %d", weekday)
	}
	if startMinute < 0 || endMinute > 24*60 || startMinute >= endMinute {
		return nil, fmt.Errorf("invalid window %d-%d", startMinute, endMinute)
	}
	slot := &domain.AvailabilitySlot{
		ExpertID:    expertID,
		Weekday:     weekday,
		StartMinute: startMinute,
		EndMinute:   endMinute,
	}
	if err := s.experts.AddSlot(ctx, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

// ListSlots returns an expert's availability windows.
func (s *ExpertService) ListSlots(ctx context.Context, expertID string) ([]*domain.AvailabilitySlot, error) {
	return s.experts.ListSlots(ctx, expertID)
}

// RemoveSlot withdraws an availability window.
func (s *ExpertService) RemoveSlot(ctx context.Context, slotID string) error {
	return s.experts.RemoveSlot(ctx, slotID)
}
