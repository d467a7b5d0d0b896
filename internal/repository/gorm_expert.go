package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drdata1010/plan-b-backend-sub001/internal/domain"
)

// GormExpertRepository implements ExpertRepository using GORM.
type GormExpertRepository struct {
	db *gorm.DB
}

// NewGormExpertRepository creates a new GORM-based expert repository.
func NewGormExpertRepository(db *gorm.DB) *GormExpertRepository {
	return &GormExpertRepository{db: db}
}

// Create creates a new expert profile.
func (r *GormExpertRepository) Create(ctx context.Context, expert *domain.Expert) error {
	if expert.ID == "" {
		expert.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(expert).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// GetByID retrieves an expert by profile id.
func (r *GormExpertRepository) GetByID(ctx context.Context, id string) (*domain.Expert, error) {
	var expert domain.Expert
	if err := r.db.WithContext(ctx).First(&expert, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &expert, nil
}

// GetByUserID retrieves the expert profile backing a user account.
func (r *GormExpertRepository) GetByUserID(ctx context.Context, userID string) (*domain.Expert, error) {
	var expert domain.Expert
	if err := r.db.WithContext(ctx).First(&expert, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &expert, nil
}

// Update persists mutable expert fields.
func (r *GormExpertRepository) Update(ctx context.Context, expert *domain.Expert) error {
	result := r.db.WithContext(ctx).Model(&domain.Expert{}).
		Where("id = ?", expert.ID).
		Updates(map[string]interface{}{
			"display_name":   expert.DisplayName,
			"specialization": expert.Specialization,
			"bio":            expert.Bio,
			"hourly_rate":    expert.HourlyRate,
			"available":      expert.Available,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns expert profiles, optionally only those accepting work.
func (r *GormExpertRepository) List(ctx context.Context, onlyAvailable bool, page Page) ([]*domain.Expert, error) {
	page = page.Normalize()
	q := r.db.WithContext(ctx).Model(&domain.Expert{})
	if onlyAvailable {
		q = q.Where("available = ?", true)
	}
	var experts []*domain.Expert
	err := q.Order("created_at DESC").Offset(page.Offset).Limit(page.Limit).Find(&experts).Error
	return experts, err
}

// AddSlot records a weekly availability window.
func (r *GormExpertRepository) AddSlot(ctx context.Context, slot *domain.AvailabilitySlot) error {
	if slot.ID == "" {
		slot.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(slot).Error
}

// ListSlots returns an expert's availability windows.
func (r *GormExpertRepository) ListSlots(ctx context.Context, expertID string) ([]*domain.AvailabilitySlot, error) {
	var slots []*domain.AvailabilitySlot
	err := r.db.WithContext(ctx).
		Where("expert_id = ?", expertID).
		Order("weekday ASC, start_minute ASC").
		Find(&slots).Error
	return slots, err
}

// RemoveSlot deletes an availability window.
func (r *GormExpertRepository) RemoveSlot(ctx context.Context, slotID string) error {
	result := r.db.WithContext(ctx).Delete(&domain.AvailabilitySlot{}, "id = ?", slotID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
