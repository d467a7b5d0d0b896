package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drdata1010/plan-b-backend-sub001/internal/domain"
)

// GormConsultationRepository implements ConsultationRepository using GORM.
type GormConsultationRepository struct {
	db *gorm.DB
}

// NewGormConsultationRepository creates a new GORM-based consultation repository.
func NewGormConsultationRepository(db *gorm.DB) *GormConsultationRepository {
	return &GormConsultationRepository{db: db}
}

// Create creates a new consultation.
func (r *GormConsultationRepository) Create(ctx context.Context, c *domain.Consultation) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(c).Error
}

// GetByID retrieves a consultation by id.
func (r *GormConsultationRepository) GetByID(ctx context.Context, id string) (*domain.Consultation, error) {
	var c domain.Consultation
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Update persists mutable consultation fields.
func (r *GormConsultationRepository) Update(ctx context.Context, c *domain.Consultation) error {
	result := r.db.WithContext(ctx).Model(&domain.Consultation{}).
		Where("id = ?", c.ID).
		Updates(map[string]interface{}{
			"status": c.Status,
			"notes":  c.Notes,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByUser returns a user's consultations, soonest first.
func (r *GormConsultationRepository) ListByUser(ctx context.Context, userID string, page Page) ([]*domain.Consultation, error) {
	return r.list(ctx, "user_id = ?", userID, page)
}

// ListByExpert returns an expert's consultations, soonest first.
func (r *GormConsultationRepository) ListByExpert(ctx context.Context, expertID string, page Page) ([]*domain.Consultation, error) {
	return r.list(ctx, "expert_id = ?", expertID, page)
}

func (r *GormConsultationRepository) list(ctx context.Context, cond, arg string, page Page) ([]*domain.Consultation, error) {
	page = page.Normalize()
	var out []*domain.Consultation
	err := r.db.WithContext(ctx).
		Where(cond, arg).
		Order("scheduled_at ASC").
		Offset(page.Offset).Limit(page.Limit).
		Find(&out).Error
	return out, err
}

// ListOverlapping returns scheduled consultations for the expert whose
// windows intersect [start, start+duration).
func (r *GormConsultationRepository) ListOverlapping(ctx context.Context, expertID string, start time.Time, durationMinutes int) ([]*domain.Consultation, error) {
	end := start.Add(time.Duration(durationMinutes) * time.Minute)
	var out []*domain.Consultation
	// scheduled_at < end AND scheduled_at + duration > start
	err := r.db.WithContext(ctx).
		Where("expert_id = ? AND status = ?", expertID, domain.ConsultationScheduled).
		Where("scheduled_at < ?", end).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	// The end-side comparison needs schedule + duration arithmetic, which is
	// not portable across the supported drivers; filter it here.
	overlapping := out[:0]
	for _, c := range out {
		if c.EndsAt().After(start) {
			overlapping = append(overlapping, c)
		}
	}
	return overlapping, nil
}
