package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drdata1010/plan-b-backend-sub001/internal/domain"
)

// GormAttachmentRepository implements AttachmentRepository using GORM.
type GormAttachmentRepository struct {
	db *gorm.DB
}

// NewGormAttachmentRepository creates a new GORM-based attachment repository.
func NewGormAttachmentRepository(db *gorm.DB) *GormAttachmentRepository {
	return &GormAttachmentRepository{db: db}
}

// Create records attachment metadata.
func (r *GormAttachmentRepository) Create(ctx context.Context, a *domain.Attachment) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(a).Error
}

// GetByID retrieves attachment metadata by id.
func (r *GormAttachmentRepository) GetByID(ctx context.Context, id string) (*domain.Attachment, error) {
	var a domain.Attachment
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// ListByEntity returns attachments linked to a ticket or message.
func (r *GormAttachmentRepository) ListByEntity(ctx context.Context, entityType, entityID string) ([]*domain.Attachment, error) {
	var out []*domain.Attachment
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

// Delete removes attachment metadata.
func (r *GormAttachmentRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&domain.Attachment{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
