package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drdata1010/plan-b-backend-sub001/internal/domain"
)

// GormUserRepository implements UserRepository using GORM.
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GORM-based user repository.
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user profile.
func (r *GormUserRepository) Create(ctx context.Context, user *domain.UserProfile) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// GetByID retrieves a user by id.
func (r *GormUserRepository) GetByID(ctx context.Context, id string) (*domain.UserProfile, error) {
	var user domain.UserProfile
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByEmail retrieves a user by email.
func (r *GormUserRepository) GetByEmail(ctx context.Context, email string) (*domain.UserProfile, error) {
	var user domain.UserProfile
	if err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Update persists mutable profile fields.
func (r *GormUserRepository) Update(ctx context.Context, user *domain.UserProfile) error {
	result := r.db.WithContext(ctx).Model(&domain.UserProfile{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"display_name":   user.DisplayName,
			"password_hash":  user.PasswordHash,
			"email_verified": user.EmailVerified,
			"roles":          user.Roles,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns a page of profiles ordered by creation time.
func (r *GormUserRepository) List(ctx context.Context, page Page) ([]*domain.UserProfile, error) {
	page = page.Normalize()
	var users []*domain.UserProfile
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(page.Offset).Limit(page.Limit).
		Find(&users).Error
	return users, err
}

// Delete soft-deletes a user and obfuscates the email so the address can be
// registered again.
func (r *GormUserRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user domain.UserProfile
		if err := tx.First(&user, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := tx.Model(&domain.UserProfile{}).Where("id = ?", id).
			Update("email", user.Email+"_deleted_"+id).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.UserProfile{}, "id = ?", id).Error
	})
}

// translateError converts driver-specific errors to repository errors.
func translateError(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint") ||
		strings.Contains(msg, "Duplicate entry") {
		return ErrDuplicate
	}
	return err
}
