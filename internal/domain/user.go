package domain

import (
	"time"

	"gorm.io/gorm"

	"github.com/drdata1010/plan-b-backend-sub001/pkg/database"
)

// UserProfile is a platform account. Roles drive both HTTP route guards and
// the websocket destination rule table.
type UserProfile struct {
	ID            string               `gorm:"type:varchar(36);primaryKey" json:"id"`
	Email         string               `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	DisplayName   string               `gorm:"type:varchar(100)" json:"display_name"`
	PasswordHash  string               `gorm:"type:varchar(255);not null" json:"-"`
	EmailVerified bool                 `json:"email_verified"`
	Roles         database.StringArray `gorm:"type:text" json:"roles"`
	CreatedAt     time.Time            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time            `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt       `gorm:"index" json:"-"`
}

func (UserProfile) TableName() string { return "user_profiles" }

// RegisterRequest is the signup payload.
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	DisplayName string `json:"display_name"`
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest is the token refresh payload.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// AuthResponse carries a token pair and the authenticated profile.
type AuthResponse struct {
	User         *UserProfile `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresAt    int64        `json:"expires_at"`
}

// RoleAssignmentRequest sets a user's roles (admin only).
type RoleAssignmentRequest struct {
	Roles []string `json:"roles" binding:"required,min=1"`
}
