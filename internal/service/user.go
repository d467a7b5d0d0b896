package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/drdata1010/plan-b-backend-sub001/internal/auth"
	"github.com/drdata1010/plan-b-backend-sub001/internal/domain"
	"github.com/drdata1010/plan-b-backend-sub001/internal/repository"
	"github.com/drdata1010/plan-b-backend-sub001/pkg/log"
)

// UserService handles registration, login, token refresh, and role
// management.
type UserService struct {
	users  repository.UserRepository
	tokens *auth.TokenManager
}

// NewUserService creates a user service.
func NewUserService(users repository.UserRepository, tokens *auth.TokenManager) *UserService {
	return &UserService{users: users, tokens: tokens}
}

// Register creates an account and returns a fresh token pair.
func (s *UserService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.UserProfile{
		Email:        req.Email,
		DisplayName:  req.DisplayName,
		PasswordHash: string(hash),
		Roles:        []string{auth.RoleUser},
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	log.L().Info().Str(log.FieldUserID, user.ID).Msg("user registered")
	return s.issue(user)
}

// Login verifies credentials and returns a fresh token pair.
func (s *UserService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrBadCredentials
	}
	return s.issue(user)
}

// Refresh exchanges a valid refresh token for a new pair. The profile is
// reloaded so role changes take effect on refresh.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*domain.AuthResponse, error) {
	claims, err := s.tokens.Parse(refreshToken)
	if err != nil || claims.Type != "refresh" {
		return nil, auth.ErrInvalidCredential
	}
	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, auth.ErrInvalidCredential
		}
		return nil, err
	}
	return s.issue(user)
}

// Get returns a profile by id.
func (s *UserService) Get(ctx context.Context, id string) (*domain.UserProfile, error) {
	return s.users.GetByID(ctx, id)
}

// List returns a page of profiles.
func (s *UserService) List(ctx context.Context, page repository.Page) ([]*domain.UserProfile, error) {
	return s.users.List(ctx, page)
}

// AssignRoles replaces a user's role set. Admin only; the handler enforces
// the guard.
func (s *UserService) AssignRoles(ctx context.Context, userID string, roles []string) (*domain.UserProfile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Roles = roles
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	log.L().Info().Str(log.FieldUserID, userID).Strs("roles", roles).Msg("roles assigned")
	return user, nil
}

// Delete removes an account.
func (s *UserService) Delete(ctx context.Context, id string) error {
	return s.users.Delete(ctx, id)
}

func (s *UserService) issue(user *domain.UserProfile) (*domain.AuthResponse, error) {
	pair, err := s.tokens.Issue(user.ID, user.DisplayName, user.Email, user.EmailVerified, user.Roles)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	return &domain.AuthResponse{
		User:         user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.AccessExpiresAt,
	}, nil
}
