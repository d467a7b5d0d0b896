package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/drdata1010/plan-b-backend-sub001/internal/auth"
	"github.com/drdata1010/plan-b-backend-sub001/internal/domain"
	"github.com/drdata1010/plan-b-backend-sub001/internal/repository"
)

func newUserService(t *testing.T) *UserService {
	t.Helper()
	tokens, err := auth.NewTokenManager(time.Minute, time.Hour, "test")
	if err != nil {
		t.Fatalf("new token manager: %v", err)
	}
	return NewUserService(repository.NewMemoryUserRepository(), tokens)
}

func TestUserRegistrationAndLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("register issues tokens and default role", func(t *testing.T) {
		svc := newUserService(t)
		resp, err := svc.Register(ctx, &domain.RegisterRequest{
			Email:       "a@example.com",
			Password:    "secret123",
			DisplayName: "A",
		})
		if err != nil {
			t.Fatalf("register: %v", err)
		}
		if resp.AccessToken == "" || resp.RefreshToken == "" {
			t.Fatal("missing tokens")
		}
		if len(resp.User.Roles) != 1 || resp.User.Roles[0] != auth.RoleUser {
			t.Fatalf("roles = %v", resp.User.Roles)
		}
		if resp.User.PasswordHash == "secret123" {
			t.Fatal("password stored in clear")
		}
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		svc := newUserService(t)
		req := &domain.RegisterRequest{Email: "a@example.com", Password: "secret123"}
		svc.Register(ctx, req)
		if _, err := svc.Register(ctx, req); !errors.Is(err, ErrEmailTaken) {
			t.Fatalf("err = %v, want ErrEmailTaken", err)
		}
	})

	t.Run("login verifies password", func(t *testing.T) {
		svc := newUserService(t)
		svc.Register(ctx, &domain.RegisterRequest{Email: "a@example.com", Password: "secret123"})

		if _, err := svc.Login(ctx, &domain.LoginRequest{Email: "a@example.com", Password: "secret123"}); err != nil {
			t.Fatalf("login: %v", err)
		}
		if _, err := svc.Login(ctx, &domain.LoginRequest{Email: "a@example.com", Password: "wrong"}); !errors.Is(err, ErrBadCredentials) {
			t.Fatalf("err = %v, want ErrBadCredentials", err)
		}
		if _, err := svc.Login(ctx, &domain.LoginRequest{Email: "nobody@example.com", Password: "x"}); !errors.Is(err, ErrBadCredentials) {
			t.Fatalf("err = %v, want ErrBadCredentials", err)
		}
	})

	t.Run("refresh reloads roles", func(t *testing.T) {
		svc := newUserService(t)
		resp, _ := svc.Register(ctx, &domain.RegisterRequest{Email: "a@example.com", Password: "secret123"})

		if _, err := svc.AssignRoles(ctx, resp.User.ID, []string{auth.RoleUser, auth.RoleExpert}); err != nil {
			t.Fatalf("assign roles: %v", err)
		}

		refreshed, err := svc.Refresh(ctx, resp.RefreshToken)
		if err != nil {
			t.Fatalf("refresh: %v", err)
		}
		if len(refreshed.User.Roles) != 2 {
			t.Fatalf("roles after refresh = %v", refreshed.User.Roles)
		}
	})

	t.Run("access token rejected as refresh credential", func(t *testing.T) {
		svc := newUserService(t)
		resp, _ := svc.Register(ctx, &domain.RegisterRequest{Email: "a@example.com", Password: "secret123"})

		if _, err := svc.Refresh(ctx, resp.AccessToken); !errors.Is(err, auth.ErrInvalidCredential) {
			t.Fatalf("err = %v, want ErrInvalidCredential", err)
		}
	})
}
