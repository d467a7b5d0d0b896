package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

type countingProvider struct {
	calls int
	fail  bool
}

func (p *countingProvider) Verify(_ context.Context, token string) (*Claims, error) {
	p.calls++
	if p.fail {
		return nil, ErrInvalidCredential
	}
	return &Claims{Subject: "user-" + token, Roles: []string{RoleUser}}, nil
}

func TestAuthenticatorCache(t *testing.T) {
	t.Run("successful validation is cached", func(t *testing.T) {
		provider := &countingProvider{}
		a := NewAuthenticator(provider, time.Minute)

		for i := 0; i < 5; i++ {
			p, err := a.Validate(context.Background(), "tok")
			if err != nil {
				t.Fatalf("validate: %v", err)
			}
			if p.Subject != "user-tok" {
				t.Fatalf("subject = %q", p.Subject)
			}
		}
		if provider.calls != 1 {
			t.Fatalf("provider called %d times, want 1", provider.calls)
		}
	})

	t.Run("distinct tokens validate separately", func(t *testing.T) {
		provider := &countingProvider{}
		a := NewAuthenticator(provider, time.Minute)

		a.Validate(context.Background(), "a")
		a.Validate(context.Background(), "b")
		a.Validate(context.Background(), "a")
		if provider.calls != 2 {
			t.Fatalf("provider called %d times, want 2", provider.calls)
		}
	})

	t.Run("failures are not cached", func(t *testing.T) {
		provider := &countingProvider{fail: true}
		a := NewAuthenticator(provider, time.Minute)

		for i := 0; i < 3; i++ {
			if _, err := a.Validate(context.Background(), "bad"); !errors.Is(err, ErrInvalidCredential) {
				t.Fatalf("err = %v, want ErrInvalidCredential", err)
			}
		}
		if provider.calls != 3 {
			t.Fatalf("provider called %d times, want 3", provider.calls)
		}

		// A token that starts failing and then succeeds is re-verified on
		// the first success and cached from then on.
		provider.fail = false
		a.Validate(context.Background(), "bad")
		a.Validate(context.Background(), "bad")
		if provider.calls != 4 {
			t.Fatalf("provider called %d times, want 4", provider.calls)
		}
	})

	t.Run("expired entry is re-verified", func(t *testing.T) {
		provider := &countingProvider{}
		a := NewAuthenticator(provider, 10*time.Millisecond)

		a.Validate(context.Background(), "tok")
		time.Sleep(20 * time.Millisecond)
		a.Validate(context.Background(), "tok")
		if provider.calls != 2 {
			t.Fatalf("provider called %d times, want 2", provider.calls)
		}
	})

	t.Run("flush drops cached validations", func(t *testing.T) {
		provider := &countingProvider{}
		a := NewAuthenticator(provider, time.Minute)

		a.Validate(context.Background(), "tok")
		a.Flush()
		a.Validate(context.Background(), "tok")
		if provider.calls != 2 {
			t.Fatalf("provider called %d times, want 2", provider.calls)
		}
	})

	t.Run("empty token is rejected without provider call", func(t *testing.T) {
		provider := &countingProvider{}
		a := NewAuthenticator(provider, time.Minute)

		if _, err := a.Validate(context.Background(), ""); !errors.Is(err, ErrInvalidCredential) {
			t.Fatalf("err = %v, want ErrInvalidCredential", err)
		}
		if provider.calls != 0 {
			t.Fatalf("provider called %d times, want 0", provider.calls)
		}
	})
}

func TestSyntheticProvider(t *testing.T) {
	p := NewSyntheticProvider()

	t.Run("deterministic subject", func(t *testing.T) {
		a, err := p.Verify(context.Background(), "alice-token")
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		b, err := p.Verify(context.Background(), "alice-token")
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if a.Subject != b.Subject {
			t.Fatalf("subjects differ: %q vs %q", a.Subject, b.Subject)
		}
	})

	t.Run("distinct tokens get distinct subjects", func(t *testing.T) {
		a, _ := p.Verify(context.Background(), "alice")
		b, _ := p.Verify(context.Background(), "bob")
		if a.Subject == b.Subject {
			t.Fatalf("subjects collide: %q", a.Subject)
		}
	})

	t.Run("empty token rejected", func(t *testing.T) {
		if _, err := p.Verify(context.Background(), ""); !errors.Is(err, ErrInvalidCredential) {
			t.Fatalf("err = %v, want ErrInvalidCredential", err)
		}
	})
}

func TestJWTProvider(t *testing.T) {
	manager, err := NewTokenManager(time.Minute, time.Hour, "test")
	if err != nil {
		t.Fatalf("new token manager: %v", err)
	}
	provider := NewJWTProvider(manager)

	t.Run("access token verifies", func(t *testing.T) {
		pair, err := manager.Issue("u1", "User One", "u1@example.com", true, []string{RoleUser, RoleExpert})
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		claims, err := provider.Verify(context.Background(), pair.AccessToken)
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if claims.Subject != "u1" || len(claims.Roles) != 2 {
			t.Fatalf("claims = %+v", claims)
		}
	})

	t.Run("refresh token rejected as access credential", func(t *testing.T) {
		pair, _ := manager.Issue("u1", "", "", false, nil)
		if _, err := provider.Verify(context.Background(), pair.RefreshToken); !errors.Is(err, ErrInvalidCredential) {
			t.Fatalf("err = %v, want ErrInvalidCredential", err)
		}
	})

	t.Run("garbage rejected", func(t *testing.T) {
		if _, err := provider.Verify(context.Background(), "not-a-jwt"); !errors.Is(err, ErrInvalidCredential) {
			t.Fatalf("err = %v, want ErrInvalidCredential", err)
		}
	})
}
