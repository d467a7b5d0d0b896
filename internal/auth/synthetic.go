package auth

import (
	"context"
	"fmt"
	"hash/fnv"
)

// SyntheticProvider derives a deterministic identity from a hash of the
// token, so authorization paths stay exercisable in environments without a
// real identity provider. Selected only by explicit configuration
// (auth.provider: "synthetic"); never a fallback for provider failures.
type SyntheticProvider struct{}

// NewSyntheticProvider creates a SyntheticProvider.
func NewSyntheticProvider() *SyntheticProvider {
	return &SyntheticProvider{}
}

// Verify implements IdentityProvider. An empty token is still rejected so the
// gatekeeper's missing-credential path behaves the same in development.
func (p *SyntheticProvider) Verify(ctx context.Context, token string) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalidCredential
	}

	h := fnv.New64a()
	h.Write([]byte(token))
	subject := fmt.Sprintf("dev-user-%x", h.Sum64())

	return &Claims{
		Subject:       subject,
		Name:          "Dev User",
		Email:         subject + "@example.com",
		EmailVerified: true,
		Roles:         []string{RoleUser},
	}, nil
}
