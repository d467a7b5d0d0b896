package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the JWT claim set issued and verified by the platform.
type TokenClaims struct {
	jwt.RegisteredClaims
	Name          string   `json:"name,omitempty"`
	Email         string   `json:"email,omitempty"`
	EmailVerified bool     `json:"email_verified"`
	Roles         []string `json:"roles"`
	Type          string   `json:"type"` // "access" or "refresh"
}

// TokenManager issues and verifies RS256 token pairs.
type TokenManager struct {
	privateKey      *rsa.PrivateKey
	publicKey       *rsa.PublicKey
	accessDuration  time.Duration
	refreshDuration time.Duration
	issuer          string
}

// NewTokenManager creates a TokenManager with a freshly generated key pair.
func NewTokenManager(accessDuration, refreshDuration time.Duration, issuer string) (*TokenManager, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}

	return &TokenManager{
		privateKey:      privateKey,
		publicKey:       &privateKey.PublicKey,
		accessDuration:  accessDuration,
		refreshDuration: refreshDuration,
		issuer:          issuer,
	}, nil
}

// TokenPair holds an access/refresh token pair.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  int64
	RefreshExpiresAt int64
}

// Issue creates an access/refresh pair for the given identity.
func (m *TokenManager) Issue(subject, name, email string, emailVerified bool, roles []string) (*TokenPair, error) {
	now := time.Now()

	accessExp := now.Add(m.accessDuration)
	access, err := m.sign(&TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExp),
		},
		Name:          name,
		Email:         email,
		EmailVerified: emailVerified,
		Roles:         roles,
		Type:          "access",
	})
	if err != nil {
		return nil, err
	}

	refreshExp := now.Add(m.refreshDuration)
	refresh, err := m.sign(&TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(refreshExp),
		},
		Type: "refresh",
	})
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp.Unix(),
		RefreshExpiresAt: refreshExp.Unix(),
	}, nil
}

// Parse verifies a token string and returns its claims.
func (m *TokenManager) Parse(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, ErrInvalidCredential
		}
		return m.publicKey, nil
	})
	if err != nil {
		return nil, ErrInvalidCredential
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidCredential
	}
	return claims, nil
}

func (m *TokenManager) sign(claims *TokenClaims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(m.privateKey)
}

// JWTProvider is the production IdentityProvider: it accepts access tokens
// issued by the platform's TokenManager.
type JWTProvider struct {
	manager *TokenManager
}

// NewJWTProvider creates a JWTProvider backed by the given manager.
func NewJWTProvider(manager *TokenManager) *JWTProvider {
	return &JWTProvider{manager: manager}
}

// Verify implements IdentityProvider.
func (p *JWTProvider) Verify(ctx context.Context, token string) (*Claims, error) {
	claims, err := p.manager.Parse(token)
	if err != nil {
		return nil, err
	}
	if claims.Type != "access" {
		return nil, ErrInvalidCredential
	}

	return &Claims{
		Subject:       claims.Subject,
		Name:          claims.Name,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Roles:         claims.Roles,
	}, nil
}
