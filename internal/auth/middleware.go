package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/drdata1010/plan-b-backend-sub001/pkg/response"
)

const (
	principalKey  = "principal"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// Middleware guards HTTP routes using the token Authenticator.
type Middleware struct {
	authenticator *Authenticator
}

// NewMiddleware creates an auth middleware.
func NewMiddleware(authenticator *Authenticator) *Middleware {
	return &Middleware{authenticator: authenticator}
}

// RequireAuth returns a Gin middleware that rejects requests without a valid
// bearer token and attaches the Principal to the request context.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader(AuthHeaderKey))
		if !ok {
			response.Unauthorized(c, "missing or malformed authorization header")
			c.Abort()
			return
		}

		principal, err := m.authenticator.Validate(c.Request.Context(), token)
		if err != nil {
			response.Unauthorized(c, "invalid credential")
			c.Abort()
			return
		}

		c.Set(principalKey, principal)
		c.Set("user_id", principal.Subject)
		c.Next()
	}
}

// RequireRole returns a Gin middleware requiring at least one of the given
// roles. Must run after RequireAuth.
func (m *Middleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := PrincipalFrom(c)
		if !principal.HasAnyRole(roles...) {
			response.Forbidden(c, "insufficient role")
			c.Abort()
			return
		}
		c.Next()
	}
}

// PrincipalFrom extracts the Principal from a Gin context. Returns Anonymous
// when no auth middleware ran.
func PrincipalFrom(c *gin.Context) *Principal {
	if v, exists := c.Get(principalKey); exists {
		if p, ok := v.(*Principal); ok {
			return p
		}
	}
	return Anonymous
}

// bearerToken extracts the token from an Authorization header value.
func bearerToken(header string) (string, bool) {
	if header == "" || !strings.HasPrefix(header, BearerPrefix) {
		return "", false
	}
	token := strings.TrimPrefix(header, BearerPrefix)
	return token, token != ""
}
