package auth

// Role names used by the destination rule table and the CRUD layer.
const (
	RoleUser    = "user"
	RoleExpert  = "expert"
	RoleSupport = "support"
	RoleAdmin   = "admin"
)

// Principal is the verified identity attached to a connection or request.
// It is built once during token validation and never mutated.
type Principal struct {
	Subject       string
	DisplayName   string
	Email         string
	EmailVerified bool
	Roles         []string
}

// Anonymous is the principal of an unauthenticated connection.
var Anonymous = &Principal{}

// IsAnonymous reports whether the principal carries no verified subject.
func (p *Principal) IsAnonymous() bool {
	return p == nil || p.Subject == ""
}

// HasRole reports whether the principal carries the given role.
func (p *Principal) HasRole(role string) bool {
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the principal carries at least one of the roles.
func (p *Principal) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if p.HasRole(r) {
			return true
		}
	}
	return false
}
