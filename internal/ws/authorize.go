package ws

import (
	"strings"

	"github.com/drdata1010/plan-b-backend-sub001/internal/auth"
)

// Op is the operation being authorized against a destination.
type Op int

const (
	OpSubscribe Op = iota + 1
	OpSend
)

// Access is the requirement a rule imposes.
type Access int

const (
	// PermitAll allows the operation for any principal, anonymous included.
	PermitAll Access = iota + 1
	// Authenticated requires a non-anonymous principal.
	Authenticated
	// HasRole requires at least one of the rule's roles.
	HasRole
)

// Rule maps a destination prefix to a requirement. A rule matches a
// destination equal to its prefix or nested beneath it.
type Rule struct {
	Prefix string
	Access Access
	Roles  []string
}

// RuleTable is the ordered authorization table. The first matching rule
// decides; an unmatched destination is denied. Built once at startup and
// shared by reference.
type RuleTable struct {
	rules []Rule
}

// NewRuleTable creates a RuleTable from an ordered rule list.
func NewRuleTable(rules []Rule) *RuleTable {
	return &RuleTable{rules: rules}
}

// Authorize evaluates the table for one operation. It runs on every
// SUBSCRIBE and on every SEND to an application destination; broadcast
// delivery to already-authorized subscribers is not re-checked per frame.
func (t *RuleTable) Authorize(op Op, d Destination, p *auth.Principal) bool {
	for _, rule := range t.rules {
		if !prefixMatch(d.Path, rule.Prefix) {
			continue
		}
		switch rule.Access {
		case PermitAll:
			return true
		case Authenticated:
			return !p.IsAnonymous()
		case HasRole:
			return p.HasAnyRole(rule.Roles...)
		}
		return false
	}
	return false
}

// prefixMatch reports whether path equals prefix or is nested below it.
func prefixMatch(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// DefaultRules builds the standard rule table. Administrative and support
// namespaces are always role-guarded; the general chat namespaces require
// authentication only when the platform mandates it.
func DefaultRules(requireAuth bool) []Rule {
	rules := []Rule{
		{Prefix: "/topic/admin", Access: HasRole, Roles: []string{auth.RoleAdmin}},
		{Prefix: "/app/admin", Access: HasRole, Roles: []string{auth.RoleAdmin}},
		{Prefix: "/topic/support", Access: HasRole, Roles: []string{auth.RoleSupport, auth.RoleAdmin}},
		{Prefix: "/app/support", Access: HasRole, Roles: []string{auth.RoleSupport, auth.RoleAdmin}},
		{Prefix: "/topic/role/admin", Access: HasRole, Roles: []string{auth.RoleAdmin}},
		{Prefix: "/topic/role/support", Access: HasRole, Roles: []string{auth.RoleSupport, auth.RoleAdmin}},
		{Prefix: "/topic/role/expert", Access: HasRole, Roles: []string{auth.RoleExpert, auth.RoleAdmin}},
		{Prefix: "/topic/role", Access: Authenticated},
		{Prefix: "/topic/public", Access: PermitAll},
	}

	general := Authenticated
	if !requireAuth {
		general = PermitAll
	}
	for _, prefix := range []string{
		"/topic/room",
		"/topic/ai",
		"/topic/notifications",
		"/user",
		"/queue",
		"/app",
	} {
		rules = append(rules, Rule{Prefix: prefix, Access: general})
	}

	return rules
}
