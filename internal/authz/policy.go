// Package authz implements the route authorization policy: a pure mapping
// from (path, principal) to an allow/deny decision, plus the post-login
// redirect table. It holds no mutable state and performs no I/O.
package authz

import (
	"sort"
	"strings"

	"github.com/emma-hr/emma-api/internal/models"
)

// Decision is the outcome of a policy evaluation.
type Decision int

const (
	Allow Decision = iota
	Deny
)

// Principal is the resolved identity for a request. A nil Principal means
// the request is anonymous.
type Principal struct {
	ID   int64
	Role models.UserRole
}

// Requirement describes what a rule demands of the principal.
type Requirement int

const (
	// Public allows any request, authenticated or not.
	Public Requirement = iota
	// AnyAuthenticated allows any request carrying a known role.
	AnyAuthenticated
	// Roles allows only the roles listed on the rule.
	Roles
)

// Rule gates one path prefix.
type Rule struct {
	Prefix       string
	Requirement  Requirement
	AllowedRoles []models.UserRole
}

// Policy is an immutable ordered rule table. Longest matching prefix wins,
// so overlapping prefixes resolve to the more specific rule.
type Policy struct {
	rules []Rule
}

// New builds a policy from the given rules. The rule slice is copied and
// sorted by descending prefix length once, at construction.
func New(rules []Rule) *Policy {
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Prefix) > len(sorted[j].Prefix)
	})
	return &Policy{rules: sorted}
}

// Default returns the route table used by the EMMA site.
func Default() *Policy {
	return New([]Rule{
		{Prefix: "/api/auth", Requirement: Public},
		{Prefix: "/api/certificates/download", Requirement: Public},
		{Prefix: "/admin", Requirement: Roles, AllowedRoles: []models.UserRole{models.RoleAdmin, models.RoleEditor, models.RoleReader}},
		{Prefix: "/my-courses", Requirement: AnyAuthenticated},
		{Prefix: "/api/courses", Requirement: AnyAuthenticated},
		{Prefix: "/api/users", Requirement: AnyAuthenticated},
		{Prefix: "/api/assignments", Requirement: AnyAuthenticated},
		{Prefix: "/api/reports", Requirement: AnyAuthenticated},
		{Prefix: "/api/certificates", Requirement: AnyAuthenticated},
		{Prefix: "/api/files", Requirement: AnyAuthenticated},
		{Prefix: "/api/files/cleanup", Requirement: Roles, AllowedRoles: []models.UserRole{models.RoleAdmin}},
	})
}

// Authorize evaluates the rule table for the given path and principal.
// Paths matching no rule are outside policy scope and allowed. A missing
// or unknown role on a gated path denies; absence of identity is an
// outcome, never an error.
func (p *Policy) Authorize(path string, principal *Principal) Decision {
	rule, ok := p.match(path)
	if !ok || rule.Requirement == Public {
		return Allow
	}
	if principal == nil || !models.KnownRole(principal.Role) {
		return Deny
	}
	if rule.Requirement == AnyAuthenticated {
		return Allow
	}
	for _, role := range rule.AllowedRoles {
		if role == principal.Role {
			return Allow
		}
	}
	return Deny
}

// Gated reports whether the path falls under a non-public rule. The HTTP
// layer uses it to decide between a login redirect and a JSON error.
func (p *Policy) Gated(path string) bool {
	rule, ok := p.match(path)
	return ok && rule.Requirement != Public
}

func (p *Policy) match(path string) (Rule, bool) {
	for _, rule := range p.rules {
		if matchesPrefix(path, rule.Prefix) {
			return rule, true
		}
	}
	return Rule{}, false
}

func matchesPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	// "/admin" must not capture "/administrator".
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}

// LoginRedirect maps an authenticated role to its landing path. It is
// consulted when an already authenticated principal hits the login page.
func LoginRedirect(role models.UserRole) string {
	switch role {
	case models.RoleGuest:
		return "/my-courses"
	case models.RoleAdmin, models.RoleEditor, models.RoleReader:
		return "/admin"
	default:
		return "/"
	}
}
