package security

import (
	"net/http"
	"strings"

	"github.com/hits/carschool/internal/core/domain"
)

// Decision is the outcome of a policy check.
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

type requirement int

const (
	public requirement = iota
	authenticated
	selfOnly
	anyRole
)

// anyMethod matches every HTTP method in a Rule.
const anyMethod = "*"

// Rule binds a method and a route pattern to a requirement. Patterns are the
// router's own patterns ("/users/:id"); a trailing "/*" matches any suffix.
type Rule struct {
	Method  string
	Pattern string
	need    requirement
	roles   []domain.RoleName
}

// Public admits everybody.
func Public(method, pattern string) Rule {
	return Rule{Method: method, Pattern: pattern, need: public}
}

// Authenticated admits any caller with a valid token.
func Authenticated(method, pattern string) Rule {
	return Rule{Method: method, Pattern: pattern, need: authenticated}
}

// SelfOnly admits an authenticated caller acting on their own identity.
func SelfOnly(method, pattern string) Rule {
	return Rule{Method: method, Pattern: pattern, need: selfOnly}
}

// AnyRole admits an authenticated caller holding at least one of roles.
func AnyRole(method, pattern string, roles ...domain.RoleName) Rule {
	return Rule{Method: method, Pattern: pattern, need: anyRole, roles: roles}
}

func (r Rule) matches(method, pattern string) bool {
	if r.Method != anyMethod && r.Method != method {
		return false
	}
	if prefix, ok := strings.CutSuffix(r.Pattern, "/*"); ok {
		return pattern == prefix || strings.HasPrefix(pattern, prefix+"/")
	}
	return r.Pattern == pattern
}

func (r Rule) admits(caller *Principal, self bool) bool {
	switch r.need {
	case public:
		return true
	case authenticated:
		return caller != nil
	case selfOnly:
		return caller != nil && self
	case anyRole:
		return caller != nil && caller.Roles.HasAny(r.roles...)
	default:
		return false
	}
}

// Policy is an ordered rule table. The first matching rule decides; requests
// no rule matches are allowed.
type Policy struct {
	rules []Rule
}

func NewPolicy(rules ...Rule) *Policy {
	return &Policy{rules: rules}
}

// Decide is a pure function of its arguments. caller is nil for anonymous
// requests; self reports whether the request targets the caller's own identity.
func (p *Policy) Decide(method, pattern string, caller *Principal, self bool) Decision {
	for _, r := range p.rules {
		if r.matches(method, pattern) {
			if r.admits(caller, self) {
				return Allow
			}
			return Deny
		}
	}
	return Allow
}

// DefaultPolicy is the access table of the HTTP API.
func DefaultPolicy() *Policy {
	staff := []domain.RoleName{domain.RoleTeacher, domain.RoleManager}

	return NewPolicy(
		Public(anyMethod, "/swagger/*"),
		Public(anyMethod, "/auth/*"),

		// Static /users routes go first so that /users/:id cannot shadow them.
		SelfOnly(http.MethodPatch, "/users/change-password"),
		Authenticated(http.MethodGet, "/users/profile"),

		AnyRole(http.MethodPost, "/users", domain.RoleManager),
		AnyRole(http.MethodPut, "/users/:id", domain.RoleManager),
		AnyRole(http.MethodDelete, "/users/:id", domain.RoleManager),
		AnyRole(http.MethodPatch, "/users/:id/activate", domain.RoleManager),
		AnyRole(http.MethodPatch, "/users/:id/deactivate", domain.RoleManager),
		AnyRole(http.MethodPatch, "/users/:id/change-role", domain.RoleManager),
		AnyRole(http.MethodPost, "/users/:id/add-role", domain.RoleManager),
		AnyRole(http.MethodPost, "/users/:id/remove-role", domain.RoleManager),
		AnyRole(http.MethodGet, "/users", staff...),
		AnyRole(http.MethodGet, "/users/*", staff...),

		Authenticated(http.MethodGet, "/channel"),
		AnyRole(anyMethod, "/channel/*", domain.RoleManager),

		Authenticated(http.MethodPost, "/posts"),
		Authenticated(http.MethodDelete, "/posts/:postId"),
	)
}
