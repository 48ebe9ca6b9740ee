package domain

import (
	"fmt"
	"slices"
	"strings"
)

// RoleName is a capability tag from a closed enumeration.
type RoleName string

const (
	RoleStudent RoleName = "STUDENT"
	RoleTeacher RoleName = "TEACHER"
	RoleManager RoleName = "MANAGER"
)

// AllRoles lists every role seeded into the registry at startup.
func AllRoles() []RoleName {
	return []RoleName{RoleStudent, RoleTeacher, RoleManager}
}

// ParseRoleName resolves a case-insensitive role name against the enumeration.
func ParseRoleName(s string) (RoleName, error) {
	name := RoleName(strings.ToUpper(strings.TrimSpace(s)))
	if slices.Contains(AllRoles(), name) {
		return name, nil
	}
	return "", fmt.Errorf("%w: %q", ErrRoleNotFound, s)
}

// Role is an entry of the role registry.
type Role struct {
	ID   string   `json:"id"`
	Name RoleName `json:"name"`
}

// RoleSet is a sorted, duplicate-free set of role names. Operations return
// new sets and never modify the receiver.
type RoleSet []RoleName

// NewRoleSet builds a set from names, dropping duplicates.
func NewRoleSet(names ...RoleName) RoleSet {
	set := make(RoleSet, 0, len(names))
	for _, n := range names {
		if !slices.Contains(set, n) {
			set = append(set, n)
		}
	}
	slices.Sort(set)
	return set
}

// Has reports whether r is a member of the set.
func (s RoleSet) Has(r RoleName) bool {
	return slices.Contains(s, r)
}

// HasAny reports whether at least one of roles is a member of the set.
func (s RoleSet) HasAny(roles ...RoleName) bool {
	for _, r := range roles {
		if s.Has(r) {
			return true
		}
	}
	return false
}

// With returns a copy of the set including r.
func (s RoleSet) With(r RoleName) RoleSet {
	return NewRoleSet(append(slices.Clone(s), r)...)
}

// Without returns a copy of the set excluding r.
func (s RoleSet) Without(r RoleName) RoleSet {
	out := make(RoleSet, 0, len(s))
	for _, n := range s {
		if n != r {
			out = append(out, n)
		}
	}
	return out
}

// Strings returns the role names as plain strings.
func (s RoleSet) Strings() []string {
	out := make([]string, len(s))
	for i, r := range s {
		out[i] = string(r)
	}
	return out
}

// RoleSetFromStrings parses every name, failing on the first unknown one.
func RoleSetFromStrings(names []string) (RoleSet, error) {
	roles := make([]RoleName, 0, len(names))
	for _, n := range names {
		r, err := ParseRoleName(n)
		if err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return NewRoleSet(roles...), nil
}
