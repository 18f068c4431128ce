// Package authz decides whether a principal may run a directory operation.
//
// The decision is a table lookup: each Operation maps to the set of roles
// allowed to invoke it, and a principal passes when it holds at least one of
// them. The table is fixed when the Guard is built.
package authz

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrijs2005/userdir/internal/common"
)

// Role is a role label such as USER or ADMIN.
type Role string

const (
	RoleUser    Role = "USER"
	RoleManager Role = "MANAGER"
	RoleAdmin   Role = "ADMIN"
)

// NormalizeRole upper-cases r and strips a leading "ROLE_".
func NormalizeRole(r string) Role {
	r = strings.ToUpper(strings.TrimSpace(r))
	return Role(strings.TrimPrefix(r, "ROLE_"))
}

// Operation is the kind of directory operation being authorized.
type Operation string

const (
	OpRead   Operation = "read"
	OpWrite  Operation = "write"
	OpDelete Operation = "delete"
	OpVerify Operation = "verify"
)

// Operations lists every known operation kind.
var Operations = []Operation{OpRead, OpWrite, OpDelete, OpVerify}

// Principal is the authenticated caller of a single operation.
type Principal struct {
	Name  string
	Roles []Role
}

// NewPrincipal normalizes roles and drops blanks.
func NewPrincipal(name string, roles ...string) Principal {
	p := Principal{Name: name}
	for _, r := range roles {
		if nr := NormalizeRole(r); nr != "" {
			p.Roles = append(p.Roles, nr)
		}
	}
	return p
}

// HasAny reports whether p holds at least one of roles.
func (p Principal) HasAny(roles []Role) bool {
	for _, r := range p.Roles {
		if slices.Contains(roles, r) {
			return true
		}
	}
	return false
}

// Policy maps an operation to the roles allowed to invoke it.
type Policy map[Operation][]Role

// DefaultPolicy mirrors the usual split: anyone with a role reads, managers
// and admins write, only admins delete.
func DefaultPolicy() Policy {
	return Policy{
		OpRead:   {RoleUser, RoleManager, RoleAdmin},
		OpWrite:  {RoleManager, RoleAdmin},
		OpDelete: {RoleAdmin},
		OpVerify: {RoleManager, RoleAdmin},
	}
}

// ParsePolicy builds a Policy from operation names to role labels, as read
// from configuration.
func ParsePolicy(raw map[string][]string) (Policy, error) {
	p := make(Policy, len(raw))
	for name, roles := range raw {
		op := Operation(strings.ToLower(strings.TrimSpace(name)))
		if !slices.Contains(Operations, op) {
			return nil, fmt.Errorf("unknown operation %q in policy", name)
		}
		for _, r := range roles {
			if nr := NormalizeRole(r); nr != "" {
				p[op] = append(p[op], nr)
			}
		}
	}
	return p, nil
}

// Authorize succeeds when principalRoles and requiredRoles intersect.
func Authorize(principalRoles, requiredRoles []Role) error {
	for _, r := range principalRoles {
		if slices.Contains(requiredRoles, r) {
			return nil
		}
	}
	return common.ErrorAccessDenied
}

// Guard evaluates a fixed Policy.
type Guard struct {
	policy Policy
}

// NewGuard copies policy so later changes to the caller's map have no effect.
func NewGuard(policy Policy) *Guard {
	cp := make(Policy, len(policy))
	for op, roles := range policy {
		cp[op] = slices.Clone(roles)
	}
	return &Guard{policy: cp}
}

// Authorize checks p against the roles required for op. Operations absent
// from the policy are denied.
func (g *Guard) Authorize(p Principal, op Operation) error {
	return Authorize(p.Roles, g.policy[op])
}

// Required returns a copy of the roles configured for op.
func (g *Guard) Required(op Operation) []Role {
	return slices.Clone(g.policy[op])
}
