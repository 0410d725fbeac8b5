// Package authz evaluates whether an authenticated identity may
// perform a requested operation. Decisions are pure per-request
// computations: a coarse role gate plus optional voter functions that
// can veto with operation-specific rules.
package authz

import (
	"fmt"

	"github.com/baymabruno/loopback-4-base-project/internal/models"
)

// Decision is a voter's verdict on an operation.
type Decision int

const (
	// Abstain defers to the base role-membership check.
	Abstain Decision = iota
	// Allow raises no objection. It does not override the role gate.
	Allow
	// Deny vetoes the operation regardless of role membership.
	Deny
)

// Operation describes the request under evaluation.
type Operation struct {
	// Name identifies the protected operation, typically the route.
	Name string
	// TargetUserID is the user record the operation acts on, if any.
	TargetUserID string
}

// Voter inspects an identity against an operation and may veto it.
type Voter func(profile models.UserProfile, req Requirement, op Operation) Decision

// Requirement is a protected operation's static access declaration.
type Requirement struct {
	AllowedRoles []models.Role
	Voters       []Voter
}

// DenyError explains why an operation was refused.
type DenyError struct {
	Reason string
}

func (e *DenyError) Error() string {
	return fmt.Sprintf("access denied: %s", e.Reason)
}

// Authorize decides whether the identity may perform the operation.
// The identity's roles must intersect the requirement's allowed roles
// and no voter may return Deny; either failure refuses the operation.
func Authorize(profile models.UserProfile, op Operation, req Requirement) error {
	if !profile.Roles.Intersects(req.AllowedRoles) {
		return &DenyError{Reason: "insufficient role"}
	}
	for _, voter := range req.Voters {
		if voter(profile, req, op) == Deny {
			return &DenyError{Reason: "denied by access rule"}
		}
	}
	return nil
}
