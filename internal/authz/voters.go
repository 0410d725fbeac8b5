package authz

import "github.com/baymabruno/loopback-4-base-project/internal/models"

// SelfOrElevated builds a voter for self-service operations: an
// identity holding any of the elevated roles may target any record,
// everyone else may target only their own. Operations with no target
// record are left to the role gate.
func SelfOrElevated(elevated ...models.Role) Voter {
	return func(profile models.UserProfile, _ Requirement, op Operation) Decision {
		if op.TargetUserID == "" {
			return Abstain
		}
		if profile.Roles.Intersects(elevated) {
			return Abstain
		}
		if op.TargetUserID == profile.ID {
			return Allow
		}
		return Deny
	}
}
