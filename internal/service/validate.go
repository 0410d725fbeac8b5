package service

import (
	"fmt"
	"regexp"

	"github.com/baymabruno/loopback-4-base-project/internal/models"
)

// Validation rule codes reported back to API clients.
const (
	RuleInvalidEmail    = "InvalidEmail"
	RuleWeakPassword    = "WeakPassword"
	RuleInvalidUsername = "InvalidUsername"
	RuleUnknownRole     = "UnknownRole"
)

const (
	minPasswordLength = 8
	minUsernameLength = 5
)

// emailPattern requires a local part, an @, and a dotted domain with
// no whitespace or control characters.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9\-]+(\.[a-zA-Z0-9\-]+)+$`)

// ValidationError reports which rule a candidate user record violated.
type ValidationError struct {
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewUser is a candidate user record prior to hashing and persistence.
type NewUser struct {
	Email    string       `json:"email"`
	Username string       `json:"username"`
	Name     string       `json:"name"`
	Password string       `json:"password"`
	Roles    models.Roles `json:"roles"`
}

// ValidateNewUser checks a candidate record against the registration
// rules, in order, stopping at the first violation. It performs no
// I/O and never touches storage.
func ValidateNewUser(candidate NewUser) error {
	if !emailPattern.MatchString(candidate.Email) {
		return &ValidationError{Rule: RuleInvalidEmail, Message: "invalid email"}
	}
	if len(candidate.Password) < minPasswordLength {
		return &ValidationError{
			Rule:    RuleWeakPassword,
			Message: fmt.Sprintf("password must be minimum %d characters", minPasswordLength),
		}
	}
	if len(candidate.Username) < minUsernameLength {
		return &ValidationError{
			Rule:    RuleInvalidUsername,
			Message: fmt.Sprintf("username must be minimum %d characters", minUsernameLength),
		}
	}
	return validateRoles(candidate.Roles)
}

func validateRoles(roles models.Roles) error {
	if len(roles) == 0 {
		return &ValidationError{Rule: RuleUnknownRole, Message: "at least one role is required"}
	}
	for _, role := range roles {
		if !role.Valid() {
			return &ValidationError{
				Rule:    RuleUnknownRole,
				Message: fmt.Sprintf("unknown role %q", role),
			}
		}
	}
	return nil
}
