package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/baymabruno/loopback-4-base-project/internal/authz"
	"github.com/baymabruno/loopback-4-base-project/internal/models"
	"github.com/baymabruno/loopback-4-base-project/internal/ratelimit"
	"github.com/baymabruno/loopback-4-base-project/internal/repository"
)

var (
	// ErrInvalidCredentials is returned for any login failure. It
	// never reveals whether the email or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrTooManyAttempts is returned when the login limiter trips.
	ErrTooManyAttempts = errors.New("too many login attempts")
)

// UserUpdate carries a partial user record for update flows. Nil
// fields are left untouched.
type UserUpdate struct {
	Email    *string      `json:"email"`
	Username *string      `json:"username"`
	Name     *string      `json:"name"`
	Password *string      `json:"password"`
	Roles    models.Roles `json:"roles"`
}

// AuthService orchestrates registration, credential verification and
// token issuance.
type AuthService interface {
	Register(ctx context.Context, candidate NewUser) (*models.User, error)
	Login(ctx context.Context, credentials models.Credentials) (string, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	UpdateUser(ctx context.Context, caller models.UserProfile, id string, update UserUpdate) error
	ListUsers(ctx context.Context) ([]models.User, error)
	CountUsers(ctx context.Context) (int64, error)
}

type authService struct {
	users   repository.UserRepository
	hasher  PasswordHasher
	tokens  TokenService
	limiter *ratelimit.LoginLimiter
}

// NewAuthService creates a new AuthService instance. The limiter may
// be nil, in which case login attempts are not throttled.
func NewAuthService(users repository.UserRepository, hasher PasswordHasher, tokens TokenService, limiter *ratelimit.LoginLimiter) AuthService {
	return &authService{
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		limiter: limiter,
	}
}

// Register validates the candidate, hashes its password and persists
// the record. Candidates without roles default to customer.
func (s *authService) Register(ctx context.Context, candidate NewUser) (*models.User, error) {
	if len(candidate.Roles) == 0 {
		candidate.Roles = models.Roles{models.RoleCustomer}
	}

	if err := ValidateNewUser(candidate); err != nil {
		return nil, err
	}

	hashed, err := s.hasher.Hash(candidate.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        candidate.Email,
		Username:     candidate.Username,
		Name:         candidate.Name,
		PasswordHash: hashed,
		Roles:        candidate.Roles,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies the credentials and issues a signed token carrying
// the user's profile.
func (s *authService) Login(ctx context.Context, credentials models.Credentials) (string, error) {
	if s.limiter != nil && !s.limiter.Allow(ctx, credentials.Email) {
		return "", ErrTooManyAttempts
	}

	user, err := s.verifyCredentials(ctx, credentials)
	if err != nil {
		return "", err
	}

	if s.limiter != nil {
		s.limiter.Reset(ctx, credentials.Email)
	}

	token, err := s.tokens.GenerateToken(user.Profile())
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return token, nil
}

// verifyCredentials resolves the account for the given credentials.
// Unknown email and wrong password collapse into the same error.
func (s *authService) verifyCredentials(ctx context.Context, credentials models.Credentials) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, credentials.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Compare(credentials.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *authService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.users.FindByID(ctx, id)
}

// UpdateUser applies a partial update, re-validating every supplied
// field and re-hashing the password when one is given. An empty
// password is rejected before it ever reaches the hasher. Role
// changes are restricted to admin callers; the route gate cannot see
// the request body, so the check lives here.
func (s *authService) UpdateUser(ctx context.Context, caller models.UserProfile, id string, update UserUpdate) error {
	fields := make(map[string]interface{})

	if update.Email != nil {
		if !emailPattern.MatchString(*update.Email) {
			return &ValidationError{Rule: RuleInvalidEmail, Message: "invalid email"}
		}
		fields["email"] = *update.Email
	}
	if update.Password != nil {
		if len(*update.Password) < minPasswordLength {
			return &ValidationError{
				Rule:    RuleWeakPassword,
				Message: fmt.Sprintf("password must be minimum %d characters", minPasswordLength),
			}
		}
		hashed, err := s.hasher.Hash(*update.Password)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		fields["password_hash"] = hashed
	}
	if update.Username != nil {
		if len(*update.Username) < minUsernameLength {
			return &ValidationError{
				Rule:    RuleInvalidUsername,
				Message: fmt.Sprintf("username must be minimum %d characters", minUsernameLength),
			}
		}
		fields["username"] = *update.Username
	}
	if update.Name != nil {
		fields["name"] = *update.Name
	}
	if update.Roles != nil {
		if !caller.Roles.Contains(models.RoleAdmin) {
			return &authz.DenyError{Reason: "only admins may change roles"}
		}
		if err := validateRoles(update.Roles); err != nil {
			return err
		}
		fields["roles"] = update.Roles
	}

	if len(fields) == 0 {
		return nil
	}
	return s.users.UpdateByID(ctx, id, fields)
}

func (s *authService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

func (s *authService) CountUsers(ctx context.Context) (int64, error) {
	return s.users.Count(ctx)
}
