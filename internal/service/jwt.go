package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/baymabruno/loopback-4-base-project/internal/models"
)

// ErrInvalidToken covers every verification failure: malformed
// structure, bad signature, or expiry. Callers are given no way to
// tell which, so a rejected token leaks nothing about why.
var ErrInvalidToken = errors.New("invalid token")

const minSecretLength = 32

// Claims carries the user profile inside a signed token.
type Claims struct {
	UserID string       `json:"user_id"`
	Name   string       `json:"name"`
	Roles  models.Roles `json:"roles"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies signed, time-bound identity tokens.
type TokenService interface {
	GenerateToken(profile models.UserProfile) (string, error)
	VerifyToken(tokenString string) (*models.UserProfile, error)
	TTL() time.Duration
}

type tokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService signing with HMAC-SHA256.
// The secret must be at least 32 bytes.
func NewTokenService(secret string, ttl time.Duration) (TokenService, error) {
	if len(secret) < minSecretLength {
		return nil, errors.New("token secret must be at least 32 bytes")
	}
	if ttl <= 0 {
		return nil, errors.New("token TTL must be positive")
	}
	return &tokenService{secret: []byte(secret), ttl: ttl}, nil
}

func (s *tokenService) GenerateToken(profile models.UserProfile) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: profile.ID,
		Name:   profile.Name,
		Roles:  profile.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *tokenService) VerifyToken(tokenString string) (*models.UserProfile, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrInvalidToken
	}

	return &models.UserProfile{
		ID:    claims.UserID,
		Name:  claims.Name,
		Roles: claims.Roles,
	}, nil
}

func (s *tokenService) TTL() time.Duration {
	return s.ttl
}
