// Package middleware provides HTTP middleware for the auth service.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/baymabruno/loopback-4-base-project/internal/authz"
	"github.com/baymabruno/loopback-4-base-project/internal/models"
	"github.com/baymabruno/loopback-4-base-project/internal/service"
)

const identityKey = "identity"

// Authenticate extracts the bearer token, verifies it, and attaches
// the resulting identity to the request. Any failure rejects the
// request before the handler runs, with no hint whether the token was
// malformed, forged, or expired.
func Authenticate(tokens service.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		profile, err := tokens.VerifyToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		SetCurrentUser(c, *profile)
		c.Next()
	}
}

// SetCurrentUser attaches an identity to the request context. Exposed
// so handler tests can run without a full token round trip.
func SetCurrentUser(c *gin.Context, profile models.UserProfile) {
	c.Set(identityKey, profile)
}

// RequireAuthorization gates the route behind the given requirement.
// The operation target is taken from the id path parameter so voters
// can apply self-access rules. Must run after Authenticate.
func RequireAuthorization(req authz.Requirement) gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}

		op := authz.Operation{
			Name:         c.FullPath(),
			TargetUserID: c.Param("id"),
		}
		if err := authz.Authorize(profile, op, req); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the identity attached by Authenticate.
func CurrentUser(c *gin.Context) (models.UserProfile, bool) {
	value, exists := c.Get(identityKey)
	if !exists {
		return models.UserProfile{}, false
	}
	profile, ok := value.(models.UserProfile)
	return profile, ok
}

func extractBearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
