// Package handlers contains HTTP request handlers for the auth service.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/baymabruno/loopback-4-base-project/internal/authz"
	"github.com/baymabruno/loopback-4-base-project/internal/repository"
	"github.com/baymabruno/loopback-4-base-project/internal/service"
)

// invalidCredentialsMessage is intentionally identical for unknown
// email and wrong password.
const invalidCredentialsMessage = "Invalid email or password."

// RespondError writes a JSON error body with the given status.
func RespondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// LogAndRespondError logs the underlying error and responds with a
// caller-safe message.
func LogAndRespondError(c *gin.Context, status int, err error, message string) {
	slog.Error(message, "error", err, "path", c.FullPath(), "status", status)
	RespondError(c, status, message)
}

// respondServiceError maps domain errors to HTTP responses. Anything
// unrecognized is a storage or internal failure: logged, reported
// generically, never retried here.
func respondServiceError(c *gin.Context, err error) {
	var validationErr *service.ValidationError
	var denyErr *authz.DenyError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": validationErr.Message,
			"rule":  validationErr.Rule,
		})
	case errors.Is(err, service.ErrInvalidCredentials):
		RespondError(c, http.StatusUnauthorized, invalidCredentialsMessage)
	case errors.Is(err, service.ErrInvalidToken):
		RespondError(c, http.StatusUnauthorized, "invalid token")
	case errors.Is(err, service.ErrTooManyAttempts):
		RespondError(c, http.StatusTooManyRequests, "too many login attempts, try again later")
	case errors.As(err, &denyErr):
		RespondError(c, http.StatusForbidden, denyErr.Error())
	case errors.Is(err, repository.ErrDuplicateEmail):
		RespondError(c, http.StatusConflict, "email already registered")
	case errors.Is(err, repository.ErrUserNotFound):
		RespondError(c, http.StatusNotFound, "user not found")
	default:
		LogAndRespondError(c, http.StatusInternalServerError, err, "internal error")
	}
}
