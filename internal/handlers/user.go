package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/baymabruno/loopback-4-base-project/internal/middleware"
	"github.com/baymabruno/loopback-4-base-project/internal/models"
	"github.com/baymabruno/loopback-4-base-project/internal/service"
)

var loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "auth_login_attempts_total",
	Help: "Login attempts by outcome.",
}, []string{"outcome"})

// UserHandler handles user and authentication HTTP requests.
type UserHandler struct {
	authService service.AuthService
}

// NewUserHandler creates a new UserHandler instance.
func NewUserHandler(authService service.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

// TokenResponse is the successful login payload.
type TokenResponse struct {
	Token string `json:"token"`
}

// Create godoc
// @Summary Create user
// @Description Register a new user account
// @Tags user
// @Accept json
// @Produce json
// @Param request body service.NewUser true "New user"
// @Success 201 {object} models.User
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /user/create [post]
func (h *UserHandler) Create(c *gin.Context) {
	var candidate service.NewUser
	if err := c.ShouldBindJSON(&candidate); err != nil {
		RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.authService.Register(c.Request.Context(), candidate)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// Login godoc
// @Summary User login
// @Description Authenticate with email and password, returns a signed token
// @Tags user
// @Accept json
// @Produce json
// @Param request body models.Credentials true "Login credentials"
// @Success 200 {object} TokenResponse
// @Failure 401 {object} map[string]string
// @Failure 429 {object} map[string]string
// @Router /user/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var credentials models.Credentials
	if err := c.ShouldBindJSON(&credentials); err != nil {
		RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.authService.Login(c.Request.Context(), credentials)
	if err != nil {
		loginAttempts.WithLabelValues("failure").Inc()
		respondServiceError(c, err)
		return
	}

	loginAttempts.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, TokenResponse{Token: token})
}

// Me godoc
// @Summary Current user
// @Description Return the account backing the presented token
// @Tags users
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} map[string]string
// @Router /users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	profile, ok := middleware.CurrentUser(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	user, err := h.authService.GetUser(c.Request.Context(), profile.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// GetByID godoc
// @Summary Get user by id
// @Tags users
// @Security BearerAuth
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.User
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /users/{id} [get]
func (h *UserHandler) GetByID(c *gin.Context) {
	user, err := h.authService.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Update godoc
// @Summary Update user
// @Description Apply a partial update to a user record
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body service.UserUpdate true "Fields to update"
// @Success 204
// @Failure 403 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	caller, ok := middleware.CurrentUser(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	var update service.UserUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.authService.UpdateUser(c.Request.Context(), caller, c.Param("id"), update); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// List godoc
// @Summary List users
// @Tags users
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.User
// @Failure 403 {object} map[string]string
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.authService.ListUsers(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// Count godoc
// @Summary Count users
// @Tags users
// @Security BearerAuth
// @Produce json
// @Success 200 {object} map[string]int64
// @Failure 403 {object} map[string]string
// @Router /users/count [get]
func (h *UserHandler) Count(c *gin.Context) {
	count, err := h.authService.CountUsers(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}
