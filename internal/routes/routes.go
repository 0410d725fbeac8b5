// Package routes defines HTTP routes for the auth service.
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/baymabruno/loopback-4-base-project/docs"
	"github.com/baymabruno/loopback-4-base-project/internal/authz"
	"github.com/baymabruno/loopback-4-base-project/internal/config"
	"github.com/baymabruno/loopback-4-base-project/internal/handlers"
	"github.com/baymabruno/loopback-4-base-project/internal/middleware"
	"github.com/baymabruno/loopback-4-base-project/internal/models"
	"github.com/baymabruno/loopback-4-base-project/internal/service"
)

// Setup configures all HTTP routes for the application.
func Setup(router *gin.Engine, userHandler *handlers.UserHandler, healthHandler *handlers.HealthHandler, tokens service.TokenService, cfg *config.Config) {
	router.Use(middleware.Security(middleware.SecurityConfig{
		AllowedOrigins: cfg.AllowedOrigins,
	}))

	// Health check
	router.GET("/health", healthHandler.Check)
	// Metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public endpoints
	router.POST("/user/create", userHandler.Create)
	router.POST("/user/login", userHandler.Login)

	// Per-operation role requirements. Self-targeted reads admit any
	// authenticated role; the voter narrows customers to their own
	// record. Writes admit any authenticated role but only admins may
	// target foreign records.
	anyAuthenticated := authz.Requirement{
		AllowedRoles: []models.Role{models.RoleAdmin, models.RoleSupport, models.RoleCustomer},
	}
	selfOrStaffRead := authz.Requirement{
		AllowedRoles: []models.Role{models.RoleAdmin, models.RoleSupport, models.RoleCustomer},
		Voters:       []authz.Voter{authz.SelfOrElevated(models.RoleAdmin, models.RoleSupport)},
	}
	selfOrAdminWrite := authz.Requirement{
		AllowedRoles: []models.Role{models.RoleAdmin, models.RoleSupport, models.RoleCustomer},
		Voters:       []authz.Voter{authz.SelfOrElevated(models.RoleAdmin)},
	}
	staffOnly := authz.Requirement{
		AllowedRoles: []models.Role{models.RoleAdmin, models.RoleSupport},
	}
	adminOnly := authz.Requirement{
		AllowedRoles: []models.Role{models.RoleAdmin},
	}

	// Protected endpoints
	users := router.Group("/users", middleware.Authenticate(tokens))
	{
		users.GET("/me", middleware.RequireAuthorization(anyAuthenticated), userHandler.Me)
		users.GET("/count", middleware.RequireAuthorization(adminOnly), userHandler.Count)
		users.GET("", middleware.RequireAuthorization(staffOnly), userHandler.List)
		users.GET("/:id", middleware.RequireAuthorization(selfOrStaffRead), userHandler.GetByID)
		users.PUT("/:id", middleware.RequireAuthorization(selfOrAdminWrite), userHandler.Update)
	}

	// Swagger documentation (only if SWAGGER_HOST is configured)
	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
}
