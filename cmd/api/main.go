// Package main is the entry point for the auth service.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"

	_ "github.com/baymabruno/loopback-4-base-project/docs"
	"github.com/baymabruno/loopback-4-base-project/internal/config"
	"github.com/baymabruno/loopback-4-base-project/internal/handlers"
	"github.com/baymabruno/loopback-4-base-project/internal/models"
	"github.com/baymabruno/loopback-4-base-project/internal/ratelimit"
	"github.com/baymabruno/loopback-4-base-project/internal/repository"
	"github.com/baymabruno/loopback-4-base-project/internal/routes"
	"github.com/baymabruno/loopback-4-base-project/internal/service"
	"github.com/baymabruno/loopback-4-base-project/pkg/database"
	"github.com/baymabruno/loopback-4-base-project/pkg/redis"
)

// @title User Auth Service API
// @version 1.0
// @description Credential and token authentication service with role-based access control
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize database
	db, err := database.Connect(database.PostgresConfig{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  "disable",
		TimeZone: "UTC",
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize Redis
	redisClient, err := redis.NewClient(redis.Options{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}

	// Initialize repository
	userRepo := repository.NewUserRepository(db)

	// Initialize services
	tokenService, err := service.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		slog.Error("failed to initialize token service", "error", err)
		os.Exit(1)
	}
	hasher := service.NewPasswordHasher(cfg.BcryptCost)
	limiter := ratelimit.NewLoginLimiter(redisClient, cfg.LoginWindow, cfg.LoginMaxAttempts)
	authService := service.NewAuthService(userRepo, hasher, tokenService, limiter)

	// Initialize handlers
	userHandler := handlers.NewUserHandler(authService)
	healthHandler := handlers.NewHealthHandler("auth-service")

	// Setup router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	// Setup routes
	routes.Setup(router, userHandler, healthHandler, tokenService, cfg)

	// Start server
	slog.Info("starting auth service", "port", cfg.Port, "environment", cfg.Environment)
	if err := router.Run(fmt.Sprintf(":%s", cfg.Port)); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
