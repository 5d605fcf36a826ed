package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/passvault/vault-service/internal/api/handler"
	"github.com/passvault/vault-service/internal/api/middleware"
	"github.com/passvault/vault-service/internal/core/ports"
	"github.com/passvault/vault-service/internal/core/service"
	mongodb "github.com/passvault/vault-service/internal/infrastructure/db/mongo"
	redisdb "github.com/passvault/vault-service/internal/infrastructure/db/redis"

	_ "github.com/passvault/vault-service/docs"
)

// RouterConfig carries the dependencies and settings NewRouter needs.
type RouterConfig struct {
	Auth  service.AuthConfig
	Audit ports.AuditSink
	Log   zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(db *mongo.Database, rdb *redis.Client, cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(cfg.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("vault"))

	// --- Dependencies ---
	userRepo := mongodb.NewUserRepository(db)
	sessions := redisdb.NewSessionStore(rdb)
	authService := service.NewAuthService(userRepo, sessions, cfg.Audit, cfg.Auth)
	vaultService := service.NewVaultService(userRepo, cfg.Audit, cfg.Auth.OpTimeout)
	authHandler := handler.NewAuthHandler(authService)
	vaultHandler := handler.NewVaultHandler(vaultService)
	authMiddleware := middleware.Auth(cfg.Auth.SigningKey, sessions)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/mfa/verify", authHandler.VerifyMFA)
	e.POST("/auth/logout", authHandler.Logout)

	// --- Vault routes (behind the access-control gate) ---
	vault := e.Group("/vault", authMiddleware)
	vault.GET("", vaultHandler.Get)
	vault.PUT("", vaultHandler.Put)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Operational endpoints ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
