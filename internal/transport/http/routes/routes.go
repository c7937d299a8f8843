package routes

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rasifabdulrazak/talks-qa-llm/internal/core/port"
	"github.com/rasifabdulrazak/talks-qa-llm/internal/infra/config"
	"github.com/rasifabdulrazak/talks-qa-llm/internal/transport/http/handlers"
	"github.com/rasifabdulrazak/talks-qa-llm/internal/transport/http/middleware"
	"github.com/rasifabdulrazak/talks-qa-llm/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Tokens   *usecase.TokenService
	Pipeline *usecase.AnswerPipeline
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	Metrics     *middleware.HTTPMetrics
	Services    ServiceSet
	Credentials port.CredentialVerifier
	Extractor   port.TextExtractor
	Cache       CacheChecker
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	authMiddleware := middleware.RequireAuth(deps.Services.Tokens)

	healthOptions := make([]handlers.HealthOption, 0, 1)
	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}

	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		authHandler := handlers.NewAuthHandler(deps.Credentials, deps.Services.Tokens)
		authHandler.RegisterRoutes(api.Group("/auth"), authMiddleware)

		askHandler := handlers.NewAskHandler(deps.Services.Pipeline, deps.Extractor, deps.Config)
		askGroup := api.Group("")
		askGroup.Use(authMiddleware)
		askHandler.RegisterRoutes(askGroup)
	}

	return r
}
