package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rasifabdulrazak/talks-qa-llm/internal/infra/config"
	"github.com/rasifabdulrazak/talks-qa-llm/internal/infra/extract"
	"github.com/rasifabdulrazak/talks-qa-llm/internal/infra/llm"
	"github.com/rasifabdulrazak/talks-qa-llm/internal/infra/logger"
	redisinfra "github.com/rasifabdulrazak/talks-qa-llm/internal/infra/redis"
	"github.com/rasifabdulrazak/talks-qa-llm/internal/infra/security"
	redisrepo "github.com/rasifabdulrazak/talks-qa-llm/internal/repository/redis"
	"github.com/rasifabdulrazak/talks-qa-llm/internal/transport/http/middleware"
	"github.com/rasifabdulrazak/talks-qa-llm/internal/transport/http/routes"
	"github.com/rasifabdulrazak/talks-qa-llm/internal/usecase"
)

// Application wires configuration, infrastructure, services, and the HTTP
// engine together and owns their lifecycle.
type Application struct {
	cfg    *config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
	redis  *redisinfra.Client
}

func New(_ context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		return nil, fmt.Errorf("init redis: %w", err)
	}

	signer, err := security.NewTokenSigner(cfg.Auth.JWTSecret, cfg.App.Name)
	if err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("init token signer: %w", err)
	}

	verifier, err := security.NewServiceAccountVerifier(cfg.Auth.ServiceAccount, cfg.Auth.ServiceSecret)
	if err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("init credential verifier: %w", err)
	}

	backend, err := llm.NewBackend(cfg.LLM, log)
	if err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("init model backend: %w", err)
	}

	answerCache := redisrepo.NewAnswerCacheRepository(redisClient.Client(), cfg.Redis.AnswerCachePrefix)
	revocationStore := redisrepo.NewRevocationRepository(redisClient.Client(), cfg.Redis.RevocationPrefix)

	tokenService := usecase.NewTokenService(cfg, signer, revocationStore, log)
	answerPipeline := usecase.NewAnswerPipeline(cfg, answerCache, backend, log)

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{Namespace: "qa"})
	if err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		Metrics:     metrics,
		Credentials: verifier,
		Extractor:   extract.NewPDFExtractor(),
		Cache:       redisClient,
		Services: routes.ServiceSet{
			Tokens:   tokenService,
			Pipeline: answerPipeline,
		},
	})

	return &Application{
		cfg:    cfg,
		engine: engine,
		logger: log,
		redis:  redisClient,
	}, nil
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Streaming responses may legitimately outlive a typical write
		// timeout; the model backend carries its own request timeout.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	a.logger.Info("starting QA API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
