package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/okanji/platform-services-registry-web/internal/api"
	"github.com/okanji/platform-services-registry-web/internal/api/handlers"
	mw "github.com/okanji/platform-services-registry-web/internal/api/middleware"
	"github.com/okanji/platform-services-registry-web/internal/events"
	"github.com/okanji/platform-services-registry-web/internal/queue/tasks"
	"github.com/okanji/platform-services-registry-web/internal/quota"
	"github.com/okanji/platform-services-registry-web/internal/repository"
	"github.com/okanji/platform-services-registry-web/internal/services"
	"github.com/okanji/platform-services-registry-web/pkg/config"
	"github.com/okanji/platform-services-registry-web/pkg/database"
	"github.com/okanji/platform-services-registry-web/pkg/logger"
)

func main() {
	cfg := config.MustLoad()

	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	log.Info("starting registry api",
		zap.String("env", cfg.AppEnv),
		zap.String("addr", cfg.HTTPAddr),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.OpenPostgres(ctx, cfg.DatabaseURL, log, database.Options{Verbose: cfg.AppEnv == "development"})
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("failed to get sql db", zap.Error(err))
	}
	defer sqlDB.Close()

	rdb, err := database.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	catalog := quota.Default()
	if cfg.QuotaCatalogFile != "" {
		if catalog, err = quota.LoadFile(cfg.QuotaCatalogFile); err != nil {
			log.Fatal("failed to load quota catalog", zap.String("file", cfg.QuotaCatalogFile), zap.Error(err))
		}
	}

	verifier, err := newVerifier(ctx, cfg)
	if err != nil {
		log.Fatal("failed to set up token verification", zap.Error(err))
	}

	queue := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	defer queue.Close()

	projectRepo := repository.NewProjectRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	publisher := events.NewPublisher(rdb, cfg.InvalidationChannel)

	requestSvc := services.NewRequestService(catalog, projectRepo, requestRepo, publisher)
	decisionSvc := services.NewDecisionService(projectRepo, requestRepo, publisher, tasks.NewEnqueuer(queue))
	projectSvc := services.NewProjectService(projectRepo)

	hub := events.NewHub(rdb, cfg.InvalidationChannel, log.Named("events"))
	go func() {
		if err := hub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("invalidation hub stopped", zap.Error(err))
		}
	}()

	limiter := mw.NewLimiter(10, 20)
	go limiter.Sweep(ctx, 5*time.Minute)

	router := api.NewRouter(api.Dependencies{
		Verifier:    verifier,
		AdminRole:   cfg.AdminRole,
		CORSOrigins: cfg.CORSOrigins,
		Limiter:     limiter,
		HealthHandler: handlers.NewHealthHandler(
			handlers.Check{Name: "postgres", Probe: sqlDB.PingContext},
			handlers.Check{Name: "redis", Probe: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
		),
		QuotaHandler:    handlers.NewQuotaHandler(catalog),
		ProjectsHandler: handlers.NewProjectsHandler(projectSvc),
		RequestsHandler: handlers.NewRequestsHandler(requestSvc, decisionSvc),
		UsersHandler:    handlers.NewUsersHandler(repository.NewUserRepository(db)),
		EventsHandler:   handlers.NewEventsHandler(hub, originChecker(cfg.CORSOrigins)),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	} else {
		log.Info("server exited gracefully")
	}
}

const developmentSecret = "registry-development-secret"

func newVerifier(ctx context.Context, cfg *config.Config) (mw.TokenVerifier, error) {
	if cfg.OIDCIssuerURL != "" {
		return mw.NewOIDCVerifier(ctx, cfg.OIDCIssuerURL, cfg.OIDCClientID)
	}
	if cfg.JWTSecret == "" {
		// The shared development secret is public; only local environments may use it.
		if cfg.AppEnv != "development" && cfg.AppEnv != "test" {
			return nil, fmt.Errorf("JWT_SECRET or OIDC_ISSUER_URL is required in %s", cfg.AppEnv)
		}
		logger.L().Warn("JWT_SECRET not set, using development secret", zap.String("env", cfg.AppEnv))
		return mw.HMACVerifier([]byte(developmentSecret)), nil
	}
	return mw.HMACVerifier([]byte(cfg.JWTSecret)), nil
}

// originChecker accepts websocket upgrades from the CORS origins.
func originChecker(origins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range origins {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}
