package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/okanji/platform-services-registry-web/internal/provisioner"
	"github.com/okanji/platform-services-registry-web/internal/queue/tasks"
	"github.com/okanji/platform-services-registry-web/internal/repository"
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

	ctx := context.Background()
	rdb, err := database.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Fatal("redis connection failed", zap.Error(err))
	}
	// asynq dials lazily; fail fast on a bad address instead.
	_ = rdb.Close()

	db, err := database.OpenPostgres(ctx, cfg.DatabaseURL, log, database.Options{})
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}

	var prov provisioner.Provisioner = provisioner.LogProvisioner{}
	if cfg.FulfillmentURL != "" {
		prov = provisioner.NewHTTPProvisioner(cfg.FulfillmentURL, cfg.FulfillmentTimeout)
	} else {
		log.Warn("FULFILLMENT_URL not set, provisioning intents are only logged")
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		},
		asynq.Config{
			Concurrency: cfg.AsynqConcurrency,
			Logger:      log.Named("asynq").Sugar(),
		},
	)

	handler := tasks.NewProvisionTaskHandler(prov, repository.NewProjectRepository(db))
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeProvisionIntent, handler.HandleProvision)

	log.Info("asynq worker starting", zap.Int("concurrency", cfg.AsynqConcurrency))
	if err := srv.Start(mux); err != nil {
		log.Fatal("worker failed to start", zap.Error(err))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("shutdown signal received", zap.String("signal", sig.String()))

	// Shutdown waits for in-flight tasks.
	srv.Shutdown()
}
