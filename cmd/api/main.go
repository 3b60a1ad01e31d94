package main

import (
	"context"
	"fmt"
	stdlog "log"
	"os/signal"
	"syscall"

	"github.com/Shahidul-Khan2004/EpiTrace-Backend/config"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/internals/app"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/internals/server"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/pkg/db"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig("env.yaml")
	if err != nil {
		stdlog.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.Init(cfg)
	log.Info().Msg("logger initialized")

	dbPool, err := db.ConnectToDB(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize db pool")
	}
	log.Info().Msg("database pool initialized")

	container, err := app.NewContainer(ctx, dbPool, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize dependencies")
	}
	log.Info().Msg("dependencies initialized")

	// Re-arm timers for every monitor that was active before the restart.
	if err := container.ReconcileSchedules(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to reconcile schedules")
	}

	router := app.RegisterRoutes(container)
	log.Info().Msg("routes registered")

	srv := server.New(fmt.Sprintf(":%d", cfg.Port), router, log)
	srv.Start()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	if err := srv.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	if err := container.Shutdown(); err != nil {
		log.Error().Err(err).Msg("dependencies shutdown failed")
	}

	log.Info().Msg("graceful shutdown complete")
}
