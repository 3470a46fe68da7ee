package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"salesforecast/internal/config"
	"salesforecast/internal/db"
	"salesforecast/internal/email"
	"salesforecast/internal/forecast"
	"salesforecast/internal/jobs"
	"salesforecast/internal/logging"
	"salesforecast/internal/metrics"
	"salesforecast/internal/server"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Setup(cfg.LogLevel, cfg.IsDev())

	registry, err := config.LoadModelsConfig(cfg.ModelsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load models file")
	}

	backend, err := forecast.NewBackend(ctx, cfg, registry)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up model artifacts")
	}
	for kind, uri := range backend.Paths {
		log.Info().Str("model", string(kind)).Str("artifact", uri).Msg("model configured")
	}

	// Prediction history is optional
	var database *db.DB
	var recorder *metrics.Recorder
	if cfg.HistoryEnabled() {
		database, err = db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer database.Close()

		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
		log.Info().Msg("migrations completed successfully")

		recorder = metrics.NewRecorder(database, 5*time.Second)
		metrics.Init(database)
	} else {
		log.Info().Msg("prediction history is disabled. Set DATABASE_URL to enable.")
		metrics.Init(nil)
	}

	jobCtx, stopJobs := context.WithCancel(ctx)
	defer stopJobs()

	srv := server.New(cfg)
	deps := server.Deps{
		Service:  forecast.NewService(backend.Dispatcher, recorder),
		Store:    backend.Store,
		Paths:    backend.Paths,
		Registry: registry,
		DB:       database,
	}
	if cfg.ArtifactCheckInterval > 0 {
		checker := jobs.NewArtifactChecker(backend.Store, backend.Paths, cfg.ArtifactCheckInterval).
			WithAlerter(email.NewNotifier(cfg))
		go checker.Start(jobCtx)
		deps.ArtifactStatus = checker
	}
	if err := srv.RegisterRoutes(ctx, deps); err != nil {
		log.Fatal().Err(err).Msg("failed to register routes")
	}

	// Graceful shutdown
	go func() {
		if err := srv.Start(); err != nil {
			log.Error().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	stopJobs()
	if err := srv.Shutdown(); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	recorder.Wait()
	log.Info().Msg("server exited")
}
