package server

import (
	"context"

	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"salesforecast/internal/artifact"
	"salesforecast/internal/config"
	"salesforecast/internal/db"
	"salesforecast/internal/forecast"
	"salesforecast/internal/handlers"
	"salesforecast/internal/handlers/api"
	"salesforecast/internal/middleware"
	"salesforecast/internal/predict"
)

// Deps are the components the routes are wired to.
type Deps struct {
	Service  *forecast.Service
	Store    artifact.Store
	Paths    map[predict.Kind]string
	Registry *config.ModelsConfig
	// ArtifactStatus, when set, answers readiness from the background
	// artifact checker.
	ArtifactStatus handlers.ArtifactStatus
	// DB is nil when prediction history is disabled.
	DB *db.DB
}

// RegisterRoutes registers all application routes.
func (s *Server) RegisterRoutes(ctx context.Context, deps Deps) error {
	authMiddleware := middleware.NewAuthMiddleware(s.Cfg.AuthEnabled())

	forecastHandler := handlers.NewForecastHandler(deps.Service, s.Cfg, deps.Registry)
	apiForecastHandler := api.NewForecastHandler(deps.Service)

	var probeHandler *handlers.ProbeHandler
	if deps.DB != nil {
		probeHandler = handlers.NewProbeHandler(deps.Store, deps.Paths, deps.DB)
	} else {
		probeHandler = handlers.NewProbeHandler(deps.Store, deps.Paths, nil)
	}
	if deps.ArtifactStatus != nil {
		probeHandler.WithArtifactStatus(deps.ArtifactStatus)
	}

	// Probes and metrics are always public
	s.App.Get("/healthz", probeHandler.Liveness)
	s.App.Get("/readyz", probeHandler.Readiness)
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Auth routes, only when OIDC is configured
	if s.Cfg.AuthEnabled() {
		authHandler, err := handlers.NewAuthHandler(ctx, s.Cfg)
		if err != nil {
			return err
		}
		s.App.Get("/login", handlers.LoginPage(s.Cfg))
		s.App.Get("/auth/login", authHandler.Login)
		s.App.Get("/auth/callback", authHandler.Callback)
		s.App.Get("/auth/logout", authHandler.Logout)
	} else {
		log.Info().Str("component", "server").Msg("OIDC authentication is disabled. Set OIDC_ISSUER to enable.")
	}

	// Forecast form
	s.App.Get("/", authMiddleware.RequireAuth, forecastHandler.Index)
	s.App.Post("/predict", authMiddleware.RequireAuth, forecastHandler.Predict)

	// JSON API
	v1 := s.App.Group("/api/v1", authMiddleware.RequireAuth)
	v1.Get("/schema", apiForecastHandler.Schema)
	v1.Post("/predict", apiForecastHandler.Predict)

	// History, only when a database is configured
	if deps.DB != nil {
		historyHandler := handlers.NewHistoryHandler(deps.DB, s.Cfg)
		predictionHandler := api.NewPredictionHandler(deps.DB)

		s.App.Get("/history", authMiddleware.RequireAuth, historyHandler.Index)
		v1.Get("/predictions", predictionHandler.List)
		v1.Get("/predictions/:id", predictionHandler.Get)
	}

	return nil
}
