package handlers

import (
	"context"
	"sort"

	"github.com/gofiber/fiber/v3"

	"salesforecast/internal/artifact"
	"salesforecast/internal/predict"
)

// Pinger checks connectivity to a backing service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ArtifactStatus reports the last known availability per model kind; a nil
// error means readable. Kinds not yet checked are absent.
type ArtifactStatus interface {
	Status() map[predict.Kind]error
}

// ProbeHandler handles Kubernetes health probe endpoints.
type ProbeHandler struct {
	store  artifact.Store
	paths  map[predict.Kind]string
	status ArtifactStatus
	db     Pinger
}

// NewProbeHandler creates a new probe handler. db may be nil when history
// is disabled.
func NewProbeHandler(store artifact.Store, paths map[predict.Kind]string, db Pinger) *ProbeHandler {
	return &ProbeHandler{store: store, paths: paths, db: db}
}

// WithArtifactStatus makes readiness answer from status instead of checking
// storage on every probe. Kinds status has not seen yet are still checked.
func (h *ProbeHandler) WithArtifactStatus(status ArtifactStatus) *ProbeHandler {
	h.status = status
	return h
}

// Liveness handles the /healthz endpoint for Kubernetes liveness probes.
// Returns 200 OK if the application is running.
func (h *ProbeHandler) Liveness(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
	})
}

// Readiness handles the /readyz endpoint for Kubernetes readiness probes.
// Returns 200 OK if every artifact is reachable and the database answers.
func (h *ProbeHandler) Readiness(c fiber.Ctx) error {
	var known map[predict.Kind]error
	if h.status != nil {
		known = h.status.Status()
	}

	kinds := make([]predict.Kind, 0, len(h.paths))
	for k := range h.paths {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	for _, kind := range kinds {
		uri := h.paths[kind]
		err, ok := known[kind]
		if !ok {
			err = h.store.Stat(c.Context(), uri)
		}
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":   "error",
				"error":    "artifact unavailable",
				"model":    string(kind),
				"artifact": uri,
			})
		}
	}

	if h.db != nil {
		if err := h.db.Ping(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "error",
				"error":  "database unavailable",
			})
		}
	}

	return c.JSON(fiber.Map{
		"status": "ok",
	})
}
