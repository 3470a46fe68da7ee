package api

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"salesforecast/internal/db"
	"salesforecast/internal/models"
	"salesforecast/internal/predict"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// HistoryReader reads recorded predictions.
type HistoryReader interface {
	GetPrediction(ctx context.Context, id uuid.UUID) (*models.Prediction, error)
	ListPredictions(ctx context.Context, model string, limit int) ([]models.Prediction, error)
}

// PredictionHandler exposes prediction history as JSON.
type PredictionHandler struct {
	history HistoryReader
}

// NewPredictionHandler creates a new API prediction history handler.
func NewPredictionHandler(history HistoryReader) *PredictionHandler {
	return &PredictionHandler{history: history}
}

// List handles GET /api/v1/predictions?model=&limit=.
func (h *PredictionHandler) List(c fiber.Ctx) error {
	model := c.Query("model")
	if model != "" {
		kind, err := predict.ParseKind(model)
		if err != nil {
			return jsonError(c, fiber.StatusBadRequest, err.Error())
		}
		model = string(kind)
	}

	limit, err := ParseLimit(c.Query("limit"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	}

	predictions, err := h.history.ListPredictions(c.Context(), model, limit)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to list predictions")
	}
	if predictions == nil {
		predictions = []models.Prediction{}
	}
	return jsonSuccess(c, predictions)
}

// Get handles GET /api/v1/predictions/:id.
func (h *PredictionHandler) Get(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid prediction id")
	}

	p, err := h.history.GetPrediction(c.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrPredictionNotFound) {
			return jsonError(c, fiber.StatusNotFound, "prediction not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch prediction")
	}
	return jsonSuccess(c, p)
}

// ParseLimit parses a history page size, applying the default and cap.
func ParseLimit(s string) (int, error) {
	if s == "" {
		return defaultHistoryLimit, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.New("limit must be a positive integer")
	}
	if n > maxHistoryLimit {
		n = maxHistoryLimit
	}
	return n, nil
}
