package api

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"salesforecast/internal/features"
	"salesforecast/internal/forecast"
	"salesforecast/internal/middleware"
	"salesforecast/internal/models"
	"salesforecast/internal/predict"
	"salesforecast/internal/validation"
)

// ForecastHandler serves predictions as JSON.
type ForecastHandler struct {
	svc *forecast.Service
	now func() time.Time
}

// NewForecastHandler creates a new API forecast handler.
func NewForecastHandler(svc *forecast.Service) *ForecastHandler {
	return &ForecastHandler{svc: svc, now: time.Now}
}

// WithClock replaces the clock used for the default target date.
func (h *ForecastHandler) WithClock(now func() time.Time) *ForecastHandler {
	h.now = now
	return h
}

// Predict handles POST /api/v1/predict.
func (h *ForecastHandler) Predict(c fiber.Ctx) error {
	var req models.PredictRequest
	if err := c.Bind().Body(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	kind, err := predict.ParseKind(req.Model)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	}

	now := h.now()
	today := now
	if req.Today != "" {
		if !validation.ValidateDate(req.Today) {
			return jsonError(c, fiber.StatusBadRequest, "today must be formatted YYYY-MM-DD")
		}
		today, err = time.ParseInLocation(forecast.DateLayout, req.Today, now.Location())
		if err != nil {
			return jsonError(c, fiber.StatusBadRequest, "today is not a valid date")
		}
	}

	res, id, err := h.svc.Run(c.Context(), forecast.Request{
		Kind:   kind,
		Inputs: req.Inputs,
		Today:  today,
		User:   middleware.CurrentUser(c),
	})
	if err != nil {
		return jsonFailure(c, err)
	}

	resp := models.PredictResponse{
		ID:            id,
		Model:         string(res.Model),
		Label:         res.Model.Label(),
		Estimate:      res.Estimate,
		Lower:         res.Lower,
		Upper:         res.Upper,
		Members:       res.Members,
		IntervalLabel: res.IntervalLabel,
		IntervalNote:  res.IntervalNote,
	}
	if !res.TargetDate.IsZero() {
		target := res.TargetDate
		resp.TargetDate = &target
	}
	return jsonSuccess(c, resp)
}

// Schema handles GET /api/v1/schema.
func (h *ForecastHandler) Schema(c fiber.Ctx) error {
	return jsonSuccess(c, models.SchemaResponse{
		Ensemble:   features.EnsembleColumns(),
		TimeSeries: features.RegressorColumns(),
		DateColumn: features.DateColumn,
		MonthNames: features.MonthNames[:],
	})
}
