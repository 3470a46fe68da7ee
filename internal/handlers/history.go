package handlers

import (
	"github.com/gofiber/fiber/v3"

	"salesforecast/internal/config"
	"salesforecast/internal/forecast"
	"salesforecast/internal/handlers/api"
	"salesforecast/internal/middleware"
	"salesforecast/internal/models"
	"salesforecast/internal/predict"
)

// HistoryRow is one recorded prediction formatted for the history table.
type HistoryRow struct {
	When       string
	Model      string
	Outcome    string
	Success    bool
	Estimate   string
	Interval   string
	TargetDate string
	Error      string
}

// HistoryHandler renders recorded predictions.
type HistoryHandler struct {
	history api.HistoryReader
	cfg     *config.Config
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(history api.HistoryReader, cfg *config.Config) *HistoryHandler {
	return &HistoryHandler{history: history, cfg: cfg}
}

// Index renders the newest predictions, optionally filtered by ?model=.
func (h *HistoryHandler) Index(c fiber.Ctx) error {
	model := ""
	if q := c.Query("model"); q != "" {
		kind, err := predict.ParseKind(q)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Unknown model")
		}
		model = string(kind)
	}

	limit, err := api.ParseLimit(c.Query("limit"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	predictions, err := h.history.ListPredictions(c.Context(), model, limit)
	if err != nil {
		return err
	}

	rows := make([]HistoryRow, 0, len(predictions))
	for i := range predictions {
		rows = append(rows, historyRow(&predictions[i]))
	}

	return c.Render("history", MergeBranding(fiber.Map{
		"Title":  "History",
		"User":   middleware.CurrentUser(c),
		"Rows":   rows,
		"Filter": model,
		"Kinds":  predict.Kinds(),
	}, h.cfg))
}

func historyRow(p *models.Prediction) HistoryRow {
	row := HistoryRow{
		When:    p.CreatedAt.Format("2006-01-02 15:04"),
		Model:   predict.Kind(p.Model).Label(),
		Outcome: p.Outcome,
		Success: p.Succeeded(),
	}
	if p.Estimate != nil {
		row.Estimate = forecast.FormatMoney(*p.Estimate)
	}
	if p.Lower != nil && p.Upper != nil {
		row.Interval = forecast.FormatMoney(*p.Lower) + " to " + forecast.FormatMoney(*p.Upper)
	}
	if p.TargetDate != nil {
		row.TargetDate = p.TargetDate.Format(forecast.DateLayout)
	}
	if p.ErrorMessage != nil {
		row.Error = *p.ErrorMessage
	}
	return row
}
