package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"

	"salesforecast/internal/config"
	"salesforecast/internal/features"
	"salesforecast/internal/forecast"
	"salesforecast/internal/handlers/api"
	"salesforecast/internal/middleware"
	"salesforecast/internal/predict"
	"salesforecast/internal/validation"
)

// ModelOption is one radio button on the form.
type ModelOption struct {
	Kind     string
	Label    string
	Caption  string
	Selected bool
}

// ResultView is a prediction formatted for display.
type ResultView struct {
	ID            string
	Label         string
	Estimate      string
	IntervalLabel string
	Lower         string
	Upper         string
	TargetDate    string
	Members       int
	Note          string
	Caption       string
}

// ForecastHandler renders the forecast form and its results.
type ForecastHandler struct {
	svc      *forecast.Service
	cfg      *config.Config
	registry *config.ModelsConfig
	now      func() time.Time
}

// NewForecastHandler creates a new forecast handler. registry may be nil.
func NewForecastHandler(svc *forecast.Service, cfg *config.Config, registry *config.ModelsConfig) *ForecastHandler {
	return &ForecastHandler{svc: svc, cfg: cfg, registry: registry, now: time.Now}
}

// WithClock replaces the clock used for form defaults and target dates.
func (h *ForecastHandler) WithClock(now func() time.Time) *ForecastHandler {
	h.now = now
	return h
}

// Index renders the form pre-filled with today's defaults.
func (h *ForecastHandler) Index(c fiber.Ctx) error {
	now := h.now()
	return c.Render("index", h.page(c, features.DefaultInputs(now), h.defaultKind(), ""))
}

// Predict handles a form submission. HTMX requests receive only the result
// partial; plain submissions re-render the whole page.
func (h *ForecastHandler) Predict(c fiber.Ctx) error {
	now := h.now()

	var in features.Inputs
	if err := c.Bind().Form(&in); err != nil {
		return h.fail(c, features.DefaultInputs(now), h.defaultKind(), fiber.StatusBadRequest,
			"Invalid input: every field must be a number.")
	}

	kind, err := predict.ParseKind(c.FormValue("model"))
	if err != nil {
		return h.fail(c, in, h.defaultKind(), fiber.StatusBadRequest, "Please choose a model.")
	}

	today := now
	if s := c.FormValue("today"); s != "" {
		if !validation.ValidateDate(s) {
			return h.fail(c, in, kind, fiber.StatusBadRequest, "Forecast date must be formatted YYYY-MM-DD.")
		}
		if today, err = time.ParseInLocation(forecast.DateLayout, s, now.Location()); err != nil {
			return h.fail(c, in, kind, fiber.StatusBadRequest, "Forecast date is not a valid date.")
		}
	}

	res, id, err := h.svc.Run(c.Context(), forecast.Request{
		Kind:   kind,
		Inputs: in,
		Today:  today,
		User:   middleware.CurrentUser(c),
	})
	if err != nil {
		return h.fail(c, in, kind, api.StatusFor(err), failureMessage(err))
	}

	view := h.resultView(res)
	view.ID = id.String()

	if isHTMX(c) {
		return c.Render("partials/result", fiber.Map{"Result": view}, "")
	}
	data := h.page(c, in, kind, c.FormValue("today"))
	data["Result"] = view
	return c.Render("index", data)
}

func (h *ForecastHandler) fail(c fiber.Ctx, in features.Inputs, kind predict.Kind, status int, message string) error {
	if isHTMX(c) {
		return htmxError(c, message)
	}
	data := h.page(c, in, kind, c.FormValue("today"))
	data["Error"] = message
	return c.Status(status).Render("index", data)
}

func (h *ForecastHandler) page(c fiber.Ctx, in features.Inputs, kind predict.Kind, today string) fiber.Map {
	return MergeBranding(fiber.Map{
		"Title":      "Forecast",
		"User":       middleware.CurrentUser(c),
		"Inputs":     in,
		"Models":     h.modelOptions(kind),
		"MonthNames": features.MonthNames,
		"Today":      today,
	}, h.cfg)
}

func (h *ForecastHandler) defaultKind() predict.Kind {
	kind, err := predict.ParseKind(h.registry.DefaultKind(string(predict.KindEnsemble)))
	if err != nil {
		return predict.KindEnsemble
	}
	return kind
}

func (h *ForecastHandler) modelOptions(selected predict.Kind) []ModelOption {
	kinds := predict.Kinds()
	opts := make([]ModelOption, 0, len(kinds))
	for _, k := range kinds {
		opt := ModelOption{Kind: string(k), Label: k.Label(), Selected: k == selected}
		if m := lookupModel(h.registry, k); m != nil {
			if m.Label != "" {
				opt.Label = m.Label
			}
			opt.Caption = m.Caption
		}
		opts = append(opts, opt)
	}
	return opts
}

func (h *ForecastHandler) resultView(res predict.Result) ResultView {
	view := ResultView{
		Label:         res.Model.Label(),
		Estimate:      forecast.FormatMoney(res.Estimate),
		IntervalLabel: res.IntervalLabel,
		Lower:         forecast.FormatMoney(res.Lower),
		Upper:         forecast.FormatMoney(res.Upper),
		Members:       res.Members,
		Note:          res.IntervalNote,
	}
	if m := lookupModel(h.registry, res.Model); m != nil {
		if m.Label != "" {
			view.Label = m.Label
		}
		view.Caption = m.Caption
	}
	if !res.TargetDate.IsZero() {
		view.TargetDate = res.TargetDate.Format(forecast.DateLayout)
	}
	return view
}

// lookupModel finds the registry entry for kind, accepting aliases.
func lookupModel(reg *config.ModelsConfig, kind predict.Kind) *config.ModelConfig {
	if reg == nil {
		return nil
	}
	for i := range reg.Models {
		if k, err := predict.ParseKind(reg.Models[i].Kind); err == nil && k == kind {
			return &reg.Models[i]
		}
	}
	return nil
}

func failureMessage(err error) string {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return "Invalid input: " + verrs.Error()
	}
	return err.Error()
}
