package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"salesforecast/internal/config"
	"salesforecast/internal/features"
	"salesforecast/internal/forecast"
	"salesforecast/internal/models"
	"salesforecast/internal/predict"
	"salesforecast/internal/validation"
)

type predictOptions struct {
	model          string
	today          string
	ensemblePath   string
	timeSeriesPath string
	in             features.Inputs
}

func newPredictCmd(c *cli) *cobra.Command {
	opts := &predictOptions{}

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict sales for the week containing --today",
		Example: `  forecast predict --model ensemble --temperature 64 --holiday 1
  forecast predict --model time-series --today 2024-06-12 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPredict(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.model, "model", "m", "ensemble", "model kind: ensemble or time-series")
	f.StringVar(&opts.today, "today", "", "reference date YYYY-MM-DD (default: now)")
	f.StringVar(&opts.ensemblePath, "ensemble-model", "", "tree ensemble artifact (overrides ENSEMBLE_MODEL_PATH)")
	f.StringVar(&opts.timeSeriesPath, "timeseries-model", "", "time-series artifact (overrides TIMESERIES_MODEL_PATH)")

	f.IntVar(&opts.in.HolidayFlag, "holiday", 0, "holiday week flag (0 or 1)")
	f.Float64Var(&opts.in.Temperature, "temperature", 0, "average temperature (default 70)")
	f.Float64Var(&opts.in.FuelPrice, "fuel-price", 0, "fuel price (default 2.5)")
	f.Float64Var(&opts.in.CPI, "cpi", 0, "consumer price index (default 220)")
	f.Float64Var(&opts.in.Unemployment, "unemployment", 0, "unemployment rate (default 7.5)")
	f.IntVar(&opts.in.Year, "year", 0, "year (default from --today)")
	f.IntVar(&opts.in.Month, "month", 0, "month 1-12 (default from --today)")
	f.IntVar(&opts.in.Week, "week", 0, "week of year 1-52 (default from --today)")
	f.IntVar(&opts.in.Day, "day", 0, "day of month (default from --today)")
	f.IntVar(&opts.in.DayOfWeek, "day-of-week", 0, "day of week, 0 = Monday (default from --today)")
	f.IntVar(&opts.in.IsWeekend, "weekend", 0, "weekend flag (0 or 1)")

	return cmd
}

func (c *cli) runPredict(cmd *cobra.Command, opts *predictOptions) error {
	out := cmd.OutOrStdout()

	kind, err := predict.ParseKind(opts.model)
	if err != nil {
		return err
	}

	today := c.now()
	if opts.today != "" {
		if !validation.ValidateDate(opts.today) {
			return fmt.Errorf("--today must be formatted YYYY-MM-DD, got %q", opts.today)
		}
		if today, err = time.ParseInLocation(forecast.DateLayout, opts.today, time.Local); err != nil {
			return fmt.Errorf("--today: %w", err)
		}
	}
	applyInputDefaults(cmd, &opts.in, features.DefaultInputs(today))

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if opts.ensemblePath != "" {
		cfg.EnsembleModelPath = opts.ensemblePath
	}
	if opts.timeSeriesPath != "" {
		cfg.TimeSeriesModelPath = opts.timeSeriesPath
	}
	registry, err := config.LoadModelsConfig(cfg.ModelsFile)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	backend, err := forecast.NewBackend(ctx, cfg, registry)
	if err != nil {
		return err
	}

	svc := forecast.NewService(backend.Dispatcher, nil)
	res, id, err := svc.Run(ctx, forecast.Request{Kind: kind, Inputs: opts.in, Today: today})
	if err != nil {
		if c.jsonOut {
			writeJSONError(out, err)
		} else {
			fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Render(err.Error()))
		}
		cmd.SilenceErrors = true
		return err
	}

	if c.jsonOut {
		return writeJSONResult(out, id, res)
	}
	fmt.Fprintln(out, renderResult(res))
	return nil
}

// applyInputDefaults fills every input flag the user did not set from def.
func applyInputDefaults(cmd *cobra.Command, in *features.Inputs, def features.Inputs) {
	flags := cmd.Flags()
	ints := []struct {
		name string
		dst  *int
		def  int
	}{
		{"holiday", &in.HolidayFlag, def.HolidayFlag},
		{"year", &in.Year, def.Year},
		{"month", &in.Month, def.Month},
		{"week", &in.Week, def.Week},
		{"day", &in.Day, def.Day},
		{"day-of-week", &in.DayOfWeek, def.DayOfWeek},
		{"weekend", &in.IsWeekend, def.IsWeekend},
	}
	for _, f := range ints {
		if !flags.Changed(f.name) {
			*f.dst = f.def
		}
	}

	floats := []struct {
		name string
		dst  *float64
		def  float64
	}{
		{"temperature", &in.Temperature, def.Temperature},
		{"fuel-price", &in.FuelPrice, def.FuelPrice},
		{"cpi", &in.CPI, def.CPI},
		{"unemployment", &in.Unemployment, def.Unemployment},
	}
	for _, f := range floats {
		if !flags.Changed(f.name) {
			*f.dst = f.def
		}
	}
}

func renderResult(res predict.Result) string {
	lines := []string{
		titleStyle.Render(res.Model.Label() + " Prediction"),
		valueStyle.Render(forecast.FormatMoney(res.Estimate)),
	}
	if !res.TargetDate.IsZero() {
		lines = append(lines, mutedStyle.Render("Week ending "+res.TargetDate.Format(forecast.DateLayout)))
	}
	lines = append(lines,
		fmt.Sprintf("%s: %s to %s", res.IntervalLabel, forecast.FormatMoney(res.Lower), forecast.FormatMoney(res.Upper)),
	)
	if res.Members > 0 {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("Across %d trees.", res.Members)))
	}
	lines = append(lines, mutedStyle.Width(72).Render(res.IntervalNote))
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func writeJSONResult(w io.Writer, id uuid.UUID, res predict.Result) error {
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
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{"status": "ok", "data": resp})
}

func writeJSONError(w io.Writer, err error) {
	body := map[string]any{"status": "error", "error": err.Error()}
	if kind := predict.KindOf(err); kind != "" {
		body["kind"] = kind
	}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		body["kind"] = "invalid_input"
		body["fields"] = verrs
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(body)
}
