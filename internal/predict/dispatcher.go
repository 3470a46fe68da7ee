// Package predict dispatches an assembled feature record to the selected
// pre-trained model and reduces its output to an estimate and interval.
package predict

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"salesforecast/internal/artifact"
	"salesforecast/internal/features"
	"salesforecast/internal/forest"
	"salesforecast/internal/timeseries"
)

// Kind selects which model serves a request.
type Kind string

const (
	KindEnsemble   Kind = "ensemble"
	KindTimeSeries Kind = "time-series"
)

// Interval notes shown next to each model's result.
const (
	EnsembleIntervalNote   = "This interval reflects model uncertainty from tree variation (not full predictive uncertainty), so treat with care."
	TimeSeriesIntervalNote = "The time-series interval is an approximate coverage interval for model and noise uncertainty."
)

// FallbackIntervalLabel is used when a model does not report its coverage.
const FallbackIntervalLabel = "Interval"

// IntervalLabel names an interval by its nominal coverage, e.g. 0.8 gives
// "80% interval". Coverage outside (0, 1) yields FallbackIntervalLabel.
func IntervalLabel(coverage float64) string {
	if !(coverage > 0 && coverage < 1) {
		return FallbackIntervalLabel
	}
	pct := math.Round(coverage*1000) / 10
	return strconv.FormatFloat(pct, 'f', -1, 64) + "% interval"
}

// Kinds lists the supported model kinds in display order.
func Kinds() []Kind {
	return []Kind{KindEnsemble, KindTimeSeries}
}

// ParseKind maps a selector string to a Kind. Display aliases are accepted.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ensemble", "random-forest", "random_forest", "rf":
		return KindEnsemble, nil
	case "time-series", "timeseries", "time_series", "prophet", "ts":
		return KindTimeSeries, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownModel, s)
}

// Label returns the default display name of k.
func (k Kind) Label() string {
	switch k {
	case KindEnsemble:
		return "Random Forest"
	case KindTimeSeries:
		return "Time Series"
	}
	return string(k)
}

// Result is a point estimate with its interval. IntervalLabel states the
// interval's nominal coverage.
type Result struct {
	Model         Kind      `json:"model"`
	Estimate      float64   `json:"estimate"`
	Lower         float64   `json:"lower"`
	Upper         float64   `json:"upper"`
	TargetDate    time.Time `json:"target_date,omitzero"`
	Members       int       `json:"members,omitempty"`
	IntervalLabel string    `json:"interval_label"`
	IntervalNote  string    `json:"interval_note"`
}

// EnsembleModel exposes each member of a fitted ensemble.
type EnsembleModel interface {
	Features() []string
	NumMembers() int
	PredictMember(i int, x []float64) (float64, error)
}

// ForecastModel produces a forecast, with its own interval, per frame row.
type ForecastModel interface {
	Forecast(f timeseries.Frame) ([]timeseries.Point, error)
}

// coverageReporter is implemented by forecast models that know the nominal
// coverage of their interval.
type coverageReporter interface {
	Coverage() float64
}

// Loader loads a fresh model from uri. Models are never cached.
type Loader interface {
	LoadEnsemble(ctx context.Context, uri string) (EnsembleModel, error)
	LoadForecast(ctx context.Context, uri string) (ForecastModel, error)
}

// StoreLoader loads models from an artifact store.
type StoreLoader struct {
	Store artifact.Store
}

// NewLoader returns a Loader reading artifacts from store.
func NewLoader(store artifact.Store) *StoreLoader {
	return &StoreLoader{Store: store}
}

// LoadEnsemble implements Loader.
func (l *StoreLoader) LoadEnsemble(ctx context.Context, uri string) (EnsembleModel, error) {
	f, err := artifact.LoadForest(ctx, l.Store, uri)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// LoadForecast implements Loader.
func (l *StoreLoader) LoadForecast(ctx context.Context, uri string) (ForecastModel, error) {
	m, err := artifact.LoadTimeSeries(ctx, l.Store, uri)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Dispatcher routes prediction requests by model kind.
type Dispatcher struct {
	loader Loader
	paths  map[Kind]string
	logger zerolog.Logger
}

// New creates a dispatcher loading each kind's artifact from paths.
func New(loader Loader, paths map[Kind]string) *Dispatcher {
	p := make(map[Kind]string, len(paths))
	for k, v := range paths {
		p[k] = v
	}
	return &Dispatcher{
		loader: loader,
		paths:  p,
		logger: log.With().Str("component", "dispatcher").Logger(),
	}
}

// Predict runs one stateless prediction. Any failure is returned as *Error
// and no Result is produced.
func (d *Dispatcher) Predict(ctx context.Context, kind Kind, rec features.Record) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{}
			err = &Error{Kind: Prediction, Model: kind, Err: fmt.Errorf("model panicked: %v", r)}
		}
		if err != nil {
			d.logger.Warn().Err(err).Str("model", string(kind)).Msg("prediction failed")
		}
	}()

	uri := d.paths[kind]
	switch kind {
	case KindEnsemble, KindTimeSeries:
		if uri == "" {
			return Result{}, &Error{Kind: ArtifactLoad, Model: kind, Err: errors.New("no artifact path configured")}
		}
	default:
		return Result{}, &Error{Kind: ArtifactLoad, Model: kind, Err: fmt.Errorf("%w: %q", ErrUnknownModel, kind)}
	}

	start := time.Now()
	if kind == KindEnsemble {
		res, err = d.predictEnsemble(ctx, uri, rec.Ensemble)
	} else {
		res, err = d.predictTimeSeries(ctx, uri, rec.Regressor)
	}
	if err != nil {
		return Result{}, err
	}

	if !finite(res.Estimate) || !finite(res.Lower) || !finite(res.Upper) {
		return Result{}, &Error{Kind: Prediction, Model: kind, Err: fmt.Errorf("non-finite output (estimate=%v lower=%v upper=%v)", res.Estimate, res.Lower, res.Upper)}
	}

	d.logger.Debug().
		Str("model", string(kind)).
		Float64("estimate", res.Estimate).
		Dur("took", time.Since(start)).
		Msg("prediction complete")
	return res, nil
}

func (d *Dispatcher) predictEnsemble(ctx context.Context, uri string, rec features.EnsembleRecord) (Result, error) {
	model, err := d.loader.LoadEnsemble(ctx, uri)
	if err != nil {
		return Result{}, &Error{Kind: ArtifactLoad, Model: KindEnsemble, Err: err}
	}

	if err := matchColumns(model.Features(), features.EnsembleColumns()); err != nil {
		return Result{}, &Error{Kind: SchemaMismatch, Model: KindEnsemble, Err: err}
	}

	n := model.NumMembers()
	if n == 0 {
		return Result{}, &Error{Kind: Prediction, Model: KindEnsemble, Err: errors.New("ensemble has no members")}
	}

	row := rec.Values()
	members := make([]float64, n)
	for i := 0; i < n; i++ {
		v, err := model.PredictMember(i, row)
		if err != nil {
			if errors.Is(err, forest.ErrFeatureCount) {
				return Result{}, &Error{Kind: SchemaMismatch, Model: KindEnsemble, Err: err}
			}
			return Result{}, &Error{Kind: Prediction, Model: KindEnsemble, Err: fmt.Errorf("member %d: %w", i, err)}
		}
		members[i] = v
	}

	estimate, lower, upper := Summarize(members)
	return Result{
		Model:        KindEnsemble,
		Estimate:     estimate,
		Lower:        lower,
		Upper:        upper,
		Members:       n,
		IntervalLabel: IntervalLabel((UpperPercentile - LowerPercentile) / 100),
		IntervalNote:  EnsembleIntervalNote,
	}, nil
}

func (d *Dispatcher) predictTimeSeries(ctx context.Context, uri string, rec features.RegressorRecord) (Result, error) {
	model, err := d.loader.LoadForecast(ctx, uri)
	if err != nil {
		return Result{}, &Error{Kind: ArtifactLoad, Model: KindTimeSeries, Err: err}
	}

	frame := timeseries.Frame{
		Columns: features.RegressorColumns(),
		Rows:    []timeseries.FrameRow{{DS: rec.Date, Values: rec.Values()}},
	}
	points, err := model.Forecast(frame)
	if err != nil {
		if errors.Is(err, timeseries.ErrMissingRegressor) {
			return Result{}, &Error{Kind: SchemaMismatch, Model: KindTimeSeries, Err: err}
		}
		return Result{}, &Error{Kind: Prediction, Model: KindTimeSeries, Err: err}
	}
	if len(points) != 1 {
		return Result{}, &Error{Kind: Prediction, Model: KindTimeSeries, Err: fmt.Errorf("forecast returned %d rows for 1 input row", len(points))}
	}

	label := FallbackIntervalLabel
	if cr, ok := model.(coverageReporter); ok {
		label = IntervalLabel(cr.Coverage())
	}

	p := points[0]
	return Result{
		Model:         KindTimeSeries,
		Estimate:      p.Yhat,
		Lower:         p.YhatLower,
		Upper:         p.YhatUpper,
		TargetDate:    rec.Date,
		IntervalLabel: label,
		IntervalNote:  TimeSeriesIntervalNote,
	}, nil
}

// matchColumns requires got to equal want exactly, including order.
func matchColumns(got, want []string) error {
	if len(got) != len(want) {
		return fmt.Errorf("artifact expects %d columns, record has %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			return fmt.Errorf("column %d: artifact expects %q, record has %q", i, got[i], want[i])
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
