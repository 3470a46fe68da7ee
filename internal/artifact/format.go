package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"salesforecast/internal/forest"
	"salesforecast/internal/timeseries"
)

// Format discriminators carried in every artifact document.
const (
	FormatTreeEnsemble = "tree-ensemble/v1"
	FormatAdditiveTS   = "additive-ts/v1"
)

type header struct {
	Format string `json:"format"`
}

// TreeEnsembleDoc is the on-disk form of a fitted tree ensemble.
type TreeEnsembleDoc struct {
	Format       string    `json:"format"`
	FeatureNames []string  `json:"feature_names"`
	Estimators   []TreeDoc `json:"estimators"`
}

// TreeDoc holds one tree's node arrays.
type TreeDoc struct {
	ChildrenLeft  []int     `json:"children_left"`
	ChildrenRight []int     `json:"children_right"`
	Feature       []int     `json:"feature"`
	Threshold     []float64 `json:"threshold"`
	Value         []float64 `json:"value"`
}

// AdditiveTSDoc is the on-disk form of a fitted additive time-series model.
type AdditiveTSDoc struct {
	Format        string           `json:"format"`
	Start         time.Time        `json:"start"`
	TScaleDays    float64          `json:"t_scale_days"`
	YScale        float64          `json:"y_scale"`
	K             float64          `json:"k"`
	M             float64          `json:"m"`
	Changepoints  []float64        `json:"changepoints_t"`
	Delta         []float64        `json:"delta"`
	Seasonalities []SeasonalityDoc `json:"seasonalities"`
	Regressors    []RegressorDoc   `json:"regressors"`
	SigmaObs      float64          `json:"sigma_obs"`
	IntervalWidth float64          `json:"interval_width"`
}

// SeasonalityDoc is one Fourier component.
type SeasonalityDoc struct {
	Name         string    `json:"name"`
	PeriodDays   float64   `json:"period_days"`
	FourierOrder int       `json:"fourier_order"`
	Beta         []float64 `json:"beta"`
}

// RegressorDoc is one standardized extra regressor.
type RegressorDoc struct {
	Name string  `json:"name"`
	Mu   float64 `json:"mu"`
	Std  float64 `json:"std"`
	Beta float64 `json:"beta"`
}

// LoadForest reads and decodes a tree ensemble from uri.
func LoadForest(ctx context.Context, store Store, uri string) (*forest.Forest, error) {
	var doc TreeEnsembleDoc
	if err := load(ctx, store, uri, FormatTreeEnsemble, &doc); err != nil {
		return nil, err
	}
	return DecodeForest(doc)
}

// DecodeForest validates doc and builds the ensemble.
func DecodeForest(doc TreeEnsembleDoc) (*forest.Forest, error) {
	trees := make([]*forest.Tree, len(doc.Estimators))
	for i, t := range doc.Estimators {
		trees[i] = &forest.Tree{
			ChildrenLeft:  t.ChildrenLeft,
			ChildrenRight: t.ChildrenRight,
			Feature:       t.Feature,
			Threshold:     t.Threshold,
			Value:         t.Value,
		}
	}
	f, err := forest.New(doc.FeatureNames, trees)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return f, nil
}

// LoadTimeSeries reads and decodes an additive time-series model from uri.
func LoadTimeSeries(ctx context.Context, store Store, uri string) (*timeseries.Model, error) {
	var doc AdditiveTSDoc
	if err := load(ctx, store, uri, FormatAdditiveTS, &doc); err != nil {
		return nil, err
	}
	return DecodeTimeSeries(doc)
}

// DecodeTimeSeries validates doc and builds the model.
func DecodeTimeSeries(doc AdditiveTSDoc) (*timeseries.Model, error) {
	m := &timeseries.Model{
		Start:         doc.Start,
		TScaleDays:    doc.TScaleDays,
		YScale:        doc.YScale,
		K:             doc.K,
		M:             doc.M,
		Changepoints:  doc.Changepoints,
		Delta:         doc.Delta,
		SigmaObs:      doc.SigmaObs,
		IntervalWidth: doc.IntervalWidth,
	}
	for _, s := range doc.Seasonalities {
		m.Seasonalities = append(m.Seasonalities, timeseries.Seasonality{
			Name:         s.Name,
			PeriodDays:   s.PeriodDays,
			FourierOrder: s.FourierOrder,
			Beta:         s.Beta,
		})
	}
	for _, r := range doc.Regressors {
		m.Regressors = append(m.Regressors, timeseries.Regressor{
			Name: r.Name,
			Mu:   r.Mu,
			Std:  r.Std,
			Beta: r.Beta,
		})
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return m, nil
}

func load(ctx context.Context, store Store, uri, format string, out any) error {
	data, err := store.Open(ctx, uri)
	if err != nil {
		return err
	}

	var h header
	if err := json.Unmarshal(data, &h); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCorrupt, uri, err)
	}
	if h.Format != format {
		return fmt.Errorf("%w: %s has format %q, want %q", ErrFormat, uri, h.Format, format)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCorrupt, uri, err)
	}
	return nil
}
