// Package timeseries evaluates fitted additive time-series models: a
// piecewise-linear trend, Fourier seasonalities and standardized extra
// regressors, with a symmetric observation-noise interval.
package timeseries

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// DefaultIntervalWidth is used when a model does not record one.
const DefaultIntervalWidth = 0.8

const day = 24 * time.Hour

var (
	ErrInvalidModel     = errors.New("invalid time-series model")
	ErrMissingRegressor = errors.New("missing regressor column")
	ErrEmptyFrame       = errors.New("forecast frame has no rows")
)

// Seasonality is one Fourier seasonal component. Beta holds the sin and cos
// coefficients interleaved, order by order.
type Seasonality struct {
	Name         string
	PeriodDays   float64
	FourierOrder int
	Beta         []float64
}

// Regressor is an extra regressor, standardized with Mu and Std before Beta
// is applied.
type Regressor struct {
	Name string
	Mu   float64
	Std  float64
	Beta float64
}

// Model holds the fitted parameters. Trend and component coefficients are
// in scaled units; YScale maps them back to the target's units.
type Model struct {
	Start         time.Time
	TScaleDays    float64
	YScale        float64
	K             float64
	M             float64
	Changepoints  []float64
	Delta         []float64
	Seasonalities []Seasonality
	Regressors    []Regressor
	SigmaObs      float64
	IntervalWidth float64
}

// Coverage returns the nominal coverage of the forecast interval, applying
// DefaultIntervalWidth when the model records none.
func (m *Model) Coverage() float64 {
	if m.IntervalWidth == 0 {
		return DefaultIntervalWidth
	}
	return m.IntervalWidth
}

// Frame is a table of future dates plus named regressor columns.
type Frame struct {
	Columns []string
	Rows    []FrameRow
}

// FrameRow is one future date with values aligned to Frame.Columns.
type FrameRow struct {
	DS     time.Time
	Values []float64
}

// Point is the forecast for one frame row.
type Point struct {
	DS        time.Time `json:"ds"`
	Trend     float64   `json:"trend"`
	Yhat      float64   `json:"yhat"`
	YhatLower float64   `json:"yhat_lower"`
	YhatUpper float64   `json:"yhat_upper"`
}

// Validate checks the parameters are usable for forecasting.
func (m *Model) Validate() error {
	if m.TScaleDays <= 0 {
		return fmt.Errorf("%w: t_scale_days must be positive", ErrInvalidModel)
	}
	if m.YScale == 0 {
		return fmt.Errorf("%w: y_scale must be non-zero", ErrInvalidModel)
	}
	if len(m.Changepoints) != len(m.Delta) {
		return fmt.Errorf("%w: %d changepoints but %d deltas", ErrInvalidModel, len(m.Changepoints), len(m.Delta))
	}
	if m.SigmaObs < 0 {
		return fmt.Errorf("%w: sigma_obs must not be negative", ErrInvalidModel)
	}
	if m.IntervalWidth < 0 || m.IntervalWidth >= 1 {
		return fmt.Errorf("%w: interval_width %v outside [0, 1)", ErrInvalidModel, m.IntervalWidth)
	}
	for _, s := range m.Seasonalities {
		if s.PeriodDays <= 0 || s.FourierOrder <= 0 {
			return fmt.Errorf("%w: seasonality %q needs positive period and order", ErrInvalidModel, s.Name)
		}
		if len(s.Beta) != 2*s.FourierOrder {
			return fmt.Errorf("%w: seasonality %q has %d coefficients, want %d", ErrInvalidModel, s.Name, len(s.Beta), 2*s.FourierOrder)
		}
	}
	seen := make(map[string]bool, len(m.Regressors))
	for _, r := range m.Regressors {
		if r.Name == "" {
			return fmt.Errorf("%w: regressor without a name", ErrInvalidModel)
		}
		if seen[r.Name] {
			return fmt.Errorf("%w: duplicate regressor %q", ErrInvalidModel, r.Name)
		}
		seen[r.Name] = true
		if r.Std == 0 {
			return fmt.Errorf("%w: regressor %q has zero std", ErrInvalidModel, r.Name)
		}
	}
	return nil
}

// RegressorNames returns the extra regressors the model expects.
func (m *Model) RegressorNames() []string {
	names := make([]string, len(m.Regressors))
	for i, r := range m.Regressors {
		names[i] = r.Name
	}
	return names
}

// Forecast returns one Point per frame row. Every model regressor must be
// present in the frame; extra columns are ignored.
func (m *Model) Forecast(f Frame) ([]Point, error) {
	if len(f.Rows) == 0 {
		return nil, ErrEmptyFrame
	}

	index := make(map[string]int, len(f.Columns))
	for i, c := range f.Columns {
		index[c] = i
	}
	cols := make([]int, len(m.Regressors))
	for i, r := range m.Regressors {
		j, ok := index[r.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingRegressor, r.Name)
		}
		cols[i] = j
	}

	width := m.Coverage()
	halfWidth := normalQuantile(width) * m.SigmaObs * math.Abs(m.YScale)

	points := make([]Point, len(f.Rows))
	for i, row := range f.Rows {
		if len(row.Values) != len(f.Columns) {
			return nil, fmt.Errorf("row %d has %d values for %d columns", i, len(row.Values), len(f.Columns))
		}

		trend := m.trend(row.DS)
		additive := m.seasonal(row.DS)
		for k, r := range m.Regressors {
			additive += (row.Values[cols[k]] - r.Mu) / r.Std * r.Beta
		}

		yhat := (trend + additive) * m.YScale
		points[i] = Point{
			DS:        row.DS,
			Trend:     trend * m.YScale,
			Yhat:      yhat,
			YhatLower: yhat - halfWidth,
			YhatUpper: yhat + halfWidth,
		}
	}
	return points, nil
}

// trend evaluates the piecewise-linear trend at ds in scaled units.
func (m *Model) trend(ds time.Time) float64 {
	t := float64(ds.Sub(m.Start)) / float64(day) / m.TScaleDays
	k, offset := m.K, m.M
	for j, cp := range m.Changepoints {
		if t >= cp {
			k += m.Delta[j]
			offset -= cp * m.Delta[j]
		}
	}
	return k*t + offset
}

// seasonal sums the Fourier terms, evaluated on days since the Unix epoch.
func (m *Model) seasonal(ds time.Time) float64 {
	days := float64(ds.UnixNano()) / float64(day)
	var sum float64
	for _, s := range m.Seasonalities {
		for n := 1; n <= s.FourierOrder; n++ {
			x := 2 * math.Pi * float64(n) * days / s.PeriodDays
			sum += s.Beta[2*(n-1)]*math.Sin(x) + s.Beta[2*(n-1)+1]*math.Cos(x)
		}
	}
	return sum
}

// normalQuantile returns z such that a centred normal interval of ±z
// covers width of the mass.
func normalQuantile(width float64) float64 {
	return math.Sqrt2 * math.Erfinv(width)
}
