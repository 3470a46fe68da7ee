// Package features assembles the single-row feature records consumed by the
// forecast models.
package features

import (
	"time"
)

// MonthNames is the fixed calendar order used for the MonthName_* columns.
var MonthNames = [12]string{
	"January", "February", "March", "April", "May", "June", "July", "August",
	"September", "October", "November", "December",
}

// LagPlaceholder is the value every Weekly_Sales_lag* column carries.
// No sales history is looked up, so lags are always zero.
const LagPlaceholder = 0.0

// Inputs holds the base scalar values a user supplies on the form.
type Inputs struct {
	HolidayFlag  int     `json:"holiday_flag" form:"holiday_flag"`
	Temperature  float64 `json:"temperature" form:"temperature"`
	FuelPrice    float64 `json:"fuel_price" form:"fuel_price"`
	CPI          float64 `json:"cpi" form:"cpi"`
	Unemployment float64 `json:"unemployment" form:"unemployment"`
	Year         int     `json:"year" form:"year"`
	Month        int     `json:"month" form:"month"`
	Week         int     `json:"week" form:"week"`
	Day          int     `json:"day" form:"day"`
	DayOfWeek    int     `json:"day_of_week" form:"day_of_week"`
	IsWeekend    int     `json:"is_weekend" form:"is_weekend"`
}

// DefaultInputs returns the values the form is pre-filled with at now.
func DefaultInputs(now time.Time) Inputs {
	_, week := now.ISOWeek()
	if week > 52 {
		week = 52
	}
	return Inputs{
		HolidayFlag:  0,
		Temperature:  70.0,
		FuelPrice:    2.5,
		CPI:          220.0,
		Unemployment: 7.5,
		Year:         now.Year(),
		Month:        int(now.Month()),
		Week:         week,
		Day:          now.Day(),
		DayOfWeek:    Weekday(now),
		IsWeekend:    0,
	}
}

// MonthOneHot is the one-hot encoding of a month number, January first.
type MonthOneHot [12]int

// OneHotMonth encodes month (1-12). Out of range months encode to all zeros;
// callers validate the range beforehand.
func OneHotMonth(month int) MonthOneHot {
	var oh MonthOneHot
	if month < 1 || month > len(MonthNames) {
		return oh
	}
	chosen := MonthNames[month-1]
	for i, name := range MonthNames {
		if name == chosen {
			oh[i] = 1
		}
	}
	return oh
}

// Weekday returns the day of week with Monday=0 and Sunday=6.
func Weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// NextWeekEnd returns the end-of-week date (Sunday) on or after today.
// A Sunday maps to itself.
func NextWeekEnd(today time.Time) time.Time {
	return today.AddDate(0, 0, 6-Weekday(today))
}

// EnsembleRecord is one row in the tree ensemble's schema.
type EnsembleRecord struct {
	Inputs
	Months MonthOneHot
	Lag1   float64
	Lag2   float64
	Lag3   float64
}

// Values returns the row in EnsembleColumns order.
func (r EnsembleRecord) Values() []float64 {
	vals := make([]float64, 0, len(ensembleColumns))
	vals = append(vals, r.baseValues()...)
	vals = append(vals, r.Months.values()...)
	return append(vals, r.Lag1, r.Lag2, r.Lag3)
}

// RegressorRecord is one future row in the time-series model's schema.
type RegressorRecord struct {
	Date time.Time
	Inputs
	Months MonthOneHot
}

// Values returns the regressors in RegressorColumns order. Date is not
// included.
func (r RegressorRecord) Values() []float64 {
	vals := make([]float64, 0, len(regressorColumns))
	vals = append(vals, r.baseValues()...)
	return append(vals, r.Months.values()...)
}

// Record carries both schema variants built from one set of inputs.
type Record struct {
	Ensemble  EnsembleRecord
	Regressor RegressorRecord
}

// Assemble builds the feature records for in. today fixes the forecast
// target date so assembly is deterministic.
func Assemble(in Inputs, today time.Time) Record {
	months := OneHotMonth(in.Month)
	return Record{
		Ensemble: EnsembleRecord{
			Inputs: in,
			Months: months,
			Lag1:   LagPlaceholder,
			Lag2:   LagPlaceholder,
			Lag3:   LagPlaceholder,
		},
		Regressor: RegressorRecord{
			Date:   NextWeekEnd(today),
			Inputs: in,
			Months: months,
		},
	}
}

func (in Inputs) baseValues() []float64 {
	return []float64{
		float64(in.HolidayFlag),
		in.Temperature,
		in.FuelPrice,
		in.CPI,
		in.Unemployment,
		float64(in.Year),
		float64(in.Month),
		float64(in.Week),
		float64(in.Day),
		float64(in.DayOfWeek),
		float64(in.IsWeekend),
	}
}

func (oh MonthOneHot) values() []float64 {
	vals := make([]float64, len(oh))
	for i, v := range oh {
		vals[i] = float64(v)
	}
	return vals
}
