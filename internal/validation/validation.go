package validation

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"salesforecast/internal/features"
)

// DatePattern is the accepted format for an explicit "today" override.
var DatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// FieldError reports one out-of-range input.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Errors collects every invalid field of one submission.
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Error()
	}
	return strings.Join(msgs, "; ")
}

// ValidateInputs checks in against the ranges the form widgets allow.
// It returns nil or an Errors value listing each offending field.
func ValidateInputs(in features.Inputs) error {
	var errs Errors

	checkFlag := func(field string, v int) {
		if v != 0 && v != 1 {
			errs = append(errs, FieldError{field, "must be 0 or 1"})
		}
	}
	checkRange := func(field string, v, lo, hi int) {
		if v < lo || v > hi {
			errs = append(errs, FieldError{field, fmt.Sprintf("must be between %d and %d", lo, hi)})
		}
	}
	checkFinite := func(field string, v float64) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			errs = append(errs, FieldError{field, "must be a finite number"})
		}
	}

	checkFlag("holiday_flag", in.HolidayFlag)
	checkFinite("temperature", in.Temperature)
	checkFinite("fuel_price", in.FuelPrice)
	checkFinite("cpi", in.CPI)
	checkFinite("unemployment", in.Unemployment)
	checkRange("year", in.Year, 1, 9999)
	checkRange("month", in.Month, 1, 12)
	checkRange("week", in.Week, 1, 52)
	checkRange("day", in.Day, 1, 31)
	checkRange("day_of_week", in.DayOfWeek, 0, 6)
	checkFlag("is_weekend", in.IsWeekend)

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidateDate checks an optional YYYY-MM-DD override.
func ValidateDate(s string) bool {
	return s == "" || DatePattern.MatchString(s)
}
