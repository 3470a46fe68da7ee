package models

import (
	"time"

	"github.com/google/uuid"

	"salesforecast/internal/features"
)

// PredictRequest is the JSON body of POST /api/v1/predict.
type PredictRequest struct {
	Model  string          `json:"model"`
	Inputs features.Inputs `json:"inputs"`
	// Today overrides the server clock for the forecast target date
	// (YYYY-MM-DD). Optional.
	Today string `json:"today,omitempty"`
}

// PredictResponse is the data payload of a successful prediction.
type PredictResponse struct {
	ID            uuid.UUID  `json:"id"`
	Model         string     `json:"model"`
	Label         string     `json:"label"`
	Estimate      float64    `json:"estimate"`
	Lower         float64    `json:"lower"`
	Upper         float64    `json:"upper"`
	TargetDate    *time.Time `json:"target_date,omitempty"`
	Members       int        `json:"members,omitempty"`
	IntervalLabel string     `json:"interval_label"`
	IntervalNote  string     `json:"interval_note"`
}

// SchemaResponse lists the columns each model consumes.
type SchemaResponse struct {
	Ensemble   []string `json:"ensemble"`
	TimeSeries []string `json:"time_series"`
	DateColumn string   `json:"date_column"`
	MonthNames []string `json:"month_names"`
}
