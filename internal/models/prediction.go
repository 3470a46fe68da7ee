package models

import (
	"time"

	"github.com/google/uuid"

	"salesforecast/internal/features"
)

// Prediction outcome constants. Failed requests carry the dispatcher's
// error kind as their outcome.
const (
	OutcomeSuccess = "success"
)

// Prediction is one recorded prediction request.
type Prediction struct {
	ID           uuid.UUID       `json:"id"`
	Model        string          `json:"model"`
	Outcome      string          `json:"outcome"`
	Estimate     *float64        `json:"estimate,omitempty"`
	Lower        *float64        `json:"lower,omitempty"`
	Upper        *float64        `json:"upper,omitempty"`
	TargetDate   *time.Time      `json:"target_date,omitempty"`
	Inputs       features.Inputs `json:"inputs"`
	ErrorMessage *string         `json:"error_message,omitempty"`
	UserEmail    *string         `json:"user_email,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Succeeded reports whether the request produced a result.
func (p *Prediction) Succeeded() bool {
	return p.Outcome == OutcomeSuccess
}
