package forecast

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"salesforecast/internal/features"
	"salesforecast/internal/metrics"
	"salesforecast/internal/models"
	"salesforecast/internal/predict"
	"salesforecast/internal/validation"
)

// OutcomeInvalidInput labels requests rejected before reaching a model.
const OutcomeInvalidInput = "invalid_input"

// Predictor produces a prediction for an assembled record.
type Predictor interface {
	Predict(ctx context.Context, kind predict.Kind, rec features.Record) (predict.Result, error)
}

// Request is one prediction submission from any surface.
type Request struct {
	Kind   predict.Kind
	Inputs features.Inputs
	// Today anchors the time-series target date.
	Today time.Time
	User  *models.User
}

// Service validates, assembles and dispatches prediction requests, then
// observes metrics and records history.
type Service struct {
	predictor Predictor
	recorder  *metrics.Recorder
}

// NewService creates a service. recorder may be nil to skip history.
func NewService(predictor Predictor, recorder *metrics.Recorder) *Service {
	return &Service{predictor: predictor, recorder: recorder}
}

// Run serves one request. Invalid inputs return validation.Errors;
// dispatcher failures return *predict.Error. The returned ID identifies the
// history record, and is returned even on dispatcher failure.
func (s *Service) Run(ctx context.Context, req Request) (predict.Result, uuid.UUID, error) {
	logger := log.With().Str("component", "forecast").Str("model", string(req.Kind)).Logger()

	if err := validation.ValidateInputs(req.Inputs); err != nil {
		metrics.Observe(string(req.Kind), OutcomeInvalidInput, 0)
		return predict.Result{}, uuid.Nil, err
	}

	rec := features.Assemble(req.Inputs, req.Today)

	start := time.Now()
	res, err := s.predictor.Predict(ctx, req.Kind, rec)
	elapsed := time.Since(start)

	id := uuid.New()
	p := &models.Prediction{
		ID:        id,
		Model:     string(req.Kind),
		Outcome:   models.OutcomeSuccess,
		Inputs:    req.Inputs,
		UserEmail: req.User.EmailPtr(),
	}

	if err != nil {
		p.Outcome = string(predict.KindOf(err))
		if p.Outcome == "" {
			p.Outcome = string(predict.Prediction)
		}
		msg := err.Error()
		p.ErrorMessage = &msg
		logger.Warn().Err(err).Str("outcome", p.Outcome).Dur("elapsed", elapsed).Msg("prediction failed")
	} else {
		p.Estimate, p.Lower, p.Upper = &res.Estimate, &res.Lower, &res.Upper
		if !res.TargetDate.IsZero() {
			target := res.TargetDate
			p.TargetDate = &target
		}
		logger.Debug().Float64("estimate", res.Estimate).Dur("elapsed", elapsed).Msg("prediction served")
	}

	metrics.Observe(p.Model, p.Outcome, elapsed)
	s.recorder.Record(p)

	return res, id, err
}
