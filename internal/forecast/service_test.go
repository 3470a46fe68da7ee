package forecast

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesforecast/internal/features"
	"salesforecast/internal/metrics"
	"salesforecast/internal/models"
	"salesforecast/internal/predict"
	"salesforecast/internal/validation"
)

type stubPredictor struct {
	res   predict.Result
	err   error
	calls int
	rec   features.Record
}

func (s *stubPredictor) Predict(ctx context.Context, kind predict.Kind, rec features.Record) (predict.Result, error) {
	s.calls++
	s.rec = rec
	return s.res, s.err
}

type memoryStore struct {
	mu    sync.Mutex
	saved []*models.Prediction
}

func (m *memoryStore) InsertPrediction(ctx context.Context, p *models.Prediction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, p)
	return nil
}

func (m *memoryStore) CountPredictionsByOutcome(ctx context.Context) (map[[2]string]int64, error) {
	return nil, nil
}

var today = time.Date(2024, time.June, 12, 9, 0, 0, 0, time.UTC)

func TestService_Success(t *testing.T) {
	target := time.Date(2024, time.June, 16, 9, 0, 0, 0, time.UTC)
	predictor := &stubPredictor{res: predict.Result{
		Model: predict.KindTimeSeries, Estimate: 10, Lower: 8, Upper: 12, TargetDate: target,
	}}
	store := &memoryStore{}
	recorder := metrics.NewRecorder(store, time.Second)
	svc := NewService(predictor, recorder)

	in := features.DefaultInputs(today)
	res, id, err := svc.Run(context.Background(), Request{
		Kind:   predict.KindTimeSeries,
		Inputs: in,
		Today:  today,
		User:   &models.User{Sub: "s", Email: "bob@example.com"},
	})
	require.NoError(t, err)
	recorder.Wait()

	assert.Equal(t, 10.0, res.Estimate)
	assert.NotEqual(t, uuid.Nil, id)
	assert.Equal(t, features.Assemble(in, today), predictor.rec)

	require.Len(t, store.saved, 1)
	p := store.saved[0]
	assert.Equal(t, id, p.ID)
	assert.Equal(t, models.OutcomeSuccess, p.Outcome)
	assert.Equal(t, 12.0, *p.Upper)
	assert.Equal(t, target, *p.TargetDate)
	assert.Equal(t, "bob@example.com", *p.UserEmail)
	assert.Nil(t, p.ErrorMessage)
}

func TestService_DispatcherFailure(t *testing.T) {
	perr := &predict.Error{Kind: predict.SchemaMismatch, Model: predict.KindEnsemble, Err: errors.New("columns differ")}
	store := &memoryStore{}
	recorder := metrics.NewRecorder(store, time.Second)
	svc := NewService(&stubPredictor{err: perr}, recorder)

	_, id, err := svc.Run(context.Background(), Request{
		Kind:   predict.KindEnsemble,
		Inputs: features.DefaultInputs(today),
		Today:  today,
	})
	require.ErrorIs(t, err, perr)
	recorder.Wait()

	assert.NotEqual(t, uuid.Nil, id)
	require.Len(t, store.saved, 1)
	p := store.saved[0]
	assert.Equal(t, string(predict.SchemaMismatch), p.Outcome)
	assert.Nil(t, p.Estimate)
	assert.Nil(t, p.UserEmail)
	require.NotNil(t, p.ErrorMessage)
	assert.Contains(t, *p.ErrorMessage, "Random Forest")
}

func TestService_InvalidInputsNeverReachModel(t *testing.T) {
	predictor := &stubPredictor{}
	store := &memoryStore{}
	recorder := metrics.NewRecorder(store, time.Second)
	svc := NewService(predictor, recorder)

	in := features.DefaultInputs(today)
	in.Month = 13

	_, id, err := svc.Run(context.Background(), Request{Kind: predict.KindEnsemble, Inputs: in, Today: today})
	recorder.Wait()

	var verrs validation.Errors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, uuid.Nil, id)
	assert.Zero(t, predictor.calls)
	assert.Empty(t, store.saved)
}

func TestService_NilRecorder(t *testing.T) {
	svc := NewService(&stubPredictor{res: predict.Result{Estimate: 1}}, nil)
	res, _, err := svc.Run(context.Background(), Request{
		Kind:   predict.KindEnsemble,
		Inputs: features.DefaultInputs(today),
		Today:  today,
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Estimate)
}
