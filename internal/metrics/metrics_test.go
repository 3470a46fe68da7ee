package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"salesforecast/internal/models"
)

type fakeStore struct {
	mu       sync.Mutex
	inserted []*models.Prediction
	counts   map[[2]string]int64
	err      error
}

func (f *fakeStore) InsertPrediction(ctx context.Context, p *models.Prediction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.inserted = append(f.inserted, p)
	return nil
}

func (f *fakeStore) CountPredictionsByOutcome(ctx context.Context) (map[[2]string]int64, error) {
	return f.counts, f.err
}

func TestHistoryCollector(t *testing.T) {
	store := &fakeStore{counts: map[[2]string]int64{
		{"ensemble", "success"}:          3,
		{"time-series", "artifact_load"}: 1,
	}}

	expected := `
# HELP salesforecast_history_predictions Recorded predictions in the history table by model kind and outcome
# TYPE salesforecast_history_predictions gauge
salesforecast_history_predictions{model="ensemble",outcome="success"} 3
salesforecast_history_predictions{model="time-series",outcome="artifact_load"} 1
`
	if err := testutil.CollectAndCompare(NewHistoryCollector(store), strings.NewReader(expected)); err != nil {
		t.Error(err)
	}
}

func TestHistoryCollector_StoreError(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	if n := testutil.CollectAndCount(NewHistoryCollector(store)); n != 0 {
		t.Errorf("CollectAndCount() = %d, want 0 on store error", n)
	}
}

func TestObserve(t *testing.T) {
	before := testutil.ToFloat64(PredictionsTotal.WithLabelValues("ensemble", "success"))
	Observe("ensemble", "success", 15*time.Millisecond)
	Observe("ensemble", "success", 20*time.Millisecond)

	if got := testutil.ToFloat64(PredictionsTotal.WithLabelValues("ensemble", "success")); got != before+2 {
		t.Errorf("predictions_total = %v, want %v", got, before+2)
	}
	if n := testutil.CollectAndCount(PredictionDuration); n == 0 {
		t.Error("expected duration histogram series")
	}
}

func TestRecorder(t *testing.T) {
	store := &fakeStore{}
	r := NewRecorder(store, time.Second)

	r.Record(&models.Prediction{Model: "ensemble", Outcome: models.OutcomeSuccess})
	r.Record(&models.Prediction{Model: "time-series", Outcome: "prediction"})
	r.Wait()

	if len(store.inserted) != 2 {
		t.Errorf("inserted %d predictions, want 2", len(store.inserted))
	}
}

func TestRecorder_ErrorsAreSwallowed(t *testing.T) {
	r := NewRecorder(&fakeStore{err: errors.New("disk full")}, time.Second)
	r.Record(&models.Prediction{Model: "ensemble"})
	r.Wait()
}

func TestRecorder_Nil(t *testing.T) {
	var r *Recorder
	r.Record(&models.Prediction{})
	r.Wait()
}
