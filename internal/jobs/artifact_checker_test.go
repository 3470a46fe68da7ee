package jobs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesforecast/internal/artifact"
	"salesforecast/internal/metrics"
	"salesforecast/internal/predict"
	tu "salesforecast/internal/testutil"
)

type alertLog struct {
	events []string
}

func (a *alertLog) ArtifactUnavailable(kind predict.Kind, uri string, cause error) {
	a.events = append(a.events, "down:"+string(kind))
}

func (a *alertLog) ArtifactRecovered(kind predict.Kind, uri string) {
	a.events = append(a.events, "up:"+string(kind))
}

func TestArtifactChecker_CheckAll(t *testing.T) {
	dir := t.TempDir()
	present := tu.WriteArtifact(t, dir, "rf.json", tu.EnsembleDoc(1, 2))
	missing := filepath.Join(dir, "ts.json")

	checker := NewArtifactChecker(artifact.LocalStore{}, map[predict.Kind]string{
		predict.KindEnsemble:   present,
		predict.KindTimeSeries: missing,
	}, time.Minute)
	alerts := &alertLog{}
	checker.WithAlerter(alerts)

	checker.CheckAll(context.Background())
	// unchanged state does not alert twice
	checker.CheckAll(context.Background())

	status := checker.Status()
	require.Len(t, status, 2)
	assert.NoError(t, status[predict.KindEnsemble])
	assert.ErrorIs(t, status[predict.KindTimeSeries], artifact.ErrNotFound)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ArtifactAvailable.WithLabelValues("ensemble", present)))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.ArtifactAvailable.WithLabelValues("time-series", missing)))

	// the artifact appearing later flips the gauge on the next pass
	tu.WriteArtifact(t, dir, "ts.json", tu.TimeSeriesDoc())
	checker.CheckAll(context.Background())

	assert.NoError(t, checker.Status()[predict.KindTimeSeries])
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ArtifactAvailable.WithLabelValues("time-series", missing)))

	require.NoError(t, os.Remove(present))
	checker.CheckAll(context.Background())
	assert.Error(t, checker.Status()[predict.KindEnsemble])

	assert.Equal(t, []string{"down:time-series", "up:time-series", "down:ensemble"}, alerts.events)
}

func TestArtifactChecker_StopsOnCancel(t *testing.T) {
	checker := NewArtifactChecker(artifact.LocalStore{}, map[predict.Kind]string{
		predict.KindEnsemble: filepath.Join(t.TempDir(), "rf.json"),
	}, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		checker.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(checker.Status()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
