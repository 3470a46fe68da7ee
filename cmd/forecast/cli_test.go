package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesforecast/internal/models"
	"salesforecast/internal/testutil"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("MODELS_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestPredict_EnsembleJSON(t *testing.T) {
	dir := t.TempDir()
	rf := testutil.WriteArtifact(t, dir, "rf.json", testutil.EnsembleDoc(100, 200, 300, 400, 500))

	stdout, _, err := runCLI(t, "predict", "--model", "random-forest", "--ensemble-model", rf, "--today", "2024-06-10", "--json")
	require.NoError(t, err)

	var env struct {
		Status string                 `json:"status"`
		Data   models.PredictResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &env))
	assert.Equal(t, "ok", env.Status)
	assert.Equal(t, 300.0, env.Data.Estimate)
	assert.InDelta(t, 110, env.Data.Lower, 1e-9)
	assert.InDelta(t, 490, env.Data.Upper, 1e-9)
	assert.Equal(t, 5, env.Data.Members)
	assert.Equal(t, "95% interval", env.Data.IntervalLabel)
}

func TestPredict_TimeSeriesFormatted(t *testing.T) {
	dir := t.TempDir()
	ts := testutil.WriteArtifact(t, dir, "ts.json", testutil.TimeSeriesDoc())

	stdout, _, err := runCLI(t, "predict", "-m", "time-series", "--timeseries-model", ts, "--today", "2024-06-12", "--temperature", "70")
	require.NoError(t, err)

	for _, want := range []string{"Time Series Prediction", "$1,005,000.00", "Week ending 2024-06-16", "80% interval: $940,922.42 to $1,069,077.58"} {
		assert.Contains(t, stdout, want)
	}
	assert.NotContains(t, stdout, "95%")
}

func TestPredict_FlagsOverrideDefaults(t *testing.T) {
	dir := t.TempDir()
	ts := testutil.WriteArtifact(t, dir, "ts.json", testutil.TimeSeriesDoc())

	// holiday adds 0.1 of y_scale on top of the flat trend
	stdout, _, err := runCLI(t, "predict", "-m", "ts", "--timeseries-model", ts, "--today", "2024-06-12",
		"--holiday", "1", "--temperature", "60", "--json")
	require.NoError(t, err)

	var env struct {
		Data models.PredictResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &env))
	assert.InDelta(t, 1_100_000, env.Data.Estimate, 1e-6)
}

func TestPredict_Failures(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.json")

	stdout, _, err := runCLI(t, "predict", "--ensemble-model", missing, "--today", "2024-06-10", "--json")
	require.Error(t, err)

	var env map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &env))
	assert.Equal(t, "error", env["status"])
	assert.Equal(t, "artifact_load", env["kind"])

	_, stderr, err := runCLI(t, "predict", "--ensemble-model", missing, "--today", "2024-06-10")
	require.Error(t, err)
	assert.Contains(t, stderr, "Error loading the Random Forest model")

	_, _, err = runCLI(t, "predict", "--model", "arima")
	assert.Error(t, err)

	_, _, err = runCLI(t, "predict", "--today", "June 10")
	assert.Error(t, err)

	rf := testutil.WriteArtifact(t, dir, "rf.json", testutil.EnsembleDoc(1))
	stdout, _, err = runCLI(t, "predict", "--ensemble-model", rf, "--month", "13", "--json")
	require.Error(t, err)
	assert.Contains(t, stdout, "invalid_input")
}

func TestSchema(t *testing.T) {
	stdout, _, err := runCLI(t, "schema", "--json")
	require.NoError(t, err)

	var schema models.SchemaResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &schema))
	assert.Len(t, schema.Ensemble, 26)
	assert.Len(t, schema.TimeSeries, 23)

	stdout, _, err = runCLI(t, "schema")
	require.NoError(t, err)
	assert.True(t, strings.Contains(stdout, "Weekly_Sales_lag3"))
	assert.True(t, strings.Contains(stdout, "Ensemble (26)"))
}
