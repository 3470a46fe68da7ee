package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesforecast/internal/artifact"
	"salesforecast/internal/db"
	"salesforecast/internal/features"
	"salesforecast/internal/forecast"
	"salesforecast/internal/models"
	"salesforecast/internal/predict"
	"salesforecast/internal/testutil"
	"salesforecast/internal/validation"
)

var monday = time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)

type envelope struct {
	Status string                  `json:"status"`
	Data   json.RawMessage         `json:"data"`
	Error  string                  `json:"error"`
	Kind   string                  `json:"kind"`
	Fields []validation.FieldError `json:"fields"`
}

func newAPIApp(t *testing.T, paths map[predict.Kind]string) *fiber.App {
	t.Helper()
	dispatcher := predict.New(predict.NewLoader(artifact.LocalStore{}), paths)
	h := NewForecastHandler(forecast.NewService(dispatcher, nil)).WithClock(func() time.Time { return monday })

	app := fiber.New()
	app.Post("/api/v1/predict", h.Predict)
	app.Get("/api/v1/schema", h.Schema)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(data))
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestPredict_Ensemble(t *testing.T) {
	dir := t.TempDir()
	app := newAPIApp(t, map[predict.Kind]string{
		predict.KindEnsemble: testutil.WriteArtifact(t, dir, "rf.json", testutil.EnsembleDoc(100, 200, 300, 400, 500)),
	})

	status, env := doJSON(t, app, "POST", "/api/v1/predict", models.PredictRequest{
		Model:  "random-forest",
		Inputs: features.DefaultInputs(monday),
	})
	require.Equal(t, fiber.StatusOK, status, env.Error)
	assert.Equal(t, "ok", env.Status)

	var resp models.PredictResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.NotEqual(t, uuid.Nil, resp.ID)
	assert.Equal(t, "ensemble", resp.Model)
	assert.Equal(t, "Random Forest", resp.Label)
	assert.Equal(t, 300.0, resp.Estimate)
	assert.InDelta(t, 110, resp.Lower, 1e-9)
	assert.InDelta(t, 490, resp.Upper, 1e-9)
	assert.Equal(t, 5, resp.Members)
	assert.Nil(t, resp.TargetDate)
}

func TestPredict_TimeSeriesWithTodayOverride(t *testing.T) {
	dir := t.TempDir()
	app := newAPIApp(t, map[predict.Kind]string{
		predict.KindTimeSeries: testutil.WriteArtifact(t, dir, "ts.json", testutil.TimeSeriesDoc()),
	})

	status, env := doJSON(t, app, "POST", "/api/v1/predict", models.PredictRequest{
		Model:  "time-series",
		Inputs: features.DefaultInputs(monday),
		Today:  "2024-06-13",
	})
	require.Equal(t, fiber.StatusOK, status, env.Error)

	var resp models.PredictResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.InDelta(t, 1_005_000, resp.Estimate, 1e-6)
	require.NotNil(t, resp.TargetDate)
	assert.Equal(t, "2024-06-16", resp.TargetDate.Format("2006-01-02"))
	assert.Zero(t, resp.Members)
}

func TestPredict_Failures(t *testing.T) {
	dir := t.TempDir()
	mismatched := testutil.TimeSeriesDoc()
	mismatched.Regressors = append(mismatched.Regressors, artifact.RegressorDoc{Name: "Store_Size", Std: 1})

	paths := map[predict.Kind]string{
		predict.KindEnsemble:   filepath.Join(dir, "missing.json"),
		predict.KindTimeSeries: testutil.WriteArtifact(t, dir, "ts.json", mismatched),
	}

	invalid := features.DefaultInputs(monday)
	invalid.Week = 53

	tests := []struct {
		name       string
		req        models.PredictRequest
		wantStatus int
		wantKind   string
	}{
		{"missing artifact", models.PredictRequest{Model: "ensemble", Inputs: features.DefaultInputs(monday)}, fiber.StatusServiceUnavailable, "artifact_load"},
		{"schema mismatch", models.PredictRequest{Model: "time-series", Inputs: features.DefaultInputs(monday)}, fiber.StatusUnprocessableEntity, "schema_mismatch"},
		{"invalid inputs", models.PredictRequest{Model: "ensemble", Inputs: invalid}, fiber.StatusBadRequest, "invalid_input"},
		{"unknown model", models.PredictRequest{Model: "arima", Inputs: features.DefaultInputs(monday)}, fiber.StatusBadRequest, ""},
		{"bad today", models.PredictRequest{Model: "ensemble", Inputs: features.DefaultInputs(monday), Today: "June 13"}, fiber.StatusBadRequest, ""},
	}

	app := newAPIApp(t, paths)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := doJSON(t, app, "POST", "/api/v1/predict", tt.req)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, "error", env.Status)
			assert.Equal(t, tt.wantKind, env.Kind)
			assert.NotEmpty(t, env.Error)
		})
	}
}

func TestPredict_InvalidInputsListFields(t *testing.T) {
	app := newAPIApp(t, map[predict.Kind]string{})

	in := features.DefaultInputs(monday)
	in.Month = 0
	in.DayOfWeek = 9
	_, env := doJSON(t, app, "POST", "/api/v1/predict", models.PredictRequest{Model: "ensemble", Inputs: in})

	require.Len(t, env.Fields, 2)
	assert.Equal(t, "month", env.Fields[0].Field)
	assert.Equal(t, "day_of_week", env.Fields[1].Field)
}

func TestSchema(t *testing.T) {
	app := newAPIApp(t, nil)

	status, env := doJSON(t, app, "GET", "/api/v1/schema", nil)
	require.Equal(t, fiber.StatusOK, status)

	var schema models.SchemaResponse
	require.NoError(t, json.Unmarshal(env.Data, &schema))
	assert.Len(t, schema.Ensemble, 26)
	assert.Len(t, schema.TimeSeries, 23)
	assert.Equal(t, "ds", schema.DateColumn)
	assert.Equal(t, "Weekly_Sales_lag3", schema.Ensemble[25])
	assert.Equal(t, "MonthName_December", schema.TimeSeries[22])
	assert.Len(t, schema.MonthNames, 12)
}

type fakeHistory struct {
	predictions []models.Prediction
	gotModel    string
	gotLimit    int
	err         error
}

func (f *fakeHistory) GetPrediction(ctx context.Context, id uuid.UUID) (*models.Prediction, error) {
	for i := range f.predictions {
		if f.predictions[i].ID == id {
			return &f.predictions[i], nil
		}
	}
	return nil, db.ErrPredictionNotFound
}

func (f *fakeHistory) ListPredictions(ctx context.Context, model string, limit int) ([]models.Prediction, error) {
	f.gotModel, f.gotLimit = model, limit
	return f.predictions, f.err
}

func TestPredictionHandler(t *testing.T) {
	est := 42.0
	known := models.Prediction{ID: uuid.New(), Model: "ensemble", Outcome: models.OutcomeSuccess, Estimate: &est}
	history := &fakeHistory{predictions: []models.Prediction{known}}
	h := NewPredictionHandler(history)

	app := fiber.New()
	app.Get("/api/v1/predictions", h.List)
	app.Get("/api/v1/predictions/:id", h.Get)

	status, env := doJSON(t, app, "GET", "/api/v1/predictions?model=prophet&limit=10000", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "time-series", history.gotModel)
	assert.Equal(t, maxHistoryLimit, history.gotLimit)

	var list []models.Prediction
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, known.ID, list[0].ID)

	status, _ = doJSON(t, app, "GET", "/api/v1/predictions/"+known.ID.String(), nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = doJSON(t, app, "GET", "/api/v1/predictions/"+uuid.NewString(), nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = doJSON(t, app, "GET", "/api/v1/predictions/not-a-uuid", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = doJSON(t, app, "GET", "/api/v1/predictions?limit=-1", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	history.err = errors.New("connection reset")
	status, _ = doJSON(t, app, "GET", "/api/v1/predictions", nil)
	assert.Equal(t, fiber.StatusInternalServerError, status)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&predict.Error{Kind: predict.ArtifactLoad}, fiber.StatusServiceUnavailable},
		{&predict.Error{Kind: predict.SchemaMismatch}, fiber.StatusUnprocessableEntity},
		{&predict.Error{Kind: predict.Prediction}, fiber.StatusInternalServerError},
		{validation.Errors{{Field: "month", Message: "bad"}}, fiber.StatusBadRequest},
		{errors.New("other"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
