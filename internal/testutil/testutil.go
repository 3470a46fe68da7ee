// Package testutil provides test utilities and helpers.
package testutil

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"salesforecast/internal/artifact"
	"salesforecast/internal/db"
	"salesforecast/internal/features"
	"salesforecast/internal/forest"
)

// TestDB creates a test database connection and returns a cleanup function.
// Skips the test unless TEST_DATABASE_URL is set.
func TestDB(t *testing.T) (*db.DB, func()) {
	t.Helper()

	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("Skipping integration test: TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	database, err := db.New(ctx, connString)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	// Run migrations
	if err := database.RunMigrations(connString); err != nil {
		database.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	cleanup := func() {
		database.Pool.Exec(ctx, "DELETE FROM predictions")
		database.Close()
	}

	return database, cleanup
}

// LeafTree returns a single-node tree that always predicts value.
func LeafTree(value float64) artifact.TreeDoc {
	return artifact.TreeDoc{
		ChildrenLeft:  []int{forest.Leaf},
		ChildrenRight: []int{forest.Leaf},
		Feature:       []int{-2},
		Threshold:     []float64{-2},
		Value:         []float64{value},
	}
}

// SplitTree returns a stump on column that predicts lo when the value is
// <= threshold and hi otherwise.
func SplitTree(column string, threshold, lo, hi float64) artifact.TreeDoc {
	idx := -1
	for i, c := range features.EnsembleColumns() {
		if c == column {
			idx = i
		}
	}
	return artifact.TreeDoc{
		ChildrenLeft:  []int{1, forest.Leaf, forest.Leaf},
		ChildrenRight: []int{2, forest.Leaf, forest.Leaf},
		Feature:       []int{idx, -2, -2},
		Threshold:     []float64{threshold, -2, -2},
		Value:         []float64{0, lo, hi},
	}
}

// EnsembleDoc returns a tree ensemble over the full ensemble schema whose
// members predict the given constants.
func EnsembleDoc(memberValues ...float64) artifact.TreeEnsembleDoc {
	doc := artifact.TreeEnsembleDoc{
		Format:       artifact.FormatTreeEnsemble,
		FeatureNames: features.EnsembleColumns(),
	}
	for _, v := range memberValues {
		doc.Estimators = append(doc.Estimators, LeafTree(v))
	}
	return doc
}

// TimeSeriesDoc returns an additive model over all 23 regressors. Only
// Temperature and Holiday_Flag carry weight; the trend is flat at y_scale.
func TimeSeriesDoc() artifact.AdditiveTSDoc {
	doc := artifact.AdditiveTSDoc{
		Format:        artifact.FormatAdditiveTS,
		Start:         time.Date(2010, time.February, 5, 0, 0, 0, 0, time.UTC),
		TScaleDays:    1000,
		YScale:        1_000_000,
		K:             0,
		M:             1,
		SigmaObs:      0.05,
		IntervalWidth: 0.8,
	}
	for _, c := range features.RegressorColumns() {
		r := artifact.RegressorDoc{Name: c, Mu: 0, Std: 1}
		switch c {
		case "Temperature":
			r.Mu, r.Std, r.Beta = 60, 20, 0.01
		case "Holiday_Flag":
			r.Beta = 0.1
		}
		doc.Regressors = append(doc.Regressors, r)
	}
	return doc
}

// WriteArtifact marshals doc into dir/name and returns the path.
func WriteArtifact(t *testing.T, dir, name string, doc any) string {
	t.Helper()

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("failed to marshal artifact: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write artifact: %v", err)
	}
	return path
}

// WriteFile writes raw bytes into dir/name and returns the path.
func WriteFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	return path
}
