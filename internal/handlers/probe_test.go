package handlers

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v3"

	"salesforecast/internal/artifact"
	"salesforecast/internal/predict"
	"salesforecast/internal/testutil"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(ctx context.Context) error { return p.err }

// countingStore records how often artifacts are read or stat'ed.
type countingStore struct {
	artifact.LocalStore
	opens, stats int
}

func (s *countingStore) Open(ctx context.Context, uri string) ([]byte, error) {
	s.opens++
	return s.LocalStore.Open(ctx, uri)
}

func (s *countingStore) Stat(ctx context.Context, uri string) error {
	s.stats++
	return s.LocalStore.Stat(ctx, uri)
}

type fixedStatus map[predict.Kind]error

func (f fixedStatus) Status() map[predict.Kind]error { return f }

func readyz(t *testing.T, h *ProbeHandler) int {
	t.Helper()
	app := fiber.New()
	app.Get("/readyz", h.Readiness)
	resp, err := app.Test(httptestGet(t, "/readyz"))
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode
}

func TestProbeHandler(t *testing.T) {
	dir := t.TempDir()
	present := testutil.WriteArtifact(t, dir, "rf.json", testutil.EnsembleDoc(1))
	missing := filepath.Join(dir, "ts.json")

	tests := []struct {
		name       string
		paths      map[predict.Kind]string
		db         Pinger
		wantStatus int
	}{
		{"artifacts present, no database", map[predict.Kind]string{predict.KindEnsemble: present}, nil, fiber.StatusOK},
		{"artifact missing", map[predict.Kind]string{predict.KindEnsemble: present, predict.KindTimeSeries: missing}, nil, fiber.StatusServiceUnavailable},
		{"database up", map[predict.Kind]string{predict.KindEnsemble: present}, fakePinger{}, fiber.StatusOK},
		{"database down", map[predict.Kind]string{predict.KindEnsemble: present}, fakePinger{err: errors.New("refused")}, fiber.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewProbeHandler(artifact.LocalStore{}, tt.paths, tt.db)
			app := fiber.New()
			app.Get("/healthz", h.Liveness)

			resp, err := app.Test(httptestGet(t, "/healthz"))
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != fiber.StatusOK {
				t.Errorf("healthz status = %d, want 200", resp.StatusCode)
			}

			if got := readyz(t, h); got != tt.wantStatus {
				t.Errorf("readyz status = %d, want %d", got, tt.wantStatus)
			}
		})
	}
}

func TestProbeHandler_ReadinessNeverDownloads(t *testing.T) {
	dir := t.TempDir()
	paths := map[predict.Kind]string{
		predict.KindEnsemble:   testutil.WriteArtifact(t, dir, "rf.json", testutil.EnsembleDoc(1)),
		predict.KindTimeSeries: testutil.WriteArtifact(t, dir, "ts.json", testutil.TimeSeriesDoc()),
	}
	store := &countingStore{}

	if got := readyz(t, NewProbeHandler(store, paths, nil)); got != fiber.StatusOK {
		t.Fatalf("readyz status = %d, want 200", got)
	}
	if store.opens != 0 {
		t.Errorf("readiness read artifact contents %d times, want 0", store.opens)
	}
	if store.stats != 2 {
		t.Errorf("stats = %d, want 2", store.stats)
	}
}

func TestProbeHandler_UsesArtifactStatus(t *testing.T) {
	dir := t.TempDir()
	present := testutil.WriteArtifact(t, dir, "rf.json", testutil.EnsembleDoc(1))
	paths := map[predict.Kind]string{
		predict.KindEnsemble:   present,
		predict.KindTimeSeries: filepath.Join(dir, "ts.json"),
	}

	tests := []struct {
		name       string
		status     fixedStatus
		wantStatus int
		wantStats  int
	}{
		{
			name:       "all kinds checked and readable",
			status:     fixedStatus{predict.KindEnsemble: nil, predict.KindTimeSeries: nil},
			wantStatus: fiber.StatusOK,
			wantStats:  0,
		},
		{
			name:       "checked and unavailable",
			status:     fixedStatus{predict.KindEnsemble: artifact.ErrNotFound, predict.KindTimeSeries: nil},
			wantStatus: fiber.StatusServiceUnavailable,
			wantStats:  0,
		},
		{
			name:       "unchecked kind falls back to storage",
			status:     fixedStatus{predict.KindEnsemble: nil},
			wantStatus: fiber.StatusServiceUnavailable,
			wantStats:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &countingStore{}
			h := NewProbeHandler(store, paths, nil).WithArtifactStatus(tt.status)

			if got := readyz(t, h); got != tt.wantStatus {
				t.Errorf("readyz status = %d, want %d", got, tt.wantStatus)
			}
			if store.stats != tt.wantStats {
				t.Errorf("stats = %d, want %d", store.stats, tt.wantStats)
			}
			if store.opens != 0 {
				t.Errorf("opens = %d, want 0", store.opens)
			}
		})
	}
}
