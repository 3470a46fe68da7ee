package jobs

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"salesforecast/internal/artifact"
	"salesforecast/internal/metrics"
	"salesforecast/internal/predict"
)

// Alerter is told about artifact state changes.
type Alerter interface {
	ArtifactUnavailable(kind predict.Kind, uri string, cause error)
	ArtifactRecovered(kind predict.Kind, uri string)
}

// ArtifactChecker periodically verifies that every configured model artifact
// can still be read. Predictions reload artifacts per request, so a file
// removed or replaced after startup only shows up here and in the logs.
type ArtifactChecker struct {
	store    artifact.Store
	paths    map[predict.Kind]string
	interval time.Duration
	timeout  time.Duration
	logger   zerolog.Logger
	alerter  Alerter

	mu   sync.Mutex
	last map[predict.Kind]error
}

// NewArtifactChecker creates a checker over paths.
func NewArtifactChecker(store artifact.Store, paths map[predict.Kind]string, interval time.Duration) *ArtifactChecker {
	return &ArtifactChecker{
		store:    store,
		paths:    paths,
		interval: interval,
		timeout:  30 * time.Second,
		logger:   log.With().Str("component", "artifact-checker").Logger(),
		last:     make(map[predict.Kind]error),
	}
}

// WithAlerter sends state changes to alerter as well as the log.
func (a *ArtifactChecker) WithAlerter(alerter Alerter) *ArtifactChecker {
	a.alerter = alerter
	return a
}

// Start runs a check immediately and then every interval until ctx is done.
func (a *ArtifactChecker) Start(ctx context.Context) {
	a.logger.Info().Dur("interval", a.interval).Msg("artifact checker started")

	a.CheckAll(ctx)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info().Msg("artifact checker stopped")
			return
		case <-ticker.C:
			a.CheckAll(ctx)
		}
	}
}

// CheckAll stats every artifact once, updates the availability gauge and
// logs each change in state.
func (a *ArtifactChecker) CheckAll(ctx context.Context) {
	kinds := make([]predict.Kind, 0, len(a.paths))
	for k := range a.paths {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	for _, kind := range kinds {
		select {
		case <-ctx.Done():
			return
		default:
		}

		uri := a.paths[kind]
		checkCtx, cancel := context.WithTimeout(ctx, a.timeout)
		err := a.store.Stat(checkCtx, uri)
		cancel()

		a.record(kind, uri, err)
	}
}

func (a *ArtifactChecker) record(kind predict.Kind, uri string, err error) {
	gauge := metrics.ArtifactAvailable.WithLabelValues(string(kind), uri)
	if err != nil {
		gauge.Set(0)
	} else {
		gauge.Set(1)
	}

	a.mu.Lock()
	prev, seen := a.last[kind]
	a.last[kind] = err
	a.mu.Unlock()

	switch {
	case err != nil && (!seen || prev == nil):
		a.logger.Warn().Err(err).Str("model", string(kind)).Str("artifact", uri).Msg("artifact unavailable")
		if a.alerter != nil {
			a.alerter.ArtifactUnavailable(kind, uri, err)
		}
	case err == nil && seen && prev != nil:
		a.logger.Info().Str("model", string(kind)).Str("artifact", uri).Msg("artifact available again")
		if a.alerter != nil {
			a.alerter.ArtifactRecovered(kind, uri)
		}
	}
}

// Status returns the last check error per model kind; nil means readable.
// Kinds not yet checked are absent.
func (a *ArtifactChecker) Status() map[predict.Kind]error {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[predict.Kind]error, len(a.last))
	for k, v := range a.last {
		out[k] = v
	}
	return out
}
