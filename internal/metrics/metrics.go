package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"salesforecast/internal/models"
)

var (
	// PredictionsTotal counts prediction requests served by this process.
	PredictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salesforecast_predictions_total",
			Help: "Prediction requests by model kind and outcome",
		},
		[]string{"model", "outcome"},
	)

	// PredictionDuration observes artifact load plus inference time.
	PredictionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "salesforecast_prediction_duration_seconds",
			Help:    "Time spent loading the artifact and predicting",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)

	// ArtifactAvailable is 1 while the artifact at uri can be read.
	ArtifactAvailable = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "salesforecast_artifact_available",
			Help: "Whether the model artifact was readable at the last check",
		},
		[]string{"model", "uri"},
	)

	historyDesc = prometheus.NewDesc(
		"salesforecast_history_predictions",
		"Recorded predictions in the history table by model kind and outcome",
		[]string{"model", "outcome"},
		nil,
	)
)

// HistoryStore is the subset of the database the metrics package needs.
type HistoryStore interface {
	InsertPrediction(ctx context.Context, p *models.Prediction) error
	CountPredictionsByOutcome(ctx context.Context) (map[[2]string]int64, error)
}

// HistoryCollector is a custom Prometheus collector that reads recorded
// prediction counts from the database on each scrape.
type HistoryCollector struct {
	store HistoryStore
}

// NewHistoryCollector creates a collector over store.
func NewHistoryCollector(store HistoryStore) *HistoryCollector {
	return &HistoryCollector{store: store}
}

// Describe sends the metric descriptor to the channel.
func (c *HistoryCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- historyDesc
}

// Collect queries the database for outcome counts and emits them as gauges.
func (c *HistoryCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	counts, err := c.store.CountPredictionsByOutcome(ctx)
	if err != nil {
		log.Error().Err(err).Str("component", "metrics").Msg("failed to collect prediction history metrics")
		return
	}
	for key, n := range counts {
		ch <- prometheus.MustNewConstMetric(
			historyDesc,
			prometheus.GaugeValue,
			float64(n),
			key[0],
			key[1],
		)
	}
}

var registerOnce sync.Once

// Init registers the process metrics, and the history collector when store
// is non-nil. Must be called once at startup.
func Init(store HistoryStore) {
	registerOnce.Do(func() {
		prometheus.MustRegister(PredictionsTotal, PredictionDuration, ArtifactAvailable)
		if store != nil {
			prometheus.MustRegister(NewHistoryCollector(store))
		}
	})
}

// Observe records one served prediction request.
func Observe(model, outcome string, elapsed time.Duration) {
	PredictionsTotal.WithLabelValues(model, outcome).Inc()
	PredictionDuration.WithLabelValues(model).Observe(elapsed.Seconds())
}

// Recorder writes prediction history asynchronously. A nil Recorder
// discards every record.
type Recorder struct {
	store   HistoryStore
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewRecorder creates a recorder writing to store.
func NewRecorder(store HistoryStore, timeout time.Duration) *Recorder {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Recorder{store: store, timeout: timeout}
}

// Record asynchronously inserts p. Failures are logged and never surface
// to the caller.
func (r *Recorder) Record(p *models.Prediction) {
	if r == nil || p == nil {
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		if err := r.store.InsertPrediction(ctx, p); err != nil {
			log.Error().Err(err).
				Str("component", "metrics").
				Str("model", p.Model).
				Str("outcome", p.Outcome).
				Msg("failed to record prediction")
		}
	}()
}

// Wait blocks until every pending record has been written or dropped.
func (r *Recorder) Wait() {
	if r == nil {
		return
	}
	r.wg.Wait()
}
