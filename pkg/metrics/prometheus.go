package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	predictions *prometheus.CounterVec
	training    *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	holdoutMAE  *prometheus.GaugeVec
	latency     *prometheus.HistogramVec
}

// New registers the recorder's collectors on reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		predictions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fincast_predictions_total",
				Help: "Range predictions served, by period and outcome",
			},
			[]string{"period", "status"},
		),
		training: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fincast_training_outcomes_total",
				Help: "Per-entity training outcomes",
			},
			[]string{"status"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fincast_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		holdoutMAE: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fincast_model_holdout_mae",
				Help: "Mean absolute error of the latest model on its holdout slice",
			},
			[]string{"entity"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fincast_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordPrediction(period, status string) {
	r.predictions.WithLabelValues(period, status).Inc()
}

func (r *Recorder) RecordTraining(status string) {
	r.training.WithLabelValues(status).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordHoldoutMAE(entity string, mae float64) {
	r.holdoutMAE.WithLabelValues(entity).Set(mae)
}

// RecordLatency records operation latency.
func (r *Recorder) RecordLatency(op string, d time.Duration) {
	r.latency.WithLabelValues(op).Observe(d.Seconds())
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordPrediction(string, string)     {}
func (Nop) RecordTraining(string)               {}
func (Nop) RecordError(string)                  {}
func (Nop) RecordHoldoutMAE(string, float64)    {}
func (Nop) RecordLatency(string, time.Duration) {}
