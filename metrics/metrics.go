// Package metrics exposes Prometheus collectors for training, prediction
// and the HTTP API. Collectors register with the default registry.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eligibility_predictions_total",
			Help: "Total number of final eligibility predictions",
		},
		[]string{"label", "overridden"},
	)

	OverridesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eligibility_overrides_total",
			Help: "Total number of model predictions replaced by a business rule",
		},
		[]string{"rule"},
	)

	PredictBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "eligibility_predict_batch_duration_seconds",
			Help:    "Duration of prediction batches in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	PredictErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eligibility_predict_errors_total",
			Help: "Total number of failed prediction batches",
		},
	)

	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "eligibility_training_duration_seconds",
			Help:    "Duration of model training in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	ModelAccuracy = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "eligibility_model_accuracy",
			Help: "Held-out accuracy of the most recently trained model",
		},
	)

	// Prediction cache
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eligibility_cache_hits_total",
			Help: "Total number of prediction cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eligibility_cache_misses_total",
			Help: "Total number of prediction cache misses",
		},
	)

	// API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eligibility_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eligibility_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eligibility_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)
)

// RecordPrediction counts one final prediction and, when a rule replaced the
// model's label, the rule responsible.
func RecordPrediction(label string, overridden bool, rule string) {
	PredictionsTotal.WithLabelValues(label, strconv.FormatBool(overridden)).Inc()
	if overridden {
		OverridesTotal.WithLabelValues(rule).Inc()
	}
}

func RecordPredictBatch(duration time.Duration, err error) {
	PredictBatchDuration.Observe(duration.Seconds())
	if err != nil {
		PredictErrors.Inc()
	}
}

func RecordTraining(duration time.Duration, accuracy float64) {
	TrainingDuration.Observe(duration.Seconds())
	ModelAccuracy.Set(accuracy)
}

func RecordCache(hit bool) {
	if hit {
		CacheHits.Inc()
	} else {
		CacheMisses.Inc()
	}
}

func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
