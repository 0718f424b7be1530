// UrbanPulse - Predictive Operations Core for the Simulated City Dashboard
// Copyright 2026 The UrbanPulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/urbanpulse/urbanpulse

// Package metrics provides Prometheus instrumentation for the predictive
// subsystem: training runs, served predictions, advisories, and API
// request latency. Store-level metrics live in the simstore package.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TrainingRuns counts completed training runs by domain and outcome.
	TrainingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "urbanpulse_training_runs_total",
			Help: "Total number of completed model training runs",
		},
		[]string{"domain", "outcome"}, // outcome: "succeeded", "failed"
	)

	// TrainingEpochs counts finished training epochs by domain.
	TrainingEpochs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "urbanpulse_training_epochs_total",
			Help: "Total number of finished training epochs",
		},
		[]string{"domain"},
	)

	// Predictions counts served predictions by domain.
	Predictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "urbanpulse_predictions_total",
			Help: "Total number of predictions served",
		},
		[]string{"domain"},
	)

	// Advisories counts recommendation strings issued by domain.
	Advisories = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "urbanpulse_advisories_total",
			Help: "Total number of advisory strings issued",
		},
		[]string{"domain"},
	)

	// APIRequestDuration measures HTTP handler latency.
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "urbanpulse_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// ProgressSubscribers is the current number of websocket progress streams.
	ProgressSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "urbanpulse_progress_subscribers",
			Help: "Current number of connected training-progress subscribers",
		},
	)
)

// RecordTrainingRun records one finished training run.
func RecordTrainingRun(domain, outcome string) {
	TrainingRuns.WithLabelValues(domain, outcome).Inc()
}

// RecordTrainingEpoch records one finished training epoch.
func RecordTrainingEpoch(domain string) {
	TrainingEpochs.WithLabelValues(domain).Inc()
}

// RecordPrediction records one served prediction.
func RecordPrediction(domain string) {
	Predictions.WithLabelValues(domain).Inc()
}

// RecordAdvisories records issued advisory strings.
func RecordAdvisories(domain string, count int) {
	Advisories.WithLabelValues(domain).Add(float64(count))
}

// RecordAPIRequest records one handled API request.
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}
