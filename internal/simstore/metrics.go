// UrbanPulse - Predictive Operations Core for the Simulated City Dashboard
// Copyright 2026 The UrbanPulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/urbanpulse/urbanpulse

package simstore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for simulation store operations
var (
	// storeAppendsTotal counts appended records by domain.
	storeAppendsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "simstore_appends_total",
		Help: "Total number of simulation records appended",
	}, []string{"domain"})

	// storeReadsTotal counts read operations by kind.
	storeReadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "simstore_reads_total",
		Help: "Total number of simulation store read operations",
	}, []string{"kind"})

	// storeClearsTotal counts full clears.
	storeClearsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "simstore_clears_total",
		Help: "Total number of simulation store clears",
	})

	// storeAppendLatency measures append latency.
	storeAppendLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "simstore_append_latency_seconds",
		Help:    "Simulation store append latency in seconds",
		Buckets: prometheus.DefBuckets,
	})
)

func recordAppend(domain string) {
	storeAppendsTotal.WithLabelValues(domain).Inc()
}

func recordRead(kind string) {
	storeReadsTotal.WithLabelValues(kind).Inc()
}

func recordClear() {
	storeClearsTotal.Inc()
}

func recordAppendLatency(seconds float64) {
	storeAppendLatency.Observe(seconds)
}
