// UrbanPulse - Predictive Operations Core for the Simulated City Dashboard
// Copyright 2026 The UrbanPulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/urbanpulse/urbanpulse

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/urbanpulse/urbanpulse/internal/dataset"
	"github.com/urbanpulse/urbanpulse/internal/forecast"
	"github.com/urbanpulse/urbanpulse/internal/logging"
	"github.com/urbanpulse/urbanpulse/internal/progress"
	"github.com/urbanpulse/urbanpulse/internal/simstore"
)

// Handler holds the dependencies shared by all HTTP handlers.
type Handler struct {
	forecaster *forecast.Service
	store      *simstore.Store
	datasets   *dataset.Loader
	bus        *progress.Bus
	validate   *validator.Validate
	logger     zerolog.Logger //nolint:gocritic // zerolog is designed to be passed by value
}

// NewHandler wires the API handlers to their backing services.
func NewHandler(forecaster *forecast.Service, store *simstore.Store, datasets *dataset.Loader, bus *progress.Bus) *Handler {
	return &Handler{
		forecaster: forecaster,
		store:      store,
		datasets:   datasets,
		bus:        bus,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		logger:     logging.With().Str("component", "api").Logger(),
	}
}

// Health reports liveness plus store statistics.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	stats := h.store.Stats()
	respondData(w, http.StatusOK, map[string]any{
		"status": "ok",
		"store": map[string]any{
			"appends": stats.TotalAppends,
			"reads":   stats.TotalReads,
		},
	}, 0)
}

// DatasetSummary returns aggregate statistics for a domain's training data.
func (h *Handler) DatasetSummary(w http.ResponseWriter, r *http.Request) {
	d, ok := h.domainParam(w, r)
	if !ok {
		return
	}

	summary, err := h.datasets.Summarize(r.Context(), d)
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternalError, "failed to summarize dataset", err)
		return
	}
	respondData(w, http.StatusOK, summary, summary.SampleCount)
}

// domainParam parses the {domain} URL parameter, answering 400 on failure.
func (h *Handler) domainParam(w http.ResponseWriter, r *http.Request) (forecast.Domain, bool) {
	raw := chi.URLParam(r, "domain")
	d, err := forecast.ParseDomain(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, CodeUnknownDomain, "domain must be one of: traffic, energy", err)
		return "", false
	}
	return d, true
}
