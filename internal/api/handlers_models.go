// UrbanPulse - Predictive Operations Core for the Simulated City Dashboard
// Copyright 2026 The UrbanPulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/urbanpulse/urbanpulse

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/urbanpulse/urbanpulse/internal/forecast"
)

// ModelStatus describes one model domain for the dashboard.
type ModelStatus struct {
	Domain       forecast.Domain `json:"domain"`
	State        string          `json:"state"`
	FeatureCount int             `json:"feature_count"`
	OutputScale  float64         `json:"output_scale"`
}

// ListModels reports the state of every model domain.
func (h *Handler) ListModels(w http.ResponseWriter, r *http.Request) {
	domains := forecast.Domains()
	statuses := make([]ModelStatus, 0, len(domains))
	for _, d := range domains {
		statuses = append(statuses, h.modelStatus(d))
	}
	respondData(w, http.StatusOK, statuses, len(statuses))
}

// GetModel reports the state of a single model domain.
func (h *Handler) GetModel(w http.ResponseWriter, r *http.Request) {
	d, ok := h.domainParam(w, r)
	if !ok {
		return
	}
	respondData(w, http.StatusOK, h.modelStatus(d), 0)
}

// TrainModel starts an asynchronous training run for a domain.
// Responds 202 when the run was started and 409 when one is already
// in flight for the same domain.
func (h *Handler) TrainModel(w http.ResponseWriter, r *http.Request) {
	d, ok := h.domainParam(w, r)
	if !ok {
		return
	}

	if h.forecaster.IsTraining(d) {
		respondError(w, http.StatusConflict, CodeTrainingInProgress,
			"a training run is already in progress for this domain", nil)
		return
	}

	go func() {
		// Training outlives the HTTP request.
		err := h.forecaster.Train(context.Background(), d, nil)
		switch {
		case err == nil:
		case errors.Is(err, forecast.ErrTrainingInProgress):
			h.logger.Warn().Str("domain", string(d)).Msg("Concurrent training request lost the race")
		default:
			h.logger.Error().Err(err).Str("domain", string(d)).Msg("Training run failed")
		}
	}()

	respondData(w, http.StatusAccepted, map[string]any{
		"domain": d,
		"state":  forecast.StateTraining.String(),
	}, 0)
}

func (h *Handler) modelStatus(d forecast.Domain) ModelStatus {
	return ModelStatus{
		Domain:       d,
		State:        h.forecaster.State(d).String(),
		FeatureCount: forecast.FeatureCount,
		OutputScale:  forecast.OutputScale(d),
	}
}
