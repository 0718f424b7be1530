// UrbanPulse - Predictive Operations Core for the Simulated City Dashboard
// Copyright 2026 The UrbanPulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/urbanpulse/urbanpulse

package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/urbanpulse/urbanpulse/internal/advisor"
	"github.com/urbanpulse/urbanpulse/internal/forecast"
	"github.com/urbanpulse/urbanpulse/internal/metrics"
	"github.com/urbanpulse/urbanpulse/internal/simstore"
)

// PredictRequest asks for a forecast from a trained model. Features are in
// raw domain units: [hour, dayOfWeek, weather] for traffic and
// [hour, temperature, isWeekday] for energy.
type PredictRequest struct {
	Domain   string             `json:"domain" validate:"required,oneof=traffic energy"`
	Features []float64          `json:"features" validate:"required,len=3"`
	Current  int                `json:"current" validate:"gte=0"`
	Scenario string             `json:"scenario" validate:"omitempty,max=200"`
	Metrics  map[string]float64 `json:"metrics" validate:"omitempty,max=16"`
}

// PredictResponse carries the forecast, its advisories, and the ID of the
// simulation record the run was logged under.
type PredictResponse struct {
	Domain     forecast.Domain `json:"domain"`
	Predicted  int             `json:"predicted"`
	Current    int             `json:"current"`
	Advisories []string        `json:"advisories"`
	RecordID   uint64          `json:"record_id"`
}

// Predict runs a prediction, derives advisories, and appends the outcome
// to the simulation log.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	var req PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, CodeValidationError, "invalid JSON body", err)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, CodeValidationError, err.Error(), nil)
		return
	}

	d := forecast.Domain(req.Domain)
	var features forecast.Features
	copy(features[:], req.Features)

	predicted, err := h.forecaster.Predict(d, features)
	if err != nil {
		if errors.Is(err, forecast.ErrModelNotTrained) {
			respondError(w, http.StatusConflict, CodeModelNotTrained,
				"model must be trained before predicting", err)
			return
		}
		respondError(w, http.StatusInternalServerError, CodeInternalError, "prediction failed", err)
		return
	}

	advisories := advisor.Advise(d, req.Current, predicted)
	metrics.RecordAdvisories(string(d), len(advisories))

	observed := req.Current
	id, err := h.store.Append(r.Context(), simstore.Record{
		Domain:    d,
		Predicted: predicted,
		Observed:  &observed,
		Scenario:  req.Scenario,
		Metrics:   req.Metrics,
	})
	if err != nil {
		// The forecast is still useful when logging fails.
		h.logger.Error().Err(err).Str("domain", string(d)).Msg("Failed to log simulation record")
	}

	respondData(w, http.StatusOK, PredictResponse{
		Domain:     d,
		Predicted:  predicted,
		Current:    req.Current,
		Advisories: advisories,
		RecordID:   id,
	}, 0)
}
