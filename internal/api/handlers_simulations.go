// UrbanPulse - Predictive Operations Core for the Simulated City Dashboard
// Copyright 2026 The UrbanPulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/urbanpulse/urbanpulse

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/urbanpulse/urbanpulse/internal/forecast"
	"github.com/urbanpulse/urbanpulse/internal/simstore"
)

const maxQueryLimit = 500

// ListSimulations returns stored simulation records, newest first.
// Optional query parameters: domain (traffic|energy) and limit.
func (h *Handler) ListSimulations(w http.ResponseWriter, r *http.Request) {
	var domain forecast.Domain
	if raw := r.URL.Query().Get("domain"); raw != "" {
		d, err := forecast.ParseDomain(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, CodeUnknownDomain, "domain must be one of: traffic, energy", err)
			return
		}
		domain = d
	}

	limit := simstore.DefaultQueryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxQueryLimit {
			respondError(w, http.StatusBadRequest, CodeValidationError,
				"limit must be an integer between 1 and 500", err)
			return
		}
		limit = n
	}

	records, err := h.store.Query(r.Context(), domain, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternalError, "failed to read simulation log", err)
		return
	}
	respondData(w, http.StatusOK, records, len(records))
}

const maxRecentHours = 720 // 30 days

// RecentSimulations returns records newer than the given number of hours,
// oldest first. The hours query parameter defaults to 1.
func (h *Handler) RecentSimulations(w http.ResponseWriter, r *http.Request) {
	hours := 1
	if raw := r.URL.Query().Get("hours"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxRecentHours {
			respondError(w, http.StatusBadRequest, CodeValidationError,
				"hours must be an integer between 1 and 720", err)
			return
		}
		hours = n
	}
	window := time.Duration(hours) * time.Hour

	records, err := h.store.QueryRecent(r.Context(), window)
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternalError, "failed to read simulation log", err)
		return
	}
	respondData(w, http.StatusOK, records, len(records))
}

// ClearSimulations deletes every record in the simulation log.
func (h *Handler) ClearSimulations(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Clear(r.Context()); err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternalError, "failed to clear simulation log", err)
		return
	}
	h.logger.Info().Msg("Simulation log cleared")
	respondData(w, http.StatusOK, map[string]any{"cleared": true}, 0)
}
