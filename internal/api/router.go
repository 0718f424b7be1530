// UrbanPulse - Predictive Operations Core for the Simulated City Dashboard
// Copyright 2026 The UrbanPulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/urbanpulse/urbanpulse

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/urbanpulse/urbanpulse/internal/config"
	"github.com/urbanpulse/urbanpulse/internal/metrics"
)

// Router builds the HTTP handler tree for the UrbanPulse API.
type Router struct {
	handler *Handler
	cfg     config.ServerConfig
}

// NewRouter pairs the handlers with the server configuration.
func NewRouter(handler *Handler, cfg config.ServerConfig) *Router {
	return &Router{handler: handler, cfg: cfg}
}

// Routes assembles the middleware stack and route table.
func (rt *Router) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: rt.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", rt.handler.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if rt.cfg.RateLimit > 0 {
			r.Use(httprate.LimitByRealIP(rt.cfg.RateLimit, time.Minute))
		}
		r.Use(prometheusMetrics)

		r.Route("/models", func(r chi.Router) {
			r.Get("/", rt.handler.ListModels)
			r.Get("/{domain}", rt.handler.GetModel)
			r.Post("/{domain}/train", rt.handler.TrainModel)
			r.Get("/{domain}/progress", rt.handler.StreamProgress)
		})

		r.Post("/predict", rt.handler.Predict)

		r.Route("/simulations", func(r chi.Router) {
			r.Get("/", rt.handler.ListSimulations)
			r.Get("/recent", rt.handler.RecentSimulations)
			r.Delete("/", rt.handler.ClearSimulations)
		})

		r.Get("/datasets/{domain}/summary", rt.handler.DatasetSummary)
	})

	return r
}

// prometheusMetrics records request duration per method, route pattern,
// and status class.
func prometheusMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordAPIRequest(r.Method, route, strconv.Itoa(ww.Status()), time.Since(start))
	})
}
