// UrbanPulse - Predictive Operations Core for the Simulated City Dashboard
// Copyright 2026 The UrbanPulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/urbanpulse/urbanpulse

package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/urbanpulse/urbanpulse/internal/simstore"
)

// httpService runs the API server under suture supervision.
type httpService struct {
	server          *http.Server
	shutdownTimeout time.Duration
	logger          zerolog.Logger //nolint:gocritic // zerolog is designed to be passed by value
}

// Serve implements suture.Service. It blocks until the supervisor cancels
// the context, then drains in-flight requests.
func (s *httpService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.ListenAndServe()
	}()

	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn().Err(err).Msg("HTTP shutdown did not complete cleanly")
		}
		return ctx.Err()
	}
}

func (s *httpService) String() string { return "http-server" }

// storeGCService periodically reclaims badger value log space.
type storeGCService struct {
	store    *simstore.Store
	interval time.Duration
	logger   zerolog.Logger //nolint:gocritic // zerolog is designed to be passed by value
}

// Serve implements suture.Service.
func (s *storeGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.store.RunGC(); err != nil {
				s.logger.Warn().Err(err).Msg("Store garbage collection failed")
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *storeGCService) String() string { return "store-gc" }
