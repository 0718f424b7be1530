// UrbanPulse - Predictive Operations Core for the Simulated City Dashboard
// Copyright 2026 The UrbanPulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/urbanpulse/urbanpulse

// Command server runs the UrbanPulse API: model training and serving,
// prediction with advisories, live progress streaming, and the durable
// simulation log backing the city dashboard.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/urbanpulse/urbanpulse/internal/api"
	"github.com/urbanpulse/urbanpulse/internal/config"
	"github.com/urbanpulse/urbanpulse/internal/dataset"
	"github.com/urbanpulse/urbanpulse/internal/forecast"
	"github.com/urbanpulse/urbanpulse/internal/logging"
	"github.com/urbanpulse/urbanpulse/internal/progress"
	"github.com/urbanpulse/urbanpulse/internal/simstore"
)

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("Server exited with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logger := logging.With().Str("component", "server").Logger()

	store, err := simstore.Open(cfg.StoreConfig())
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close simulation store")
		}
	}()

	datasets := dataset.NewLoader()
	bus := progress.NewBus(logging.With().Str("component", "progress").Logger())
	defer func() {
		if err := bus.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close progress bus")
		}
	}()

	forecaster := forecast.NewService(datasets, logging.With().Str("component", "forecast").Logger())
	forecaster.SetProgressSink(bus)

	handler := api.NewHandler(forecaster, store, datasets, bus)
	router := api.NewRouter(handler, cfg.Server)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	hook := (&sutureslog.Handler{Logger: logging.NewSlogLogger()}).MustHook()
	root := suture.New("urbanpulse", suture.Spec{
		EventHook: hook,
		Timeout:   cfg.Server.ShutdownTimeout,
	})
	root.Add(&httpService{
		server:          server,
		shutdownTimeout: cfg.Server.ShutdownTimeout,
		logger:          logging.With().Str("component", "http").Logger(),
	})
	root.Add(&storeGCService{
		store:    store,
		interval: cfg.Store.GCInterval,
		logger:   logging.With().Str("component", "store-gc").Logger(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info().
		Str("addr", cfg.Addr()).
		Str("store_path", cfg.Store.Path).
		Bool("store_in_memory", cfg.Store.InMemory).
		Msg("Starting UrbanPulse")

	err = root.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info().Msg("Shutdown complete")
	return nil
}
