// UrbanPulse - Predictive Operations Core for the Simulated City Dashboard
// Copyright 2026 The UrbanPulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/urbanpulse/urbanpulse

package forecast

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/urbanpulse/urbanpulse/internal/forecast/neural"
	"github.com/urbanpulse/urbanpulse/internal/metrics"
)

// DataSource supplies the fixed, pre-labeled sample set for a domain.
// Implemented by the dataset package; tests substitute stubs.
type DataSource interface {
	Samples(ctx context.Context, d Domain) ([]TrainingSample, error)
}

// ProgressSink receives per-epoch progress events for fan-out beyond the
// direct caller (websocket subscribers, metrics). Implementations must not
// block: Publish is called from the training goroutine between epochs.
type ProgressSink interface {
	Publish(ev ProgressEvent)
}

// Service trains and serves per-domain prediction models. It holds no
// model state of its own; the Registry owns models and lifecycle state.
type Service struct {
	registry *Registry
	source   DataSource
	logger   zerolog.Logger
	sink     ProgressSink
}

// NewService creates a forecast service with a fresh registry.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewService(source DataSource, logger zerolog.Logger) *Service {
	return &Service{
		registry: NewRegistry(),
		source:   source,
		logger:   logger.With().Str("component", "forecast").Logger(),
	}
}

// SetProgressSink registers an optional sink for training progress events.
// Must be called before any training starts.
func (s *Service) SetProgressSink(sink ProgressSink) {
	s.sink = sink
}

// Registry exposes the underlying model registry.
func (s *Service) Registry() *Registry {
	return s.registry
}

// Train runs a full training run for the domain and commits the resulting
// model on success. It blocks until epoch 50 has reported or training has
// failed; callers wanting asynchronous behavior run it in a goroutine.
//
// Exactly one progress callback fires per epoch, in strictly increasing
// epoch order. onProgress may be nil.
//
// Errors: ErrUnknownDomain, ErrTrainingInProgress if a run is already in
// flight for the domain, or a *TrainingError wrapping the numeric failure.
// On failure the domain's state reverts to its pre-training value and any
// previously committed model keeps serving.
func (s *Service) Train(ctx context.Context, d Domain, onProgress func(ProgressEvent)) error {
	if !d.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownDomain, d)
	}

	if err := s.registry.BeginTraining(d); err != nil {
		return err
	}

	start := time.Now()
	s.logger.Info().Str("domain", string(d)).Msg("training started")

	samples, err := s.source.Samples(ctx, d)
	if err != nil {
		s.registry.AbortTraining(d)
		metrics.RecordTrainingRun(string(d), "failed")
		return &TrainingError{Domain: d, Err: fmt.Errorf("load samples: %w", err)}
	}

	inputs := make([][]float64, len(samples))
	targets := make([]float64, len(samples))
	for i, sample := range samples {
		norm := Normalize(d, sample.Features)
		inputs[i] = norm[:]
		targets[i] = NormalizeLabel(d, sample.Label)
	}

	net, err := neural.Train(neural.DefaultConfig(), inputs, targets, func(p neural.Progress) {
		ev := ProgressEvent{Domain: d, Epoch: p.Epoch, Loss: p.Loss, Accuracy: p.Accuracy}
		metrics.RecordTrainingEpoch(string(d))
		if onProgress != nil {
			onProgress(ev)
		}
		if s.sink != nil {
			s.sink.Publish(ev)
		}
	})
	if err != nil {
		s.registry.AbortTraining(d)
		metrics.RecordTrainingRun(string(d), "failed")
		s.logger.Error().Str("domain", string(d)).Err(err).Msg("training failed")
		return &TrainingError{Domain: d, Err: err}
	}

	if err := s.registry.CommitTraining(d, net); err != nil {
		// Unreachable while this run holds the Training state, but surfaced
		// rather than swallowed.
		metrics.RecordTrainingRun(string(d), "failed")
		return &TrainingError{Domain: d, Err: err}
	}

	metrics.RecordTrainingRun(string(d), "succeeded")
	s.logger.Info().
		Str("domain", string(d)).
		Int("samples", len(samples)).
		Dur("elapsed", time.Since(start)).
		Msg("training complete")
	return nil
}

// Predict serves a point prediction in domain units from the last
// committed model. It has no side effects; callers are responsible for
// logging served predictions to the simulation store.
//
// Returns ErrModelNotTrained if the domain has no committed model. A
// retrain in flight does not block prediction: the previous model serves.
func (s *Service) Predict(d Domain, raw Features) (int, error) {
	if !d.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrUnknownDomain, d)
	}

	model, ok := s.registry.CurrentModel(d)
	if !ok {
		return 0, fmt.Errorf("%s: %w", d, ErrModelNotTrained)
	}

	norm := Normalize(d, raw)
	out, err := model.Predict(norm[:])
	if err != nil {
		return 0, fmt.Errorf("predict %s: %w", d, err)
	}

	value := Denormalize(d, out)
	metrics.RecordPrediction(string(d))
	return value, nil
}

// IsTrained reports whether the domain has a committed model. It stays
// true across failed retrains.
func (s *Service) IsTrained(d Domain) bool {
	_, ok := s.registry.CurrentModel(d)
	return ok
}

// IsTraining reports whether a training run is in flight for the domain.
func (s *Service) IsTraining(d Domain) bool {
	return s.registry.State(d) == StateTraining
}

// State returns the domain's lifecycle state.
func (s *Service) State(d Domain) TrainingState {
	return s.registry.State(d)
}
