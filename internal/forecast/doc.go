// UrbanPulse - Predictive Operations Core for the Simulated City Dashboard
// Copyright 2026 The UrbanPulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/urbanpulse/urbanpulse

// Package forecast implements the predictive-model subsystem: per-domain
// model lifecycle (train, retrain, serve), feature normalization, and
// point predictions.
//
// # Domains
//
// Two fixed domains are supported: traffic congestion and energy demand.
// Each domain has three raw input features, fixed normalization divisors,
// and a fixed output scale (see codec.go). Model architecture and
// hyperparameters are domain constants, not user-configurable.
//
// # Model Lifecycle
//
// The Registry owns all trained models and their per-domain state machine:
//
//	Untrained --begin--> Training --commit--> Trained
//	Training  --abort--> prior state (Untrained or Trained)
//	Trained   --begin--> Training (previous model keeps serving)
//
// Begin-training is a compare-and-set: a second train request for a domain
// that is already Training is rejected with ErrTrainingInProgress. Different
// domains train independently; there is no process-wide training flag.
//
// A retrain that fails leaves the previously committed model untouched and
// servable. Predictions always read the last committed model, never a
// partially trained one.
//
// # Thread Safety
//
// The Service and Registry are safe for concurrent use. Training runs block
// the calling goroutine; callers wanting asynchronous training run Train in
// a goroutine and observe progress through the per-epoch callback or a
// registered ProgressSink.
package forecast
