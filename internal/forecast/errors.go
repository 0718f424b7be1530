// UrbanPulse - Predictive Operations Core for the Simulated City Dashboard
// Copyright 2026 The UrbanPulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/urbanpulse/urbanpulse

package forecast

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownDomain indicates a domain outside the fixed set.
	ErrUnknownDomain = errors.New("unknown domain")

	// ErrModelNotTrained indicates a prediction was requested for a domain
	// with no committed model. Recoverable: train first.
	ErrModelNotTrained = errors.New("model not trained")

	// ErrTrainingInProgress indicates a train request arrived while the
	// domain was already training. Not fatal; callers wait or ignore.
	ErrTrainingInProgress = errors.New("training already in progress")

	// ErrNotTraining indicates a commit or abort for a domain that has no
	// training run in flight.
	ErrNotTraining = errors.New("domain is not training")
)

// TrainingError reports a failed training run. The registry state has
// already been reverted when callers observe this error; any previously
// committed model remains servable.
type TrainingError struct {
	Domain Domain
	Err    error
}

// Error implements the error interface.
func (e *TrainingError) Error() string {
	return fmt.Sprintf("training %s model: %v", e.Domain, e.Err)
}

// Unwrap returns the underlying cause.
func (e *TrainingError) Unwrap() error {
	return e.Err
}
