// UrbanPulse - Predictive Operations Core for the Simulated City Dashboard
// Copyright 2026 The UrbanPulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/urbanpulse/urbanpulse

package forecast

import "fmt"

// Domain identifies one of the two predictive subjects.
type Domain string

const (
	// DomainTraffic predicts road congestion as a percentage (0-100).
	DomainTraffic Domain = "traffic"

	// DomainEnergy predicts city energy demand in kWh (0-12000).
	DomainEnergy Domain = "energy"
)

// Domains lists all supported domains.
func Domains() []Domain {
	return []Domain{DomainTraffic, DomainEnergy}
}

// Valid reports whether d is a supported domain.
func (d Domain) Valid() bool {
	return d == DomainTraffic || d == DomainEnergy
}

// ParseDomain converts a string to a Domain.
func ParseDomain(s string) (Domain, error) {
	d := Domain(s)
	if !d.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownDomain, s)
	}
	return d, nil
}

// FeatureCount is the fixed number of raw input features per domain.
//
// Traffic: hour of day, day of week, weather flag (0/1).
// Energy: hour of day, temperature in Celsius, weekday flag (0/1).
const FeatureCount = 3

// Features is one raw feature tuple as supplied by callers.
type Features [FeatureCount]float64

// TrainingSample is one labeled historical observation in raw domain units.
// Samples are immutable and sourced from the dataset loader.
type TrainingSample struct {
	Features Features `json:"features"`
	Label    float64  `json:"label"`
}

// TrainingState is the per-domain model lifecycle state.
type TrainingState int

const (
	// StateUntrained means no model has ever been committed for the domain.
	StateUntrained TrainingState = iota

	// StateTraining means a training run is in flight for the domain.
	StateTraining

	// StateTrained means a committed model is available for serving.
	StateTrained
)

// String returns the lowercase state name.
func (s TrainingState) String() string {
	switch s {
	case StateUntrained:
		return "untrained"
	case StateTraining:
		return "training"
	case StateTrained:
		return "trained"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// ProgressEvent is emitted once per training epoch.
//
// Epoch is 1-based and strictly increasing within one run. Loss is the
// epoch's mean squared error over the training split; it trends downward
// but is not required to be monotonic. Accuracy is the fraction of
// held-out validation samples predicted within tolerance.
type ProgressEvent struct {
	Domain   Domain  `json:"domain"`
	Epoch    int     `json:"epoch"`
	Loss     float64 `json:"loss"`
	Accuracy float64 `json:"accuracy"`
}
