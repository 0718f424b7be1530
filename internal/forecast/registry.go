// UrbanPulse - Predictive Operations Core for the Simulated City Dashboard
// Copyright 2026 The UrbanPulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/urbanpulse/urbanpulse

package forecast

import (
	"sync"

	"github.com/urbanpulse/urbanpulse/internal/forecast/neural"
)

// Registry exclusively owns trained models and their per-domain lifecycle
// state. It is an explicit object passed to whoever needs it; there is no
// ambient global instance.
//
// Model replacement is atomic: a new model becomes current only on
// CommitTraining, and AbortTraining restores the exact pre-training state.
type Registry struct {
	mu      sync.RWMutex
	domains map[Domain]*domainEntry
}

// domainEntry tracks one domain's state and committed model.
type domainEntry struct {
	state TrainingState

	// prior is the state to restore if the in-flight training run aborts.
	// Only meaningful while state == StateTraining.
	prior TrainingState

	// model is the last committed model, retained across failed retrains.
	model *neural.Network
}

// NewRegistry creates an empty registry with all domains untrained.
func NewRegistry() *Registry {
	r := &Registry{domains: make(map[Domain]*domainEntry, len(Domains()))}
	for _, d := range Domains() {
		r.domains[d] = &domainEntry{state: StateUntrained}
	}
	return r
}

// State returns the domain's current training state.
// Unknown domains report StateUntrained.
func (r *Registry) State(d Domain) TrainingState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.domains[d]
	if !ok {
		return StateUntrained
	}
	return e.state
}

// CurrentModel returns the last committed model for the domain, if any.
// During a retrain this is still the previous model.
func (r *Registry) CurrentModel(d Domain) (*neural.Network, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.domains[d]
	if !ok || e.model == nil {
		return nil, false
	}
	return e.model, true
}

// BeginTraining transitions the domain into StateTraining.
// The transition is a compare-and-set: if the domain is already training,
// ErrTrainingInProgress is returned and no state changes. This is what
// prevents two concurrent trains from racing to commit two models.
func (r *Registry) BeginTraining(d Domain) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.domains[d]
	if !ok {
		return ErrUnknownDomain
	}
	if e.state == StateTraining {
		return ErrTrainingInProgress
	}

	e.prior = e.state
	e.state = StateTraining
	return nil
}

// CommitTraining installs a newly trained model and transitions the domain
// to StateTrained. The domain must currently be training.
func (r *Registry) CommitTraining(d Domain, m *neural.Network) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.domains[d]
	if !ok {
		return ErrUnknownDomain
	}
	if e.state != StateTraining {
		return ErrNotTraining
	}

	e.model = m
	e.state = StateTrained
	return nil
}

// AbortTraining discards the in-flight run and restores the pre-training
// state. The previously committed model, if any, is left untouched.
// Aborting a domain that is not training is a no-op.
func (r *Registry) AbortTraining(d Domain) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.domains[d]
	if !ok || e.state != StateTraining {
		return
	}
	e.state = e.prior
}
