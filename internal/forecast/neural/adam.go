// UrbanPulse - Predictive Operations Core for the Simulated City Dashboard
// Copyright 2026 The UrbanPulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/urbanpulse/urbanpulse

package neural

import "math"

// adam implements the Adam optimizer over a fixed set of parameter groups.
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma, Ba, 2015).
//
// Parameter groups alias the network's backing arrays, so step updates the
// network in place. Moment buffers are keyed by group index; the group
// order must match between construction and every step call.
type adam struct {
	lr      float64
	beta1   float64
	beta2   float64
	epsilon float64

	t int // step counter for bias correction

	params [][]float64
	m      [][]float64 // first moment estimates
	v      [][]float64 // second moment estimates
}

// newAdam creates an optimizer over the given parameter groups.
func newAdam(cfg Config, params [][]float64) *adam {
	m := make([][]float64, len(params))
	v := make([][]float64, len(params))
	for i, p := range params {
		m[i] = make([]float64, len(p))
		v[i] = make([]float64, len(p))
	}
	return &adam{
		lr:      cfg.LearningRate,
		beta1:   cfg.Beta1,
		beta2:   cfg.Beta2,
		epsilon: cfg.Epsilon,
		params:  params,
		m:       m,
		v:       v,
	}
}

// step applies one Adam update from the given gradients, which must be in
// the same group order and shapes as the parameters.
func (a *adam) step(grads [][]float64) {
	a.t++
	c1 := 1 - math.Pow(a.beta1, float64(a.t))
	c2 := 1 - math.Pow(a.beta2, float64(a.t))

	for gi, g := range grads {
		p := a.params[gi]
		m := a.m[gi]
		v := a.v[gi]
		for i, grad := range g {
			m[i] = a.beta1*m[i] + (1-a.beta1)*grad
			v[i] = a.beta2*v[i] + (1-a.beta2)*grad*grad

			mHat := m[i] / c1
			vHat := v[i] / c2
			p[i] -= a.lr * mHat / (math.Sqrt(vHat) + a.epsilon)
		}
	}
}
