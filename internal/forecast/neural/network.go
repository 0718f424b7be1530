// UrbanPulse - Predictive Operations Core for the Simulated City Dashboard
// Copyright 2026 The UrbanPulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/urbanpulse/urbanpulse

// Package neural implements the small feed-forward regressor used by the
// forecast service.
//
// The architecture is fixed: input -> Dense(16, ReLU) -> Dropout(0.2,
// training-time only) -> Dense(8, ReLU) -> Dense(1, Sigmoid). The output is
// bounded to [0,1]; callers are responsible for scaling targets into that
// range before training and scaling predictions back afterwards.
//
// Training uses mini-batch gradient descent with the Adam optimizer and a
// mean-squared-error objective. Runs are deterministic for a given seed.
package neural

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrNoSamples indicates an empty training set.
	ErrNoSamples = errors.New("neural: no training samples")

	// ErrShapeMismatch indicates inputs and targets of different lengths,
	// or a feature vector of the wrong width.
	ErrShapeMismatch = errors.New("neural: shape mismatch")

	// ErrBadSample indicates a non-finite feature or target value.
	ErrBadSample = errors.New("neural: non-finite sample value")

	// ErrDiverged indicates the loss became non-finite during training.
	ErrDiverged = errors.New("neural: training diverged")
)

// Config holds the fixed training hyperparameters.
type Config struct {
	// InputSize is the feature vector width.
	// Default: 3.
	InputSize int

	// Hidden1 and Hidden2 are the dense layer widths.
	// Defaults: 16 and 8.
	Hidden1 int
	Hidden2 int

	// DropoutRate is applied after the first dense layer, training-time only.
	// Default: 0.2.
	DropoutRate float64

	// LearningRate is the Adam step size.
	// Default: 0.01.
	LearningRate float64

	// Beta1, Beta2, Epsilon are the Adam moment parameters.
	// Defaults: 0.9, 0.999, 1e-8.
	Beta1   float64
	Beta2   float64
	Epsilon float64

	// Epochs is the number of full passes over the training split.
	// Default: 50.
	Epochs int

	// BatchSize is the mini-batch size.
	// Default: 4.
	BatchSize int

	// ValidationSplit is the fraction of samples held out each run.
	// Default: 0.2.
	ValidationSplit float64

	// Tolerance is the normalized-scale error within which a validation
	// prediction counts as accurate.
	// Default: 0.1.
	Tolerance float64

	// Seed for reproducible initialization, splitting, and dropout.
	// If 0, uses a default seed.
	Seed int64
}

// DefaultConfig returns the fixed production configuration.
func DefaultConfig() Config {
	return Config{
		InputSize:       3,
		Hidden1:         16,
		Hidden2:         8,
		DropoutRate:     0.2,
		LearningRate:    0.01,
		Beta1:           0.9,
		Beta2:           0.999,
		Epsilon:         1e-8,
		Epochs:          50,
		BatchSize:       4,
		ValidationSplit: 0.2,
		Tolerance:       0.1,
		Seed:            42,
	}
}

// Progress reports one completed training epoch.
type Progress struct {
	// Epoch is 1-based and strictly increasing within a run.
	Epoch int

	// Loss is the epoch's mean squared error over the training split.
	Loss float64

	// Accuracy is the fraction of held-out samples predicted within
	// the configured tolerance.
	Accuracy float64
}

// Network is a trained feed-forward regressor. It is immutable after
// training and safe for concurrent Predict calls.
type Network struct {
	w1 *mat.Dense    // hidden1 x input
	b1 *mat.VecDense // hidden1
	w2 *mat.Dense    // hidden2 x hidden1
	b2 *mat.VecDense // hidden2
	w3 *mat.Dense    // 1 x hidden2
	b3 *mat.VecDense // 1

	inputSize int
}

// Predict runs a forward pass without dropout and returns the
// sigmoid-bounded output in [0,1].
func (n *Network) Predict(features []float64) (float64, error) {
	if len(features) != n.inputSize {
		return 0, fmt.Errorf("%w: got %d features, want %d", ErrShapeMismatch, len(features), n.inputSize)
	}

	x := mat.NewVecDense(len(features), features)

	h1, _ := n.b1.Dims()
	a1 := mat.NewVecDense(h1, nil)
	a1.MulVec(n.w1, x)
	a1.AddVec(a1, n.b1)
	reluInPlace(a1)

	h2, _ := n.b2.Dims()
	a2 := mat.NewVecDense(h2, nil)
	a2.MulVec(n.w2, a1)
	a2.AddVec(a2, n.b2)
	reluInPlace(a2)

	z3 := mat.Dot(n.w3.RowView(0), a2) + n.b3.AtVec(0)
	return sigmoid(z3), nil
}

// InputSize returns the feature vector width the network was trained with.
func (n *Network) InputSize() int {
	return n.inputSize
}

// newNetwork allocates a network with He-initialized weights.
func newNetwork(cfg Config, rng *rand.Rand) *Network {
	return &Network{
		w1:        randomDense(cfg.Hidden1, cfg.InputSize, rng),
		b1:        mat.NewVecDense(cfg.Hidden1, nil),
		w2:        randomDense(cfg.Hidden2, cfg.Hidden1, rng),
		b2:        mat.NewVecDense(cfg.Hidden2, nil),
		w3:        randomDense(1, cfg.Hidden2, rng),
		b3:        mat.NewVecDense(1, nil),
		inputSize: cfg.InputSize,
	}
}

// randomDense returns a rows x cols matrix with He initialization:
// normal draws scaled by sqrt(2/fanIn).
func randomDense(rows, cols int, rng *rand.Rand) *mat.Dense {
	scale := math.Sqrt(2.0 / float64(cols))
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = rng.NormFloat64() * scale
	}
	return mat.NewDense(rows, cols, data)
}

// params returns the raw parameter slices in a fixed order, aliasing the
// network's backing arrays so optimizer updates apply in place.
func (n *Network) params() [][]float64 {
	return [][]float64{
		n.w1.RawMatrix().Data,
		n.b1.RawVector().Data,
		n.w2.RawMatrix().Data,
		n.b2.RawVector().Data,
		n.w3.RawMatrix().Data,
		n.b3.RawVector().Data,
	}
}

func reluInPlace(v *mat.VecDense) {
	raw := v.RawVector().Data
	for i, x := range raw {
		if x < 0 {
			raw[i] = 0
		}
	}
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
