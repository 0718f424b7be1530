// UrbanPulse - Predictive Operations Core for the Simulated City Dashboard
// Copyright 2026 The UrbanPulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/urbanpulse/urbanpulse

package neural

import (
	"fmt"
	"math"
	"math/rand"
	"runtime"

	"gonum.org/v1/gonum/mat"
)

// Train fits a network on the given samples and returns it.
//
// Targets must already be normalized to [0,1]. The held-out validation
// fraction is split off once per run (fixed split). onEpoch, if non-nil,
// is invoked exactly once per epoch in strictly increasing epoch order;
// the goroutine yields between epochs so callers can observe progress
// incrementally. There is no mid-run cancellation: a run ends only by
// completing epoch Epochs or by failing.
//
// On failure the partially trained network is discarded and an error is
// returned: ErrNoSamples, ErrShapeMismatch, or ErrBadSample for input
// problems, ErrDiverged if the loss becomes non-finite.
//
//nolint:gocyclo // training loops are inherently branchy
func Train(cfg Config, inputs [][]float64, targets []float64, onEpoch func(Progress)) (*Network, error) {
	cfg = cfg.withDefaults()

	if err := validateSamples(cfg, inputs, targets); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // deterministic ML initialization, not security

	trainIdx, valIdx := splitIndices(len(inputs), cfg.ValidationSplit, rng)
	net := newNetwork(cfg, rng)
	opt := newAdam(cfg, net.params())
	scratch := newScratch(cfg)

	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		rng.Shuffle(len(trainIdx), func(i, j int) {
			trainIdx[i], trainIdx[j] = trainIdx[j], trainIdx[i]
		})

		var lossSum float64
		for start := 0; start < len(trainIdx); start += cfg.BatchSize {
			end := start + cfg.BatchSize
			if end > len(trainIdx) {
				end = len(trainIdx)
			}
			batch := trainIdx[start:end]

			scratch.zeroGrads()
			for _, si := range batch {
				lossSum += backprop(net, cfg, inputs[si], targets[si], rng, scratch)
			}
			scratch.scaleGrads(1.0 / float64(len(batch)))
			opt.step(scratch.gradSlices())
		}

		trainLoss := lossSum / float64(len(trainIdx))
		if math.IsNaN(trainLoss) || math.IsInf(trainLoss, 0) {
			return nil, fmt.Errorf("%w: epoch %d loss is non-finite", ErrDiverged, epoch)
		}

		if onEpoch != nil {
			onEpoch(Progress{
				Epoch:    epoch,
				Loss:     trainLoss,
				Accuracy: evaluateAccuracy(net, cfg, inputs, targets, valIdx, trainIdx),
			})
		}

		// Yield between epochs so concurrent observers run incrementally
		// instead of only after the whole fit.
		runtime.Gosched()
	}

	return net, nil
}

// withDefaults fills zero-valued fields, mirroring DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.InputSize <= 0 {
		c.InputSize = def.InputSize
	}
	if c.Hidden1 <= 0 {
		c.Hidden1 = def.Hidden1
	}
	if c.Hidden2 <= 0 {
		c.Hidden2 = def.Hidden2
	}
	if c.DropoutRate <= 0 || c.DropoutRate >= 1 {
		c.DropoutRate = def.DropoutRate
	}
	if c.LearningRate <= 0 {
		c.LearningRate = def.LearningRate
	}
	if c.Beta1 <= 0 {
		c.Beta1 = def.Beta1
	}
	if c.Beta2 <= 0 {
		c.Beta2 = def.Beta2
	}
	if c.Epsilon <= 0 {
		c.Epsilon = def.Epsilon
	}
	if c.Epochs <= 0 {
		c.Epochs = def.Epochs
	}
	if c.BatchSize <= 0 {
		c.BatchSize = def.BatchSize
	}
	if c.ValidationSplit <= 0 || c.ValidationSplit >= 1 {
		c.ValidationSplit = def.ValidationSplit
	}
	if c.Tolerance <= 0 {
		c.Tolerance = def.Tolerance
	}
	if c.Seed == 0 {
		c.Seed = def.Seed
	}
	return c
}

// validateSamples rejects empty, misshapen, or non-finite training data.
func validateSamples(cfg Config, inputs [][]float64, targets []float64) error {
	if len(inputs) == 0 {
		return ErrNoSamples
	}
	if len(inputs) != len(targets) {
		return fmt.Errorf("%w: %d inputs vs %d targets", ErrShapeMismatch, len(inputs), len(targets))
	}
	for i, in := range inputs {
		if len(in) != cfg.InputSize {
			return fmt.Errorf("%w: sample %d has %d features, want %d", ErrShapeMismatch, i, len(in), cfg.InputSize)
		}
		for _, v := range in {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: sample %d", ErrBadSample, i)
			}
		}
		if math.IsNaN(targets[i]) || math.IsInf(targets[i], 0) {
			return fmt.Errorf("%w: target %d", ErrBadSample, i)
		}
	}
	return nil
}

// splitIndices shuffles sample indices once and holds out the validation
// fraction. At least one sample always remains in the training split.
func splitIndices(n int, valSplit float64, rng *rand.Rand) (train, val []int) {
	idx := rng.Perm(n)
	valCount := int(float64(n) * valSplit)
	if valCount >= n {
		valCount = n - 1
	}
	return idx[valCount:], idx[:valCount]
}

// evaluateAccuracy computes the within-tolerance fraction on the
// validation split, falling back to the training split when the dataset
// is too small to hold anything out.
func evaluateAccuracy(net *Network, cfg Config, inputs [][]float64, targets []float64, valIdx, trainIdx []int) float64 {
	idx := valIdx
	if len(idx) == 0 {
		idx = trainIdx
	}

	var hits int
	for _, si := range idx {
		y, err := net.Predict(inputs[si])
		if err != nil {
			continue
		}
		if math.Abs(y-targets[si]) <= cfg.Tolerance {
			hits++
		}
	}
	return float64(hits) / float64(len(idx))
}

// scratch holds the per-run transient buffers: activations, dropout mask,
// and gradient accumulators. Allocating them once per run keeps the inner
// loop allocation-free; everything is released together when the run ends.
type scratch struct {
	z1, a1 *mat.VecDense // first dense layer pre/post activation
	mask   []float64     // dropout keep-scales applied to a1
	z2, a2 *mat.VecDense // second dense layer pre/post activation

	gw1 *mat.Dense
	gb1 *mat.VecDense
	gw2 *mat.Dense
	gb2 *mat.VecDense
	gw3 *mat.Dense
	gb3 *mat.VecDense

	dz2 []float64
}

func newScratch(cfg Config) *scratch {
	return &scratch{
		z1:   mat.NewVecDense(cfg.Hidden1, nil),
		a1:   mat.NewVecDense(cfg.Hidden1, nil),
		mask: make([]float64, cfg.Hidden1),
		z2:   mat.NewVecDense(cfg.Hidden2, nil),
		a2:   mat.NewVecDense(cfg.Hidden2, nil),
		gw1:  mat.NewDense(cfg.Hidden1, cfg.InputSize, nil),
		gb1:  mat.NewVecDense(cfg.Hidden1, nil),
		gw2:  mat.NewDense(cfg.Hidden2, cfg.Hidden1, nil),
		gb2:  mat.NewVecDense(cfg.Hidden2, nil),
		gw3:  mat.NewDense(1, cfg.Hidden2, nil),
		gb3:  mat.NewVecDense(1, nil),
		dz2:  make([]float64, cfg.Hidden2),
	}
}

// gradSlices returns the gradient accumulators in the same fixed order as
// Network.params.
func (s *scratch) gradSlices() [][]float64 {
	return [][]float64{
		s.gw1.RawMatrix().Data,
		s.gb1.RawVector().Data,
		s.gw2.RawMatrix().Data,
		s.gb2.RawVector().Data,
		s.gw3.RawMatrix().Data,
		s.gb3.RawVector().Data,
	}
}

func (s *scratch) zeroGrads() {
	for _, g := range s.gradSlices() {
		for i := range g {
			g[i] = 0
		}
	}
}

func (s *scratch) scaleGrads(f float64) {
	for _, g := range s.gradSlices() {
		for i := range g {
			g[i] *= f
		}
	}
}

// backprop runs one forward pass with dropout, accumulates gradients for
// the sample into the scratch buffers, and returns the squared error.
func backprop(net *Network, cfg Config, input []float64, target float64, rng *rand.Rand, s *scratch) float64 {
	x := mat.NewVecDense(len(input), input)

	// Forward: dense 1 + ReLU + inverted dropout.
	s.z1.MulVec(net.w1, x)
	s.z1.AddVec(s.z1, net.b1)
	keepScale := 1.0 / (1.0 - cfg.DropoutRate)
	a1raw := s.a1.RawVector().Data
	z1raw := s.z1.RawVector().Data
	for i, z := range z1raw {
		h := z
		if h < 0 {
			h = 0
		}
		if cfg.DropoutRate > 0 && rng.Float64() < cfg.DropoutRate {
			s.mask[i] = 0
		} else {
			s.mask[i] = keepScale
		}
		a1raw[i] = h * s.mask[i]
	}

	// Forward: dense 2 + ReLU.
	s.z2.MulVec(net.w2, s.a1)
	s.z2.AddVec(s.z2, net.b2)
	a2raw := s.a2.RawVector().Data
	z2raw := s.z2.RawVector().Data
	for i, z := range z2raw {
		if z < 0 {
			a2raw[i] = 0
		} else {
			a2raw[i] = z
		}
	}

	// Forward: dense 3 + sigmoid.
	z3 := mat.Dot(net.w3.RowView(0), s.a2) + net.b3.AtVec(0)
	y := sigmoid(z3)

	diff := y - target
	loss := diff * diff

	// Backward: d(MSE)/dz3 through the sigmoid.
	dz3 := 2 * diff * y * (1 - y)

	gw3raw := s.gw3.RawMatrix().Data
	w3raw := net.w3.RawMatrix().Data
	for i := range gw3raw {
		gw3raw[i] += dz3 * a2raw[i]
	}
	s.gb3.SetVec(0, s.gb3.AtVec(0)+dz3)

	// Backward through dense 2.
	for j := range s.dz2 {
		if z2raw[j] > 0 {
			s.dz2[j] = dz3 * w3raw[j]
		} else {
			s.dz2[j] = 0
		}
	}
	gb2raw := s.gb2.RawVector().Data
	for j, d := range s.dz2 {
		if d == 0 {
			continue
		}
		gb2raw[j] += d
		for i := 0; i < cfg.Hidden1; i++ {
			s.gw2.Set(j, i, s.gw2.At(j, i)+d*a1raw[i])
		}
	}

	// Backward through dropout and dense 1.
	gb1raw := s.gb1.RawVector().Data
	for i := 0; i < cfg.Hidden1; i++ {
		if s.mask[i] == 0 || z1raw[i] <= 0 {
			continue
		}
		var da1 float64
		for j, d := range s.dz2 {
			if d != 0 {
				da1 += d * net.w2.At(j, i)
			}
		}
		dz1 := da1 * s.mask[i]
		if dz1 == 0 {
			continue
		}
		gb1raw[i] += dz1
		for k, xv := range input {
			s.gw1.Set(i, k, s.gw1.At(i, k)+dz1*xv)
		}
	}

	return loss
}
