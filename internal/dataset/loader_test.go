// UrbanPulse - Predictive Operations Core for the Simulated City Dashboard
// Copyright 2026 The UrbanPulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/urbanpulse/urbanpulse

package dataset

import (
	"context"
	"errors"
	"testing"

	"github.com/urbanpulse/urbanpulse/internal/forecast"
)

func TestLoaderSamples(t *testing.T) {
	t.Parallel()

	tests := []struct {
		domain   forecast.Domain
		labelMax float64
		// feature bounds per position in raw domain units
		featureMax [3]float64
	}{
		{domain: forecast.DomainTraffic, labelMax: 100, featureMax: [3]float64{23, 6, 1}},
		{domain: forecast.DomainEnergy, labelMax: 12000, featureMax: [3]float64{23, 45, 1}},
	}

	for _, tt := range tests {
		t.Run(string(tt.domain), func(t *testing.T) {
			t.Parallel()

			l := NewLoader()
			samples, err := l.Samples(context.Background(), tt.domain)
			if err != nil {
				t.Fatalf("Samples() error = %v", err)
			}
			if len(samples) == 0 {
				t.Fatal("Samples() returned an empty dataset")
			}

			for i, s := range samples {
				if s.Label < 0 || s.Label > tt.labelMax {
					t.Errorf("sample %d: label %f outside [0, %f]", i, s.Label, tt.labelMax)
				}
				for j, f := range s.Features {
					if f < 0 || f > tt.featureMax[j] {
						t.Errorf("sample %d: feature %d = %f outside [0, %f]", i, j, f, tt.featureMax[j])
					}
				}
			}
		})
	}
}

func TestLoaderSamplesReturnsCopy(t *testing.T) {
	t.Parallel()

	l := NewLoader()
	first, err := l.Samples(context.Background(), forecast.DomainTraffic)
	if err != nil {
		t.Fatalf("Samples() error = %v", err)
	}

	first[0].Label = -999

	second, err := l.Samples(context.Background(), forecast.DomainTraffic)
	if err != nil {
		t.Fatalf("second Samples() error = %v", err)
	}
	if second[0].Label == -999 {
		t.Error("Samples() exposes the cached slice to mutation")
	}
}

func TestLoaderUnknownDomain(t *testing.T) {
	t.Parallel()

	l := NewLoader()
	if _, err := l.Samples(context.Background(), "water"); !errors.Is(err, forecast.ErrUnknownDomain) {
		t.Errorf("Samples(water) error = %v, want %v", err, forecast.ErrUnknownDomain)
	}
	if _, err := l.Summarize(context.Background(), "water"); !errors.Is(err, forecast.ErrUnknownDomain) {
		t.Errorf("Summarize(water) error = %v, want %v", err, forecast.ErrUnknownDomain)
	}
}

func TestLoaderSummarize(t *testing.T) {
	t.Parallel()

	l := NewLoader()
	sum, err := l.Summarize(context.Background(), forecast.DomainEnergy)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	if sum.Domain != forecast.DomainEnergy {
		t.Errorf("Domain = %q, want energy", sum.Domain)
	}
	if sum.SampleCount == 0 {
		t.Fatal("SampleCount = 0")
	}
	if sum.LabelMin > sum.LabelMean || sum.LabelMean > sum.LabelMax {
		t.Errorf("label stats inconsistent: min=%f mean=%f max=%f", sum.LabelMin, sum.LabelMean, sum.LabelMax)
	}
}
