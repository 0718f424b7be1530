// UrbanPulse - Predictive Operations Core for the Simulated City Dashboard
// Copyright 2026 The UrbanPulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/urbanpulse/urbanpulse

// Package dataset supplies the fixed, pre-labeled training sample sets
// for each domain. The datasets are compiled into the binary; loading
// never touches the filesystem at runtime.
package dataset

import (
	"context"
	"embed"
	"fmt"
	"sync"

	"github.com/goccy/go-json"

	"github.com/urbanpulse/urbanpulse/internal/forecast"
)

//go:embed data/traffic.json data/energy.json
var dataFS embed.FS

// trafficSample mirrors one entry of data/traffic.json.
type trafficSample struct {
	Hour      float64 `json:"hour"`
	DayOfWeek float64 `json:"dayOfWeek"`
	Weather   float64 `json:"weather"`
	// Congestion is the label, a percentage in [0,100].
	Congestion float64 `json:"congestion"`
}

// energySample mirrors one entry of data/energy.json.
type energySample struct {
	Hour        float64 `json:"hour"`
	Temperature float64 `json:"temperature"`
	IsWeekday   float64 `json:"isWeekday"`
	// Demand is the label, in kWh.
	Demand float64 `json:"demand"`
}

// Loader parses the embedded datasets on first use and caches the result.
// It implements forecast.DataSource.
type Loader struct {
	mu    sync.Mutex
	cache map[forecast.Domain][]forecast.TrainingSample
}

// NewLoader creates an empty loader.
func NewLoader() *Loader {
	return &Loader{cache: make(map[forecast.Domain][]forecast.TrainingSample, 2)}
}

// Samples returns the domain's training set in raw domain units.
// The returned slice is a copy; callers may not mutate the cached data.
func (l *Loader) Samples(_ context.Context, d forecast.Domain) ([]forecast.TrainingSample, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cached, ok := l.cache[d]
	if !ok {
		loaded, err := loadDomain(d)
		if err != nil {
			return nil, err
		}
		l.cache[d] = loaded
		cached = loaded
	}

	out := make([]forecast.TrainingSample, len(cached))
	copy(out, cached)
	return out, nil
}

// Summary describes one domain's dataset for dashboard chart seeding.
type Summary struct {
	Domain      forecast.Domain `json:"domain"`
	SampleCount int             `json:"sample_count"`
	LabelMin    float64         `json:"label_min"`
	LabelMax    float64         `json:"label_max"`
	LabelMean   float64         `json:"label_mean"`
}

// Summarize returns aggregate statistics for a domain's dataset.
func (l *Loader) Summarize(ctx context.Context, d forecast.Domain) (Summary, error) {
	samples, err := l.Samples(ctx, d)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{Domain: d, SampleCount: len(samples)}
	if len(samples) == 0 {
		return sum, nil
	}

	sum.LabelMin = samples[0].Label
	sum.LabelMax = samples[0].Label
	var total float64
	for _, s := range samples {
		if s.Label < sum.LabelMin {
			sum.LabelMin = s.Label
		}
		if s.Label > sum.LabelMax {
			sum.LabelMax = s.Label
		}
		total += s.Label
	}
	sum.LabelMean = total / float64(len(samples))
	return sum, nil
}

// loadDomain parses one embedded dataset file.
func loadDomain(d forecast.Domain) ([]forecast.TrainingSample, error) {
	switch d {
	case forecast.DomainTraffic:
		raw, err := dataFS.ReadFile("data/traffic.json")
		if err != nil {
			return nil, fmt.Errorf("read traffic dataset: %w", err)
		}
		var file struct {
			TrainingData []trafficSample `json:"trainingData"`
		}
		if err := json.Unmarshal(raw, &file); err != nil {
			return nil, fmt.Errorf("parse traffic dataset: %w", err)
		}
		samples := make([]forecast.TrainingSample, len(file.TrainingData))
		for i, s := range file.TrainingData {
			samples[i] = forecast.TrainingSample{
				Features: forecast.Features{s.Hour, s.DayOfWeek, s.Weather},
				Label:    s.Congestion,
			}
		}
		return samples, nil

	case forecast.DomainEnergy:
		raw, err := dataFS.ReadFile("data/energy.json")
		if err != nil {
			return nil, fmt.Errorf("read energy dataset: %w", err)
		}
		var file struct {
			TrainingData []energySample `json:"trainingData"`
		}
		if err := json.Unmarshal(raw, &file); err != nil {
			return nil, fmt.Errorf("parse energy dataset: %w", err)
		}
		samples := make([]forecast.TrainingSample, len(file.TrainingData))
		for i, s := range file.TrainingData {
			samples[i] = forecast.TrainingSample{
				Features: forecast.Features{s.Hour, s.Temperature, s.IsWeekday},
				Label:    s.Demand,
			}
		}
		return samples, nil

	default:
		return nil, fmt.Errorf("%w: %q", forecast.ErrUnknownDomain, d)
	}
}
