// UrbanPulse - Predictive Operations Core for the Simulated City Dashboard
// Copyright 2026 The UrbanPulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/urbanpulse/urbanpulse

package forecast

import "math"

// Feature divisors and output scales are fixed domain constants.
//
// Traffic features: hour/24, dayOfWeek/7, weather flag passthrough.
// Energy features: hour/24, temperature/35, weekday flag passthrough.
var featureDivisors = map[Domain]Features{
	DomainTraffic: {24, 7, 1},
	DomainEnergy:  {24, 35, 1},
}

// outputScales maps the model's [0,1]-bounded output back to domain units.
var outputScales = map[Domain]float64{
	DomainTraffic: 100,   // congestion percentage
	DomainEnergy:  12000, // demand in kWh
}

// Normalize scales raw features into the model's [0,1] working range.
// Inputs are expected pre-validated by the caller.
func Normalize(d Domain, raw Features) Features {
	div := featureDivisors[d]
	var out Features
	for i := range raw {
		out[i] = raw[i] / div[i]
	}
	return out
}

// NormalizeLabel scales a raw label into the model's [0,1] target range.
func NormalizeLabel(d Domain, label float64) float64 {
	return label / outputScales[d]
}

// Denormalize converts a [0,1]-bounded model output to domain units,
// rounded to the nearest integer.
func Denormalize(d Domain, out float64) int {
	return int(math.Round(out * outputScales[d]))
}

// OutputScale returns the domain's output denormalization factor.
func OutputScale(d Domain) float64 {
	return outputScales[d]
}
