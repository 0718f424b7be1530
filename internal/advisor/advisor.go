// UrbanPulse - Predictive Operations Core for the Simulated City Dashboard
// Copyright 2026 The UrbanPulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/urbanpulse/urbanpulse

// Package advisor maps a (current, predicted) value pair to an ordered
// list of operational advisories.
//
// Advise is a pure function: identical inputs always produce an identical,
// identically ordered list. Advisories are produced fresh per call and are
// never persisted. Thresholds and scale factors are fixed domain constants.
package advisor

import "github.com/urbanpulse/urbanpulse/internal/forecast"

// Threshold constants per domain. The delta branches are exclusive of each
// other; the high-level branch is independent and additive.
const (
	trafficSurgeDelta    = 15  // predicted - current above this: congestion surge
	trafficDropDelta     = -10 // predicted - current below this: traffic easing
	trafficCriticalLevel = 80  // predicted congestion percentage

	energySurgeDelta    = 1500  // predicted - current above this: demand surge (kWh)
	energyDropDelta     = -1000 // predicted - current below this: demand drop (kWh)
	energyCriticalLevel = 9000  // predicted demand (kWh)
)

// Traffic advisories, most urgent first within each branch.
const (
	AdviceSignalOptimization = "Activate smart traffic light optimization"
	AdviceCommuterAlerts     = "Send congestion alerts to commuters"
	AdviceTransitDeployment  = "Deploy additional public transport units"
	AdviceSignalCycleCut     = "Reduce traffic light cycle times"
	AdviceExpressLanes       = "Open express lanes for faster flow"
	AdviceAlternativeRoutes  = "Suggest alternative routes via mobile app"
	AdviceStreetLighting     = "Adjust street lighting for better visibility"
)

// Energy advisories.
const (
	AdviceGridStorage       = "Activate grid storage reserves"
	AdviceSolarMaximization = "Maximize solar panel output"
	AdvicePreCooling        = "Pre-cool buildings to reduce peak load"
	AdviceBatteryStorage    = "Store excess energy in batteries"
	AdviceLoadDeferral      = "Schedule non-urgent industrial loads"
	AdviceConservationAlert = "Send energy conservation alerts"
	AdviceSmartThermostats  = "Adjust smart thermostat settings citywide"
)

// Advise evaluates the threshold rules for a domain and returns the
// matching advisories, most urgent first. An empty list is valid: no
// thresholds crossed. Unknown domains yield an empty list.
func Advise(d forecast.Domain, current, predicted int) []string {
	delta := predicted - current
	advisories := []string{}

	switch d {
	case forecast.DomainTraffic:
		if delta > trafficSurgeDelta {
			advisories = append(advisories,
				AdviceSignalOptimization,
				AdviceCommuterAlerts,
				AdviceTransitDeployment,
			)
		} else if delta < trafficDropDelta {
			advisories = append(advisories,
				AdviceSignalCycleCut,
				AdviceExpressLanes,
			)
		}

		// Independent of the delta branch; both may fire.
		if predicted > trafficCriticalLevel {
			advisories = append(advisories,
				AdviceAlternativeRoutes,
				AdviceStreetLighting,
			)
		}

	case forecast.DomainEnergy:
		if delta > energySurgeDelta {
			advisories = append(advisories,
				AdviceGridStorage,
				AdviceSolarMaximization,
				AdvicePreCooling,
			)
		} else if delta < energyDropDelta {
			advisories = append(advisories,
				AdviceBatteryStorage,
				AdviceLoadDeferral,
			)
		}

		if predicted > energyCriticalLevel {
			advisories = append(advisories,
				AdviceConservationAlert,
				AdviceSmartThermostats,
			)
		}
	}

	return advisories
}
