// UrbanPulse - Predictive Operations Core for the Simulated City Dashboard
// Copyright 2026 The UrbanPulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/urbanpulse/urbanpulse

// Package api exposes the UrbanPulse HTTP surface using the Chi router.
//
// The API serves the dashboard's predictive workflow: training lifecycle
// control per model domain, live training progress over WebSocket, point
// predictions with operational advisories, and the durable simulation log.
// All JSON responses share a common envelope with status, data, metadata
// and an optional error block.
package api
