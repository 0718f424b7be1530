// UrbanPulse - Predictive Operations Core for the Simulated City Dashboard
// Copyright 2026 The UrbanPulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/urbanpulse/urbanpulse

// Package simstore provides the durable, append-only log of prediction
// events, backed by BadgerDB. Records are immutable once written; the
// store supports append, indexed range reads, and full clear, and survives
// process restarts.
package simstore

import (
	"errors"
	"time"
)

// Config holds simulation store configuration.
type Config struct {
	// Path is the directory where BadgerDB stores its files.
	// Should be on a durable filesystem (not tmpfs). Required unless
	// InMemory is set.
	Path string

	// InMemory runs BadgerDB without disk persistence. Intended for tests.
	InMemory bool

	// SyncWrites forces fsync after every append for maximum durability.
	SyncWrites bool

	// GCInterval is the time between value-log garbage collection runs.
	GCInterval time.Duration

	// GCRatio is the rewrite threshold for value-log garbage collection.
	GCRatio float64

	// SequenceBandwidth is the size of the id lease band. Larger bands
	// mean fewer sequence writes; ids may skip ahead by up to this much
	// after a restart but always stay unique and increasing.
	SequenceBandwidth uint64
}

// DefaultConfig returns production defaults.
func DefaultConfig() *Config {
	return &Config{
		Path:              "/data/simulations",
		SyncWrites:        true,
		GCInterval:        30 * time.Minute,
		GCRatio:           0.5,
		SequenceBandwidth: 128,
	}
}

// Validate checks the configuration for usability.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("nil config")
	}
	if c.Path == "" && !c.InMemory {
		return errors.New("store path is required")
	}
	if c.GCRatio <= 0 || c.GCRatio >= 1 {
		return errors.New("gc ratio must be in (0, 1)")
	}
	if c.SequenceBandwidth == 0 {
		c.SequenceBandwidth = 128
	}
	return nil
}
