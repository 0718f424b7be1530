// UrbanPulse - Predictive Operations Core for the Simulated City Dashboard
// Copyright 2026 The UrbanPulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/urbanpulse/urbanpulse

package simstore

import "testing"

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:   "in-memory without path",
			mutate: func(c *Config) { c.Path = ""; c.InMemory = true },
		},
		{
			name:    "empty path on disk",
			mutate:  func(c *Config) { c.Path = "" },
			wantErr: true,
		},
		{
			name:    "gc ratio zero",
			mutate:  func(c *Config) { c.GCRatio = 0 },
			wantErr: true,
		},
		{
			name:    "gc ratio one",
			mutate:  func(c *Config) { c.GCRatio = 1 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigValidateDefaultsBandwidth(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.SequenceBandwidth = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.SequenceBandwidth == 0 {
		t.Error("Validate() left SequenceBandwidth at 0")
	}
}

func TestConfigValidateNil(t *testing.T) {
	t.Parallel()

	var cfg *Config
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() on nil config returned no error")
	}
}
