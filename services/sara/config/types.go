// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads sara settings from sara.yaml, a .env overlay and
// SARA_* environment variables.
//
// Precedence, lowest first: built-in defaults, the YAML file, the
// environment. Command-line flags are applied by the caller on top.
package config

import (
	"os"
	"path/filepath"
)

// DefaultFileName is the configuration file looked up in the working
// directory when no explicit path is given.
const DefaultFileName = "sara.yaml"

// Config is the complete sara configuration.
type Config struct {
	// Repositories lists the document repositories to read.
	Repositories RepositoriesConfig `yaml:"repositories"`

	// Validation tunes the validator.
	Validation ValidationConfig `yaml:"validation"`

	// Scan selects which files are read.
	Scan ScanConfig `yaml:"scan"`

	// Output controls terminal rendering.
	Output OutputConfig `yaml:"output"`

	// Cache configures the parsed-record cache.
	Cache CacheConfig `yaml:"cache"`

	// Logging configures the structured logger.
	Logging LoggingConfig `yaml:"logging"`

	// Telemetry configures tracing and metrics export.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type RepositoriesConfig struct {
	Paths []string `yaml:"paths"`
}

type ValidationConfig struct {
	StrictOrphans       bool     `yaml:"strict_orphans"`
	AllowedCustomFields []string `yaml:"allowed_custom_fields,omitempty"`
}

type ScanConfig struct {
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`
	Workers int      `yaml:"workers" validate:"gte=0"`
}

type OutputConfig struct {
	Colors bool   `yaml:"colors"`
	Emojis bool   `yaml:"emojis"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json csv"`
}

type CacheConfig struct {
	Enabled bool `yaml:"enabled"`

	// Path is the cache directory. Empty means <user cache dir>/sara/records.
	Path string `yaml:"path,omitempty"`
}

type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `yaml:"json"`

	// Dir, when set, receives a JSON log file per day.
	Dir string `yaml:"dir,omitempty"`
}

type TelemetryConfig struct {
	// Trace prints spans to stderr.
	Trace bool `yaml:"trace"`

	// MetricsTextfile, when set, receives the metrics in Prometheus
	// text format on exit.
	MetricsTextfile string `yaml:"metrics_textfile,omitempty"`

	// StdoutMetrics also prints metrics to stderr on exit.
	StdoutMetrics bool `yaml:"stdout_metrics"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Repositories: RepositoriesConfig{Paths: []string{"."}},
		Output: OutputConfig{
			Colors: true,
			Emojis: true,
			Format: "text",
		},
		Cache:   CacheConfig{Enabled: true},
		Logging: LoggingConfig{Level: "warn"},
	}
}

// CachePath returns the effective cache directory.
func (c CacheConfig) CachePath() string {
	if c.Path != "" {
		return c.Path
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "sara", "records")
}
