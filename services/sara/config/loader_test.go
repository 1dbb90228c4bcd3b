// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, []string{"."}, cfg.Repositories.Paths)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.True(t, cfg.Cache.Enabled)
	assert.NoError(t, Validate(cfg))
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sara.yaml")
	writeFile(t, path, `
repositories:
  paths: [docs, ../shared-reqs]
validation:
  strict_orphans: true
  allowed_custom_fields: [owner, priority]
scan:
  exclude: ["**/drafts/**"]
output:
  format: json
logging:
  level: debug
telemetry:
  metrics_textfile: /tmp/sara.prom
`)

	cfg, used, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, []string{"docs", "../shared-reqs"}, cfg.Repositories.Paths)
	assert.True(t, cfg.Validation.StrictOrphans)
	assert.Equal(t, []string{"owner", "priority"}, cfg.Validation.AllowedCustomFields)
	assert.Equal(t, []string{"**/drafts/**"}, cfg.Scan.Exclude)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/tmp/sara.prom", cfg.Telemetry.MetricsTextfile)

	// Keys absent from the file keep their defaults.
	assert.True(t, cfg.Output.Colors)
	assert.True(t, cfg.Cache.Enabled)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, _, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, ErrNotFound)

	tests := []struct {
		name    string
		content string
	}{
		{"unknown key", "validation:\n  strict_orphan: true\n"},
		{"bad yaml", "repositories: [\n"},
		{"bad format", "output:\n  format: html\n"},
		{"bad level", "logging:\n  level: loud\n"},
		{"negative workers", "scan:\n  workers: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			writeFile(t, path, tt.content)
			_, _, err := Load(path)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sara.yaml")
	writeFile(t, path, "")

	cfg, _, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Output, cfg.Output)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := ApplyEnv(&cfg, envMap(map[string]string{
		"SARA_REPOSITORIES":     "a, b ,,c",
		"SARA_STRICT_ORPHANS":   "true",
		"SARA_COLORS":           "0",
		"SARA_LOG_LEVEL":        "error",
		"SARA_METRICS_TEXTFILE": "/var/lib/node_exporter/sara.prom",
		"OTHER_VAR":             "ignored",
	}))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, cfg.Repositories.Paths)
	assert.True(t, cfg.Validation.StrictOrphans)
	assert.False(t, cfg.Output.Colors)
	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, "/var/lib/node_exporter/sara.prom", cfg.Telemetry.MetricsTextfile)
	assert.True(t, cfg.Output.Emojis)
}

func TestApplyEnv_InvalidBool(t *testing.T) {
	cfg := Default()
	err := ApplyEnv(&cfg, envMap(map[string]string{
		"SARA_TRACE":     "maybe",
		"SARA_LOG_JSON":  "sometimes",
		"SARA_LOG_LEVEL": "info",
	}))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "SARA_TRACE")
	assert.Contains(t, err.Error(), "SARA_LOG_JSON")
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sara.yaml")
	require.NoError(t, WriteDefault(path))

	cfg, used, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, Default(), cfg)

	assert.ErrorIs(t, WriteDefault(path), fs.ErrExist)
}

func TestCachePath(t *testing.T) {
	assert.Equal(t, "/x/cache", CacheConfig{Path: "/x/cache"}.CachePath())
	assert.Equal(t, filepath.Join("sara", "records"), filepath.Join(filepath.Base(filepath.Dir(CacheConfig{}.CachePath())), "records"))
}
