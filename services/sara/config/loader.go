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
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var (
	// ErrNotFound indicates an explicitly named config file does not exist.
	ErrNotFound = errors.New("config file not found")

	// ErrInvalid indicates the config file or environment holds a bad value.
	ErrInvalid = errors.New("invalid configuration")
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SARA_"

// LookupFunc reads one environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// Load builds the effective configuration.
//
// Description:
//
//	Starts from Default, overlays the YAML file and then SARA_*
//	environment variables. A ".env" file next to the config file (or in
//	the working directory) is loaded into the process environment first;
//	it never overrides variables that are already set.
//
// Inputs:
//
//	path - Config file. Empty means DefaultFileName in the working
//	       directory, which may be absent.
//
// Outputs:
//
//	Config - The merged, validated configuration.
//	string - The file actually read, empty if none.
//	error - ErrNotFound for a missing explicit path; ErrInvalid for
//	        undecodable YAML, unknown keys or out-of-range values.
func Load(path string) (Config, string, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFileName
	}

	loadDotEnv(filepath.Join(filepath.Dir(path), ".env"))

	cfg := Default()
	used := ""

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(bytes.NewReader(data), &cfg); err != nil {
			return Config{}, "", fmt.Errorf("%w: %s: %w", ErrInvalid, path, err)
		}
		used = path
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	case errors.Is(err, fs.ErrNotExist):
		return Config{}, "", fmt.Errorf("%w: %s", ErrNotFound, path)
	default:
		return Config{}, "", fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, "", err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, "", err
	}
	return cfg, used, nil
}

// dotEnvOnce guards the process environment; .env is read at most once.
var dotEnvOnce sync.Once

func loadDotEnv(path string) {
	dotEnvOnce.Do(func() {
		// A missing .env is the common case.
		_ = godotenv.Load(path)
	})
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overlays SARA_* variables onto cfg.
//
// List variables are comma separated. Booleans accept strconv.ParseBool
// forms.
//
//	SARA_REPOSITORIES       repositories.paths
//	SARA_STRICT_ORPHANS     validation.strict_orphans
//	SARA_ALLOWED_FIELDS     validation.allowed_custom_fields
//	SARA_SCAN_INCLUDE       scan.include
//	SARA_SCAN_EXCLUDE       scan.exclude
//	SARA_OUTPUT_FORMAT      output.format
//	SARA_COLORS             output.colors
//	SARA_EMOJIS             output.emojis
//	SARA_CACHE_ENABLED      cache.enabled
//	SARA_CACHE_PATH         cache.path
//	SARA_LOG_LEVEL          logging.level
//	SARA_LOG_JSON           logging.json
//	SARA_LOG_DIR            logging.dir
//	SARA_TRACE              telemetry.trace
//	SARA_METRICS_TEXTFILE   telemetry.metrics_textfile
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	env := envReader{lookup: lookup}

	env.list("REPOSITORIES", &cfg.Repositories.Paths)
	env.boolean("STRICT_ORPHANS", &cfg.Validation.StrictOrphans)
	env.list("ALLOWED_FIELDS", &cfg.Validation.AllowedCustomFields)
	env.list("SCAN_INCLUDE", &cfg.Scan.Include)
	env.list("SCAN_EXCLUDE", &cfg.Scan.Exclude)
	env.str("OUTPUT_FORMAT", &cfg.Output.Format)
	env.boolean("COLORS", &cfg.Output.Colors)
	env.boolean("EMOJIS", &cfg.Output.Emojis)
	env.boolean("CACHE_ENABLED", &cfg.Cache.Enabled)
	env.str("CACHE_PATH", &cfg.Cache.Path)
	env.str("LOG_LEVEL", &cfg.Logging.Level)
	env.boolean("LOG_JSON", &cfg.Logging.JSON)
	env.str("LOG_DIR", &cfg.Logging.Dir)
	env.boolean("TRACE", &cfg.Telemetry.Trace)
	env.str("METRICS_TEXTFILE", &cfg.Telemetry.MetricsTextfile)

	return errors.Join(env.errs...)
}

type envReader struct {
	lookup LookupFunc
	errs   []error
}

func (e *envReader) get(name string) (string, bool) {
	v, ok := e.lookup(EnvPrefix + name)
	return strings.TrimSpace(v), ok
}

func (e *envReader) str(name string, dst *string) {
	if v, ok := e.get(name); ok {
		*dst = v
	}
}

func (e *envReader) boolean(name string, dst *bool) {
	v, ok := e.get(name)
	if !ok || v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%w: %s%s=%q is not a boolean", ErrInvalid, EnvPrefix, name, v))
		return
	}
	*dst = b
}

func (e *envReader) list(name string, dst *[]string) {
	v, ok := e.get(name)
	if !ok {
		return
	}
	var out []string
	for part := range strings.SplitSeq(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}

var (
	configValidator     *validator.Validate
	configValidatorOnce sync.Once
)

// Validate checks value ranges.
func Validate(cfg Config) error {
	configValidatorOnce.Do(func() {
		configValidator = validator.New(validator.WithRequiredStructEnabled())
	})
	if err := configValidator.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s: %q fails %q", ErrInvalid, fe.Namespace(), fmt.Sprint(fe.Value()), fe.Tag())
		}
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// WriteDefault writes the default configuration to path.
//
// Outputs:
//
//	error - fs.ErrExist if path already exists, or a write failure.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s: %w", path, fs.ErrExist)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
