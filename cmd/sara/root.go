// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/sara/pkg/logging"
	"github.com/AleutianAI/sara/pkg/ux"
	"github.com/AleutianAI/sara/services/sara/cache"
	"github.com/AleutianAI/sara/services/sara/config"
	"github.com/AleutianAI/sara/services/sara/telemetry"
)

// =============================================================================
// GLOBAL FLAGS
// =============================================================================

// globalFlags holds the persistent flags shared by every command.
type globalFlags struct {
	configPath      string
	repositories    []string
	logLevel        string
	noColor         bool
	noEmoji         bool
	noCache         bool
	trace           bool
	metricsTextfile string
}

// =============================================================================
// APPLICATION STATE
// =============================================================================

// app is the state shared by a single CLI invocation.
//
// setup fills it from configuration and flags before any command runs;
// close releases everything setup acquired.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	flags  globalFlags

	cfg       config.Config
	logger    *logging.Logger
	telemetry *telemetry.Provider
	printer   *ux.Printer

	// cache is opened lazily by recordCache.
	cache       *cache.RecordCache
	cacheFailed bool
}

// run builds the command tree, executes args and returns the exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{stdin: os.Stdin, stdout: stdout, stderr: stderr}
	root := newRootCommand(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	a.close(ctx)

	if err != nil && !errors.Is(err, errSilent) {
		a.reportError(err)
	}
	return exitCode(err)
}

// newRootCommand creates the sara command tree bound to a.
func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "sara",
		Short: "Requirements and architecture traceability knowledge graph",
		Long: `Sara manages architecture documents and requirements as one
interconnected knowledge graph.

Documents are Markdown files with YAML frontmatter declaring an id, a
type and relationships to other documents. Sara checks the graph for
broken links, cycles and orphans, walks traceability chains, reports
coverage and compares two git revisions.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.flags.configPath, "config", "c", "", "Configuration file (default ./sara.yaml)")
	pf.StringArrayVarP(&a.flags.repositories, "repository", "r", nil, "Repository path, repeatable")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.BoolVar(&a.flags.noColor, "no-color", false, "Disable colored output")
	pf.BoolVar(&a.flags.noEmoji, "no-emoji", false, "Disable emoji output")
	pf.BoolVar(&a.flags.noCache, "no-cache", false, "Do not use the parsed record cache")
	pf.BoolVar(&a.flags.trace, "trace", false, "Print trace spans to stderr")
	pf.StringVar(&a.flags.metricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file on exit")

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	root.AddCommand(
		newParseCommand(a),
		newValidateCommand(a),
		newQueryCommand(a),
		newReportCommand(a),
		newDiffCommand(a),
		newInitCommand(a),
		newEditCommand(a),
		newCacheCommand(a),
	)
	return root
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// setup loads configuration, applies flag overrides and starts logging
// and telemetry.
//
// # Description
//
// Precedence, lowest first: defaults, sara.yaml, SARA_* environment,
// command-line flags. The logger built here becomes the slog default so
// engine packages log through it.
//
// # Outputs
//
//   - error: ExitError with exitUsage for configuration problems.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, used, err := config.Load(a.flags.configPath)
	if err != nil {
		return usageError(err)
	}
	a.applyFlags(cmd, &cfg)
	if err := config.Validate(cfg); err != nil {
		return usageError(err)
	}
	a.cfg = cfg

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return usageError(err)
	}
	a.logger = logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.Logging.Dir,
		Service: "sara",
		JSON:    cfg.Logging.JSON,
		Output:  a.stderr,
	})
	slog.SetDefault(a.logger.Slog())
	if used != "" {
		a.logger.Debug("configuration loaded", slog.String("path", used))
	}

	tel, err := telemetry.Setup(cmd.Context(), telemetry.Config{
		ServiceVersion:  version,
		Trace:           cfg.Telemetry.Trace,
		StdoutMetrics:   cfg.Telemetry.StdoutMetrics,
		MetricsTextfile: cfg.Telemetry.MetricsTextfile,
		Writer:          a.stderr,
	})
	if err != nil {
		return fmt.Errorf("starting telemetry: %w", err)
	}
	a.telemetry = tel

	ux.InitPersonality(cfg.Output.Colors, cfg.Output.Emojis)
	a.printer = ux.NewPrinter(a.stdout, a.stderr, ux.GetPersonality())
	return nil
}

// applyFlags overlays explicitly set persistent flags onto cfg.
func (a *app) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if len(a.flags.repositories) > 0 {
		cfg.Repositories.Paths = a.flags.repositories
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = a.flags.logLevel
	}
	if a.flags.noColor {
		cfg.Output.Colors = false
	}
	if a.flags.noEmoji {
		cfg.Output.Emojis = false
	}
	if a.flags.noCache {
		cfg.Cache.Enabled = false
	}
	if a.flags.trace {
		cfg.Telemetry.Trace = true
	}
	if flags.Changed("metrics-textfile") {
		cfg.Telemetry.MetricsTextfile = a.flags.metricsTextfile
	}
}

// close flushes telemetry and releases the cache and log file. Errors
// are logged, never returned; the command result decides the exit code.
func (a *app) close(ctx context.Context) {
	if a.cache != nil {
		stats := a.cache.Stats()
		a.log().Debug("record cache",
			slog.Uint64("hits", stats.Hits),
			slog.Uint64("misses", stats.Misses),
			slog.Uint64("writes", stats.Writes))
		if err := a.cache.Close(); err != nil {
			a.log().Warn("closing record cache", slog.String("error", err.Error()))
		}
		a.cache = nil
	}
	if a.telemetry != nil {
		if err := a.telemetry.Shutdown(context.WithoutCancel(ctx)); err != nil {
			a.log().Warn("telemetry shutdown", slog.String("error", err.Error()))
		}
		a.telemetry = nil
	}
	if a.logger != nil {
		_ = a.logger.Close()
	}
}

// reportError prints a command failure. Setup may not have run, so the
// printer is created on demand.
func (a *app) reportError(err error) {
	pr := a.printer
	if pr == nil {
		pr = ux.NewPrinter(a.stdout, a.stderr, ux.Personality{Level: ux.PersonalityMachine})
	}
	pr.Error(err.Error())
}

func (a *app) log() *slog.Logger {
	if a.logger == nil {
		return slog.Default()
	}
	return a.logger.Slog()
}

// recordCache opens the parsed record cache on first use.
//
// A cache that cannot be opened, for example because another sara
// process holds its lock, is logged once and the run continues without
// it.
func (a *app) recordCache() *cache.RecordCache {
	if !a.cfg.Cache.Enabled || a.cacheFailed {
		return nil
	}
	if a.cache != nil {
		return a.cache
	}

	cfg := cache.DefaultConfig(a.cfg.Cache.CachePath())
	cfg.Logger = a.log()
	c, err := cache.Open(cfg)
	if err != nil {
		a.cacheFailed = true
		a.log().Warn("record cache unavailable", slog.String("error", err.Error()))
		return nil
	}
	a.cache = c
	return c
}
