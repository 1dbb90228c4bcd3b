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
	"fmt"
	"log/slog"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/sara/services/sara/graph"
	"github.com/AleutianAI/sara/services/sara/model"
	"github.com/AleutianAI/sara/services/sara/report"
	"github.com/AleutianAI/sara/services/sara/repository"
	"github.com/AleutianAI/sara/services/sara/validate"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

type validateFlags struct {
	strictOrphans bool
	format        string
	watch         bool
	at            string
	keepGoing     bool
}

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// newValidateCommand creates "sara validate".
func newValidateCommand(a *app) *cobra.Command {
	var flags validateFlags

	cmd := &cobra.Command{
		Use:   "validate [path...]",
		Short: "Check the knowledge graph for structural problems",
		Long: `Build the knowledge graph and check it for broken references,
circular references, orphans, invalid relationships and metadata
problems.

The command exits with status 1 when any error is found. Orphans are
warnings unless --strict-orphans is set.

Examples:
  sara validate
  sara validate docs/ --strict-orphans --format json
  sara validate --at v1.2.0
  sara validate --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, a, &flags, args)
		},
	}

	cmd.Flags().BoolVar(&flags.strictOrphans, "strict-orphans", false, "Report orphan items as errors")
	cmd.Flags().BoolVarP(&flags.watch, "watch", "w", false, "Re-validate whenever a document changes")
	cmd.Flags().StringVar(&flags.at, "at", "", "Validate a git revision instead of the working tree")
	cmd.Flags().BoolVar(&flags.keepGoing, "keep-going", false, "Report duplicate identifiers as findings instead of stopping the build")
	addFormatFlag(cmd, &flags.format)
	cmd.MarkFlagsMutuallyExclusive("watch", "at")
	return cmd
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func runValidate(cmd *cobra.Command, a *app, flags *validateFlags, args []string) error {
	renderer, err := a.renderer(cmd, flags.format)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("strict-orphans") {
		a.cfg.Validation.StrictOrphans = flags.strictOrphans
	}
	ctx := cmd.Context()
	opts := []graph.BuilderOption{graph.WithFailOnDuplicate(!flags.keepGoing)}

	if flags.watch {
		return a.watchValidate(ctx, renderer, args, opts)
	}

	var records []model.Record
	if flags.at != "" {
		reader, err := a.openGit(args)
		if err != nil {
			return err
		}
		records, err = a.gitRecords(ctx, reader, flags.at)
		if err != nil {
			return err
		}
	} else {
		records, err = a.scanRecords(ctx, a.roots(args))
		if err != nil {
			return err
		}
	}

	rep, err := a.validateRecords(ctx, records, opts...)
	if err != nil {
		return err
	}
	if err := renderer.Validation(rep); err != nil {
		return err
	}
	if !rep.IsValid() {
		return &ExitError{Code: exitFailure, Err: errSilent}
	}
	return nil
}

// validateRecords builds and validates records.
//
// # Description
//
// Fatal build errors that describe the documents (a duplicate
// identifier, a malformed record) are turned into a one-finding report
// so they render like any other validation error. Other build errors are
// returned.
func (a *app) validateRecords(ctx context.Context, records []model.Record, opts ...graph.BuilderOption) (*validate.Report, error) {
	result, err := a.buildGraph(ctx, records, opts...)
	if err != nil {
		finding, ok := validate.FindingFromBuildError(err)
		if !ok {
			return nil, err
		}
		a.log().Debug("build failed, reporting as finding", slog.String("error", err.Error()))
		return &validate.Report{
			Findings:    []validate.Finding{finding},
			ItemsByKind: map[model.Kind]int{},
		}, nil
	}
	return a.validator().Validate(ctx, result.Graph), nil
}

func (a *app) validator() *validate.Validator {
	return validate.New(
		validate.WithConfig(validate.Config{
			StrictOrphans:       a.cfg.Validation.StrictOrphans,
			AllowedCustomFields: a.cfg.Validation.AllowedCustomFields,
		}),
		validate.WithParallelism(runtime.NumCPU()),
	)
}

// watchValidate validates once, then again after every batch of
// document changes until ctx is canceled.
func (a *app) watchValidate(ctx context.Context, renderer *report.Renderer, args []string, opts []graph.BuilderOption) error {
	roots := a.roots(args)
	once := func() {
		records, err := a.scanRecords(ctx, roots)
		if err == nil {
			var rep *validate.Report
			if rep, err = a.validateRecords(ctx, records, opts...); err == nil {
				err = renderer.Validation(rep)
			}
		}
		if err != nil && ctx.Err() == nil {
			a.printer.Error(err.Error())
		}
	}

	once()

	watcher, err := repository.NewWatcher(roots, func(changes []repository.Change) {
		for _, c := range changes {
			a.log().Info("document changed", slog.String("path", c.Path), slog.String("op", c.Op.String()))
		}
		a.printer.Muted(fmt.Sprintf("%d document(s) changed, re-validating", len(changes)))
		once()
	}, &repository.WatcherOptions{Filter: a.filter(), Logger: a.log()})
	if err != nil {
		return err
	}
	defer watcher.Stop()

	if err := watcher.Start(ctx); err != nil {
		return err
	}
	a.printer.Muted("Watching for changes, press Ctrl+C to stop")
	<-ctx.Done()
	return nil
}
