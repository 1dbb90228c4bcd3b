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
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/sara/pkg/ux"
	"github.com/AleutianAI/sara/services/sara/graph"
	"github.com/AleutianAI/sara/services/sara/model"
	"github.com/AleutianAI/sara/services/sara/repository"
	"github.com/AleutianAI/sara/services/sara/traverse"
)

// exactArgs is cobra.ExactArgs reporting a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError(err)
		}
		return nil
	}
}

// roots returns the repositories to read: positional paths when given,
// otherwise the configured (or -r) repositories.
func (a *app) roots(args []string) []string {
	if len(args) > 0 {
		return args
	}
	return a.cfg.Repositories.Paths
}

func (a *app) filter() repository.Filter {
	return repository.Filter{Include: a.cfg.Scan.Include, Exclude: a.cfg.Scan.Exclude}
}

// newScanner creates a working-tree scanner from the configuration.
func (a *app) newScanner() (*repository.Scanner, error) {
	opts := []repository.ScannerOption{
		repository.WithFilter(a.filter()),
		repository.WithScanLogger(a.log()),
	}
	if a.cfg.Scan.Workers > 0 {
		opts = append(opts, repository.WithScanWorkers(a.cfg.Scan.Workers))
	}
	if c := a.recordCache(); c != nil {
		opts = append(opts, repository.WithCache(c))
	}
	s, err := repository.NewScanner(opts...)
	if err != nil {
		return nil, usageError(err)
	}
	return s, nil
}

// openGit discovers the git repository holding the first root.
func (a *app) openGit(args []string) (*repository.GitReader, error) {
	roots := a.roots(args)
	path := "."
	if len(roots) > 0 {
		path = roots[0]
	}
	opts := []repository.GitOption{
		repository.WithGitFilter(a.filter()),
		repository.WithGitLogger(a.log()),
	}
	if c := a.recordCache(); c != nil {
		opts = append(opts, repository.WithGitCache(c))
	}
	return repository.DiscoverGit(path, opts...)
}

// scanRecords reads records from the working tree under a spinner.
func (a *app) scanRecords(ctx context.Context, roots []string) ([]model.Record, error) {
	scanner, err := a.newScanner()
	if err != nil {
		return nil, err
	}
	spin := ux.NewSpinner(a.printer, "Scanning documents")
	spin.Start()
	records, err := scanner.Scan(ctx, roots...)
	spin.Stop()
	if err != nil {
		return nil, err
	}
	a.log().Info("documents scanned", slog.Int("records", len(records)), slog.Any("roots", roots))
	return records, nil
}

// gitRecords reads records from a git revision under a spinner.
func (a *app) gitRecords(ctx context.Context, reader *repository.GitReader, ref string) ([]model.Record, error) {
	spin := ux.NewSpinner(a.printer, fmt.Sprintf("Reading %s", ref))
	spin.Start()
	records, err := reader.Records(ctx, ref)
	spin.Stop()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", ref, err)
	}
	a.log().Info("revision read", slog.String("ref", ref), slog.Int("records", len(records)))
	return records, nil
}

// buildGraph builds a knowledge graph from records, reporting build
// phases on the spinner.
func (a *app) buildGraph(ctx context.Context, records []model.Record, opts ...graph.BuilderOption) (*graph.BuildResult, error) {
	spin := ux.NewSpinner(a.printer, "Building knowledge graph")
	spin.Start()
	defer spin.Stop()

	base := []graph.BuilderOption{
		graph.WithLogger(a.log()),
		graph.WithProgressCallback(func(p graph.BuildProgress) {
			spin.UpdateMessage(fmt.Sprintf("Building knowledge graph (%s, %d/%d items)",
				p.Phase, p.NodesCreated, p.RecordsTotal))
		}),
	}
	if a.cfg.Scan.Workers > 0 {
		base = append(base, graph.WithWorkerCount(a.cfg.Scan.Workers))
	}
	return graph.NewBuilder(append(base, opts...)...).Build(ctx, records)
}

// loadGraph scans roots and builds the graph in one step.
func (a *app) loadGraph(ctx context.Context, args []string) (*graph.KnowledgeGraph, error) {
	records, err := a.scanRecords(ctx, a.roots(args))
	if err != nil {
		return nil, err
	}
	result, err := a.buildGraph(ctx, records)
	if err != nil {
		return nil, err
	}
	return result.Graph, nil
}

// lookup finds id in g. A miss with close matches prints them and fails
// silently.
func (a *app) lookup(g *graph.KnowledgeGraph, id string) (*model.Item, error) {
	item, err := traverse.LookupOrSuggest(g, id)
	if err == nil {
		return item, nil
	}
	var nf *traverse.NotFoundError
	if errors.As(err, &nf) && len(nf.Suggestions) > 0 {
		a.printer.Error(fmt.Sprintf("Item not found: %s", nf.ID))
		a.printer.Info("Did you mean: " + strings.Join(nf.Suggestions, ", ") + "?")
		return nil, &ExitError{Code: exitFailure, Err: errSilent}
	}
	return nil, err
}
