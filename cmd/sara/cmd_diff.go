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

	"github.com/spf13/cobra"

	"github.com/AleutianAI/sara/services/sara/diff"
	"github.com/AleutianAI/sara/services/sara/graph"
	"github.com/AleutianAI/sara/services/sara/report"
	"github.com/AleutianAI/sara/services/sara/repository"
)

type diffFlags struct {
	format   string
	stat     bool
	exitCode bool
}

// newDiffCommand creates "sara diff".
func newDiffCommand(a *app) *cobra.Command {
	var flags diffFlags

	cmd := &cobra.Command{
		Use:   "diff REF1 REF2",
		Short: "Compare the knowledge graph at two git revisions",
		Long: `Build the knowledge graph at two git revisions of the repository
and print what changed between them: added, removed and modified items,
added and removed relationships, and links that broke or were repaired.

REF may be HEAD, a branch, a tag, or a full or abbreviated commit hash.
The repository is discovered from the first -r path or the working
directory.

Examples:
  sara diff v1.0 HEAD
  sara diff main feature/login --format json
  sara diff HEAD~1 HEAD --stat`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd, a, &flags, args[0], args[1])
		},
	}

	cmd.Flags().BoolVar(&flags.stat, "stat", false, "Print only summary counts")
	cmd.Flags().BoolVar(&flags.exitCode, "exit-code", false, "Exit with status 1 when the revisions differ")
	addFormatFlag(cmd, &flags.format)
	return cmd
}

func runDiff(cmd *cobra.Command, a *app, flags *diffFlags, ref1, ref2 string) error {
	renderer, err := a.renderer(cmd, flags.format)
	if err != nil {
		return err
	}
	reader, err := a.openGit(nil)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	before, err := a.graphAt(ctx, reader, ref1)
	if err != nil {
		return err
	}
	after, err := a.graphAt(ctx, reader, ref2)
	if err != nil {
		return err
	}

	delta := diff.Compute(before, after)

	switch {
	case flags.stat && renderer.Format() == report.FormatText:
		a.printer.Header(fmt.Sprintf("%s..%s", ref1, ref2))
		a.printer.Info(delta.Summary())
	case flags.stat:
		err = renderer.Delta(&diff.GraphDelta{Stats: delta.Stats})
	default:
		err = renderer.Delta(delta)
	}
	if err != nil {
		return err
	}

	if delta.IsEmpty() && renderer.Format() == report.FormatText {
		a.printer.Success("No changes detected")
	}
	if flags.exitCode && !delta.IsEmpty() {
		return &ExitError{Code: exitFailure, Err: errSilent}
	}
	return nil
}

// graphAt builds the graph of one revision. Duplicates in a historical
// revision are excluded rather than fatal, so a broken past commit can
// still be compared.
func (a *app) graphAt(ctx context.Context, reader *repository.GitReader, ref string) (*graph.KnowledgeGraph, error) {
	records, err := a.gitRecords(ctx, reader, ref)
	if err != nil {
		return nil, err
	}
	result, err := a.buildGraph(ctx, records, graph.WithFailOnDuplicate(false))
	if err != nil {
		return nil, fmt.Errorf("building %s: %w", ref, err)
	}
	return result.Graph, nil
}
