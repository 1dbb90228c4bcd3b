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
	"github.com/spf13/cobra"

	"github.com/AleutianAI/sara/services/sara/report"
)

// newReportCommand creates "sara report" and its subcommands.
func newReportCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate traceability reports",
		Long: `Generate reports over the knowledge graph.

Subcommands:
  coverage  - Share of items with their required parents and children
  matrix    - Every item with its relationship targets

Examples:
  sara report coverage
  sara report matrix --format csv > matrix.csv`,
	}

	var coverageFormat, matrixFormat string

	coverage := &cobra.Command{
		Use:   "coverage [path...]",
		Short: "Report traceability coverage per item type",
		RunE: func(cmd *cobra.Command, args []string) error {
			renderer, err := a.renderer(cmd, coverageFormat)
			if err != nil {
				return err
			}
			g, err := a.loadGraph(cmd.Context(), args)
			if err != nil {
				return err
			}
			return renderer.Coverage(report.NewCoverage(g))
		},
	}
	addFormatFlag(coverage, &coverageFormat)

	matrix := &cobra.Command{
		Use:   "matrix [path...]",
		Short: "Print the traceability matrix",
		RunE: func(cmd *cobra.Command, args []string) error {
			renderer, err := a.renderer(cmd, matrixFormat)
			if err != nil {
				return err
			}
			g, err := a.loadGraph(cmd.Context(), args)
			if err != nil {
				return err
			}
			return renderer.Matrix(report.NewMatrix(g))
		},
	}
	addFormatFlag(matrix, &matrixFormat)

	cmd.AddCommand(coverage, matrix)
	return cmd
}
