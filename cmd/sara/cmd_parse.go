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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/sara/services/sara/report"
)

// newParseCommand creates "sara parse".
func newParseCommand(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "parse [path...]",
		Short: "Parse documents and print knowledge graph statistics",
		Long: `Scan the repositories, build the knowledge graph and print its
statistics. Fatal build problems such as duplicate identifiers end the
command with a non-zero exit code.

Examples:
  sara parse
  sara parse docs/ --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			renderer, err := a.renderer(cmd, format)
			if err != nil {
				return err
			}
			g, err := a.loadGraph(cmd.Context(), args)
			if err != nil {
				return err
			}
			if renderer.Format() == report.FormatText {
				a.printer.Success(fmt.Sprintf("Parsed %d items", g.Len()))
			}
			return renderer.Stats(g.Stats())
		},
	}
	addFormatFlag(cmd, &format)
	return cmd
}

// addFormatFlag registers --format. An unset flag falls back to
// output.format from the configuration.
func addFormatFlag(cmd *cobra.Command, dst *string) {
	cmd.Flags().StringVarP(dst, "format", "f", "", "Output format: text, json, csv")
}

// renderer resolves the output format and creates a report renderer.
func (a *app) renderer(cmd *cobra.Command, format string) (*report.Renderer, error) {
	if !cmd.Flags().Changed("format") {
		format = a.cfg.Output.Format
	}
	f, err := report.ParseFormat(format)
	if err != nil {
		return nil, usageError(err)
	}
	return report.NewRenderer(a.printer, f), nil
}
