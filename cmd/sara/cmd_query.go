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
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/sara/pkg/ux"
	"github.com/AleutianAI/sara/services/sara/graph"
	"github.com/AleutianAI/sara/services/sara/model"
	"github.com/AleutianAI/sara/services/sara/report"
	"github.com/AleutianAI/sara/services/sara/traverse"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

type queryFlags struct {
	upstream   bool
	downstream bool
	depth      int
	limit      int
	kinds      []string
	format     string
}

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// newQueryCommand creates "sara query".
func newQueryCommand(a *app) *cobra.Command {
	var flags queryFlags

	cmd := &cobra.Command{
		Use:   "query ID",
		Short: "Show an item and its traceability chain",
		Long: `Look up an item by identifier. Without a direction the item's
details and direct relationships are shown; --upstream walks toward
solutions and --downstream toward detailed designs.

An unknown identifier fails with up to three close matches.

Examples:
  sara query SYSREQ-12
  sara query SYSREQ-12 --upstream
  sara query SOL-1 --downstream --depth 2 --type system_requirement`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, a, &flags, args[0])
		},
	}

	cmd.Flags().BoolVarP(&flags.upstream, "upstream", "u", false, "Walk toward root items")
	cmd.Flags().BoolVarP(&flags.downstream, "downstream", "d", false, "Walk toward leaf items")
	cmd.Flags().IntVar(&flags.depth, "depth", -1, "Maximum hops from the item, negative for unbounded")
	cmd.Flags().IntVar(&flags.limit, "limit", 0, "Maximum number of items in a chain, 0 for no limit")
	cmd.Flags().StringArrayVarP(&flags.kinds, "type", "t", nil, "Only show items of this type, repeatable")
	addFormatFlag(cmd, &flags.format)
	cmd.MarkFlagsMutuallyExclusive("upstream", "downstream")
	return cmd
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func runQuery(cmd *cobra.Command, a *app, flags *queryFlags, id string) error {
	renderer, err := a.renderer(cmd, flags.format)
	if err != nil {
		return err
	}
	kinds, err := parseKinds(flags.kinds)
	if err != nil {
		return usageError(err)
	}

	ctx := cmd.Context()
	g, err := a.loadGraph(ctx, nil)
	if err != nil {
		return err
	}

	item, err := a.lookup(g, id)
	if err != nil {
		return err
	}

	if !flags.upstream && !flags.downstream {
		return renderItem(a.printer, renderer, g, item)
	}

	direction := traverse.Downstream
	if flags.upstream {
		direction = traverse.Upstream
	}
	chain, err := traverse.Traverse(ctx, g, item.ID(), direction,
		traverse.WithMaxDepth(flags.depth),
		traverse.WithKinds(kinds...),
		traverse.WithLimit(flags.limit),
	)
	if err != nil {
		return err
	}
	if renderer.Format() == report.FormatText {
		a.printer.Header(fmt.Sprintf("%s traceability for %s", capitalize(direction.String()), item.ID()))
	}
	return renderer.Chain(chain)
}

// parseKinds converts --type values. Kind display names are accepted
// alongside frontmatter values.
func parseKinds(values []string) ([]model.Kind, error) {
	kinds := make([]model.Kind, 0, len(values))
	for _, v := range values {
		normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(v)), " ", "_")
		normalized = strings.ReplaceAll(normalized, "-", "_")
		k, err := model.ParseKind(normalized)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// =============================================================================
// ITEM DETAILS
// =============================================================================

// itemView is the serialized form of an item and its direct links.
type itemView struct {
	ID            string               `json:"id"`
	Kind          model.Kind           `json:"type"`
	Name          string               `json:"name"`
	Description   string               `json:"description,omitempty"`
	Specification string               `json:"specification,omitempty"`
	Source        model.SourceLocation `json:"source"`
	Relationships []linkView           `json:"relationships"`
}

type linkView struct {
	Kind     model.RelationshipKind `json:"kind"`
	Target   string                 `json:"target"`
	Resolved bool                   `json:"resolved"`
	Declared bool                   `json:"declared"`
}

func newItemView(g *graph.KnowledgeGraph, item *model.Item) itemView {
	v := itemView{
		ID:            item.ID(),
		Kind:          item.Kind(),
		Name:          item.Name(),
		Description:   item.Description(),
		Source:        item.Source(),
		Relationships: []linkView{},
	}
	v.Specification, _ = item.Specification()
	for _, e := range g.EdgesFrom(item.ID()) {
		v.Relationships = append(v.Relationships, linkView{
			Kind:     e.Kind,
			Target:   e.To,
			Resolved: true,
			Declared: e.Declared,
		})
	}
	for _, u := range g.Unresolved() {
		if u.From == item.ID() {
			v.Relationships = append(v.Relationships, linkView{Kind: u.Kind, Target: u.To, Declared: true})
		}
	}
	return v
}

// renderItem prints item details. CSV lists one relationship per row.
func renderItem(pr *ux.Printer, r *report.Renderer, g *graph.KnowledgeGraph, item *model.Item) error {
	v := newItemView(g, item)
	switch r.Format() {
	case report.FormatJSON:
		enc := json.NewEncoder(pr.Out())
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case report.FormatCSV:
		records := [][]string{{"id", "relationship", "target", "resolved"}}
		for _, l := range v.Relationships {
			records = append(records, []string{v.ID, l.Kind.String(), l.Target, strconv.FormatBool(l.Resolved)})
		}
		return csv.NewWriter(pr.Out()).WriteAll(records)
	}

	pr.Header(fmt.Sprintf("%s: %s", v.ID, v.Name))
	pr.Info(fmt.Sprintf("  Type:     %s", v.Kind.DisplayName()))
	pr.Info(fmt.Sprintf("  Source:   %s", v.Source.Full()))
	if v.Description != "" {
		pr.Info(fmt.Sprintf("  About:    %s", v.Description))
	}
	if v.Specification != "" {
		pr.Info(fmt.Sprintf("  Spec:     %s", v.Specification))
	}
	if len(v.Relationships) == 0 {
		pr.Muted("  No relationships")
		return nil
	}
	pr.Info("  Relationships:")
	for i, l := range v.Relationships {
		target := l.Target
		if !l.Resolved {
			target = pr.Paint(ux.Styles.Error, target+" (unresolved)")
		}
		pr.Info(fmt.Sprintf("    %s%s %s", ux.TreeBranch(i == len(v.Relationships)-1), l.Kind.FieldName(), target))
	}
	return nil
}
