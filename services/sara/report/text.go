// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package report

import (
	"fmt"
	"strings"

	"github.com/AleutianAI/sara/pkg/ux"
	"github.com/AleutianAI/sara/services/sara/diff"
	"github.com/AleutianAI/sara/services/sara/graph"
	"github.com/AleutianAI/sara/services/sara/model"
	"github.com/AleutianAI/sara/services/sara/traverse"
	"github.com/AleutianAI/sara/services/sara/validate"
)

func (r *Renderer) validationText(rep *validate.Report) error {
	var b strings.Builder
	b.WriteString("\nValidation Results\n==================\n\n")
	fmt.Fprintf(&b, "Items checked:         %d\n", rep.ItemsChecked)
	fmt.Fprintf(&b, "Relationships checked: %d\n", rep.RelationshipsChecked)

	if n := rep.ErrorCount(); n > 0 {
		fmt.Fprintf(&b, "\n%s\n----------\n", r.pr.Paint(ux.Styles.Error, fmt.Sprintf("Errors (%d):", n)))
		for _, f := range rep.Errors() {
			fmt.Fprintf(&b, "  %s\n", f)
		}
	}
	if n := rep.WarningCount(); n > 0 {
		fmt.Fprintf(&b, "\n%s\n-----------\n", r.pr.Paint(ux.Styles.Warning, fmt.Sprintf("Warnings (%d):", n)))
		for _, f := range rep.Warnings() {
			fmt.Fprintf(&b, "  %s\n", f)
		}
	}
	b.WriteString("\n")

	if err := r.text(b.String()); err != nil {
		return err
	}

	switch {
	case !rep.IsValid():
		r.pr.Error(fmt.Sprintf("Validation failed with %d error(s) and %d warning(s)", rep.ErrorCount(), rep.WarningCount()))
	case rep.WarningCount() > 0:
		r.pr.Success(fmt.Sprintf("Validation passed with %d warning(s)", rep.WarningCount()))
	default:
		r.pr.Success("Validation passed")
	}
	return nil
}

func deltaText(pr *ux.Printer, d *diff.GraphDelta) string {
	var b strings.Builder

	section := func(title string, n int, style func(string) string) bool {
		if n == 0 {
			return false
		}
		fmt.Fprintf(&b, "%s\n", style(fmt.Sprintf("%s (%d):", title, n)))
		return true
	}
	green := func(s string) string { return pr.Paint(ux.Styles.Success.Bold(true), s) }
	red := func(s string) string { return pr.Paint(ux.Styles.Error.Bold(true), s) }
	yellow := func(s string) string { return pr.Paint(ux.Styles.Warning.Bold(true), s) }

	if section("Added Items", len(d.AddedItems), green) {
		for _, it := range d.AddedItems {
			fmt.Fprintf(&b, "  + %s (%s)\n", it.ID, it.Kind.DisplayName())
		}
		b.WriteString("\n")
	}
	if section("Removed Items", len(d.RemovedItems), red) {
		for _, it := range d.RemovedItems {
			fmt.Fprintf(&b, "  - %s (%s)\n", it.ID, it.Kind.DisplayName())
		}
		b.WriteString("\n")
	}
	if section("Modified Items", len(d.ModifiedItems), yellow) {
		for _, m := range d.ModifiedItems {
			fmt.Fprintf(&b, "  ~ %s (%s)\n", m.ID, m.After.Kind.DisplayName())
			for _, c := range m.Changes {
				fmt.Fprintf(&b, "    %s: %s → %s\n", c.Field, quoteEmpty(c.Old), quoteEmpty(c.New))
			}
			for _, rel := range m.AddedRelationships {
				fmt.Fprintf(&b, "    + %s\n", rel)
			}
			for _, rel := range m.RemovedRelationships {
				fmt.Fprintf(&b, "    - %s\n", rel)
			}
		}
		b.WriteString("\n")
	}
	if section("Added Relationships", len(d.AddedRelationships), green) {
		for _, rel := range d.AddedRelationships {
			fmt.Fprintf(&b, "  + %s\n", rel)
		}
		b.WriteString("\n")
	}
	if section("Removed Relationships", len(d.RemovedRelationships), red) {
		for _, rel := range d.RemovedRelationships {
			fmt.Fprintf(&b, "  - %s\n", rel)
		}
		b.WriteString("\n")
	}
	if section("Newly Broken Links", len(d.NewlyBrokenLinks), red) {
		for _, l := range d.NewlyBrokenLinks {
			fmt.Fprintf(&b, "  ! %s -%s-> %s (at %s)\n", l.From, l.Kind, l.To, l.Location)
		}
		b.WriteString("\n")
	}
	if section("Repaired Links", len(d.RepairedLinks), green) {
		for _, l := range d.RepairedLinks {
			fmt.Fprintf(&b, "  ✓ %s -%s-> %s\n", l.From, l.Kind, l.To)
		}
		b.WriteString("\n")
	}

	if d.IsEmpty() {
		b.WriteString("No structural changes.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "Summary: %s\n", d.Summary())
	return b.String()
}

func quoteEmpty(s string) string {
	if s == "" {
		return `""`
	}
	return s
}

func coverageText(pr *ux.Printer, c *Coverage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n\n", ux.IconStats.Text(pr.Personality().Emojis), pr.Paint(ux.Styles.Title, "Traceability Coverage Report"))
	fmt.Fprintf(&b, "Overall Coverage: %.1f%%\n\n", c.Overall)
	b.WriteString("By Item Type:\n")
	fmt.Fprintf(&b, "  %-35s %5s   %8s   Coverage\n", "Type", "Items", "Complete")
	fmt.Fprintf(&b, "  %s\n", strings.Repeat("─", 63))
	for _, kc := range c.ByKind {
		fmt.Fprintf(&b, "  %-35s %5d   %8d   %7.1f%%\n", kc.KindName, kc.Total, kc.Complete, kc.Percent)
	}

	if len(c.Incomplete) > 0 {
		b.WriteString("\nIncomplete Items:\n")
		warn := ux.IconWarning.Text(pr.Personality().Emojis)
		for _, it := range c.Incomplete {
			fmt.Fprintf(&b, "  %s %s\n", warn, pr.Paint(ux.Styles.Warning, it.ID+": "+it.Reason))
		}
	}
	return b.String()
}

func matrixText(pr *ux.Printer, m *Matrix) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\nTotal Relationships: %d\n\n", pr.Paint(ux.Styles.Title, "Traceability Matrix"), m.TotalRelationships)
	for _, row := range m.Rows {
		fmt.Fprintf(&b, "%s (%s)\n", pr.Paint(ux.Styles.Highlight, row.SourceID), row.SourceKind)
		for i, t := range row.Targets {
			fmt.Fprintf(&b, "  %s %s %s (%s) [%s]\n",
				ux.TreeBranch(i == len(row.Targets)-1), t.Relationship, t.ID, t.KindName, t.Name)
		}
	}
	return b.String()
}

func chainText(pr *ux.Printer, c *traverse.Chain) string {
	var b strings.Builder
	if len(c.Entries) == 0 {
		return ""
	}

	children := make(map[string][]traverse.Entry)
	for _, e := range c.Entries[1:] {
		children[e.Parent] = append(children[e.Parent], e)
	}

	var walk func(e traverse.Entry, prefix string, isLast, isRoot bool)
	walk = func(e traverse.Entry, prefix string, isLast, isRoot bool) {
		line := entryLine(pr, e)
		childPrefix := ""
		if isRoot {
			b.WriteString(line + "\n")
		} else {
			branch := "├── "
			childPrefix = prefix + "│   "
			if isLast {
				branch = "└── "
				childPrefix = prefix + "    "
			}
			b.WriteString(prefix + branch + line + "\n")
		}
		kids := children[e.ID]
		for i, kid := range kids {
			walk(kid, childPrefix, i == len(kids)-1, false)
		}
	}
	walk(c.Entries[0], "", true, true)

	if c.Truncated {
		b.WriteString(pr.Paint(ux.Styles.Muted, "(truncated)") + "\n")
	}
	return b.String()
}

func entryLine(pr *ux.Printer, e traverse.Entry) string {
	name, kind := "", ""
	if e.Item != nil {
		name = e.Item.Name()
		kind = e.Item.Kind().DisplayName()
	}
	return fmt.Sprintf("%s: %s (%s)", pr.Paint(ux.Styles.Highlight, e.ID), name, pr.Paint(ux.Styles.Muted, kind))
}

func statsText(pr *ux.Printer, s graph.Stats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n\n", ux.IconStats.Text(pr.Personality().Emojis), pr.Paint(ux.Styles.Title, "Knowledge Graph"))
	fmt.Fprintf(&b, "Items:         %d\n", s.ItemCount)
	fmt.Fprintf(&b, "Relationships: %d\n", s.EdgeCount)
	fmt.Fprintf(&b, "Orphans:       %d\n", s.OrphanCount)
	fmt.Fprintf(&b, "Unresolved:    %d\n", s.UnresolvedCount)
	fmt.Fprintf(&b, "Cycles:        %d\n", s.CycleCount)

	if len(s.ItemsByKind) > 0 {
		b.WriteString("\nBy Item Type:\n")
		for _, k := range model.AllKinds() {
			if n, ok := s.ItemsByKind[k]; ok {
				fmt.Fprintf(&b, "  %-35s %5d\n", k.DisplayName(), n)
			}
		}
	}
	return b.String()
}
