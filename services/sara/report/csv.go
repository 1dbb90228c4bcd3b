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
	"strconv"
	"strings"

	"github.com/AleutianAI/sara/services/sara/diff"
	"github.com/AleutianAI/sara/services/sara/graph"
	"github.com/AleutianAI/sara/services/sara/model"
	"github.com/AleutianAI/sara/services/sara/traverse"
	"github.com/AleutianAI/sara/services/sara/validate"
)

func validationRecords(rep *validate.Report) [][]string {
	out := [][]string{{"Severity", "Code", "Message", "File", "Line", "Related"}}
	for _, f := range rep.Findings {
		file, line := "", ""
		if f.Location != nil {
			file = f.Location.FilePath
			line = strconv.Itoa(f.Location.Line)
		}
		out = append(out, []string{
			f.Severity.String(), string(f.Code), f.Message, file, line, strings.Join(f.Related, " "),
		})
	}
	return out
}

// deltaRecords flattens a delta into one row per change.
func deltaRecords(d *diff.GraphDelta) [][]string {
	out := [][]string{{"Change", "Category", "ID", "Type", "Detail"}}
	for _, it := range d.AddedItems {
		out = append(out, []string{"added", "item", it.ID, it.Kind.String(), it.FilePath})
	}
	for _, it := range d.RemovedItems {
		out = append(out, []string{"removed", "item", it.ID, it.Kind.String(), it.FilePath})
	}
	for _, m := range d.ModifiedItems {
		for _, c := range m.Changes {
			out = append(out, []string{"modified", "field", m.ID, m.After.Kind.String(), c.Field + ": " + c.Old + " -> " + c.New})
		}
		for _, r := range m.AddedRelationships {
			out = append(out, []string{"added", "item_relationship", m.ID, m.After.Kind.String(), r.String()})
		}
		for _, r := range m.RemovedRelationships {
			out = append(out, []string{"removed", "item_relationship", m.ID, m.After.Kind.String(), r.String()})
		}
	}
	for _, r := range d.AddedRelationships {
		out = append(out, []string{"added", "relationship", r.From, r.Kind.String(), r.String()})
	}
	for _, r := range d.RemovedRelationships {
		out = append(out, []string{"removed", "relationship", r.From, r.Kind.String(), r.String()})
	}
	for _, l := range d.NewlyBrokenLinks {
		out = append(out, []string{"broken", "link", l.From, l.Kind.String(), l.To})
	}
	for _, l := range d.RepairedLinks {
		out = append(out, []string{"repaired", "link", l.From, l.Kind.String(), l.To})
	}
	return out
}

func coverageRecords(c *Coverage) [][]string {
	out := [][]string{{"Type", "Total", "Complete", "Incomplete", "Coverage %"}}
	for _, kc := range c.ByKind {
		out = append(out, []string{
			kc.KindName,
			strconv.Itoa(kc.Total),
			strconv.Itoa(kc.Complete),
			strconv.Itoa(kc.Incomplete),
			strconv.FormatFloat(kc.Percent, 'f', 1, 64),
		})
	}
	return out
}

func matrixRecords(m *Matrix) [][]string {
	out := [][]string{{"Source ID", "Source Name", "Source Type", "Target ID", "Target Name", "Target Type", "Relationship"}}
	for _, row := range m.Rows {
		if len(row.Targets) == 0 {
			out = append(out, []string{row.SourceID, row.SourceName, row.SourceKind, "", "", "", ""})
			continue
		}
		for _, t := range row.Targets {
			out = append(out, []string{row.SourceID, row.SourceName, row.SourceKind, t.ID, t.Name, t.KindName, t.Relationship})
		}
	}
	return out
}

func chainRecords(c *traverse.Chain) [][]string {
	out := [][]string{{"ID", "Name", "Type", "Depth", "Via", "Parent"}}
	for _, e := range c.Entries {
		v := entryView(e)
		out = append(out, []string{v.ID, v.Name, v.Type, strconv.Itoa(v.Depth), v.Via, v.Parent})
	}
	return out
}

func statsRecords(s graph.Stats) [][]string {
	out := [][]string{{"Metric", "Value"}}
	add := func(name string, n int) {
		out = append(out, []string{name, strconv.Itoa(n)})
	}
	add("items", s.ItemCount)
	add("relationships", s.EdgeCount)
	add("orphans", s.OrphanCount)
	add("unresolved", s.UnresolvedCount)
	add("redundant", s.RedundantCount)
	add("cycles", s.CycleCount)
	for _, k := range model.AllKinds() {
		if n, ok := s.ItemsByKind[k]; ok {
			add("items."+k.String(), n)
		}
	}
	return out
}
