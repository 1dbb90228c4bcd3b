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
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/AleutianAI/sara/pkg/ux"
	"github.com/AleutianAI/sara/services/sara/diff"
	"github.com/AleutianAI/sara/services/sara/graph"
	"github.com/AleutianAI/sara/services/sara/traverse"
	"github.com/AleutianAI/sara/services/sara/validate"
)

// ErrUnsupportedFormat is returned by ParseFormat for unknown names.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// Format selects how a Renderer serializes its input.
type Format int

const (
	FormatText Format = iota
	FormatJSON
	FormatCSV
)

// String returns the lower-case format name.
func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatJSON:
		return "json"
	case FormatCSV:
		return "csv"
	default:
		return "unknown"
	}
}

// ParseFormat accepts "text", "json", or "csv", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	}
	return FormatText, fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// Renderer writes reports to the printer's output in one format.
//
// Text output uses the printer for styling, so colors follow the
// printer's personality. JSON is indented with two spaces. CSV always
// starts with a header row.
type Renderer struct {
	w      io.Writer
	pr     *ux.Printer
	format Format
}

// NewRenderer creates a Renderer over pr.
func NewRenderer(pr *ux.Printer, format Format) *Renderer {
	return &Renderer{w: pr.Out(), pr: pr, format: format}
}

// Format returns the renderer's format.
func (r *Renderer) Format() Format {
	return r.format
}

// Validation renders a validation report.
func (r *Renderer) Validation(rep *validate.Report) error {
	switch r.format {
	case FormatJSON:
		return r.json(rep)
	case FormatCSV:
		return r.csv(validationRecords(rep))
	default:
		return r.validationText(rep)
	}
}

// Delta renders a graph delta.
func (r *Renderer) Delta(d *diff.GraphDelta) error {
	switch r.format {
	case FormatJSON:
		return r.json(d)
	case FormatCSV:
		return r.csv(deltaRecords(d))
	default:
		return r.text(deltaText(r.pr, d))
	}
}

// Coverage renders a coverage report.
func (r *Renderer) Coverage(c *Coverage) error {
	switch r.format {
	case FormatJSON:
		return r.json(c)
	case FormatCSV:
		return r.csv(coverageRecords(c))
	default:
		return r.text(coverageText(r.pr, c))
	}
}

// Matrix renders a traceability matrix.
func (r *Renderer) Matrix(m *Matrix) error {
	switch r.format {
	case FormatJSON:
		return r.json(m)
	case FormatCSV:
		return r.csv(matrixRecords(m))
	default:
		return r.text(matrixText(r.pr, m))
	}
}

// Chain renders a traversal result.
func (r *Renderer) Chain(c *traverse.Chain) error {
	switch r.format {
	case FormatJSON:
		return r.json(newChainView(c))
	case FormatCSV:
		return r.csv(chainRecords(c))
	default:
		return r.text(chainText(r.pr, c))
	}
}

// Stats renders graph statistics.
func (r *Renderer) Stats(s graph.Stats) error {
	switch r.format {
	case FormatJSON:
		return r.json(s)
	case FormatCSV:
		return r.csv(statsRecords(s))
	default:
		return r.text(statsText(r.pr, s))
	}
}

func (r *Renderer) json(v any) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding %s report: %w", r.format, err)
	}
	return nil
}

func (r *Renderer) csv(records [][]string) error {
	cw := csv.NewWriter(r.w)
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	return nil
}

func (r *Renderer) text(s string) error {
	_, err := io.WriteString(r.w, s)
	return err
}

// chainView adds display fields to traversal entries for JSON output.
type chainView struct {
	Origin    string           `json:"origin"`
	Direction string           `json:"direction"`
	MaxDepth  int              `json:"max_depth"`
	Truncated bool             `json:"truncated,omitempty"`
	Items     []chainEntryView `json:"items"`
}

type chainEntryView struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Depth  int    `json:"depth"`
	Via    string `json:"via,omitempty"`
	Parent string `json:"parent,omitempty"`
}

func newChainView(c *traverse.Chain) chainView {
	v := chainView{
		Origin:    c.Origin,
		Direction: c.Direction.String(),
		MaxDepth:  c.MaxDepth,
		Truncated: c.Truncated,
		Items:     make([]chainEntryView, 0, len(c.Entries)),
	}
	for _, e := range c.Entries {
		v.Items = append(v.Items, entryView(e))
	}
	return v
}

func entryView(e traverse.Entry) chainEntryView {
	v := chainEntryView{ID: e.ID, Depth: e.Depth, Parent: e.Parent}
	if e.Item != nil {
		v.Name = e.Item.Name()
		v.Type = e.Item.Kind().DisplayName()
	}
	if e.Depth > 0 {
		v.Via = e.Via.FieldName()
	}
	return v
}
