// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package validate

import (
	"fmt"
	"slices"

	"github.com/AleutianAI/sara/services/sara/model"
)

// =============================================================================
// SEVERITY
// =============================================================================

// Severity classifies a finding.
type Severity int

const (
	// SeverityWarning is reported but does not make the report invalid.
	SeverityWarning Severity = iota

	// SeverityError makes the report invalid.
	SeverityError
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(b []byte) error {
	switch string(b) {
	case "warning":
		*s = SeverityWarning
	case "error":
		*s = SeverityError
	default:
		return fmt.Errorf("unknown severity %q", b)
	}
	return nil
}

// =============================================================================
// FINDING CODES
// =============================================================================

// Code is the stable machine-readable identifier of a finding type.
type Code string

const (
	CodeInvalidID                  Code = "invalid_id"
	CodeMissingField               Code = "missing_field"
	CodeBrokenReference            Code = "broken_reference"
	CodeOrphanItem                 Code = "orphan_item"
	CodeDuplicateIdentifier        Code = "duplicate_identifier"
	CodeCircularReference          Code = "circular_reference"
	CodeInvalidRelationship        Code = "invalid_relationship"
	CodeInvalidMetadata            Code = "invalid_metadata"
	CodeUnrecognizedField          Code = "unrecognized_field"
	CodeRedundantRelationship      Code = "redundant_relationship"
	CodeSupersededWithoutSuccessor Code = "superseded_without_successor"
)

// =============================================================================
// FINDING
// =============================================================================

// Finding is a single issue reported by a rule.
//
// Thread Safety: Immutable after creation.
type Finding struct {
	// Severity is error or warning.
	Severity Severity `json:"severity"`

	// Code identifies the finding type.
	Code Code `json:"code"`

	// Message is the human-readable description.
	Message string `json:"message"`

	// Location is where the offending item is declared. Nil when the
	// finding has no single source.
	Location *model.SourceLocation `json:"location,omitempty"`

	// Related lists the identifiers involved, e.g. [from, to] for a
	// broken reference or the members of a cycle.
	Related []string `json:"related,omitempty"`
}

// String renders "severity[code] message (at path:line)".
func (f Finding) String() string {
	if f.Location == nil {
		return fmt.Sprintf("%s[%s] %s", f.Severity, f.Code, f.Message)
	}
	return fmt.Sprintf("%s[%s] %s (at %s)", f.Severity, f.Code, f.Message, f.Location)
}

func locationOf(item *model.Item) *model.SourceLocation {
	loc := item.Source()
	return &loc
}

func locationPtr(loc model.SourceLocation) *model.SourceLocation {
	return &loc
}

// =============================================================================
// REPORT
// =============================================================================

// Report aggregates the findings of one validation run.
type Report struct {
	// RunID uniquely identifies the run.
	RunID string `json:"run_id"`

	// Findings holds every finding in rule order.
	Findings []Finding `json:"findings"`

	// ItemsChecked is the number of items in the graph.
	ItemsChecked int `json:"items_checked"`

	// RelationshipsChecked is the number of declared relationships,
	// resolved or not.
	RelationshipsChecked int `json:"relationships_checked"`

	// ItemsByKind counts items per kind.
	ItemsByKind map[model.Kind]int `json:"items_by_kind"`

	// DurationMicro is the wall time of the run in microseconds.
	DurationMicro int64 `json:"duration_us"`
}

// IsValid returns true if the report holds no errors.
func (r *Report) IsValid() bool {
	return r.ErrorCount() == 0
}

// ErrorCount returns the number of error findings.
func (r *Report) ErrorCount() int {
	return r.count(SeverityError)
}

// WarningCount returns the number of warning findings.
func (r *Report) WarningCount() int {
	return r.count(SeverityWarning)
}

// Errors returns the error findings in report order.
func (r *Report) Errors() []Finding {
	return r.filter(SeverityError)
}

// Warnings returns the warning findings in report order.
func (r *Report) Warnings() []Finding {
	return r.filter(SeverityWarning)
}

// ByCode returns the findings with the given code.
func (r *Report) ByCode(code Code) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Code == code {
			out = append(out, f)
		}
	}
	return out
}

// Merge folds other into r.
//
// Description:
//
//	Findings from other are placed before r's own. Counters are summed.
//	ItemsByKind is taken from other only when r has none, since both
//	reports usually describe the same graph.
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	r.Findings = append(slices.Clone(other.Findings), r.Findings...)
	r.ItemsChecked += other.ItemsChecked
	r.RelationshipsChecked += other.RelationshipsChecked
	r.DurationMicro += other.DurationMicro
	if len(r.ItemsByKind) == 0 && len(other.ItemsByKind) > 0 {
		r.ItemsByKind = other.ItemsByKind
	}
}

func (r *Report) count(s Severity) int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == s {
			n++
		}
	}
	return n
}

func (r *Report) filter(s Severity) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Severity == s {
			out = append(out, f)
		}
	}
	return out
}
