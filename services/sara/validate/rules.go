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
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/AleutianAI/sara/services/sara/graph"
	"github.com/AleutianAI/sara/services/sara/model"
)

// Config controls rule behavior.
type Config struct {
	// StrictOrphans reports orphan items as errors instead of warnings.
	StrictOrphans bool

	// AllowedCustomFields lists frontmatter keys exempt from the
	// unrecognized-field warning.
	AllowedCustomFields []string
}

func (c Config) allowsField(field string) bool {
	return slices.Contains(c.AllowedCustomFields, field)
}

// Rule is one independent structural check.
//
// Implementations must only read the graph. Check is called concurrently
// with other rules on the same graph.
type Rule interface {
	// Name identifies the rule in logs and spans.
	Name() string

	// Check returns the rule's findings in a deterministic order.
	Check(g *graph.KnowledgeGraph, cfg Config) []Finding
}

// DefaultRules returns the built-in rules in report order.
func DefaultRules() []Rule {
	return []Rule{
		BrokenReferencesRule{},
		DuplicatesRule{},
		CyclesRule{},
		RelationshipsRule{},
		MetadataRule{},
		UnrecognizedFieldsRule{},
		RedundantRelationshipsRule{},
		SupersededRule{},
		OrphansRule{},
	}
}

// BrokenReferencesRule reports declared relationships whose target does
// not exist.
type BrokenReferencesRule struct{}

// Name implements Rule.
func (BrokenReferencesRule) Name() string { return "broken_references" }

// Check implements Rule.
func (BrokenReferencesRule) Check(g *graph.KnowledgeGraph, _ Config) []Finding {
	unresolved := g.Unresolved()
	slices.SortStableFunc(unresolved, func(a, b graph.UnresolvedReference) int {
		return cmp.Or(
			strings.Compare(a.From, b.From),
			strings.Compare(a.To, b.To),
			cmp.Compare(a.Kind, b.Kind),
		)
	})

	findings := make([]Finding, 0, len(unresolved))
	for _, u := range unresolved {
		findings = append(findings, Finding{
			Severity: SeverityError,
			Code:     CodeBrokenReference,
			Message:  fmt.Sprintf("Broken reference: %s references non-existent item %s", u.From, u.To),
			Location: locationPtr(u.Location),
			Related:  []string{u.From, u.To},
		})
	}
	return findings
}

// DuplicatesRule reports identifiers declared more than once. The builder
// aborts on duplicates by default, so this only fires when it ran with
// fail-fast disabled.
type DuplicatesRule struct{}

// Name implements Rule.
func (DuplicatesRule) Name() string { return "duplicates" }

// Check implements Rule.
func (DuplicatesRule) Check(g *graph.KnowledgeGraph, _ Config) []Finding {
	var findings []Finding
	for _, d := range g.Duplicates() {
		findings = append(findings, duplicateFinding(d.ID, d.First, d.Second))
	}
	return findings
}

func duplicateFinding(id string, first, second model.SourceLocation) Finding {
	return Finding{
		Severity: SeverityError,
		Code:     CodeDuplicateIdentifier,
		Message: fmt.Sprintf("Duplicate identifier: %s defined in multiple files (%s, %s)",
			id, first.Full(), second.Full()),
		Location: locationPtr(first),
		Related:  []string{id},
	}
}

// CyclesRule reports each cycle in the primary edge set once.
type CyclesRule struct{}

// Name implements Rule.
func (CyclesRule) Name() string { return "cycles" }

// Check implements Rule.
func (CyclesRule) Check(g *graph.KnowledgeGraph, _ Config) []Finding {
	var findings []Finding
	for _, c := range g.Cycles() {
		f := Finding{
			Severity: SeverityError,
			Code:     CodeCircularReference,
			Message:  fmt.Sprintf("Circular reference detected: %s", c),
			Related:  c.Members,
		}
		if item, ok := g.Get(c.Members[0]); ok {
			f.Location = locationOf(item)
		}
		findings = append(findings, f)
	}
	return findings
}

// RelationshipsRule reports declared relationships whose endpoint kinds
// are not in the valid-target table. Unresolved targets are left to
// BrokenReferencesRule.
type RelationshipsRule struct{}

// Name implements Rule.
func (RelationshipsRule) Name() string { return "relationships" }

// Check implements Rule.
func (RelationshipsRule) Check(g *graph.KnowledgeGraph, _ Config) []Finding {
	var findings []Finding
	for _, item := range g.Items() {
		for _, rel := range item.Declared() {
			target, ok := g.Get(rel.To)
			if !ok || model.IsValidRelationship(item.Kind(), rel.Kind, target.Kind()) {
				continue
			}
			findings = append(findings, Finding{
				Severity: SeverityError,
				Code:     CodeInvalidRelationship,
				Message: fmt.Sprintf("Invalid relationship: %s cannot %s %s (%s -> %s)",
					item.Kind().DisplayName(), rel.Kind, target.Kind().DisplayName(), rel.From, rel.To),
				Location: locationOf(item),
				Related:  []string{rel.From, rel.To},
			})
		}
	}
	return findings
}

// MetadataRule checks requirement specifications: present items must
// carry a non-empty statement using at least one RFC 2119 keyword.
type MetadataRule struct{}

// Name implements Rule.
func (MetadataRule) Name() string { return "metadata" }

// Check implements Rule.
func (MetadataRule) Check(g *graph.KnowledgeGraph, _ Config) []Finding {
	var findings []Finding
	for _, item := range g.Items() {
		spec, ok := item.Specification()
		if !ok {
			continue
		}
		var reason string
		switch {
		case spec == "":
			reason = fmt.Sprintf("%s requires a non-empty 'specification' field", item.Kind().DisplayName())
		case !model.ContainsRFC2119Keyword(spec):
			reason = fmt.Sprintf("%s specification must contain at least one RFC2119 keyword (MUST, SHALL, SHOULD, etc.)",
				item.Kind().DisplayName())
		default:
			continue
		}
		findings = append(findings, Finding{
			Severity: SeverityError,
			Code:     CodeInvalidMetadata,
			Message:  fmt.Sprintf("Invalid metadata in %s: %s", item.Source().FilePath, reason),
			Location: locationOf(item),
			Related:  []string{item.ID()},
		})
	}
	return findings
}

// UnrecognizedFieldsRule warns about frontmatter keys outside the known
// set and the configured allow-list.
type UnrecognizedFieldsRule struct{}

// Name implements Rule.
func (UnrecognizedFieldsRule) Name() string { return "unrecognized_fields" }

// Check implements Rule.
func (UnrecognizedFieldsRule) Check(g *graph.KnowledgeGraph, cfg Config) []Finding {
	var findings []Finding
	for _, item := range g.Items() {
		for _, field := range item.CustomFields() {
			if cfg.allowsField(field) {
				continue
			}
			findings = append(findings, Finding{
				Severity: SeverityWarning,
				Code:     CodeUnrecognizedField,
				Message:  fmt.Sprintf("Unrecognized field '%s' in %s", field, item.Source().FilePath),
				Location: locationOf(item),
				Related:  []string{item.ID()},
			})
		}
	}
	return findings
}

// RedundantRelationshipsRule warns once per link declared from both ends.
type RedundantRelationshipsRule struct{}

// Name implements Rule.
func (RedundantRelationshipsRule) Name() string { return "redundant_relationships" }

// Check implements Rule.
func (RedundantRelationshipsRule) Check(g *graph.KnowledgeGraph, _ Config) []Finding {
	redundancies := g.Redundancies()
	slices.SortStableFunc(redundancies, func(a, b graph.Redundancy) int {
		return cmp.Or(
			strings.Compare(a.Link.From, b.Link.From),
			strings.Compare(a.Link.To, b.Link.To),
		)
	})

	findings := make([]Finding, 0, len(redundancies))
	for _, r := range redundancies {
		findings = append(findings, Finding{
			Severity: SeverityWarning,
			Code:     CodeRedundantRelationship,
			Message: fmt.Sprintf("Redundant relationship: %s and %s both declare the relationship (only one is needed: %s %s %s)",
				r.Link.From, r.Link.To, r.Link.From, r.Link.Kind, r.Link.To),
			Location: locationPtr(r.FromLocation),
			Related:  []string{r.Link.From, r.Link.To},
		})
	}
	return findings
}

// SupersededRule warns about decision records marked superseded that no
// other decision record supersedes.
type SupersededRule struct{}

// Name implements Rule.
func (SupersededRule) Name() string { return "superseded" }

// Check implements Rule.
func (SupersededRule) Check(g *graph.KnowledgeGraph, _ Config) []Finding {
	var findings []Finding
	for _, item := range g.ItemsByKind(model.KindArchitectureDecisionRecord) {
		decision, ok := item.Decision()
		if !ok || decision.Status != model.StatusSuperseded {
			continue
		}
		if len(g.Children(item.ID(), model.RelIsSupersededBy)) > 0 {
			continue
		}
		findings = append(findings, Finding{
			Severity: SeverityWarning,
			Code:     CodeSupersededWithoutSuccessor,
			Message:  fmt.Sprintf("Superseded decision %s is not superseded by any other decision record", item.ID()),
			Location: locationOf(item),
			Related:  []string{item.ID()},
		})
	}
	return findings
}

// OrphansRule reports items of a parent-requiring kind with no parent.
type OrphansRule struct{}

// Name implements Rule.
func (OrphansRule) Name() string { return "orphans" }

// Check implements Rule.
func (OrphansRule) Check(g *graph.KnowledgeGraph, cfg Config) []Finding {
	severity := SeverityWarning
	if cfg.StrictOrphans {
		severity = SeverityError
	}

	var findings []Finding
	for _, item := range g.Orphans() {
		parent, _ := item.Kind().RequiredParent()
		findings = append(findings, Finding{
			Severity: severity,
			Code:     CodeOrphanItem,
			Message: fmt.Sprintf("Orphan item: %s has no upstream parent (expected a %s)",
				item.ID(), parent.DisplayName()),
			Location: locationOf(item),
			Related:  []string{item.ID()},
		})
	}
	return findings
}
