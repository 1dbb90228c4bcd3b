// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package model

import (
	"fmt"
	"slices"
)

// Item is a typed node of the knowledge graph.
//
// Items are immutable. Construct them with NewItem; the zero value is not
// a valid item.
//
// Thread Safety: Safe for concurrent reads.
type Item struct {
	id          string
	kind        Kind
	name        string
	description string
	source      SourceLocation
	declared    []Relationship
	attributes  Attributes
	custom      []string
}

// ItemSpec carries the inputs of NewItem.
type ItemSpec struct {
	ID          string
	Kind        Kind
	Name        string
	Description string
	Source      SourceLocation

	// Declared lists the relationships written in the item's source, in
	// declaration order. From is overwritten with ID.
	Declared []Relationship

	// Attributes must belong to Kind's family. Nil means PlainAttributes.
	Attributes Attributes

	// CustomFields lists frontmatter keys outside the known field set.
	CustomFields []string
}

// NewItem validates spec and returns an immutable item.
//
// Description:
//
//	Checks the identifier rules, the kind, and that the attribute variant
//	matches the kind family. Relationship targets are not resolved here;
//	that is the graph builder's job.
//
// Inputs:
//
//	spec - Item fields.
//
// Outputs:
//
//	*Item - The constructed item.
//	error - ErrInvalidID, ErrUnknownKind or ErrAttributeMismatch (wrapped).
func NewItem(spec ItemSpec) (*Item, error) {
	if err := ValidateID(spec.ID); err != nil {
		return nil, err
	}
	if !spec.Kind.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, spec.Kind)
	}

	attrs := spec.Attributes
	if attrs == nil {
		attrs = PlainAttributes{}
	}
	if attrs.Family() != spec.Kind.Family() {
		return nil, fmt.Errorf("%w: %s cannot carry %T", ErrAttributeMismatch, spec.Kind.DisplayName(), attrs)
	}
	if d, ok := attrs.(DecisionAttributes); ok {
		d.Deciders = deciderList(d.Deciders)
		attrs = d
	}

	declared := make([]Relationship, len(spec.Declared))
	for i, rel := range spec.Declared {
		rel.From = spec.ID
		declared[i] = rel
	}

	custom := slices.Clone(spec.CustomFields)
	slices.Sort(custom)

	return &Item{
		id:          spec.ID,
		kind:        spec.Kind,
		name:        spec.Name,
		description: spec.Description,
		source:      spec.Source,
		declared:    declared,
		attributes:  attrs,
		custom:      custom,
	}, nil
}

// ID returns the unique identifier.
func (i *Item) ID() string { return i.id }

// Kind returns the item kind.
func (i *Item) Kind() Kind { return i.kind }

// Name returns the display name.
func (i *Item) Name() string { return i.name }

// Description returns the optional description.
func (i *Item) Description() string { return i.description }

// Source returns the declaration location.
func (i *Item) Source() SourceLocation { return i.source }

// Attributes returns the kind-specific variant.
func (i *Item) Attributes() Attributes { return i.attributes }

// CustomFields returns the unrecognized frontmatter keys, sorted.
func (i *Item) CustomFields() []string { return slices.Clone(i.custom) }

// Declared returns the relationships written in the item's own source.
func (i *Item) Declared() []Relationship { return slices.Clone(i.declared) }

// Upstream returns declared relationships of upstream class.
func (i *Item) Upstream() []Relationship {
	return i.filter(Relationship.isUpstream)
}

// Downstream returns declared relationships of downstream class.
func (i *Item) Downstream() []Relationship {
	return i.filter(Relationship.isDownstream)
}

// Peers returns declared relationships of peer class.
func (i *Item) Peers() []Relationship {
	return i.filter(Relationship.isPeer)
}

func (i *Item) filter(keep func(Relationship) bool) []Relationship {
	var out []Relationship
	for _, r := range i.declared {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func (r Relationship) isUpstream() bool   { return r.Kind.IsUpstream() }
func (r Relationship) isDownstream() bool { return r.Kind.IsDownstream() }
func (r Relationship) isPeer() bool       { return r.Kind.IsPeer() }

// Specification returns the requirement statement.
//
// Outputs:
//
//	string - The specification text.
//	bool - False if the item is not a requirement.
func (i *Item) Specification() (string, bool) {
	if a, ok := i.attributes.(RequirementAttributes); ok {
		return a.Specification, true
	}
	return "", false
}

// Platform returns the architecture platform, empty when unset or not
// applicable.
func (i *Item) Platform() string {
	if a, ok := i.attributes.(ArchitectureAttributes); ok {
		return a.Platform
	}
	return ""
}

// Decision returns the ADR attributes.
func (i *Item) Decision() (DecisionAttributes, bool) {
	a, ok := i.attributes.(DecisionAttributes)
	if ok {
		a.Deciders = deciderList(a.Deciders)
	}
	return a, ok
}

// String returns "ID (Kind)".
func (i *Item) String() string {
	return fmt.Sprintf("%s (%s)", i.id, i.kind.DisplayName())
}
