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

// RelationshipKind is the type of a directed edge between two items.
//
// Kinds come in inverse pairs. The first member of each pair is the
// primary direction: the one a child item declares toward its parent, or
// the active side of a peer link.
type RelationshipKind int

const (
	// RelUnknown indicates an unrecognized relationship.
	RelUnknown RelationshipKind = iota

	// RelRefines links a use case or scenario to what it refines.
	RelRefines

	// RelIsRefinedBy is the inverse of RelRefines.
	RelIsRefinedBy

	// RelDerivesFrom links a requirement to its source.
	RelDerivesFrom

	// RelDerives is the inverse of RelDerivesFrom.
	RelDerives

	// RelSatisfies links architecture or design to the requirement it meets.
	RelSatisfies

	// RelIsSatisfiedBy is the inverse of RelSatisfies.
	RelIsSatisfiedBy

	// RelJustifies links a decision record to what it justifies.
	RelJustifies

	// RelIsJustifiedBy is the inverse of RelJustifies.
	RelIsJustifiedBy

	// RelDependsOn links a requirement to a peer requirement.
	RelDependsOn

	// RelIsRequiredBy is the inverse of RelDependsOn.
	RelIsRequiredBy

	// RelSupersedes links a decision record to the one it replaces.
	RelSupersedes

	// RelIsSupersededBy is the inverse of RelSupersedes.
	RelIsSupersededBy

	// NumRelationshipKinds is the number of relationship kinds including
	// RelUnknown. Used for array sizing of per-kind edge indexes.
	NumRelationshipKinds
)

// Direction classifies a relationship kind relative to the hierarchy.
type Direction int

const (
	// DirectionUpstream points toward the root or justification kinds.
	DirectionUpstream Direction = iota

	// DirectionDownstream points toward the leaf or detailed-design kinds.
	DirectionDownstream

	// DirectionPeer links items of the same kind.
	DirectionPeer
)

// String returns the lowercase direction name.
func (d Direction) String() string {
	switch d {
	case DirectionUpstream:
		return "upstream"
	case DirectionDownstream:
		return "downstream"
	case DirectionPeer:
		return "peer"
	default:
		return "unknown"
	}
}

type relInfo struct {
	field     string
	inverse   RelationshipKind
	direction Direction
	primary   bool
}

var relTable = [NumRelationshipKinds]relInfo{
	RelUnknown:        {field: "unknown"},
	RelRefines:        {"refines", RelIsRefinedBy, DirectionUpstream, true},
	RelIsRefinedBy:    {"is_refined_by", RelRefines, DirectionDownstream, false},
	RelDerivesFrom:    {"derives_from", RelDerives, DirectionUpstream, true},
	RelDerives:        {"derives", RelDerivesFrom, DirectionDownstream, false},
	RelSatisfies:      {"satisfies", RelIsSatisfiedBy, DirectionUpstream, true},
	RelIsSatisfiedBy:  {"is_satisfied_by", RelSatisfies, DirectionDownstream, false},
	RelJustifies:      {"justifies", RelIsJustifiedBy, DirectionUpstream, true},
	RelIsJustifiedBy:  {"justified_by", RelJustifies, DirectionDownstream, false},
	RelDependsOn:      {"depends_on", RelIsRequiredBy, DirectionPeer, true},
	RelIsRequiredBy:   {"is_required_by", RelDependsOn, DirectionPeer, false},
	RelSupersedes:     {"supersedes", RelIsSupersededBy, DirectionPeer, true},
	RelIsSupersededBy: {"superseded_by", RelSupersedes, DirectionPeer, false},
}

// AllRelationshipKinds returns every valid relationship kind.
func AllRelationshipKinds() []RelationshipKind {
	kinds := make([]RelationshipKind, 0, NumRelationshipKinds-1)
	for r := RelRefines; r < NumRelationshipKinds; r++ {
		kinds = append(kinds, r)
	}
	return kinds
}

// ParseRelationshipField converts a frontmatter field name to its kind.
func ParseRelationshipField(field string) (RelationshipKind, error) {
	for r := RelRefines; r < NumRelationshipKinds; r++ {
		if relTable[r].field == field {
			return r, nil
		}
	}
	return RelUnknown, fmt.Errorf("%w: %q", ErrUnknownRelationship, field)
}

// IsRelationshipField reports whether field names a relationship kind.
func IsRelationshipField(field string) bool {
	_, err := ParseRelationshipField(field)
	return err == nil
}

// Valid reports whether r is a known relationship kind.
func (r RelationshipKind) Valid() bool {
	return r > RelUnknown && r < NumRelationshipKinds
}

// String returns the frontmatter field name of the kind.
func (r RelationshipKind) String() string {
	if r < 0 || r >= NumRelationshipKinds {
		return "unknown"
	}
	return relTable[r].field
}

// FieldName is an alias for String kept for report column naming.
func (r RelationshipKind) FieldName() string {
	return r.String()
}

// Inverse returns the statically known inverse of r.
func (r RelationshipKind) Inverse() RelationshipKind {
	if !r.Valid() {
		return RelUnknown
	}
	return relTable[r].inverse
}

// Direction returns the direction class of r.
func (r RelationshipKind) Direction() Direction {
	if !r.Valid() {
		return DirectionPeer
	}
	return relTable[r].direction
}

// IsUpstream reports whether r points toward the root.
func (r RelationshipKind) IsUpstream() bool {
	return r.Valid() && relTable[r].direction == DirectionUpstream
}

// IsDownstream reports whether r points toward the leaves.
func (r RelationshipKind) IsDownstream() bool {
	return r.Valid() && relTable[r].direction == DirectionDownstream
}

// IsPeer reports whether r links items of the same kind.
func (r RelationshipKind) IsPeer() bool {
	return r.Valid() && relTable[r].direction == DirectionPeer
}

// IsPrimary reports whether r is the declared direction of its pair.
//
// Cycle detection runs over primary edges only, so an explicitly declared
// inverse pair never looks like a two-node cycle.
func (r RelationshipKind) IsPrimary() bool {
	return r.Valid() && relTable[r].primary
}

// MarshalText implements encoding.TextMarshaler.
func (r RelationshipKind) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *RelationshipKind) UnmarshalText(b []byte) error {
	parsed, err := ParseRelationshipField(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// validTargets is the declared-direction half of the relationship table.
// Inverse kinds are validated by swapping endpoints. Peer links are
// allowed between any two items of the same requirement or decision kind.
var validTargets = map[Kind]map[RelationshipKind][]Kind{
	KindUseCase: {
		RelRefines: {KindSolution},
	},
	KindScenario: {
		RelRefines: {KindUseCase},
	},
	KindSystemRequirement: {
		RelDerivesFrom: {KindScenario},
		RelDependsOn:   {KindSystemRequirement},
		RelSupersedes:  {KindSystemRequirement},
	},
	KindSystemArchitecture: {
		RelSatisfies: {KindSystemRequirement},
	},
	KindHardwareRequirement: {
		RelDerivesFrom: {KindSystemArchitecture},
		RelDependsOn:   {KindHardwareRequirement},
		RelSupersedes:  {KindHardwareRequirement},
	},
	KindSoftwareRequirement: {
		RelDerivesFrom: {KindSystemArchitecture},
		RelDependsOn:   {KindSoftwareRequirement},
		RelSupersedes:  {KindSoftwareRequirement},
	},
	KindHardwareDetailedDesign: {
		RelSatisfies: {KindHardwareRequirement},
	},
	KindSoftwareDetailedDesign: {
		RelSatisfies: {KindSoftwareRequirement},
	},
	KindArchitectureDecisionRecord: {
		RelJustifies:  {KindSystemArchitecture, KindHardwareDetailedDesign, KindSoftwareDetailedDesign},
		RelDependsOn:  {KindArchitectureDecisionRecord},
		RelSupersedes: {KindArchitectureDecisionRecord},
	},
}

// IsValidRelationship reports whether from -rel-> to is allowed.
//
// Description:
//
//	Primary kinds are looked up directly in the relationship table.
//	Non-primary kinds are checked as their inverse with the endpoints
//	swapped, so "SOL is_refined_by UC" is valid exactly when
//	"UC refines SOL" is.
//
// Inputs:
//
//	from - Kind of the declaring item.
//	rel - The relationship kind.
//	to - Kind of the target item.
//
// Outputs:
//
//	bool - True if the triple appears in the table.
func IsValidRelationship(from Kind, rel RelationshipKind, to Kind) bool {
	if !rel.Valid() {
		return false
	}
	if !rel.IsPrimary() {
		from, to = to, from
		rel = rel.Inverse()
	}
	return slices.Contains(validTargets[from][rel], to)
}

// ValidTargets returns the target kinds allowed for from -rel->.
func ValidTargets(from Kind, rel RelationshipKind) []Kind {
	var out []Kind
	for _, to := range AllKinds() {
		if IsValidRelationship(from, rel, to) {
			out = append(out, to)
		}
	}
	return out
}

// Relationship is a directed, typed reference from one item to another.
type Relationship struct {
	// From is the identifier of the declaring item.
	From string

	// To is the identifier of the referenced item.
	To string

	// Kind is the relationship kind.
	Kind RelationshipKind
}

// Inverse returns the relationship as seen from its target.
func (r Relationship) Inverse() Relationship {
	return Relationship{From: r.To, To: r.From, Kind: r.Kind.Inverse()}
}

// Canonical returns the primary-direction form of r.
//
// Both members of an inverse pair map to the same canonical value, which
// makes it usable as a set key for "the same link".
func (r Relationship) Canonical() Relationship {
	if r.Kind.IsPrimary() {
		return r
	}
	return r.Inverse()
}

// String renders the relationship as "FROM -kind-> TO".
func (r Relationship) String() string {
	return fmt.Sprintf("%s -%s-> %s", r.From, r.Kind, r.To)
}
