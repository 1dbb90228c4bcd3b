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

import "fmt"

// Kind is the fixed category of an item.
//
// The zero value is KindUnknown. Valid kinds are ordered from the root of
// the decomposition hierarchy toward the leaves; that order is used for
// report sorting.
type Kind int

const (
	// KindUnknown indicates an unrecognized kind.
	KindUnknown Kind = iota

	// KindSolution is the root of a decomposition.
	KindSolution

	// KindUseCase refines a Solution.
	KindUseCase

	// KindScenario refines a UseCase.
	KindScenario

	// KindSystemRequirement derives from a Scenario.
	KindSystemRequirement

	// KindSystemArchitecture satisfies a SystemRequirement.
	KindSystemArchitecture

	// KindHardwareRequirement derives from a SystemArchitecture.
	KindHardwareRequirement

	// KindSoftwareRequirement derives from a SystemArchitecture.
	KindSoftwareRequirement

	// KindHardwareDetailedDesign satisfies a HardwareRequirement.
	KindHardwareDetailedDesign

	// KindSoftwareDetailedDesign satisfies a SoftwareRequirement.
	KindSoftwareDetailedDesign

	// KindArchitectureDecisionRecord justifies architecture and designs.
	KindArchitectureDecisionRecord

	// NumKinds is the number of kind values including KindUnknown.
	// Used for array sizing of per-kind indexes.
	NumKinds
)

// Family groups kinds that share an attribute shape.
type Family int

const (
	// FamilyPlain kinds carry no kind-specific attributes.
	FamilyPlain Family = iota

	// FamilyRequirement kinds carry a specification statement.
	FamilyRequirement

	// FamilyArchitecture kinds carry an optional platform.
	FamilyArchitecture

	// FamilyDecision kinds carry a status and deciders.
	FamilyDecision
)

type kindInfo struct {
	value   string
	prefix  string
	display string
	parent  Kind
	family  Family
}

var kindTable = [NumKinds]kindInfo{
	KindUnknown:                    {value: "unknown", display: "Unknown"},
	KindSolution:                   {"solution", "SOL", "Solution", KindUnknown, FamilyPlain},
	KindUseCase:                    {"use_case", "UC", "Use Case", KindSolution, FamilyPlain},
	KindScenario:                   {"scenario", "SCEN", "Scenario", KindUseCase, FamilyPlain},
	KindSystemRequirement:          {"system_requirement", "SYSREQ", "System Requirement", KindScenario, FamilyRequirement},
	KindSystemArchitecture:         {"system_architecture", "SYSARCH", "System Architecture", KindSystemRequirement, FamilyArchitecture},
	KindHardwareRequirement:        {"hardware_requirement", "HWREQ", "Hardware Requirement", KindSystemArchitecture, FamilyRequirement},
	KindSoftwareRequirement:        {"software_requirement", "SWREQ", "Software Requirement", KindSystemArchitecture, FamilyRequirement},
	KindHardwareDetailedDesign:     {"hardware_detailed_design", "HWDD", "Hardware Detailed Design", KindHardwareRequirement, FamilyPlain},
	KindSoftwareDetailedDesign:     {"software_detailed_design", "SWDD", "Software Detailed Design", KindSoftwareRequirement, FamilyPlain},
	KindArchitectureDecisionRecord: {"architecture_decision_record", "ADR", "Architecture Decision Record", KindUnknown, FamilyDecision},
}

// AllKinds returns every valid kind in hierarchy order.
func AllKinds() []Kind {
	kinds := make([]Kind, 0, NumKinds-1)
	for k := KindSolution; k < NumKinds; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// ParseKind converts a frontmatter "type" value to a Kind.
//
// Inputs:
//
//	s - The snake_case kind value, e.g. "system_requirement".
//
// Outputs:
//
//	Kind - The parsed kind, KindUnknown on failure.
//	error - ErrUnknownKind wrapped with the offending value.
func ParseKind(s string) (Kind, error) {
	for k := KindSolution; k < NumKinds; k++ {
		if kindTable[k].value == s {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Valid reports whether k is one of the ten item kinds.
func (k Kind) Valid() bool {
	return k > KindUnknown && k < NumKinds
}

// String returns the frontmatter value of the kind.
func (k Kind) String() string {
	if k < 0 || k >= NumKinds {
		return "unknown"
	}
	return kindTable[k].value
}

// DisplayName returns the human-readable kind name.
func (k Kind) DisplayName() string {
	if k < 0 || k >= NumKinds {
		return "Unknown"
	}
	return kindTable[k].display
}

// Prefix returns the conventional identifier prefix, e.g. "SYSREQ".
func (k Kind) Prefix() string {
	if !k.Valid() {
		return ""
	}
	return kindTable[k].prefix
}

// RequiredParent returns the kind an item of this kind must trace to.
//
// Outputs:
//
//	Kind - The parent kind.
//	bool - False for root and peer kinds (Solution, ADR).
func (k Kind) RequiredParent() (Kind, bool) {
	if !k.Valid() {
		return KindUnknown, false
	}
	p := kindTable[k].parent
	return p, p != KindUnknown
}

// IsRoot reports whether the kind sits at the top of the hierarchy.
func (k Kind) IsRoot() bool {
	return k == KindSolution
}

// Family returns the attribute family of the kind.
func (k Kind) Family() Family {
	if !k.Valid() {
		return FamilyPlain
	}
	return kindTable[k].family
}

// IsRequirement reports whether items of this kind carry a specification.
func (k Kind) IsRequirement() bool {
	return k.Family() == FamilyRequirement
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
