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
	"strings"
	"unicode"
)

// Attributes is the kind-specific data of an item.
//
// The interface is sealed: only the variants in this file implement it.
type Attributes interface {
	// Family returns the kind family the variant belongs to.
	Family() Family

	sealed()
}

// PlainAttributes is the variant for kinds with no extra fields.
type PlainAttributes struct{}

// Family implements Attributes.
func (PlainAttributes) Family() Family { return FamilyPlain }
func (PlainAttributes) sealed()        {}

// RequirementAttributes is the variant for system, hardware and software
// requirements.
type RequirementAttributes struct {
	// Specification is the normative requirement statement.
	Specification string
}

// Family implements Attributes.
func (RequirementAttributes) Family() Family { return FamilyRequirement }
func (RequirementAttributes) sealed()        {}

// ArchitectureAttributes is the variant for system architecture items.
type ArchitectureAttributes struct {
	// Platform is the optional target platform.
	Platform string
}

// Family implements Attributes.
func (ArchitectureAttributes) Family() Family { return FamilyArchitecture }
func (ArchitectureAttributes) sealed()        {}

// DecisionStatus is the lifecycle state of an architecture decision record.
type DecisionStatus string

const (
	StatusProposed   DecisionStatus = "proposed"
	StatusAccepted   DecisionStatus = "accepted"
	StatusDeprecated DecisionStatus = "deprecated"
	StatusSuperseded DecisionStatus = "superseded"
)

// ParseDecisionStatus validates an ADR status value.
func ParseDecisionStatus(s string) (DecisionStatus, error) {
	switch st := DecisionStatus(s); st {
	case StatusProposed, StatusAccepted, StatusDeprecated, StatusSuperseded:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// DecisionAttributes is the variant for architecture decision records.
type DecisionAttributes struct {
	// Status is the decision's lifecycle state.
	Status DecisionStatus

	// Deciders lists the people who made the decision. Never empty for a
	// successfully built item.
	Deciders []string
}

// Family implements Attributes.
func (DecisionAttributes) Family() Family { return FamilyDecision }
func (DecisionAttributes) sealed()        {}

// rfc2119Keywords are the normative keywords a specification must use.
var rfc2119Keywords = []string{
	"MUST", "MUST NOT", "REQUIRED", "SHALL", "SHALL NOT",
	"SHOULD", "SHOULD NOT", "RECOMMENDED", "MAY", "OPTIONAL",
}

// ContainsRFC2119Keyword reports whether text uses a normative keyword as
// a whole word. "MUSTARD" does not match MUST.
func ContainsRFC2119Keyword(text string) bool {
	words := strings.FieldsFunc(strings.ToUpper(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	upper := " " + strings.Join(words, " ") + " "
	for _, kw := range rfc2119Keywords {
		if strings.Contains(upper, " "+kw+" ") {
			return true
		}
	}
	return false
}

// deciderList returns a defensive copy.
func deciderList(d []string) []string {
	return slices.Clone(d)
}
