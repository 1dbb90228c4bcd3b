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
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Attribute field names.
const (
	FieldSpecification = "specification"
	FieldPlatform      = "platform"
	FieldStatus        = "status"
	FieldDeciders      = "deciders"
)

// KnownFields returns every frontmatter key the engine understands.
func KnownFields() []string {
	fields := []string{"id", "type", "name", "description",
		FieldSpecification, FieldPlatform, FieldStatus, FieldDeciders}
	for _, r := range AllRelationshipKinds() {
		fields = append(fields, r.String())
	}
	return fields
}

// Record is a parsed item record handed to the graph builder.
//
// Records are produced by the frontmatter parser, the directory scanner
// and the git reader. The engine never reads files itself.
type Record struct {
	// ID is the item identifier.
	ID string `json:"id" validate:"required,itemid"`

	// Kind is the frontmatter "type" value, e.g. "use_case".
	Kind string `json:"type" validate:"required"`

	// Name is the display name.
	Name string `json:"name" validate:"required"`

	// Description is optional.
	Description string `json:"description,omitempty"`

	// Source is where the record was read from.
	Source SourceLocation `json:"source"`

	// Relationships maps a relationship field name to target identifiers.
	Relationships map[string][]string `json:"relationships,omitempty"`

	// Attributes maps a kind-specific field name to its values. Scalar
	// fields carry exactly one value.
	Attributes map[string][]string `json:"attributes,omitempty"`

	// CustomFields lists frontmatter keys outside KnownFields.
	CustomFields []string `json:"custom_fields,omitempty"`
}

// Attribute returns the first value of a scalar attribute.
func (r *Record) Attribute(name string) (string, bool) {
	v, ok := r.Attributes[name]
	if !ok || len(v) == 0 {
		return "", ok
	}
	return v[0], true
}

// FieldError reports a problem with one field of a record.
type FieldError struct {
	// Field is the frontmatter key.
	Field string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %v", e.Field, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *FieldError) Unwrap() error {
	return e.Err
}

var (
	recordValidate     *validator.Validate
	recordValidateOnce sync.Once
)

func getRecordValidator() *validator.Validate {
	recordValidateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		// Registration only fails on an empty tag or nil func.
		_ = v.RegisterValidation("itemid", func(fl validator.FieldLevel) bool {
			return ValidateID(fl.Field().String()) == nil
		})
		recordValidate = v
	})
	return recordValidate
}

// Validate checks the structural rules of a record: id, type and name are
// present and the identifier is well formed.
func (r *Record) Validate() error {
	err := getRecordValidator().Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "itemid":
		return &FieldError{Field: fe.Field(), Err: ValidateID(r.ID)}
	default:
		return &FieldError{Field: fe.Field(), Err: ErrMissingField}
	}
}

// ToItem converts a record into an immutable item.
//
// Description:
//
//	Validates the record, parses its kind, collects declared relationships
//	in relationship-kind order, and builds the attribute variant for the
//	kind family. Attribute keys that do not apply to the kind are kept as
//	custom fields so the validator can flag them.
//
// Outputs:
//
//	*Item - The item.
//	error - A *FieldError naming the offending field.
//
// Errors:
//
//	ErrMissingField - id, type, name, specification, status or deciders absent
//	ErrInvalidID - identifier fails the charset rules
//	ErrUnknownKind - type is not one of the ten kinds
//	ErrUnknownRelationship - a relationship key is not a relationship field
//	ErrInvalidStatus - ADR status is not a known value
func (r *Record) ToItem() (*Item, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	kind, err := ParseKind(r.Kind)
	if err != nil {
		return nil, &FieldError{Field: "type", Err: err}
	}

	for field := range r.Relationships {
		if !IsRelationshipField(field) {
			return nil, &FieldError{Field: field, Err: ErrUnknownRelationship}
		}
	}
	var declared []Relationship
	for _, rk := range AllRelationshipKinds() {
		for _, to := range r.Relationships[rk.String()] {
			declared = append(declared, Relationship{From: r.ID, To: to, Kind: rk})
		}
	}

	attrs, extra, err := r.attributesFor(kind)
	if err != nil {
		return nil, err
	}

	custom := slices.Clone(r.CustomFields)
	custom = append(custom, extra...)

	return NewItem(ItemSpec{
		ID:           r.ID,
		Kind:         kind,
		Name:         r.Name,
		Description:  r.Description,
		Source:       r.Source,
		Declared:     declared,
		Attributes:   attrs,
		CustomFields: custom,
	})
}

// attributesFor builds the variant for kind and returns attribute keys
// that do not belong to it.
func (r *Record) attributesFor(kind Kind) (Attributes, []string, error) {
	used := map[string]bool{}
	var attrs Attributes

	switch kind.Family() {
	case FamilyRequirement:
		spec, ok := r.Attribute(FieldSpecification)
		if !ok {
			return nil, nil, &FieldError{Field: FieldSpecification, Err: ErrMissingField}
		}
		used[FieldSpecification] = true
		attrs = RequirementAttributes{Specification: strings.TrimSpace(spec)}

	case FamilyArchitecture:
		platform, _ := r.Attribute(FieldPlatform)
		used[FieldPlatform] = true
		attrs = ArchitectureAttributes{Platform: platform}

	case FamilyDecision:
		raw, ok := r.Attribute(FieldStatus)
		if !ok {
			return nil, nil, &FieldError{Field: FieldStatus, Err: ErrMissingField}
		}
		status, err := ParseDecisionStatus(raw)
		if err != nil {
			return nil, nil, &FieldError{Field: FieldStatus, Err: err}
		}
		var deciders []string
		for _, d := range r.Attributes[FieldDeciders] {
			if d = strings.TrimSpace(d); d != "" {
				deciders = append(deciders, d)
			}
		}
		if len(deciders) == 0 {
			return nil, nil, &FieldError{Field: FieldDeciders, Err: ErrMissingField}
		}
		used[FieldStatus] = true
		used[FieldDeciders] = true
		attrs = DecisionAttributes{Status: status, Deciders: deciders}

	default:
		attrs = PlainAttributes{}
	}

	var extra []string
	for key := range r.Attributes {
		if !used[key] {
			extra = append(extra, key)
		}
	}
	slices.Sort(extra)
	return attrs, extra, nil
}
