// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package parser

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/sara/services/sara/model"
)

// Markdown file extensions recognized by IsMarkdown.
var markdownExtensions = []string{".md", ".markdown"}

// IsMarkdown reports whether name has a Markdown extension.
func IsMarkdown(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	for _, m := range markdownExtensions {
		if ext == m {
			return true
		}
	}
	return false
}

// StringList decodes either a YAML scalar or a sequence of scalars.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			*l = nil
			return nil
		}
		*l = StringList{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make(StringList, 0, len(value.Content))
		for _, n := range value.Content {
			if n.Kind != yaml.ScalarNode {
				return fmt.Errorf("%w: line %d: expected a scalar list entry", ErrInvalidValue, n.Line)
			}
			out = append(out, n.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("%w: line %d: expected a string or list", ErrInvalidValue, value.Line)
	}
}

var attributeFields = map[string]bool{
	model.FieldSpecification: true,
	model.FieldPlatform:      true,
	model.FieldStatus:        true,
	model.FieldDeciders:      true,
}

// Parse converts one Markdown document into a record.
//
// Description:
//
//	Extracts the frontmatter and walks its top-level mapping in document
//	order. id, type, name and description are scalars. Relationship and
//	attribute fields accept a scalar or a list. Any other key is kept
//	as a custom field. A missing name falls back to the first "# "
//	heading of the body.
//
// Inputs:
//
//	content - The raw file bytes.
//	source - Where the file lives. Line is overwritten with the
//	         frontmatter start line.
//
// Outputs:
//
//	model.Record - The raw record; structural checks are left to the builder.
//	error - *ParseError wrapping ErrNoFrontmatter, ErrUnterminatedFrontmatter,
//	        ErrInvalidYAML or ErrInvalidValue.
func Parse(content []byte, source model.SourceLocation) (model.Record, error) {
	fm, err := ExtractFrontmatter(content)
	if err != nil {
		return model.Record{}, &ParseError{Path: source.FilePath, Line: 1, Err: err}
	}
	source.Line = fm.StartLine

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(fm.YAML), &doc); err != nil {
		return model.Record{}, &ParseError{Path: source.FilePath, Line: fm.StartLine, Err: fmt.Errorf("%w: %v", ErrInvalidYAML, err)}
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return model.Record{}, &ParseError{Path: source.FilePath, Line: fm.StartLine, Err: fmt.Errorf("%w: expected a mapping", ErrInvalidYAML)}
	}

	rec := model.Record{Source: source}
	mapping := doc.Content[0]
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key, value := mapping.Content[i].Value, mapping.Content[i+1]
		// Frontmatter line numbers are relative to the YAML block.
		fieldErr := func(err error) error {
			return &ParseError{Path: source.FilePath, Line: fm.StartLine + value.Line, Field: key, Err: err}
		}

		switch {
		case key == "id" || key == "type" || key == "name" || key == "description":
			var s string
			if err := value.Decode(&s); err != nil {
				return model.Record{}, fieldErr(fmt.Errorf("%w: %v", ErrInvalidValue, err))
			}
			setScalar(&rec, key, strings.TrimSpace(s))

		case model.IsRelationshipField(key):
			var targets StringList
			if err := value.Decode(&targets); err != nil {
				return model.Record{}, fieldErr(err)
			}
			if rec.Relationships == nil {
				rec.Relationships = map[string][]string{}
			}
			rec.Relationships[key] = append(rec.Relationships[key], trimAll(targets)...)

		case attributeFields[key]:
			var values StringList
			if err := value.Decode(&values); err != nil {
				return model.Record{}, fieldErr(err)
			}
			if rec.Attributes == nil {
				rec.Attributes = map[string][]string{}
			}
			rec.Attributes[key] = values

		default:
			rec.CustomFields = append(rec.CustomFields, key)
		}
	}

	if rec.Name == "" {
		if heading, ok := FirstHeading(fm.Body); ok {
			rec.Name = heading
		}
	}
	return rec, nil
}

// ParseFile reads name from fsys and parses it.
//
// The record's source carries repository, name and ref.
func ParseFile(fsys fs.FS, name, repository, ref string) (model.Record, error) {
	content, err := fs.ReadFile(fsys, name)
	if err != nil {
		return model.Record{}, fmt.Errorf("reading %s: %w", name, err)
	}
	return Parse(content, model.SourceLocation{Repository: repository, FilePath: name, GitRef: ref})
}

func setScalar(rec *model.Record, key, value string) {
	switch key {
	case "id":
		rec.ID = value
	case "type":
		rec.Kind = value
	case "name":
		rec.Name = value
	case "description":
		rec.Description = value
	}
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
