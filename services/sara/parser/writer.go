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
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// FIELDS
// =============================================================================

// Field is one top-level frontmatter key to write.
type Field struct {
	// Key is the frontmatter key.
	Key string

	// Values holds the scalar value, or the list entries.
	Values []string

	list   bool
	remove bool
}

// ScalarField writes key as a single string.
func ScalarField(key, value string) Field {
	return Field{Key: key, Values: []string{value}}
}

// ListField writes key as a sequence of strings.
func ListField(key string, values ...string) Field {
	return Field{Key: key, Values: values, list: true}
}

// RemoveField deletes key.
func RemoveField(key string) Field {
	return Field{Key: key, remove: true}
}

func (f Field) node() *yaml.Node {
	if !f.list {
		var v string
		if len(f.Values) > 0 {
			v = f.Values[0]
		}
		return stringNode(v)
	}
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, v := range f.Values {
		seq.Content = append(seq.Content, stringNode(v))
	}
	return seq
}

// stringNode tags the value explicitly so "123" or "yes" stay strings
// after a round trip.
func stringNode(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

// =============================================================================
// RENDERING
// =============================================================================

// RenderFrontmatter renders fields as a delimited YAML block.
//
// Description:
//
//	Keys are written in the order given. Removals are ignored. The
//	result ends with the closing delimiter and a newline.
//
// Example:
//
//	out, _ := RenderFrontmatter([]Field{ScalarField("id", "SOL-1")})
//	// "---\nid: SOL-1\n---\n"
func RenderFrontmatter(fields []Field) ([]byte, error) {
	mapping := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	apply(mapping, fields)
	return encode(mapping)
}

// WithFrontmatter sets fields as the whole frontmatter of content.
//
// Any existing frontmatter is discarded and the body kept. Content
// without frontmatter becomes the body unchanged.
func WithFrontmatter(content []byte, fields []Field) ([]byte, error) {
	header, err := RenderFrontmatter(fields)
	if err != nil {
		return nil, err
	}
	body := content
	if HasFrontmatter(content) {
		fm, err := ExtractFrontmatter(content)
		if err != nil {
			return nil, err
		}
		body = []byte(terminate(fm.Body))
	}
	return append(header, body...), nil
}

// UpdateFrontmatter rewrites fields inside the existing frontmatter.
//
// Description:
//
//	Keys already present keep their position and get the new value;
//	new keys are appended; RemoveField deletes. Keys not named in
//	fields, custom ones included, are kept as they were. The body is
//	preserved.
//
// Outputs:
//
//	[]byte - The rewritten document.
//	error - ErrNoFrontmatter, ErrUnterminatedFrontmatter or ErrInvalidYAML.
func UpdateFrontmatter(content []byte, fields []Field) ([]byte, error) {
	fm, err := ExtractFrontmatter(content)
	if err != nil {
		return nil, err
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(fm.YAML), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	var mapping *yaml.Node
	switch {
	case len(doc.Content) == 0:
		mapping = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	case doc.Content[0].Kind == yaml.MappingNode:
		mapping = doc.Content[0]
	default:
		return nil, fmt.Errorf("%w: expected a mapping", ErrInvalidYAML)
	}

	apply(mapping, fields)
	header, err := encode(mapping)
	if err != nil {
		return nil, err
	}
	return append(header, terminate(fm.Body)...), nil
}

func apply(mapping *yaml.Node, fields []Field) {
	for _, f := range fields {
		i := indexOf(mapping, f.Key)
		switch {
		case f.remove && i >= 0:
			mapping.Content = append(mapping.Content[:i], mapping.Content[i+2:]...)
		case f.remove:
		case i >= 0:
			mapping.Content[i+1] = f.node()
		default:
			mapping.Content = append(mapping.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Key}, f.node())
		}
	}
}

// indexOf returns the position of key's key node in mapping, or -1.
func indexOf(mapping *yaml.Node, key string) int {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return i
		}
	}
	return -1
}

func encode(mapping *yaml.Node) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(delimiter + "\n")
	if len(mapping.Content) > 0 {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(mapping); err != nil {
			return nil, fmt.Errorf("encoding frontmatter: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encoding frontmatter: %w", err)
		}
	}
	buf.WriteString(delimiter + "\n")
	return buf.Bytes(), nil
}

func terminate(body string) string {
	if body == "" || strings.HasSuffix(body, "\n") {
		return body
	}
	return body + "\n"
}
