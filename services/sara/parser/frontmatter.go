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
	"bufio"
	"bytes"
	"strings"
)

const delimiter = "---"

// Frontmatter is the YAML block at the top of a Markdown document.
type Frontmatter struct {
	// YAML is the text between the delimiters.
	YAML string

	// StartLine is the 1-indexed line of the opening delimiter.
	StartLine int

	// EndLine is the 1-indexed line of the closing delimiter.
	EndLine int

	// Body is the Markdown content after the closing delimiter.
	Body string
}

// HasFrontmatter reports whether content opens with a delimiter line.
func HasFrontmatter(content []byte) bool {
	line, _, _ := bytes.Cut(content, []byte("\n"))
	return strings.TrimSpace(string(line)) == delimiter
}

// ExtractFrontmatter splits content into its frontmatter and body.
//
// Outputs:
//
//	Frontmatter - The YAML block and body.
//	error - ErrNoFrontmatter if the first line is not "---";
//	        ErrUnterminatedFrontmatter if no closing "---" follows.
func ExtractFrontmatter(content []byte) (Frontmatter, error) {
	if !HasFrontmatter(content) {
		return Frontmatter{}, ErrNoFrontmatter
	}

	var (
		yamlLines []string
		bodyLines []string
		endLine   int
	)

	sc := bufio.NewScanner(bytes.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), len(content)+1)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSuffix(sc.Text(), "\r")
		switch {
		case lineNo == 1:
			continue
		case endLine == 0 && strings.TrimSpace(line) == delimiter:
			endLine = lineNo
		case endLine == 0:
			yamlLines = append(yamlLines, line)
		default:
			bodyLines = append(bodyLines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return Frontmatter{}, err
	}
	if endLine == 0 {
		return Frontmatter{}, ErrUnterminatedFrontmatter
	}

	return Frontmatter{
		YAML:      strings.Join(yamlLines, "\n"),
		StartLine: 1,
		EndLine:   endLine,
		Body:      strings.Join(bodyLines, "\n"),
	}, nil
}

// FirstHeading returns the text of the first "# " heading in body.
func FirstHeading(body string) (string, bool) {
	for line := range strings.Lines(body) {
		if heading, ok := strings.CutPrefix(strings.TrimSpace(line), "# "); ok {
			return strings.TrimSpace(heading), true
		}
	}
	return "", false
}
