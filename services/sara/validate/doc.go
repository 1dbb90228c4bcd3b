// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validate runs structural rules over a built knowledge graph.
//
// # Overview
//
// A Validator holds a fixed list of independent rules. Each rule inspects
// the frozen graph (and the unresolved references, redundancy notes and
// duplicates the builder retained) and returns findings. Rules never
// depend on each other's output, so they run concurrently; their findings
// are merged in rule order into a single Report.
//
// # Severity
//
// Findings are errors or warnings. A Report is valid when it holds no
// errors. Orphan items are errors only when StrictOrphans is set.
//
// # Usage
//
//	v := validate.New(validate.WithConfig(validate.Config{StrictOrphans: true}))
//	report := v.Validate(ctx, g)
//	if !report.IsValid() {
//	    // exit non-zero
//	}
//
// # Fatal Build Errors
//
// Duplicate identifiers and malformed records abort the build before a
// graph exists. FindingFromBuildError converts such an error into a
// Finding so callers can render it through the same formatters.
package validate
