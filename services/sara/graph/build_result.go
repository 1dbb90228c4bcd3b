// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

// BuildStats contains statistics about a build operation.
type BuildStats struct {
	// RecordsProcessed is the number of records received.
	RecordsProcessed int

	// NodesCreated is the number of items added to the graph.
	NodesCreated int

	// DeclaredRelationships is the number of relationships written in
	// sources, resolved or not.
	DeclaredRelationships int

	// EdgesCreated is the number of normalized edges, inverses included.
	EdgesCreated int

	// UnresolvedReferences is the number of declared relationships whose
	// target did not resolve.
	UnresolvedReferences int

	// RedundantPairs is the number of links declared from both ends.
	RedundantPairs int

	// DuplicatesSkipped is the number of records excluded as duplicates
	// when fail-fast is disabled.
	DuplicatesSkipped int

	// DurationMilli is the total build time in milliseconds.
	// NOTE: For fast builds (< 1ms), this rounds to 0. Use DurationMicro for precision.
	DurationMilli int64

	// DurationMicro is the total build time in microseconds.
	DurationMicro int64
}

// BuildResult contains the result of a successful build.
//
// Fatal problems (duplicate identifiers in fail-fast mode, malformed
// records, an empty required source set) are returned as errors and no
// BuildResult is produced. Structural problems such as broken references
// are kept inside the graph for the validator.
type BuildResult struct {
	// Graph is the frozen knowledge graph.
	Graph *KnowledgeGraph

	// Stats contains build statistics.
	Stats BuildStats
}

// HasFindings returns true if the graph retained anything the validator
// will report from build data alone.
func (r *BuildResult) HasFindings() bool {
	return r.Stats.UnresolvedReferences > 0 || r.Stats.RedundantPairs > 0 || r.Stats.DuplicatesSkipped > 0
}
