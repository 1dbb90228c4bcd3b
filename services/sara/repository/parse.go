// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/sara/services/sara/model"
	"github.com/AleutianAI/sara/services/sara/parser"
)

// RecordCache stores parsed records keyed by file identity and content.
//
// *cache.RecordCache satisfies it.
type RecordCache interface {
	Get(ctx context.Context, repository, path string, content []byte) (model.Record, bool)
	Put(ctx context.Context, repository, path string, content []byte, rec model.Record) error
}

// document is one candidate file awaiting parsing.
type document struct {
	repository string
	path       string
	ref        string
	load       func() ([]byte, error)
}

type parseOutcome struct {
	rec     model.Record
	ok      bool
	readErr error
	err     error
}

// parseDocuments parses docs concurrently and returns records in input order.
//
// Description:
//
//	Loads and parses each document on a bounded errgroup. Documents
//	without frontmatter are skipped silently. Read failures and parse
//	failures are logged and skipped, unless no record at all could be
//	produced while at least one file failed to parse.
//
// Outputs:
//
//	[]model.Record - Parsed records, never nil.
//	error - ErrAllFilesFailed wrapping the first parse error, or a
//	        context error.
func parseDocuments(ctx context.Context, docs []document, workers int, cache RecordCache, logger *slog.Logger) ([]model.Record, error) {
	outcomes := make([]parseOutcome, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, workers))
	for i, doc := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = parseDocument(gctx, doc, cache, logger)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := make([]model.Record, 0, len(docs))
	var parseErrs []error
	for i, out := range outcomes {
		switch {
		case out.readErr != nil:
			logger.Warn("failed to read file",
				slog.String("path", docs[i].path),
				slog.String("error", out.readErr.Error()))
		case out.err != nil:
			logger.Warn("failed to parse file",
				slog.String("path", docs[i].path),
				slog.String("error", out.err.Error()))
			parseErrs = append(parseErrs, out.err)
		case out.ok:
			records = append(records, out.rec)
		}
	}

	if len(records) == 0 && len(parseErrs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrAllFilesFailed, parseErrs[0])
	}
	return records, nil
}

func parseDocument(ctx context.Context, doc document, cache RecordCache, logger *slog.Logger) parseOutcome {
	content, err := doc.load()
	if err != nil {
		return parseOutcome{readErr: err}
	}

	if cache != nil {
		if rec, ok := cache.Get(ctx, doc.repository, doc.path, content); ok {
			rec.Source.GitRef = doc.ref
			return parseOutcome{rec: rec, ok: true}
		}
	}

	if !parser.HasFrontmatter(content) {
		return parseOutcome{}
	}

	rec, err := parser.Parse(content, model.SourceLocation{
		Repository: doc.repository,
		FilePath:   doc.path,
		GitRef:     doc.ref,
	})
	if err != nil {
		if errors.Is(err, parser.ErrNoFrontmatter) {
			return parseOutcome{}
		}
		return parseOutcome{err: err}
	}

	if cache != nil {
		if err := cache.Put(ctx, doc.repository, doc.path, content, rec); err != nil {
			logger.Debug("record cache write failed",
				slog.String("path", doc.path),
				slog.String("error", err.Error()))
		}
	}
	return parseOutcome{rec: rec, ok: true}
}
