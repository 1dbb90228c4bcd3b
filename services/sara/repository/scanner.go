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
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"time"

	"github.com/AleutianAI/sara/services/sara/model"
)

// ScannerOptions configures a Scanner.
type ScannerOptions struct {
	// Filter selects files. The zero value selects every Markdown file.
	Filter Filter

	// WorkerCount bounds concurrent file parsing. Default: runtime.NumCPU().
	WorkerCount int

	// Cache, when set, short-circuits parsing of unchanged files.
	Cache RecordCache

	// Logger receives per-file warnings. Default: slog.Default().
	Logger *slog.Logger
}

// ScannerOption is a functional option for NewScanner.
type ScannerOption func(*ScannerOptions)

// WithFilter sets the include/exclude filter.
func WithFilter(f Filter) ScannerOption {
	return func(o *ScannerOptions) {
		o.Filter = f
	}
}

// WithScanWorkers sets the parse worker count.
func WithScanWorkers(n int) ScannerOption {
	return func(o *ScannerOptions) {
		if n > 0 {
			o.WorkerCount = n
		}
	}
}

// WithCache enables the record cache.
func WithCache(c RecordCache) ScannerOption {
	return func(o *ScannerOptions) {
		o.Cache = c
	}
}

// WithScanLogger sets the logger.
func WithScanLogger(l *slog.Logger) ScannerOption {
	return func(o *ScannerOptions) {
		if l != nil {
			o.Logger = l
		}
	}
}

// Scanner reads records from working-tree directories.
//
// Thread Safety: Safe for concurrent use.
type Scanner struct {
	opts ScannerOptions
}

// NewScanner creates a scanner.
//
// Outputs:
//
//	*Scanner - Ready to scan.
//	error - ErrInvalidPattern if a filter pattern is malformed.
func NewScanner(opts ...ScannerOption) (*Scanner, error) {
	o := ScannerOptions{
		WorkerCount: runtime.NumCPU(),
		Logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.Filter.Validate(); err != nil {
		return nil, err
	}
	return &Scanner{opts: o}, nil
}

// Files lists the selected files under root.
//
// Description:
//
//	Walks root, pruning hidden directories, and returns the
//	slash-separated paths relative to root that pass the filter, sorted.
//	Unreadable subdirectories are logged and skipped.
//
// Outputs:
//
//	[]string - Relative paths.
//	error - Non-nil if root itself cannot be walked.
func (s *Scanner) Files(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			s.opts.Logger.Warn("skipping unreadable path",
				slog.String("path", p),
				slog.String("error", err.Error()))
			return nil
		}
		if d.IsDir() {
			if p != root && isHidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if s.opts.Filter.Match(rel) {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}

// Scan parses every selected file under the given roots.
//
// Description:
//
//	Roots that do not exist are logged and skipped. Files are parsed
//	concurrently; records come back ordered by root then path. Each
//	record's source carries the root as given and the file path relative
//	to it.
//
// Inputs:
//
//	ctx - Cancels the scan.
//	roots - Repository directories.
//
// Outputs:
//
//	[]model.Record - The records, never nil.
//	error - ErrAllFilesFailed if files were found but none parsed, a
//	        walk error, or a context error.
//
// Example:
//
//	scanner, err := repository.NewScanner(repository.WithFilter(repository.Filter{
//	    Exclude: []string{"**/drafts/**"},
//	}))
//	if err != nil {
//	    return err
//	}
//	records, err := scanner.Scan(ctx, "./docs")
func (s *Scanner) Scan(ctx context.Context, roots ...string) ([]model.Record, error) {
	start := time.Now()
	logger := s.opts.Logger

	var docs []document
	for _, root := range roots {
		root = filepath.Clean(root)
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			logger.Warn("repository path does not exist", slog.String("path", root))
			continue
		}

		files, err := s.Files(root)
		if err != nil {
			return nil, err
		}
		for _, rel := range files {
			full := filepath.Join(root, filepath.FromSlash(rel))
			docs = append(docs, document{
				repository: root,
				path:       rel,
				load:       func() ([]byte, error) { return os.ReadFile(full) },
			})
		}
	}

	records, err := parseDocuments(ctx, docs, s.opts.WorkerCount, s.opts.Cache, logger)
	if err != nil {
		return nil, err
	}

	logger.Debug("scan complete",
		slog.Int("roots", len(roots)),
		slog.Int("files", len(docs)),
		slog.Int("records", len(records)),
		slog.Duration("duration", time.Since(start)))
	return records, nil
}
