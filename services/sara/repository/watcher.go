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
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeOp is the kind of file system change.
type ChangeOp int

const (
	// ChangeCreate indicates a file was created.
	ChangeCreate ChangeOp = iota

	// ChangeWrite indicates a file was modified.
	ChangeWrite

	// ChangeRemove indicates a file was deleted.
	ChangeRemove

	// ChangeRename indicates a file was renamed away.
	ChangeRename
)

// String returns the operation name.
func (op ChangeOp) String() string {
	switch op {
	case ChangeCreate:
		return "create"
	case ChangeWrite:
		return "write"
	case ChangeRemove:
		return "remove"
	case ChangeRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Change is one debounced change to a document file.
type Change struct {
	// Root is the watched repository root containing the file.
	Root string

	// Path is the slash-separated path relative to Root.
	Path string

	// Op is the kind of change.
	Op ChangeOp

	// Time is when the change was observed.
	Time time.Time
}

// ChangeHandler receives a batch of changes after the debounce window.
type ChangeHandler func(changes []Change)

// WatcherOptions configures a Watcher.
type WatcherOptions struct {
	// Filter selects which files produce changes.
	Filter Filter

	// DebounceWindow is how long to wait for further changes before
	// calling the handler. Default: 300ms.
	DebounceWindow time.Duration

	// BufferSize is the pending change buffer. Default: 1024.
	BufferSize int

	// Logger receives watch errors. Default: slog.Default().
	Logger *slog.Logger
}

// DefaultWatcherOptions returns the defaults.
func DefaultWatcherOptions() WatcherOptions {
	return WatcherOptions{
		DebounceWindow: 300 * time.Millisecond,
		BufferSize:     1024,
		Logger:         slog.Default(),
	}
}

// Watcher reports Markdown changes under one or more repository roots.
//
// # Description
//
// Changes are collected until the debounce window passes with no new
// event, then deduplicated per file and handed to the handler in one
// batch. Saving a file in most editors produces several events; the
// handler sees one change.
//
// # Thread Safety
//
// Safe for concurrent use. The handler is called from a single goroutine.
type Watcher struct {
	roots    []string
	watcher  *fsnotify.Watcher
	handler  ChangeHandler
	filter   Filter
	debounce time.Duration
	logger   *slog.Logger

	changes  chan Change
	done     chan struct{}
	stopOnce sync.Once

	mu       sync.RWMutex
	watching bool
}

// NewWatcher creates a watcher for roots.
//
// # Inputs
//
//   - roots: Repository directories to watch recursively.
//   - handler: Called with each debounced batch.
//   - opts: Optional configuration (nil uses defaults).
//
// # Outputs
//
//   - *Watcher: Call Start to begin watching and Stop when done.
//   - error: Non-nil if the filter is invalid or fsnotify fails.
//
// # Example
//
//	w, err := repository.NewWatcher([]string{"./docs"}, func(changes []repository.Change) {
//	    rebuild()
//	}, nil)
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//	if err := w.Start(ctx); err != nil {
//	    return err
//	}
func NewWatcher(roots []string, handler ChangeHandler, opts *WatcherOptions) (*Watcher, error) {
	o := DefaultWatcherOptions()
	if opts != nil {
		o.Filter = opts.Filter
		if opts.DebounceWindow > 0 {
			o.DebounceWindow = opts.DebounceWindow
		}
		if opts.BufferSize > 0 {
			o.BufferSize = opts.BufferSize
		}
		if opts.Logger != nil {
			o.Logger = opts.Logger
		}
	}
	if err := o.Filter.Validate(); err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	cleaned := make([]string, len(roots))
	for i, r := range roots {
		if abs, err := filepath.Abs(r); err == nil {
			r = abs
		}
		cleaned[i] = filepath.Clean(r)
	}

	return &Watcher{
		roots:    cleaned,
		watcher:  fw,
		handler:  handler,
		filter:   o.Filter,
		debounce: o.DebounceWindow,
		logger:   o.Logger,
		changes:  make(chan Change, o.BufferSize),
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching.
//
// Every root is added recursively, skipping hidden directories. Two
// goroutines run until Stop is called or ctx is canceled: one translating
// fsnotify events, one debouncing them.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.watching {
		w.mu.Unlock()
		return nil
	}
	w.watching = true
	w.mu.Unlock()

	for _, root := range w.roots {
		if err := w.addRecursive(root); err != nil {
			return err
		}
	}

	go w.processEvents(ctx)
	go w.debounceLoop(ctx)
	return nil
}

// Stop stops the watcher and flushes any pending batch.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.watcher.Close()

		w.mu.Lock()
		w.watching = false
		w.mu.Unlock()
	})
}

// IsWatching reports whether the watcher is active.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.watching
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		return w.watcher.Add(p)
	})
}

// locate maps an absolute event path to its root and relative path.
func (w *Watcher) locate(p string) (root, rel string, ok bool) {
	for _, r := range w.roots {
		rel, err := filepath.Rel(r, p)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			continue
		}
		return r, filepath.ToSlash(rel), true
	}
	return "", "", false
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !isHidden(filepath.Base(event.Name)) {
						if err := w.addRecursive(event.Name); err != nil {
							w.logger.Warn("failed to watch new directory",
								slog.String("path", event.Name),
								slog.String("error", err.Error()))
						}
					}
					continue
				}
			}

			root, rel, ok := w.locate(event.Name)
			if !ok || !w.filter.Match(rel) {
				continue
			}

			change := Change{Root: root, Path: rel, Op: convertOp(event.Op), Time: time.Now()}
			select {
			case w.changes <- change:
			default:
				w.logger.Warn("change buffer full, dropping event", slog.String("path", rel))
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watch error", slog.String("error", err.Error()))
		}
	}
}

func convertOp(op fsnotify.Op) ChangeOp {
	switch {
	case op.Has(fsnotify.Create):
		return ChangeCreate
	case op.Has(fsnotify.Write):
		return ChangeWrite
	case op.Has(fsnotify.Remove):
		return ChangeRemove
	case op.Has(fsnotify.Rename):
		return ChangeRename
	default:
		return ChangeWrite
	}
}

func (w *Watcher) debounceLoop(ctx context.Context) {
	var (
		batch  []Change
		timer  *time.Timer
		timerC <-chan time.Time
	)

	flush := func() {
		if len(batch) > 0 {
			if deduped := dedupeChanges(batch); len(deduped) > 0 && w.handler != nil {
				w.handler(deduped)
			}
			batch = batch[:0]
		}
		if timer != nil {
			timer.Stop()
			timer = nil
			timerC = nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case <-w.done:
			flush()
			return
		case change := <-w.changes:
			batch = append(batch, change)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case <-timerC:
			flush()
		}
	}
}

// dedupeChanges keeps the latest change per file, in first-seen order.
func dedupeChanges(changes []Change) []Change {
	seen := make(map[string]int, len(changes))
	result := make([]Change, 0, len(changes))
	for _, c := range changes {
		key := c.Root + "\x00" + c.Path
		if idx, ok := seen[key]; ok {
			result[idx] = c
			continue
		}
		seen[key] = len(result)
		result = append(result, c)
	}
	return result
}
