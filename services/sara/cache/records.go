// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cache

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"
	"lukechampine.com/blake3"

	"github.com/AleutianAI/sara/services/sara/model"
)

// keyPrefix namespaces record entries. Bump the version when the stored
// record layout changes.
var keyPrefix = []byte("records/v1/")

// Key returns the cache key for a file.
//
// The digest covers repository, path and content, separated by NUL bytes
// so ("a", "bc") and ("ab", "c") never collide.
func Key(repository, path string, content []byte) []byte {
	h := blake3.New(32, nil)
	h.Write([]byte(repository))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(content)

	key := make([]byte, 0, len(keyPrefix)+64)
	key = append(key, keyPrefix...)
	return hex.AppendEncode(key, h.Sum(nil))
}

// Stats counts cache lookups since Open.
type Stats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
	Writes uint64 `json:"writes"`
}

// RecordCache stores parsed records in BadgerDB.
//
// Thread Safety: Safe for concurrent use. Close waits for no in-flight
// operation; callers stop using the cache before closing it.
type RecordCache struct {
	db     *badger.DB
	gc     *gcRunner
	logger *slog.Logger

	closeOnce sync.Once
	closed    atomic.Bool

	hits   atomic.Uint64
	misses atomic.Uint64
	writes atomic.Uint64
}

// Open opens a record cache.
//
// Description:
//
//	Opens the database described by cfg and starts value log GC for
//	on-disk caches when cfg.GCInterval is set.
//
// Inputs:
//
//	cfg - Database configuration. Path is required unless InMemory is set.
//
// Outputs:
//
//	*RecordCache - The opened cache. Caller must call Close.
//	error - ErrPathRequired or a wrapped open failure.
func Open(cfg Config) (*RecordCache, error) {
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	c := &RecordCache{db: db, logger: cfg.Logger}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	if cfg.GCInterval > 0 && !cfg.InMemory {
		runner, err := newGCRunner(db, cfg.GCInterval, cfg.GCDiscardRatio, cfg.Logger)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("create gc runner: %w", err)
		}
		c.gc = runner
		runner.start()
	}
	return c, nil
}

// OpenInMemory opens a cache that lives only as long as the process.
func OpenInMemory() (*RecordCache, error) {
	return Open(InMemoryConfig())
}

// Get returns the cached record for a file.
//
// Description:
//
//	Looks up the record stored for exactly this repository, path and
//	content. Read or decode failures are logged and reported as a miss.
//
// Outputs:
//
//	model.Record - The cached record, zero on a miss.
//	bool - True on a hit.
func (c *RecordCache) Get(ctx context.Context, repository, path string, content []byte) (model.Record, bool) {
	if c.closed.Load() || ctx.Err() != nil {
		c.misses.Add(1)
		return model.Record{}, false
	}

	var rec model.Record
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(Key(repository, path, content))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			c.logger.Debug("record cache read failed",
				slog.String("path", path),
				slog.String("error", err.Error()))
		}
		c.misses.Add(1)
		return model.Record{}, false
	}

	c.hits.Add(1)
	return rec, true
}

// Put stores the record parsed from a file.
//
// Outputs:
//
//	error - ErrClosed, a context error, or a wrapped write failure.
func (c *RecordCache) Put(ctx context.Context, repository, path string, content []byte, rec model.Record) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	val, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", rec.ID, err)
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(Key(repository, path, content), val)
	})
	if err != nil {
		return fmt.Errorf("write record %s: %w", rec.ID, err)
	}
	c.writes.Add(1)
	return nil
}

// Len returns the number of cached records.
func (c *RecordCache) Len(ctx context.Context) (int, error) {
	if c.closed.Load() {
		return 0, ErrClosed
	}

	n := 0
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = keyPrefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	return n, err
}

// InvalidateAll removes every cached record.
func (c *RecordCache) InvalidateAll(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.db.DropPrefix(keyPrefix); err != nil {
		return fmt.Errorf("drop records: %w", err)
	}
	c.logger.Info("record cache invalidated")
	return nil
}

// Stats returns lookup counters.
func (c *RecordCache) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Writes: c.writes.Load(),
	}
}

// Close stops GC and closes the database. Safe to call more than once.
func (c *RecordCache) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		if c.gc != nil {
			c.gc.stop()
		}
		err = c.db.Close()
	})
	return err
}
