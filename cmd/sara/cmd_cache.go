// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/sara/services/sara/cache"
)

var errCacheUnavailable = errors.New("record cache is disabled or could not be opened")

// newCacheCommand creates "sara cache" and its subcommands.
func newCacheCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the parsed record cache",
	}

	info := &cobra.Command{
		Use:   "info",
		Short: "Show the cache location and number of entries",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.requireCache()
			if err != nil {
				return err
			}
			n, err := c.Len(cmd.Context())
			if err != nil {
				return err
			}
			a.printer.Info(fmt.Sprintf("Path:    %s", a.cfg.Cache.CachePath()))
			a.printer.Info(fmt.Sprintf("Entries: %d", n))
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached record",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.requireCache()
			if err != nil {
				return err
			}
			if err := c.InvalidateAll(cmd.Context()); err != nil {
				return err
			}
			a.printer.Success("Record cache cleared")
			return nil
		},
	}

	cmd.AddCommand(info, clearCmd)
	return cmd
}

func (a *app) requireCache() (*cache.RecordCache, error) {
	c := a.recordCache()
	if c == nil {
		return nil, errCacheUnavailable
	}
	return c, nil
}
