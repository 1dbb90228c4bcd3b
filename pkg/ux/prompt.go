// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/charmbracelet/huh"
)

// ErrPromptAborted is returned when the user cancels a form.
var ErrPromptAborted = errors.New("prompt aborted")

// PromptOption is one choice in a selection prompt.
type PromptOption struct {
	Label       string
	Description string
	Value       string
	Recommended bool
}

// label renders the option as shown in the list.
func (o PromptOption) label() string {
	s := o.Label
	if o.Description != "" {
		s += " - " + truncate(o.Description, 48)
	}
	if o.Recommended {
		s += " (recommended)"
	}
	return s
}

// IsInteractive reports whether in and out are both terminals.
func IsInteractive(in io.Reader, out io.Writer) bool {
	fin, ok := in.(*os.File)
	if !ok {
		return false
	}
	fout, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isTerminal(fin) && isTerminal(fout)
}

// =============================================================================
// FORM
// =============================================================================

// Form is a single-page terminal form.
//
// Fields are added in display order; each binds to a caller-owned
// string that holds the initial value and receives the answer.
type Form struct {
	in     io.Reader
	out    io.Writer
	fields []huh.Field
}

// NewForm creates a form reading keys from in and drawing to out.
func NewForm(in io.Reader, out io.Writer) *Form {
	return &Form{in: in, out: out}
}

// Text adds a single-line input. validate may be nil.
func (f *Form) Text(title, description string, value *string, validate func(string) error) *Form {
	input := huh.NewInput().Title(title).Value(value)
	if description != "" {
		input = input.Description(description)
	}
	if validate != nil {
		input = input.Validate(validate)
	}
	f.fields = append(f.fields, input)
	return f
}

// Select adds a single-choice list. value preselects the matching option.
func (f *Form) Select(title string, options []PromptOption, value *string) *Form {
	opts := make([]huh.Option[string], 0, len(options))
	for _, o := range options {
		opts = append(opts, huh.NewOption(o.label(), o.Value))
	}
	f.fields = append(f.fields, huh.NewSelect[string]().Title(title).Options(opts...).Value(value))
	return f
}

// Len returns the number of fields.
func (f *Form) Len() int {
	return len(f.fields)
}

// Run shows the form until it is submitted or cancelled.
//
// Outputs:
//
//	error - ErrPromptAborted on Ctrl+C or Esc, ctx.Err() on cancellation.
func (f *Form) Run(ctx context.Context) error {
	if len(f.fields) == 0 {
		return nil
	}
	form := huh.NewForm(huh.NewGroup(f.fields...)).
		WithTheme(saraTheme()).
		WithInput(f.in).
		WithOutput(f.out)
	err := form.RunWithContext(ctx)
	if errors.Is(err, huh.ErrUserAborted) {
		return ErrPromptAborted
	}
	return err
}

// saraTheme applies the palette to huh's base theme.
func saraTheme() *huh.Theme {
	t := huh.ThemeBase()
	t.Focused.Title = t.Focused.Title.Foreground(ColorTealBright).Bold(true)
	t.Focused.Description = t.Focused.Description.Foreground(ColorSlate)
	t.Focused.SelectSelector = t.Focused.SelectSelector.Foreground(ColorTealPrimary)
	t.Focused.SelectedOption = t.Focused.SelectedOption.Foreground(ColorTealBright)
	t.Focused.ErrorMessage = t.Focused.ErrorMessage.Foreground(ColorError)
	t.Focused.Base = t.Focused.Base.BorderForeground(ColorTealDeep)
	t.Blurred.Title = t.Blurred.Title.Foreground(ColorTealPrimary)
	return t
}

// truncate shortens s to maxLen bytes, ending in "...".
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:max(maxLen-3, 0)] + "..."
}
