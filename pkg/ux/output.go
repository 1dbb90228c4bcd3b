// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux provides terminal output styling for the sara CLI.
package ux

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Aleutian color palette
var (
	ColorTealBright  = lipgloss.Color("#2CD7C7") // Bright teal - highlights
	ColorTealPrimary = lipgloss.Color("#20B9B4") // Primary teal - headings
	ColorTealDeep    = lipgloss.Color("#16858E") // Deep teal - borders
	ColorSlate       = lipgloss.Color("#2C4A54") // Slate - muted text

	ColorSuccess = lipgloss.Color("#2CD7C7")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
)

// Styles provides pre-configured lipgloss styles
var Styles = struct {
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Highlight lipgloss.Style

	Box        lipgloss.Style
	WarningBox lipgloss.Style
	ErrorBox   lipgloss.Style
}{
	Title:     lipgloss.NewStyle().Bold(true).Foreground(ColorTealBright),
	Subtitle:  lipgloss.NewStyle().Foreground(ColorTealPrimary),
	Bold:      lipgloss.NewStyle().Bold(true),
	Muted:     lipgloss.NewStyle().Foreground(ColorSlate),
	Success:   lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning:   lipgloss.NewStyle().Foreground(ColorWarning),
	Error:     lipgloss.NewStyle().Foreground(ColorError),
	Highlight: lipgloss.NewStyle().Foreground(ColorTealBright).Bold(true),

	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorTealDeep).
		Padding(0, 1),
	WarningBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorWarning).
		Padding(0, 1),
	ErrorBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorError).
		Padding(0, 1),
}

// Icon is a status marker with an emoji and a plain-text fallback.
type Icon int

const (
	IconSuccess Icon = iota
	IconWarning
	IconError
	IconStats
	IconItem
)

var iconText = map[Icon][2]string{
	IconSuccess: {"✅", "[OK]"},
	IconWarning: {"⚠️", "[WARN]"},
	IconError:   {"❌", "[ERR]"},
	IconStats:   {"📊", "[STATS]"},
	IconItem:    {"📋", "[ITEM]"},
}

// Text returns the emoji form or the bracketed fallback.
func (i Icon) Text(emojis bool) string {
	t := iconText[i]
	if emojis {
		return t[0]
	}
	return t[1]
}

// Printer writes styled lines according to a Personality.
//
// Thread Safety: a Printer holds no mutable state of its own; concurrent
// calls interleave at line granularity only if the writers do.
type Printer struct {
	out io.Writer
	err io.Writer
	p   Personality
}

// NewPrinter creates a Printer over the given writers.
func NewPrinter(out, errOut io.Writer, p Personality) *Printer {
	return &Printer{out: out, err: errOut, p: p}
}

// Default returns a Printer on stdout/stderr with the current personality.
func Default() *Printer {
	return NewPrinter(os.Stdout, os.Stderr, GetPersonality())
}

// Personality returns the printer's settings.
func (pr *Printer) Personality() Personality {
	return pr.p
}

// Out returns the primary writer.
func (pr *Printer) Out() io.Writer {
	return pr.out
}

// Paint renders text with style when colors are enabled.
func (pr *Printer) Paint(style lipgloss.Style, text string) string {
	if !pr.p.UseColor() {
		return text
	}
	return style.Render(text)
}

// Icon returns the icon text, colored when colors are enabled.
func (pr *Printer) Icon(i Icon) string {
	text := i.Text(pr.p.Emojis)
	switch i {
	case IconSuccess:
		return pr.Paint(Styles.Success, text)
	case IconWarning:
		return pr.Paint(Styles.Warning, text)
	case IconError:
		return pr.Paint(Styles.Error, text)
	default:
		return text
	}
}

// Title prints a styled title. Suppressed in machine mode.
func (pr *Printer) Title(text string) {
	if pr.p.Level == PersonalityMachine {
		return
	}
	fmt.Fprintln(pr.out, pr.Paint(Styles.Title, text))
}

// Header prints a bold heading line.
func (pr *Printer) Header(text string) {
	fmt.Fprintln(pr.out, pr.Paint(Styles.Bold, text))
}

// Success prints a success message
func (pr *Printer) Success(text string) {
	switch pr.p.Level {
	case PersonalityMachine:
		fmt.Fprintf(pr.out, "OK: %s\n", text)
	default:
		fmt.Fprintf(pr.out, "%s %s\n", pr.Icon(IconSuccess), pr.Paint(Styles.Success, text))
	}
}

// Warning prints a warning message
func (pr *Printer) Warning(text string) {
	switch pr.p.Level {
	case PersonalityMachine:
		fmt.Fprintf(pr.err, "WARN: %s\n", text)
	default:
		fmt.Fprintf(pr.out, "%s %s\n", pr.Icon(IconWarning), pr.Paint(Styles.Warning, text))
	}
}

// Error prints an error message to the error writer
func (pr *Printer) Error(text string) {
	switch pr.p.Level {
	case PersonalityMachine:
		fmt.Fprintf(pr.err, "ERROR: %s\n", text)
	default:
		fmt.Fprintf(pr.err, "%s %s\n", pr.Icon(IconError), pr.Paint(Styles.Error, text))
	}
}

// Info prints an informational message
func (pr *Printer) Info(text string) {
	fmt.Fprintln(pr.out, text)
}

// Muted prints secondary text. Suppressed in machine mode.
func (pr *Printer) Muted(text string) {
	if pr.p.Level == PersonalityMachine {
		return
	}
	fmt.Fprintln(pr.out, pr.Paint(Styles.Muted, text))
}

// Box prints text in a rounded box
func (pr *Printer) Box(title, content string) {
	if !pr.p.UseColor() {
		fmt.Fprintf(pr.out, "%s: %s\n", title, content)
		return
	}
	boxStyle := Styles.Box.Width(60)
	fmt.Fprintln(pr.out, boxStyle.Render(Styles.Title.Render(title)+"\n"+content))
}

// TreeBranch returns the connector for a tree line.
func TreeBranch(isLast bool) string {
	if isLast {
		return "└─"
	}
	return "├─"
}

// ProgressBar renders a simple progress bar
func (pr *Printer) ProgressBar(current, total int, width int) string {
	if pr.p.Level == PersonalityMachine {
		return fmt.Sprintf("%d/%d", current, total)
	}
	pct := 0.0
	if total > 0 {
		pct = float64(current) / float64(total)
	}
	filled := int(pct * float64(width))

	bar := pr.Paint(Styles.Success, strings.Repeat("█", filled)) +
		pr.Paint(Styles.Muted, strings.Repeat("░", max(width-filled, 0)))

	return fmt.Sprintf("%s %3.0f%%", bar, pct*100)
}
