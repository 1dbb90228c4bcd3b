// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// PersonalityLevel defines the richness of CLI output
type PersonalityLevel string

const (
	// PersonalityStandard enables colors, icons, and boxes
	PersonalityStandard PersonalityLevel = "standard"

	// PersonalityMinimal uses icons without colors
	PersonalityMinimal PersonalityLevel = "minimal"

	// PersonalityMachine outputs plain text suitable for scripting and parsing
	PersonalityMachine PersonalityLevel = "machine"
)

// Personality holds the current output configuration
type Personality struct {
	// Level controls overall richness (standard, minimal, machine)
	Level PersonalityLevel

	// Colors enables lipgloss styling. Ignored below PersonalityStandard.
	Colors bool

	// Emojis selects emoji icons over bracketed text tags.
	Emojis bool
}

// UseColor reports whether styled output should be emitted.
func (p Personality) UseColor() bool {
	return p.Colors && p.Level == PersonalityStandard
}

var (
	currentPersonality = Personality{
		Level:  PersonalityStandard,
		Colors: true,
		Emojis: true,
	}
	personalityMu sync.RWMutex
)

// GetPersonality returns the current personality settings
func GetPersonality() Personality {
	personalityMu.RLock()
	defer personalityMu.RUnlock()
	return currentPersonality
}

// SetPersonality updates the current personality settings
func SetPersonality(p Personality) {
	personalityMu.Lock()
	defer personalityMu.Unlock()
	currentPersonality = p
}

// SetPersonalityLevel updates just the personality level
func SetPersonalityLevel(level PersonalityLevel) {
	personalityMu.Lock()
	defer personalityMu.Unlock()
	currentPersonality.Level = level
}

// ParsePersonalityLevel converts a string to PersonalityLevel
func ParsePersonalityLevel(s string) PersonalityLevel {
	switch strings.ToLower(s) {
	case "standard", "std", "s", "full":
		return PersonalityStandard
	case "minimal", "min", "m":
		return PersonalityMinimal
	case "machine", "quiet", "q":
		return PersonalityMachine
	default:
		return PersonalityStandard
	}
}

// InitPersonality initializes personality from configuration, environment,
// and the terminal attached to stdout.
//
// SARA_PERSONALITY overrides the level. NO_COLOR or colors=false disables
// styling. A non-terminal stdout drops to PersonalityMachine unless
// SARA_PERSONALITY says otherwise.
func InitPersonality(colors, emojis bool) {
	p := Personality{Level: PersonalityStandard, Colors: colors, Emojis: emojis}

	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		p.Colors = false
	}

	if envLevel := os.Getenv("SARA_PERSONALITY"); envLevel != "" {
		p.Level = ParsePersonalityLevel(envLevel)
	} else if !isTerminal(os.Stdout) {
		p.Level = PersonalityMachine
	}

	SetPersonality(p)
}

// isTerminal checks if f is a terminal
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
