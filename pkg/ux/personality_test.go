// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"testing"
)

func TestParsePersonalityLevel(t *testing.T) {
	tests := []struct {
		input string
		want  PersonalityLevel
	}{
		{"standard", PersonalityStandard},
		{"STD", PersonalityStandard},
		{"full", PersonalityStandard},
		{"minimal", PersonalityMinimal},
		{"m", PersonalityMinimal},
		{"machine", PersonalityMachine},
		{"quiet", PersonalityMachine},
		{"bogus", PersonalityStandard},
		{"", PersonalityStandard},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParsePersonalityLevel(tt.input); got != tt.want {
				t.Errorf("ParsePersonalityLevel(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestPersonality_UseColor(t *testing.T) {
	tests := []struct {
		p    Personality
		want bool
	}{
		{Personality{Level: PersonalityStandard, Colors: true}, true},
		{Personality{Level: PersonalityStandard, Colors: false}, false},
		{Personality{Level: PersonalityMinimal, Colors: true}, false},
		{Personality{Level: PersonalityMachine, Colors: true}, false},
	}
	for _, tt := range tests {
		if got := tt.p.UseColor(); got != tt.want {
			t.Errorf("%+v.UseColor() = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestSetGetPersonality(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	SetPersonality(Personality{Level: PersonalityMinimal, Emojis: true})
	if got := GetPersonality(); got.Level != PersonalityMinimal || !got.Emojis {
		t.Errorf("unexpected personality %+v", got)
	}

	SetPersonalityLevel(PersonalityMachine)
	if got := GetPersonality(); got.Level != PersonalityMachine || !got.Emojis {
		t.Errorf("SetPersonalityLevel should keep other fields, got %+v", got)
	}
}

func TestInitPersonality_Env(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	t.Setenv("SARA_PERSONALITY", "minimal")
	t.Setenv("NO_COLOR", "1")
	InitPersonality(true, false)

	got := GetPersonality()
	if got.Level != PersonalityMinimal {
		t.Errorf("expected minimal from env, got %q", got.Level)
	}
	if got.Colors {
		t.Error("NO_COLOR should disable colors")
	}
	if got.Emojis {
		t.Error("emojis should follow the argument")
	}
}
