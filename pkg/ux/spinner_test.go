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
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSpinner_MachineModePrintsOnce(t *testing.T) {
	pr, _, errOut := newTestPrinter(PersonalityMachine, false, false)
	s := NewSpinner(pr, "building graph")
	s.Start()
	s.Start() // no-op
	s.Stop()
	s.Stop() // no-op

	if got := errOut.String(); got != "PROGRESS: building graph\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestSpinner_AnimatesAndClears(t *testing.T) {
	pr, _, errOut := newTestPrinter(PersonalityStandard, false, false)
	s := NewSpinner(pr, "resolving")
	s.interval = time.Millisecond
	s.Start()
	time.Sleep(20 * time.Millisecond)
	s.UpdateMessage("finalizing")
	time.Sleep(20 * time.Millisecond)
	s.Stop()

	out := errOut.String()
	if !strings.Contains(out, "resolving") || !strings.Contains(out, "finalizing") {
		t.Errorf("expected both messages in %q", out)
	}
	if !strings.HasSuffix(out, "\r\033[K") {
		t.Errorf("expected line clear at end, got %q", out)
	}
	if s.Message() != "finalizing" {
		t.Errorf("Message() = %q", s.Message())
	}
}

func TestWithSpinner(t *testing.T) {
	pr, _, errOut := newTestPrinter(PersonalityMachine, false, false)

	err := WithSpinner(pr, "scan", func(s *Spinner) error { return nil })
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}

	want := errors.New("disk gone")
	err = WithSpinner(pr, "scan", func(s *Spinner) error { return want })
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
	if !strings.Contains(errOut.String(), "ERROR: scan: disk gone") {
		t.Errorf("missing error line in %q", errOut.String())
	}
}
