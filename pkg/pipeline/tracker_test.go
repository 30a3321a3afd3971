// Copyright (C) 2026 Nyaya AI (contact@nyayaai.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pipeline

import (
	"testing"
)

func containsAgent(set []AgentID, agent AgentID) bool {
	for _, a := range set {
		if a == agent {
			return true
		}
	}
	return false
}

func TestTracker_ProcessingSetsActive(t *testing.T) {
	tr := NewTracker()
	tr.Apply(AgentQuery, StatusProcessing)

	active, ok := tr.Active()
	if !ok {
		t.Fatal("expected an active agent")
	}
	if active != AgentQuery {
		t.Errorf("expected active %q, got %q", AgentQuery, active)
	}
	if got := tr.ProcessingSet(); len(got) != 1 || got[0] != AgentQuery {
		t.Errorf("unexpected processing set: %v", got)
	}
}

// The concrete sequence from the pipeline contract: two stages each
// processing then completing must leave both completed and nothing active.
func TestTracker_QueryThenStatute(t *testing.T) {
	tr := NewTracker()
	tr.Apply(AgentQuery, StatusProcessing)
	tr.Apply(AgentQuery, StatusCompleted)
	tr.Apply(AgentStatute, StatusProcessing)
	tr.Apply(AgentStatute, StatusCompleted)

	if _, ok := tr.Active(); ok {
		t.Error("expected no active agent after both stages completed")
	}

	completed := tr.CompletedSet()
	if len(completed) != 2 {
		t.Fatalf("expected 2 completed agents, got %v", completed)
	}
	if !containsAgent(completed, AgentQuery) || !containsAgent(completed, AgentStatute) {
		t.Errorf("unexpected completed set: %v", completed)
	}
	if got := tr.ProcessingSet(); len(got) != 0 {
		t.Errorf("expected empty processing set, got %v", got)
	}
}

// Completed is monotonic: for any event sequence the completed set never
// shrinks until an explicit reset, and at most one agent is active.
func TestTracker_CompletedMonotonic(t *testing.T) {
	events := []struct {
		agent  AgentID
		status AgentStatus
	}{
		{AgentQuery, StatusProcessing},
		{AgentQuery, StatusCompleted},
		{AgentStatute, StatusProcessing},
		{AgentStatute, StatusCompleted},
		{AgentCaseLaw, StatusProcessing},
		{AgentCaseLaw, StatusCompleted},
		{AgentAnswer, StatusProcessing},
		{AgentAnswer, StatusCompleted},
	}

	tr := NewTracker()
	prevCompleted := 0
	for i, ev := range events {
		tr.Apply(ev.agent, ev.status)

		completed := len(tr.CompletedSet())
		if completed < prevCompleted {
			t.Fatalf("event %d: completed set shrank from %d to %d", i, prevCompleted, completed)
		}
		prevCompleted = completed

		if _, ok := tr.Active(); ok {
			if len(tr.ProcessingSet()) > 1 {
				t.Fatalf("event %d: more than one agent processing", i)
			}
		}
	}
}

func TestTracker_Reset(t *testing.T) {
	tr := NewTracker()
	tr.Apply(AgentQuery, StatusProcessing)
	tr.Apply(AgentQuery, StatusCompleted)
	tr.Apply(AgentStatute, StatusProcessing)

	tr.Reset()

	if _, ok := tr.Active(); ok {
		t.Error("expected no active agent after reset")
	}
	if got := tr.CompletedSet(); len(got) != 0 {
		t.Errorf("expected empty completed set after reset, got %v", got)
	}
	if got := tr.ProcessingSet(); len(got) != 0 {
		t.Errorf("expected empty processing set after reset, got %v", got)
	}
	for _, stage := range tr.Stages() {
		if stage.Status != StatusPending {
			t.Errorf("stage %s: expected pending after reset, got %s", stage.Agent, stage.Status)
		}
	}
}

// If the backend ever overlaps two processing agents, the most recent one
// is reported active and the earlier one stays in the processing set.
func TestTracker_OverlappingProcessing(t *testing.T) {
	tr := NewTracker()
	tr.Apply(AgentStatute, StatusProcessing)
	tr.Apply(AgentCaseLaw, StatusProcessing)

	active, ok := tr.Active()
	if !ok || active != AgentCaseLaw {
		t.Errorf("expected active %q, got %q (ok=%v)", AgentCaseLaw, active, ok)
	}
	if got := tr.ProcessingSet(); len(got) != 2 {
		t.Errorf("expected both agents processing, got %v", got)
	}

	// Completing the non-active agent must not clear the active one.
	tr.Apply(AgentStatute, StatusCompleted)
	if active, ok := tr.Active(); !ok || active != AgentCaseLaw {
		t.Errorf("active agent lost after unrelated completion: %q (ok=%v)", active, ok)
	}
}

func TestTracker_UnknownAgentAccepted(t *testing.T) {
	tr := NewTracker()
	tr.Apply(AgentID("translation"), StatusProcessing)
	tr.Apply(AgentID("translation"), StatusCompleted)

	completed := tr.CompletedSet()
	if !containsAgent(completed, AgentID("translation")) {
		t.Errorf("unknown agent missing from completed set: %v", completed)
	}
}

func TestTracker_ErrorStatus(t *testing.T) {
	tr := NewTracker()
	tr.Apply(AgentStatute, StatusProcessing)
	tr.Apply(AgentStatute, StatusError)

	if _, ok := tr.Active(); ok {
		t.Error("expected no active agent after error")
	}
	for _, stage := range tr.Stages() {
		if stage.Agent == AgentStatute && stage.Status != StatusError {
			t.Errorf("expected statute stage in error, got %s", stage.Status)
		}
	}
}

func TestTracker_ClearActive(t *testing.T) {
	tr := NewTracker()
	tr.Apply(AgentAnswer, StatusProcessing)
	tr.ClearActive()

	if _, ok := tr.Active(); ok {
		t.Error("expected no active agent after ClearActive")
	}
	// ClearActive does not mark the agent completed.
	if tr.Completed(AgentAnswer) {
		t.Error("ClearActive must not complete the agent")
	}
}

func TestAgentID_DisplayName(t *testing.T) {
	if got := AgentStatute.DisplayName(); got != "Statute Research" {
		t.Errorf("unexpected display name: %q", got)
	}
	if got := AgentID("mystery").DisplayName(); got != "mystery" {
		t.Errorf("unknown agent should fall back to raw id, got %q", got)
	}
}
