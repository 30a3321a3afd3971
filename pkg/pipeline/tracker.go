// Copyright (C) 2026 Nyaya AI (contact@nyayaai.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package pipeline tracks the backend's agent pipeline for one query.
//
// The backend reports progress through a fixed, ordered set of named
// agents. For each query the client receives a sequence of agent_status
// events and projects them into three views: the single active agent, the
// accumulated completed set, and the processing set. The tracker is the
// only owner of that state; it is reset at the start of every query so
// stale stages from a prior query never leak into a new one.
package pipeline

import (
	"log/slog"
	"sync"
)

// =============================================================================
// Agent Identifiers
// =============================================================================

// AgentID names one stage of the backend's agent pipeline.
type AgentID string

const (
	AgentQuery    AgentID = "query"
	AgentStatute  AgentID = "statute"
	AgentCaseLaw  AgentID = "case_law"
	AgentCitation AgentID = "citation"
	AgentAnswer   AgentID = "answer"
)

// Agents is the canonical pipeline order the backend executes stages in.
var Agents = []AgentID{AgentQuery, AgentStatute, AgentCaseLaw, AgentCitation, AgentAnswer}

// displayNames maps agent ids to human-readable stage names.
var displayNames = map[AgentID]string{
	AgentQuery:    "Query Analysis",
	AgentStatute:  "Statute Research",
	AgentCaseLaw:  "Case Law Research",
	AgentCitation: "Citation Assembly",
	AgentAnswer:   "Answer Drafting",
}

// DisplayName returns the human-readable stage name, or the raw id for
// agents outside the canonical set.
func (a AgentID) DisplayName() string {
	if name, ok := displayNames[a]; ok {
		return name
	}
	return string(a)
}

// Known reports whether the agent id belongs to the canonical set.
func (a AgentID) Known() bool {
	_, ok := displayNames[a]
	return ok
}

// =============================================================================
// Agent Status
// =============================================================================

// AgentStatus is the per-agent lifecycle state.
// Transitions: pending → processing → {completed | error}.
type AgentStatus string

const (
	StatusPending    AgentStatus = "pending"
	StatusProcessing AgentStatus = "processing"
	StatusCompleted  AgentStatus = "completed"
	StatusError      AgentStatus = "error"
)

// StageState pairs an agent with its current status, in canonical order.
// Used by renderers to draw the pipeline.
type StageState struct {
	Agent  AgentID
	Status AgentStatus
}

// =============================================================================
// Tracker
// =============================================================================

// Tracker is the per-query agent pipeline state machine.
//
// # Description
//
// Tracker folds agent_status events into three projections:
//
//   - Active: the currently processing agent (at most one in observed
//     backend behavior; if the backend ever overlaps two, the most recent
//     processing agent is reported and the full set stays in Processing).
//   - Completed: monotonic within a query. Once an agent completes it stays
//     completed until Reset.
//   - Processing: agents that received processing but not yet completed.
//
// An agent id outside the canonical set is logged and tracked anyway; an
// unknown stage must never abort the stream that carried it.
//
// # Thread Safety
//
// All methods are safe for concurrent use.
type Tracker struct {
	mu         sync.Mutex
	active     AgentID
	hasActive  bool
	processing map[AgentID]struct{}
	completed  map[AgentID]struct{}
	failed     map[AgentID]struct{}
	seen       []AgentID // arrival order, for unknown agents
}

// NewTracker creates an empty tracker. Call Reset before each query.
func NewTracker() *Tracker {
	t := &Tracker{}
	t.resetLocked()
	return t
}

func (t *Tracker) resetLocked() {
	t.active = ""
	t.hasActive = false
	t.processing = make(map[AgentID]struct{})
	t.completed = make(map[AgentID]struct{})
	t.failed = make(map[AgentID]struct{})
	t.seen = nil
}

// Reset clears all projections. Must be called at the start of every new
// query, before the first event is consumed.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetLocked()
}

// Apply folds one agent_status event into the tracker.
func (t *Tracker) Apply(agent AgentID, status AgentStatus) {
	if !agent.Known() {
		slog.Warn("agent_status for unrecognized agent",
			"agent", string(agent),
			"status", string(status),
		)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.noteSeenLocked(agent)

	switch status {
	case StatusProcessing:
		t.processing[agent] = struct{}{}
		t.active = agent
		t.hasActive = true
	case StatusCompleted:
		delete(t.processing, agent)
		t.completed[agent] = struct{}{}
		if t.hasActive && t.active == agent {
			t.hasActive = false
			t.active = ""
		}
	case StatusError:
		delete(t.processing, agent)
		t.failed[agent] = struct{}{}
		if t.hasActive && t.active == agent {
			t.hasActive = false
			t.active = ""
		}
	default:
		slog.Warn("agent_status with unrecognized status",
			"agent", string(agent),
			"status", string(status),
		)
	}
}

func (t *Tracker) noteSeenLocked(agent AgentID) {
	for _, s := range t.seen {
		if s == agent {
			return
		}
	}
	t.seen = append(t.seen, agent)
}

// ClearActive drops the active marker without completing the agent.
// Called when the stream's complete event arrives.
func (t *Tracker) ClearActive() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = ""
	t.hasActive = false
}

// Active returns the currently processing agent, if any.
func (t *Tracker) Active() (AgentID, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active, t.hasActive
}

// Completed reports whether the agent has completed this query.
func (t *Tracker) Completed(agent AgentID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.completed[agent]
	return ok
}

// CompletedSet returns the completed agents in canonical order, with
// non-canonical agents appended in arrival order.
func (t *Tracker) CompletedSet() []AgentID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.orderedLocked(t.completed)
}

// ProcessingSet returns the agents currently marked processing.
func (t *Tracker) ProcessingSet() []AgentID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.orderedLocked(t.processing)
}

func (t *Tracker) orderedLocked(set map[AgentID]struct{}) []AgentID {
	out := make([]AgentID, 0, len(set))
	for _, a := range Agents {
		if _, ok := set[a]; ok {
			out = append(out, a)
		}
	}
	for _, a := range t.seen {
		if a.Known() {
			continue
		}
		if _, ok := set[a]; ok {
			out = append(out, a)
		}
	}
	return out
}

// Stages returns the canonical pipeline with each stage's current status.
func (t *Tracker) Stages() []StageState {
	t.mu.Lock()
	defer t.mu.Unlock()

	stages := make([]StageState, 0, len(Agents))
	for _, a := range Agents {
		stages = append(stages, StageState{Agent: a, Status: t.statusLocked(a)})
	}
	return stages
}

func (t *Tracker) statusLocked(agent AgentID) AgentStatus {
	if _, ok := t.completed[agent]; ok {
		return StatusCompleted
	}
	if _, ok := t.failed[agent]; ok {
		return StatusError
	}
	if _, ok := t.processing[agent]; ok {
		return StatusProcessing
	}
	return StatusPending
}
