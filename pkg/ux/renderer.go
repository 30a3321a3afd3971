// Copyright (C) 2026 Nyaya AI (contact@nyayaai.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux provides user experience components for the Nyaya CLI.
//
// This file contains stream renderers that display streaming events to
// various outputs (terminal, buffer, etc.).
//
// Single Responsibility:
//
//	Renderers ONLY render. They do not parse, read, or manage HTTP.
//	Each method handles exactly one event type, enabling clean composition.
//
// Renderer Types:
//
//   - TerminalStreamRenderer: Interactive terminal with spinners and colors
//   - BufferStreamRenderer: In-memory capture for testing
package ux

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/NyayaAI/NyayaLocal/pkg/datatypes"
	"github.com/NyayaAI/NyayaLocal/pkg/pipeline"
)

// =============================================================================
// Stream Renderer Interface
// =============================================================================

// StreamRenderer renders streaming events to an output destination.
//
// Each method handles exactly one event type. The renderer owns all
// output-related state (spinners, buffers, the pipeline tracker). Callers
// should invoke methods in the order events are received.
//
// Thread Safety:
//
//	Implementations must be safe for concurrent calls. Multiple goroutines
//	may invoke methods simultaneously when processing events from channels.
//
// Lifecycle:
//
//  1. Create renderer with New*StreamRenderer()
//  2. Call On* methods as events arrive
//  3. Call Finalize() when stream ends (always, even on error)
//  4. Call Result() to get the aggregated result
//
// Example:
//
//	renderer := NewTerminalStreamRenderer(os.Stdout, GetPersonality().Level)
//	defer renderer.Finalize()
//
//	reader.Read(ctx, body, func(event StreamEvent) error {
//	    renderer.OnEvent(ctx, event)
//	    return nil
//	})
//
//	result := renderer.Result()
type StreamRenderer interface {
	// OnStart records the session the backend bound this query to.
	//
	// In interactive mode, starts the pipeline progress display.
	// In machine mode, prints "SESSION: {id}".
	OnStart(ctx context.Context, sessionID string)

	// OnAgentStatus renders a pipeline stage transition.
	//
	// In interactive mode, updates the spinner with the stage's display
	// name and redraws the stage checklist. In machine mode, prints
	// "AGENT: {agent} {status}".
	OnAgentStatus(ctx context.Context, agent pipeline.AgentID, status pipeline.AgentStatus)

	// OnStatutes renders a statute snapshot. Snapshots replace any
	// previously rendered statute set; they are not merged.
	OnStatutes(ctx context.Context, statutes []datatypes.Statute)

	// OnCaseLaws renders a case-law snapshot. Replacement semantics, same
	// as OnStatutes.
	OnCaseLaws(ctx context.Context, caseLaws []datatypes.CaseLaw)

	// OnCitations renders a citation snapshot. Replacement semantics,
	// same as OnStatutes.
	OnCitations(ctx context.Context, citations []datatypes.Citation)

	// OnResponse renders the answer body. A repeated response replaces
	// the earlier one in the result; only the last one survives.
	OnResponse(ctx context.Context, response *ResponsePayload)

	// OnComplete signals normal stream completion.
	//
	// Stops spinners, flushes buffers, prints final output.
	// This is typically the last On* method called (unless OnError).
	OnComplete(ctx context.Context)

	// OnError renders an error that occurred during streaming.
	//
	// Stops spinners and displays the error message.
	// After OnError, only Finalize() should be called.
	OnError(ctx context.Context, err error)

	// OnEvent dispatches a decoded event to the matching On* method.
	// Unknown event types are ignored.
	OnEvent(ctx context.Context, event StreamEvent)

	// Finalize performs cleanup (stop spinners, flush output).
	//
	// MUST be called when streaming ends, even if abnormally.
	// Safe to call multiple times; subsequent calls are no-ops.
	Finalize()

	// Result returns the accumulated result after streaming completes.
	// May be called before Finalize() to get partial results.
	Result() *StreamResult
}

// =============================================================================
// Terminal Stream Renderer
// =============================================================================

// terminalStreamRenderer renders streaming events to an interactive terminal.
//
// This is the primary renderer for user-facing output. It drives a spinner
// labelled with the active pipeline stage, prints reference panels as their
// snapshots arrive, and prints the answer when the response event lands.
//
// Personality Modes:
//
//   - PersonalityFull: colors, stage checklist, boxed reference panels
//   - PersonalityMinimal: plain text with icons
//   - PersonalityMachine: KEY: value format for scripting
//
// Thread Safety:
//
//	All methods are protected by a mutex. Safe for concurrent calls.
type terminalStreamRenderer struct {
	writer      io.Writer
	personality PersonalityLevel
	spinner     *Spinner
	tracker     *pipeline.Tracker
	result      *StreamResult
	mu          sync.Mutex

	finalized bool
}

// NewTerminalStreamRenderer creates a renderer for interactive terminal output.
//
// Parameters:
//   - w: The output writer. If nil, defaults to os.Stdout.
//   - personality: Controls output styling. Use GetPersonality().Level for
//     the user's configured personality, or hardcode for specific behavior.
func NewTerminalStreamRenderer(w io.Writer, personality PersonalityLevel) StreamRenderer {
	if w == nil {
		w = os.Stdout
	}
	return &terminalStreamRenderer{
		writer:      w,
		personality: personality,
		tracker:     pipeline.NewTracker(),
		result: &StreamResult{
			Id:        uuid.New().String(),
			CreatedAt: time.Now().UnixMilli(),
		},
	}
}

func (r *terminalStreamRenderer) OnStart(ctx context.Context, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized {
		return
	}

	r.result.SessionID = sessionID
	r.result.TotalEvents++

	if r.personality == PersonalityMachine {
		if sessionID != "" {
			fmt.Fprintf(r.writer, "SESSION: %s\n", sessionID)
		}
		return
	}

	if r.spinner == nil {
		r.spinner = NewSpinnerWithWriter(r.writer, "Consulting the research pipeline...")
		r.spinner.Start()
	}
}

func (r *terminalStreamRenderer) OnAgentStatus(ctx context.Context, agent pipeline.AgentID, status pipeline.AgentStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized {
		return
	}

	r.result.TotalEvents++
	r.tracker.Apply(agent, status)

	if r.personality == PersonalityMachine {
		fmt.Fprintf(r.writer, "AGENT: %s %s\n", agent, status)
		return
	}

	message := r.stageMessage()
	if r.spinner == nil {
		r.spinner = NewSpinnerWithWriter(r.writer, message)
		r.spinner.Start()
	} else {
		r.spinner.UpdateMessage(message)
	}
}

// stageMessage builds the spinner label from the tracker state. Caller
// must hold r.mu.
func (r *terminalStreamRenderer) stageMessage() string {
	completed := len(r.tracker.CompletedSet())
	total := len(pipeline.Agents)

	if active, ok := r.tracker.Active(); ok {
		return fmt.Sprintf("%s (%d/%d)", active.DisplayName(), completed, total)
	}
	return fmt.Sprintf("Researching... (%d/%d)", completed, total)
}

func (r *terminalStreamRenderer) OnStatutes(ctx context.Context, statutes []datatypes.Statute) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized {
		return
	}

	r.result.Statutes = statutes
	r.result.TotalEvents++

	if len(statutes) == 0 {
		return
	}

	if r.personality == PersonalityMachine {
		for _, s := range statutes {
			fmt.Fprintf(r.writer, "STATUTE: %s s.%s %s\n", s.Act, s.Section, s.Title)
		}
		return
	}

	r.pauseSpinner()

	if r.personality == PersonalityMinimal {
		fmt.Fprintln(r.writer, "Statutes:")
		for i, s := range statutes {
			fmt.Fprintf(r.writer, "  %d. %s, Section %s - %s\n", i+1, s.Act, s.Section, s.Title)
		}
		return
	}

	var content strings.Builder
	for i, s := range statutes {
		content.WriteString(fmt.Sprintf("%d. %s, Section %s", i+1, s.Act, s.Section))
		if s.Title != "" {
			content.WriteString(Styles.Muted.Render(" - " + s.Title))
		}
		if i < len(statutes)-1 {
			content.WriteString("\n")
		}
	}
	boxStyle := Styles.InfoBox.Width(60)
	titleLine := Styles.Subtitle.Render("Relevant Statutes")
	fmt.Fprintln(r.writer, boxStyle.Render(titleLine+"\n"+content.String()))
}

func (r *terminalStreamRenderer) OnCaseLaws(ctx context.Context, caseLaws []datatypes.CaseLaw) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized {
		return
	}

	r.result.CaseLaws = caseLaws
	r.result.TotalEvents++

	if len(caseLaws) == 0 {
		return
	}

	if r.personality == PersonalityMachine {
		for _, c := range caseLaws {
			fmt.Fprintf(r.writer, "CASE: %s (%s, %d)\n", c.Title, c.Court, c.Year)
		}
		return
	}

	r.pauseSpinner()

	if r.personality == PersonalityMinimal {
		fmt.Fprintln(r.writer, "Case Law:")
		for i, c := range caseLaws {
			fmt.Fprintf(r.writer, "  %d. %s (%s, %d)\n", i+1, c.Title, c.Court, c.Year)
		}
		return
	}

	var content strings.Builder
	for i, c := range caseLaws {
		content.WriteString(fmt.Sprintf("%d. %s", i+1, c.Title))
		meta := fmt.Sprintf(" (%s, %d)", c.Court, c.Year)
		content.WriteString(Styles.Muted.Render(meta))
		if i < len(caseLaws)-1 {
			content.WriteString("\n")
		}
	}
	boxStyle := Styles.InfoBox.Width(60)
	titleLine := Styles.Subtitle.Render("Case Law")
	fmt.Fprintln(r.writer, boxStyle.Render(titleLine+"\n"+content.String()))
}

func (r *terminalStreamRenderer) OnCitations(ctx context.Context, citations []datatypes.Citation) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized {
		return
	}

	r.result.Citations = citations
	r.result.TotalEvents++

	if len(citations) == 0 {
		return
	}

	if r.personality == PersonalityMachine {
		for _, c := range citations {
			fmt.Fprintf(r.writer, "CITATION: %s [%s]\n", c.Text, c.Source)
		}
		return
	}

	r.pauseSpinner()

	if r.personality == PersonalityMinimal {
		fmt.Fprintln(r.writer, "Citations:")
		for i, c := range citations {
			fmt.Fprintf(r.writer, "  %d. %s\n", i+1, c.Text)
		}
		return
	}

	var content strings.Builder
	for i, c := range citations {
		content.WriteString(fmt.Sprintf("%d. %s", i+1, c.Text))
		if c.Source != "" {
			content.WriteString(Styles.Muted.Render(" [" + c.Source + "]"))
		}
		if i < len(citations)-1 {
			content.WriteString("\n")
		}
	}
	boxStyle := Styles.InfoBox.Width(60)
	titleLine := Styles.Subtitle.Render("Citations")
	fmt.Fprintln(r.writer, boxStyle.Render(titleLine+"\n"+content.String()))
}

func (r *terminalStreamRenderer) OnResponse(ctx context.Context, response *ResponsePayload) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized || response == nil {
		return
	}

	r.result.Response = response
	r.result.TotalEvents++

	if r.personality == PersonalityMachine {
		// Buffered until OnComplete so a repeated response prints once.
		return
	}

	r.pauseSpinner()

	primary, secondary := response.DisplayContent()
	fmt.Fprintln(r.writer)
	fmt.Fprintln(r.writer, primary)
	if secondary != "" {
		fmt.Fprintln(r.writer)
		fmt.Fprintln(r.writer, Styles.Muted.Render(secondary))
	}
}

func (r *terminalStreamRenderer) OnComplete(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized {
		return
	}

	r.result.Completed = true
	r.result.CompletedAt = time.Now().UnixMilli()
	r.result.TotalEvents++

	r.stopSpinner()

	if r.personality == PersonalityMachine {
		if r.result.Response != nil {
			primary, _ := r.result.Response.DisplayContent()
			fmt.Fprintf(r.writer, "ANSWER: %s\n", primary)
		}
		fmt.Fprintln(r.writer, "DONE")
		return
	}

	fmt.Fprintln(r.writer)
}

func (r *terminalStreamRenderer) OnError(ctx context.Context, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized {
		return
	}

	r.result.CompletedAt = time.Now().UnixMilli()
	r.result.TotalEvents++

	r.stopSpinner()

	if r.personality == PersonalityMachine {
		fmt.Fprintf(r.writer, "ERROR: %v\n", err)
		return
	}

	fmt.Fprintf(r.writer, "\n%s %s\n",
		IconError.Render(),
		Styles.Error.Render(fmt.Sprintf("Stream error: %v", err)))
}

func (r *terminalStreamRenderer) OnEvent(ctx context.Context, event StreamEvent) {
	switch event.Type {
	case StreamEventStart:
		r.OnStart(ctx, event.SessionID)
	case StreamEventAgentStatus:
		r.OnAgentStatus(ctx, event.Agent, event.AgentStatus)
	case StreamEventStatutes:
		r.OnStatutes(ctx, event.Statutes)
	case StreamEventCaseLaws:
		r.OnCaseLaws(ctx, event.CaseLaws)
	case StreamEventCitations:
		r.OnCitations(ctx, event.Citations)
	case StreamEventResponse:
		r.OnResponse(ctx, event.Response)
	case StreamEventComplete:
		r.OnComplete(ctx)
	}
}

func (r *terminalStreamRenderer) Finalize() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized {
		return
	}
	r.finalized = true

	r.stopSpinner()

	if r.result.CompletedAt == 0 {
		r.result.CompletedAt = time.Now().UnixMilli()
	}
}

// Result returns a copy of the accumulated StreamResult.
func (r *terminalStreamRenderer) Result() *StreamResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := *r.result
	return &result
}

// pauseSpinner stops the spinner so a panel can print, but keeps the
// renderer ready to restart it on the next agent_status. Caller must hold
// r.mu.
func (r *terminalStreamRenderer) pauseSpinner() {
	if r.spinner != nil {
		r.spinner.Stop()
		r.spinner = nil
	}
}

// stopSpinner stops the spinner for good. Caller must hold r.mu.
func (r *terminalStreamRenderer) stopSpinner() {
	if r.spinner != nil {
		r.spinner.Stop()
		r.spinner = nil
	}
}

// =============================================================================
// Buffer Stream Renderer (for testing)
// =============================================================================

// bufferStreamRenderer captures events to memory without terminal output.
//
// Ideal for unit tests: no spinners, no writer, just the event sequence
// and the aggregated result.
type bufferStreamRenderer struct {
	result    *StreamResult
	events    []StreamEvent
	mu        sync.Mutex
	finalized bool
}

// NewBufferStreamRenderer creates a renderer that buffers events to memory.
func NewBufferStreamRenderer() StreamRenderer {
	return &bufferStreamRenderer{
		result: &StreamResult{
			Id:        uuid.New().String(),
			CreatedAt: time.Now().UnixMilli(),
		},
		events: make([]StreamEvent, 0),
	}
}

func (r *bufferStreamRenderer) OnStart(ctx context.Context, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized {
		return
	}

	r.result.SessionID = sessionID
	r.events = append(r.events, StreamEvent{Type: StreamEventStart, SessionID: sessionID})
	r.result.TotalEvents++
}

func (r *bufferStreamRenderer) OnAgentStatus(ctx context.Context, agent pipeline.AgentID, status pipeline.AgentStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized {
		return
	}

	r.events = append(r.events, StreamEvent{Type: StreamEventAgentStatus, Agent: agent, AgentStatus: status})
	r.result.TotalEvents++
}

func (r *bufferStreamRenderer) OnStatutes(ctx context.Context, statutes []datatypes.Statute) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized {
		return
	}

	r.result.Statutes = statutes
	r.events = append(r.events, StreamEvent{Type: StreamEventStatutes, Statutes: statutes})
	r.result.TotalEvents++
}

func (r *bufferStreamRenderer) OnCaseLaws(ctx context.Context, caseLaws []datatypes.CaseLaw) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized {
		return
	}

	r.result.CaseLaws = caseLaws
	r.events = append(r.events, StreamEvent{Type: StreamEventCaseLaws, CaseLaws: caseLaws})
	r.result.TotalEvents++
}

func (r *bufferStreamRenderer) OnCitations(ctx context.Context, citations []datatypes.Citation) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized {
		return
	}

	r.result.Citations = citations
	r.events = append(r.events, StreamEvent{Type: StreamEventCitations, Citations: citations})
	r.result.TotalEvents++
}

func (r *bufferStreamRenderer) OnResponse(ctx context.Context, response *ResponsePayload) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized {
		return
	}

	r.result.Response = response
	r.events = append(r.events, StreamEvent{Type: StreamEventResponse, Response: response})
	r.result.TotalEvents++
}

func (r *bufferStreamRenderer) OnComplete(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized {
		return
	}

	r.result.Completed = true
	r.result.CompletedAt = time.Now().UnixMilli()
	r.events = append(r.events, StreamEvent{Type: StreamEventComplete})
	r.result.TotalEvents++
}

func (r *bufferStreamRenderer) OnError(ctx context.Context, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized {
		return
	}

	r.result.CompletedAt = time.Now().UnixMilli()
	r.result.TotalEvents++
}

func (r *bufferStreamRenderer) OnEvent(ctx context.Context, event StreamEvent) {
	switch event.Type {
	case StreamEventStart:
		r.OnStart(ctx, event.SessionID)
	case StreamEventAgentStatus:
		r.OnAgentStatus(ctx, event.Agent, event.AgentStatus)
	case StreamEventStatutes:
		r.OnStatutes(ctx, event.Statutes)
	case StreamEventCaseLaws:
		r.OnCaseLaws(ctx, event.CaseLaws)
	case StreamEventCitations:
		r.OnCitations(ctx, event.Citations)
	case StreamEventResponse:
		r.OnResponse(ctx, event.Response)
	case StreamEventComplete:
		r.OnComplete(ctx)
	}
}

func (r *bufferStreamRenderer) Finalize() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized {
		return
	}
	r.finalized = true

	if r.result.CompletedAt == 0 {
		r.result.CompletedAt = time.Now().UnixMilli()
	}
}

func (r *bufferStreamRenderer) Result() *StreamResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := *r.result
	return &result
}

// Events returns all captured events for testing inspection.
//
// Not part of the StreamRenderer interface; cast the renderer to access it.
func (r *bufferStreamRenderer) Events() []StreamEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	events := make([]StreamEvent, len(r.events))
	copy(events, r.events)
	return events
}

// =============================================================================
// Compile-time Interface Checks
// =============================================================================

var _ StreamRenderer = (*terminalStreamRenderer)(nil)
var _ StreamRenderer = (*bufferStreamRenderer)(nil)
