// Copyright (C) 2026 Nyaya AI (contact@nyayaai.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux provides user experience components for the Nyaya CLI.
//
// This file defines the stream event model: the tagged union of events the
// backend emits while answering one query, and the aggregated result a
// fully consumed stream produces. Events are wire-level units; they are
// never persisted.
package ux

import (
	"github.com/NyayaAI/NyayaLocal/pkg/datatypes"
	"github.com/NyayaAI/NyayaLocal/pkg/pipeline"
)

// StreamEventType tags one decoded unit of the chat streaming protocol.
type StreamEventType string

const (
	StreamEventStart       StreamEventType = "start"
	StreamEventAgentStatus StreamEventType = "agent_status"
	StreamEventStatutes    StreamEventType = "statutes"
	StreamEventCaseLaws    StreamEventType = "case_laws"
	StreamEventCitations   StreamEventType = "citations"
	StreamEventResponse    StreamEventType = "response"
	StreamEventComplete    StreamEventType = "complete"
)

// ResponsePayload is the payload of a response event: the answer body with
// its optional Hindi alternate and the references the backend attached.
type ResponsePayload struct {
	Content          string               `json:"content"`
	ContentHi        string               `json:"content_hi,omitempty"`
	DetectedLanguage datatypes.Language   `json:"detected_language,omitempty"`
	Citations        []datatypes.Citation `json:"citations,omitempty"`
	Statutes         []datatypes.Statute  `json:"statutes,omitempty"`
}

// DisplayContent selects the displayed primary and secondary text.
//
// When the backend detects that the response body is in the secondary
// language and a Hindi alternate is present, the alternate becomes the
// displayed primary and the original body becomes the secondary. This
// cross-wiring is deliberate: the backend fills content_hi with the text
// the user should read in that situation.
func (p *ResponsePayload) DisplayContent() (primary, secondary string) {
	if p.DetectedLanguage == datatypes.LanguageHindi && p.ContentHi != "" {
		return p.ContentHi, p.Content
	}
	return p.Content, p.ContentHi
}

// StreamEvent is one decoded unit from the chat streaming wire protocol.
//
// Exactly the payload fields matching Type are populated; the rest stay
// zero. Id and CreatedAt are client-assigned for correlation, Index is the
// zero-based arrival position within the stream.
type StreamEvent struct {
	Id        string
	CreatedAt int64
	Index     int

	Type StreamEventType

	// start
	SessionID string

	// agent_status
	Agent       pipeline.AgentID
	AgentStatus pipeline.AgentStatus

	// statutes / case_laws / citations
	Statutes  []datatypes.Statute
	CaseLaws  []datatypes.CaseLaw
	Citations []datatypes.Citation

	// response
	Response *ResponsePayload
}

// IsTerminal reports whether the event ends the stream.
func (e *StreamEvent) IsTerminal() bool {
	return e.Type == StreamEventComplete
}

// StreamCallback is invoked for each decoded event, in arrival order.
// Returning an error stops the stream.
type StreamCallback func(event StreamEvent) error

// StreamResult is the aggregate of one fully consumed stream.
//
// The statutes, case-law and citation fields hold the latest snapshot seen
// for each category (these events replace, they do not merge). Response is
// the last response payload; Completed reports whether the stream reached
// its complete event before ending.
type StreamResult struct {
	Id        string
	CreatedAt int64

	SessionID string
	Response  *ResponsePayload
	Statutes  []datatypes.Statute
	CaseLaws  []datatypes.CaseLaw
	Citations []datatypes.Citation

	Completed   bool
	TotalEvents int
	CompletedAt int64
}

// Answer returns the displayed primary content of the final response, or
// the empty string when no response event arrived.
func (r *StreamResult) Answer() string {
	if r.Response == nil {
		return ""
	}
	primary, _ := r.Response.DisplayContent()
	return primary
}
