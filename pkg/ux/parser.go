// Copyright (C) 2026 Nyaya AI (contact@nyayaai.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux provides user experience components for the Nyaya CLI.
//
// This file contains parsers for the streaming response format. Parsers
// are responsible for converting raw lines into StreamEvent structs.
//
// Single Responsibility:
//
//	Parsers ONLY parse. They do not perform I/O, rendering, or state
//	management. This separation enables easy testing and format
//	extensibility.
package ux

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/NyayaAI/NyayaLocal/pkg/datatypes"
	"github.com/NyayaAI/NyayaLocal/pkg/pipeline"
)

// ErrUnknownEventType marks a well-formed event whose type tag is outside
// the known union. The reader quarantines these instead of aborting.
var ErrUnknownEventType = errors.New("unknown stream event type")

// =============================================================================
// SSE Parser Interface
// =============================================================================

// SSEParser parses Server-Sent Events lines into StreamEvent structs.
//
// Wire format:
//
//	data: {"type":"agent_status","data":{"agent":"statute","status":"processing"}}\n
//	\n
//
// Each line starting with "data: " carries a JSON envelope whose "type"
// field selects the payload shape. Empty lines are event delimiters and
// lines starting with ":" are comments; both are ignored.
//
// Thread Safety:
//
//	The default implementation is stateless and inherently thread-safe.
type SSEParser interface {
	// ParseLine parses a single line of SSE input.
	//
	// Returns (nil, nil) for empty lines, comments, and lines without the
	// data prefix. Returns an error when the JSON payload is malformed or
	// the type tag is unknown (errors.Is ErrUnknownEventType); the caller
	// decides whether to drop or abort.
	ParseLine(line string) (*StreamEvent, error)

	// ParseRawJSON parses a raw JSON envelope without the "data: " prefix.
	// Assigns a fresh Id and CreatedAt to the event.
	ParseRawJSON(jsonData []byte) (*StreamEvent, error)
}

// =============================================================================
// SSE Parser Implementation
// =============================================================================

type sseParser struct{}

// NewSSEParser creates a stateless SSE parser safe for shared use.
func NewSSEParser() SSEParser {
	return &sseParser{}
}

func (p *sseParser) ParseLine(line string) (*StreamEvent, error) {
	line = strings.TrimSpace(line)

	// Empty lines are event delimiters
	if line == "" {
		return nil, nil
	}

	// Comments start with ":"
	if strings.HasPrefix(line, ":") {
		return nil, nil
	}

	if strings.HasPrefix(line, "data: ") {
		return p.ParseRawJSON([]byte(strings.TrimPrefix(line, "data: ")))
	}

	// Also handle "data:" without space (some servers do this)
	if strings.HasPrefix(line, "data:") {
		return p.ParseRawJSON([]byte(strings.TrimPrefix(line, "data:")))
	}

	// The Nyaya wire contract carries every event behind the data prefix;
	// anything else is SSE framing we do not consume.
	return nil, nil
}

// eventEnvelope is the outer object of every wire event. Payload fields
// live under "data"; older backend builds inline them next to "type", so
// the decoder falls back to the envelope itself when "data" is absent.
type eventEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func (p *sseParser) ParseRawJSON(jsonData []byte) (*StreamEvent, error) {
	var envelope eventEnvelope
	if err := json.Unmarshal(jsonData, &envelope); err != nil {
		return nil, fmt.Errorf("decode event envelope: %w", err)
	}

	payload := envelope.Data
	if len(payload) == 0 {
		payload = jsonData
	}

	event := &StreamEvent{
		Id:        uuid.New().String(),
		CreatedAt: time.Now().UnixMilli(),
		Type:      StreamEventType(envelope.Type),
	}

	switch event.Type {
	case StreamEventStart:
		var body struct {
			SessionID string `json:"session_id"`
		}
		if err := json.Unmarshal(payload, &body); err != nil {
			return nil, fmt.Errorf("decode start payload: %w", err)
		}
		event.SessionID = body.SessionID

	case StreamEventAgentStatus:
		var body struct {
			Agent  string `json:"agent"`
			Status string `json:"status"`
		}
		if err := json.Unmarshal(payload, &body); err != nil {
			return nil, fmt.Errorf("decode agent_status payload: %w", err)
		}
		event.Agent = pipeline.AgentID(body.Agent)
		event.AgentStatus = pipeline.AgentStatus(body.Status)

	case StreamEventStatutes:
		var body struct {
			Statutes []datatypes.Statute `json:"statutes"`
		}
		if err := json.Unmarshal(payload, &body); err != nil {
			return nil, fmt.Errorf("decode statutes payload: %w", err)
		}
		event.Statutes = body.Statutes

	case StreamEventCaseLaws:
		var body struct {
			CaseLaws []datatypes.CaseLaw `json:"case_laws"`
		}
		if err := json.Unmarshal(payload, &body); err != nil {
			return nil, fmt.Errorf("decode case_laws payload: %w", err)
		}
		event.CaseLaws = body.CaseLaws

	case StreamEventCitations:
		var body struct {
			Citations []datatypes.Citation `json:"citations"`
		}
		if err := json.Unmarshal(payload, &body); err != nil {
			return nil, fmt.Errorf("decode citations payload: %w", err)
		}
		event.Citations = body.Citations

	case StreamEventResponse:
		var body ResponsePayload
		if err := json.Unmarshal(payload, &body); err != nil {
			return nil, fmt.Errorf("decode response payload: %w", err)
		}
		event.Response = &body

	case StreamEventComplete:
		// Empty payload by contract.

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, envelope.Type)
	}

	return event, nil
}

// =============================================================================
// Compile-time Interface Check
// =============================================================================

var _ SSEParser = (*sseParser)(nil)
