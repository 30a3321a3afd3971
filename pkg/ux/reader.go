// Copyright (C) 2026 Nyaya AI (contact@nyayaai.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux provides user experience components for the Nyaya CLI.
//
// This file contains stream readers that consume io.Reader sources and
// emit parsed events via callbacks.
//
// Single Responsibility:
//
//	Readers handle I/O and event sequencing. They use parsers to convert
//	bytes to events, but do not render output.
//
// Context Support:
//
//	All readers accept context.Context for cancellation. When the context
//	is cancelled, reading stops and the error is returned.
package ux

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// maxEventLineBytes bounds a single event line. Statute and case-law
// snapshots can carry long excerpts, so this is well above the bufio
// default.
const maxEventLineBytes = 1024 * 1024

// =============================================================================
// Stream Reader Interface
// =============================================================================

// StreamReader reads a streaming chat response and invokes callbacks.
//
// The transport may split the byte stream at arbitrary, non-semantically
// aligned boundaries; readers must reassemble complete lines so that no
// event is ever split or duplicated, and must deliver events strictly in
// arrival order.
//
// Failure semantics:
//
//   - A malformed or unknown-type line is logged and dropped; a single bad
//     event must never abort the whole stream.
//   - Transport errors (connection reset mid-stream) are fatal: they end
//     the sequence and are returned to the caller.
//   - A trailing partial line at end-of-stream is a truncated event and is
//     discarded.
//
// Thread Safety:
//
//	A single Read/ReadAll operation must not be called concurrently on the
//	same reader instance.
type StreamReader interface {
	// Read processes a stream, invoking callback for each event.
	//
	// The stream is considered complete when:
	//   - The terminal complete event is received
	//   - EOF is reached
	//   - The context is cancelled
	//   - The callback returns an error
	Read(ctx context.Context, r io.Reader, callback StreamCallback) error

	// ReadAll reads the entire stream and returns the aggregated result.
	// Use Read when real-time event processing is needed.
	ReadAll(ctx context.Context, r io.Reader) (*StreamResult, error)
}

// =============================================================================
// SSE Stream Reader
// =============================================================================

// sseStreamReader implements StreamReader for Server-Sent Events.
//
// bufio.Scanner performs the line reassembly: fragments are accumulated
// until a newline completes a line, and an unterminated trailing fragment
// at EOF is never surfaced as an event.
type sseStreamReader struct {
	parser SSEParser
}

// NewSSEStreamReader creates a stream reader over the given parser.
func NewSSEStreamReader(parser SSEParser) StreamReader {
	return &sseStreamReader{parser: parser}
}

func (r *sseStreamReader) Read(ctx context.Context, reader io.Reader, callback StreamCallback) error {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventLineBytes)

	eventIndex := 0

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Text()

		event, err := r.parser.ParseLine(line)
		if err != nil {
			// Recoverable by contract: drop the line, keep the stream.
			slog.Warn("dropping undecodable stream line",
				"error", err,
				"line_length", len(line),
			)
			continue
		}

		// Skip nil events (empty lines, comments)
		if event == nil {
			continue
		}

		event.Index = eventIndex
		eventIndex++

		if err := callback(*event); err != nil {
			return err
		}

		if event.IsTerminal() {
			return nil
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}

	return nil
}

// ReadAll consumes the stream into a StreamResult.
//
// Snapshot events (statutes, case_laws, citations) replace the previous
// snapshot for their category; a repeated response event wins over the
// earlier one.
func (r *sseStreamReader) ReadAll(ctx context.Context, reader io.Reader) (*StreamResult, error) {
	result := &StreamResult{
		Id:        uuid.New().String(),
		CreatedAt: time.Now().UnixMilli(),
	}

	err := r.Read(ctx, reader, func(event StreamEvent) error {
		result.TotalEvents++

		switch event.Type {
		case StreamEventStart:
			result.SessionID = event.SessionID
		case StreamEventStatutes:
			result.Statutes = event.Statutes
		case StreamEventCaseLaws:
			result.CaseLaws = event.CaseLaws
		case StreamEventCitations:
			result.Citations = event.Citations
		case StreamEventResponse:
			result.Response = event.Response
		case StreamEventComplete:
			result.Completed = true
			result.CompletedAt = time.Now().UnixMilli()
		}
		return nil
	})

	if result.CompletedAt == 0 {
		result.CompletedAt = time.Now().UnixMilli()
	}

	return result, err
}

// =============================================================================
// Compile-time Interface Check
// =============================================================================

var _ StreamReader = (*sseStreamReader)(nil)
