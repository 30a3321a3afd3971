// Copyright (C) 2026 Nyaya AI (contact@nyayaai.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

// fragmentReader yields the underlying stream in fixed-size fragments to
// simulate a transport that splits events at arbitrary byte boundaries.
type fragmentReader struct {
	data []byte
	pos  int
	size int
}

func newFragmentReader(data string, size int) *fragmentReader {
	return &fragmentReader{data: []byte(data), size: size}
}

func (f *fragmentReader) Read(p []byte) (int, error) {
	if f.pos >= len(f.data) {
		return 0, io.EOF
	}
	n := f.size
	if n > len(p) {
		n = len(p)
	}
	if f.pos+n > len(f.data) {
		n = len(f.data) - f.pos
	}
	copy(p, f.data[f.pos:f.pos+n])
	f.pos += n
	return n, nil
}

// failingReader returns some data and then a transport error.
type failingReader struct {
	data []byte
	pos  int
	err  error
}

func (f *failingReader) Read(p []byte) (int, error) {
	if f.pos >= len(f.data) {
		return 0, f.err
	}
	n := copy(p, f.data[f.pos:])
	f.pos += n
	return n, nil
}

// =============================================================================
// SSE Stream Reader Tests
// =============================================================================

func TestNewSSEStreamReader(t *testing.T) {
	reader := NewSSEStreamReader(NewSSEParser())
	if reader == nil {
		t.Fatal("NewSSEStreamReader() returned nil")
	}
}

// -----------------------------------------------------------------------------
// Read Tests - Basic Functionality
// -----------------------------------------------------------------------------

func TestSSEStreamReader_Read_FullSequence(t *testing.T) {
	reader := NewSSEStreamReader(NewSSEParser())

	stream := strings.NewReader(`data: {"type":"start","data":{"session_id":"sess-123"}}

data: {"type":"agent_status","data":{"agent":"query","status":"processing"}}

data: {"type":"agent_status","data":{"agent":"query","status":"completed"}}

data: {"type":"response","data":{"content":"A minor's agreement is void."}}

data: {"type":"complete"}
`)

	events := make([]StreamEvent, 0)

	err := reader.Read(context.Background(), stream, func(event StreamEvent) error {
		events = append(events, event)
		return nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 5 {
		t.Fatalf("expected 5 events, got %d", len(events))
	}

	expectedTypes := []StreamEventType{
		StreamEventStart,
		StreamEventAgentStatus,
		StreamEventAgentStatus,
		StreamEventResponse,
		StreamEventComplete,
	}
	for i, expected := range expectedTypes {
		if events[i].Type != expected {
			t.Errorf("event %d: expected Type %v, got %v", i, expected, events[i].Type)
		}
	}
	if events[0].SessionID != "sess-123" {
		t.Errorf("expected session 'sess-123', got %q", events[0].SessionID)
	}
}

func TestSSEStreamReader_Read_EventIndexing(t *testing.T) {
	reader := NewSSEStreamReader(NewSSEParser())

	stream := strings.NewReader(`data: {"type":"start","data":{"session_id":"s"}}
data: {"type":"response","data":{"content":"x"}}
data: {"type":"complete"}
`)

	indices := make([]int, 0)

	err := reader.Read(context.Background(), stream, func(event StreamEvent) error {
		indices = append(indices, event.Index)
		return nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, idx := range indices {
		if idx != i {
			t.Errorf("event %d: expected Index %d, got %d", i, i, idx)
		}
	}
}

func TestSSEStreamReader_Read_StopsAtComplete(t *testing.T) {
	reader := NewSSEStreamReader(NewSSEParser())

	// Nothing after complete should be delivered
	stream := strings.NewReader(`data: {"type":"complete"}
data: {"type":"response","data":{"content":"late"}}
`)

	count := 0
	err := reader.Read(context.Background(), stream, func(event StreamEvent) error {
		count++
		return nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 event, got %d", count)
	}
}

// -----------------------------------------------------------------------------
// Read Tests - Chunk Boundary Invariance
// -----------------------------------------------------------------------------

func TestSSEStreamReader_Read_FragmentedAtArbitraryBoundaries(t *testing.T) {
	// The transport may split the byte stream anywhere, including inside a
	// JSON payload. The decoded event sequence must be identical for every
	// fragmentation.
	stream := `data: {"type":"start","data":{"session_id":"sess-frag"}}

data: {"type":"agent_status","data":{"agent":"statute","status":"processing"}}

data: {"type":"response","data":{"content":"Answer body"}}

data: {"type":"complete"}
`

	for _, fragSize := range []int{1, 2, 3, 7, 16, len(stream)} {
		reader := NewSSEStreamReader(NewSSEParser())
		events := make([]StreamEvent, 0)

		err := reader.Read(context.Background(), newFragmentReader(stream, fragSize), func(event StreamEvent) error {
			events = append(events, event)
			return nil
		})

		if err != nil {
			t.Fatalf("fragment size %d: unexpected error: %v", fragSize, err)
		}
		if len(events) != 4 {
			t.Fatalf("fragment size %d: expected 4 events, got %d", fragSize, len(events))
		}
		if events[0].SessionID != "sess-frag" {
			t.Errorf("fragment size %d: session %q", fragSize, events[0].SessionID)
		}
		if events[2].Response == nil || events[2].Response.Content != "Answer body" {
			t.Errorf("fragment size %d: response not reassembled intact", fragSize)
		}
	}
}

func TestSSEStreamReader_Read_SplitStartEvent(t *testing.T) {
	// A start event arriving in two fragments must decode as exactly one
	// event carrying the session id, never two.
	reader := NewSSEStreamReader(NewSSEParser())

	stream := io.MultiReader(
		strings.NewReader(`data: {"type":"start"`),
		strings.NewReader(`,"data":{"session_id":"s1"}}`+"\n\n"),
	)

	events := make([]StreamEvent, 0)
	err := reader.Read(context.Background(), stream, func(event StreamEvent) error {
		events = append(events, event)
		return nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected exactly 1 event, got %d", len(events))
	}
	if events[0].Type != StreamEventStart {
		t.Errorf("expected start event, got %v", events[0].Type)
	}
	if events[0].SessionID != "s1" {
		t.Errorf("expected session 's1', got %q", events[0].SessionID)
	}
}

func TestSSEStreamReader_Read_TrailingPartialLineDiscarded(t *testing.T) {
	reader := NewSSEStreamReader(NewSSEParser())

	// The final line has no newline: it is a truncated event and must not
	// be surfaced.
	stream := strings.NewReader(`data: {"type":"start","data":{"session_id":"s"}}
data: {"type":"response","data":{"content":"partial`)

	events := make([]StreamEvent, 0)
	err := reader.Read(context.Background(), stream, func(event StreamEvent) error {
		events = append(events, event)
		return nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Type != StreamEventStart {
		t.Errorf("expected only the start event, got %v", events[0].Type)
	}
}

// -----------------------------------------------------------------------------
// Read Tests - Failure Semantics
// -----------------------------------------------------------------------------

func TestSSEStreamReader_Read_MalformedLineDropped(t *testing.T) {
	reader := NewSSEStreamReader(NewSSEParser())

	// One undecodable line in the middle must not abort the stream.
	stream := strings.NewReader(`data: {"type":"start","data":{"session_id":"s"}}
data: {this is not json}
data: {"type":"response","data":{"content":"survived"}}
data: {"type":"complete"}
`)

	events := make([]StreamEvent, 0)
	err := reader.Read(context.Background(), stream, func(event StreamEvent) error {
		events = append(events, event)
		return nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[1].Response == nil || events[1].Response.Content != "survived" {
		t.Error("response after malformed line should be delivered")
	}
}

func TestSSEStreamReader_Read_UnknownEventTypeDropped(t *testing.T) {
	reader := NewSSEStreamReader(NewSSEParser())

	stream := strings.NewReader(`data: {"type":"telemetry","data":{}}
data: {"type":"complete"}
`)

	events := make([]StreamEvent, 0)
	err := reader.Read(context.Background(), stream, func(event StreamEvent) error {
		events = append(events, event)
		return nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Type != StreamEventComplete {
		t.Errorf("expected complete, got %v", events[0].Type)
	}
}

func TestSSEStreamReader_Read_TransportErrorIsFatal(t *testing.T) {
	reader := NewSSEStreamReader(NewSSEParser())

	transportErr := errors.New("connection reset by peer")
	stream := &failingReader{
		data: []byte("data: {\"type\":\"start\",\"data\":{\"session_id\":\"s\"}}\n"),
		err:  transportErr,
	}

	events := make([]StreamEvent, 0)
	err := reader.Read(context.Background(), stream, func(event StreamEvent) error {
		events = append(events, event)
		return nil
	})

	if err == nil {
		t.Fatal("expected transport error to be returned")
	}
	if !errors.Is(err, transportErr) {
		t.Errorf("expected wrapped transport error, got %v", err)
	}
	// Events before the failure were still delivered
	if len(events) != 1 {
		t.Errorf("expected 1 event before failure, got %d", len(events))
	}
}

func TestSSEStreamReader_Read_ContextCancellation(t *testing.T) {
	reader := NewSSEStreamReader(NewSSEParser())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stream := strings.NewReader(`data: {"type":"complete"}
`)

	err := reader.Read(ctx, stream, func(event StreamEvent) error {
		return nil
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSSEStreamReader_Read_CallbackErrorStopsStream(t *testing.T) {
	reader := NewSSEStreamReader(NewSSEParser())

	stream := strings.NewReader(`data: {"type":"start","data":{"session_id":"s"}}
data: {"type":"complete"}
`)

	callbackErr := errors.New("stop now")
	count := 0

	err := reader.Read(context.Background(), stream, func(event StreamEvent) error {
		count++
		return callbackErr
	})

	if !errors.Is(err, callbackErr) {
		t.Errorf("expected callback error, got %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 callback invocation, got %d", count)
	}
}

// -----------------------------------------------------------------------------
// ReadAll Tests
// -----------------------------------------------------------------------------

func TestSSEStreamReader_ReadAll_Aggregates(t *testing.T) {
	reader := NewSSEStreamReader(NewSSEParser())

	stream := strings.NewReader(`data: {"type":"start","data":{"session_id":"sess-agg"}}
data: {"type":"statutes","data":{"statutes":[{"act":"IPC","section":"420"}]}}
data: {"type":"response","data":{"content":"Answer"}}
data: {"type":"complete"}
`)

	result, err := reader.ReadAll(context.Background(), stream)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.SessionID != "sess-agg" {
		t.Errorf("expected session 'sess-agg', got %q", result.SessionID)
	}
	if len(result.Statutes) != 1 {
		t.Errorf("expected 1 statute, got %d", len(result.Statutes))
	}
	if result.Answer() != "Answer" {
		t.Errorf("expected answer 'Answer', got %q", result.Answer())
	}
	if !result.Completed {
		t.Error("expected Completed to be true")
	}
	if result.TotalEvents != 4 {
		t.Errorf("expected 4 events, got %d", result.TotalEvents)
	}
}

func TestSSEStreamReader_ReadAll_SnapshotsReplace(t *testing.T) {
	reader := NewSSEStreamReader(NewSSEParser())

	stream := strings.NewReader(`data: {"type":"statutes","data":{"statutes":[{"act":"A","section":"1"},{"act":"B","section":"2"}]}}
data: {"type":"statutes","data":{"statutes":[{"act":"C","section":"3"}]}}
data: {"type":"complete"}
`)

	result, err := reader.ReadAll(context.Background(), stream)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Statutes) != 1 {
		t.Fatalf("expected replacement snapshot of 1 statute, got %d", len(result.Statutes))
	}
	if result.Statutes[0].Act != "C" {
		t.Errorf("expected latest snapshot, got %q", result.Statutes[0].Act)
	}
}

func TestSSEStreamReader_ReadAll_RepeatedResponseLastWins(t *testing.T) {
	reader := NewSSEStreamReader(NewSSEParser())

	stream := strings.NewReader(`data: {"type":"response","data":{"content":"first draft"}}
data: {"type":"response","data":{"content":"final answer"}}
data: {"type":"complete"}
`)

	result, err := reader.ReadAll(context.Background(), stream)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Answer() != "final answer" {
		t.Errorf("expected last response to win, got %q", result.Answer())
	}
}

func TestSSEStreamReader_ReadAll_EOFWithoutComplete(t *testing.T) {
	reader := NewSSEStreamReader(NewSSEParser())

	stream := strings.NewReader(`data: {"type":"response","data":{"content":"truncated run"}}
`)

	result, err := reader.ReadAll(context.Background(), stream)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Completed {
		t.Error("expected Completed false when complete event never arrived")
	}
	if result.Answer() != "truncated run" {
		t.Errorf("expected partial answer retained, got %q", result.Answer())
	}
}
