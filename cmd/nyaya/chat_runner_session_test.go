// Copyright (C) 2026 Nyaya AI (contact@nyayaai.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/NyayaAI/NyayaLocal/pkg/datatypes"
)

// mockChatController implements ChatSessionController for runner tests.
type mockChatController struct {
	mu        sync.Mutex
	sent      []string
	sendErr   error
	loadedID  string
	loadErr   error
	sessionID string
	messages  []datatypes.ChatMessage
	closed    bool
}

func (m *mockChatController) SendMessage(ctx context.Context, message string) (*datatypes.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return nil, m.sendErr
	}
	m.sent = append(m.sent, message)
	return &datatypes.ChatMessage{Role: datatypes.RoleAssistant, Content: "answer"}, nil
}

func (m *mockChatController) LoadSession(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return m.loadErr
	}
	m.loadedID = sessionID
	m.sessionID = sessionID
	return nil
}

func (m *mockChatController) Messages() []datatypes.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.messages
}

func (m *mockChatController) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = nil
	m.sessionID = ""
}

func (m *mockChatController) GetSessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

func (m *mockChatController) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

var _ ChatSessionController = (*mockChatController)(nil)

func TestRun_SendsMessagesUntilExit(t *testing.T) {
	controller := &mockChatController{}
	input := NewMockInputReader([]string{
		"What is Section 420 IPC?",
		"",
		"Explain anticipatory bail",
		"exit",
	})

	runner := NewSessionChatRunnerWithDeps(controller, input)
	defer runner.Close()

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(controller.sent) != 2 {
		t.Fatalf("expected 2 sent messages, got %d: %v", len(controller.sent), controller.sent)
	}
	if controller.sent[0] != "What is Section 420 IPC?" {
		t.Errorf("unexpected first message: %q", controller.sent[0])
	}
}

func TestRun_EOFEndsSessionCleanly(t *testing.T) {
	controller := &mockChatController{}
	input := NewMockInputReader([]string{"one question"})

	runner := NewSessionChatRunnerWithDeps(controller, input)
	defer runner.Close()

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("expected clean exit on EOF, got %v", err)
	}
	if len(controller.sent) != 1 {
		t.Errorf("expected 1 sent message, got %d", len(controller.sent))
	}
}

func TestRun_SendErrorIsNonFatal(t *testing.T) {
	controller := &mockChatController{sendErr: errors.New("backend unavailable")}
	input := NewMockInputReader([]string{"first", "exit"})

	runner := NewSessionChatRunnerWithDeps(controller, input)
	defer runner.Close()

	// The loop reports the failure and keeps going to the exit command.
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("send failure must not abort the loop: %v", err)
	}
}

func TestRun_ContextCancellationReturnsCanceled(t *testing.T) {
	controller := &mockChatController{}
	input := NewMockInputReader([]string{"never read"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewSessionChatRunnerWithDeps(controller, input)
	defer runner.Close()

	if err := runner.Run(ctx); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(controller.sent) != 0 {
		t.Errorf("no message should be sent after cancellation, got %v", controller.sent)
	}
}

func TestRun_ResumeLoadsSession(t *testing.T) {
	controller := &mockChatController{
		messages: []datatypes.ChatMessage{
			{Role: datatypes.RoleUser, Content: "earlier question"},
			{Role: datatypes.RoleAssistant, Content: "earlier answer"},
		},
	}
	input := NewMockInputReader([]string{"exit"})

	runner := NewSessionChatRunnerWithDeps(controller, input)
	runner.resumeSessionID = "sess-resume"
	defer runner.Close()

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if controller.loadedID != "sess-resume" {
		t.Errorf("expected LoadSession with sess-resume, got %q", controller.loadedID)
	}
}

func TestRun_ResumeFailureIsFatal(t *testing.T) {
	controller := &mockChatController{loadErr: errors.New("session not found")}
	input := NewMockInputReader([]string{"exit"})

	runner := NewSessionChatRunnerWithDeps(controller, input)
	runner.resumeSessionID = "sess-missing"
	defer runner.Close()

	if err := runner.Run(context.Background()); err == nil {
		t.Fatal("expected error when resume fails")
	}
}

func TestClose_IsIdempotentAndClosesController(t *testing.T) {
	controller := &mockChatController{}
	runner := NewSessionChatRunnerWithDeps(controller, NewMockInputReader(nil))

	if err := runner.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := runner.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	if !controller.closed {
		t.Error("controller was not closed")
	}
}

func TestRun_NewCommandClearsConversation(t *testing.T) {
	controller := &mockChatController{sessionID: "sess-1"}
	input := NewMockInputReader([]string{
		"first question",
		"/new",
		"second question",
		"exit",
	})

	runner := NewSessionChatRunnerWithDeps(controller, input)
	defer runner.Close()

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if controller.GetSessionID() != "" {
		t.Error("/new must clear the session binding")
	}
	if len(controller.sent) != 2 {
		t.Errorf("expected 2 sent messages, got %d: %v", len(controller.sent), controller.sent)
	}
}

func TestRun_UnknownSlashCommandIsNotSent(t *testing.T) {
	controller := &mockChatController{}
	input := NewMockInputReader([]string{"/bogus", "exit"})

	runner := NewSessionChatRunnerWithDeps(controller, input)
	defer runner.Close()

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(controller.sent) != 0 {
		t.Errorf("slash commands must not be sent as messages, got %v", controller.sent)
	}
}

func TestIsExitCommand(t *testing.T) {
	for _, input := range []string{"exit", "quit"} {
		if !isExitCommand(input) {
			t.Errorf("%q should be an exit command", input)
		}
	}
	for _, input := range []string{"", "Exit please", "quitting"} {
		if isExitCommand(input) {
			t.Errorf("%q should not be an exit command", input)
		}
	}
}
