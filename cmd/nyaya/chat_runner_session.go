// Copyright (C) 2026 Nyaya AI (contact@nyayaai.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package main contains the sessionChatRunner implementation.
//
// This file implements the ChatRunner interface for the streaming legal
// research chat. It coordinates between the ChatSessionController (HTTP/SSE
// communication), the ux package (display), and the InputReader (user
// input).
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/NyayaAI/NyayaLocal/pkg/datatypes"
	"github.com/NyayaAI/NyayaLocal/pkg/ux"
)

// =============================================================================
// sessionChatRunner Implementation
// =============================================================================

// sessionChatRunner implements ChatRunner for the streaming chat.
//
// # Description
//
// Manages the interactive loop: read a question, stream the answer through
// the controller's renderer, repeat. The runner only coordinates; input
// reading, HTTP, and rendering are delegated.
//
// # Thread Safety
//
// Run is single-use and not safe for concurrent calls. Close is
// thread-safe and idempotent.
type sessionChatRunner struct {
	controller       ChatSessionController
	input            InputReader
	store            SessionHistoryStore // nil disables /sessions
	resumeSessionID  string
	language         datatypes.Language
	sessionStartTime time.Time
	messageCount     int

	mu       sync.Mutex
	closed   bool
	closeErr error
}

// SessionChatRunnerConfig holds configuration for the chat runner.
type SessionChatRunnerConfig struct {
	BaseURL         string             // Backend URL (required)
	ResumeSessionID string             // Session to resume (optional)
	Language        datatypes.Language // Preferred answer language (optional)
	DomainFilter    string             // Legal domain filter (optional)
}

// NewSessionChatRunner creates a chat runner with production dependencies.
func NewSessionChatRunner(config SessionChatRunnerConfig) ChatRunner {
	controller := NewChatSessionController(ChatSessionControllerConfig{
		BaseURL:      config.BaseURL,
		SessionID:    config.ResumeSessionID,
		Language:     config.Language,
		DomainFilter: config.DomainFilter,
	})

	return &sessionChatRunner{
		controller:      controller,
		input:           NewInteractiveInputReader(50), // Keep last 50 prompts in history
		store:           NewSessionHistoryStore(config.BaseURL),
		resumeSessionID: config.ResumeSessionID,
		language:        config.Language,
	}
}

// NewSessionChatRunnerWithDeps creates a chat runner with injected
// dependencies for testing.
func NewSessionChatRunnerWithDeps(controller ChatSessionController, input InputReader) *sessionChatRunner {
	return &sessionChatRunner{
		controller: controller,
		input:      input,
	}
}

// Run executes the interactive chat loop.
//
// The loop:
//  1. Loads history when resuming a session
//  2. Prompts for user input
//  3. Checks for exit commands ("exit", "quit")
//  4. Streams the answer (pipeline progress, reference panels, response)
//  5. Repeats until exit, EOF, or context cancellation
func (r *sessionChatRunner) Run(ctx context.Context) error {
	r.sessionStartTime = time.Now()

	ux.Title("Nyaya Legal Research")
	ux.Muted("Ask a legal question, or type 'exit' to leave.")
	ux.Muted("Answers are research assistance, not legal advice.")
	fmt.Println()

	if r.resumeSessionID != "" {
		if err := r.controller.LoadSession(ctx, r.resumeSessionID); err != nil {
			return fmt.Errorf("resume session: %w", err)
		}
		r.replayHistory()
	}

	for {
		// Check for context cancellation before blocking on input
		select {
		case <-ctx.Done():
			return r.handleShutdown(ctx)
		default:
		}

		// If the reader handles prompts (interactive mode), set it;
		// otherwise print manually
		if p, ok := r.input.(PromptingInputReader); ok {
			p.SetPrompt("> ")
		} else {
			fmt.Print("> ")
		}
		input, err := r.input.ReadLine()
		if err != nil {
			if err == io.EOF {
				// Input exhausted (e.g., piped input ended)
				r.displaySessionEnd()
				return nil
			}
			slog.Error("failed to read input", "error", err)
			return fmt.Errorf("read input: %w", err)
		}

		if input == "" {
			continue
		}

		// Bubbletea clears its rendering area on exit, so we restore the
		// visual line for interactive readers
		if _, isInteractive := r.input.(*InteractiveInputReader); isInteractive {
			fmt.Printf("> %s\n", input)
		}

		if isExitCommand(input) {
			r.displaySessionEnd()
			return nil
		}

		if r.handleSlashCommand(ctx, input) {
			continue
		}

		if err := r.handleMessage(ctx, input); err != nil {
			if ctx.Err() != nil {
				return r.handleShutdown(ctx)
			}
			// Non-fatal: display and continue; the user message is kept
			// so a retry has the full conversation
			ux.Error(fmt.Sprintf("Query failed: %v", err))
			continue
		}
	}
}

// handleSlashCommand handles in-chat commands. Returns true when the input
// was a command (known or not) and should not be sent as a message.
func (r *sessionChatRunner) handleSlashCommand(ctx context.Context, input string) bool {
	if !strings.HasPrefix(input, "/") {
		return false
	}

	switch input {
	case "/new":
		r.controller.Clear()
		r.messageCount = 0
		r.sessionStartTime = time.Now()
		ux.Muted("Started a new conversation.")
	case "/sessions":
		r.listSessions(ctx)
	default:
		ux.Warning(fmt.Sprintf("Unknown command %s (try /new, /sessions, exit)", input))
	}
	return true
}

// listSessions prints the saved sessions so a running chat can find a
// session ID to resume later.
func (r *sessionChatRunner) listSessions(ctx context.Context) {
	if r.store == nil {
		ux.Muted("Session listing is not available here.")
		return
	}

	sessions, err := r.store.List(ctx)
	if err != nil {
		ux.Error(fmt.Sprintf("List sessions failed: %v", err))
		return
	}
	if len(sessions) == 0 {
		ux.Muted("No saved sessions yet.")
		return
	}
	for _, s := range sessions {
		fmt.Printf("  %s  %s\n", s.SessionID, ux.Styles.Muted.Render(s.Title))
	}
}

// handleMessage processes a single user message. The answer is rendered in
// real time by the controller's stream renderer.
func (r *sessionChatRunner) handleMessage(ctx context.Context, message string) error {
	_, err := r.controller.SendMessage(ctx, message)
	if err != nil {
		if errors.Is(err, ErrSendInFlight) {
			// The loop is sequential, so this means a stray concurrent
			// caller; tell the user rather than die
			return fmt.Errorf("previous query still running")
		}
		return err
	}

	r.messageCount++
	fmt.Println()

	return nil
}

// replayHistory prints the loaded conversation so a resumed session shows
// its context.
func (r *sessionChatRunner) replayHistory() {
	messages := r.controller.Messages()
	if len(messages) == 0 {
		return
	}

	ux.Muted(fmt.Sprintf("Resumed session %s (%d messages)", r.controller.GetSessionID(), len(messages)))
	fmt.Println()

	for _, msg := range messages {
		switch msg.Role {
		case datatypes.RoleUser:
			fmt.Printf("> %s\n", msg.Content)
		case datatypes.RoleAssistant:
			fmt.Printf("%s\n\n", msg.Content)
		}
	}
}

// displaySessionEnd prints the end-of-session summary.
func (r *sessionChatRunner) displaySessionEnd() {
	fmt.Println()

	sessionID := r.controller.GetSessionID()
	if sessionID != "" {
		ux.Muted(fmt.Sprintf("Session %s saved. Resume with: nyaya chat --resume %s", sessionID, sessionID))
	}
	ux.Muted(fmt.Sprintf("%d questions in %s", r.messageCount, time.Since(r.sessionStartTime).Round(time.Second)))
}

// handleShutdown performs graceful shutdown after context cancellation.
func (r *sessionChatRunner) handleShutdown(ctx context.Context) error {
	slog.Info("graceful shutdown initiated",
		"session_id", r.controller.GetSessionID(),
	)

	fmt.Println() // New line after interrupted input
	r.displaySessionEnd()

	return ctx.Err()
}

// Close releases all resources held by the runner. Idempotent and safe to
// call from any goroutine.
func (r *sessionChatRunner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return r.closeErr
	}
	r.closed = true
	r.closeErr = r.controller.Close()
	return r.closeErr
}

var _ ChatRunner = (*sessionChatRunner)(nil)
