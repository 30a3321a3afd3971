// Copyright (C) 2026 Nyaya AI (contact@nyayaai.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package main contains the Nyaya CLI chat session controller.
//
// This file defines the ChatSessionController interface and its streaming
// implementation. It follows the layered streaming architecture:
//
//	HTTP Response Body → SSEParser → SSEStreamReader → StreamRenderer → StreamResult
//
// The controller owns the conversation state (session binding, message
// list) and the single-query-in-flight guard; rendering and wire decoding
// live in pkg/ux.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/NyayaAI/NyayaLocal/pkg/datatypes"
	"github.com/NyayaAI/NyayaLocal/pkg/ux"
	"github.com/NyayaAI/NyayaLocal/pkg/validation"
)

// ErrSendInFlight is returned by SendMessage while a previous query is
// still streaming. The conversation permits exactly one open query at a
// time; callers should surface this to the user rather than queueing.
var ErrSendInFlight = errors.New("a query is already in flight")

// =============================================================================
// INTERFACES
// =============================================================================

// ChatSessionController drives one conversation against the backend.
//
// # Description
//
// The controller sends user messages to the streaming chat endpoint,
// renders pipeline progress and reference panels while the answer streams,
// and appends exactly one fully assembled assistant message per completed
// query. Session identity is bound from the backend's first start event
// and never changes afterwards.
//
// # Inputs
//
// Methods accept context.Context for cancellation and timeout control.
// Message inputs must be non-empty strings of at most 32KB.
//
// # Outputs
//
// SendMessage returns the assembled assistant *datatypes.ChatMessage on
// success. The user message is retained in the conversation even when the
// stream fails, so a retry has the full context.
//
// # Limitations
//
//   - One query in flight at a time; concurrent sends get ErrSendInFlight
//   - Context cancellation mid-stream loses the partial answer
//
// # Assumptions
//
//   - Server streams SSE events per the chat wire contract
//   - Caller handles context lifecycle (cancellation, timeout)
type ChatSessionController interface {
	// SendMessage sends a user message and streams the assistant's response.
	//
	// Description:
	//   Appends the user message, streams the backend's answer through the
	//   renderer, and on stream completion appends one assistant message
	//   assembled from the final response payload.
	//
	// Inputs:
	//   - ctx: Context for cancellation/timeout. When cancelled, the stream stops.
	//   - message: User's input text. Must not be empty.
	//
	// Outputs:
	//   - *datatypes.ChatMessage: The assembled assistant message.
	//   - error: ErrSendInFlight when a query is already open; otherwise
	//     network, server, or stream errors.
	SendMessage(ctx context.Context, message string) (*datatypes.ChatMessage, error)

	// LoadSession replaces the conversation with a persisted session's
	// history fetched from the backend.
	LoadSession(ctx context.Context, sessionID string) error

	// Messages returns a copy of the conversation so far.
	Messages() []datatypes.ChatMessage

	// Clear discards the conversation and the session binding. The next
	// SendMessage starts a fresh backend session.
	Clear()

	// GetSessionID returns the bound session ID, or empty before the first
	// query's start event arrives.
	GetSessionID() string

	// Close releases resources held by the controller.
	Close() error
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// ChatSessionControllerConfig holds configuration for the controller.
// Only BaseURL is required.
type ChatSessionControllerConfig struct {
	BaseURL      string              // Base URL of the backend (required)
	SessionID    string              // Session ID to resume (optional)
	Language     datatypes.Language  // Preferred answer language (optional)
	DomainFilter string              // Legal domain filter (optional)
	Writer       io.Writer           // Output destination (optional, default os.Stdout)
	Personality  ux.PersonalityLevel // Output styling (optional)
}

// =============================================================================
// IMPLEMENTATION
// =============================================================================

// streamingSessionController implements ChatSessionController over the
// /v1/chat/stream SSE endpoint.
//
// # Thread Safety
//
// State mutations are protected by mu. The mutex is NOT held while the
// stream is being consumed: a second SendMessage during streaming must
// fail fast with ErrSendInFlight instead of blocking behind the lock, and
// accessors like GetSessionID must stay responsive.
type streamingSessionController struct {
	client       HTTPClient
	reader       ux.StreamReader
	baseURL      string
	language     datatypes.Language
	domainFilter string
	writer       io.Writer
	personality  ux.PersonalityLevel

	mu       sync.Mutex
	session  datatypes.ChatSession
	inFlight bool
	closed   bool
}

// NewChatSessionController creates a controller with the production HTTP
// client.
func NewChatSessionController(config ChatSessionControllerConfig) ChatSessionController {
	return NewChatSessionControllerWithClient(newDefaultHTTPClient(), config)
}

// NewChatSessionControllerWithClient creates a controller with an injected
// HTTP client. Use this constructor for testing with mock clients.
func NewChatSessionControllerWithClient(client HTTPClient, config ChatSessionControllerConfig) ChatSessionController {
	writer := config.Writer
	if writer == nil {
		writer = os.Stdout
	}

	personality := config.Personality
	if personality == "" {
		personality = ux.GetPersonality().Level
	}

	language := config.Language
	if language == "" {
		language = datatypes.LanguageEnglish
	}

	return &streamingSessionController{
		client:       client,
		reader:       ux.NewSSEStreamReader(ux.NewSSEParser()),
		baseURL:      config.BaseURL,
		language:     language,
		domainFilter: config.DomainFilter,
		writer:       writer,
		personality:  personality,
		session: datatypes.ChatSession{
			ID:       config.SessionID,
			Language: language,
		},
	}
}

// SendMessage sends a message and streams the answer.
//
// The user message is appended before the request goes out and is kept even
// when the stream fails; the conversation must not lose what the user
// typed. Exactly one assistant message is appended, and only after the
// stream's terminal complete event.
func (c *streamingSessionController) SendMessage(ctx context.Context, message string) (*datatypes.ChatMessage, error) {
	requestID := uuid.New().String()

	userMsg, currentSessionID, err := c.beginQuery(message)
	if err != nil {
		return nil, err
	}
	defer c.endQuery()

	slog.Debug("sending chat message",
		"request_id", requestID,
		"session_id", currentSessionID,
		"message_length", len(message),
	)

	req := datatypes.ChatStreamRequest{
		RequestID:    requestID,
		CreatedAt:    datatypes.NowMillis(),
		Message:      message,
		SessionID:    currentSessionID,
		Language:     c.language,
		DomainFilter: c.domainFilter,
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	resp, err := c.postStream(ctx, requestID, req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("failed to close response body", "error", err)
		}
	}()

	if err := c.validateResponse(requestID, resp); err != nil {
		return nil, err
	}

	result, err := c.processStream(ctx, requestID, resp.Body)
	if err != nil {
		return nil, err
	}

	if !result.Completed {
		slog.Warn("stream ended before complete event",
			"request_id", requestID,
			"events", result.TotalEvents,
		)
		return nil, fmt.Errorf("stream ended before completion")
	}

	assistantMsg := c.finishQuery(requestID, result)

	slog.Debug("chat message completed",
		"request_id", requestID,
		"session_id", result.SessionID,
		"events", result.TotalEvents,
		"user_message_id", userMsg.ID,
		"assistant_message_id", assistantMsg.ID,
	)

	return assistantMsg, nil
}

// beginQuery checks the send guard, appends the user message, and marks a
// query in flight. Returns the appended message and the bound session ID.
//
// Blank input is rejected here, before the append, so a no-op send leaves
// no stray user message in the conversation.
func (c *streamingSessionController) beginQuery(message string) (*datatypes.ChatMessage, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, "", fmt.Errorf("controller is closed")
	}
	if strings.TrimSpace(message) == "" {
		return nil, "", fmt.Errorf("empty message")
	}
	if c.inFlight {
		return nil, "", ErrSendInFlight
	}
	c.inFlight = true

	userMsg := datatypes.ChatMessage{
		ID:        uuid.New().String(),
		Role:      datatypes.RoleUser,
		Content:   message,
		Timestamp: datatypes.NowMillis(),
	}
	c.session.Messages = append(c.session.Messages, userMsg)

	return &userMsg, c.session.ID, nil
}

// endQuery clears the in-flight flag.
func (c *streamingSessionController) endQuery() {
	c.mu.Lock()
	c.inFlight = false
	c.mu.Unlock()
}

// bindSession binds the backend's session ID on first observation. Later
// IDs never rebind; the conversation belongs to one backend session.
func (c *streamingSessionController) bindSession(requestID, sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.ID != "" || sessionID == "" {
		return
	}
	c.session.ID = sessionID
	slog.Info("session bound",
		"request_id", requestID,
		"session_id", sessionID,
	)
}

// finishQuery appends the assembled assistant message. The session ID was
// bound when the stream's start event arrived; the result's ID is only a
// fallback.
func (c *streamingSessionController) finishQuery(requestID string, result *ux.StreamResult) *datatypes.ChatMessage {
	primary, secondary := "", ""
	var citations []datatypes.Citation
	var statutes []datatypes.Statute
	if result.Response != nil {
		primary, secondary = result.Response.DisplayContent()
		citations = result.Response.Citations
		statutes = result.Response.Statutes
	}
	if len(citations) == 0 {
		citations = result.Citations
	}
	if len(statutes) == 0 {
		statutes = result.Statutes
	}

	assistantMsg := datatypes.ChatMessage{
		ID:               uuid.New().String(),
		Role:             datatypes.RoleAssistant,
		Content:          primary,
		SecondaryContent: secondary,
		Citations:        citations,
		Statutes:         statutes,
		Timestamp:        datatypes.NowMillis(),
	}

	c.bindSession(requestID, result.SessionID)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.session.Messages = append(c.session.Messages, assistantMsg)

	return &assistantMsg
}

// postStream sends the POST request for the streaming endpoint.
func (c *streamingSessionController) postStream(ctx context.Context, requestID string, req datatypes.ChatStreamRequest) (*http.Response, error) {
	targetURL := fmt.Sprintf("%s/v1/chat/stream", c.baseURL)

	postBody, err := json.Marshal(req)
	if err != nil {
		slog.Error("failed to marshal chat stream request",
			"request_id", requestID,
			"error", err,
		)
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	resp, err := c.client.Post(ctx, targetURL, "application/json", bytes.NewBuffer(postBody))
	if err != nil {
		slog.Error("chat stream HTTP request failed",
			"request_id", requestID,
			"url", targetURL,
			"error", err,
		)
		return nil, fmt.Errorf("http post: %w", err)
	}

	return resp, nil
}

// validateResponse checks the HTTP response status.
func (c *streamingSessionController) validateResponse(requestID string, resp *http.Response) error {
	if resp.StatusCode != http.StatusOK {
		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			slog.Error("chat stream server returned error (failed to read body)",
				"request_id", requestID,
				"status_code", resp.StatusCode,
				"read_error", err,
			)
			return fmt.Errorf("server error (%d): failed to read response body", resp.StatusCode)
		}
		slog.Error("chat stream server returned error",
			"request_id", requestID,
			"status_code", resp.StatusCode,
			"response_body", string(bodyBytes),
		)
		return fmt.Errorf("server error (%d): %s", resp.StatusCode, string(bodyBytes))
	}
	return nil
}

// processStream reads the SSE stream and routes events to the renderer.
func (c *streamingSessionController) processStream(ctx context.Context, requestID string, body io.Reader) (*ux.StreamResult, error) {
	renderer := ux.NewTerminalStreamRenderer(c.writer, c.personality)
	defer renderer.Finalize()

	err := c.reader.Read(ctx, body, func(event ux.StreamEvent) error {
		// The session exists on the backend from the start event onward,
		// even if this stream later fails; bind immediately so a retry
		// continues the same session.
		if event.Type == ux.StreamEventStart {
			c.bindSession(requestID, event.SessionID)
		}
		renderer.OnEvent(ctx, event)
		return nil
	})

	if err != nil {
		renderer.OnError(ctx, err)
		slog.Error("chat stream reading failed",
			"request_id", requestID,
			"error", err,
		)
		return nil, fmt.Errorf("read stream: %w", err)
	}

	return renderer.Result(), nil
}

// LoadSession replaces the conversation with a persisted session's history.
//
// No send guard applies here: loading happens between queries, and a load
// during streaming is a caller bug rather than a user-visible race.
func (c *streamingSessionController) LoadSession(ctx context.Context, sessionID string) error {
	if err := validation.ValidateSessionID(sessionID); err != nil {
		return fmt.Errorf("invalid session id: %w", err)
	}

	historyURL := fmt.Sprintf("%s/v1/sessions/%s/history", c.baseURL, url.PathEscape(sessionID))

	resp, err := c.client.Get(ctx, historyURL)
	if err != nil {
		slog.Error("failed to load session history",
			"session_id", sessionID,
			"error", err,
		)
		return fmt.Errorf("http get: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		slog.Error("session history request failed",
			"session_id", sessionID,
			"status_code", resp.StatusCode,
		)
		return fmt.Errorf("failed to get history (status %d)", resp.StatusCode)
	}

	var history datatypes.SessionHistoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		return fmt.Errorf("parse history: %w", err)
	}

	c.mu.Lock()
	c.session = history.ToSession(c.language)
	// The fetched id is authoritative even when the body omits it
	if c.session.ID == "" {
		c.session.ID = sessionID
	}
	messageCount := len(c.session.Messages)
	c.mu.Unlock()

	slog.Info("session history loaded",
		"session_id", sessionID,
		"messages", messageCount,
	)

	return nil
}

// Messages returns a copy of the conversation so far.
func (c *streamingSessionController) Messages() []datatypes.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()

	messages := make([]datatypes.ChatMessage, len(c.session.Messages))
	copy(messages, c.session.Messages)
	return messages
}

// Clear discards the conversation and session binding.
func (c *streamingSessionController) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.session = datatypes.ChatSession{Language: c.language}
}

// GetSessionID returns the bound session ID.
func (c *streamingSessionController) GetSessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.ID
}

// Close marks the controller closed. Idempotent.
func (c *streamingSessionController) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	return nil
}

// =============================================================================
// COMPILE-TIME INTERFACE CHECKS
// =============================================================================

var _ ChatSessionController = (*streamingSessionController)(nil)
