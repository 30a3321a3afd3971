// Copyright (C) 2026 Nyaya AI (contact@nyayaai.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes provides wire-level data structures for the Nyaya
// backend API.
//
// All wire fields are snake_case JSON; the Go model is camelCase. Every
// field the backend sends is represented here so that nothing is silently
// dropped during decoding. For session-history types see sessions.go; for
// document-analysis types see documents.go.
package datatypes

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// MaxMessageContentBytes is the maximum size of a single user message.
	MaxMessageContentBytes = 32 * 1024 // 32KB
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// chatValidate is the validator instance for chat datatypes.
// Initialized in init() with custom validators.
var chatValidate *validator.Validate

func init() {
	chatValidate = validator.New()
	_ = chatValidate.RegisterValidation("maxbytes", validateMaxBytes)
}

// validateMaxBytes checks byte length (not rune count) so oversized
// payloads are rejected before they reach the backend.
func validateMaxBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxMessageContentBytes
}

// =============================================================================
// Language
// =============================================================================

// Language identifies the content language for a session.
//
// The backend always answers with English primary content and may attach a
// Hindi alternate. Language affects content selection only, never routing.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageHindi   Language = "hi"
)

// ParseLanguage normalizes a user-supplied language string.
// Unrecognized values fall back to English.
func ParseLanguage(s string) Language {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hi", "hindi":
		return LanguageHindi
	default:
		return LanguageEnglish
	}
}

// =============================================================================
// Reference Material Types
// =============================================================================

// Citation is a single source reference attached to an answer.
type Citation struct {
	Text   string `json:"text"`
	Source string `json:"source,omitempty"`
	URL    string `json:"url,omitempty"`
}

// Statute is a statutory excerpt (act + section) retrieved for a query.
type Statute struct {
	Act     string `json:"act"`
	Section string `json:"section"`
	Title   string `json:"title,omitempty"`
	Text    string `json:"text,omitempty"`
	TextHi  string `json:"text_hi,omitempty"`
}

// CaseLaw is a precedent excerpt retrieved for a query.
type CaseLaw struct {
	Title    string `json:"title"`
	Court    string `json:"court,omitempty"`
	Year     int    `json:"year,omitempty"`
	Citation string `json:"citation,omitempty"`
	Summary  string `json:"summary,omitempty"`
}

// =============================================================================
// Chat Session Model
// =============================================================================

// MessageRole identifies the author of a chat message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// ChatMessage is one entry in a conversation.
//
// Assistant messages are appended only once fully assembled; the message
// list never contains a partially streamed assistant message.
type ChatMessage struct {
	ID               string      `json:"id"`
	Role             MessageRole `json:"role"`
	Content          string      `json:"content"`
	SecondaryContent string      `json:"secondary_content,omitempty"`
	Citations        []Citation  `json:"citations,omitempty"`
	Statutes         []Statute   `json:"statutes,omitempty"`
	Timestamp        int64       `json:"timestamp"`
}

// ChatSession is one conversation.
//
// ID is assigned by the backend on the first streamed response and is
// immutable once bound. Messages is append-only during a live session.
type ChatSession struct {
	ID       string        `json:"id"`
	Messages []ChatMessage `json:"messages"`
	Language Language      `json:"language"`
}

// =============================================================================
// Chat Stream Request
// =============================================================================

// ChatStreamRequest is the body of POST /v1/chat/stream.
//
// # Description
//
// Every request carries a unique RequestID and creation timestamp for
// tracing and audit correlation, mirroring the backend's audit trail.
// SessionID is empty on the first message of a fresh session; the backend
// assigns one and reports it in the stream's start event.
//
// # Validation
//
//   - RequestID: required, UUID v4
//   - CreatedAt: required, > 0 (Unix millis, UTC)
//   - Message: required, at most 32KB of bytes
//   - Language: "en" or "hi" when present
type ChatStreamRequest struct {
	RequestID    string   `json:"request_id" validate:"required,uuid4"`
	CreatedAt    int64    `json:"created_at" validate:"required,gt=0"`
	Message      string   `json:"message" validate:"required,maxbytes"`
	SessionID    string   `json:"session_id,omitempty"`
	Language     Language `json:"language,omitempty" validate:"omitempty,oneof=en hi"`
	DomainFilter string   `json:"domain_filter,omitempty"`
}

// Validate checks the request against its validation tags.
func (r *ChatStreamRequest) Validate() error {
	return chatValidate.Struct(r)
}

// NowMillis returns the current UTC time in Unix milliseconds, the
// timestamp convention used across the wire contract.
func NowMillis() int64 {
	return time.Now().UTC().UnixMilli()
}
