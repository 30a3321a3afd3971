// Copyright (C) 2026 Nyaya AI (contact@nyayaai.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes provides wire-level data structures for the Nyaya
// backend API.
//
// This file contains the persisted-session REST surface: session listing,
// per-session history, and the 1:1 translation from snake_case wire
// messages into the camelCase chat model.
package datatypes

// SessionInfo is one entry of GET /v1/sessions.
type SessionInfo struct {
	SessionID string `json:"session_id"`
	Title     string `json:"title"`
	Timestamp int64  `json:"timestamp"`
}

// SessionListResponse is the body of GET /v1/sessions.
type SessionListResponse struct {
	Sessions []SessionInfo `json:"sessions"`
}

// HistoryMessage is one message of GET /v1/sessions/{id}/history.
//
// ContentHi carries the Hindi alternate when the backend produced one; it
// maps to ChatMessage.SecondaryContent.
type HistoryMessage struct {
	ID        string      `json:"id"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	ContentHi string      `json:"content_hi,omitempty"`
	Citations []Citation  `json:"citations,omitempty"`
	Statutes  []Statute   `json:"statutes,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// ToChatMessage translates the wire message into the client model.
// Every wire field is carried over; nothing is dropped.
func (m HistoryMessage) ToChatMessage() ChatMessage {
	return ChatMessage{
		ID:               m.ID,
		Role:             m.Role,
		Content:          m.Content,
		SecondaryContent: m.ContentHi,
		Citations:        m.Citations,
		Statutes:         m.Statutes,
		Timestamp:        m.Timestamp,
	}
}

// SessionHistoryResponse is the body of GET /v1/sessions/{id}/history.
type SessionHistoryResponse struct {
	SessionID string           `json:"session_id"`
	Messages  []HistoryMessage `json:"messages"`
}

// ToSession builds a complete ChatSession from the fetched history.
func (r *SessionHistoryResponse) ToSession(language Language) ChatSession {
	messages := make([]ChatMessage, 0, len(r.Messages))
	for _, m := range r.Messages {
		messages = append(messages, m.ToChatMessage())
	}
	return ChatSession{
		ID:       r.SessionID,
		Messages: messages,
		Language: language,
	}
}
