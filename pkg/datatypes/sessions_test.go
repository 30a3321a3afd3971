// Copyright (C) 2026 Nyaya AI (contact@nyayaai.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryMessage_ToChatMessage(t *testing.T) {
	wire := HistoryMessage{
		ID:        "msg-1",
		Role:      RoleAssistant,
		Content:   "The notice period is 15 days.",
		ContentHi: "नोटिस अवधि 15 दिन है।",
		Citations: []Citation{{Text: "Section 106", Source: "Transfer of Property Act"}},
		Statutes:  []Statute{{Act: "Transfer of Property Act, 1882", Section: "106"}},
		Timestamp: 1756300000000,
	}

	msg := wire.ToChatMessage()

	assert.Equal(t, "msg-1", msg.ID)
	assert.Equal(t, RoleAssistant, msg.Role)
	assert.Equal(t, wire.Content, msg.Content)
	assert.Equal(t, wire.ContentHi, msg.SecondaryContent)
	assert.Equal(t, wire.Citations, msg.Citations)
	assert.Equal(t, wire.Statutes, msg.Statutes)
	assert.Equal(t, wire.Timestamp, msg.Timestamp)
}

func TestSessionHistoryResponse_ToSession(t *testing.T) {
	body := `{
		"session_id": "sess-42",
		"messages": [
			{"id": "m1", "role": "user", "content": "hello", "timestamp": 1},
			{"id": "m2", "role": "assistant", "content": "hi", "content_hi": "नमस्ते", "timestamp": 2}
		]
	}`

	var resp SessionHistoryResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))

	session := resp.ToSession(LanguageHindi)

	assert.Equal(t, "sess-42", session.ID)
	assert.Equal(t, LanguageHindi, session.Language)
	require.Len(t, session.Messages, 2)
	assert.Equal(t, RoleUser, session.Messages[0].Role)
	assert.Equal(t, "नमस्ते", session.Messages[1].SecondaryContent)
}

func TestSessionHistoryResponse_ToSession_Empty(t *testing.T) {
	resp := SessionHistoryResponse{SessionID: "sess-empty"}
	session := resp.ToSession(LanguageEnglish)

	assert.Equal(t, "sess-empty", session.ID)
	assert.NotNil(t, session.Messages)
	assert.Empty(t, session.Messages)
}

func TestSessionListResponse_DecodeWire(t *testing.T) {
	body := `{"sessions": [{"session_id": "s1", "title": "Rent dispute", "timestamp": 1756300000000}]}`

	var resp SessionListResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))

	require.Len(t, resp.Sessions, 1)
	assert.Equal(t, "s1", resp.Sessions[0].SessionID)
	assert.Equal(t, "Rent dispute", resp.Sessions[0].Title)
	assert.Equal(t, int64(1756300000000), resp.Sessions[0].Timestamp)
}
