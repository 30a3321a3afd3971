// Copyright (C) 2026 Nyaya AI (contact@nyayaai.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validChatStreamRequest() ChatStreamRequest {
	return ChatStreamRequest{
		RequestID: uuid.New().String(),
		CreatedAt: NowMillis(),
		Message:   "What is the notice period under the Rent Act?",
		Language:  LanguageEnglish,
	}
}

func TestChatStreamRequest_Validate_Valid(t *testing.T) {
	req := validChatStreamRequest()
	require.NoError(t, req.Validate())
}

func TestChatStreamRequest_Validate_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ChatStreamRequest)
	}{
		{"missing request id", func(r *ChatStreamRequest) { r.RequestID = "" }},
		{"non-uuid request id", func(r *ChatStreamRequest) { r.RequestID = "not-a-uuid" }},
		{"zero timestamp", func(r *ChatStreamRequest) { r.CreatedAt = 0 }},
		{"empty message", func(r *ChatStreamRequest) { r.Message = "" }},
		{"oversized message", func(r *ChatStreamRequest) {
			r.Message = strings.Repeat("a", MaxMessageContentBytes+1)
		}},
		{"unknown language", func(r *ChatStreamRequest) { r.Language = "fr" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validChatStreamRequest()
			tt.mutate(&req)
			assert.Error(t, req.Validate())
		})
	}
}

func TestChatStreamRequest_Validate_MessageAtLimit(t *testing.T) {
	req := validChatStreamRequest()
	req.Message = strings.Repeat("a", MaxMessageContentBytes)
	assert.NoError(t, req.Validate())
}

func TestChatStreamRequest_Validate_OptionalFieldsEmpty(t *testing.T) {
	req := validChatStreamRequest()
	req.SessionID = ""
	req.Language = ""
	req.DomainFilter = ""
	assert.NoError(t, req.Validate())
}

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		input string
		want  Language
	}{
		{"en", LanguageEnglish},
		{"EN", LanguageEnglish},
		{"hi", LanguageHindi},
		{"Hindi", LanguageHindi},
		{" hi ", LanguageHindi},
		{"", LanguageEnglish},
		{"fr", LanguageEnglish},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLanguage(tt.input), "input %q", tt.input)
	}
}
