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

func TestDocumentJobStatus_IsTerminal(t *testing.T) {
	assert.False(t, DocumentUploading.IsTerminal())
	assert.False(t, DocumentProcessing.IsTerminal())
	assert.True(t, DocumentCompleted.IsTerminal())
	assert.True(t, DocumentError.IsTerminal())
}

func TestDocumentStatusResponse_Validate(t *testing.T) {
	tests := []struct {
		name    string
		resp    DocumentStatusResponse
		wantErr bool
	}{
		{"processing", DocumentStatusResponse{Status: DocumentProcessing, Progress: 40}, false},
		{"completed with summary", DocumentStatusResponse{
			Status:   DocumentCompleted,
			Progress: 100,
			Summary: &DocumentSummary{
				Summary:       "Lease deed with a 24-month lock-in.",
				CitedSections: []CitedSection{{Act: "Transfer of Property Act, 1882", Section: "107"}},
			},
		}, false},
		{"error with message", DocumentStatusResponse{Status: DocumentError, Error: "ocr failed"}, false},
		{"missing status", DocumentStatusResponse{Progress: 10}, true},
		{"unknown status", DocumentStatusResponse{Status: "paused"}, true},
		{"progress above range", DocumentStatusResponse{Status: DocumentProcessing, Progress: 101}, true},
		{"progress below range", DocumentStatusResponse{Status: DocumentProcessing, Progress: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.resp.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDocumentUploadResponse_Validate(t *testing.T) {
	assert.NoError(t, (&DocumentUploadResponse{DocumentID: "doc-1"}).Validate())
	assert.Error(t, (&DocumentUploadResponse{}).Validate())
}

// The status endpoint nests cited sections under summary; make sure the
// snake_case fields land where the client model expects them.
func TestDocumentStatusResponse_DecodeWire(t *testing.T) {
	body := `{
		"status": "completed",
		"progress": 100,
		"summary": {
			"summary": "Sale agreement; stamp duty unpaid.",
			"cited_sections": [{"act": "Indian Stamp Act, 1899", "section": "3"}]
		}
	}`

	var resp DocumentStatusResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	require.NoError(t, resp.Validate())

	require.NotNil(t, resp.Summary)
	assert.Equal(t, "Sale agreement; stamp duty unpaid.", resp.Summary.Summary)
	require.Len(t, resp.Summary.CitedSections, 1)
	assert.Equal(t, "Indian Stamp Act, 1899", resp.Summary.CitedSections[0].Act)
	assert.Equal(t, "3", resp.Summary.CitedSections[0].Section)
}

func TestDocumentJob_ApplyStatus(t *testing.T) {
	job := DocumentJob{ID: "doc-1", Filename: "lease.pdf", Status: DocumentProcessing, Progress: 10}

	job.ApplyStatus(&DocumentStatusResponse{
		Status:   DocumentCompleted,
		Progress: 100,
		Summary:  &DocumentSummary{Summary: "done"},
	})

	assert.Equal(t, DocumentCompleted, job.Status)
	assert.Equal(t, 100, job.Progress)
	require.NotNil(t, job.Summary)
	assert.Empty(t, job.ErrorMessage)
	assert.NotZero(t, job.UpdatedAt)
}

func TestDocumentJob_ApplyStatus_ErrorClearsSummary(t *testing.T) {
	job := DocumentJob{ID: "doc-1", Status: DocumentProcessing, Summary: &DocumentSummary{Summary: "stale"}}

	job.ApplyStatus(&DocumentStatusResponse{Status: DocumentError, Error: "parse failure"})

	assert.Equal(t, DocumentError, job.Status)
	assert.Nil(t, job.Summary)
	assert.Equal(t, "parse failure", job.ErrorMessage)
}
