// Copyright (C) 2026 Nyaya AI (contact@nyayaai.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes provides wire-level data structures for the Nyaya
// backend API.
//
// This file contains the document-analysis job types: the multipart upload
// response, the polled status response, and the client-side job model.
package datatypes

// =============================================================================
// Document Job Status
// =============================================================================

// DocumentJobStatus is the lifecycle state of one document-analysis job.
//
// Transitions: uploading → processing → {completed | error}. Completed and
// error are terminal; no further transitions happen without a new upload.
type DocumentJobStatus string

const (
	DocumentUploading  DocumentJobStatus = "uploading"
	DocumentProcessing DocumentJobStatus = "processing"
	DocumentCompleted  DocumentJobStatus = "completed"
	DocumentError      DocumentJobStatus = "error"
)

// IsTerminal reports whether the status permits no further transitions.
func (s DocumentJobStatus) IsTerminal() bool {
	return s == DocumentCompleted || s == DocumentError
}

// =============================================================================
// Wire Types
// =============================================================================

// CitedSection is one act/section pair referenced by a document summary.
type CitedSection struct {
	Act     string `json:"act"`
	Section string `json:"section"`
}

// DocumentSummary is the analysis result attached to a completed job.
type DocumentSummary struct {
	Summary       string         `json:"summary"`
	CitedSections []CitedSection `json:"cited_sections,omitempty"`
}

// DocumentUploadResponse is the body returned by POST /v1/documents.
type DocumentUploadResponse struct {
	DocumentID string `json:"document_id" validate:"required"`
}

// Validate checks the upload response against its validation tags.
func (r *DocumentUploadResponse) Validate() error {
	return chatValidate.Struct(r)
}

// DocumentStatusResponse is the body returned by
// GET /v1/documents/{id}/status.
//
// Summary is present only when Status is completed; Error is present only
// when Status is error. Progress is a 0-100 percentage.
type DocumentStatusResponse struct {
	Status   DocumentJobStatus `json:"status" validate:"required,oneof=uploading processing completed error"`
	Progress int               `json:"progress" validate:"min=0,max=100"`
	Summary  *DocumentSummary  `json:"summary,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// Validate checks the status response against its validation tags.
func (r *DocumentStatusResponse) Validate() error {
	return chatValidate.Struct(r)
}

// =============================================================================
// Client-Side Job Model
// =============================================================================

// DocumentJob is the client-side view of one analysis job.
//
// Summary is non-nil only in the completed state; ErrorMessage is non-empty
// only in the error state. UpdatedAt is the Unix-millis time of the last
// observed change.
type DocumentJob struct {
	ID           string            `json:"id"`
	Filename     string            `json:"filename"`
	Status       DocumentJobStatus `json:"status"`
	Progress     int               `json:"progress"`
	Summary      *DocumentSummary  `json:"summary,omitempty"`
	ErrorMessage string            `json:"error_message,omitempty"`
	UpdatedAt    int64             `json:"updated_at"`
}

// ApplyStatus folds a polled status response into the job.
func (j *DocumentJob) ApplyStatus(resp *DocumentStatusResponse) {
	j.Status = resp.Status
	j.Progress = resp.Progress
	j.Summary = resp.Summary
	j.ErrorMessage = resp.Error
	j.UpdatedAt = NowMillis()
}
