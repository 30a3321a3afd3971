// Copyright (C) 2026 Nyaya AI (contact@nyayaai.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validation provides input validation utilities for security-critical operations.
//
// This package contains validators for user-provided inputs that are used
// in URL paths or file operations. Using these validators prevents
// injection attacks (path traversal, URL manipulation).
package validation

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// sessionIDPattern matches valid session identifiers.
// Allows: letters, digits, hyphens, underscores. Max length: 64.
// The backend issues UUID-style ids; this is deliberately wider so
// forward-compatible id schemes keep working, while still excluding
// every character with URL or path semantics.
var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_\-]{0,63}$`)

// documentExtensions is the allowlist of uploadable document types.
var documentExtensions = map[string]struct{}{
	".pdf":  {},
	".docx": {},
	".txt":  {},
	".md":   {},
}

// ValidateSessionID validates a session identifier before it is used in
// a URL path.
//
// Valid session ids:
//   - 1-64 characters
//   - Letters, digits, hyphens, underscores
//   - Must start with a letter or digit
//
// Returns an error if the id is invalid.
//
// Example:
//
//	if err := validation.ValidateSessionID(id); err != nil {
//	    return fmt.Errorf("invalid session id: %w", err)
//	}
//	// Safe to interpolate into the request path
func ValidateSessionID(id string) error {
	if id == "" {
		return fmt.Errorf("session id cannot be empty")
	}

	if strings.Contains(id, "..") || strings.ContainsAny(id, "/\\") {
		return fmt.Errorf("session id contains path characters: %q", id)
	}

	if !sessionIDPattern.MatchString(id) {
		return fmt.Errorf("invalid session id format: %q (must be 1-64 alphanumeric chars, hyphens, or underscores)", id)
	}

	return nil
}

// ValidateDocumentID validates a document job identifier before it is
// used in a URL path. Same character rules as session ids.
func ValidateDocumentID(id string) error {
	if err := ValidateSessionID(id); err != nil {
		return fmt.Errorf("document id: %w", err)
	}
	return nil
}

// ValidateDocumentPath validates a local file path before upload.
//
// Checks:
//   - Path is non-empty
//   - Extension is on the document allowlist (.pdf, .docx, .txt, .md)
//
// Existence and readability are the caller's concern; this validator only
// rejects inputs that could never be a legal document.
func ValidateDocumentPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("document path cannot be empty")
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return fmt.Errorf("document has no file extension: %q", path)
	}
	if _, ok := documentExtensions[ext]; !ok {
		return fmt.Errorf("unsupported document type %q (supported: pdf, docx, txt, md)", ext)
	}

	return nil
}

// SanitizeSessionID normalizes and validates a session id. Returns the
// trimmed id if valid, or an error if invalid.
func SanitizeSessionID(id string) (string, error) {
	normalized := strings.TrimSpace(id)
	if err := ValidateSessionID(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}
