// Copyright (C) 2026 Nyaya AI (contact@nyayaai.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/NyayaAI/NyayaLocal/pkg/datatypes"
	"github.com/NyayaAI/NyayaLocal/pkg/validation"
)

// SessionHistoryStore is the client for the persisted-session REST surface.
//
// # Description
//
// Thin wrapper over GET /v1/sessions, GET /v1/sessions/{id}/history and
// DELETE /v1/sessions/{id}. Session ids are validated before they are
// interpolated into request paths.
//
// # Assumptions
//
//   - The backend owns session persistence; this store holds no state
type SessionHistoryStore interface {
	// List returns all persisted sessions, newest first (backend order).
	List(ctx context.Context) ([]datatypes.SessionInfo, error)

	// History returns the full message history of one session.
	History(ctx context.Context, sessionID string) (*datatypes.SessionHistoryResponse, error)

	// Delete removes one session and its history.
	Delete(ctx context.Context, sessionID string) error
}

type restSessionHistoryStore struct {
	client  HTTPClient
	baseURL string
}

// NewSessionHistoryStore creates a store with the production HTTP client.
func NewSessionHistoryStore(baseURL string) SessionHistoryStore {
	return NewSessionHistoryStoreWithClient(newDefaultHTTPClient(), baseURL)
}

// NewSessionHistoryStoreWithClient creates a store with an injected HTTP
// client for testing.
func NewSessionHistoryStoreWithClient(client HTTPClient, baseURL string) SessionHistoryStore {
	return &restSessionHistoryStore{client: client, baseURL: baseURL}
}

func (s *restSessionHistoryStore) List(ctx context.Context) ([]datatypes.SessionInfo, error) {
	listURL := fmt.Sprintf("%s/v1/sessions", s.baseURL)

	resp, err := s.client.Get(ctx, listURL)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer closeBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to list sessions (status %d)", resp.StatusCode)
	}

	var list datatypes.SessionListResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("parse session list: %w", err)
	}

	return list.Sessions, nil
}

func (s *restSessionHistoryStore) History(ctx context.Context, sessionID string) (*datatypes.SessionHistoryResponse, error) {
	if err := validation.ValidateSessionID(sessionID); err != nil {
		return nil, fmt.Errorf("invalid session id: %w", err)
	}

	historyURL := fmt.Sprintf("%s/v1/sessions/%s/history", s.baseURL, url.PathEscape(sessionID))

	resp, err := s.client.Get(ctx, historyURL)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer closeBody(resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("session %q not found", sessionID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get history (status %d)", resp.StatusCode)
	}

	var history datatypes.SessionHistoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		return nil, fmt.Errorf("parse history: %w", err)
	}

	return &history, nil
}

func (s *restSessionHistoryStore) Delete(ctx context.Context, sessionID string) error {
	if err := validation.ValidateSessionID(sessionID); err != nil {
		return fmt.Errorf("invalid session id: %w", err)
	}

	deleteURL := fmt.Sprintf("%s/v1/sessions/%s", s.baseURL, url.PathEscape(sessionID))

	resp, err := s.client.Delete(ctx, deleteURL)
	if err != nil {
		return fmt.Errorf("http delete: %w", err)
	}
	defer closeBody(resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("session %q not found", sessionID)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("failed to delete session (status %d)", resp.StatusCode)
	}

	slog.Info("session deleted", "session_id", sessionID)
	return nil
}

// closeBody closes a response body and logs close failures.
func closeBody(body io.ReadCloser) {
	if err := body.Close(); err != nil {
		slog.Error("failed to close response body", "error", err)
	}
}

var _ SessionHistoryStore = (*restSessionHistoryStore)(nil)
