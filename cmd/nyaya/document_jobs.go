// Copyright (C) 2026 Nyaya AI (contact@nyayaai.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package main contains the Nyaya CLI document job tracking.
//
// This file defines the DocumentJobTracker: multipart upload of legal
// documents plus background status polling, one poller goroutine per
// active job. Pollers stop on their own when a job reaches a terminal
// state and are torn down eagerly on Remove and Close.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/NyayaAI/NyayaLocal/pkg/datatypes"
	"github.com/NyayaAI/NyayaLocal/pkg/validation"
)

// DefaultPollInterval is the document status poll cadence when the caller
// does not specify one.
const DefaultPollInterval = 2 * time.Second

// JobUpdateFunc observes job state changes. Called outside the tracker
// lock; implementations may call back into the tracker.
type JobUpdateFunc func(job datatypes.DocumentJob)

// DocumentJobTracker manages document-analysis jobs.
//
// # Description
//
// Submit uploads a document and registers a job; a per-job goroutine then
// polls GET /v1/documents/{id}/status until the job reaches a terminal
// state (completed or error). A failed poll (network error, non-200,
// undecodable body) moves the job to the error state and stops the poller.
// Observers registered with OnUpdate receive every observed state change.
//
// # Thread Safety
//
// All methods are safe for concurrent use.
//
// # Limitations
//
//   - Job state is in-memory only; it does not survive process restarts
//   - A poll result for a removed job is discarded, never resurrected
type DocumentJobTracker interface {
	// Submit uploads the file at path and starts tracking its analysis.
	//
	// On upload failure the returned job carries the error state (with a
	// locally generated id) and no poller is started; the error is also
	// returned so callers can report it.
	Submit(ctx context.Context, path string) (datatypes.DocumentJob, error)

	// Jobs returns a snapshot of all tracked jobs.
	Jobs() []datatypes.DocumentJob

	// Job returns a snapshot of one tracked job.
	Job(id string) (datatypes.DocumentJob, bool)

	// Remove stops the job's poller and forgets the job.
	Remove(id string)

	// OnUpdate registers an observer for job state changes.
	OnUpdate(fn JobUpdateFunc)

	// Close stops every poller and waits for them to exit. The tracker
	// rejects new submissions afterwards.
	Close() error
}

// =============================================================================
// Implementation
// =============================================================================

// jobPoller owns the stop signal for one polling goroutine. Stop is safe
// to call from multiple paths (terminal state, Remove, Close).
type jobPoller struct {
	stop     chan struct{}
	stopOnce sync.Once
}

func (p *jobPoller) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
}

type documentJobTracker struct {
	client       HTTPClient
	baseURL      string
	pollInterval time.Duration

	mu       sync.Mutex
	jobs     map[string]*datatypes.DocumentJob
	pollers  map[string]*jobPoller
	onUpdate []JobUpdateFunc
	closed   bool

	wg sync.WaitGroup
}

// NewDocumentJobTracker creates a tracker with the production HTTP client.
func NewDocumentJobTracker(baseURL string, pollInterval time.Duration) DocumentJobTracker {
	return NewDocumentJobTrackerWithClient(newDefaultHTTPClient(), baseURL, pollInterval)
}

// NewDocumentJobTrackerWithClient creates a tracker with an injected HTTP
// client for testing.
func NewDocumentJobTrackerWithClient(client HTTPClient, baseURL string, pollInterval time.Duration) DocumentJobTracker {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &documentJobTracker{
		client:       client,
		baseURL:      baseURL,
		pollInterval: pollInterval,
		jobs:         make(map[string]*datatypes.DocumentJob),
		pollers:      make(map[string]*jobPoller),
	}
}

func (t *documentJobTracker) Submit(ctx context.Context, path string) (datatypes.DocumentJob, error) {
	filename := filepath.Base(path)

	if err := validation.ValidateDocumentPath(path); err != nil {
		return datatypes.DocumentJob{}, err
	}

	// The job is tracked under a local id from the moment the upload
	// starts, so the uploading state is observable; the backend-assigned
	// id takes over once the upload response arrives.
	localID := uuid.New().String()
	job := &datatypes.DocumentJob{
		ID:        localID,
		Filename:  filename,
		Status:    datatypes.DocumentUploading,
		UpdatedAt: datatypes.NowMillis(),
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return datatypes.DocumentJob{}, fmt.Errorf("tracker is closed")
	}
	t.jobs[localID] = job
	snapshot := *job
	t.mu.Unlock()

	t.notify(snapshot)

	uploadURL := fmt.Sprintf("%s/v1/documents", t.baseURL)

	resp, err := t.client.PostMultipart(ctx, uploadURL, "file", path)
	if err != nil {
		return t.recordFailedUpload(localID, fmt.Errorf("upload: %w", err))
	}
	defer closeBody(resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return t.recordFailedUpload(localID,
			fmt.Errorf("upload failed (status %d): %s", resp.StatusCode, string(bodyBytes)))
	}

	var uploadResp datatypes.DocumentUploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&uploadResp); err != nil {
		return t.recordFailedUpload(localID, fmt.Errorf("parse upload response: %w", err))
	}
	if err := uploadResp.Validate(); err != nil {
		return t.recordFailedUpload(localID, fmt.Errorf("invalid upload response: %w", err))
	}

	poller := &jobPoller{stop: make(chan struct{})}

	t.mu.Lock()
	current, tracked := t.jobs[localID]
	if t.closed || !tracked {
		// Closed or removed while the upload was in flight.
		delete(t.jobs, localID)
		t.mu.Unlock()
		return datatypes.DocumentJob{}, fmt.Errorf("tracker is closed")
	}
	delete(t.jobs, localID)
	current.ID = uploadResp.DocumentID
	current.Status = datatypes.DocumentProcessing
	current.UpdatedAt = datatypes.NowMillis()
	t.jobs[current.ID] = current
	t.pollers[current.ID] = poller
	snapshot = *current
	t.mu.Unlock()

	slog.Info("document uploaded",
		"document_id", snapshot.ID,
		"filename", filename,
	)

	t.notify(snapshot)

	t.wg.Add(1)
	go t.pollLoop(snapshot.ID, poller)

	return snapshot, nil
}

// recordFailedUpload moves the tracked job to the error state so the
// failure stays visible in job listings. No poller is started for it.
func (t *documentJobTracker) recordFailedUpload(id string, cause error) (datatypes.DocumentJob, error) {
	t.mu.Lock()
	job, ok := t.jobs[id]
	if !ok {
		// Removed during the upload; nothing left to report on.
		t.mu.Unlock()
		return datatypes.DocumentJob{}, cause
	}
	job.Status = datatypes.DocumentError
	job.ErrorMessage = cause.Error()
	job.UpdatedAt = datatypes.NowMillis()
	snapshot := *job
	t.mu.Unlock()

	slog.Error("document upload failed",
		"filename", snapshot.Filename,
		"error", cause,
	)

	t.notify(snapshot)

	return snapshot, cause
}

// pollLoop polls one job's status until it reaches a terminal state or the
// poller is stopped.
func (t *documentJobTracker) pollLoop(id string, poller *jobPoller) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-poller.stop:
			return
		case <-ticker.C:
			if terminal := t.pollStep(id); terminal {
				t.detachPoller(id, poller)
				return
			}
		}
	}
}

// pollStep performs one status request. Returns true when polling should
// end: terminal state reached, job removed, or the poll itself failed. A
// failed poll moves the job to the error state rather than retrying; an
// orphaned poller retrying forever would never surface the problem.
func (t *documentJobTracker) pollStep(id string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	statusURL := fmt.Sprintf("%s/v1/documents/%s/status", t.baseURL, url.PathEscape(id))

	resp, err := t.client.Get(ctx, statusURL)
	if err != nil {
		return t.failJob(id, fmt.Errorf("status poll: %w", err))
	}
	defer closeBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return t.failJob(id, fmt.Errorf("status poll (status %d)", resp.StatusCode))
	}

	var status datatypes.DocumentStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return t.failJob(id, fmt.Errorf("parse status response: %w", err))
	}
	if err := status.Validate(); err != nil {
		return t.failJob(id, fmt.Errorf("invalid status response: %w", err))
	}

	t.mu.Lock()
	job, ok := t.jobs[id]
	if !ok {
		// Removed while the request was in flight; discard the result.
		t.mu.Unlock()
		return true
	}
	job.ApplyStatus(&status)
	snapshot := *job
	t.mu.Unlock()

	t.notify(snapshot)

	return snapshot.Status.IsTerminal()
}

// failJob moves a job to the error state with the captured message and
// tells the poll loop to stop. A job removed in the meantime is left alone.
func (t *documentJobTracker) failJob(id string, cause error) bool {
	t.mu.Lock()
	job, ok := t.jobs[id]
	if !ok {
		t.mu.Unlock()
		return true
	}
	job.Status = datatypes.DocumentError
	job.ErrorMessage = cause.Error()
	job.UpdatedAt = datatypes.NowMillis()
	snapshot := *job
	t.mu.Unlock()

	slog.Error("document status poll failed",
		"document_id", id,
		"error", cause,
	)

	t.notify(snapshot)

	return true
}

// detachPoller removes the poller entry once its loop has decided to end.
func (t *documentJobTracker) detachPoller(id string, poller *jobPoller) {
	poller.Stop()

	t.mu.Lock()
	if current, ok := t.pollers[id]; ok && current == poller {
		delete(t.pollers, id)
	}
	t.mu.Unlock()
}

func (t *documentJobTracker) Jobs() []datatypes.DocumentJob {
	t.mu.Lock()
	defer t.mu.Unlock()

	jobs := make([]datatypes.DocumentJob, 0, len(t.jobs))
	for _, job := range t.jobs {
		jobs = append(jobs, *job)
	}
	return jobs
}

func (t *documentJobTracker) Job(id string) (datatypes.DocumentJob, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, ok := t.jobs[id]
	if !ok {
		return datatypes.DocumentJob{}, false
	}
	return *job, true
}

func (t *documentJobTracker) Remove(id string) {
	t.mu.Lock()
	poller := t.pollers[id]
	delete(t.pollers, id)
	delete(t.jobs, id)
	t.mu.Unlock()

	if poller != nil {
		poller.Stop()
	}
}

func (t *documentJobTracker) OnUpdate(fn JobUpdateFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onUpdate = append(t.onUpdate, fn)
}

// notify delivers a job snapshot to all observers, outside the lock.
func (t *documentJobTracker) notify(job datatypes.DocumentJob) {
	t.mu.Lock()
	observers := make([]JobUpdateFunc, len(t.onUpdate))
	copy(observers, t.onUpdate)
	t.mu.Unlock()

	for _, fn := range observers {
		fn(job)
	}
}

func (t *documentJobTracker) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	pollers := make([]*jobPoller, 0, len(t.pollers))
	for _, p := range t.pollers {
		pollers = append(pollers, p)
	}
	t.pollers = make(map[string]*jobPoller)
	t.mu.Unlock()

	for _, p := range pollers {
		p.Stop()
	}
	t.wg.Wait()

	return nil
}

// =============================================================================
// Compile-time Interface Check
// =============================================================================

var _ DocumentJobTracker = (*documentJobTracker)(nil)
