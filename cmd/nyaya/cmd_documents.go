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
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/NyayaAI/NyayaLocal/pkg/datatypes"
	"github.com/NyayaAI/NyayaLocal/pkg/ux"
	"github.com/NyayaAI/NyayaLocal/pkg/validation"
)

func runUploadDocuments(cmd *cobra.Command, args []string) {
	baseURL := getBackendBaseURL()
	interval := time.Duration(pollIntervalSecs) * time.Second

	tracker := NewDocumentJobTracker(baseURL, interval)
	defer tracker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	// Subscribe before submitting so no transition is missed.
	updates := make(chan datatypes.DocumentJob, 64)
	if waitForAnalysis {
		tracker.OnUpdate(func(job datatypes.DocumentJob) {
			select {
			case updates <- job:
			default:
				// Slow consumer; the final state is still read from the
				// tracker snapshot below.
			}
		})
	}

	// Uploads run in parallel; each failure is recorded as an error-state
	// job so it shows up in the summary below.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, path := range args {
		g.Go(func() error {
			_, err := tracker.Submit(gctx, path)
			return err
		})
	}
	uploadErr := g.Wait()

	if waitForAnalysis {
		waitForDocumentJobs(ctx, tracker, updates)
	}

	failed := printDocumentJobSummary(tracker.Jobs())

	if uploadErr != nil || failed > 0 {
		os.Exit(1)
	}
}

// waitForDocumentJobs blocks until every tracked job reaches a terminal
// state, the context is cancelled, or the overall deadline passes.
func waitForDocumentJobs(ctx context.Context, tracker DocumentJobTracker, updates <-chan datatypes.DocumentJob) {
	spinner := ux.NewSpinner("Analyzing documents...")
	spinner.Start()
	defer spinner.Stop()

	deadline := time.After(10 * time.Minute)
	for {
		pending := 0
		for _, job := range tracker.Jobs() {
			if !job.Status.IsTerminal() {
				pending++
			}
		}
		if pending == 0 {
			return
		}
		spinner.UpdateMessage(fmt.Sprintf("Analyzing documents... (%d pending)", pending))

		select {
		case <-ctx.Done():
			return
		case <-deadline:
			ux.Warning("Timed out waiting for analysis; jobs continue on the backend.")
			return
		case <-updates:
			// Re-check the snapshot.
		}
	}
}

// printDocumentJobSummary prints one line (or box) per job and returns the
// number of failed jobs.
func printDocumentJobSummary(jobs []datatypes.DocumentJob) int {
	machine := ux.GetPersonality().Level == ux.PersonalityMachine

	failed := 0
	for _, job := range jobs {
		if machine {
			fmt.Printf("DOCUMENT: %s\t%s\t%s\t%d\n", job.ID, job.Filename, job.Status, job.Progress)
			if job.Status == datatypes.DocumentError {
				failed++
			}
			continue
		}

		switch job.Status {
		case datatypes.DocumentError:
			failed++
			ux.Error(fmt.Sprintf("%s: %s", job.Filename, job.ErrorMessage))
		case datatypes.DocumentCompleted:
			ux.Success(fmt.Sprintf("%s analyzed (document %s)", job.Filename, job.ID))
			if job.Summary != nil {
				ux.Box(job.Filename, formatDocumentSummary(job.Summary))
			}
		default:
			ux.Info(fmt.Sprintf("%s uploaded (document %s); check progress with: nyaya documents status %s",
				job.Filename, job.ID, job.ID))
		}
	}
	return failed
}

// formatDocumentSummary renders the analysis summary with its cited
// act/section pairs.
func formatDocumentSummary(summary *datatypes.DocumentSummary) string {
	var b strings.Builder
	b.WriteString(summary.Summary)
	for _, s := range summary.CitedSections {
		b.WriteString(fmt.Sprintf("\n%s %s, Section %s", ux.IconBullet.Render(), s.Act, s.Section))
	}
	return b.String()
}

func runDocumentStatus(cmd *cobra.Command, args []string) {
	documentID := args[0]
	if err := validation.ValidateDocumentID(documentID); err != nil {
		log.Fatalf("Error: %v", err)
	}

	baseURL := getBackendBaseURL()
	client := newDefaultHTTPClient()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	status, err := fetchDocumentStatus(ctx, client, baseURL, documentID)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	if waitForAnalysis && !status.Status.IsTerminal() {
		interval := time.Duration(pollIntervalSecs) * time.Second
		if interval <= 0 {
			interval = DefaultPollInterval
		}

		spinner := ux.NewSpinner(fmt.Sprintf("Analyzing %s...", documentID))
		spinner.Start()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for !status.Status.IsTerminal() {
			select {
			case <-ctx.Done():
				spinner.Stop()
				return
			case <-ticker.C:
			}

			status, err = fetchDocumentStatus(ctx, client, baseURL, documentID)
			if err != nil {
				spinner.Stop()
				log.Fatalf("Error: %v", err)
			}
			spinner.UpdateMessage(fmt.Sprintf("Analyzing %s... %s", documentID,
				ux.ProgressBar(status.Progress, 100, 20)))
		}
		spinner.Stop()
	}

	printDocumentStatus(documentID, status)

	if status.Status == datatypes.DocumentError {
		os.Exit(1)
	}
}

// fetchDocumentStatus performs one status request and validates the body.
func fetchDocumentStatus(ctx context.Context, client HTTPClient, baseURL, documentID string) (*datatypes.DocumentStatusResponse, error) {
	reqCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	statusURL := fmt.Sprintf("%s/v1/documents/%s/status", baseURL, url.PathEscape(documentID))

	resp, err := client.Get(reqCtx, statusURL)
	if err != nil {
		return nil, fmt.Errorf("fetch status: %w", err)
	}
	defer closeBody(resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("document %s not found", documentID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch status (status %d)", resp.StatusCode)
	}

	var status datatypes.DocumentStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("parse status response: %w", err)
	}
	if err := status.Validate(); err != nil {
		return nil, fmt.Errorf("invalid status response: %w", err)
	}
	return &status, nil
}

func printDocumentStatus(documentID string, status *datatypes.DocumentStatusResponse) {
	if ux.GetPersonality().Level == ux.PersonalityMachine {
		fmt.Printf("STATUS: %s\t%s\t%d\n", documentID, status.Status, status.Progress)
		if status.Summary != nil {
			fmt.Printf("SUMMARY: %s\n", status.Summary.Summary)
		}
		if status.Error != "" {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", status.Error)
		}
		return
	}

	switch status.Status {
	case datatypes.DocumentCompleted:
		ux.Success(fmt.Sprintf("Document %s analyzed", documentID))
		if status.Summary != nil {
			ux.Box("Summary", formatDocumentSummary(status.Summary))
		}
	case datatypes.DocumentError:
		ux.Error(fmt.Sprintf("Document %s failed: %s", documentID, status.Error))
	default:
		ux.Info(fmt.Sprintf("Document %s: %s %s", documentID, status.Status,
			ux.ProgressBar(status.Progress, 100, 20)))
	}
}
