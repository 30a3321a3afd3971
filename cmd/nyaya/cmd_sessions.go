// Copyright (C) 2026 Nyaya AI (contact@nyayaai.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/NyayaAI/NyayaLocal/pkg/datatypes"
	"github.com/NyayaAI/NyayaLocal/pkg/ux"
)

func runListSessions(cmd *cobra.Command, args []string) {
	baseURL := getBackendBaseURL()
	store := NewSessionHistoryStore(baseURL)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sessions, err := store.List(ctx)
	if err != nil {
		log.Fatalf("Error listing sessions: %v", err)
	}

	if ux.GetPersonality().Level == ux.PersonalityMachine {
		for _, s := range sessions {
			fmt.Printf("SESSION: %s\t%d\t%s\n", s.SessionID, s.Timestamp, s.Title)
		}
		return
	}

	if len(sessions) == 0 {
		ux.Info("No saved sessions.")
		return
	}

	ux.Title("Saved Sessions")
	for i, s := range sessions {
		when := time.UnixMilli(s.Timestamp).Format("2006-01-02 15:04")
		fmt.Printf("  %d. %s  %s\n", i+1, ux.Styles.Bold.Render(s.Title), ux.Styles.Muted.Render(when+"  "+s.SessionID))
	}
	fmt.Println()

	// Offer the action menu only on a real terminal
	if !ux.IsInteractive() {
		return
	}
	if err := runSessionActionsMenu(sessions); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// runSessionActionsMenu lets the user pick a session and act on it.
func runSessionActionsMenu(sessions []datatypes.SessionInfo) error {
	options := make([]huh.Option[string], 0, len(sessions)+1)
	for _, s := range sessions {
		options = append(options, huh.NewOption(s.Title+" ("+s.SessionID+")", s.SessionID))
	}
	options = append(options, huh.NewOption("(back)", ""))

	var sessionID string
	if err := huh.NewSelect[string]().
		Title("Select a session").
		Options(options...).
		Value(&sessionID).
		Run(); err != nil {
		return fmt.Errorf("select session: %w", err)
	}
	if sessionID == "" {
		return nil
	}

	var action string
	if err := huh.NewSelect[string]().
		Title("What do you want to do?").
		Options(
			huh.NewOption("Resume this conversation", "resume"),
			huh.NewOption("Show history", "history"),
			huh.NewOption("Delete", "delete"),
			huh.NewOption("(back)", ""),
		).
		Value(&action).
		Run(); err != nil {
		return fmt.Errorf("select action: %w", err)
	}

	switch action {
	case "resume":
		runner := NewSessionChatRunner(SessionChatRunnerConfig{
			BaseURL:         getBackendBaseURL(),
			ResumeSessionID: sessionID,
			Language:        resolveLanguage(),
		})
		defer runner.Close()
		if err := runner.Run(context.Background()); err != nil && err != context.Canceled {
			return err
		}
	case "history":
		printSessionHistory(sessionID)
	case "delete":
		return deleteSessionWithConfirm(sessionID, false)
	}
	return nil
}

func runSessionHistory(cmd *cobra.Command, args []string) {
	printSessionHistory(args[0])
}

func printSessionHistory(sessionID string) {
	baseURL := getBackendBaseURL()
	store := NewSessionHistoryStore(baseURL)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	history, err := store.History(ctx, sessionID)
	if err != nil {
		log.Fatalf("Error fetching history: %v", err)
	}

	machine := ux.GetPersonality().Level == ux.PersonalityMachine

	for _, msg := range history.Messages {
		if machine {
			fmt.Printf("%s: %s\n", msg.Role, msg.Content)
			continue
		}
		switch msg.Role {
		case datatypes.RoleUser:
			fmt.Printf("> %s\n", ux.Styles.Bold.Render(msg.Content))
		case datatypes.RoleAssistant:
			fmt.Printf("%s\n", msg.Content)
			if msg.ContentHi != "" {
				fmt.Println(ux.Styles.Muted.Render(msg.ContentHi))
			}
			fmt.Println()
		}
	}
}

func runDeleteSession(cmd *cobra.Command, args []string) {
	force, _ := cmd.Flags().GetBool("force")
	if err := deleteSessionWithConfirm(args[0], force); err != nil {
		log.Fatalf("Error deleting session: %v", err)
	}
}

// deleteSessionWithConfirm deletes a session, asking first unless forced
// or running non-interactively.
func deleteSessionWithConfirm(sessionID string, force bool) error {
	if !force && ux.IsInteractive() {
		var confirmed bool
		if err := huh.NewConfirm().
			Title(fmt.Sprintf("Delete session %s and its history?", sessionID)).
			Value(&confirmed).
			Run(); err != nil {
			return fmt.Errorf("confirm delete: %w", err)
		}
		if !confirmed {
			ux.Muted("Delete cancelled.")
			return nil
		}
	}

	baseURL := getBackendBaseURL()
	store := NewSessionHistoryStore(baseURL)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := store.Delete(ctx, sessionID); err != nil {
		return err
	}

	ux.Success(fmt.Sprintf("Session %s deleted.", sessionID))
	return nil
}
