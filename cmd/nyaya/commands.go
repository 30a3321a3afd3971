// Copyright (C) 2026 Nyaya AI (contact@nyayaai.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/spf13/cobra"

	"github.com/NyayaAI/NyayaLocal/pkg/ux"
)

// --- Global Command Variables ---
var (
	chatLanguage     string // Preferred answer language (en/hi)
	domainFilter     string // Restrict retrieval to one legal domain
	pollIntervalSecs int    // Document status poll interval
	waitForAnalysis  bool   // Block until document jobs reach a terminal state
	personalityLevel string // UX personality level (full/standard/minimal/machine)

	rootCmd = &cobra.Command{
		Use:   "nyaya",
		Short: "A cli for the Nyaya legal research assistant",
		Long: `Nyaya is a terminal client for the Nyaya legal research backend.
				It streams answers from the agent pipeline, manages conversation
				sessions, and tracks document analysis jobs.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Initialize UX personality from flag or environment
			if personalityLevel != "" {
				ux.SetPersonalityLevel(ux.ParsePersonalityLevel(personalityLevel))
			} else {
				ux.InitPersonality()
			}
		},
	}

	// --- Chat ---
	chatCmd = &cobra.Command{
		Use:   "chat",
		Short: "Starts an interactive legal research chat session",
		Run:   runChatCommand, // Defined in cmd_chat.go
	}

	askCmd = &cobra.Command{
		Use:   "ask [question]",
		Short: "Asks a single question and prints the streamed answer",
		Run:   runAskCommand, // Defined in cmd_chat.go
	}

	// --- Sessions ---
	sessionCmd = &cobra.Command{
		Use:   "session",
		Short: "Manage conversation sessions",
	}
	listSessionsCmd = &cobra.Command{
		Use:   "list",
		Short: "List all conversation sessions",
		Run:   runListSessions, // Defined in cmd_sessions.go
	}
	historySessionCmd = &cobra.Command{
		Use:   "history [session_id]",
		Short: "Print the full history of a conversation session",
		Args:  cobra.ExactArgs(1),
		Run:   runSessionHistory, // Defined in cmd_sessions.go
	}
	deleteSessionCmd = &cobra.Command{
		Use:   "delete [session_id]",
		Short: "Delete a specific conversation session",
		Args:  cobra.ExactArgs(1),
		Run:   runDeleteSession, // Defined in cmd_sessions.go
	}

	// --- Documents ---
	documentsCmd = &cobra.Command{
		Use:   "documents",
		Short: "Upload and track legal document analysis jobs",
	}
	uploadDocumentCmd = &cobra.Command{
		Use:   "upload [path...]",
		Short: "Upload documents (pdf, docx, txt, md) for analysis",
		Args:  cobra.MinimumNArgs(1),
		Run:   runUploadDocuments, // Defined in cmd_documents.go
	}
	documentStatusCmd = &cobra.Command{
		Use:   "status [document_id]",
		Short: "Check the analysis status of an uploaded document",
		Args:  cobra.ExactArgs(1),
		Run:   runDocumentStatus, // Defined in cmd_documents.go
	}
)

// init runs when the Go program starts
func init() {
	// Global UX personality flag
	rootCmd.PersistentFlags().StringVar(&personalityLevel, "personality", "",
		"Output style: full (default), standard, minimal, or machine (scripting)")

	// chat commands
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().String("resume", "", "Resume a conversation using a specific session ID.")
	chatCmd.Flags().StringVar(&chatLanguage, "language", "", "Preferred answer language: en (default) or hi")
	chatCmd.Flags().StringVar(&domainFilter, "domain", "", "Restrict retrieval to one legal domain (e.g., 'property', 'criminal')")

	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVar(&chatLanguage, "language", "", "Preferred answer language: en (default) or hi")
	askCmd.Flags().StringVar(&domainFilter, "domain", "", "Restrict retrieval to one legal domain")

	// session commands
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(listSessionsCmd)
	sessionCmd.AddCommand(historySessionCmd)
	sessionCmd.AddCommand(deleteSessionCmd)
	deleteSessionCmd.Flags().Bool("force", false, "Delete without the confirmation prompt.")

	// document commands
	rootCmd.AddCommand(documentsCmd)
	documentsCmd.AddCommand(uploadDocumentCmd)
	uploadDocumentCmd.Flags().BoolVar(&waitForAnalysis, "wait", false, "Wait for analysis to finish and print the summary")
	uploadDocumentCmd.Flags().IntVar(&pollIntervalSecs, "poll-interval", 2, "Status poll interval in seconds")
	documentsCmd.AddCommand(documentStatusCmd)
	documentStatusCmd.Flags().BoolVar(&waitForAnalysis, "wait", false, "Poll until the job reaches a terminal state")
	documentStatusCmd.Flags().IntVar(&pollIntervalSecs, "poll-interval", 2, "Status poll interval in seconds")
}
