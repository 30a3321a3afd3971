// Copyright (C) 2026 Nyaya AI (contact@nyayaai.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/NyayaAI/NyayaLocal/pkg/datatypes"
)

// resolveLanguage picks the answer language: flag wins over config file.
func resolveLanguage() datatypes.Language {
	if chatLanguage != "" {
		return datatypes.ParseLanguage(chatLanguage)
	}
	return datatypes.ParseLanguage(getConfiguredLanguage())
}

func runChatCommand(cmd *cobra.Command, args []string) {
	baseURL := getBackendBaseURL()
	resumeID, _ := cmd.Flags().GetString("resume")

	runner := NewSessionChatRunner(SessionChatRunnerConfig{
		BaseURL:         baseURL,
		ResumeSessionID: resumeID,
		Language:        resolveLanguage(),
		DomainFilter:    domainFilter,
	})
	defer runner.Close()

	// Set up graceful shutdown with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	// Run the chat loop
	if err := runner.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("Chat error: %v", err)
	}
}

func runAskCommand(cmd *cobra.Command, args []string) {
	question := strings.Join(args, " ")
	if strings.TrimSpace(question) == "" {
		log.Fatal("Usage: nyaya ask [question]")
	}

	baseURL := getBackendBaseURL()

	controller := NewChatSessionController(ChatSessionControllerConfig{
		BaseURL:      baseURL,
		Language:     resolveLanguage(),
		DomainFilter: domainFilter,
	})
	defer controller.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	// The answer, references, and pipeline progress are rendered during
	// streaming; nothing more to print on success.
	if _, err := controller.SendMessage(ctx, question); err != nil && err != context.Canceled {
		log.Fatalf("Error: %v", err)
	}
}
