// Copyright (C) 2026 Nyaya AI (contact@nyayaai.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"log"
	"os"

	"github.com/NyayaAI/NyayaLocal/pkg/logging"
)

func main() {
	// Warn+ on stderr keeps interactive output clean; NYAYA_DEBUG opens
	// the firehose when diagnosing stream issues.
	level := logging.LevelWarn
	if os.Getenv("NYAYA_DEBUG") != "" {
		level = logging.LevelDebug
	}

	logger := logging.New(logging.Config{
		Level:   level,
		LogDir:  os.Getenv("NYAYA_LOG_DIR"),
		Service: "nyaya-cli",
	})
	defer func() {
		if err := logger.Close(); err != nil {
			log.Printf("closing log file: %v", err)
		}
	}()
	logger.SetAsDefault()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
