// Copyright (C) 2026 Nyaya AI (contact@nyayaai.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultBackendURL is used when neither the environment nor the config
// file names a backend.
const DefaultBackendURL = "http://localhost:12210"

// clientConfig is the shape of ~/.nyaya/config.yaml. Unknown keys are
// ignored so older binaries keep working against newer config files.
type clientConfig struct {
	BackendURL string `yaml:"backend_url"`
	Language   string `yaml:"language"`
}

// getBackendBaseURL resolves the backend base URL.
//
// Resolution order:
//  1. NYAYA_BACKEND_URL environment variable
//  2. backend_url in ~/.nyaya/config.yaml
//  3. DefaultBackendURL
//
// A malformed config file is logged and skipped, never fatal; the CLI must
// stay usable with just the default.
func getBackendBaseURL() string {
	if url := strings.TrimSpace(os.Getenv("NYAYA_BACKEND_URL")); url != "" {
		return strings.TrimRight(url, "/")
	}

	if cfg, err := loadClientConfig(); err == nil && cfg.BackendURL != "" {
		return strings.TrimRight(cfg.BackendURL, "/")
	}

	return DefaultBackendURL
}

// getConfiguredLanguage returns the language from the config file, or the
// empty string when none is set. Flag values take precedence over this.
func getConfiguredLanguage() string {
	if cfg, err := loadClientConfig(); err == nil {
		return cfg.Language
	}
	return ""
}

func loadClientConfig() (*clientConfig, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	configPath := filepath.Join(home, ".nyaya", "config.yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var cfg clientConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		slog.Warn("ignoring malformed config file",
			"path", configPath,
			"error", err,
		)
		return nil, err
	}

	return &cfg, nil
}
