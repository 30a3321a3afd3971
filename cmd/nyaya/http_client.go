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
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// HTTPClient abstracts the HTTP operations used by the backend services.
//
// # Description
//
// This interface exists so services can be tested with mock clients that
// return canned responses without network access. The production
// implementation is a thin wrapper over net/http.
//
// # Outputs
//
// All methods return the raw *http.Response; the caller owns Body and must
// close it.
//
// # Assumptions
//
//   - Implementations honor context cancellation
//   - Implementations do not retry; retry policy belongs to the caller
type HTTPClient interface {
	// Get performs an HTTP GET request.
	Get(ctx context.Context, url string) (*http.Response, error)

	// Post performs an HTTP POST request with the given body.
	Post(ctx context.Context, url, contentType string, body io.Reader) (*http.Response, error)

	// PostMultipart uploads a local file as a multipart/form-data POST,
	// with the file under the given form field name.
	PostMultipart(ctx context.Context, url, fieldName, filePath string) (*http.Response, error)

	// Delete performs an HTTP DELETE request.
	Delete(ctx context.Context, url string) (*http.Response, error)
}

// defaultHTTPClient is the production HTTPClient backed by net/http.
//
// No client-level timeout: an http.Client Timeout covers streaming body
// reads, and agent pipelines can legitimately take as long as they need on
// research queries. Lifetime control is the caller's context; only the
// dial is bounded.
type defaultHTTPClient struct {
	client *http.Client
}

func newDefaultHTTPClient() HTTPClient {
	return &defaultHTTPClient{
		client: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: 30 * time.Second}).DialContext,
			},
		},
	}
}

func (c *defaultHTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return c.client.Do(req)
}

func (c *defaultHTTPClient) Post(ctx context.Context, url, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	return c.client.Do(req)
}

func (c *defaultHTTPClient) PostMultipart(ctx context.Context, url, fieldName, filePath string) (*http.Response, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	// The multipart body is buffered in a pipe so large documents never
	// need to fit in memory.
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		part, err := writer.CreateFormFile(fieldName, filepath.Base(filePath))
		if err != nil {
			pw.CloseWithError(fmt.Errorf("create form file: %w", err))
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			pw.CloseWithError(fmt.Errorf("copy file: %w", err))
			return
		}
		pw.CloseWithError(writer.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, pr)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return c.client.Do(req)
}

func (c *defaultHTTPClient) Delete(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return c.client.Do(req)
}

var _ HTTPClient = (*defaultHTTPClient)(nil)
