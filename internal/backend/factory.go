// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"time"

	"go.uber.org/zap"
)

// Options configures the HTTP implementation.
type Options struct {
	Endpoints Endpoints
	// Timeout bounds every request; zero means 60 seconds.
	Timeout time.Duration
	// Version is reported in the User-Agent header.
	Version string
	Logger  *zap.Logger
}

// New creates a backend API implementation talking to baseURL.
// Returns HTTP client (real backend).
func New(baseURL string, opts Options) API {
	return newHTTP(baseURL, opts)
}
