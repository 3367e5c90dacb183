// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package backend provides interfaces and implementations for communicating with the
// natural-language SQL backend. It defines the API contract for uploading a database
// file and for running questions (or the schema sentinel) against the resulting session.
package backend

import (
	"context"
	"encoding/json"
	"io"
)

// API defines backend operations the CLI depends on.
// Implementations may call real HTTP endpoints or provide fakes for tests.
type API interface {
	// Upload sends the database bytes under the declared file name and returns
	// the session token issued by the backend.
	Upload(ctx context.Context, fileName string, body io.Reader) (token string, err error)
	// Process runs query against the session identified by token. Any HTTP response
	// is returned as a ProcessResponse; only transport failures produce an error.
	Process(ctx context.Context, token, query string) (*ProcessResponse, error)
}

// Endpoints contains the URL paths of the backend routes.
type Endpoints struct {
	Upload  string
	Process string
}

// DefaultEndpoints returns the routes served by the reference backend.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Upload:  "/upload_db/",
		Process: "/process",
	}
}

// ProcessResponse is the decoded body of a process call.
type ProcessResponse struct {
	// StatusCode is the HTTP status of the response.
	StatusCode int
	// ExecutedSQL is the SQL the backend reports having run; empty when none ran.
	ExecutedSQL string
	// Result is the raw "result" member; nil when absent or JSON null.
	Result json.RawMessage
	// Error is the top-level "error" member; empty when absent.
	Error string
	// Malformed is set when the body is not a JSON object. Body then holds the raw bytes.
	Malformed bool
	Body      []byte
}

// OK reports whether the response carried a 2xx status.
func (r *ProcessResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// HasResult reports whether the response carries a usable result.
// JSON null, false, 0 and the empty string count as absent.
func (r *ProcessResponse) HasResult() bool {
	switch string(r.Result) {
	case "", "null", `""`, "false", "0":
		return false
	}
	return true
}
