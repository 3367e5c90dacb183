// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package errors defines typed errors with categories for user-friendly reporting.
// It provides a structured approach to error handling with machine-readable error kinds
// and human-friendly messages. Kinds let the orchestrator decide whether a failure is a
// blocking banner (file selection, upload, schema fetch) or a history entry (queries).
//
// The package supports wrapping underlying errors while maintaining error kind information,
// so callers can use the standard errors.Is / errors.As helpers on the result.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// InvalidFileType indicates the selected file does not carry the database suffix.
	InvalidFileType Kind = "invalid_file_type"
	// NoFileSelected indicates an upload was requested without a valid selection.
	NoFileSelected Kind = "no_file_selected"
	// UploadFailed indicates the backend rejected or failed to store the uploaded file.
	UploadFailed Kind = "upload_failed"
	// SchemaFetchFailed indicates the mandatory post-upload schema retrieval failed.
	SchemaFetchFailed Kind = "schema_fetch_failed"
	// EmptyQuery indicates a blank question was submitted.
	EmptyQuery Kind = "empty_query"
	// QueryBackendError indicates the backend answered a query with a structured error.
	QueryBackendError Kind = "query_backend_error"
	// NetworkError indicates no response was obtained from the backend.
	NetworkError Kind = "network_error"
	// UnrecognizedResultFormat indicates a response matched none of the known result shapes.
	UnrecognizedResultFormat Kind = "unrecognized_result_format"
	// Busy indicates another upload or query is still outstanding.
	Busy Kind = "busy"
	// NoSession indicates a query was submitted before a session was established.
	NoSession Kind = "no_session"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *E) Unwrap() error { return e.Err }

// UserMessage returns the text shown to the user, without the kind prefix.
func (e *E) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// KindOf returns the kind of the first *E in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Has reports whether any *E in err's chain carries kind, not only the outermost.
// A schema fetch that failed in transport is SchemaFetchFailed wrapping NetworkError.
func Has(err error, kind Kind) bool {
	for err != nil {
		var e *E
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}
