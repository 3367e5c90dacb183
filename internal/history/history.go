// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package history keeps the ordered log of completed question attempts,
// newest first. Entries are immutable once recorded.
package history

import (
	"time"

	"nlsql/cli/internal/errors"
	"nlsql/cli/internal/result"
)

// NoResultMessage is recorded when a response carries neither a result nor an error.
const NoResultMessage = "No result received"

// Entry is one completed question attempt.
type Entry struct {
	Question string `json:"question"`
	// ExecutedSQL is empty when the backend ran nothing.
	ExecutedSQL string        `json:"executed_sql,omitempty"`
	Result      result.Result `json:"result"`
	// Failure is set for backend-reported, transport and unrecognized-format failures.
	Failure     errors.Kind `json:"failure,omitempty"`
	CompletedAt time.Time   `json:"completed_at"`
}

// HasSQL reports whether the backend reported executing SQL.
func (e Entry) HasSQL() bool { return e.ExecutedSQL != "" }

// Failed reports whether the entry records a failure.
func (e Entry) Failed() bool { return e.Failure != "" }

// Log is an append-to-front sequence of entries. It is not safe for concurrent
// use; the orchestrator serializes access.
type Log struct {
	entries []Entry
}

// Prepend records a copy of e as the newest entry.
func (l *Log) Prepend(e Entry) {
	e.Result = e.Result.Clone()
	l.entries = append(l.entries, Entry{})
	copy(l.entries[1:], l.entries)
	l.entries[0] = e
}

// Entries returns a deep copy of the log, newest first.
func (l *Log) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	for i, e := range l.entries {
		e.Result = e.Result.Clone()
		out[i] = e
	}
	return out
}

// Len returns the number of entries.
func (l *Log) Len() int { return len(l.entries) }

// Clear drops every entry.
func (l *Log) Clear() { l.entries = nil }
