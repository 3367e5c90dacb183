// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package session holds the identity of the active backend session: an opaque
// token plus the name of the file that created it.
package session

import (
	"nlsql/cli/internal/logging"
)

// Store is absent until Set and becomes absent again on Clear. It has no locking
// of its own; the orchestrator is its only writer.
type Store struct {
	token    string
	fileName string
}

// Set records a new session. The token is never mutated afterwards, only cleared.
func (s *Store) Set(token, fileName string) {
	s.token = token
	s.fileName = fileName
}

// Clear discards the session.
func (s *Store) Clear() {
	s.token = ""
	s.fileName = ""
}

// Active reports whether a session exists.
func (s *Store) Active() bool { return s.token != "" }

// Token returns the session token, empty when absent.
func (s *Store) Token() string { return s.token }

// FileName returns the display name of the uploaded file.
func (s *Store) FileName() string { return s.fileName }

// String implements fmt.Stringer without revealing the token.
func (s *Store) String() string {
	if !s.Active() {
		return "no session"
	}
	return s.fileName + " (" + logging.MaskToken(s.token) + ")"
}
