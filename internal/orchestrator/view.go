// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package orchestrator

import (
	"nlsql/cli/internal/history"
	"nlsql/cli/internal/schema"
)

// View is a read-only snapshot of the orchestrator state for presentation.
type View struct {
	Stage Stage
	// SelectedFile is the name of the file queued for the next upload.
	SelectedFile string
	// SessionFile is the name of the file behind the active session.
	SessionFile string
	HasSession  bool
	// Schema is nil until a schema fetch succeeds. Snapshots are immutable.
	Schema        *schema.Snapshot
	History       []history.Entry
	Uploading     bool
	QueryInFlight bool
	CanUpload     bool
	CanSubmit     bool
	QueryText     string
	// Error is the current blocking error message, empty when none.
	Error string
}
