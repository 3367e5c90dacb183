// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package orchestrator

// Stage is the orchestrator's position in the session lifecycle.
type Stage int

const (
	// StageNoSession is the initial stage and the stage after a failed upload or a reset.
	StageNoSession Stage = iota
	// StageUploading covers the upload and the mandatory schema fetch that follows it.
	StageUploading
	// StageIdle is SessionActive with no query outstanding.
	StageIdle
	// StageQuerying is SessionActive with one query outstanding.
	StageQuerying
)

func (s Stage) String() string {
	switch s {
	case StageNoSession:
		return "no_session"
	case StageUploading:
		return "uploading"
	case StageIdle:
		return "idle"
	case StageQuerying:
		return "querying"
	default:
		return "unknown"
	}
}

// SessionActive reports whether the stage belongs to an established session.
func (s Stage) SessionActive() bool { return s == StageIdle || s == StageQuerying }

// Busy reports whether a network call is outstanding.
func (s Stage) Busy() bool { return s == StageUploading || s == StageQuerying }
