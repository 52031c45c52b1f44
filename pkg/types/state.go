// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Status is the lifecycle state of one paper within a batch run.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusSkipped    Status = "skipped"
	StatusError      Status = "error"
)

// ProcessingState tracks one paper's progress through a batch run. It is
// created at enqueue time and mutated only by the orchestrator; it is not
// persisted across runs (a crash mid-paper reprocesses that paper).
type ProcessingState struct {
	// Status is the paper's current lifecycle state.
	Status Status

	// Attempts counts how many times processing was started for the paper.
	Attempts int

	// LastError is the human-readable reason for the most recent failure.
	LastError string
}
