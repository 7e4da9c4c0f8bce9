package finalize

import (
	"time"
)

// Outcome summarizes how a run ended.
type Outcome string

const (
	// OutcomeCompleted means every entry was handled.
	OutcomeCompleted Outcome = "completed"
	// OutcomeNotFound means there was no pending database.
	OutcomeNotFound Outcome = "not_found"
	// OutcomeRejected means the pending database failed to load.
	OutcomeRejected Outcome = "rejected"
	// OutcomeQueryFailed means installed state could not be listed.
	OutcomeQueryFailed Outcome = "query_failed"
	// OutcomeHalted means a ticket transaction failed and the run stopped.
	OutcomeHalted Outcome = "halted"
)

// Report describes one finalize run.
type Report struct {
	RunID       string
	PendingPath string
	Outcome     Outcome
	Version     uint32
	Digest      string
	// Total is the number of entries in the pending database.
	Total         int
	Installed     []uint64
	Skipped       []uint64
	SeedsInjected []uint64
	SeedFailures  []uint64
	// FailedTitle is the title whose ticket transaction halted the run.
	FailedTitle    uint64
	PendingRemoved bool
	// CleanupError is set when the pending file could not be removed.
	CleanupError string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Duration returns the wall-clock length of the run.
func (r Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
