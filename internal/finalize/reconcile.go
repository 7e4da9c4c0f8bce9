package finalize

import (
	"cifinalize/internal/oracle"
)

// Reconciler decides whether a pending entry is already satisfied by the
// installed state captured at the start of the run.
type Reconciler struct {
	installed *oracle.Installed
	finalized map[uint64]struct{}
}

// NewReconciler wraps a snapshot of installed state.
func NewReconciler(installed *oracle.Installed) *Reconciler {
	return &Reconciler{installed: installed, finalized: make(map[uint64]struct{})}
}

// Satisfied reports whether titleID has an installed ticket, is an installed
// title, or was already finalized earlier in this run.
func (r *Reconciler) Satisfied(titleID uint64) bool {
	if r.installed.HasTicket(titleID) || r.installed.HasTitle(titleID) {
		return true
	}
	_, ok := r.finalized[titleID]
	return ok
}

// MarkFinalized records that titleID received its ticket during this run, so
// a duplicate entry later in the file is skipped.
func (r *Reconciler) MarkFinalized(titleID uint64) {
	r.finalized[titleID] = struct{}{}
}
