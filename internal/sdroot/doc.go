// Package sdroot locates the SD root a finalize run operates on and
// guards it.
//
// A run holds an advisory lock on <root>/.cifinalize.lock for its whole
// lifetime so two invocations never finalize the same card at once. Before
// a run that will delete the pending database, the root is checked for
// write access so the failure surfaces before any ticket is installed.
package sdroot
