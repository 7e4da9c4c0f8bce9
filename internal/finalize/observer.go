package finalize

import (
	"cifinalize/internal/platform"
	"cifinalize/internal/ticket"
)

// Observer receives per-entry progress for console display.
type Observer interface {
	Reading(path string)
	Finalizing(titleID uint64)
	Skipped(titleID uint64)
	TicketFailed(titleID uint64, step ticket.Step, code platform.Result)
	SeedFailed(titleID uint64, code platform.Result)
}

type nopObserver struct{}

func (nopObserver) Reading(string)                                    {}
func (nopObserver) Finalizing(uint64)                                 {}
func (nopObserver) Skipped(uint64)                                    {}
func (nopObserver) TicketFailed(uint64, ticket.Step, platform.Result) {}
func (nopObserver) SeedFailed(uint64, platform.Result)                {}
