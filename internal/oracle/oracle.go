// Package oracle answers which tickets and titles the console already has.
//
// Each listing queries a count, allocates exactly that many slots and lists
// into them. The list call may return fewer ids than the count announced
// (installed state can change in between), so results are always truncated to
// what the list call reports, clamped to the allocated buffer.
package oracle

import (
	"context"
	"fmt"

	"cifinalize/internal/platform"
)

// Oracle queries installed state from a platform.Service.
type Oracle struct {
	svc platform.Service
}

// New returns an Oracle over svc.
func New(svc platform.Service) *Oracle {
	return &Oracle{svc: svc}
}

// TicketIDs lists installed ticket title ids.
func (o *Oracle) TicketIDs(ctx context.Context) ([]uint64, error) {
	count, err := o.svc.TicketCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("count tickets: %w", err)
	}
	ids := make([]uint64, count)
	n, err := o.svc.ListTickets(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	return truncate(ids, n), nil
}

// TitleIDs lists installed title ids on media.
func (o *Oracle) TitleIDs(ctx context.Context, media platform.Media) ([]uint64, error) {
	count, err := o.svc.TitleCount(ctx, media)
	if err != nil {
		return nil, fmt.Errorf("count %s titles: %w", media, err)
	}
	ids := make([]uint64, count)
	n, err := o.svc.ListTitles(ctx, media, ids)
	if err != nil {
		return nil, fmt.Errorf("list %s titles: %w", media, err)
	}
	return truncate(ids, n), nil
}

// Snapshot gathers installed tickets and the titles on every listed medium.
func (o *Oracle) Snapshot(ctx context.Context, media ...platform.Media) (*Installed, error) {
	tickets, err := o.TicketIDs(ctx)
	if err != nil {
		return nil, err
	}
	installed := &Installed{
		Tickets: make(map[uint64]struct{}, len(tickets)),
		Titles:  make(map[uint64]struct{}),
	}
	for _, id := range tickets {
		installed.Tickets[id] = struct{}{}
	}
	for _, m := range media {
		titles, err := o.TitleIDs(ctx, m)
		if err != nil {
			return nil, err
		}
		for _, id := range titles {
			installed.Titles[id] = struct{}{}
		}
	}
	return installed, nil
}

func truncate(ids []uint64, n uint32) []uint64 {
	if int64(n) < int64(len(ids)) {
		return ids[:n]
	}
	return ids
}

// Installed is a point-in-time view of installed tickets and titles.
type Installed struct {
	Tickets map[uint64]struct{}
	Titles  map[uint64]struct{}
}

// HasTicket reports whether a ticket for titleID is installed.
func (i *Installed) HasTicket(titleID uint64) bool {
	if i == nil {
		return false
	}
	_, ok := i.Tickets[titleID]
	return ok
}

// HasTitle reports whether titleID is an installed title.
func (i *Installed) HasTitle(titleID uint64) bool {
	if i == nil {
		return false
	}
	_, ok := i.Titles[titleID]
	return ok
}
