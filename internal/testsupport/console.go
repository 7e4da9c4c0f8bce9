package testsupport

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"cifinalize/internal/platform"
	"cifinalize/internal/ticket"
)

// FakeConsole is an in-memory platform.Service with failure injection.
type FakeConsole struct {
	mu sync.Mutex

	tickets map[uint64][]byte
	titles  map[platform.Media]map[uint64]struct{}
	seeds   map[uint64][platform.SeedSize]byte
	deleted []string
	calls   []string

	nextHandle platform.TicketHandle
	open       platform.TicketHandle
	pending    []byte
	overlaps   int

	failCall  map[string]map[int]platform.Result
	failTitle map[string]map[uint64]platform.Result
	callCount map[string]int

	// ListShortfall makes list calls return this many fewer ids than the
	// preceding count reported.
	ListShortfall int
	// ListOverstate is added to the count list calls report, beyond what
	// they actually wrote.
	ListOverstate uint32
	// KeepFiles makes DeleteFile succeed without touching the filesystem.
	KeepFiles bool
	// BeginHandleOnFailure makes an injected BeginTicket failure still open
	// a transaction and return its handle alongside the error.
	BeginHandleOnFailure bool
}

// NewFakeConsole returns an empty console.
func NewFakeConsole() *FakeConsole {
	return &FakeConsole{
		tickets:   make(map[uint64][]byte),
		titles:    make(map[platform.Media]map[uint64]struct{}),
		seeds:     make(map[uint64][platform.SeedSize]byte),
		failCall:  make(map[string]map[int]platform.Result),
		failTitle: make(map[string]map[uint64]platform.Result),
		callCount: make(map[string]int),
	}
}

// Operation names used for failure injection and call logs.
const (
	OpBegin       = "begin"
	OpWrite       = "write"
	OpFinish      = "finish"
	OpAbort       = "abort"
	OpSeed        = "seed"
	OpListTickets = "list_tickets"
	OpListTitles  = "list_titles"
	OpDelete      = "delete"
)

// FailCall fails the n-th (1-based) call to op with code.
func (f *FakeConsole) FailCall(op string, n int, code platform.Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCall[op] == nil {
		f.failCall[op] = make(map[int]platform.Result)
	}
	f.failCall[op][n] = code
}

// FailTitle fails every op call concerning titleID. Supported for write,
// finish and seed.
func (f *FakeConsole) FailTitle(op string, titleID uint64, code platform.Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTitle[op] == nil {
		f.failTitle[op] = make(map[uint64]platform.Result)
	}
	f.failTitle[op][titleID] = code
}

// InstallTitle marks titleID as installed on media.
func (f *FakeConsole) InstallTitle(media platform.Media, titleID uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.titles[media] == nil {
		f.titles[media] = make(map[uint64]struct{})
	}
	f.titles[media][titleID] = struct{}{}
}

// InstallTicket marks a ticket for titleID as installed.
func (f *FakeConsole) InstallTicket(titleID uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tickets[titleID] = ticket.DefaultTemplate().Bytes()
}

// Tickets returns installed ticket ids in ascending order.
func (f *FakeConsole) Tickets() []uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return sortedKeys(f.tickets)
}

// Ticket returns the stored ticket blob for titleID.
func (f *FakeConsole) Ticket(titleID uint64) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	blob, ok := f.tickets[titleID]
	return blob, ok
}

// Seeds returns a copy of the stored seeds.
func (f *FakeConsole) Seeds() map[uint64][platform.SeedSize]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[uint64][platform.SeedSize]byte, len(f.seeds))
	for k, v := range f.seeds {
		out[k] = v
	}
	return out
}

// Deleted returns the paths passed to DeleteFile.
func (f *FakeConsole) Deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

// Calls returns the ordered call log.
func (f *FakeConsole) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// CallCount returns how many times op was invoked.
func (f *FakeConsole) CallCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.callCount[op]
}

// OpenTransaction reports whether a ticket transaction is still open.
func (f *FakeConsole) OpenTransaction() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open != 0
}

// Overlaps counts BeginTicket calls made while a transaction was open.
func (f *FakeConsole) Overlaps() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.overlaps
}

// record logs the call and returns an injected failure, if any. Callers hold mu.
func (f *FakeConsole) record(op string, titleID uint64, hasTitle bool) error {
	f.callCount[op]++
	if hasTitle {
		f.calls = append(f.calls, fmt.Sprintf("%s:%016x", op, titleID))
	} else {
		f.calls = append(f.calls, op)
	}
	if code, ok := f.failCall[op][f.callCount[op]]; ok {
		return platform.Fail(op, code, nil)
	}
	if hasTitle {
		if code, ok := f.failTitle[op][titleID]; ok {
			return platform.Fail(op, code, nil)
		}
	}
	return nil
}

func (f *FakeConsole) BeginTicket(context.Context) (platform.TicketHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(OpBegin, 0, false); err != nil {
		if f.BeginHandleOnFailure && f.open == 0 {
			f.nextHandle++
			f.open = f.nextHandle
			f.pending = nil
			return f.open, err
		}
		return 0, err
	}
	if f.open != 0 {
		f.overlaps++
		return 0, platform.Fail(OpBegin, platform.ResultBusy, nil)
	}
	f.nextHandle++
	f.open = f.nextHandle
	f.pending = nil
	return f.open, nil
}

func (f *FakeConsole) WriteTicket(_ context.Context, h platform.TicketHandle, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	titleID, _ := ticket.TitleIDOf(data)
	if err := f.record(OpWrite, titleID, true); err != nil {
		return err
	}
	if h == 0 || h != f.open {
		return platform.Fail(OpWrite, platform.ResultInvalidHandle, nil)
	}
	f.pending = append([]byte(nil), data...)
	return nil
}

func (f *FakeConsole) FinishTicket(_ context.Context, h platform.TicketHandle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	titleID, _ := ticket.TitleIDOf(f.pending)
	if err := f.record(OpFinish, titleID, true); err != nil {
		return err
	}
	if h == 0 || h != f.open {
		return platform.Fail(OpFinish, platform.ResultInvalidHandle, nil)
	}
	if len(f.pending) != ticket.Size {
		return platform.Fail(OpFinish, platform.ResultInvalidSize, nil)
	}
	f.tickets[titleID] = f.pending
	f.open = 0
	f.pending = nil
	return nil
}

func (f *FakeConsole) AbortTicket(_ context.Context, h platform.TicketHandle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(OpAbort, 0, false); err != nil {
		return err
	}
	if h == 0 || h != f.open {
		return platform.Fail(OpAbort, platform.ResultInvalidHandle, nil)
	}
	f.open = 0
	f.pending = nil
	return nil
}

func (f *FakeConsole) AddSeed(_ context.Context, titleID uint64, seed [platform.SeedSize]byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(OpSeed, titleID, true); err != nil {
		return err
	}
	f.seeds[titleID] = seed
	return nil
}

func (f *FakeConsole) TicketCount(context.Context) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return uint32(len(f.tickets)), nil
}

func (f *FakeConsole) ListTickets(_ context.Context, dst []uint64) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(OpListTickets, 0, false); err != nil {
		return 0, err
	}
	return f.fill(dst, sortedKeys(f.tickets)), nil
}

func (f *FakeConsole) TitleCount(_ context.Context, media platform.Media) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return uint32(len(f.titles[media])), nil
}

func (f *FakeConsole) ListTitles(_ context.Context, media platform.Media, dst []uint64) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(OpListTitles, 0, false); err != nil {
		return 0, err
	}
	return f.fill(dst, sortedKeys(f.titles[media])), nil
}

func (f *FakeConsole) fill(dst []uint64, ids []uint64) uint32 {
	limit := len(ids) - f.ListShortfall
	if limit < 0 {
		limit = 0
	}
	n := copy(dst, ids[:limit])
	return uint32(n) + f.ListOverstate
}

func (f *FakeConsole) DeleteFile(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(OpDelete, 0, false); err != nil {
		return err
	}
	f.deleted = append(f.deleted, path)
	if f.KeepFiles {
		return nil
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return platform.Fail(OpDelete, platform.ResultNotFound, err)
		}
		return platform.Fail(OpDelete, platform.ResultInternal, err)
	}
	return nil
}

func sortedKeys[V any](m map[uint64]V) []uint64 {
	out := make([]uint64, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
