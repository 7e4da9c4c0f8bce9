package console

import (
	"context"
	"fmt"
	"io"
	"time"
)

// ExitPrompt is printed once the run is over.
const ExitPrompt = "Press Enter or q to exit."

// DefaultRefresh is the poll interval used when WaitOptions.Refresh is unset.
const DefaultRefresh = 16 * time.Millisecond

// WaitOptions controls WaitForExit.
type WaitOptions struct {
	// Enabled false returns immediately without prompting.
	Enabled bool
	// Refresh is the poll interval for the exit signal.
	Refresh time.Duration
	// OnTick runs on every refresh tick.
	OnTick func()
}

// WaitForExit prints ExitPrompt to out and blocks until the operator
// presses Enter or q on in, in reaches EOF, or ctx is cancelled. The
// reader goroutine is left blocked on in when ctx ends first.
func WaitForExit(ctx context.Context, in io.Reader, out io.Writer, opts WaitOptions) error {
	if !opts.Enabled || in == nil {
		return nil
	}
	refresh := opts.Refresh
	if refresh <= 0 {
		refresh = DefaultRefresh
	}
	fmt.Fprintf(out, "\n%s\n", ExitPrompt)

	keys := make(chan byte, 1)
	done := make(chan struct{})
	defer close(done)
	go readKeys(in, keys, done)

	ticker := time.NewTicker(refresh)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case key, ok := <-keys:
			if !ok || isExitKey(key) {
				return nil
			}
		case <-ticker.C:
			if opts.OnTick != nil {
				opts.OnTick()
			}
		}
	}
}

// readKeys forwards bytes from in until EOF, a read error or done, then
// closes keys.
func readKeys(in io.Reader, keys chan<- byte, done <-chan struct{}) {
	defer close(keys)
	buf := make([]byte, 1)
	for {
		n, err := in.Read(buf)
		if n > 0 {
			select {
			case keys <- buf[0]:
			case <-done:
				return
			}
		}
		if err != nil {
			return
		}
	}
}

func isExitKey(key byte) bool {
	switch key {
	case '\n', '\r', 'q', 'Q':
		return true
	}
	return false
}
