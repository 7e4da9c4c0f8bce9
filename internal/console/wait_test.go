package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestWaitForExitDisabled(t *testing.T) {
	var out bytes.Buffer
	if err := WaitForExit(context.Background(), strings.NewReader(""), &out, WaitOptions{}); err != nil {
		t.Fatalf("WaitForExit: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("expected no prompt, got %q", out.String())
	}
}

func TestWaitForExitKeys(t *testing.T) {
	for _, input := range []string{"\n", "q", "xyzQ", ""} {
		var out bytes.Buffer
		err := WaitForExit(context.Background(), strings.NewReader(input), &out, WaitOptions{Enabled: true})
		if err != nil {
			t.Fatalf("input %q: %v", input, err)
		}
		if !strings.Contains(out.String(), ExitPrompt) {
			t.Fatalf("input %q: expected prompt, got %q", input, out.String())
		}
	}
}

func TestWaitForExitTicksUntilCancelled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	var ticks atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- WaitForExit(ctx, pr, io.Discard, WaitOptions{
			Enabled: true,
			Refresh: time.Millisecond,
			OnTick:  func() { ticks.Add(1) },
		})
	}()

	deadline := time.Now().Add(2 * time.Second)
	for ticks.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatal("refresh ticks never fired")
		}
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForExit did not return after cancel")
	}
}
