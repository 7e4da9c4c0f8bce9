package console

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"cifinalize/internal/finalize"
	"cifinalize/internal/pendingdb"
	"cifinalize/internal/platform"
	"cifinalize/internal/ticket"
)

func TestPrinterProgressLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, ColorAuto)

	p.Reading("/sdmc/cifinish.bin")
	p.Finalizing(0x0004000000123500)
	p.Skipped(0x0004000000123600)
	p.TicketFailed(0x0004000000123700, ticket.StepWrite, platform.ResultInvalidHandle)
	p.SeedFailed(0x0004000000123700, platform.ResultInternal)

	want := strings.Join([]string{
		"Reading /sdmc/cifinish.bin...",
		"Finalizing 0004000000123500...",
		"0004000000123600 is already installed, skipping.",
		"Failed to write ticket: d8e007f7",
		"Failed to install seed: d8a083fa",
		"",
	}, "\n")
	if buf.String() != want {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
}

func TestPrinterColorModes(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf, ColorAlways).Finalizing(1)
	if !strings.Contains(buf.String(), ansiCyan) {
		t.Fatalf("expected colour escape, got %q", buf.String())
	}

	buf.Reset()
	NewPrinter(&buf, ColorNever).Finalizing(1)
	if strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("expected no colour, got %q", buf.String())
	}

	if IsTerminal(&buf) {
		t.Fatal("a buffer is never a terminal")
	}
}

func TestTicketFailedSteps(t *testing.T) {
	cases := map[ticket.Step]string{
		ticket.StepBegin:  "Failed to begin ticket install: c8a083ef",
		ticket.StepFinish: "Failed to finish ticket install: c8a083ef",
	}
	for step, want := range cases {
		var buf bytes.Buffer
		NewPrinter(&buf, ColorNever).TicketFailed(1, step, platform.ResultBusy)
		if got := strings.TrimSpace(buf.String()); got != want {
			t.Errorf("%s: got %q, want %q", step, got, want)
		}
	}
}

func TestSummary(t *testing.T) {
	path := "/sdmc/cifinish.bin"
	cases := []struct {
		name   string
		report finalize.Report
		err    error
		want   string
	}{
		{
			name:   "completed",
			report: finalize.Report{Outcome: finalize.OutcomeCompleted, Installed: []uint64{1, 2}, Skipped: []uint64{3}, PendingRemoved: true},
			want:   "Finalized 2 title(s), 1 already installed. Pending file removed.",
		},
		{
			name:   "seed failures",
			report: finalize.Report{Outcome: finalize.OutcomeCompleted, Installed: []uint64{1}, SeedFailures: []uint64{1}, CleanupError: "x"},
			want:   "Finalized 1 title(s), 0 already installed. 1 seed(s) failed. Could not remove the pending file.",
		},
		{
			name:   "grouped counts",
			report: finalize.Report{Outcome: finalize.OutcomeCompleted, Installed: make([]uint64, 1200), PendingRemoved: true},
			want:   "Finalized 1,200 title(s), 0 already installed. Pending file removed.",
		},
		{
			name:   "not found",
			report: finalize.Report{Outcome: finalize.OutcomeNotFound},
			want:   "Failed to open file. Nothing to finalize.",
		},
		{
			name:   "bad magic",
			report: finalize.Report{Outcome: finalize.OutcomeRejected, PendingPath: path},
			err:    &pendingdb.LoadError{Kind: pendingdb.ErrCorruptFile, Index: -1, Detail: `bad magic "CIFINISX"`},
			want:   "CIFINISH magic not found in /sdmc/cifinish.bin.",
		},
		{
			name:   "entry magic",
			report: finalize.Report{Outcome: finalize.OutcomeRejected, PendingPath: path},
			err:    &pendingdb.LoadError{Kind: pendingdb.ErrCorruptFile, Index: 2, Detail: "TITLE magic not found"},
			want:   "Couldn't find TITLE magic for entry 2 in /sdmc/cifinish.bin.",
		},
		{
			name:   "unsupported",
			report: finalize.Report{Outcome: finalize.OutcomeRejected, PendingPath: path},
			err:    &pendingdb.LoadError{Kind: pendingdb.ErrUnsupportedVersion, Version: 99, Index: -1, Detail: "update cifinalize"},
			want:   "Unsupported pending file version 99 in /sdmc/cifinish.bin. Update cifinalize.",
		},
		{
			name:   "query",
			report: finalize.Report{Outcome: finalize.OutcomeQueryFailed},
			err:    &finalize.QueryError{Err: platform.Fail("list tickets", platform.ResultInternal, nil)},
			want:   "Failed to list installed titles: d8a083fa",
		},
		{
			name:   "halted",
			report: finalize.Report{Outcome: finalize.OutcomeHalted, FailedTitle: 0x0004000000123600},
			err:    errors.New("boom"),
			want:   "Stopped at 0004000000123600; the pending file was kept.",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewPrinter(&buf, ColorNever).Summary(tc.report, tc.err)
			if got := strings.TrimSpace(buf.String()); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}
