package console

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"cifinalize/internal/finalize"
	"cifinalize/internal/pendingdb"
	"cifinalize/internal/platform"
	"cifinalize/internal/ticket"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiCyan   = "\x1b[36m"
)

// Color modes accepted by NewPrinter.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Printer writes operator-facing progress lines. It implements
// finalize.Observer.
type Printer struct {
	mu    sync.Mutex
	out   io.Writer
	color bool
	// counts formats summary numbers with digit grouping.
	counts *message.Printer
}

var _ finalize.Observer = (*Printer)(nil)

// NewPrinter returns a Printer writing to out. In auto mode colour is used
// only when out is a terminal.
func NewPrinter(out io.Writer, mode string) *Printer {
	var color bool
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case ColorAlways:
		color = true
	case ColorNever:
		color = false
	default:
		color = IsTerminal(out)
	}
	return &Printer{out: out, color: color, counts: message.NewPrinter(language.English)}
}

// IsTerminal reports whether v is an *os.File attached to a terminal.
func IsTerminal(v any) bool {
	file, ok := v.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (p *Printer) line(color, format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	msg := fmt.Sprintf(format, args...)
	if p.color && color != "" {
		msg = color + msg + ansiReset
	}
	fmt.Fprintln(p.out, msg)
}

// Banner prints the program banner.
func (p *Printer) Banner(version string) {
	p.line("", "cifinalize %s", version)
}

// Notice prints an informational line.
func (p *Printer) Notice(format string, args ...any) {
	p.line("", format, args...)
}

// Reading announces the pending database being read.
func (p *Printer) Reading(path string) {
	p.line("", "Reading %s...", path)
}

// Finalizing announces the title being finalized.
func (p *Printer) Finalizing(titleID uint64) {
	p.line(ansiCyan, "Finalizing %016x...", titleID)
}

// Skipped reports a title that already has its ticket or content.
func (p *Printer) Skipped(titleID uint64) {
	p.line("", "%016x is already installed, skipping.", titleID)
}

// TicketFailed reports the failed transaction step with its result code.
func (p *Printer) TicketFailed(_ uint64, step ticket.Step, code platform.Result) {
	var action string
	switch step {
	case ticket.StepBegin:
		action = "begin ticket install"
	case ticket.StepWrite:
		action = "write ticket"
	default:
		action = "finish ticket install"
	}
	p.line(ansiRed, "Failed to %s: %s", action, code)
}

// SeedFailed reports a seed that could not be stored.
func (p *Printer) SeedFailed(_ uint64, code platform.Result) {
	p.line(ansiYellow, "Failed to install seed: %s", code)
}

// Summary prints the closing line for a run.
func (p *Printer) Summary(report finalize.Report, err error) {
	switch report.Outcome {
	case finalize.OutcomeCompleted:
		msg := p.counts.Sprintf("Finalized %d title(s), %d already installed.", len(report.Installed), len(report.Skipped))
		if n := len(report.SeedFailures); n > 0 {
			msg += p.counts.Sprintf(" %d seed(s) failed.", n)
		}
		switch {
		case report.PendingRemoved:
			msg += " Pending file removed."
		case report.CleanupError != "":
			msg += " Could not remove the pending file."
		}
		color := ansiGreen
		if len(report.SeedFailures) > 0 || report.CleanupError != "" {
			color = ansiYellow
		}
		p.line(color, "%s", msg)
	case finalize.OutcomeNotFound:
		p.line("", "Failed to open file. Nothing to finalize.")
	case finalize.OutcomeRejected:
		p.line(ansiRed, "%s", rejectionMessage(report.PendingPath, err))
	case finalize.OutcomeQueryFailed:
		p.line(ansiRed, "Failed to list installed titles: %s", platform.CodeOf(err))
	case finalize.OutcomeHalted:
		p.line(ansiRed, "Stopped at %016x; the pending file was kept.", report.FailedTitle)
	default:
		if err != nil {
			p.line(ansiRed, "Finalize failed: %v", err)
		}
	}
}

func rejectionMessage(path string, err error) string {
	var loadErr *pendingdb.LoadError
	if !errors.As(err, &loadErr) {
		return fmt.Sprintf("Could not read %s: %v", path, err)
	}
	switch {
	case errors.Is(err, pendingdb.ErrUnsupportedVersion):
		msg := fmt.Sprintf("Unsupported pending file version %d in %s.", loadErr.Version, path)
		if loadErr.Detail != "" {
			msg += " " + capitalize(loadErr.Detail) + "."
		}
		return msg
	case loadErr.Index >= 0 && loadErr.Detail == "TITLE magic not found":
		return fmt.Sprintf("Couldn't find TITLE magic for entry %d in %s.", loadErr.Index, path)
	case strings.HasPrefix(loadErr.Detail, "bad magic"):
		return fmt.Sprintf("CIFINISH magic not found in %s.", path)
	default:
		return fmt.Sprintf("Could not read %s: %v", path, err)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
