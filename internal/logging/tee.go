package logging

import (
	"context"
	"io"
	"log/slog"
)

// multiHandler sends each record to every child that accepts its level.
type multiHandler []slog.Handler

func newMultiHandler(handlers ...slog.Handler) slog.Handler {
	var kept multiHandler
	for _, h := range handlers {
		if h != nil {
			kept = append(kept, h)
		}
	}
	switch len(kept) {
	case 0:
		return NoopHandler{}
	case 1:
		return kept[0]
	}
	return kept
}

func (m multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m multiHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, h := range m {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make(multiHandler, len(m))
	for i, h := range m {
		next[i] = h.WithAttrs(attrs)
	}
	return next
}

func (m multiHandler) WithGroup(name string) slog.Handler {
	next := make(multiHandler, len(m))
	for i, h := range m {
		next[i] = h.WithGroup(name)
	}
	return next
}

// Tee returns a logger that writes to base and also renders records at or
// above level on w with the console format. Used by --verbose to mirror the
// log file on stderr.
func Tee(base *slog.Logger, w io.Writer, level string) *slog.Logger {
	levelVar := new(slog.LevelVar)
	levelVar.Set(parseLevel(level))
	extra := newPrettyHandler(w, levelVar, false)
	if base == nil {
		return slog.New(extra)
	}
	return slog.New(newMultiHandler(base.Handler(), extra))
}
