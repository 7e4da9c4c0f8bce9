package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"cifinalize/internal/platform"
)

// jsonTimeLayout keeps millisecond precision so lines from one run order
// correctly when merged.
const jsonTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// jsonHandler writes one JSON object per record. Records carrying a console
// service error get a result_code field when the caller did not set one.
type jsonHandler struct {
	inner slog.Handler
	// hasCode is set once a result_code attr is bound through WithAttrs.
	hasCode bool
}

func newJSONHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	opts := slog.HandlerOptions{
		Level:       lvl,
		AddSource:   addSource,
		ReplaceAttr: replaceJSONAttr,
	}
	return &jsonHandler{inner: slog.NewJSONHandler(w, &opts)}
}

func replaceJSONAttr(groups []string, attr slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return attr
	}
	switch attr.Key {
	case slog.TimeKey:
		attr.Key = "ts"
		if attr.Value.Kind() == slog.KindTime {
			attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(jsonTimeLayout))
		}
	case slog.LevelKey:
		attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
	case slog.SourceKey:
		if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
			attr.Value = slog.StringValue(fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
		}
	}
	return attr
}

func (h *jsonHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *jsonHandler) Handle(ctx context.Context, record slog.Record) error {
	if h.hasCode {
		return h.inner.Handle(ctx, record)
	}
	var (
		code    platform.Result
		found   bool
		hasCode bool
	)
	record.Attrs(func(attr slog.Attr) bool {
		switch attr.Key {
		case FieldResultCode:
			hasCode = true
		case "error":
			if err, ok := attr.Value.Any().(error); ok {
				var resErr *platform.ResultError
				if errors.As(err, &resErr) {
					code, found = resErr.Code, true
				}
			}
		}
		return true
	})
	if found && !hasCode {
		record = record.Clone()
		record.AddAttrs(slog.String(FieldResultCode, code.String()))
	}
	return h.inner.Handle(ctx, record)
}

func (h *jsonHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &jsonHandler{
		inner:   h.inner.WithAttrs(attrs),
		hasCode: h.hasCode || HasAttrKey(attrs, FieldResultCode),
	}
}

func (h *jsonHandler) WithGroup(name string) slog.Handler {
	return &jsonHandler{inner: h.inner.WithGroup(name), hasCode: h.hasCode}
}
