package logging

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the structured logging key for the finalize run identifier.
	FieldRunID = "run_id"
	// FieldTitleID is the structured logging key for 64-bit title ids (hex).
	FieldTitleID = "title_id"
	// FieldResultCode is the structured logging key for console result codes (hex).
	FieldResultCode = "result_code"
	// FieldEventType classifies warnings and errors.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to do next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
)

type runIDKey struct{}

// WithRunID returns a context carrying runID.
func WithRunID(ctx context.Context, runID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, runIDKey{}, runID)
}

// NewRunContext attaches a fresh run id and returns it.
func NewRunContext(ctx context.Context) (context.Context, string) {
	id := uuid.NewString()
	return WithRunID(ctx, id), id
}

// RunIDFromContext returns the run id stored in ctx.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(runIDKey{}).(string)
	return id, ok && id != ""
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if id, ok := RunIDFromContext(ctx); ok {
		return []slog.Attr{slog.String(FieldRunID, id)}
	}
	return nil
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}

// TitleID formats a title id the way the console prints it.
func TitleID(id uint64) string {
	return fmt.Sprintf("%016x", id)
}
