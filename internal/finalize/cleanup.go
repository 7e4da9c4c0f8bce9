package finalize

import (
	"context"
	"log/slog"

	"cifinalize/internal/logging"
	"cifinalize/internal/platform"
)

// cleanupPending removes the consumed pending database after a completed run.
func (e *Engine) cleanupPending(ctx context.Context, report *Report, logger *slog.Logger) {
	if !e.opts.DeleteOnSuccess {
		logger.Info("keeping pending database", logging.String("path", report.PendingPath))
		return
	}
	if err := e.svc.DeleteFile(ctx, report.PendingPath); err != nil {
		report.CleanupError = err.Error()
		logging.WarnWithContext(logger, "failed to remove pending database", "cleanup_failure",
			logging.String("path", report.PendingPath),
			logging.String(logging.FieldResultCode, platform.CodeOf(err).String()),
			logging.String(logging.FieldErrorHint, "delete the file by hand before the next run"),
			logging.String(logging.FieldImpact, "a rerun will skip every title that is already finalized"),
			logging.Error(err),
		)
		return
	}
	report.PendingRemoved = true
	logger.Info("removed pending database", logging.String("path", report.PendingPath))
}
