package finalize

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"cifinalize/internal/logging"
	"cifinalize/internal/oracle"
	"cifinalize/internal/pendingdb"
	"cifinalize/internal/platform"
	"cifinalize/internal/ticket"
)

// Options configures an Engine.
type Options struct {
	PendingPath string
	Policy      pendingdb.Policy
	// TitleMedia lists the media queried for installed titles.
	TitleMedia []platform.Media
	// DeleteOnSuccess removes the pending database after a completed run.
	DeleteOnSuccess bool
}

// Engine performs finalize runs against a platform.Service.
type Engine struct {
	svc       platform.Service
	loader    pendingdb.Loader
	oracle    *oracle.Oracle
	installer *ticket.Installer
	seeds     *SeedInjector
	opts      Options
	observer  Observer
	logger    *slog.Logger
	now       func() time.Time
}

// New constructs an Engine. A nil template selects the built-in ticket
// template; a nil observer discards progress.
func New(svc platform.Service, template *ticket.Template, opts Options, observer Observer, logger *slog.Logger) *Engine {
	if observer == nil {
		observer = nopObserver{}
	}
	if len(opts.TitleMedia) == 0 {
		opts.TitleMedia = []platform.Media{platform.MediaSD}
	}
	return &Engine{
		svc:       svc,
		loader:    pendingdb.Loader{Policy: opts.Policy},
		oracle:    oracle.New(svc),
		installer: ticket.NewInstaller(svc, template, logger),
		seeds:     NewSeedInjector(svc, logger),
		opts:      opts,
		observer:  observer,
		logger:    logging.NewComponentLogger(logger, "engine"),
		now:       time.Now,
	}
}

// Run performs one finalize pass. The pass is not interruptible: ctx is
// handed to service calls but cancellation is not checked between entries.
// The returned Report is populated for every outcome.
func (e *Engine) Run(ctx context.Context) (report Report, err error) {
	runID, ok := logging.RunIDFromContext(ctx)
	if !ok {
		ctx, runID = logging.NewRunContext(ctx)
	}
	logger := logging.WithContext(ctx, e.logger)

	report = Report{
		RunID:       runID,
		PendingPath: e.opts.PendingPath,
		StartedAt:   e.now(),
	}
	defer func() {
		report.FinishedAt = e.now()
	}()

	e.observer.Reading(e.opts.PendingPath)
	db, err := e.loader.Load(e.opts.PendingPath)
	if err != nil {
		if errors.Is(err, pendingdb.ErrNotFound) {
			report.Outcome = OutcomeNotFound
			logger.Info("no pending database", logging.String("path", e.opts.PendingPath))
			return report, err
		}
		report.Outcome = OutcomeRejected
		logging.ErrorWithContext(logger, "pending database rejected", ErrorKind(err),
			logging.String("path", e.opts.PendingPath),
			logging.String(logging.FieldErrorHint, "regenerate the pending file with the host tool"),
			logging.Error(err),
		)
		return report, err
	}
	report.Version = db.Version
	report.Digest = db.Digest
	report.Total = len(db.Entries)
	logger.Info("pending database loaded",
		logging.Int("entries", len(db.Entries)),
		logging.Int("version", int(db.Version)),
		logging.String("digest", db.Digest),
	)

	installed, err := e.oracle.Snapshot(ctx, e.opts.TitleMedia...)
	if err != nil {
		report.Outcome = OutcomeQueryFailed
		logging.ErrorWithContext(logger, "failed to list installed state", "query_failure",
			logging.String(logging.FieldResultCode, platform.CodeOf(err).String()),
			logging.Error(err),
		)
		return report, &QueryError{Err: err}
	}

	if err := e.process(ctx, db.Entries, NewReconciler(installed), &report, logger); err != nil {
		return report, err
	}

	report.Outcome = OutcomeCompleted
	e.cleanupPending(ctx, &report, logger)
	logger.Info("finalize run complete",
		logging.Int("installed", len(report.Installed)),
		logging.Int("skipped", len(report.Skipped)),
		logging.Int("seed_failures", len(report.SeedFailures)),
		logging.Bool("pending_removed", report.PendingRemoved),
	)
	return report, nil
}

// process walks entries in file order. It returns the first ticket
// transaction failure, after which no further entries are touched.
func (e *Engine) process(ctx context.Context, entries []pendingdb.Entry, reconciler *Reconciler, report *Report, logger *slog.Logger) error {
	for _, entry := range entries {
		titleLogger := logger.With(logging.String(logging.FieldTitleID, logging.TitleID(entry.TitleID)))

		if reconciler.Satisfied(entry.TitleID) {
			report.Skipped = append(report.Skipped, entry.TitleID)
			e.observer.Skipped(entry.TitleID)
			titleLogger.Info("title already installed, skipping")
			continue
		}

		e.observer.Finalizing(entry.TitleID)
		if err := e.installer.Install(ctx, entry); err != nil {
			report.Outcome = OutcomeHalted
			report.FailedTitle = entry.TitleID
			var txErr *ticket.TransactionError
			if errors.As(err, &txErr) {
				e.observer.TicketFailed(entry.TitleID, txErr.Step, txErr.Code())
			}
			logging.ErrorWithContext(titleLogger, "ticket install failed, halting run", "transaction_failure",
				logging.String(logging.FieldResultCode, platform.CodeOf(err).String()),
				logging.String(logging.FieldErrorHint, "fix the console state and rerun; the pending file was kept"),
				logging.Error(err),
			)
			return err
		}
		reconciler.MarkFinalized(entry.TitleID)
		report.Installed = append(report.Installed, entry.TitleID)
		titleLogger.Info("ticket installed")

		if !entry.HasSeed {
			continue
		}
		if err := e.seeds.Inject(ctx, entry); err != nil {
			report.SeedFailures = append(report.SeedFailures, entry.TitleID)
			e.observer.SeedFailed(entry.TitleID, platform.CodeOf(err))
			continue
		}
		report.SeedsInjected = append(report.SeedsInjected, entry.TitleID)
		titleLogger.Info("seed installed")
	}
	return nil
}
