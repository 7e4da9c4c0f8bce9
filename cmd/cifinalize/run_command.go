package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"cifinalize/internal/config"
	"cifinalize/internal/console"
	"cifinalize/internal/finalize"
	"cifinalize/internal/logging"
	"cifinalize/internal/pendingdb"
	"cifinalize/internal/platform/consolestore"
	"cifinalize/internal/sdroot"
	"cifinalize/internal/ticket"
)

// stdinIsTerminal gates the exit prompt.
var stdinIsTerminal = console.IsTerminal

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		keepPending bool
		noWait      bool
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Install tickets and seeds for every pending title",
		Args:  cobra.NoArgs,
		// Config errors are reported by RunE so the exit prompt is still shown.
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			base, cfgErr := ctx.ensureConfig()
			if cfgErr == nil {
				cfg = *base
			}
			if keepPending {
				cfg.Finalize.DeleteOnSuccess = false
			}

			printer := console.NewPrinter(cmd.OutOrStdout(), cfg.Console.Color)
			printer.Banner(version)

			var runErr error
			if cfgErr != nil {
				runErr = fmt.Errorf("load config: %w", cfgErr)
				printer.Notice("%v", runErr)
			} else {
				logger := ctx.logger(cmd, &cfg, verbose)
				runErr = runFinalize(cmd.Context(), &cfg, printer, logger)
				if runErr != nil && !errors.Is(runErr, pendingdb.ErrNotFound) {
					logger.Debug("run finished with error", logging.Error(runErr))
				}
			}

			in := cmd.InOrStdin()
			waitErr := console.WaitForExit(cmd.Context(), in, cmd.OutOrStdout(), console.WaitOptions{
				Enabled: cfg.Console.WaitForExit && !noWait && stdinIsTerminal(in),
				Refresh: time.Duration(cfg.Console.RefreshIntervalMS) * time.Millisecond,
			})

			if errors.Is(runErr, pendingdb.ErrNotFound) {
				runErr = nil
			}
			if runErr != nil {
				return runErr
			}
			return waitErr
		},
	}

	cmd.Flags().BoolVar(&keepPending, "keep-pending", false, "Keep the pending database after a completed run")
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "Exit without waiting for a key press")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Mirror debug logs on stderr")
	return cmd
}

// runFinalize performs one locked finalize pass against the host console
// store and journals it. It prints its own diagnostics.
func runFinalize(ctx context.Context, cfg *config.Config, printer *console.Printer, logger *slog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, _ = logging.NewRunContext(ctx)
	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "cli"))

	paths, err := sdroot.Resolve(cfg)
	if err != nil {
		printer.Notice("%v", err)
		return err
	}
	lock, err := sdroot.Acquire(paths.Root)
	if err != nil {
		printer.Notice("%v", err)
		return err
	}
	if cfg.Finalize.DeleteOnSuccess {
		if err := sdroot.CheckWritable(paths.Root); err != nil {
			_ = lock.Release()
			printer.Notice("%v", err)
			return err
		}
	}

	store, err := consolestore.OpenConfig(cfg)
	if err != nil {
		_ = lock.Release()
		err = fmt.Errorf("open console store: %w", err)
		printer.Notice("%v", err)
		return err
	}
	session := consolestore.NewSession(store, lock)
	defer func() {
		if err := session.Close(); err != nil {
			logging.WarnWithContext(logger, "failed to close console session", "session_close_failed", logging.Error(err))
		}
	}()

	template, err := loadTemplate(cfg)
	if err != nil {
		printer.Notice("%v", err)
		return err
	}
	policy, err := cfg.VersionPolicy()
	if err != nil {
		return err
	}
	media, err := cfg.TitleMedia()
	if err != nil {
		return err
	}

	engine := finalize.New(store, template, finalize.Options{
		PendingPath:     paths.Pending,
		Policy:          policy,
		TitleMedia:      media,
		DeleteOnSuccess: cfg.Finalize.DeleteOnSuccess,
	}, printer, logger)

	logger.Info("finalize run starting", logging.String("sd_root", paths.Root), logging.String("lock", lock.Path()))
	report, runErr := engine.Run(ctx)
	printer.Summary(report, runErr)

	if report.Outcome != finalize.OutcomeNotFound {
		if err := store.RecordRun(ctx, report, runErr); err != nil {
			logging.WarnWithContext(logger, "failed to journal run", "run_journal_failed", logging.Error(err))
		}
	}
	return runErr
}

func loadTemplate(cfg *config.Config) (*ticket.Template, error) {
	if cfg.Ticket.TemplatePath == "" {
		return ticket.DefaultTemplate(), nil
	}
	return ticket.LoadTemplate(cfg.Ticket.TemplatePath)
}
