package finalize

import (
	"context"
	"fmt"
	"log/slog"

	"cifinalize/internal/logging"
	"cifinalize/internal/pendingdb"
	"cifinalize/internal/platform"
)

// SeedInjector submits decryption seeds to the console seed store.
type SeedInjector struct {
	svc    platform.Service
	logger *slog.Logger
}

// NewSeedInjector constructs a SeedInjector.
func NewSeedInjector(svc platform.Service, logger *slog.Logger) *SeedInjector {
	return &SeedInjector{svc: svc, logger: logging.NewComponentLogger(logger, "seed")}
}

// Inject stores entry's seed. Entries without a seed are ignored. The
// returned error wraps ErrSeedFailure and is never fatal to a run.
func (s *SeedInjector) Inject(ctx context.Context, entry pendingdb.Entry) error {
	if !entry.HasSeed {
		return nil
	}
	if err := s.svc.AddSeed(ctx, entry.TitleID, entry.Seed); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, s.logger), "seed install failed", "seed_failure",
			logging.String(logging.FieldTitleID, logging.TitleID(entry.TitleID)),
			logging.String(logging.FieldResultCode, platform.CodeOf(err).String()),
			logging.String(logging.FieldErrorHint, "install the seed manually or rerun after fixing the seed database"),
			logging.String(logging.FieldImpact, "title installed but cannot be decrypted until the seed is present"),
			logging.Error(err),
		)
		return fmt.Errorf("%w: %s: %w", ErrSeedFailure, logging.TitleID(entry.TitleID), err)
	}
	return nil
}
