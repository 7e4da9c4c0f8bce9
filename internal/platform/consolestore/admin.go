package consolestore

import (
	"context"
	"fmt"
	"time"

	"cifinalize/internal/finalize"
	"cifinalize/internal/platform"
)

// TicketRecord is an installed ticket row.
type TicketRecord struct {
	TitleID     uint64
	Size        int
	InstalledAt time.Time
}

// TitleRecord is an installed title row.
type TitleRecord struct {
	Media   platform.Media
	TitleID uint64
	AddedAt time.Time
}

// SeedRecord is a stored seed row.
type SeedRecord struct {
	TitleID uint64
	Seed    [platform.SeedSize]byte
	AddedAt time.Time
}

// RunRecord is a journaled finalize run.
type RunRecord struct {
	RunID          string
	PendingPath    string
	Outcome        finalize.Outcome
	ErrorKind      string
	PendingVersion uint32
	Digest         string
	Total          int
	Installed      int
	Skipped        int
	SeedFailures   int
	PendingRemoved bool
	StartedAt      time.Time
	FinishedAt     time.Time
}

// AddTitle marks titleID as installed on media.
func (s *Store) AddTitle(ctx context.Context, media platform.Media, titleID uint64) error {
	if _, err := s.exec(ctx,
		"INSERT OR IGNORE INTO titles (media, title_id, added_at) VALUES (?, ?, ?)",
		int(media), toDB(titleID), s.timestamp(),
	); err != nil {
		return fmt.Errorf("add title %016x: %w", titleID, err)
	}
	return nil
}

// RemoveTitle removes titleID from media. It reports whether a row existed.
func (s *Store) RemoveTitle(ctx context.Context, media platform.Media, titleID uint64) (bool, error) {
	res, err := s.exec(ctx, "DELETE FROM titles WHERE media = ? AND title_id = ?", int(media), toDB(titleID))
	if err != nil {
		return false, fmt.Errorf("remove title %016x: %w", titleID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove title %016x: %w", titleID, err)
	}
	return n > 0, nil
}

// Tickets returns installed tickets ordered by title id.
func (s *Store) Tickets(ctx context.Context) ([]TicketRecord, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		"SELECT title_id, length(data), installed_at FROM tickets ORDER BY title_id")
	if err != nil {
		return nil, fmt.Errorf("query tickets: %w", err)
	}
	defer rows.Close()

	var out []TicketRecord
	for rows.Next() {
		var (
			id  int64
			rec TicketRecord
			at  string
		)
		if err := rows.Scan(&id, &rec.Size, &at); err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		rec.TitleID = fromDB(id)
		rec.InstalledAt = parseTime(at)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Titles returns titles installed on media ordered by title id.
func (s *Store) Titles(ctx context.Context, media platform.Media) ([]TitleRecord, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		"SELECT title_id, added_at FROM titles WHERE media = ? ORDER BY title_id", int(media))
	if err != nil {
		return nil, fmt.Errorf("query titles: %w", err)
	}
	defer rows.Close()

	var out []TitleRecord
	for rows.Next() {
		var (
			id int64
			at string
		)
		if err := rows.Scan(&id, &at); err != nil {
			return nil, fmt.Errorf("scan title: %w", err)
		}
		out = append(out, TitleRecord{Media: media, TitleID: fromDB(id), AddedAt: parseTime(at)})
	}
	return out, rows.Err()
}

// Seeds returns stored seeds ordered by title id.
func (s *Store) Seeds(ctx context.Context) ([]SeedRecord, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), "SELECT title_id, seed, added_at FROM seeds ORDER BY title_id")
	if err != nil {
		return nil, fmt.Errorf("query seeds: %w", err)
	}
	defer rows.Close()

	var out []SeedRecord
	for rows.Next() {
		var (
			id   int64
			blob []byte
			at   string
		)
		if err := rows.Scan(&id, &blob, &at); err != nil {
			return nil, fmt.Errorf("scan seed: %w", err)
		}
		rec := SeedRecord{TitleID: fromDB(id), AddedAt: parseTime(at)}
		if len(blob) != platform.SeedSize {
			return nil, fmt.Errorf("seed for %016x is %d bytes", rec.TitleID, len(blob))
		}
		copy(rec.Seed[:], blob)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// RecordRun journals a finalize run. runErr is classified with
// finalize.ErrorKind.
func (s *Store) RecordRun(ctx context.Context, report finalize.Report, runErr error) error {
	finished := report.FinishedAt
	if finished.IsZero() {
		finished = s.now()
	}
	if _, err := s.exec(ctx,
		`INSERT INTO runs (run_id, pending_path, outcome, error_kind, pending_version, digest,
		   total, installed, skipped, seed_failures, pending_removed, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID,
		report.PendingPath,
		string(report.Outcome),
		finalize.ErrorKind(runErr),
		report.Version,
		report.Digest,
		report.Total,
		len(report.Installed),
		len(report.Skipped),
		len(report.SeedFailures),
		boolToInt(report.PendingRemoved),
		formatTime(report.StartedAt),
		formatTime(finished),
	); err != nil {
		return fmt.Errorf("record run %s: %w", report.RunID, err)
	}
	return nil
}

// Runs returns up to limit journaled runs, newest first. A non-positive
// limit returns every run.
func (s *Store) Runs(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT run_id, pending_path, outcome, error_kind, pending_version, digest, total,
		        installed, skipped, seed_failures, pending_removed, started_at, finished_at
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var (
			rec               RunRecord
			outcome           string
			removed           int
			started, finished string
		)
		if err := rows.Scan(&rec.RunID, &rec.PendingPath, &outcome, &rec.ErrorKind, &rec.PendingVersion,
			&rec.Digest, &rec.Total, &rec.Installed, &rec.Skipped, &rec.SeedFailures, &removed,
			&started, &finished); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.Outcome = finalize.Outcome(outcome)
		rec.PendingRemoved = removed != 0
		rec.StartedAt = parseTime(started)
		rec.FinishedAt = parseTime(finished)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
