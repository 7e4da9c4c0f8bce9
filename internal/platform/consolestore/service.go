package consolestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cifinalize/internal/platform"
	"cifinalize/internal/ticket"
)

// BeginTicket opens the ticket transaction. Only one may be open at a time.
func (s *Store) BeginTicket(context.Context) (platform.TicketHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open != 0 {
		return 0, platform.Fail("begin ticket", platform.ResultBusy, errors.New("a ticket transaction is already open"))
	}
	s.nextHandle++
	if s.nextHandle == 0 {
		s.nextHandle++
	}
	s.open = s.nextHandle
	s.pending = nil
	return s.open, nil
}

// WriteTicket appends data to the open transaction.
func (s *Store) WriteTicket(_ context.Context, h platform.TicketHandle, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkHandle("write ticket", h); err != nil {
		return err
	}
	s.pending = append(s.pending, data...)
	return nil
}

// FinishTicket commits the written blob. The blob must be exactly one
// ticket; on failure the transaction stays open until aborted.
func (s *Store) FinishTicket(ctx context.Context, h platform.TicketHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkHandle("finish ticket", h); err != nil {
		return err
	}
	if len(s.pending) != ticket.Size {
		return platform.Fail("finish ticket", platform.ResultInvalidSize,
			fmt.Errorf("ticket is %d bytes, want %d", len(s.pending), ticket.Size))
	}
	titleID, err := ticket.TitleIDOf(s.pending)
	if err != nil {
		return platform.Fail("finish ticket", platform.ResultInvalidSize, err)
	}
	if _, err := s.exec(ctx,
		`INSERT INTO tickets (title_id, data, installed_at) VALUES (?, ?, ?)
		 ON CONFLICT(title_id) DO UPDATE SET data = excluded.data, installed_at = excluded.installed_at`,
		toDB(titleID), s.pending, s.timestamp(),
	); err != nil {
		return platform.Fail("finish ticket", platform.ResultInternal, err)
	}
	s.open = 0
	s.pending = nil
	return nil
}

// AbortTicket discards the open transaction.
func (s *Store) AbortTicket(_ context.Context, h platform.TicketHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkHandle("abort ticket", h); err != nil {
		return err
	}
	s.open = 0
	s.pending = nil
	return nil
}

// checkHandle validates h against the open transaction. Callers hold mu.
func (s *Store) checkHandle(op string, h platform.TicketHandle) error {
	if h == 0 || h != s.open {
		return platform.Fail(op, platform.ResultInvalidHandle, fmt.Errorf("handle %d is not open", h))
	}
	return nil
}

// AddSeed stores seed for titleID, replacing any previous value.
func (s *Store) AddSeed(ctx context.Context, titleID uint64, seed [platform.SeedSize]byte) error {
	if _, err := s.exec(ctx,
		`INSERT INTO seeds (title_id, seed, added_at) VALUES (?, ?, ?)
		 ON CONFLICT(title_id) DO UPDATE SET seed = excluded.seed, added_at = excluded.added_at`,
		toDB(titleID), seed[:], s.timestamp(),
	); err != nil {
		return platform.Fail("add seed", platform.ResultInternal, err)
	}
	return nil
}

// TicketCount returns the number of installed tickets.
func (s *Store) TicketCount(ctx context.Context) (uint32, error) {
	var count uint32
	if err := s.db.QueryRowContext(ensureContext(ctx), "SELECT COUNT(1) FROM tickets").Scan(&count); err != nil {
		return 0, platform.Fail("ticket count", platform.ResultInternal, err)
	}
	return count, nil
}

// ListTickets fills dst with installed ticket ids.
func (s *Store) ListTickets(ctx context.Context, dst []uint64) (uint32, error) {
	n, err := s.listIDs(ctx, dst, "SELECT title_id FROM tickets ORDER BY title_id LIMIT ?", len(dst))
	if err != nil {
		return 0, platform.Fail("list tickets", platform.ResultInternal, err)
	}
	return n, nil
}

// TitleCount returns the number of titles installed on media.
func (s *Store) TitleCount(ctx context.Context, media platform.Media) (uint32, error) {
	var count uint32
	if err := s.db.QueryRowContext(ensureContext(ctx),
		"SELECT COUNT(1) FROM titles WHERE media = ?", int(media),
	).Scan(&count); err != nil {
		return 0, platform.Fail("title count", platform.ResultInternal, err)
	}
	return count, nil
}

// ListTitles fills dst with title ids installed on media.
func (s *Store) ListTitles(ctx context.Context, media platform.Media, dst []uint64) (uint32, error) {
	n, err := s.listIDs(ctx, dst,
		"SELECT title_id FROM titles WHERE media = ? ORDER BY title_id LIMIT ?", int(media), len(dst))
	if err != nil {
		return 0, platform.Fail("list titles", platform.ResultInternal, err)
	}
	return n, nil
}

func (s *Store) listIDs(ctx context.Context, dst []uint64, query string, args ...any) (uint32, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	n := 0
	for rows.Next() && n < len(dst) {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return 0, err
		}
		dst[n] = fromDB(id)
		n++
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}
	return uint32(n), nil
}

// DeleteFile removes path. With an SD root configured, paths outside it
// are refused.
func (s *Store) DeleteFile(_ context.Context, path string) error {
	clean := filepath.Clean(path)
	if s.sdRoot != "" && !within(s.sdRoot, clean) {
		return platform.Fail("delete file", platform.ResultNotFound, fmt.Errorf("%s is outside %s", clean, s.sdRoot))
	}
	if err := os.Remove(clean); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return platform.Fail("delete file", platform.ResultNotFound, err)
		}
		return platform.Fail("delete file", platform.ResultInternal, err)
	}
	return nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
