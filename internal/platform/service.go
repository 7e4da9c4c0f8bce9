package platform

import (
	"context"
	"fmt"
	"strings"
)

// Media identifies a title storage medium.
type Media uint8

const (
	MediaNAND Media = iota
	MediaSD
	MediaGameCard
)

func (m Media) String() string {
	switch m {
	case MediaNAND:
		return "nand"
	case MediaSD:
		return "sd"
	case MediaGameCard:
		return "gamecard"
	default:
		return fmt.Sprintf("media(%d)", uint8(m))
	}
}

// ParseMedia converts a configuration value into a Media.
func ParseMedia(value string) (Media, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "nand":
		return MediaNAND, nil
	case "sd", "sdmc":
		return MediaSD, nil
	case "gamecard", "card":
		return MediaGameCard, nil
	default:
		return 0, fmt.Errorf("unknown media %q (expected nand, sd or gamecard)", value)
	}
}

// TicketHandle identifies an open ticket install transaction.
type TicketHandle uint32

// SeedSize is the length of a title decryption seed.
const SeedSize = 16

// Service is the console service boundary. All methods return a *ResultError
// on failure.
type Service interface {
	// BeginTicket opens a ticket install transaction. Only one may be open.
	BeginTicket(ctx context.Context) (TicketHandle, error)
	// WriteTicket submits ticket data to an open transaction.
	WriteTicket(ctx context.Context, h TicketHandle, data []byte) error
	// FinishTicket commits the transaction and releases the handle.
	FinishTicket(ctx context.Context, h TicketHandle) error
	// AbortTicket discards the transaction and releases the handle.
	AbortTicket(ctx context.Context, h TicketHandle) error

	// AddSeed stores a decryption seed for titleID.
	AddSeed(ctx context.Context, titleID uint64, seed [SeedSize]byte) error

	TicketCount(ctx context.Context) (uint32, error)
	// ListTickets fills dst and returns how many ids were written, which may
	// be fewer than a preceding TicketCount.
	ListTickets(ctx context.Context, dst []uint64) (uint32, error)
	TitleCount(ctx context.Context, media Media) (uint32, error)
	// ListTitles fills dst and returns how many ids were written.
	ListTitles(ctx context.Context, media Media, dst []uint64) (uint32, error)

	// DeleteFile removes a file from removable storage.
	DeleteFile(ctx context.Context, path string) error
}
