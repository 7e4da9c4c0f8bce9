package oracle_test

import (
	"context"
	"errors"
	"testing"

	"cifinalize/internal/oracle"
	"cifinalize/internal/platform"
	"cifinalize/internal/testsupport"
)

func TestTitleIDsTruncatesToListCount(t *testing.T) {
	console := testsupport.NewFakeConsole()
	for _, id := range []uint64{0x10, 0x20, 0x30} {
		console.InstallTitle(platform.MediaSD, id)
	}
	console.ListShortfall = 1

	ids, err := oracle.New(console).TitleIDs(context.Background(), platform.MediaSD)
	if err != nil {
		t.Fatalf("TitleIDs: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %v", ids)
	}
	for _, id := range ids {
		if id == 0 {
			t.Fatalf("unfilled slot leaked into result: %v", ids)
		}
	}
}

func TestTicketIDsNeverReadsPastBuffer(t *testing.T) {
	console := testsupport.NewFakeConsole()
	console.InstallTicket(0x10)
	console.InstallTicket(0x20)
	console.ListOverstate = 10

	ids, err := oracle.New(console).TicketIDs(context.Background())
	if err != nil {
		t.Fatalf("TicketIDs: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected result clamped to 2, got %d", len(ids))
	}
}

func TestSnapshotCollectsTicketsAndTitles(t *testing.T) {
	console := testsupport.NewFakeConsole()
	console.InstallTicket(0xA)
	console.InstallTitle(platform.MediaSD, 0xB)
	console.InstallTitle(platform.MediaNAND, 0xC)

	installed, err := oracle.New(console).Snapshot(context.Background(), platform.MediaSD)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if !installed.HasTicket(0xA) || installed.HasTitle(0xA) {
		t.Fatal("0xA should only be a ticket")
	}
	if !installed.HasTitle(0xB) || installed.HasTicket(0xB) {
		t.Fatal("0xB should only be an sd title")
	}
	if installed.HasTitle(0xC) {
		t.Fatal("nand titles were not requested")
	}
}

func TestSnapshotPropagatesListFailure(t *testing.T) {
	console := testsupport.NewFakeConsole()
	console.FailCall(testsupport.OpListTitles, 1, platform.ResultInternal)

	_, err := oracle.New(console).Snapshot(context.Background(), platform.MediaSD)
	var resErr *platform.ResultError
	if !errors.As(err, &resErr) || resErr.Code != platform.ResultInternal {
		t.Fatalf("expected ResultError, got %v", err)
	}
}

func TestNilInstalledHasNothing(t *testing.T) {
	var installed *oracle.Installed
	if installed.HasTicket(1) || installed.HasTitle(1) {
		t.Fatal("nil snapshot should be empty")
	}
}
