package pendingdb

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func sampleEntries() []Entry {
	var seed [SeedSize]byte
	for i := range seed {
		seed[i] = byte(0xA0 + i)
	}
	return []Entry{
		{TitleID: 0x0004000000123500},
		{TitleID: 0x0004000000123600, HasSeed: true, Seed: seed},
		{TitleID: 0x0004008C00123700},
	}
}

func writeDB(t *testing.T, version uint32, entries []Entry) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cifinish.bin")
	if err := WriteFile(path, version, entries); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func rawHeader(version, count uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("CIFINISH")
	_ = binary.Write(&buf, binary.LittleEndian, version)
	_ = binary.Write(&buf, binary.LittleEndian, count)
	return buf.Bytes()
}

func TestLoadEveryVersionInFileOrder(t *testing.T) {
	for _, version := range []uint32{VersionLegacy, VersionPacked, VersionAligned} {
		want := sampleEntries()
		path := writeDB(t, version, want)

		got, err := Load(path, TolerantPolicy())
		if err != nil {
			t.Fatalf("v%d: Load returned error: %v", version, err)
		}
		if len(got) != len(want) {
			t.Fatalf("v%d: got %d entries, want %d", version, len(got), len(want))
		}
		for i := range want {
			if got[i].TitleID != want[i].TitleID {
				t.Fatalf("v%d entry %d: title id %016x, want %016x", version, i, got[i].TitleID, want[i].TitleID)
			}
			if got[i].HasSeed != want[i].HasSeed || got[i].Seed != want[i].Seed {
				t.Fatalf("v%d entry %d: seed mismatch", version, i)
			}
			if got[i].SourceVersion != version {
				t.Fatalf("v%d entry %d: source version %d", version, i, got[i].SourceVersion)
			}
		}
	}
}

func TestRecordSizes(t *testing.T) {
	cases := map[uint32]int{VersionLegacy: 0x30, VersionPacked: 0x20, VersionAligned: 0x20, 4: 0, 0: 0}
	for version, want := range cases {
		if got := RecordSize(version); got != want {
			t.Fatalf("RecordSize(%d) = %#x, want %#x", version, got, want)
		}
	}
}

// The version 2 host writer emits magic, title id, seed flag, padding, seed.
func TestLoadPackedLayoutMatchesHostWriter(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(rawHeader(2, 1))
	buf.WriteString("TITLE\x00")
	_ = binary.Write(&buf, binary.LittleEndian, uint64(0x0004000000ABCD00))
	buf.WriteByte(1)
	buf.WriteByte(0)
	seed := bytes.Repeat([]byte{0x5A}, SeedSize)
	buf.Write(seed)

	db, err := Loader{Policy: TolerantPolicy()}.Decode(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(db.Entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(db.Entries))
	}
	entry := db.Entries[0]
	if entry.TitleID != 0x0004000000ABCD00 || !entry.HasSeed || !bytes.Equal(entry.Seed[:], seed) {
		t.Fatalf("unexpected entry %+v", entry)
	}
}

func TestLoadAlignedLayoutOffsets(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(rawHeader(3, 1))
	buf.WriteString("TITLE\x00")
	buf.WriteByte(0)
	buf.WriteByte(0)
	_ = binary.Write(&buf, binary.LittleEndian, uint64(0x0004000000123500))
	buf.Write(make([]byte, SeedSize))

	db, err := Loader{Policy: TolerantPolicy()}.Decode(&buf, -1)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if db.Entries[0].TitleID != 0x0004000000123500 || db.Entries[0].HasSeed {
		t.Fatalf("unexpected entry %+v", db.Entries[0])
	}
}

func TestLoadLegacyCarriesCommonKeyIndex(t *testing.T) {
	path := writeDB(t, VersionLegacy, []Entry{{TitleID: 0x0004000000123500, CommonKeyIndex: 1}})
	got, err := Load(path, TolerantPolicy())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got[0].CommonKeyIndex != 1 {
		t.Fatalf("common key index = %d, want 1", got[0].CommonKeyIndex)
	}
}

func TestLoadCorruptEntryMagicIsAllOrNothing(t *testing.T) {
	path := writeDB(t, VersionAligned, sampleEntries())
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	// corrupt the magic of the last record
	data[HeaderSize+2*RecordSize(VersionAligned)] = 'X'
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path, TolerantPolicy())
	if !errors.Is(err, ErrCorruptFile) {
		t.Fatalf("expected ErrCorruptFile, got %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no entries, got %d", len(got))
	}
	var loadErr *LoadError
	if !errors.As(err, &loadErr) || loadErr.Index != 2 {
		t.Fatalf("expected record index 2 in error, got %v", err)
	}
}

func TestLoadRejectsBadHeaders(t *testing.T) {
	cases := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "short header", data: []byte("CIFINISH\x03\x00")},
		{name: "bad magic", data: append([]byte("CIFINISX"), make([]byte, 8)...)},
		{name: "truncated records", data: append(rawHeader(3, 2), make([]byte, 0x20)...)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cifinish.bin")
			if err := os.WriteFile(path, tc.data, 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path, TolerantPolicy()); !errors.Is(err, ErrCorruptFile) {
				t.Fatalf("expected ErrCorruptFile, got %v", err)
			}
		})
	}
}

func TestLoadTruncatedStreamWithoutSize(t *testing.T) {
	data := append(rawHeader(3, 2), make([]byte, 0x30)...)
	_, err := Loader{Policy: TolerantPolicy()}.Decode(bytes.NewReader(data), -1)
	if !errors.Is(err, ErrCorruptFile) {
		t.Fatalf("expected ErrCorruptFile, got %v", err)
	}
}

func TestDecodeUnsizedStreamBoundsPreallocation(t *testing.T) {
	var one bytes.Buffer
	if err := Encode(&one, VersionAligned, sampleEntries()[:1]); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	data := append(rawHeader(VersionAligned, math.MaxUint32), one.Bytes()[HeaderSize:]...)

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	_, err := Loader{Policy: TolerantPolicy()}.Decode(bytes.NewReader(data), -1)
	runtime.ReadMemStats(&after)

	var loadErr *LoadError
	if !errors.As(err, &loadErr) || !errors.Is(err, ErrCorruptFile) {
		t.Fatalf("expected ErrCorruptFile, got %v", err)
	}
	if loadErr.Index != 1 {
		t.Fatalf("expected failure at record 1, got %d", loadErr.Index)
	}
	if grew := after.TotalAlloc - before.TotalAlloc; grew > 1<<20 {
		t.Fatalf("decode allocated %d bytes for a one-record stream", grew)
	}
}

func TestLoadUnsupportedVersionReadsNoRecords(t *testing.T) {
	// A huge count with no record bytes would be reported as corrupt if the
	// loader looked past the header.
	path := filepath.Join(t.TempDir(), "cifinish.bin")
	if err := os.WriteFile(path, rawHeader(99, 0xFFFFFFFF), 0o644); err != nil {
		t.Fatal(err)
	}
	for _, policy := range []Policy{TolerantPolicy(), StrictPolicy(3)} {
		_, err := Load(path, policy)
		if !errors.Is(err, ErrUnsupportedVersion) {
			t.Fatalf("%s: expected ErrUnsupportedVersion, got %v", policy.Mode, err)
		}
	}
}

func TestLoadVersionZeroUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cifinish.bin")
	if err := os.WriteFile(path, rawHeader(0, 0), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path, TolerantPolicy()); !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestStrictPolicyRejectsOtherKnownVersions(t *testing.T) {
	path := writeDB(t, VersionPacked, sampleEntries())

	_, err := Load(path, StrictPolicy(VersionAligned))
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
	}
	if !strings.Contains(err.Error(), "regenerate") {
		t.Fatalf("expected actionable message, got %q", err.Error())
	}

	got, err := Load(path, StrictPolicy(VersionPacked))
	if err != nil {
		t.Fatalf("strict v2 Load: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.bin"), TolerantPolicy())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var loadErr *LoadError
	if !errors.As(err, &loadErr) || loadErr.ErrorKind() != "not_found" {
		t.Fatalf("expected not_found kind, got %v", err)
	}
}

func TestLoadZeroEntries(t *testing.T) {
	path := writeDB(t, VersionAligned, nil)
	got, err := Load(path, TolerantPolicy())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no entries, got %d", len(got))
	}
}

func TestDigestTracksContent(t *testing.T) {
	entries := sampleEntries()
	first, err := Loader{Policy: TolerantPolicy()}.Load(writeDB(t, VersionAligned, entries))
	if err != nil {
		t.Fatal(err)
	}
	second, err := Loader{Policy: TolerantPolicy()}.Load(writeDB(t, VersionAligned, entries))
	if err != nil {
		t.Fatal(err)
	}
	if first.Digest == "" || first.Digest != second.Digest {
		t.Fatalf("expected equal non-empty digests, got %q and %q", first.Digest, second.Digest)
	}
	third, err := Loader{Policy: TolerantPolicy()}.Load(writeDB(t, VersionAligned, entries[:1]))
	if err != nil {
		t.Fatal(err)
	}
	if third.Digest == first.Digest {
		t.Fatal("expected digest to change with content")
	}
}

func TestPolicyValidate(t *testing.T) {
	if err := StrictPolicy(4).Validate(); err == nil {
		t.Fatal("expected error for strict version 4")
	}
	if err := (Policy{Mode: "loose"}).Validate(); err == nil {
		t.Fatal("expected error for unknown mode")
	}
	if err := TolerantPolicy().Validate(); err != nil {
		t.Fatalf("tolerant Validate: %v", err)
	}
	if mode, err := ParseMode(" Strict "); err != nil || mode != ModeStrict {
		t.Fatalf("ParseMode = %q, %v", mode, err)
	}
}
