package pendingdb

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Schema versions.
const (
	VersionLegacy  uint32 = 1
	VersionPacked  uint32 = 2
	VersionAligned uint32 = 3

	MinVersion     = VersionLegacy
	MaxVersion     = VersionAligned
	CurrentVersion = VersionAligned
)

// HeaderSize is the size of the fixed file header.
const HeaderSize = 16

// SeedSize is the length of a title decryption seed.
const SeedSize = 16

var (
	fileMagic  = [8]byte{'C', 'I', 'F', 'I', 'N', 'I', 'S', 'H'}
	entryMagic = [6]byte{'T', 'I', 'T', 'L', 'E', 0}
)

type header struct {
	Magic   [8]byte
	Version uint32
	Count   uint32
}

// Entry is the version-independent form of a pending record.
type Entry struct {
	TitleID uint64
	HasSeed bool
	// Seed is only meaningful when HasSeed is set.
	Seed [SeedSize]byte
	// SourceVersion is the schema version the entry was decoded from.
	SourceVersion uint32
	// CommonKeyIndex is carried by version 1 records only.
	CommonKeyIndex uint8
}

// record is a decoded on-disk record of one specific layout.
type record interface {
	entryMagic() [6]byte
	canonical() Entry
}

// recordV1 is the original 0x30-byte layout. The title key is never used.
type recordV1 struct {
	TitleID        uint64
	CommonKeyIndex uint8
	HasSeed        uint8
	Magic          [6]byte
	TitleKey       [16]byte
	Seed           [SeedSize]byte
}

func (r *recordV1) entryMagic() [6]byte { return r.Magic }

func (r *recordV1) canonical() Entry {
	return Entry{
		TitleID:        r.TitleID,
		HasSeed:        r.HasSeed != 0,
		Seed:           r.Seed,
		SourceVersion:  VersionLegacy,
		CommonKeyIndex: r.CommonKeyIndex,
	}
}

// recordV2 matches what the version 2 host writer emits: the title id
// directly follows the magic, unaligned, ahead of the seed flag.
type recordV2 struct {
	Magic   [6]byte
	TitleID uint64
	HasSeed uint8
	Pad     uint8
	Seed    [SeedSize]byte
}

func (r *recordV2) entryMagic() [6]byte { return r.Magic }

func (r *recordV2) canonical() Entry {
	return Entry{TitleID: r.TitleID, HasSeed: r.HasSeed != 0, Seed: r.Seed, SourceVersion: VersionPacked}
}

// recordV3 keeps the title id on an 8-byte boundary.
type recordV3 struct {
	Magic   [6]byte
	HasSeed uint8
	Pad     uint8
	TitleID uint64
	Seed    [SeedSize]byte
}

func (r *recordV3) entryMagic() [6]byte { return r.Magic }

func (r *recordV3) canonical() Entry {
	return Entry{TitleID: r.TitleID, HasSeed: r.HasSeed != 0, Seed: r.Seed, SourceVersion: VersionAligned}
}

func newRecord(version uint32) (record, error) {
	switch version {
	case VersionLegacy:
		return &recordV1{}, nil
	case VersionPacked:
		return &recordV2{}, nil
	case VersionAligned:
		return &recordV3{}, nil
	default:
		return nil, fmt.Errorf("no record layout for version %d", version)
	}
}

// RecordSize returns the on-disk record size for version, or 0 when the
// version has no known layout.
func RecordSize(version uint32) int {
	rec, err := newRecord(version)
	if err != nil {
		return 0
	}
	return binary.Size(rec)
}

func decodeRecord(version uint32, raw []byte) (record, error) {
	rec, err := newRecord(version)
	if err != nil {
		return nil, err
	}
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func encodeRecord(version uint32, e Entry) (any, error) {
	var hasSeed uint8
	if e.HasSeed {
		hasSeed = 1
	}
	switch version {
	case VersionLegacy:
		return &recordV1{TitleID: e.TitleID, CommonKeyIndex: e.CommonKeyIndex, HasSeed: hasSeed, Magic: entryMagic, Seed: e.Seed}, nil
	case VersionPacked:
		return &recordV2{Magic: entryMagic, TitleID: e.TitleID, HasSeed: hasSeed, Seed: e.Seed}, nil
	case VersionAligned:
		return &recordV3{Magic: entryMagic, HasSeed: hasSeed, TitleID: e.TitleID, Seed: e.Seed}, nil
	default:
		return nil, fmt.Errorf("no record layout for version %d", version)
	}
}
