package pendingdb

import (
	"bufio"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/zeebo/blake3"
)

// maxUnsizedPrealloc bounds the entry slice preallocated when decoding a
// stream of unknown length.
const maxUnsizedPrealloc = 1024

// Database is a fully decoded pending database.
type Database struct {
	Path    string
	Version uint32
	Entries []Entry
	// Digest is the hex blake3 digest of the header and record bytes.
	Digest string
}

// Loader reads pending databases under a version policy.
type Loader struct {
	Policy Policy
}

// Load decodes the file at path using policy and returns its entries in file
// order.
func Load(path string, policy Policy) ([]Entry, error) {
	db, err := Loader{Policy: policy}.Load(path)
	if err != nil {
		return nil, err
	}
	return db.Entries, nil
}

// Load opens and decodes the pending database at path. On any failure the
// returned Database is nil.
func (l Loader) Load(path string) (*Database, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &LoadError{Kind: ErrNotFound, Path: path, Index: -1}
		}
		return nil, fmt.Errorf("open pending database: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat pending database: %w", err)
	}
	db, err := l.decode(bufio.NewReader(file), info.Size())
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Path == "" {
			loadErr.Path = path
		}
		return nil, err
	}
	db.Path = path
	return db, nil
}

// Decode reads a pending database from r. size is the total number of bytes
// available, or -1 when unknown.
func (l Loader) Decode(r io.Reader, size int64) (*Database, error) {
	return l.decode(r, size)
}

func (l Loader) decode(r io.Reader, size int64) (*Database, error) {
	hasher := blake3.New()
	tee := io.TeeReader(r, hasher)

	var hdr header
	if err := binary.Read(tee, binary.LittleEndian, &hdr); err != nil {
		return nil, corrupt("", -1, "short header", err)
	}
	if hdr.Magic != fileMagic {
		return nil, corrupt("", -1, fmt.Sprintf("bad magic %q", hdr.Magic[:]), nil)
	}
	if err := l.Policy.Check(hdr.Version); err != nil {
		return nil, err
	}

	recordSize := RecordSize(hdr.Version)
	if size >= 0 {
		need := int64(HeaderSize) + int64(hdr.Count)*int64(recordSize)
		if size < need {
			return nil, corrupt("", -1, fmt.Sprintf("header declares %d records (%d bytes) but file holds %d bytes", hdr.Count, need, size), nil)
		}
	}

	// Without a known size the declared count is unverified, so only a
	// bounded prefix is preallocated.
	capacity := int(hdr.Count)
	if size < 0 {
		capacity = min(capacity, maxUnsizedPrealloc)
	}
	entries := make([]Entry, 0, capacity)
	raw := make([]byte, recordSize)
	for i := 0; i < int(hdr.Count); i++ {
		if _, err := io.ReadFull(tee, raw); err != nil {
			return nil, corrupt("", i, "short record", err)
		}
		rec, err := decodeRecord(hdr.Version, raw)
		if err != nil {
			return nil, corrupt("", i, "decode record", err)
		}
		if rec.entryMagic() != entryMagic {
			return nil, corrupt("", i, "TITLE magic not found", nil)
		}
		entries = append(entries, rec.canonical())
	}

	return &Database{
		Version: hdr.Version,
		Entries: entries,
		Digest:  hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}
