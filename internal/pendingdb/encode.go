package pendingdb

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cifinalize/internal/fileutil"
)

// Encode writes a pending database with the given schema version.
func Encode(w io.Writer, version uint32, entries []Entry) error {
	if RecordSize(version) == 0 {
		return fmt.Errorf("encode pending database: unknown version %d", version)
	}
	hdr := header{Magic: fileMagic, Version: version, Count: uint32(len(entries))}
	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, entry := range entries {
		rec, err := encodeRecord(version, entry)
		if err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, rec); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}
	return nil
}

// WriteFile encodes entries to path, atomically replacing any existing file.
func WriteFile(path string, version uint32, entries []Entry) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create pending directory: %w", err)
		}
	}
	return fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		buf := bufio.NewWriter(w)
		if err := Encode(buf, version, entries); err != nil {
			return err
		}
		return buf.Flush()
	})
}
