// Package fileutil holds the file primitives used when rewriting files on
// the SD root, where a torn write would leave the card unusable.
package fileutil

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"
)

// WriteAtomic writes path through write into a temporary file in the same
// directory, syncs it and renames it into place. On any error the original
// file is untouched and the temporary file is removed.
func WriteAtomic(path string, mode os.FileMode, write func(io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if err = write(tmp); err != nil {
		return err
	}
	if err = tmp.Chmod(mode); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// CopyVerified copies src to dst and confirms the copy by re-reading dst
// and comparing blake3 digests. dst is removed on mismatch. The returned
// string is the hex digest.
func CopyVerified(src, dst string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	srcHasher := blake3.New()
	err = WriteAtomic(dst, 0o644, func(w io.Writer) error {
		_, err := io.Copy(w, io.TeeReader(in, srcHasher))
		return err
	})
	if err != nil {
		return "", err
	}

	dstDigest, err := Digest(dst)
	if err != nil {
		return "", err
	}
	srcDigest := srcHasher.Sum(nil)
	if !bytes.Equal(srcDigest, dstDigest) {
		_ = os.Remove(dst)
		return "", fmt.Errorf("copy %s: digest mismatch", dst)
	}
	return hex.EncodeToString(srcDigest), nil
}

// Digest returns the blake3-256 digest of the file at path.
func Digest(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, fmt.Errorf("hash %s: %w", path, err)
	}
	return h.Sum(nil), nil
}
