package sdroot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"

	"cifinalize/internal/config"
)

// LockFileName is created inside the SD root.
const LockFileName = ".cifinalize.lock"

var (
	// ErrLocked reports that another run holds the SD root.
	ErrLocked = errors.New("another cifinalize run holds the SD root")
	// ErrNotMounted reports that the SD root does not exist or is not a directory.
	ErrNotMounted = errors.New("sd root is not available")
)

// Paths are the resolved locations for one run.
type Paths struct {
	Root    string
	Pending string
	Lock    string
}

// Resolve validates the configured SD root and returns the run paths.
func Resolve(cfg *config.Config) (Paths, error) {
	root := filepath.Clean(cfg.Paths.SDRoot)
	info, err := os.Stat(root)
	if err != nil {
		return Paths{}, fmt.Errorf("%w: %s: %w", ErrNotMounted, root, err)
	}
	if !info.IsDir() {
		return Paths{}, fmt.Errorf("%w: %s is not a directory", ErrNotMounted, root)
	}
	return Paths{
		Root:    root,
		Pending: cfg.PendingPath(),
		Lock:    filepath.Join(root, LockFileName),
	}, nil
}

// Lock is a held SD-root lock.
type Lock struct {
	path  string
	flock *flock.Flock
}

// Acquire takes the SD-root lock without blocking.
func Acquire(root string) (*Lock, error) {
	path := filepath.Join(root, LockFileName)
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (%s)", ErrLocked, path)
	}
	return &Lock{path: path, flock: fl}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Release drops the lock. The lock file is left in place.
func (l *Lock) Release() error {
	if l == nil || l.flock == nil {
		return nil
	}
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("release lock %s: %w", l.path, err)
	}
	return nil
}

// CheckWritable reports whether files under root can be created and removed.
func CheckWritable(root string) error {
	if err := unix.Access(root, unix.W_OK|unix.X_OK); err != nil {
		return fmt.Errorf("sd root %s is not writable: %w", root, err)
	}
	return nil
}
