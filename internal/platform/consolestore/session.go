package consolestore

import (
	"errors"
)

// Releaser releases a held lock.
type Releaser interface {
	Release() error
}

// Session bundles an open Store with the SD-root lock held for its
// lifetime. Close releases both.
type Session struct {
	Store *Store
	lock  Releaser
}

// NewSession wraps store and lock. lock may be nil.
func NewSession(store *Store, lock Releaser) *Session {
	return &Session{Store: store, lock: lock}
}

// Close closes the store, then releases the lock.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	var errs []error
	if err := s.Store.Close(); err != nil {
		errs = append(errs, err)
	}
	if s.lock != nil {
		if err := s.lock.Release(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
