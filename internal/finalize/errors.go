package finalize

import (
	"errors"
	"fmt"
)

var (
	// ErrQueryFailure reports that installed state could not be listed.
	ErrQueryFailure = errors.New("installed state query failed")
	// ErrSeedFailure reports that a seed could not be stored.
	ErrSeedFailure = errors.New("seed install failed")
)

// QueryError wraps a failed installed-state query. Nothing has been
// installed when it is returned.
type QueryError struct {
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%v: %v", ErrQueryFailure, e.Err)
}

func (e *QueryError) Is(target error) bool {
	return target == ErrQueryFailure
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// ErrorKind classifies the failure for reporting.
func (e *QueryError) ErrorKind() string {
	return "query_failure"
}

// ErrorClassifier is implemented by errors that declare their classification.
type ErrorClassifier interface {
	ErrorKind() string
}

// ErrorKind maps a run error to a stable classification: not_found,
// corrupt_file, unsupported_version, transaction_failure or query_failure.
// Unclassified errors map to io_failure and nil maps to "".
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	var classifier ErrorClassifier
	if errors.As(err, &classifier) {
		return classifier.ErrorKind()
	}
	return "io_failure"
}
