package platform

import (
	"errors"
	"fmt"
)

// Result is a raw console service result code. Negative values (as int32)
// indicate failure.
type Result uint32

// Result codes produced by the host console store. They reuse the values the
// console itself returns for the equivalent conditions.
const (
	ResultSuccess       Result = 0
	ResultNotFound      Result = 0xC8804478
	ResultInvalidHandle Result = 0xD8E007F7
	ResultBusy          Result = 0xC8A083EF
	ResultInvalidSize   Result = 0xE0E08BFC
	ResultInternal      Result = 0xD8A083FA
)

// Failed reports whether the code denotes a failure.
func (r Result) Failed() bool {
	return int32(r) < 0
}

func (r Result) String() string {
	return fmt.Sprintf("%08x", uint32(r))
}

// ResultError wraps a failed service call.
type ResultError struct {
	Op   string
	Code Result
	Err  error
}

func (e *ResultError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %08x: %v", e.Op, uint32(e.Code), e.Err)
	}
	return fmt.Sprintf("%s: %08x", e.Op, uint32(e.Code))
}

func (e *ResultError) Unwrap() error {
	return e.Err
}

// Fail builds a *ResultError for op.
func Fail(op string, code Result, cause error) error {
	return &ResultError{Op: op, Code: code, Err: cause}
}

// CodeOf extracts the result code from err. ResultInternal is returned for
// errors that did not originate at the service boundary.
func CodeOf(err error) Result {
	if err == nil {
		return ResultSuccess
	}
	var resErr *ResultError
	if errors.As(err, &resErr) {
		return resErr.Code
	}
	return ResultInternal
}
