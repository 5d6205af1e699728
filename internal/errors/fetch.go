package errors

import (
	"errors"
	"fmt"
)

// FetchError is returned when a listing, detail or video request fails,
// either in transport or with a non-success status.
type FetchError struct {
	Op         string // "listing", "details" or "videos"
	StatusCode int    // zero for transport failures
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("fetch %s: HTTP %d: %v", e.Op, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("fetch %s: HTTP %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %v", e.Op, e.Err)
	}
	return "fetch " + e.Op + " failed"
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError wraps err as a FetchError for the given operation.
func NewFetchError(op string, statusCode int, err error) *FetchError {
	return &FetchError{Op: op, StatusCode: statusCode, Err: err}
}

// IsFetchError reports whether err is a FetchError (even when wrapped).
func IsFetchError(err error) bool {
	var fetchErr *FetchError
	return errors.As(err, &fetchErr)
}

// StatusCode returns the HTTP status carried by a wrapped FetchError, or 0.
func StatusCode(err error) int {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.StatusCode
	}
	return 0
}
