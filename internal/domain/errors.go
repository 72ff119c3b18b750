package domain

import (
	"errors"
	"fmt"
)

// ErrNotObject is returned when a payload that must be a JSON object is not.
var ErrNotObject = errors.New("not a JSON object")

// TransportError covers connectivity failures, timeouts, an open circuit
// breaker, and non-2xx responses other than 404.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: upstream returned status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// NotFoundError means the date is valid but the upstream holds no data for it.
type NotFoundError struct {
	Date DateKey
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no storm data for date %s", e.Date)
}

// EmptyResultError means the payload arrived but held no storm-shaped entries.
type EmptyResultError struct {
	Date    DateKey
	Skipped int
}

func (e *EmptyResultError) Error() string {
	if e.Skipped > 0 {
		return fmt.Sprintf("no storms for date %s (%d entries skipped)", e.Date, e.Skipped)
	}
	return fmt.Sprintf("no storms for date %s", e.Date)
}

// MalformedInputError means the payload is missing the expected envelope.
type MalformedInputError struct {
	Reason string
	Err    error
}

func (e *MalformedInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed payload: %s: %v", e.Reason, e.Err)
	}
	return "malformed payload: " + e.Reason
}

func (e *MalformedInputError) Unwrap() error { return e.Err }
