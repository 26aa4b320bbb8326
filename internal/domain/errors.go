package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the REST client, the series normalizer, and the
// view composer. Every loader failure is one of these; nothing else crosses
// the fetch boundary.

// ErrNotFound reports that a requested entity id has no record.
var ErrNotFound = errors.New("not found")

// NetworkError wraps a transport failure where no response was received.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error for %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError reports a non-success response status.
type HTTPError struct {
	URL    string
	Status int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Status, e.URL)
}

// DecodeError reports a payload that did not match any expected shape.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode error: %s: %v", e.Reason, e.Err)
	}
	return "decode error: " + e.Reason
}

func (e *DecodeError) Unwrap() error { return e.Err }
