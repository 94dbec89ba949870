package insdb

import (
	"errors"
	"fmt"
)

// Common resolution error types
var (
	// ErrNotFound is returned when an identifier does not resolve to an
	// object of the requested kind. Every NotFoundError matches it with
	// errors.Is.
	ErrNotFound = errors.New("object not found")

	// ErrNoLocalFile is returned when opening a data file that has no file
	// on disk (a metadata-only record, or a record fetched remotely).
	ErrNoLocalFile = errors.New("data file has no local file")

	// ErrNoDownloadURL is returned when downloading a data file that has
	// no download URL.
	ErrNoDownloadURL = errors.New("data file has no download URL")
)

// NotFoundError reports which identifier failed to resolve and at which
// step of the resolution the failure happened. It never corrupts backend
// state: the failing call is the only one affected.
type NotFoundError struct {
	Kind       Kind
	Identifier string
	Detail     string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s not found: %q: %s", e.Kind, e.Identifier, e.Detail)
	}
	return fmt.Sprintf("%s not found: %q", e.Kind, e.Identifier)
}

// Is reports a match against ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// MalformedIdentifierError is reported when an identifier cannot be
// classified: a release path with too few segments, or a string claimed to
// be a UUID that is not one. It is always raised before any index or
// network access.
type MalformedIdentifierError struct {
	Identifier string
	Reason     string
}

// Error implements the error interface.
func (e *MalformedIdentifierError) Error() string {
	return fmt.Sprintf("malformed identifier %q: %s", e.Identifier, e.Reason)
}

// FormatError reports a local schema document that is missing, unparsable
// or internally inconsistent (a cross reference pointing to an absent
// UUID). It is fatal to backend construction: no partially built index is
// ever returned.
type FormatError struct {
	Path    string // storage location, when known
	Message string
	Err     error
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Path != "" {
		return fmt.Sprintf("invalid catalog at %q: %s", e.Path, msg)
	}
	return "invalid catalog: " + msg
}

// Unwrap returns the underlying decoding error, if any.
func (e *FormatError) Unwrap() error {
	return e.Err
}

// ConnectionError reports a failed request against a remote catalog,
// carrying the HTTP status and (truncated) response body for diagnostics.
// Except during login, the failing call is fatal only to itself; the
// client stays usable.
type ConnectionError struct {
	URL        string
	StatusCode int
	Body       string
	Message    string
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: %s returned status %d: %s", e.Message, e.URL, e.StatusCode, e.Body)
}

// IsNotFound returns true if the error is a resolution failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsMalformedIdentifier returns true if the error is a
// MalformedIdentifierError.
func IsMalformedIdentifier(err error) bool {
	var mErr *MalformedIdentifierError
	return errors.As(err, &mErr)
}

// IsFormatError returns true if the error is a FormatError.
func IsFormatError(err error) bool {
	var fErr *FormatError
	return errors.As(err, &fErr)
}

// IsConnectionError returns true if the error is a ConnectionError.
func IsConnectionError(err error) bool {
	var cErr *ConnectionError
	return errors.As(err, &cErr)
}
