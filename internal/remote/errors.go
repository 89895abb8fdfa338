package remote

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrNetwork = errors.New("network error")
	ErrService = errors.New("service error")
)

// ErrorKind classifies a RemoteError.
type ErrorKind int

const (
	// KindNetwork is a transport or connection failure; no response was received.
	KindNetwork ErrorKind = iota
	// KindService is a non-2xx response or a response body that could not be parsed.
	KindService
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindService:
		return "service"
	default:
		return "unknown"
	}
}

// RemoteError is the single error type returned by Client operations.
type RemoteError struct {
	Kind    ErrorKind
	Op      string // "encode", "decode", "health", "info"
	Status  int    // HTTP status, 0 for network errors
	Message string // Human readable message, the service's "error" field when present
	Err     error  // Underlying transport/parse error, if any
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s error (status %d): %s", e.Op, e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s error: %s", e.Op, e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Is reports ErrNetwork / ErrService according to the error kind.
func (e *RemoteError) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrService:
		return e.Kind == KindService
	}
	return false
}

// Message extracts the user-facing message of err.
//
// For a RemoteError this is the service message; otherwise err.Error().
func Message(err error) string {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Message
	}
	return err.Error()
}
