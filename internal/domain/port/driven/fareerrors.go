package driven

import (
	"errors"
	"fmt"
)

// Sentinel errors shared between the fare API adapter and the application
// core. They are part of the FareClient port contract.
var (
	// ErrAuthInputInvalid marks a credential with an empty (after trim)
	// card number or password. Such a credential never reaches the network.
	ErrAuthInputInvalid = errors.New("card number and password must not be empty")

	// ErrAuthenticationFailed covers HTTP 401 responses and rejected
	// auth-probe envelopes, regardless of body content.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrInvalidResponse marks a 2xx envelope that reports success but
	// carries no data payload.
	ErrInvalidResponse = errors.New("response envelope missing data")
)

// TransportKind classifies transport-level failures.
type TransportKind string

const (
	TransportTimeout          TransportKind = "timeout"
	TransportConnectionFailed TransportKind = "connection_failed"
	TransportCancelled        TransportKind = "cancelled"
)

// TransportError wraps a failure from the HTTP layer with its classification.
type TransportError struct {
	Kind TransportKind
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransportCancelled reports whether err is a transport-level
// cancellation. The retry wrapper uses this to separate "my caller
// cancelled me" from "the session layer cancelled my socket".
func IsTransportCancelled(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Kind == TransportCancelled
}

// ServerError is a non-2xx response or an envelope with success=false.
// Message carries the server's own failure text when the envelope
// provided one.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

// DecodeError is a malformed response body.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
