package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind classifies provider failures.
type ErrorKind string

const (
	// ErrConfiguration means required configuration (typically a credential)
	// is missing or invalid. Surfaces at availability-check time.
	ErrConfiguration ErrorKind = "configuration"
	// ErrTransport means the network call failed or returned a non-success
	// HTTP status.
	ErrTransport ErrorKind = "transport"
	// ErrProtocol means the response body was malformed or missing expected
	// fields.
	ErrProtocol ErrorKind = "protocol"
	// ErrBackend means a well-formed response carried a backend-defined error
	// code, e.g. an invalidated session.
	ErrBackend ErrorKind = "backend"
	// ErrNotFound means the registry has no available provider of the
	// requested kind.
	ErrNotFound ErrorKind = "not_found"
)

// Error is the failure value every adapter operation returns. Adapters never
// let a raw transport or decoding error cross their boundary untyped.
type Error struct {
	Kind     ErrorKind
	Provider string // display name of the provider that failed
	Status   int    // HTTP status, when Kind is ErrTransport
	Code     string // backend error code, when Kind is ErrBackend
	Message  string
	Err      error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Provider != "" {
		return fmt.Sprintf("%s: %s", e.Provider, msg)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errf builds a provider Error with a formatted message.
func Errf(kind ErrorKind, providerName string, format string, args ...any) *Error {
	return &Error{Kind: kind, Provider: providerName, Message: fmt.Sprintf(format, args...)}
}

// IsTransient reports whether an error is safe to retry.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var perr *Error
	if errors.As(err, &perr) {
		if perr.Kind != ErrTransport {
			return false
		}
		if perr.Status == 0 || perr.Status == 429 {
			return true
		}
		return perr.Status >= 500 && perr.Status <= 599
	}
	return false
}
