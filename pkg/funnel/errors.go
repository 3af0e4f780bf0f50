package funnel

import (
	"errors"
	"fmt"
)

// ErrorKind classifies client failures.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindTransportInit
	KindTransport
	KindDecode
	KindStatus
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransportInit:
		return "transport_init"
	case KindTransport:
		return "transport"
	case KindDecode:
		return "decode"
	case KindStatus:
		return "status"
	default:
		return "unknown"
	}
}

// TransportInitError reports that the HTTP transport could not be built.
type TransportInitError struct {
	Err error
}

func (e *TransportInitError) Error() string {
	return fmt.Sprintf("init transport: %v", e.Err)
}

func (e *TransportInitError) Unwrap() error { return e.Err }

// TransportError reports a network-level failure: refused connection, DNS,
// TLS, timeout or context cancellation.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError reports a body that is not JSON or does not match the expected shape.
type DecodeError struct {
	URL        string
	StatusCode int
	Snippet    string
	Err        error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode response from %s (status %d): %v body: %s", e.URL, e.StatusCode, e.Err, e.Snippet)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// StatusError reports a non-2xx response. Only returned when WithStatusCheck is set.
type StatusError struct {
	URL        string
	StatusCode int
	Snippet    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d body: %s", e.URL, e.StatusCode, e.Snippet)
}

// MissingFieldError is wrapped by DecodeError when a required field is absent or null.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

// NullElementError is wrapped by DecodeError when a list holds a null entry.
type NullElementError struct {
	Field string
	Index int
}

func (e *NullElementError) Error() string {
	return fmt.Sprintf("null element at %s[%d]", e.Field, e.Index)
}

// KindOf returns the kind of a client error, looking through wrapping.
func KindOf(err error) ErrorKind {
	var (
		initErr      *TransportInitError
		transportErr *TransportError
		decodeErr    *DecodeError
		statusErr    *StatusError
	)
	switch {
	case err == nil:
		return KindUnknown
	case errors.As(err, &initErr):
		return KindTransportInit
	case errors.As(err, &transportErr):
		return KindTransport
	case errors.As(err, &decodeErr):
		return KindDecode
	case errors.As(err, &statusErr):
		return KindStatus
	default:
		return KindUnknown
	}
}
