package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrInvalidCredentials is returned for a credentials mode outside
// omit, same-origin and include.
var ErrInvalidCredentials = errors.New("rest: invalid credentials mode")

// ErrNoTransport is the rejection for a Builder created without a Transport.
var ErrNoTransport = errors.New("rest: builder has no transport")

// ErrNilBuilder is the rejection for executing a nil *Builder.
var ErrNilBuilder = errors.New("rest: nil builder")

// Sentinel StatusError values for use with errors.Is. They match on status
// code only.
var (
	ErrUnauthorized = &StatusError{StatusCode: http.StatusUnauthorized}
	ErrForbidden    = &StatusError{StatusCode: http.StatusForbidden}
	ErrNotFound     = &StatusError{StatusCode: http.StatusNotFound}
	ErrRateLimited  = &StatusError{StatusCode: http.StatusTooManyRequests}
)

// StatusError is the rejection for a response whose status is outside the
// 2xx range. The response was received in full; Body holds the raw payload.
type StatusError struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("rest: unexpected status %s", e.Status)
	}
	return fmt.Sprintf("rest: unexpected status %d", e.StatusCode)
}

// Is matches another *StatusError with the same status code, so that
//
//	errors.Is(err, rest.ErrNotFound)
//
// works for any 404 rejection.
func (e *StatusError) Is(target error) bool {
	t, ok := target.(*StatusError)
	if !ok {
		return false
	}
	return e.StatusCode == t.StatusCode
}

// Decode unmarshals the error payload as JSON into v.
func (e *StatusError) Decode(v any) error {
	if len(e.Body) == 0 {
		return errors.New("rest: empty error body")
	}
	return json.Unmarshal(e.Body, v)
}

// IsClientError returns true for 4xx statuses.
func (e *StatusError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// IsServerError returns true for 5xx statuses.
func (e *StatusError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// TransportError wraps a failure below the HTTP layer: connection refused,
// DNS, TLS, timeout or a cancelled context. No response was received.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("rest: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// EncodeError reports a part of the request that could not be serialized.
// Part is "body" unless it names a query parameter or a URI segment.
type EncodeError struct {
	Part string
	Err  error
}

func (e *EncodeError) Error() string {
	part := e.Part
	if part == "" {
		part = "body"
	}
	return fmt.Sprintf("rest: encode request %s: %v", part, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// DecodeError reports a successful response whose body could not be decoded
// into the requested type.
type DecodeError struct {
	StatusCode  int
	ContentType string
	Err         error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("rest: decode response body (status %d, content type %q): %v", e.StatusCode, e.ContentType, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsNetworkError reports whether err is a transport-level failure, as opposed
// to a non-success status or a codec failure.
func IsNetworkError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// AsStatusError extracts a *StatusError from err's chain.
func AsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
