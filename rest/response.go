package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
)

// TimingInfo stores detailed timing information for an HTTP request.
type TimingInfo struct {
	// StartTime is when the request started
	StartTime time.Time

	// DNSLookupTime is the time spent looking up the DNS address
	DNSLookupTime time.Duration

	// TCPConnectTime is the time spent establishing a TCP connection
	TCPConnectTime time.Duration

	// TLSHandshakeTime is the time spent performing the TLS handshake (for HTTPS)
	TLSHandshakeTime time.Duration

	// TimeToFirstByte is the time from the last connection phase to the first response byte
	TimeToFirstByte time.Duration

	// ContentTransferTime is the time spent reading the response body
	ContentTransferTime time.Duration

	// TotalTime is the total time from request start to completion
	TotalTime time.Duration
}

// RawResponse is what a Transport returns: a fully read response.
type RawResponse struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
	Timing     TimingInfo
}

// ClientResponse is a successful response whose body was decoded as T.
type ClientResponse[T any] struct {
	// StatusCode is the HTTP status code (always 2xx)
	StatusCode int

	// Status is the HTTP status line text (e.g., "201 Created")
	Status string

	// Headers contains the response headers
	Headers http.Header

	// Body is the decoded payload
	Body T

	// Raw is the undecoded payload
	Raw []byte

	// Timing contains detailed timing information
	Timing TimingInfo
}

// GetHeader returns the value of the specified header, or "" if absent.
func (r *ClientResponse[T]) GetHeader(key string) string {
	return r.Headers.Get(key)
}

// IsSuccess returns true if the response status code is in the 2xx range.
func (r *ClientResponse[T]) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// GetTotalTimeMillis returns the total time in milliseconds.
func (r *ClientResponse[T]) GetTotalTimeMillis() int64 {
	return r.Timing.TotalTime.Milliseconds()
}

// GetTimeToFirstByteMillis returns the time to first byte in milliseconds.
func (r *ClientResponse[T]) GetTimeToFirstByteMillis() int64 {
	return r.Timing.TimeToFirstByte.Milliseconds()
}

func newClientResponse[T any](raw *RawResponse) (*ClientResponse[T], error) {
	body, err := decodeBody[T](raw)
	if err != nil {
		return nil, err
	}
	return &ClientResponse[T]{
		StatusCode: raw.StatusCode,
		Status:     raw.Status,
		Headers:    raw.Header,
		Body:       body,
		Raw:        raw.Body,
		Timing:     raw.Timing,
	}, nil
}

func decodeBody[T any](raw *RawResponse) (T, error) {
	var out T
	if len(raw.Body) == 0 {
		return out, nil
	}

	contentType := raw.Header.Get("Content-Type")
	fail := func(err error) (T, error) {
		var zero T
		return zero, &DecodeError{StatusCode: raw.StatusCode, ContentType: contentType, Err: err}
	}

	switch target := any(&out).(type) {
	case *[]byte:
		*target = raw.Body
		return out, nil
	case *json.RawMessage:
		*target = raw.Body
		return out, nil
	case *string:
		text, err := decodeText(raw.Body, contentType)
		if err != nil {
			return fail(err)
		}
		*target = text
		return out, nil
	case *any:
		if isJSONContentType(contentType) || json.Valid(raw.Body) {
			if err := json.Unmarshal(raw.Body, target); err != nil {
				return fail(err)
			}
			return out, nil
		}
		text, err := decodeText(raw.Body, contentType)
		if err != nil {
			return fail(err)
		}
		*target = text
		return out, nil
	}

	if !isJSONContentType(contentType) && !json.Valid(raw.Body) {
		return fail(fmt.Errorf("payload is not JSON and cannot be decoded into %T", out))
	}
	if err := json.Unmarshal(raw.Body, &out); err != nil {
		return fail(err)
	}
	return out, nil
}

func isJSONContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// decodeText converts body to UTF-8 using the charset declared in contentType.
func decodeText(body []byte, contentType string) (string, error) {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil || params["charset"] == "" {
		return string(body), nil
	}
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return "", err
	}
	text, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(text), nil
}
