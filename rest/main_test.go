package rest

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"go.uber.org/goleak"
)

// TestMain checks that executions and continuations never leave goroutines
// behind.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

// recordingTransport records every request it receives and answers with a
// fixed response or error.
type recordingTransport struct {
	mu       sync.Mutex
	requests []*Request
	response *RawResponse
	err      error

	// release, when non-nil, blocks Send until it is closed.
	release chan struct{}
}

func (t *recordingTransport) Send(ctx context.Context, req *Request) (*RawResponse, error) {
	t.mu.Lock()
	t.requests = append(t.requests, req)
	release := t.release
	t.mu.Unlock()

	if release != nil {
		<-release
	}

	if t.err != nil {
		return nil, t.err
	}
	if t.response != nil {
		return t.response, nil
	}
	return &RawResponse{StatusCode: http.StatusOK, Status: "200 OK", Header: make(http.Header)}, nil
}

func (t *recordingTransport) sent() []*Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*Request(nil), t.requests...)
}

func jsonResponse(status int, body string) *RawResponse {
	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	return &RawResponse{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     header,
		Body:       []byte(body),
	}
}
