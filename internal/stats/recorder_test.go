package stats

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/restclient/rest"
)

func okResponse(status int, body string) *rest.ClientResponse[any] {
	return &rest.ClientResponse[any]{StatusCode: status, Raw: []byte(body)}
}

func TestRecorder_CountsOutcomesSeparately(t *testing.T) {
	r := NewRecorder(nil)

	r.Record(10*time.Millisecond, okResponse(200, "hello"), nil)
	r.Record(20*time.Millisecond, okResponse(201, ""), nil)
	r.Record(30*time.Millisecond, nil, &rest.StatusError{StatusCode: 503, Body: []byte("down")})
	r.Record(40*time.Millisecond, nil, &rest.TransportError{Method: "GET", URL: "/", Err: errors.New("refused")})

	s := r.Summary()
	assert.Equal(t, int64(4), s.Total)
	assert.Equal(t, int64(2), s.Succeeded)
	assert.Equal(t, int64(1), s.StatusFailures)
	assert.Equal(t, int64(1), s.TransportFailures)
	assert.Equal(t, int64(9), s.Bytes)
	assert.Equal(t, []StatusCount{{200, 1}, {201, 1}, {503, 1}}, s.StatusCodes)
}

func TestRecorder_Percentiles(t *testing.T) {
	r := NewRecorder(nil)
	for i := 1; i <= 100; i++ {
		r.Record(time.Duration(i)*time.Millisecond, okResponse(200, ""), nil)
	}

	s := r.Summary()
	assert.InDelta(t, float64(time.Millisecond), float64(s.Min), float64(10*time.Microsecond))
	assert.InDelta(t, float64(50*time.Millisecond), float64(s.P50), float64(time.Millisecond))
	assert.InDelta(t, float64(99*time.Millisecond), float64(s.P99), float64(time.Millisecond))
	assert.InDelta(t, float64(100*time.Millisecond), float64(s.Max), float64(time.Millisecond))
	assert.True(t, s.P50 <= s.P90 && s.P90 <= s.P95 && s.P95 <= s.P99)
}

func TestRecorder_EmptySummary(t *testing.T) {
	s := NewRecorder(nil).Summary()
	assert.Zero(t, s.Total)
	assert.Zero(t, s.P99)
	assert.Zero(t, s.Elapsed)
	assert.Empty(t, s.StatusCodes)
}

func TestRecorder_ElapsedUsesClock(t *testing.T) {
	mock := clock.NewMock()
	r := NewRecorder(mock)

	r.Start()
	for i := 0; i < 10; i++ {
		r.Record(time.Millisecond, okResponse(200, ""), nil)
	}
	mock.Add(2 * time.Second)
	r.Stop()
	mock.Add(time.Hour)

	s := r.Summary()
	assert.Equal(t, 2*time.Second, s.Elapsed)
	assert.InDelta(t, 5.0, s.RequestsPerSec, 0.001)
}

func TestRecorder_ConcurrentRecord(t *testing.T) {
	r := NewRecorder(nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Record(time.Millisecond, okResponse(200, "x"), nil)
			}
		}()
	}
	wg.Wait()

	s := r.Summary()
	assert.Equal(t, int64(800), s.Total)
	assert.Equal(t, []StatusCount{{200, 800}}, s.StatusCodes)
}

func TestSummary_Render(t *testing.T) {
	r := NewRecorder(nil)
	r.Record(1500*time.Microsecond, okResponse(200, ""), nil)
	r.Record(2*time.Second, nil, &rest.StatusError{StatusCode: 404})

	var buf bytes.Buffer
	require.NoError(t, r.Summary().Render(&buf))

	out := buf.String()
	assert.Contains(t, out, "Transport failures")
	assert.Contains(t, out, "HTTP 200")
	assert.Contains(t, out, "HTTP 404")
	assert.Contains(t, out, "1.50ms")
}

func TestFormatLatency(t *testing.T) {
	assert.Equal(t, "750µs", formatLatency(750*time.Microsecond))
	assert.Equal(t, "12.50ms", formatLatency(12500*time.Microsecond))
	assert.Equal(t, "1.25s", formatLatency(1250*time.Millisecond))
}
