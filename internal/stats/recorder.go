// Package stats aggregates request latencies and outcomes for the bench
// command.
package stats

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/benbjohnson/clock"

	"github.com/wesleyorama2/restclient/rest"
)

// Histogram range in microseconds: 1µs to 1 hour, 3 significant figures.
const (
	histogramMin     int64 = 1
	histogramMax     int64 = 3_600_000_000
	histogramSigFigs       = 3
)

// Recorder collects outcomes of executed requests.
//
// Recorder is safe for concurrent use. Counters are atomic; the histogram
// and status code table are guarded by a mutex.
type Recorder struct {
	clock clock.Clock

	mu          sync.Mutex
	hist        *hdrhistogram.Histogram
	statusCodes map[int]int64
	start       time.Time
	end         time.Time

	total             atomic.Int64
	succeeded         atomic.Int64
	statusFailures    atomic.Int64
	transportFailures atomic.Int64
	bytes             atomic.Int64
}

// NewRecorder returns a recorder whose elapsed time is measured with clk.
// A nil clk uses the wall clock.
func NewRecorder(clk clock.Clock) *Recorder {
	if clk == nil {
		clk = clock.New()
	}
	return &Recorder{
		clock:       clk,
		hist:        hdrhistogram.New(histogramMin, histogramMax, histogramSigFigs),
		statusCodes: make(map[int]int64),
	}
}

// Start marks the beginning of the measured run.
func (r *Recorder) Start() {
	r.mu.Lock()
	r.start = r.clock.Now()
	r.end = time.Time{}
	r.mu.Unlock()
}

// Stop marks the end of the measured run.
func (r *Recorder) Stop() {
	r.mu.Lock()
	r.end = r.clock.Now()
	r.mu.Unlock()
}

// Record adds one execution. resp is the resolved response, err the
// rejection; exactly one of them is expected to be set. Status rejections
// and transport failures are counted separately.
func (r *Recorder) Record(latency time.Duration, resp *rest.ClientResponse[any], err error) {
	latencyMicros := latency.Microseconds()
	if latencyMicros < histogramMin {
		latencyMicros = histogramMin
	}
	if latencyMicros > histogramMax {
		latencyMicros = histogramMax
	}

	status := 0
	switch {
	case err == nil && resp != nil:
		status = resp.StatusCode
		r.succeeded.Add(1)
		r.bytes.Add(int64(len(resp.Raw)))
	default:
		if statusErr, ok := rest.AsStatusError(err); ok {
			status = statusErr.StatusCode
			r.statusFailures.Add(1)
			r.bytes.Add(int64(len(statusErr.Body)))
		} else {
			r.transportFailures.Add(1)
		}
	}
	r.total.Add(1)

	r.mu.Lock()
	_ = r.hist.RecordValue(latencyMicros)
	if status != 0 {
		r.statusCodes[status]++
	}
	r.mu.Unlock()
}

// StatusCount is the number of responses with one status code.
type StatusCount struct {
	Code  int
	Count int64
}

// Summary is a point-in-time view of a Recorder.
type Summary struct {
	Total             int64
	Succeeded         int64
	StatusFailures    int64
	TransportFailures int64
	Bytes             int64

	Elapsed        time.Duration
	RequestsPerSec float64

	Min  time.Duration
	Mean time.Duration
	P50  time.Duration
	P90  time.Duration
	P95  time.Duration
	P99  time.Duration
	Max  time.Duration

	// StatusCodes is ordered by code.
	StatusCodes []StatusCount
}

// Summary returns the current aggregates. A run that was started but not
// stopped reports elapsed time up to now.
func (r *Recorder) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Summary{
		Total:             r.total.Load(),
		Succeeded:         r.succeeded.Load(),
		StatusFailures:    r.statusFailures.Load(),
		TransportFailures: r.transportFailures.Load(),
		Bytes:             r.bytes.Load(),
	}

	if r.hist.TotalCount() > 0 {
		s.Min = time.Duration(r.hist.Min()) * time.Microsecond
		s.Mean = time.Duration(r.hist.Mean()) * time.Microsecond
		s.P50 = time.Duration(r.hist.ValueAtQuantile(50)) * time.Microsecond
		s.P90 = time.Duration(r.hist.ValueAtQuantile(90)) * time.Microsecond
		s.P95 = time.Duration(r.hist.ValueAtQuantile(95)) * time.Microsecond
		s.P99 = time.Duration(r.hist.ValueAtQuantile(99)) * time.Microsecond
		s.Max = time.Duration(r.hist.Max()) * time.Microsecond
	}

	if !r.start.IsZero() {
		end := r.end
		if end.IsZero() {
			end = r.clock.Now()
		}
		s.Elapsed = end.Sub(r.start)
		if s.Elapsed > 0 {
			s.RequestsPerSec = float64(s.Total) / s.Elapsed.Seconds()
		}
	}

	for code, count := range r.statusCodes {
		s.StatusCodes = append(s.StatusCodes, StatusCount{Code: code, Count: count})
	}
	sort.Slice(s.StatusCodes, func(i, j int) bool {
		return s.StatusCodes[i].Code < s.StatusCodes[j].Code
	})

	return s
}
