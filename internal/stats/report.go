package stats

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
)

// Render writes the summary as two tables: outcomes and latency percentiles.
func (s Summary) Render(w io.Writer) error {
	outcomes := tablewriter.NewWriter(w)
	outcomes.Header([]string{"Metric", "Value"})
	rows := [][]string{
		{"Requests", strconv.FormatInt(s.Total, 10)},
		{"Succeeded", strconv.FormatInt(s.Succeeded, 10)},
		{"Status failures", strconv.FormatInt(s.StatusFailures, 10)},
		{"Transport failures", strconv.FormatInt(s.TransportFailures, 10)},
		{"Bytes received", strconv.FormatInt(s.Bytes, 10)},
		{"Elapsed", s.Elapsed.Round(time.Millisecond).String()},
		{"Requests/sec", fmt.Sprintf("%.2f", s.RequestsPerSec)},
	}
	for _, sc := range s.StatusCodes {
		rows = append(rows, []string{"HTTP " + strconv.Itoa(sc.Code), strconv.FormatInt(sc.Count, 10)})
	}
	for _, row := range rows {
		if err := outcomes.Append(row); err != nil {
			return err
		}
	}
	if err := outcomes.Render(); err != nil {
		return err
	}

	latency := tablewriter.NewWriter(w)
	latency.Header([]string{"Min", "Mean", "P50", "P90", "P95", "P99", "Max"})
	if err := latency.Append([]string{
		formatLatency(s.Min),
		formatLatency(s.Mean),
		formatLatency(s.P50),
		formatLatency(s.P90),
		formatLatency(s.P95),
		formatLatency(s.P99),
		formatLatency(s.Max),
	}); err != nil {
		return err
	}
	return latency.Render()
}

func formatLatency(d time.Duration) string {
	switch {
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.2fms", float64(d)/float64(time.Millisecond))
	default:
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
}
