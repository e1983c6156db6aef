package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/wesleyorama2/restclient/rest"
)

// Formatter renders requests and responses as human-readable text
type Formatter struct {
	Verbose bool
	NoColor bool
	colors  *ColorScheme
}

// NewFormatter creates a new formatter with the given options
func NewFormatter(verbose, noColor bool) *Formatter {
	return &Formatter{
		Verbose: verbose,
		NoColor: noColor,
		colors:  NewColorScheme(noColor),
	}
}

// FormatRequest formats a request snapshot for display. Relative URIs are
// shown resolved against baseURL.
func (f *Formatter) FormatRequest(req *rest.Request, baseURL string) string {
	var buf strings.Builder

	target := req.URI
	if u, err := req.URL(baseURL); err == nil {
		target = u.String()
	}

	fmt.Fprintf(&buf, "▶ REQUEST: %s %s\n", f.colors.Method.Sprint(req.Method), f.colors.URL.Sprint(target))

	if f.Verbose || len(req.Header) > 0 {
		buf.WriteString("  Headers:\n")
		f.writeHeaders(&buf, req.Header)
	}

	if f.Verbose && req.Credentials != "" {
		fmt.Fprintf(&buf, "  Credentials: %s\n", req.Credentials)
	}

	if len(req.Body) > 0 {
		buf.WriteString("  Body: ")
		buf.WriteString(formatJSONString(req.Body))
		buf.WriteString("\n")
	}

	return buf.String()
}

// FormatResponse formats a successful response for display
func (f *Formatter) FormatResponse(resp *rest.ClientResponse[any]) string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "◀ RESPONSE: %s (%dms)\n",
		f.colors.Status(resp.StatusCode).Sprint(statusText(resp.StatusCode, resp.Status)),
		resp.GetTotalTimeMillis())

	if f.Verbose {
		t := resp.Timing
		buf.WriteString("  Timing:\n")
		fmt.Fprintf(&buf, "    DNS Lookup:         %dms\n", t.DNSLookupTime.Milliseconds())
		fmt.Fprintf(&buf, "    TCP Connection:     %dms\n", t.TCPConnectTime.Milliseconds())
		fmt.Fprintf(&buf, "    TLS Handshake:      %dms\n", t.TLSHandshakeTime.Milliseconds())
		fmt.Fprintf(&buf, "    Time to First Byte: %dms\n", t.TimeToFirstByte.Milliseconds())
		fmt.Fprintf(&buf, "    Content Transfer:   %dms\n", t.ContentTransferTime.Milliseconds())
		fmt.Fprintf(&buf, "    Total:              %dms\n", t.TotalTime.Milliseconds())

		buf.WriteString("  Headers:\n")
		f.writeHeaders(&buf, resp.Headers)
	}

	if len(resp.Raw) > 0 {
		buf.WriteString("  Body:\n")
		buf.WriteString(formatJSONString(resp.Raw))
		buf.WriteString("\n")
	}

	return buf.String()
}

// FormatError formats a rejected execution. Status errors keep their body so
// the server's explanation is visible.
func (f *Formatter) FormatError(err error) string {
	var buf strings.Builder

	if statusErr, ok := rest.AsStatusError(err); ok {
		fmt.Fprintf(&buf, "◀ RESPONSE: %s\n",
			f.colors.Status(statusErr.StatusCode).Sprint(statusText(statusErr.StatusCode, statusErr.Status)))
		if f.Verbose {
			buf.WriteString("  Headers:\n")
			f.writeHeaders(&buf, statusErr.Header)
		}
		if len(statusErr.Body) > 0 {
			buf.WriteString("  Body:\n")
			buf.WriteString(formatJSONString(statusErr.Body))
			buf.WriteString("\n")
		}
		return buf.String()
	}

	fmt.Fprintf(&buf, "%s %s\n", ErrorIcon(f.NoColor), f.colors.Error.Sprint(err.Error()))
	return buf.String()
}

// FormatVariables formats values extracted from a response body
func (f *Formatter) FormatVariables(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}

	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf strings.Builder
	buf.WriteString(f.colors.Label.Sprint("Extracted:") + "\n")
	for _, name := range names {
		fmt.Fprintf(&buf, "  %s = %s\n", name, vars[name])
	}
	return buf.String()
}

// FormatSchemaResult formats the outcome of validating a body against a schema
func (f *Formatter) FormatSchemaResult(name string, err error) string {
	if err == nil {
		return fmt.Sprintf("%s Schema %s: %s\n", SuccessIcon(f.NoColor), name, f.colors.Success.Sprint("valid"))
	}
	return fmt.Sprintf("%s Schema %s: %s\n", ErrorIcon(f.NoColor), name, f.colors.Error.Sprint(err.Error()))
}

func (f *Formatter) writeHeaders(buf *strings.Builder, header http.Header) {
	keys := make([]string, 0, len(header))
	for key := range header {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		for _, value := range header[key] {
			fmt.Fprintf(buf, "    %s: %s\n", f.colors.HeaderKey.Sprint(key), value)
		}
	}
}

func statusText(code int, status string) string {
	if status != "" {
		return status
	}
	return fmt.Sprintf("%d %s", code, http.StatusText(code))
}

// formatJSONString attempts to pretty-print a JSON payload
func formatJSONString(data []byte) string {
	var prettyJSON bytes.Buffer
	if err := json.Indent(&prettyJSON, data, "  ", "  "); err != nil {
		return string(data)
	}
	return prettyJSON.String()
}
