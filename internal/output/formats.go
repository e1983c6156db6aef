package output

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/restclient/rest"
)

// OutputFormat represents the available output formats
type OutputFormat string

const (
	// FormatText is the default human-readable text format
	FormatText OutputFormat = "text"
	// FormatJSON outputs one JSON document per request or response
	FormatJSON OutputFormat = "json"
	// FormatYAML outputs one YAML document per request or response
	FormatYAML OutputFormat = "yaml"
)

// ParseFormat validates a format name. An empty name selects text.
func ParseFormat(name string) (OutputFormat, error) {
	switch format := OutputFormat(strings.ToLower(name)); format {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML:
		return format, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", name)
	}
}

// FormatProvider is implemented by every output format
type FormatProvider interface {
	FormatRequest(req *rest.Request, baseURL string) string
	FormatResponse(resp *rest.ClientResponse[any]) string
	FormatError(err error) string
	FormatVariables(vars map[string]string) string
	FormatSchemaResult(name string, err error) string
}

// RequestData represents the structured data of an HTTP request
type RequestData struct {
	Method      string              `json:"method" yaml:"method"`
	URL         string              `json:"url" yaml:"url"`
	Headers     map[string]string   `json:"headers,omitempty" yaml:"headers,omitempty"`
	Credentials string              `json:"credentials,omitempty" yaml:"credentials,omitempty"`
	Body        any                 `json:"body,omitempty" yaml:"body,omitempty"`
	Timestamp   string              `json:"timestamp" yaml:"timestamp"`
	QueryParams map[string][]string `json:"queryParams,omitempty" yaml:"queryParams,omitempty"`
}

// TimingData represents detailed timing information for an HTTP request
type TimingData struct {
	DNSLookup       int64 `json:"dnsLookupMs,omitempty" yaml:"dnsLookupMs,omitempty"`
	TCPConnection   int64 `json:"tcpConnectionMs,omitempty" yaml:"tcpConnectionMs,omitempty"`
	TLSHandshake    int64 `json:"tlsHandshakeMs,omitempty" yaml:"tlsHandshakeMs,omitempty"`
	TimeToFirstByte int64 `json:"timeToFirstByteMs,omitempty" yaml:"timeToFirstByteMs,omitempty"`
	ContentTransfer int64 `json:"contentTransferMs,omitempty" yaml:"contentTransferMs,omitempty"`
	Total           int64 `json:"totalMs" yaml:"totalMs"`
}

// ResponseData represents the structured data of an HTTP response
type ResponseData struct {
	StatusCode int               `json:"statusCode" yaml:"statusCode"`
	Status     string            `json:"status" yaml:"status"`
	Headers    map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body       any               `json:"body,omitempty" yaml:"body,omitempty"`
	Timing     *TimingData       `json:"timing,omitempty" yaml:"timing,omitempty"`
	Error      string            `json:"error,omitempty" yaml:"error,omitempty"`
}

// ResultData carries extracted variables and schema outcomes
type ResultData struct {
	Variables map[string]string `json:"variables,omitempty" yaml:"variables,omitempty"`
	Schema    string            `json:"schema,omitempty" yaml:"schema,omitempty"`
	Valid     *bool             `json:"valid,omitempty" yaml:"valid,omitempty"`
	Error     string            `json:"error,omitempty" yaml:"error,omitempty"`
}

// StructuredFormatter renders JSON or YAML documents
type StructuredFormatter struct {
	Format  OutputFormat
	Verbose bool

	now func() time.Time
}

// FormatRequest formats a request as a structured document
func (f *StructuredFormatter) FormatRequest(req *rest.Request, baseURL string) string {
	data := RequestData{
		Method:      req.Method,
		URL:         req.URI,
		Headers:     flattenHeaders(req.Header),
		Body:        decodeForDisplay(req.Body),
		Timestamp:   f.timestamp(),
		QueryParams: req.Params,
	}
	if u, err := req.URL(baseURL); err == nil {
		data.URL = u.String()
		data.QueryParams = nil
	}
	if f.Verbose {
		data.Credentials = string(req.Credentials)
	}
	return f.encode(map[string]any{"request": data})
}

// FormatResponse formats a response as a structured document
func (f *StructuredFormatter) FormatResponse(resp *rest.ClientResponse[any]) string {
	data := ResponseData{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       resp.Body,
		Timing: &TimingData{
			Total: resp.Timing.TotalTime.Milliseconds(),
		},
	}
	if f.Verbose {
		data.Headers = flattenHeaders(resp.Headers)
		data.Timing.DNSLookup = resp.Timing.DNSLookupTime.Milliseconds()
		data.Timing.TCPConnection = resp.Timing.TCPConnectTime.Milliseconds()
		data.Timing.TLSHandshake = resp.Timing.TLSHandshakeTime.Milliseconds()
		data.Timing.TimeToFirstByte = resp.Timing.TimeToFirstByte.Milliseconds()
		data.Timing.ContentTransfer = resp.Timing.ContentTransferTime.Milliseconds()
	}
	return f.encode(map[string]any{"response": data})
}

// FormatError formats a rejected execution as a structured document
func (f *StructuredFormatter) FormatError(err error) string {
	data := ResponseData{Error: err.Error()}
	if statusErr, ok := rest.AsStatusError(err); ok {
		data.StatusCode = statusErr.StatusCode
		data.Status = statusErr.Status
		data.Body = decodeForDisplay(statusErr.Body)
		if f.Verbose {
			data.Headers = flattenHeaders(statusErr.Header)
		}
	}
	return f.encode(map[string]any{"response": data})
}

// FormatVariables formats extracted variables as a structured document
func (f *StructuredFormatter) FormatVariables(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	return f.encode(map[string]any{"result": ResultData{Variables: vars}})
}

// FormatSchemaResult formats a schema validation outcome
func (f *StructuredFormatter) FormatSchemaResult(name string, err error) string {
	valid := err == nil
	data := ResultData{Schema: name, Valid: &valid}
	if err != nil {
		data.Error = err.Error()
	}
	return f.encode(map[string]any{"result": data})
}

func (f *StructuredFormatter) encode(v any) string {
	switch f.Format {
	case FormatYAML:
		out, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Sprintf("error: %v\n", err)
		}
		return "---\n" + string(out)
	default:
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Sprintf("{\"error\": %q}\n", err.Error())
		}
		return string(out) + "\n"
	}
}

func (f *StructuredFormatter) timestamp() string {
	now := time.Now
	if f.now != nil {
		now = f.now
	}
	return now().UTC().Format(time.RFC3339)
}

// GetFormatter returns the formatter for the given output format
func GetFormatter(format OutputFormat, verbose bool, noColor bool) FormatProvider {
	switch format {
	case FormatJSON, FormatYAML:
		return &StructuredFormatter{Format: format, Verbose: verbose}
	default:
		return NewFormatter(verbose, noColor)
	}
}

func flattenHeaders(header map[string][]string) map[string]string {
	if len(header) == 0 {
		return nil
	}
	out := make(map[string]string, len(header))
	for key, values := range header {
		out[key] = strings.Join(values, ", ")
	}
	return out
}

// decodeForDisplay returns JSON payloads as values and anything else as text.
func decodeForDisplay(data []byte) any {
	if len(data) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err == nil {
		return v
	}
	return string(data)
}
