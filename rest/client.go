package rest

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptrace"
	"net/url"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"
)

// Transport sends a Request and returns the fully read response, or an error
// when no response could be obtained. A non-2xx status is not an error at
// this layer.
type Transport interface {
	Send(ctx context.Context, req *Request) (*RawResponse, error)
}

// credentialHeaders are removed when the credentials mode forbids sending
// credentials.
var credentialHeaders = []string{"Authorization", "Cookie", "Proxy-Authorization"}

// Client is the net/http implementation of Transport.
// Client is safe for concurrent use by multiple goroutines.
type Client struct {
	httpClient *http.Client
	baseURL    string
	headers    map[string]string
	logger     zerolog.Logger
	clock      clock.Clock
}

// ClientOption is a function that configures a Client.
type ClientOption func(*Client)

// NewClient creates a new HTTP client with the given options.
//
// Example:
//
//	client := rest.NewClient(
//	    rest.WithBaseURL("https://api.example.com"),
//	    rest.WithTimeout(30*time.Second),
//	)
//
//	resp, err := rest.Go[User](ctx, client.Request().WithURI("/users").WithURISegment(42)).Wait()
func NewClient(options ...ClientOption) *Client {
	client := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		headers: make(map[string]string),
		logger:  zerolog.Nop(),
		clock:   clock.New(),
	}

	for _, option := range options {
		option(client)
	}

	return client
}

// WithBaseURL sets the base URL relative request URIs are resolved against.
// Its origin is also the "same origin" for CredentialsSameOrigin.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithTimeout sets the timeout for all requests made by this client.
// The default timeout is 30 seconds.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithDefaultHeader adds a header to every request that does not set it
// itself.
func WithDefaultHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// WithUserAgent sets the default User-Agent header.
func WithUserAgent(userAgent string) ClientOption {
	return WithDefaultHeader("User-Agent", userAgent)
}

// WithHTTPClient sets a custom *http.Client for this client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithInsecureSkipVerify disables TLS certificate verification.
// WARNING: This should only be used for testing purposes.
func WithInsecureSkipVerify() ClientOption {
	return func(c *Client) {
		c.httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
}

// WithCookieJar enables an in-memory cookie jar. Cookies are only sent and
// stored when the request's credentials mode allows it.
func WithCookieJar() ClientOption {
	return func(c *Client) {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err == nil {
			c.httpClient.Jar = jar
		}
	}
}

// WithLogger sets the logger used for request tracing at debug level.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithClock sets the clock used for timing measurements.
func WithClock(clk clock.Clock) ClientOption {
	return func(c *Client) {
		c.clock = clk
	}
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request starts a new Builder that sends through c.
func (c *Client) Request() *Builder {
	return NewBuilder(c)
}

// Send issues req and reads the whole response body. Failures to build or
// send the request are returned as *TransportError.
func (c *Client) Send(ctx context.Context, req *Request) (*RawResponse, error) {
	target, err := req.URL(c.baseURL)
	if err != nil {
		return nil, &TransportError{Method: req.Method, URL: req.URI, Err: err}
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target.String(), body)
	if err != nil {
		return nil, &TransportError{Method: req.Method, URL: target.String(), Err: err}
	}

	httpReq.Header = req.Header.Clone()
	if httpReq.Header == nil {
		httpReq.Header = make(http.Header)
	}
	for key, value := range c.headers {
		if httpReq.Header.Get(key) == "" {
			httpReq.Header.Set(key, value)
		}
	}

	httpClient := c.httpClient
	if !c.allowCredentials(req.Credentials, target) {
		for _, key := range credentialHeaders {
			httpReq.Header.Del(key)
		}
		if httpClient.Jar != nil {
			withoutJar := *httpClient
			withoutJar.Jar = nil
			httpClient = &withoutJar
		}
	}

	timing := TimingInfo{
		StartTime: c.clock.Now(),
	}

	var dnsStart, connectStart, tlsHandshakeStart time.Time
	var dnsDone, connectDone bool
	lastPhaseEnd := timing.StartTime

	trace := &httptrace.ClientTrace{
		DNSStart: func(info httptrace.DNSStartInfo) {
			dnsStart = c.clock.Now()
		},
		DNSDone: func(info httptrace.DNSDoneInfo) {
			dnsEnd := c.clock.Now()
			timing.DNSLookupTime = dnsEnd.Sub(dnsStart)
			dnsDone = true
			lastPhaseEnd = dnsEnd
		},
		ConnectStart: func(network, addr string) {
			if dnsDone || connectStart.IsZero() {
				connectStart = c.clock.Now()
			}
		},
		ConnectDone: func(network, addr string, err error) {
			if err == nil {
				connectEnd := c.clock.Now()
				timing.TCPConnectTime = connectEnd.Sub(connectStart)
				connectDone = true
				lastPhaseEnd = connectEnd
			}
		},
		TLSHandshakeStart: func() {
			if connectDone {
				tlsHandshakeStart = c.clock.Now()
			}
		},
		TLSHandshakeDone: func(state tls.ConnectionState, err error) {
			if err == nil && !tlsHandshakeStart.IsZero() {
				tlsHandshakeEnd := c.clock.Now()
				timing.TLSHandshakeTime = tlsHandshakeEnd.Sub(tlsHandshakeStart)
				lastPhaseEnd = tlsHandshakeEnd
			}
		},
		GotFirstResponseByte: func() {
			timing.TimeToFirstByte = c.clock.Now().Sub(lastPhaseEnd)
		},
	}
	httpReq = httpReq.WithContext(httptrace.WithClientTrace(httpReq.Context(), trace))

	c.logger.Debug().
		Str("method", httpReq.Method).
		Str("url", target.Redacted()).
		Str("credentials", req.Credentials.String()).
		Int("body_bytes", len(req.Body)).
		Msg("sending request")

	httpResp, err := httpClient.Do(httpReq)
	if err != nil {
		c.logger.Debug().Err(err).Str("method", httpReq.Method).Str("url", target.Redacted()).Msg("request failed")
		return nil, &TransportError{Method: httpReq.Method, URL: target.Redacted(), Err: err}
	}
	defer httpResp.Body.Close()

	contentTransferStart := c.clock.Now()
	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &TransportError{Method: httpReq.Method, URL: target.Redacted(), Err: err}
	}
	timing.ContentTransferTime = c.clock.Since(contentTransferStart)
	timing.TotalTime = c.clock.Since(timing.StartTime)

	c.logger.Debug().
		Str("method", httpReq.Method).
		Str("url", target.Redacted()).
		Int("status", httpResp.StatusCode).
		Int("response_bytes", len(respBody)).
		Dur("elapsed", timing.TotalTime).
		Msg("response received")

	return &RawResponse{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Header:     httpResp.Header,
		Body:       respBody,
		Timing:     timing,
	}, nil
}

func (c *Client) allowCredentials(mode Credentials, target *url.URL) bool {
	switch mode {
	case CredentialsOmit:
		return false
	case CredentialsInclude:
		return true
	}
	if c.baseURL == "" {
		return true
	}
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return false
	}
	return sameOrigin(base, target)
}

func sameOrigin(a, b *url.URL) bool {
	return strings.EqualFold(a.Scheme, b.Scheme) && originHost(a) == originHost(b)
}

// originHost returns the lower-cased host with the scheme's default port
// filled in.
func originHost(u *url.URL) string {
	port := u.Port()
	if port == "" {
		switch strings.ToLower(u.Scheme) {
		case "https":
			port = "443"
		case "http":
			port = "80"
		}
	}
	return strings.ToLower(u.Hostname()) + ":" + port
}

var _ Transport = (*Client)(nil)
