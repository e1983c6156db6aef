package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"
)

type bodyKind int

const (
	bodyNone bodyKind = iota
	bodyJSON
	bodyForm
)

// Builder accumulates the configuration of one HTTP request through chained
// calls and issues it with Go. Every With method mutates the builder and
// returns it.
//
// A Builder is not safe for concurrent use. It may be executed any number of
// times; each execution takes a snapshot of the current configuration and
// issues an independent request.
type Builder struct {
	transport   Transport
	method      string
	uri         string
	header      http.Header
	params      url.Values
	body        any
	bodyKind    bodyKind
	credentials Credentials
	err         error
}

// NewBuilder returns an empty builder that sends through t.
//
// Example:
//
//	b := rest.NewBuilder(client).
//	    WithMethod("GET").
//	    WithURI("/api/user").
//	    WithURISegment(userID).
//	    WithHeader("Accept", "application/json")
//
//	resp, err := rest.Go[User](ctx, b).Wait()
func NewBuilder(t Transport) *Builder {
	return &Builder{
		transport:   t,
		header:      make(http.Header),
		params:      make(url.Values),
		credentials: CredentialsSameOrigin,
	}
}

// WithAuthorization sets the Authorization header to key verbatim
// (e.g. "Bearer ..." or an API key). An empty key leaves the header unchanged.
func (b *Builder) WithAuthorization(key string) *Builder {
	if key != "" {
		b.header.Set("Authorization", key)
	}
	return b
}

// WithURISegment appends path segments to the URI. Integers render in decimal,
// nil values and empty segments are skipped, and each segment is joined to
// the URI with exactly one "/". A segment that is not a scalar is recorded in
// Err as an *EncodeError.
func (b *Builder) WithURISegment(segments ...any) *Builder {
	for _, segment := range segments {
		s, ok, err := segmentString(segment)
		if err != nil {
			b.fail(&EncodeError{Part: "uri segment", Err: err})
			return b
		}
		if !ok {
			continue
		}
		s = strings.Trim(s, "/")
		if s == "" {
			continue
		}

		path, query, hasQuery := strings.Cut(b.uri, "?")
		path = strings.TrimRight(path, "/") + "/" + s
		if hasQuery {
			path += "?" + query
		}
		b.uri = path
	}
	return b
}

// WithHeader sets a header. Keys are case-insensitive; the last value set for
// a key wins.
func (b *Builder) WithHeader(key, value string) *Builder {
	b.header.Set(key, value)
	return b
}

// WithHeaders sets multiple headers.
func (b *Builder) WithHeaders(headers map[string]string) *Builder {
	for key, value := range headers {
		b.header.Set(key, value)
	}
	return b
}

// WithJSONBody sets v as the request body. v is encoded when the request is
// executed, so encoding failures surface through the Future. Content-Type
// defaults to application/json.
func (b *Builder) WithJSONBody(v any) *Builder {
	b.body = v
	b.bodyKind = bodyJSON
	return b
}

// WithFormData sets an application/x-www-form-urlencoded body, replacing any
// JSON body.
func (b *Builder) WithFormData(data url.Values) *Builder {
	b.body = cloneValues(data)
	b.bodyKind = bodyForm
	return b
}

// WithMethod sets the HTTP method. The value is not checked against a list of
// known verbs. An unset method executes as GET.
func (b *Builder) WithMethod(method string) *Builder {
	b.method = method
	return b
}

// WithURI replaces the URI, discarding previously appended segments. It may
// be absolute or relative to the transport's base URL.
func (b *Builder) WithURI(uri string) *Builder {
	b.uri = uri
	return b
}

// WithParameter adds a query parameter. Repeated names accumulate rather than
// overwrite. Scalars are formatted with strconv, slices add one value per
// element, maps and structs are encoded as JSON, and nil is ignored.
// A value JSON cannot encode is recorded in Err as an *EncodeError and the
// parameter is not added.
func (b *Builder) WithParameter(name string, value any) *Builder {
	values, err := parameterValues(reflect.ValueOf(value))
	if err != nil {
		b.fail(&EncodeError{Part: fmt.Sprintf("parameter %q", name), Err: err})
		return b
	}
	for _, v := range values {
		b.params.Add(name, v)
	}
	return b
}

// WithCredentials sets the credentials mode. An unknown mode is rejected on
// the spot: it is recorded in Err and any later execution fails with
// ErrInvalidCredentials without sending anything.
func (b *Builder) WithCredentials(mode Credentials) *Builder {
	if _, err := ParseCredentials(string(mode)); err != nil {
		b.fail(err)
		return b
	}
	b.credentials = mode
	return b
}

// Err returns the first configuration error recorded by the builder.
func (b *Builder) Err() error {
	return b.err
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Go executes the request and decodes the body into a generic value: JSON
// payloads become maps, slices and scalars, anything else a string.
func (b *Builder) Go(ctx context.Context) *Future[*ClientResponse[any]] {
	return Go[any](ctx, b)
}

// Go executes the request built by b and returns a Future that resolves with
// the response body decoded as T. It never blocks and never panics; every
// failure is delivered as a rejection of the Future:
//
//   - ErrNilBuilder when b is nil
//   - a configuration error recorded by the builder
//   - *EncodeError when the JSON body cannot be serialized
//   - *TransportError when no response was received
//   - *StatusError for any status outside 200-299
//   - *DecodeError when the body does not fit T
func Go[T any](ctx context.Context, b *Builder) *Future[*ClientResponse[T]] {
	future := newFuture[*ClientResponse[T]]()

	if b == nil {
		future.reject(ErrNilBuilder)
		return future
	}
	if b.err != nil {
		future.reject(b.err)
		return future
	}
	if b.transport == nil {
		future.reject(ErrNoTransport)
		return future
	}

	req, err := b.snapshot()
	if err != nil {
		future.reject(err)
		return future
	}

	if ctx == nil {
		ctx = context.Background()
	}

	transport := b.transport
	go func() {
		raw, err := transport.Send(ctx, req)
		if err == nil && raw == nil {
			err = errors.New("transport returned no response")
		}
		if err != nil {
			var te *TransportError
			if !errors.As(err, &te) {
				err = &TransportError{Method: req.Method, URL: req.URI, Err: err}
			}
			future.reject(err)
			return
		}

		if raw.StatusCode < 200 || raw.StatusCode > 299 {
			future.reject(&StatusError{
				StatusCode: raw.StatusCode,
				Status:     raw.Status,
				Header:     raw.Header,
				Body:       raw.Body,
			})
			return
		}

		resp, err := newClientResponse[T](raw)
		if err != nil {
			future.reject(err)
			return
		}
		future.resolve(resp)
	}()

	return future
}

// Build returns the Request an execution would send right now, without
// sending it. It fails the same way Go does before anything is sent.
func (b *Builder) Build() (*Request, error) {
	if b == nil {
		return nil, ErrNilBuilder
	}
	if b.err != nil {
		return nil, b.err
	}
	return b.snapshot()
}

// snapshot captures the current configuration. The returned Request shares
// no mutable state with the builder.
func (b *Builder) snapshot() (*Request, error) {
	req := &Request{
		Method:      b.method,
		URI:         b.uri,
		Header:      b.header.Clone(),
		Params:      cloneValues(b.params),
		Credentials: b.credentials,
	}
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	if req.Header == nil {
		req.Header = make(http.Header)
	}
	if req.Credentials == "" {
		req.Credentials = CredentialsSameOrigin
	}

	switch b.bodyKind {
	case bodyJSON:
		data, err := json.Marshal(b.body)
		if err != nil {
			return nil, &EncodeError{Err: err}
		}
		req.Body = data
		if req.Header.Get("Content-Type") == "" {
			req.Header.Set("Content-Type", "application/json")
		}
	case bodyForm:
		req.Body = []byte(b.body.(url.Values).Encode())
		if req.Header.Get("Content-Type") == "" {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}

	return req, nil
}

func segmentString(segment any) (string, bool, error) {
	rv, ok := indirect(reflect.ValueOf(segment))
	if !ok {
		return "", false, nil
	}
	if s, ok := scalarString(rv); ok {
		return s, true, nil
	}
	return "", false, fmt.Errorf("unsupported segment type %T", segment)
}

// parameterValues formats a parameter value. Slices are flattened one level;
// any other composite value, including a slice element, is encoded as JSON.
func parameterValues(rv reflect.Value) ([]string, error) {
	rv, ok := indirect(rv)
	if !ok {
		return nil, nil
	}
	if s, ok := scalarString(rv); ok {
		return []string{s}, nil
	}

	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return nil, nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return []string{string(rv.Bytes())}, nil
		}
		fallthrough
	case reflect.Array:
		values := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			elem, ok := indirect(rv.Index(i))
			if !ok {
				continue
			}
			if s, ok := scalarString(elem); ok {
				values = append(values, s)
				continue
			}
			s, err := jsonString(elem)
			if err != nil {
				return nil, err
			}
			values = append(values, s)
		}
		return values, nil
	}

	s, err := jsonString(rv)
	if err != nil {
		return nil, err
	}
	return []string{s}, nil
}

// indirect follows pointers and interfaces. It reports false for nil.
func indirect(rv reflect.Value) (reflect.Value, bool) {
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return rv, false
		}
		rv = rv.Elem()
	}
	return rv, rv.IsValid()
}

func jsonString(rv reflect.Value) (string, error) {
	if !rv.CanInterface() {
		return "", fmt.Errorf("unexported value of type %s", rv.Type())
	}
	data, err := json.Marshal(rv.Interface())
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// scalarString formats strings, booleans, numbers, times and Stringers.
func scalarString(rv reflect.Value) (string, bool) {
	if rv.CanInterface() {
		switch v := rv.Interface().(type) {
		case time.Time:
			return v.Format(time.RFC3339Nano), true
		case fmt.Stringer:
			return v.String(), true
		}
	}

	switch rv.Kind() {
	case reflect.String:
		return rv.String(), true
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), true
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32), true
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), true
	}
	return "", false
}
