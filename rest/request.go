package rest

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Request is the wire-level snapshot a Builder hands to its Transport.
// It is captured when execution starts and never changes afterwards.
type Request struct {
	Method      string
	URI         string
	Header      http.Header
	Params      url.Values
	Body        []byte
	Credentials Credentials
}

// URL resolves the request URI against baseURL and merges Params into the
// query string. Absolute URIs ignore baseURL.
func (r *Request) URL(baseURL string) (*url.URL, error) {
	target, err := url.Parse(r.URI)
	if err != nil {
		return nil, fmt.Errorf("rest: parse uri %q: %w", r.URI, err)
	}

	if !target.IsAbs() && baseURL != "" {
		base, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("rest: parse base url %q: %w", baseURL, err)
		}

		joined := *base
		switch {
		case target.Path == "":
			// keep base path
		case base.Path == "":
			joined.Path = target.Path
		default:
			joined.Path = strings.TrimRight(base.Path, "/") + "/" + strings.TrimLeft(target.Path, "/")
		}
		joined.RawPath = ""
		joined.RawQuery = target.RawQuery
		joined.Fragment = target.Fragment
		target = &joined
	}

	if len(r.Params) > 0 {
		query := target.Query()
		for key, values := range r.Params {
			for _, value := range values {
				query.Add(key, value)
			}
		}
		target.RawQuery = query.Encode()
	}

	return target, nil
}

func cloneValues(v url.Values) url.Values {
	if v == nil {
		return nil
	}
	out := make(url.Values, len(v))
	for key, values := range v {
		out[key] = append([]string(nil), values...)
	}
	return out
}
