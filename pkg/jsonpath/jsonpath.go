// Package jsonpath pulls values out of JSON response bodies using a small
// JSONPath dialect: $, .name, ['name'], ["name"], [n] and [*].
package jsonpath

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// ErrNotFound is returned when a path does not match anything in the body.
var ErrNotFound = errors.New("path not found")

// Extract returns the value at path rendered as a string. Objects and arrays
// come back as raw JSON, null as "null".
func Extract(body []byte, path string) (string, error) {
	result, err := lookup(body, path)
	if err != nil {
		return "", err
	}
	if result.Type == gjson.Null {
		return "null", nil
	}
	return result.String(), nil
}

// ExtractValue returns the value at path decoded into Go values: strings,
// float64, bool, nil, []any or map[string]any.
func ExtractValue(body []byte, path string) (any, error) {
	result, err := lookup(body, path)
	if err != nil {
		return nil, err
	}
	return result.Value(), nil
}

// ExtractAll evaluates every named path. Values that could be extracted are
// returned even when others fail; the error lists the failures by name.
func ExtractAll(body []byte, paths map[string]string) (map[string]string, error) {
	if len(paths) == 0 {
		return nil, errors.New("no JSONPath expressions provided")
	}

	names := make([]string, 0, len(paths))
	for name := range paths {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(map[string]string, len(paths))
	var failures []string
	for _, name := range names {
		value, err := Extract(body, paths[name])
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		results[name] = value
	}

	if len(failures) > 0 {
		return results, errors.Errorf("extraction errors: %s", strings.Join(failures, "; "))
	}
	return results, nil
}

func lookup(body []byte, path string) (gjson.Result, error) {
	if len(body) == 0 {
		return gjson.Result{}, errors.New("empty JSON body")
	}
	if path == "" {
		return gjson.Result{}, errors.New("empty JSONPath expression")
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, errors.New("body is not valid JSON")
	}

	gpath, err := ToGJSON(path)
	if err != nil {
		return gjson.Result{}, err
	}

	result := gjson.GetBytes(body, gpath)
	if !result.Exists() {
		return gjson.Result{}, errors.Wrap(ErrNotFound, path)
	}
	return result, nil
}

// ToGJSON converts a JSONPath expression into gjson path syntax.
//
//	$.users[0].name  -> users.0.name
//	$['a.b']         -> a\.b
//	$.items[*].id    -> items.#.id
func ToGJSON(path string) (string, error) {
	p := strings.TrimSpace(path)
	p = strings.TrimPrefix(p, "$")
	if p == "" {
		return "@this", nil
	}

	var parts []string
	for i := 0; i < len(p); {
		switch p[i] {
		case '.':
			i++
		case '[':
			end := strings.IndexByte(p[i:], ']')
			if end < 0 {
				return "", errors.Errorf("unterminated bracket in %q", path)
			}
			inner := p[i+1 : i+end]
			i += end + 1

			switch {
			case inner == "*":
				parts = append(parts, "#")
			case len(inner) >= 2 && (inner[0] == '\'' || inner[0] == '"') && inner[len(inner)-1] == inner[0]:
				parts = append(parts, escape(inner[1:len(inner)-1]))
			case inner == "":
				return "", errors.Errorf("empty bracket in %q", path)
			default:
				parts = append(parts, inner)
			}
		default:
			end := strings.IndexAny(p[i:], ".[")
			if end < 0 {
				end = len(p) - i
			}
			name := p[i : i+end]
			if name == "*" {
				name = "#"
			}
			parts = append(parts, name)
			i += end
		}
	}

	if len(parts) == 0 {
		return "@this", nil
	}
	return strings.Join(parts, "."), nil
}

func escape(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
