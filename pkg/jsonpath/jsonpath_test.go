package jsonpath

import (
	"errors"
	"testing"
)

var userBody = []byte(`{
	"name": "John Doe",
	"age": 30,
	"address": {"city": "Anytown", "zip.code": "12345"},
	"phones": [
		{"type": "home", "number": "555-1234"},
		{"type": "work", "number": "555-5678"}
	],
	"active": true,
	"scores": [10, 20, 30, 40],
	"metadata": null
}`)

func TestExtract(t *testing.T) {
	tests := []struct {
		name          string
		path          string
		expected      string
		expectedError bool
	}{
		{name: "Simple property", path: "$.name", expected: "John Doe"},
		{name: "Without dollar", path: "name", expected: "John Doe"},
		{name: "Numeric property", path: "$.age", expected: "30"},
		{name: "Boolean property", path: "$.active", expected: "true"},
		{name: "Nested property", path: "$.address.city", expected: "Anytown"},
		{name: "Bracket notation", path: "$['address']['city']", expected: "Anytown"},
		{name: "Double quoted bracket", path: `$["name"]`, expected: "John Doe"},
		{name: "Key containing a dot", path: "$.address['zip.code']", expected: "12345"},
		{name: "Array element", path: "$.scores[1]", expected: "20"},
		{name: "Object in array", path: "$.phones[0].number", expected: "555-1234"},
		{name: "Wildcard", path: "$.phones[*].type", expected: `["home","work"]`},
		{name: "Null value", path: "$.metadata", expected: "null"},
		{name: "Non-existent property", path: "$.nonexistent", expectedError: true},
		{name: "Array index out of bounds", path: "$.scores[10]", expectedError: true},
		{name: "Empty path", path: "", expectedError: true},
		{name: "Unterminated bracket", path: "$.scores[1", expectedError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Extract(userBody, tt.path)

			if tt.expectedError {
				if err == nil {
					t.Errorf("Expected error for path %q, got %q", tt.path, result)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestExtract_NotFoundIsTyped(t *testing.T) {
	_, err := Extract(userBody, "$.missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestExtract_InvalidBody(t *testing.T) {
	if _, err := Extract(nil, "$.name"); err == nil {
		t.Error("Expected error for empty body")
	}
	if _, err := Extract([]byte("<html>"), "$.name"); err == nil {
		t.Error("Expected error for non-JSON body")
	}
}

func TestExtract_Root(t *testing.T) {
	body := []byte(`{"id":1}`)
	result, err := Extract(body, "$")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result != `{"id":1}` {
		t.Errorf("Expected whole document, got %q", result)
	}
}

func TestExtractValue(t *testing.T) {
	value, err := ExtractValue(userBody, "$.scores")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	scores, ok := value.([]any)
	if !ok || len(scores) != 4 || scores[0] != float64(10) {
		t.Errorf("Unexpected scores: %#v", value)
	}

	value, err = ExtractValue(userBody, "$.metadata")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if value != nil {
		t.Errorf("Expected nil, got %#v", value)
	}
}

func TestExtractAll(t *testing.T) {
	results, err := ExtractAll(userBody, map[string]string{
		"name": "$.name",
		"city": "$.address.city",
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if results["name"] != "John Doe" || results["city"] != "Anytown" {
		t.Errorf("Unexpected results: %v", results)
	}

	results, err = ExtractAll(userBody, map[string]string{
		"name":    "$.name",
		"missing": "$.nope",
	})
	if err == nil {
		t.Fatal("Expected error for missing path")
	}
	if results["name"] != "John Doe" {
		t.Errorf("Expected partial results, got %v", results)
	}

	if _, err := ExtractAll(userBody, nil); err == nil {
		t.Error("Expected error for no paths")
	}
}

func TestToGJSON(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"$", "@this"},
		{"$.", "@this"},
		{"$.users[0].name", "users.0.name"},
		{"$[2]", "2"},
		{"$['a.b']", `a\.b`},
		{"$.items[*].id", "items.#.id"},
		{"$.items.*", "items.#"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := ToGJSON(tt.path)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("ToGJSON(%q) = %q, want %q", tt.path, got, tt.expected)
			}
		})
	}
}
