package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewColorScheme_NoColor(t *testing.T) {
	scheme := NewColorScheme(true)

	if got := scheme.Method.Sprint("GET"); got != "GET" {
		t.Errorf("Expected plain text, got %q", got)
	}
	if got := scheme.Status(500).Sprint("500"); got != "500" {
		t.Errorf("Expected plain text, got %q", got)
	}
}

func TestColorScheme_Status(t *testing.T) {
	scheme := NewColorScheme(false)

	if scheme.Status(204) != scheme.StatusOK {
		t.Error("2xx should use StatusOK")
	}
	if scheme.Status(301) != scheme.StatusRedirect {
		t.Error("3xx should use StatusRedirect")
	}
	if scheme.Status(404) != scheme.StatusError {
		t.Error("4xx should use StatusError")
	}
}

func TestIcons(t *testing.T) {
	if SuccessIcon(true) != "✓" || ErrorIcon(true) != "✗" {
		t.Error("Unexpected plain icons")
	}
	if !strings.Contains(SuccessIcon(false), "✓") {
		t.Error("Colored icon should contain the symbol")
	}
}

func TestNoColorFor(t *testing.T) {
	var buf bytes.Buffer

	if !NoColorFor(&buf, false) {
		t.Error("A buffer is not a terminal")
	}
	if !NoColorFor(&buf, true) {
		t.Error("Explicit request should disable color")
	}
	if IsTerminal(&buf) {
		t.Error("A buffer is not a terminal")
	}
}
