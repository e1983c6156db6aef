package output

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// ColorScheme defines the colors used for different elements in the output
type ColorScheme struct {
	Method         *color.Color
	URL            *color.Color
	StatusOK       *color.Color
	StatusRedirect *color.Color
	StatusError    *color.Color
	HeaderKey      *color.Color
	Label          *color.Color
	Success        *color.Color
	Error          *color.Color
}

// NewColorScheme returns the color scheme, with every color disabled when
// noColor is set.
func NewColorScheme(noColor bool) *ColorScheme {
	scheme := &ColorScheme{
		Method:         color.New(color.FgBlue, color.Bold),
		URL:            color.New(color.FgCyan),
		StatusOK:       color.New(color.FgGreen, color.Bold),
		StatusRedirect: color.New(color.FgYellow, color.Bold),
		StatusError:    color.New(color.FgRed, color.Bold),
		HeaderKey:      color.New(color.FgYellow),
		Label:          color.New(color.FgMagenta, color.Bold),
		Success:        color.New(color.FgGreen),
		Error:          color.New(color.FgRed),
	}
	if noColor {
		for _, c := range []*color.Color{
			scheme.Method, scheme.URL, scheme.StatusOK, scheme.StatusRedirect,
			scheme.StatusError, scheme.HeaderKey, scheme.Label, scheme.Success, scheme.Error,
		} {
			c.DisableColor()
		}
	}
	return scheme
}

// Status picks the color for an HTTP status code.
func (s *ColorScheme) Status(code int) *color.Color {
	switch {
	case code >= 200 && code < 300:
		return s.StatusOK
	case code >= 300 && code < 400:
		return s.StatusRedirect
	default:
		return s.StatusError
	}
}

// SuccessIcon returns a checkmark symbol with appropriate color
func SuccessIcon(noColor bool) string {
	if noColor {
		return "✓"
	}
	return color.New(color.FgGreen).Sprint("✓")
}

// ErrorIcon returns an X symbol with appropriate color
func ErrorIcon(noColor bool) string {
	if noColor {
		return "✗"
	}
	return color.New(color.FgRed).Sprint("✗")
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// NoColorFor reports whether output to w should be uncolored: when asked
// explicitly, when NO_COLOR is set, or when w is not a terminal.
func NoColorFor(w io.Writer, requested bool) bool {
	if requested {
		return true
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return true
	}
	return !IsTerminal(w)
}
