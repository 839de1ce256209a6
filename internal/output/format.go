// Package output renders command results as text or JSON.
package output

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Format represents the output format.
type Format string

// Output format constants.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatAuto Format = "auto"
)

// Formatter picks between the JSON and the human rendering of a result.
type Formatter struct {
	format Format
}

// NewFormatter returns a formatter for a resolved format (not FormatAuto).
func NewFormatter(format Format) *Formatter {
	return &Formatter{format: format}
}

// Format returns the current output format.
func (f *Formatter) Format() Format {
	return f.format
}

// IsJSON returns true if the formatter outputs JSON.
func (f *Formatter) IsJSON() bool {
	return f.format == FormatJSON
}

// Emit writes v as indented JSON, or calls text to render it for humans.
// A nil text func always produces JSON.
func (f *Formatter) Emit(w io.Writer, v any, text func(io.Writer) error) error {
	if f.IsJSON() || text == nil {
		return WriteJSON(w, v)
	}
	return text(w)
}

// WriteJSON encodes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// DetectFormat resolves FormatAuto: text when w is a terminal, JSON when
// output is piped.
func DetectFormat(w io.Writer, explicit Format) Format {
	if explicit != FormatAuto {
		return explicit
	}
	f, ok := w.(*os.File)
	if ok && term.IsTerminal(int(f.Fd())) { //nolint:gosec // G115: Fd fits in int on supported platforms
		return FormatText
	}
	return FormatJSON
}

// ParseFormat parses a format string; anything unknown means auto.
func ParseFormat(s string) Format {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSON:
		return FormatJSON
	case FormatText:
		return FormatText
	default:
		return FormatAuto
	}
}
