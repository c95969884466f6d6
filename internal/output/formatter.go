// Package output renders documents for the terminal and for files.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	toon "github.com/toon-format/toon-go"
	"gopkg.in/yaml.v3"
)

// Format represents an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatYAML     Format = "yaml"
	FormatTOON     Format = "toon"
)

// ParseFormat converts a string to a Format. The empty string is text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toon":
		return FormatTOON, nil
	default:
		return "", fmt.Errorf("unknown format %q (want text, json, markdown, yaml or toon)", s)
	}
}

// IsDocument reports whether f is a serialization format rather than a
// human-oriented rendering.
func (f Format) IsDocument() bool {
	return f == FormatJSON || f == FormatYAML || f == FormatTOON
}

// Ext returns the file extension for a document format.
func (f Format) Ext() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatTOON:
		return "toon"
	case FormatMarkdown:
		return "md"
	case FormatText:
		return "txt"
	default:
		return "json"
	}
}

// Marshal serializes data in a document format. Human formats fall back to
// JSON.
func Marshal(f Format, data any) ([]byte, error) {
	switch f {
	case FormatYAML:
		generic, err := viaJSON(data)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatTOON:
		out, err := toon.Marshal(data, toon.WithIndent(2))
		if err != nil {
			return nil, fmt.Errorf("encode toon: %w", err)
		}
		return append(out, '\n'), nil
	default:
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return append(out, '\n'), nil
	}
}

// viaJSON converts data to plain maps and slices so YAML keys follow the
// json struct tags.
func viaJSON(data any) (any, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return generic, nil
}

// Renderable defines data that can render itself in multiple formats.
type Renderable interface {
	RenderText(w io.Writer, colored bool) error
	RenderMarkdown(w io.Writer) error
	// RenderData returns the underlying data for document formats.
	RenderData() any
}

// Formatter writes Renderables in the configured format.
type Formatter struct {
	format  Format
	writer  io.Writer
	colored bool
}

// NewFormatter creates a formatter writing to w. Color only applies to
// text output.
func NewFormatter(format Format, w io.Writer, colored bool) *Formatter {
	if w == nil {
		w = os.Stdout
	}
	return &Formatter{format: format, writer: w, colored: colored && format == FormatText}
}

// Writer returns the underlying writer.
func (f *Formatter) Writer() io.Writer {
	return f.writer
}

// Format returns the configured format.
func (f *Formatter) Format() Format {
	return f.format
}

// Output writes data in the configured format.
func (f *Formatter) Output(data any) error {
	r, ok := data.(Renderable)
	if !ok {
		return f.document(data)
	}
	switch f.format {
	case FormatText:
		return r.RenderText(f.writer, f.colored)
	case FormatMarkdown:
		return r.RenderMarkdown(f.writer)
	default:
		return f.document(r.RenderData())
	}
}

func (f *Formatter) document(data any) error {
	format := f.format
	if !format.IsDocument() {
		format = FormatJSON
	}
	out, err := Marshal(format, data)
	if err != nil {
		return err
	}
	if f.format == FormatMarkdown {
		out = append(append([]byte("```json\n"), out...), []byte("```\n")...)
	}
	_, err = f.writer.Write(out)
	return err
}

// Success prints a status line in green.
func (f *Formatter) Success(format string, args ...any) {
	f.status(color.FgGreen, "", format, args...)
}

// Warning prints a status line in yellow.
func (f *Formatter) Warning(format string, args ...any) {
	f.status(color.FgYellow, "WARNING: ", format, args...)
}

func (f *Formatter) status(attr color.Attribute, prefix, format string, args ...any) {
	if f.colored {
		color.New(attr).Fprintf(f.writer, format+"\n", args...)
		return
	}
	fmt.Fprintf(f.writer, prefix+format+"\n", args...)
}

// SeverityColor colors text by severity, priority or grade.
func SeverityColor(severity, text string) string {
	switch strings.ToLower(severity) {
	case "critical", "high", "f", "d":
		return color.RedString(text)
	case "medium", "c":
		return color.YellowString(text)
	case "low", "a", "b":
		return color.GreenString(text)
	default:
		return text
	}
}
