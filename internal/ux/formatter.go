// Package ux renders dry-run reports and errors for the terminal.
package ux

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/stagehand/pkg/stagehand/pipeline"
)

// Formatter writes a value to the configured output.
type Formatter interface {
	Format(data any) error
}

// FormatterOptions contains configuration for formatters
type FormatterOptions struct {
	// Writer is where output is written (defaults to os.Stdout)
	Writer io.Writer
	// NoColor disables styling in the text formatter
	NoColor bool
	// Compact enables compact output (no indentation for JSON/YAML)
	Compact bool
	// ShowScripts makes the text formatter print every phase script
	ShowScripts bool
}

// Supported formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// NewFormatter creates a formatter based on the format string
func NewFormatter(format string, opts *FormatterOptions) (Formatter, error) {
	if opts == nil {
		opts = &FormatterOptions{}
	}
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}

	switch format {
	case FormatJSON:
		return &JSONFormatter{opts: opts}, nil
	case FormatYAML:
		return &YAMLFormatter{opts: opts}, nil
	case FormatText, "":
		return &TextFormatter{opts: opts, styles: newStyles(opts.Writer, opts.NoColor)}, nil
	default:
		return nil, fmt.Errorf("unknown format: %s (supported: text, json, yaml)", format)
	}
}

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	opts *FormatterOptions
}

// Format writes data as JSON
func (f *JSONFormatter) Format(data any) error {
	encoder := json.NewEncoder(f.opts.Writer)
	if !f.opts.Compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// YAMLFormatter formats output as YAML
type YAMLFormatter struct {
	opts *FormatterOptions
}

// Format writes data as YAML
func (f *YAMLFormatter) Format(data any) error {
	encoder := yaml.NewEncoder(f.opts.Writer)
	if !f.opts.Compact {
		encoder.SetIndent(2)
	}
	defer encoder.Close()
	return encoder.Encode(data)
}

// TextFormatter renders reports as styled text. Other values must be strings
// or implement fmt.Stringer.
type TextFormatter struct {
	opts   *FormatterOptions
	styles styles
}

// Format writes data as formatted text
func (f *TextFormatter) Format(data any) error {
	switch v := data.(type) {
	case *pipeline.Report:
		_, err := io.WriteString(f.opts.Writer, f.renderReport(v))
		return err
	case string:
		_, err := fmt.Fprintln(f.opts.Writer, v)
		return err
	case fmt.Stringer:
		_, err := fmt.Fprintln(f.opts.Writer, v.String())
		return err
	default:
		return fmt.Errorf("text formatter cannot render %T; use --format json or yaml", data)
	}
}

// Compile-time verification that formatters implement Formatter
var _ Formatter = (*JSONFormatter)(nil)
var _ Formatter = (*YAMLFormatter)(nil)
var _ Formatter = (*TextFormatter)(nil)
