package log

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Format represents the output format for logs
type Format int

const (
	// FormatJSON outputs logs in JSON format
	FormatJSON Format = iota
	// FormatText outputs logs in human-readable text format
	FormatText
)

// String returns the string representation of the format
func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	default:
		return "json"
	}
}

// ParseFormat parses a log format name. Unknown names are an error so that
// a typo in --log-format does not silently switch formats.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "text", "console", "":
		return FormatText, nil
	default:
		return FormatJSON, fmt.Errorf("unknown log format %q (supported: json, text)", s)
	}
}

// Output represents where logs should be written
type Output struct {
	writer io.Writer
}

// Writer returns the underlying io.Writer
func (o Output) Writer() io.Writer {
	return o.writer
}

// NewOutput creates an Output from an io.Writer
func NewOutput(w io.Writer) Output {
	return Output{writer: w}
}

// OutputStderr creates an Output that writes to stderr
func OutputStderr() Output {
	return Output{writer: os.Stderr}
}

// Config holds configuration for the logger
type Config struct {
	// Level is the minimum log level to output
	Level Level

	// Format is the output format (JSON or Text)
	Format Format

	// Output is where logs should be written. Reports go to stdout, so logs
	// default to stderr.
	Output Output

	// AddSource includes source file and line number in logs
	AddSource bool

	// Component is attached to every record as "component"
	Component string
}

// DefaultConfig logs warnings and errors as text to stderr.
func DefaultConfig() Config {
	return Config{
		Level:     LevelWarn,
		Format:    FormatText,
		Output:    OutputStderr(),
		Component: "stagehand",
	}
}

// DevelopmentConfig logs everything as text to stderr with source location.
func DevelopmentConfig() Config {
	return Config{
		Level:     LevelDebug,
		Format:    FormatText,
		Output:    OutputStderr(),
		AddSource: true,
		Component: "stagehand",
	}
}

// ConfigFromFlags builds a Config from the --log-level and --log-format flag
// values. The debug level starts from DevelopmentConfig, so records carry
// their source location.
func ConfigFromFlags(level, format string) (Config, error) {
	cfg := DefaultConfig()

	lvl, err := ParseLevel(level)
	if err != nil {
		return cfg, err
	}
	f, err := ParseFormat(format)
	if err != nil {
		return cfg, err
	}
	if lvl == LevelDebug {
		cfg = DevelopmentConfig()
	}

	cfg.Level = lvl
	cfg.Format = f
	return cfg, nil
}
