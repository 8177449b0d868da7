package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/stagehand/internal/log"
)

// CommandContext holds the persistent flags of one invocation. Commands build
// it in RunE so no flag state is shared between invocations.
type CommandContext struct {
	LogLevel  string
	LogFormat string
	NoColor   bool

	Logger *log.Logger
}

// NewCommandContext extracts command context from cobra.Command flags.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	level, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return nil, err
	}
	format, err := cmd.Flags().GetString("log-format")
	if err != nil {
		return nil, err
	}
	noColor, err := cmd.Flags().GetBool("no-color")
	if err != nil {
		return nil, err
	}

	cfg, err := log.ConfigFromFlags(level, format)
	if err != nil {
		return nil, fmt.Errorf("invalid argument: %w", err)
	}
	cfg.Output = log.NewOutput(cmd.ErrOrStderr())

	return &CommandContext{
		LogLevel:  level,
		LogFormat: format,
		NoColor:   noColor,
		Logger:    log.New(cfg),
	}, nil
}

// setupLogging installs the logger configured by --log-level and
// --log-format as the process default.
func setupLogging(cmd *cobra.Command, _ []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	log.SetDefaultLogger(cc.Logger)
	return nil
}
