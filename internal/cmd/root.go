package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the stagehand command tree. Every call returns fresh
// commands with their own flag state.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "stagehand",
		Short: "Dry-run container build pipelines",
		Long: `stagehand loads a pipeline of stages and phases, runs every phase's
configuration and execution steps in dry-run mode, and materializes the
preparation and main shell scripts each phase would run in its container.

Nothing is executed: the scripts, container arguments and build/push intent
are reported or written to disk for an execution backend to pick up.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setupLogging,
	}

	root.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "text", "log format (text, json)")
	root.PersistentFlags().Bool("no-color", false, "disable colored output")

	root.AddCommand(newDryRunCmd())
	root.AddCommand(newVerifyCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// Execute runs the root command
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx, which is cancelled on
// interrupt by the caller.
func ExecuteContext(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
