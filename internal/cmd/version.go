package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/stagehand/internal/version"
)

func newVersionCmd() *cobra.Command {
	var (
		verbose bool
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print version information including version number, git commit,
build date, Go version, and platform.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.GetInfo()
			out := cmd.OutOrStdout()

			switch {
			case asJSON:
				data, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal version info: %w", err)
				}
				_, err = fmt.Fprintln(out, string(data))
				return err
			case verbose:
				_, err := fmt.Fprintln(out, info.String())
				return err
			default:
				_, err := fmt.Fprintf(out, "stagehand %s\n", info.Short())
				return err
			}
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed version information")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output version information as JSON")
	return cmd
}
