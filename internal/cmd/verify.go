package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/stagehand/internal/errors"
	"github.com/felixgeelhaar/stagehand/internal/materialize"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <dir>",
		Short: "Check materialized scripts against their manifest",
		Long: `Recompute the blake3 digest of every script listed in <dir>/manifest.json
and report scripts that were changed or removed since the dry run wrote them,
as well as scripts in the phases directory the manifest does not list.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			changed, err := materialize.Verify(args[0])
			if err != nil {
				return err
			}
			if len(changed) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "All scripts in %s match the manifest\n", args[0])
				return nil
			}
			for _, path := range changed {
				fmt.Fprintf(cmd.OutOrStdout(), "changed: %s\n", path)
			}
			return errors.Newf(errors.ErrCodeManifestMismatch, "%d script(s) no longer match the manifest", len(changed)).
				WithSuggestion("Run stagehand dryrun again with --out to regenerate them")
		},
	}
}
