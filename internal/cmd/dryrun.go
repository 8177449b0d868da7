package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/stagehand/internal/buildenv"
	"github.com/felixgeelhaar/stagehand/internal/definition"
	"github.com/felixgeelhaar/stagehand/internal/materialize"
	"github.com/felixgeelhaar/stagehand/internal/metrics"
	"github.com/felixgeelhaar/stagehand/internal/policy"
	"github.com/felixgeelhaar/stagehand/internal/ux"
	"github.com/felixgeelhaar/stagehand/pkg/stagehand/pipeline"
)

type dryRunOptions struct {
	file        string
	policyFile  string
	workspace   string
	user        string
	buildID     string
	out         string
	format      string
	showScripts bool
	metricsFile string
}

func newDryRunCmd() *cobra.Command {
	opts := &dryRunOptions{}

	cmd := &cobra.Command{
		Use:   "dryrun",
		Short: "Materialize the scripts of every phase without running them",
		Long: `Load a pipeline definition, run each phase's configuration and execution
steps in dry-run mode, and report the scripts, container arguments and
build/push intent of every phase.

With --policy the report is checked against a container policy. With --out
the scripts of a successful, policy-compliant run are written to
<out>/phases together with <out>/manifest.json.`,
		Example: `  stagehand dryrun -f pipeline.yaml
  stagehand dryrun -f pipeline.yaml --policy policy.yaml --out .stagehand/run
  stagehand dryrun -f pipeline.yaml --format json`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			switch opts.format {
			case ux.FormatText, ux.FormatJSON, ux.FormatYAML:
				return nil
			default:
				return fmt.Errorf("invalid argument %q for --format (supported: text, json, yaml)", opts.format)
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDryRun(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "pipeline definition file (YAML)")
	cmd.Flags().StringVar(&opts.policyFile, "policy", "", "container policy file (YAML)")
	cmd.Flags().StringVar(&opts.workspace, "workspace", "", "workspace path (default: current directory)")
	cmd.Flags().StringVar(&opts.user, "user", os.Getenv("USER"), "user the build is created by")
	cmd.Flags().StringVar(&opts.buildID, "build-id", "", "build identifier (default: random UUID)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "directory to write scripts and manifest.json to")
	cmd.Flags().StringVar(&opts.format, "format", ux.FormatText, "report format (text, json, yaml)")
	cmd.Flags().BoolVar(&opts.showScripts, "show-scripts", false, "include script contents in text output")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics of the run to this file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runDryRun(cmd *cobra.Command, opts *dryRunOptions) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	logger := cc.Logger.With("command", "dryrun")

	var m *metrics.Metrics
	if opts.metricsFile != "" {
		reg, recorder := metrics.NewRegistry()
		m = recorder
		defer func() {
			if werr := metrics.WriteTextfile(opts.metricsFile, reg); werr != nil {
				logger.WithError(werr).Warn("could not write metrics file", "path", opts.metricsFile)
			}
		}()
	}

	def, err := definition.Load(opts.file)
	if err != nil {
		return err
	}
	p, err := def.Compile()
	if err != nil {
		return err
	}

	pol := policy.DefaultPolicy()
	if opts.policyFile != "" {
		if pol, err = policy.LoadPolicy(opts.policyFile); err != nil {
			return err
		}
	}

	workspace := opts.workspace
	if workspace == "" {
		if workspace, err = os.Getwd(); err != nil {
			return fmt.Errorf("resolve working directory: %w", err)
		}
	}
	build, err := buildenv.New(workspace, opts.user, opts.buildID)
	if err != nil {
		return err
	}

	logger.Info("loaded pipeline", "file", opts.file, "pipeline_id", p.ID(), "phases", len(p.Phases()))

	res := (&pipeline.DryRunner{BuildID: build.ID, Logger: logger, Metrics: m}).Run(p, build.GlobalEnv())
	rep := res.Report()

	formatter, err := ux.NewFormatter(opts.format, &ux.FormatterOptions{
		Writer:      cmd.OutOrStdout(),
		NoColor:     cc.NoColor,
		ShowScripts: opts.showScripts,
	})
	if err != nil {
		return err
	}
	if err := formatter.Format(rep); err != nil {
		return fmt.Errorf("format report: %w", err)
	}

	if !res.Success {
		return res.Err
	}

	violations := policy.Check(rep, pol)
	rules := make([]string, len(violations))
	for i, v := range violations {
		rules[i] = v.Rule
	}
	m.RecordPolicyCheck(rules)
	if err := policy.AsError(violations); err != nil {
		return err
	}

	if opts.out == "" {
		return nil
	}
	manifest, err := materialize.New(opts.out, logger).Write(rep)
	if err != nil {
		return err
	}
	m.RecordScriptsWritten(len(manifest.Files))
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d scripts to %s\n", len(manifest.Files), opts.out)
	return nil
}
