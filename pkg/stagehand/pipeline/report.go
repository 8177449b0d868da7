package pipeline

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/stagehand/internal/errors"
	"github.com/felixgeelhaar/stagehand/pkg/stagehand/env"
)

// Report is a serializable snapshot of a dry run, handed to the execution
// backend or printed by the CLI.
type Report struct {
	Success     bool          `json:"success" yaml:"success"`
	Error       string        `json:"error,omitempty" yaml:"error,omitempty"`
	ErrorCode   string        `json:"error_code,omitempty" yaml:"error_code,omitempty"`
	FailedPhase string        `json:"failed_phase,omitempty" yaml:"failed_phase,omitempty"`
	BuildID     string        `json:"build_id,omitempty" yaml:"build_id,omitempty"`
	Pipeline    PipelineEntry `json:"pipeline" yaml:"pipeline"`
}

// PipelineEntry describes the pipeline in a Report.
type PipelineEntry struct {
	ID          string         `json:"id" yaml:"id"`
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Env         env.Env        `json:"env,omitempty" yaml:"env,omitempty"`
	Stages      [][]PhaseEntry `json:"stages" yaml:"stages"`
}

// PhaseEntry describes a phase in a Report. Script fields are empty for
// phases that were not materialized.
type PhaseEntry struct {
	ID             string              `json:"id" yaml:"id"`
	Name           string              `json:"name" yaml:"name"`
	Description    string              `json:"description,omitempty" yaml:"description,omitempty"`
	Repo           string              `json:"repo,omitempty" yaml:"repo,omitempty"`
	Env            env.Env             `json:"env,omitempty" yaml:"env,omitempty"`
	Materialized   bool                `json:"materialized" yaml:"materialized"`
	PreScriptFile  string              `json:"pre_script_file,omitempty" yaml:"pre_script_file,omitempty"`
	PreScript      *string             `json:"pre_script,omitempty" yaml:"pre_script,omitempty"`
	MainScriptFile string              `json:"main_script_file,omitempty" yaml:"main_script_file,omitempty"`
	MainScript     string              `json:"main_script,omitempty" yaml:"main_script,omitempty"`
	ContainerArgs  *ContainerArgsEntry `json:"container_args,omitempty" yaml:"container_args,omitempty"`
	Docker         *BuildIntent        `json:"docker,omitempty" yaml:"docker,omitempty"`
}

// ContainerArgsEntry describes resolved container arguments in a Report.
type ContainerArgsEntry struct {
	RawArgs map[string]string `json:"raw_args" yaml:"raw_args"`
	Links   []LinkEntry       `json:"links,omitempty" yaml:"links,omitempty"`
}

// LinkEntry describes a linked container in a Report.
type LinkEntry struct {
	Image        string   `json:"image" yaml:"image"`
	Alias        string   `json:"alias,omitempty" yaml:"alias,omitempty"`
	PortMappings []string `json:"port_mappings,omitempty" yaml:"port_mappings,omitempty"`
}

// Report snapshots the result and the annotated pipeline.
func (r *DryRunResult) Report() *Report {
	rep := &Report{
		Success:     r.Success,
		FailedPhase: r.FailedPhase,
		BuildID:     r.BuildID,
	}
	if r.Err != nil {
		rep.Error = r.Err.Error()
		if code, ok := errors.CodeOf(r.Err); ok {
			rep.ErrorCode = string(code)
		}
	}
	if r.Pipeline == nil {
		return rep
	}

	p := r.Pipeline
	rep.Pipeline = PipelineEntry{
		ID:          p.ID(),
		Name:        p.Name(),
		Description: p.Description(),
		Env:         p.Env(),
		Stages:      make([][]PhaseEntry, 0, len(p.stages)),
	}
	for _, stage := range p.stages {
		entries := make([]PhaseEntry, 0, len(stage))
		for _, phase := range stage {
			entries = append(entries, phaseEntry(phase))
		}
		rep.Pipeline.Stages = append(rep.Pipeline.Stages, entries)
	}
	return rep
}

func phaseEntry(phase *Phase) PhaseEntry {
	entry := PhaseEntry{
		ID:          phase.ID(),
		Name:        phase.Name(),
		Description: phase.Description(),
		Repo:        phase.Repo(),
		Env:         phase.Env(),
	}

	res, ok := phase.Result()
	if !ok {
		return entry
	}

	entry.Materialized = true
	entry.Env = res.Env.Clone()
	if res.HasPreScript {
		pre := res.PreScript
		entry.PreScript = &pre
		entry.PreScriptFile = phase.PreScriptFile()
	}
	entry.MainScript = res.MainScript
	entry.MainScriptFile = phase.MainScriptFile()

	args := &ContainerArgsEntry{RawArgs: res.ContainerArgs.RawArgs()}
	for _, l := range res.ContainerArgs.Links().All() {
		args.Links = append(args.Links, LinkEntry{
			Image:        l.Image(),
			Alias:        l.Alias(),
			PortMappings: l.PortMappings(),
		})
	}
	entry.ContainerArgs = args

	docker := res.Docker
	entry.Docker = &docker
	return entry
}

// String renders a short plain-text summary of the report.
func (r *Report) String() string {
	var b strings.Builder

	status := "succeeded"
	if !r.Success {
		status = "failed"
	}
	fmt.Fprintf(&b, "Dry run %s for pipeline %s", status, r.Pipeline.ID)
	if r.BuildID != "" {
		fmt.Fprintf(&b, " (build %s)", r.BuildID)
	}
	b.WriteString("\n")

	for i, stage := range r.Pipeline.Stages {
		fmt.Fprintf(&b, "Stage %d\n", i+1)
		for _, ph := range stage {
			fmt.Fprintf(&b, "  %s %s", ph.ID, ph.Name)
			if !ph.Materialized {
				b.WriteString(" (not materialized)\n")
				continue
			}
			var parts []string
			if ph.PreScript != nil {
				parts = append(parts, ph.PreScriptFile)
			}
			parts = append(parts, ph.MainScriptFile)
			if ph.Docker != nil && ph.Docker.BuildEnabled {
				parts = append(parts, "build")
			}
			if ph.Docker != nil && ph.Docker.PushEnabled {
				parts = append(parts, "push")
			}
			fmt.Fprintf(&b, " [%s]\n", strings.Join(parts, ", "))
		}
	}

	if r.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n", r.Error)
	}
	return b.String()
}
