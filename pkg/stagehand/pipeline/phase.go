package pipeline

import (
	"github.com/felixgeelhaar/stagehand/internal/errors"
	"github.com/felixgeelhaar/stagehand/pkg/stagehand/env"
)

// ConfFunc prepares a phase: it declares the container arguments and may
// change the workspace.
type ConfFunc func(args *ContainerArgs, ws *Workspace) error

// ExecFunc writes a phase's main script and may declare a container build or
// push.
type ExecFunc func(c *Container) error

// PhaseResult is what a dry run materialized for a phase.
type PhaseResult struct {
	// Env is the phase environment the scripts were generated from.
	Env           env.Env
	PreScript     string
	HasPreScript  bool
	MainScript    string
	ContainerArgs *ContainerArgs
	Docker        BuildIntent
}

// Phase is a named unit of work inside a stage.
type Phase struct {
	id          string
	name        string
	description string
	env         env.Env
	repo        string

	conf ConfFunc
	exec ExecFunc

	result *PhaseResult
}

// NewPhase returns a phase with the given name and no callbacks.
func NewPhase(name string) *Phase {
	return &Phase{name: name, env: env.Env{}}
}

// ID returns "<stage>_<position>" once the phase was added to a pipeline.
func (p *Phase) ID() string { return p.id }

// SetID overrides the phase identifier. Pipeline.Add assigns it as well.
func (p *Phase) SetID(id string) *Phase {
	if id != "" {
		p.id = id
	}
	return p
}

func (p *Phase) Name() string { return p.name }

func (p *Phase) SetName(name string) *Phase {
	if name != "" {
		p.name = name
	}
	return p
}

func (p *Phase) Description() string { return p.description }

func (p *Phase) SetDescription(description string) *Phase {
	if description != "" {
		p.description = description
	}
	return p
}

// Env returns a copy of the phase environment overrides.
func (p *Phase) Env() env.Env {
	return p.env.Clone()
}

// MergeEnv merges e into the phase environment; e wins on conflicts.
func (p *Phase) MergeEnv(e env.Env) *Phase {
	p.env = env.Merge(p.env, e)
	return p
}

// Repo returns the child repository the phase works in, if any.
func (p *Phase) Repo() string { return p.repo }

// SetRepo makes the phase work in $WORKSPACE_PATH/<repo>.
func (p *Phase) SetRepo(repo string) *Phase {
	if repo != "" {
		p.repo = repo
	}
	return p
}

// Conf sets the configuration callback, replacing any earlier one.
func (p *Phase) Conf(fn ConfFunc) error {
	if fn == nil {
		return errors.NewInvalidCallbackError("configuration")
	}
	p.conf = fn
	return nil
}

// Exec sets the execution callback, replacing any earlier one.
func (p *Phase) Exec(fn ExecFunc) error {
	if fn == nil {
		return errors.NewInvalidCallbackError("executable")
	}
	p.exec = fn
	return nil
}

// Result returns what the last successful dry run materialized for the phase.
func (p *Phase) Result() (*PhaseResult, bool) {
	return p.result, p.result != nil
}

// PreScript returns the preparation script and whether there is one.
func (p *Phase) PreScript() (string, bool) {
	if p.result == nil {
		return "", false
	}
	return p.result.PreScript, p.result.HasPreScript
}

// MainScript returns the materialized main script.
func (p *Phase) MainScript() string {
	if p.result == nil {
		return ""
	}
	return p.result.MainScript
}

// ContainerArgs returns the resolved container arguments, or nil before a
// dry run.
func (p *Phase) ContainerArgs() *ContainerArgs {
	if p.result == nil {
		return nil
	}
	return p.result.ContainerArgs
}

// Docker returns the captured container build and push intent.
func (p *Phase) Docker() BuildIntent {
	if p.result == nil {
		return BuildIntent{}
	}
	return p.result.Docker
}

// PreScriptFile is the file name the preparation script is written to.
func (p *Phase) PreScriptFile() string { return p.id + "_pre.sh" }

// MainScriptFile is the file name the main script is written to.
func (p *Phase) MainScriptFile() string { return p.id + ".sh" }

// initMain writes the main script preamble onto the container shell.
func (p *Phase) initMain(sh *Shell, envs []env.Env) error {
	return writePreamble(sh.script, envs)
}
