package definition

import (
	"fmt"

	"github.com/felixgeelhaar/stagehand/internal/errors"
	"github.com/felixgeelhaar/stagehand/pkg/stagehand/env"
	"github.com/felixgeelhaar/stagehand/pkg/stagehand/pipeline"
)

// Compile builds the pipeline described by d. The callbacks of every phase
// replay its conf block and its exec steps in order.
func (d *Definition) Compile() (*pipeline.Pipeline, error) {
	p := pipeline.New(d.ID, d.Name).SetDescription(d.Description)

	pipelineEnv, err := env.FromValue(d.Env)
	if err != nil {
		return nil, annotate(err, "pipeline env must be a mapping of names to scalar values")
	}
	p.MergeEnv(pipelineEnv)

	for s, stage := range d.Stages {
		phases := make([]*pipeline.Phase, 0, len(stage.Phases))
		for _, def := range stage.Phases {
			phase, err := def.compile()
			if err != nil {
				return nil, err
			}
			phases = append(phases, phase)
		}
		if err := p.Add(phases...); err != nil {
			return nil, annotate(err, fmt.Sprintf("stage %d could not be added", s+1))
		}
	}
	return p, nil
}

func (d Phase) compile() (*pipeline.Phase, error) {
	phaseEnv, err := env.FromValue(d.Env)
	if err != nil {
		return nil, annotate(err, fmt.Sprintf("env of phase %q must be a mapping of names to scalar values", d.Name))
	}

	phase := pipeline.NewPhase(d.Name).
		SetDescription(d.Description).
		SetRepo(d.Repo).
		MergeEnv(phaseEnv)

	if err := phase.Conf(d.Conf.apply); err != nil {
		return nil, err
	}
	if err := phase.Exec(replay(d.Exec)); err != nil {
		return nil, err
	}
	return phase, nil
}

func (c Conf) apply(args *pipeline.ContainerArgs, ws *pipeline.Workspace) error {
	args.MergeRawArgs(c.RawArgs).SetImage(c.Image).SetUser(c.User)
	for _, l := range c.Links {
		link := args.Links().Add(l.Image).As(l.As)
		for _, port := range l.Ports {
			link.MapPort(port)
		}
	}
	if c.GrantFullAccess {
		ws.GrantFullAccess()
	}
	return nil
}

func replay(steps []Step) pipeline.ExecFunc {
	return func(c *pipeline.Container) error {
		for i, step := range steps {
			if err := step.apply(c); err != nil {
				return fmt.Errorf("step %d: %w", i+1, err)
			}
		}
		return nil
	}
}

func (s Step) apply(c *pipeline.Container) error {
	switch {
	case s.Sh != nil:
		return c.Sh(*s.Sh)
	case s.Tags != nil:
		return c.Docker().Tag(s.Tags...)
	case s.CopyWorkspace:
		c.Docker().CopyWorkspace()
	case s.CopyFolder != nil:
		return c.Docker().CopyFolder(*s.CopyFolder)
	case s.Build:
		c.Docker().Build()
	case s.Push:
		c.Docker().Push()
	}
	return nil
}

func annotate(err error, suggestion string) error {
	if pe, ok := err.(*errors.PipelineError); ok {
		return pe.WithSuggestion(suggestion)
	}
	return err
}
