// Package pipeline is a DSL for declaring container build pipelines and
// materializing the shell scripts of every phase without running them.
//
// A Pipeline is an ordered list of stages. A stage holds phases that a backend
// may run in parallel. Each phase has a configuration callback, which prepares
// the workspace and the container arguments, and an execution callback, which
// writes the main script and may declare a container build or push. DryRun
// invokes the callbacks and attaches the resulting scripts to the phases.
package pipeline

import (
	"fmt"

	"github.com/felixgeelhaar/stagehand/internal/errors"
	"github.com/felixgeelhaar/stagehand/pkg/stagehand/env"
)

// Pipeline is an ordered sequence of stages of phases.
type Pipeline struct {
	id          string
	name        string
	description string
	env         env.Env
	stages      [][]*Phase
}

// New returns an empty pipeline.
func New(id, name string) *Pipeline {
	return &Pipeline{id: id, name: name, env: env.Env{}}
}

func (p *Pipeline) ID() string { return p.id }

func (p *Pipeline) SetID(id string) *Pipeline {
	if id != "" {
		p.id = id
	}
	return p
}

func (p *Pipeline) Name() string { return p.name }

func (p *Pipeline) SetName(name string) *Pipeline {
	if name != "" {
		p.name = name
	}
	return p
}

func (p *Pipeline) Description() string { return p.description }

func (p *Pipeline) SetDescription(description string) *Pipeline {
	if description != "" {
		p.description = description
	}
	return p
}

// Env returns a copy of the pipeline environment.
func (p *Pipeline) Env() env.Env {
	return p.env.Clone()
}

// MergeEnv merges e into the pipeline environment; e wins on conflicts.
func (p *Pipeline) MergeEnv(e env.Env) *Pipeline {
	p.env = env.Merge(p.env, e)
	return p
}

// Add appends a stage holding phases, in order. Each phase gets the id
// "<stage>_<position>", both 1-based. A nil phase rejects the whole stage.
func (p *Pipeline) Add(phases ...*Phase) error {
	for i, phase := range phases {
		if phase == nil {
			return errors.NewInvalidPhaseError(i)
		}
	}

	stage := make([]*Phase, 0, len(phases))
	index := len(p.stages) + 1
	for i, phase := range phases {
		stage = append(stage, phase)
		phase.SetID(fmt.Sprintf("%d_%d", index, i+1))
	}
	p.stages = append(p.stages, stage)
	return nil
}

// Stages returns the stages in order. The outer and inner slices are copies.
func (p *Pipeline) Stages() [][]*Phase {
	stages := make([][]*Phase, len(p.stages))
	for i, s := range p.stages {
		stages[i] = append([]*Phase(nil), s...)
	}
	return stages
}

// Phases returns every phase in stage order.
func (p *Pipeline) Phases() []*Phase {
	var all []*Phase
	for _, s := range p.stages {
		all = append(all, s...)
	}
	return all
}
