package pipeline

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/stagehand/internal/errors"
	"github.com/felixgeelhaar/stagehand/internal/log"
	"github.com/felixgeelhaar/stagehand/internal/metrics"
	"github.com/felixgeelhaar/stagehand/pkg/stagehand/env"
)

// DryRunResult is the outcome of a dry run. When Success is false, Err holds
// the error that stopped the walk and phases from FailedPhase onwards carry no
// result.
type DryRunResult struct {
	Success     bool
	Err         error
	BuildID     string
	FailedPhase string
	Pipeline    *Pipeline
}

// DryRunner materializes the scripts of every phase of a pipeline.
type DryRunner struct {
	// BuildID identifies the run in logs and reports.
	BuildID string
	// Logger defaults to log.DefaultLogger().
	Logger *log.Logger
	// Metrics is optional.
	Metrics *metrics.Metrics
}

// DryRun runs a DryRunner without a build id.
func DryRun(p *Pipeline, global env.Env) *DryRunResult {
	return (&DryRunner{}).Run(p, global)
}

// Run walks the stages and phases of p in order. For each phase it invokes the
// configuration callback with a fresh workspace and container arguments, then
// the execution callback with a fresh container, and attaches the scripts to
// the phase. The first error aborts the walk.
func (r *DryRunner) Run(p *Pipeline, global env.Env) *DryRunResult {
	result := &DryRunResult{BuildID: r.BuildID, Pipeline: p}
	logger := r.logger().With("build_id", r.BuildID)

	if p == nil {
		result.Err = errors.New(errors.ErrCodeInvalidPhase, "pipeline is nil")
		logger.LogError(result.Err)
		return result
	}
	logger = logger.With("pipeline_id", p.ID())

	phases := p.Phases()
	for _, phase := range phases {
		phase.result = nil
	}

	logger.Debug("dry run started", "stages", len(p.stages), "phases", len(phases))
	start := time.Now()

	global = global.Clone()
	pipelineEnv := p.Env()

	for s, stage := range p.stages {
		for _, phase := range stage {
			res, override, err := r.dryRunPhase(phase, global, pipelineEnv)
			if err != nil {
				result.Err = err
				result.FailedPhase = phase.ID()
				logger.With("stage", s+1, "phase_id", phase.ID()).WithError(err).Error("dry run failed")
				r.Metrics.RecordDryRun(p.ID(), false, time.Since(start))
				if code, ok := errors.CodeOf(err); ok {
					r.Metrics.RecordError(string(code))
				}
				return result
			}

			phase.result = res
			if override != nil {
				phase.MergeEnv(override)
			}

			r.Metrics.RecordPhase(res.HasPreScript, res.Docker.BuildEnabled, res.Docker.PushEnabled)
			logger.With(
				"stage", s+1,
				"phase_id", phase.ID(),
				"has_pre_script", res.HasPreScript,
			).WithGroup("docker").Debug("phase materialized",
				"build", res.Docker.BuildEnabled,
				"push", res.Docker.PushEnabled,
				"tags", len(res.Docker.Tags),
			)
		}
	}

	result.Success = true
	r.Metrics.RecordDryRun(p.ID(), true, time.Since(start))
	logger.Debug("dry run succeeded")
	return result
}

// dryRunPhase materializes a single phase. It returns the workspace override
// derived from the phase repository so the caller can record it once the
// phase succeeded.
func (r *DryRunner) dryRunPhase(phase *Phase, global, pipelineEnv env.Env) (*PhaseResult, env.Env, error) {
	if phase.conf == nil {
		return nil, nil, errors.NewInvalidCallbackError("configuration").
			WithSuggestion(fmt.Sprintf("Set a configuration callback on phase %s", phase.ID()))
	}
	if phase.exec == nil {
		return nil, nil, errors.NewInvalidCallbackError("executable").
			WithSuggestion(fmt.Sprintf("Set an execution callback on phase %s", phase.ID()))
	}

	phaseEnv := phase.Env()
	var override env.Env
	if repo := phase.Repo(); repo != "" {
		root := global[env.WorkspacePath]
		if root == "" {
			return nil, nil, errors.Newf(errors.ErrCodeMissingWorkspacePath,
				"phase %s uses repository %q but the global environment has no %s", phase.ID(), repo, env.WorkspacePath)
		}
		override = env.Env{env.WorkspacePath: root + "/" + repo}
		phaseEnv = env.Merge(phaseEnv, override)
	}

	envs := []env.Env{global, pipelineEnv, phaseEnv}

	ws := NewWorkspace(envs...)
	args := NewContainerArgs()
	c := NewContainer()

	if err := invoke(phase.ID(), "configuration", func() error { return phase.conf(args, ws) }); err != nil {
		return nil, nil, err
	}
	pre, hasPre := ws.Script()

	if err := phase.initMain(c.Shell(), envs); err != nil {
		return nil, nil, err
	}
	if err := invoke(phase.ID(), "execution", func() error { return phase.exec(c) }); err != nil {
		return nil, nil, err
	}
	if err := c.Err(); err != nil {
		return nil, nil, errors.NewCallbackFailureError(phase.ID(), "execution", err)
	}

	return &PhaseResult{
		Env:           phaseEnv,
		PreScript:     pre,
		HasPreScript:  hasPre,
		MainScript:    c.MainScript(),
		ContainerArgs: args,
		Docker:        c.Docker().Intent(),
	}, override, nil
}

// invoke calls a phase callback and turns returned errors and panics into
// CALLBACK-001 errors.
func invoke(phaseID, slot string, fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.NewCallbackFailureError(phaseID, slot, fmt.Errorf("panic: %v", rec))
		}
	}()

	if err := fn(); err != nil {
		return errors.NewCallbackFailureError(phaseID, slot, err)
	}
	return nil
}

func (r *DryRunner) logger() *log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.DefaultLogger()
}
