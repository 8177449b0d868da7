package policy

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/stagehand/internal/errors"
	"github.com/felixgeelhaar/stagehand/pkg/stagehand/pipeline"
)

func phaseReport(phases ...pipeline.PhaseEntry) *pipeline.Report {
	return &pipeline.Report{
		Success: true,
		Pipeline: pipeline.PipelineEntry{
			ID:     "p",
			Stages: [][]pipeline.PhaseEntry{phases},
		},
	}
}

func phase(id, image string, docker *pipeline.BuildIntent, links ...pipeline.LinkEntry) pipeline.PhaseEntry {
	raw := map[string]string{}
	if image != "" {
		raw[pipeline.ArgImage] = image
	}
	return pipeline.PhaseEntry{
		ID:            id,
		Materialized:  true,
		ContainerArgs: &pipeline.ContainerArgsEntry{RawArgs: raw, Links: links},
		Docker:        docker,
	}
}

func TestImageAllowed(t *testing.T) {
	tests := []struct {
		name      string
		image     string
		allowlist []string
		want      bool
	}{
		{"exact match", "golang:1.22", []string{"golang:1.22"}, true},
		{"qualified image matches short entry", "docker.io/library/golang:1.22", []string{"golang:1.22"}, true},
		{"short image matches qualified entry", "golang:1.22", []string{"index.docker.io/library/golang:1.22"}, true},
		{"implicit latest", "golang", []string{"golang:latest"}, true},
		{"different tag", "golang:1.21", []string{"golang:1.22"}, false},
		{"prefix pattern", "ghcr.io/acme/builder:v2", []string{"ghcr.io/acme/*"}, true},
		{"tag wildcard", "node:20-alpine", []string{"node:*"}, true},
		{"prefix pattern on qualified form", "alpine:3.20", []string{"index.docker.io/library/*"}, true},
		{"prefix mismatch", "ghcr.io/other/builder", []string{"ghcr.io/acme/*"}, false},
		{"empty image", "", []string{"*"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, imageAllowed(tt.image, tt.allowlist))
		})
	}
}

func TestCheckAllowlist(t *testing.T) {
	pol := DefaultPolicy()
	pol.Images.Allowlist = []string{"golang:*", "postgres:15"}

	rep := phaseReport(
		phase("1_1", "golang:1.22", nil, pipeline.LinkEntry{Image: "postgres:15"}),
		phase("1_2", "node:20", nil, pipeline.LinkEntry{Image: "redis:7"}),
		phase("1_3", "", nil),
	)

	violations := Check(rep, pol)
	require.Len(t, violations, 3)
	assert.Equal(t, Violation{PhaseID: "1_2", Rule: RuleImageAllowlist, Message: `image "node:20" is not in the allowlist`}, violations[0])
	assert.Equal(t, Violation{PhaseID: "1_2", Rule: RuleImageAllowlist, Message: `linked image "redis:7" is not in the allowlist`}, violations[1])
	assert.Equal(t, "1_3", violations[2].PhaseID)
	assert.Contains(t, violations[2].Message, "no image set")
}

func TestCheckLinksAndDocker(t *testing.T) {
	pol := &Policy{
		Images: ImagePolicy{AllowLinks: false},
		Docker: DockerPolicy{AllowPush: false, RequireTags: true, ValidateTags: true},
	}

	rep := phaseReport(
		phase("1_1", "golang:1.22", &pipeline.BuildIntent{BuildEnabled: true}, pipeline.LinkEntry{Image: "postgres:15"}),
		phase("1_2", "golang:1.22", &pipeline.BuildIntent{PushEnabled: true, Tags: []string{"v1", "Bad Tag"}}),
	)

	var rules []string
	for _, v := range Check(rep, pol) {
		rules = append(rules, v.PhaseID+" "+v.Rule)
	}
	assert.Equal(t, []string{
		"1_1 " + RuleAllowLinks,
		"1_1 " + RuleRequireTags,
		"1_2 " + RuleAllowPush,
		"1_2 " + RuleValidateTags,
	}, rules)
}

func TestCheckSkipsUnmaterializedAndFailedReports(t *testing.T) {
	pol := DefaultPolicy()
	pol.Images.Allowlist = []string{"golang:1.22"}

	unmaterialized := phase("1_1", "node:20", nil)
	unmaterialized.Materialized = false
	assert.Empty(t, Check(phaseReport(unmaterialized), pol))

	failed := phaseReport(phase("1_1", "node:20", nil))
	failed.Success = false
	assert.Empty(t, Check(failed, pol))
}

func TestEnforce(t *testing.T) {
	pol := DefaultPolicy()
	assert.NoError(t, Enforce(phaseReport(phase("1_1", "anything:1", &pipeline.BuildIntent{PushEnabled: true})), pol))

	pol.Docker.AllowPush = false
	err := Enforce(phaseReport(phase("1_1", "anything:1", &pipeline.BuildIntent{PushEnabled: true})), pol)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrPolicyViolation))
	assert.Contains(t, err.Error(), "phase 1_1: container push is not allowed")
}
