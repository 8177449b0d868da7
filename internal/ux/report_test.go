package ux

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/stagehand/pkg/stagehand/pipeline"
)

func sampleReport() *pipeline.Report {
	pre := "#!/bin/sh\n\nchmod -R o=rwx $WORKSPACE_PATH\n"
	return &pipeline.Report{
		Success: true,
		BuildID: "b1",
		Pipeline: pipeline.PipelineEntry{
			ID:   "api",
			Name: "API",
			Stages: [][]pipeline.PhaseEntry{
				{
					{
						ID:             "1_1",
						Name:           "compile",
						Repo:           "api",
						Materialized:   true,
						PreScriptFile:  "1_1_pre.sh",
						PreScript:      &pre,
						MainScriptFile: "1_1.sh",
						MainScript:     "#!/bin/sh\n\ngo build ./...\n",
						ContainerArgs:  &pipeline.ContainerArgsEntry{RawArgs: map[string]string{pipeline.ArgImage: "golang:1.22"}},
						Docker:         &pipeline.BuildIntent{Tags: []string{"v1"}, BuildEnabled: true},
					},
				},
				{
					{ID: "2_1", Name: "test"},
				},
			},
		},
	}
}

func TestTextFormatterReport(t *testing.T) {
	var buf bytes.Buffer
	f, err := NewFormatter(FormatText, &FormatterOptions{Writer: &buf, NoColor: true})
	require.NoError(t, err)

	require.NoError(t, f.Format(sampleReport()))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "✓ Dry run succeeded for pipeline api (API)\nbuild b1\n"))
	assert.Contains(t, out, "Stage 1\n")
	assert.Contains(t, out, "  1_1 compile @api  1_1_pre.sh  1_1.sh  golang:1.22  build  tags v1\n")
	assert.Contains(t, out, "Stage 2\n")
	assert.Contains(t, out, "  2_1 test (not materialized)\n")
	assert.NotContains(t, out, "go build", "scripts are hidden by default")
	assert.NotContains(t, out, "Error")
}

func TestTextFormatterShowScripts(t *testing.T) {
	var buf bytes.Buffer
	f, err := NewFormatter(FormatText, &FormatterOptions{Writer: &buf, NoColor: true, ShowScripts: true})
	require.NoError(t, err)

	require.NoError(t, f.Format(sampleReport()))
	out := buf.String()
	assert.Contains(t, out, "    chmod -R o=rwx $WORKSPACE_PATH")
	assert.Contains(t, out, "    go build ./...")
}

func TestTextFormatterFailedReport(t *testing.T) {
	rep := sampleReport()
	rep.Success = false
	rep.Error = "[CALLBACK-001] phase 2_1: execution callback failed: boom"

	var buf bytes.Buffer
	f, err := NewFormatter(FormatText, &FormatterOptions{Writer: &buf, NoColor: true})
	require.NoError(t, err)
	require.NoError(t, f.Format(rep))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "✗ Dry run failed for pipeline api"))
	assert.Contains(t, out, "Error [CALLBACK-001] phase 2_1: execution callback failed: boom\n")
}

func TestStructuredFormattersReport(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		f, err := NewFormatter(FormatJSON, &FormatterOptions{Writer: &buf})
		require.NoError(t, err)
		require.NoError(t, f.Format(sampleReport()))

		var decoded pipeline.Report
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, "api", decoded.Pipeline.ID)
		assert.Nil(t, decoded.Pipeline.Stages[1][0].PreScript)
		assert.NotContains(t, buf.String(), `"pre_script": null`)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		f, err := NewFormatter(FormatYAML, &FormatterOptions{Writer: &buf})
		require.NoError(t, err)
		require.NoError(t, f.Format(sampleReport()))

		var decoded pipeline.Report
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, "1_1.sh", decoded.Pipeline.Stages[0][0].MainScriptFile)
		assert.Equal(t, []string{"v1"}, decoded.Pipeline.Stages[0][0].Docker.Tags)
	})
}
