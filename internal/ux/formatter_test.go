package ux

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/stagehand/pkg/stagehand/pipeline"
)

type phaseRef string

func (p phaseRef) String() string { return "phase " + string(p) }

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		format  string
		want    Formatter
		wantErr bool
	}{
		{format: FormatJSON, want: &JSONFormatter{}},
		{format: FormatYAML, want: &YAMLFormatter{}},
		{format: FormatText, want: &TextFormatter{}},
		{format: "", want: &TextFormatter{}},
		{format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run("format "+tt.format, func(t *testing.T) {
			f, err := NewFormatter(tt.format, nil)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "supported: text, json, yaml")
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, f)
		})
	}
}

func TestJSONFormatterCompact(t *testing.T) {
	intent := pipeline.BuildIntent{Tags: []string{"v1"}, BuildEnabled: true}

	var pretty, compact bytes.Buffer
	f, err := NewFormatter(FormatJSON, &FormatterOptions{Writer: &pretty})
	require.NoError(t, err)
	require.NoError(t, f.Format(intent))

	f, err = NewFormatter(FormatJSON, &FormatterOptions{Writer: &compact, Compact: true})
	require.NoError(t, err)
	require.NoError(t, f.Format(intent))

	assert.Greater(t, strings.Count(pretty.String(), "\n"), 1)
	assert.Equal(t, 1, strings.Count(compact.String(), "\n"))
	assert.Contains(t, compact.String(), `"tags":["v1"]`)
}

func TestTextFormatterValues(t *testing.T) {
	tests := []struct {
		name    string
		data    any
		want    string
		wantErr bool
	}{
		{name: "string", data: "3 scripts written", want: "3 scripts written\n"},
		{name: "stringer", data: phaseRef("1_1"), want: "phase 1_1\n"},
		{name: "struct", data: pipeline.BuildIntent{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			f, err := NewFormatter(FormatText, &FormatterOptions{Writer: &buf, NoColor: true})
			require.NoError(t, err)

			err = f.Format(tt.data)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "--format json or yaml")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}
