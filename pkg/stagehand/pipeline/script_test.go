package pipeline

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/stagehand/internal/errors"
	"github.com/felixgeelhaar/stagehand/pkg/stagehand/env"
)

func TestScriptRunAndRender(t *testing.T) {
	var s Script

	require.NoError(t, s.Run("echo one"))
	require.NoError(t, s.BlankLine())
	require.NoError(t, s.Run("echo two"))

	assert.Equal(t, "echo one\n\necho two\n", s.Render())
	assert.Equal(t, "echo one\n\necho two\n", s.Render(), "render is repeatable")
	assert.Equal(t, Writable, s.State())
}

func TestScriptLocked(t *testing.T) {
	var s Script
	require.NoError(t, s.Run("echo before"))

	s.Lock()
	assert.Equal(t, Locked, s.State())
	assert.Equal(t, "locked", s.State().String())

	err := s.Run("echo after")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrScriptLocked))
	assert.True(t, stderrors.Is(s.BlankLine(), errors.ErrScriptLocked))

	assert.Equal(t, "echo before\n", s.Render())
}

func TestWritePreambleGroupsPerSource(t *testing.T) {
	var s Script
	err := writePreamble(&s, []env.Env{
		{"WORKSPACE_PATH": "/ws", "BUILD_ID": "b1"},
		{},
		{"A": "1"},
	})
	require.NoError(t, err)

	want := "#!/bin/sh\n" +
		"\n" +
		"export BUILD_ID=\"b1\"\n" +
		"export WORKSPACE_PATH=\"/ws\"\n" +
		"\n" +
		"\n" +
		"export A=\"1\"\n" +
		"\n" +
		"cd $WORKSPACE_PATH\n" +
		"\n"
	assert.Equal(t, want, s.Render())
}

func TestExportLineEscaping(t *testing.T) {
	assert.Equal(t, `export A="plain"`, exportLine("A", "plain"))
	assert.Equal(t, `export A="say \"hi\""`, exportLine("A", `say "hi"`))
	assert.Equal(t, `export A="C:\\tmp"`, exportLine("A", `C:\tmp`))
	assert.Equal(t, `export A="$HOME/bin"`, exportLine("A", `$HOME/bin`))
}
