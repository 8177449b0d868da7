package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/stagehand/pkg/stagehand/env"
)

func TestWorkspaceUntouchedHasNoScript(t *testing.T) {
	ws := NewWorkspace(env.Env{"WORKSPACE_PATH": "/ws"})

	script, ok := ws.Script()
	assert.False(t, ok)
	assert.Empty(t, script)
	assert.False(t, ws.Touched())
}

func TestWorkspaceGrantFullAccess(t *testing.T) {
	ws := NewWorkspace(env.Env{"WORKSPACE_PATH": "/ws"}, env.Env{"A": "1"})
	ws.GrantFullAccess()

	script, ok := ws.Script()
	require.True(t, ok)
	assert.True(t, ws.Touched())

	assert.True(t, strings.HasPrefix(script, "#!/bin/sh\n\n"))
	assert.Contains(t, script, "export WORKSPACE_PATH=\"/ws\"\n\nexport A=\"1\"\n\n")
	assert.Contains(t, script, "cd $WORKSPACE_PATH\n")
	assert.Equal(t, 1, strings.Count(script, "chmod -R o=rwx $WORKSPACE_PATH\n"))
	assert.True(t, strings.HasSuffix(script, "chmod -R o=rwx $WORKSPACE_PATH\n"))
}

func TestWorkspaceGrantFullAccessTwice(t *testing.T) {
	ws := NewWorkspace(env.Env{"WORKSPACE_PATH": "/ws"})
	ws.GrantFullAccess().GrantFullAccess()

	script, ok := ws.Script()
	require.True(t, ok)
	assert.Equal(t, 1, strings.Count(script, "chmod -R o=rwx $WORKSPACE_PATH"))
}
