package pipeline

import (
	"github.com/felixgeelhaar/stagehand/pkg/stagehand/env"
)

// Workspace builds the preparation script that runs before a phase's main
// script. The script is only emitted when the configuration callback changed
// the workspace.
type Workspace struct {
	script  Script
	touched bool
}

// NewWorkspace seeds the preparation script with the exports of envs, one
// block per mapping, followed by a cd into $WORKSPACE_PATH.
func NewWorkspace(envs ...env.Env) *Workspace {
	w := &Workspace{}
	// A fresh script is writable, so the preamble cannot fail.
	_ = writePreamble(&w.script, envs)
	return w
}

// GrantFullAccess gives everyone read, write and execute access to the
// workspace tree. Repeated calls add nothing.
func (w *Workspace) GrantFullAccess() *Workspace {
	if w.touched {
		return w
	}
	_ = w.script.Run("chmod -R o=rwx $" + env.WorkspacePath)
	w.touched = true
	return w
}

// Touched reports whether anything beyond the preamble was written.
func (w *Workspace) Touched() bool {
	return w.touched
}

// Script returns the preparation script and true when the workspace was
// touched. An untouched workspace has no script.
func (w *Workspace) Script() (string, bool) {
	if !w.touched {
		return "", false
	}
	return w.script.Render(), true
}
