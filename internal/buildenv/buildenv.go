// Package buildenv describes the build a dry run belongs to and derives the
// global environment every phase script exports first.
package buildenv

import (
	"path/filepath"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/stagehand/internal/errors"
	"github.com/felixgeelhaar/stagehand/pkg/stagehand/env"
)

// Global environment keys.
const (
	KeyUserID        = "USER_ID"
	KeyUserPath      = "USER_PATH"
	KeyWorkspaceID   = "WORKSPACE_ID"
	KeyWorkspacePath = env.WorkspacePath
	KeyBuildID       = "BUILD_ID"
)

// Build identifies one run of a pipeline in a workspace.
type Build struct {
	ID            string
	CreatedBy     string
	UserPath      string
	WorkspaceID   string
	WorkspacePath string
}

// New returns a Build for the workspace at workspacePath created by user.
// The build id is a random UUID unless buildID is set. The workspace id is a
// name-based UUID of the absolute workspace path, so it is stable across runs.
// The user path defaults to the directory holding the workspace.
func New(workspacePath, user, buildID string) (*Build, error) {
	if workspacePath == "" {
		return nil, errors.New(errors.ErrCodeMissingWorkspacePath, "workspace path is required").
			WithSuggestion("Pass --workspace or run from inside the workspace")
	}
	abs, err := filepath.Abs(workspacePath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMissingWorkspacePath, "resolve workspace path", err)
	}

	if buildID == "" {
		buildID = uuid.NewString()
	}

	return &Build{
		ID:            buildID,
		CreatedBy:     user,
		UserPath:      filepath.Dir(abs),
		WorkspaceID:   WorkspaceID(abs),
		WorkspacePath: abs,
	}, nil
}

// WorkspaceID returns the name-based UUID of a workspace path.
func WorkspaceID(path string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(path))).String()
}

// GlobalEnv returns the environment exported first by every phase script.
func (b *Build) GlobalEnv() env.Env {
	return env.Env{
		KeyUserID:        b.CreatedBy,
		KeyUserPath:      b.UserPath,
		KeyWorkspaceID:   b.WorkspaceID,
		KeyWorkspacePath: b.WorkspacePath,
		KeyBuildID:       b.ID,
	}
}
