package pipeline

import (
	"strings"

	"github.com/felixgeelhaar/stagehand/internal/errors"
)

// BuildIntent is the container build and push request captured from a phase.
// It is consumed by the execution backend.
type BuildIntent struct {
	Tags          []string `json:"tags" yaml:"tags"`
	FoldersToCopy []string `json:"folders_to_copy" yaml:"folders_to_copy"`
	BuildEnabled  bool     `json:"build_enabled" yaml:"build_enabled"`
	PushEnabled   bool     `json:"push_enabled" yaml:"push_enabled"`
	CopyWorkspace bool     `json:"copy_workspace" yaml:"copy_workspace"`
}

// Declared reports whether a build or a push was requested.
func (b BuildIntent) Declared() bool {
	return b.BuildEnabled || b.PushEnabled
}

// Docker accumulates the container build and push directives of a phase.
type Docker struct {
	intent BuildIntent
	shell  *Shell
	misuse *misuse
}

// Tag adds build tags. Every tag must be a non-empty string; when one is not,
// nothing is added and the index of the bad tag is reported.
func (d *Docker) Tag(tags ...string) error {
	for i, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			return d.misuse.record(errors.NewInvalidTagError(i))
		}
	}
	d.intent.Tags = append(d.intent.Tags, tags...)
	return nil
}

// Tags returns the tags added so far.
func (d *Docker) Tags() []string {
	return append([]string(nil), d.intent.Tags...)
}

// CopyWorkspace asks the backend to copy the workspace into the build context.
func (d *Docker) CopyWorkspace() *Docker {
	d.intent.CopyWorkspace = true
	return d
}

// CopyFolder asks the backend to copy a workspace-relative folder into the
// build context.
func (d *Docker) CopyFolder(path string) error {
	if strings.TrimSpace(path) == "" {
		return d.misuse.record(errors.NewInvalidFolderError())
	}
	d.intent.FoldersToCopy = append(d.intent.FoldersToCopy, path)
	return nil
}

// Build declares a container build and locks the phase's shell.
func (d *Docker) Build() *Docker {
	d.intent.BuildEnabled = true
	d.shell.lock()
	return d
}

// Push declares a container push and locks the phase's shell.
func (d *Docker) Push() *Docker {
	d.intent.PushEnabled = true
	d.shell.lock()
	return d
}

// Intent returns a copy of the captured build and push request.
func (d *Docker) Intent() BuildIntent {
	intent := d.intent
	intent.Tags = append([]string(nil), d.intent.Tags...)
	intent.FoldersToCopy = append([]string(nil), d.intent.FoldersToCopy...)
	return intent
}

// Shell is the handle used to append commands to a phase's main script.
// Once the container declares a build or push, every further command fails.
type Shell struct {
	script *Script
	misuse *misuse
}

// Run appends command to the main script.
func (sh *Shell) Run(command string) error {
	if sh.script.State() == Locked {
		return sh.misuse.record(errors.NewShellAfterBuildError(command))
	}
	return sh.misuse.record(sh.script.Run(command))
}

// Locked reports whether the shell stopped accepting commands.
func (sh *Shell) Locked() bool {
	return sh.script.State() == Locked
}

func (sh *Shell) lock() {
	sh.script.Lock()
}

// Container is what a phase's execution callback works with: a shell for
// commands and a Docker model for build and push directives.
type Container struct {
	script Script
	misuse misuse
	shell  *Shell
	docker *Docker
}

// NewContainer returns a container with a writable, empty main script.
func NewContainer() *Container {
	c := &Container{}
	c.shell = &Shell{script: &c.script, misuse: &c.misuse}
	c.docker = &Docker{shell: c.shell, misuse: &c.misuse}
	return c
}

// Err returns the first error raised by the container's shell or build
// model, whether or not the caller checked it.
func (c *Container) Err() error {
	return c.misuse.err
}

// Shell returns the container's shell handle.
func (c *Container) Shell() *Shell {
	return c.shell
}

// Sh runs command through the container's shell.
func (c *Container) Sh(command string) error {
	return c.shell.Run(command)
}

// Docker returns the container's build model.
func (c *Container) Docker() *Docker {
	return c.docker
}

// MainScript renders the main script accumulated so far.
func (c *Container) MainScript() string {
	return c.script.Render()
}

// misuse keeps the first error raised on a container. A dry run fails the
// phase with it even when the execution callback dropped the error.
type misuse struct {
	err error
}

func (m *misuse) record(err error) error {
	if err != nil && m.err == nil {
		m.err = err
	}
	return err
}
