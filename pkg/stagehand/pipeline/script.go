package pipeline

import (
	"strings"

	"github.com/felixgeelhaar/stagehand/internal/errors"
	"github.com/felixgeelhaar/stagehand/pkg/stagehand/env"
)

const (
	newLine = "\n"
	shebang = "#!/bin/sh"
)

// ScriptState is the write state of a Script.
type ScriptState int

const (
	// Writable scripts accept new lines.
	Writable ScriptState = iota
	// Locked scripts reject every write. Locking is permanent.
	Locked
)

// String returns the string representation of the state
func (s ScriptState) String() string {
	switch s {
	case Writable:
		return "writable"
	case Locked:
		return "locked"
	default:
		return "unknown"
	}
}

// Script is an append-only buffer of shell script lines.
type Script struct {
	buf   strings.Builder
	state ScriptState
}

// Run appends line followed by a newline.
func (s *Script) Run(line string) error {
	if s.state == Locked {
		return errors.Newf(errors.ErrCodeScriptLocked, "cannot append to a locked script: %q", line)
	}
	s.buf.WriteString(line)
	s.buf.WriteString(newLine)
	return nil
}

// BlankLine appends an empty line.
func (s *Script) BlankLine() error {
	if s.state == Locked {
		return errors.New(errors.ErrCodeScriptLocked, "cannot append to a locked script")
	}
	s.buf.WriteString(newLine)
	return nil
}

// Render returns everything written so far.
func (s *Script) Render() string {
	return s.buf.String()
}

// State returns the current write state.
func (s *Script) State() ScriptState {
	return s.state
}

// Lock makes the script read-only.
func (s *Script) Lock() {
	s.state = Locked
}

// writePreamble writes the shebang, one export block per source mapping and
// the cd into the workspace. Blocks keep the grouping of envs; keys inside a
// block are sorted so the output is reproducible.
func writePreamble(s *Script, envs []env.Env) error {
	lines := []string{shebang, ""}
	for _, e := range envs {
		for _, k := range e.Keys() {
			lines = append(lines, exportLine(k, e[k]))
		}
		lines = append(lines, "")
	}
	lines = append(lines, "cd $"+env.WorkspacePath, "")

	for _, line := range lines {
		var err error
		if line == "" {
			err = s.BlankLine()
		} else {
			err = s.Run(line)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

var exportEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// exportLine renders export KEY="VALUE". Backslashes and double quotes are
// escaped; $ is left alone so values may reference other variables.
func exportLine(key, value string) string {
	return "export " + key + `="` + exportEscaper.Replace(value) + `"`
}
