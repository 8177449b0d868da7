// Package definition loads pipelines declared in YAML and compiles them into
// pipeline.Pipeline values whose callbacks replay the declared configuration
// and steps.
package definition

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/stagehand/internal/errors"
)

// Definition is the YAML form of a pipeline.
type Definition struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	Description string  `yaml:"description,omitempty"`
	Env         any     `yaml:"env,omitempty"`
	Stages      []Stage `yaml:"stages"`
}

// Stage is a group of phases.
type Stage struct {
	Phases []Phase `yaml:"phases"`
}

// Phase is the YAML form of a phase.
type Phase struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Repo        string `yaml:"repo,omitempty"`
	Env         any    `yaml:"env,omitempty"`
	Conf        Conf   `yaml:"conf,omitempty"`
	Exec        []Step `yaml:"exec,omitempty"`
}

// Conf declares the container arguments and workspace changes of a phase.
type Conf struct {
	Image           string            `yaml:"image,omitempty"`
	User            string            `yaml:"user,omitempty"`
	RawArgs         map[string]string `yaml:"raw_args,omitempty"`
	Links           []Link            `yaml:"links,omitempty"`
	GrantFullAccess bool              `yaml:"grant_full_access,omitempty"`
}

// Link declares a linked container.
type Link struct {
	Image string   `yaml:"image"`
	As    string   `yaml:"as,omitempty"`
	Ports []string `yaml:"ports,omitempty"`
}

// Step is one action of a phase's execution. Exactly one field is set.
type Step struct {
	Sh            *string  `yaml:"sh,omitempty"`
	Tags          []string `yaml:"tags,omitempty"`
	CopyWorkspace bool     `yaml:"copy_workspace,omitempty"`
	CopyFolder    *string  `yaml:"copy_folder,omitempty"`
	Build         bool     `yaml:"build,omitempty"`
	Push          bool     `yaml:"push,omitempty"`
}

// actions returns the names of the actions set on the step.
func (s Step) actions() []string {
	var set []string
	if s.Sh != nil {
		set = append(set, "sh")
	}
	if s.Tags != nil {
		set = append(set, "tags")
	}
	if s.CopyWorkspace {
		set = append(set, "copy_workspace")
	}
	if s.CopyFolder != nil {
		set = append(set, "copy_folder")
	}
	if s.Build {
		set = append(set, "build")
	}
	if s.Push {
		set = append(set, "push")
	}
	return set
}

// Load reads and parses a definition file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrap(errors.ErrCodeDefinitionNotFound, "pipeline definition not found: "+path, err).
				WithSuggestion("Pass the definition file with --file")
		}
		return nil, errors.Wrap(errors.ErrCodeDefinitionNotFound, "read pipeline definition", err)
	}
	return Parse(data)
}

// Parse decodes and validates a definition. Unknown fields are rejected.
func Parse(data []byte) (*Definition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		return nil, errors.Wrap(errors.ErrCodeDefinitionParse, "parse pipeline definition", err)
	}
	if def.ID == "" {
		def.ID = def.Name
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Validate checks the structure of the definition. Argument values such as
// tags and env are checked when the pipeline is compiled and dry-run.
func (d *Definition) Validate() error {
	var problems []string

	if d.ID == "" {
		problems = append(problems, "pipeline needs an id or a name")
	}
	if len(d.Stages) == 0 {
		problems = append(problems, "pipeline has no stages")
	}
	for s, stage := range d.Stages {
		if len(stage.Phases) == 0 {
			problems = append(problems, fmt.Sprintf("stage %d has no phases", s+1))
		}
		for p, phase := range stage.Phases {
			where := fmt.Sprintf("stage %d phase %d", s+1, p+1)
			if strings.TrimSpace(phase.Name) == "" {
				problems = append(problems, where+" has no name")
			}
			for i, step := range phase.Exec {
				switch set := step.actions(); len(set) {
				case 0:
					problems = append(problems, fmt.Sprintf("%s step %d has no action", where, i+1))
				case 1:
				default:
					problems = append(problems, fmt.Sprintf("%s step %d has several actions (%s)", where, i+1, strings.Join(set, ", ")))
				}
			}
		}
	}

	if len(problems) > 0 {
		return errors.New(errors.ErrCodeDefinitionInvalid, "invalid pipeline definition: "+strings.Join(problems, "; ")).
			WithSuggestion("Each step sets exactly one of sh, tags, copy_workspace, copy_folder, build, push")
	}
	return nil
}
