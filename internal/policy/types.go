// Package policy checks dry-run reports against a container policy: which
// images phases and links may run, and what build and push directives are
// allowed.
package policy

// Policy is the container policy loaded from YAML.
type Policy struct {
	Images ImagePolicy  `yaml:"images" json:"images"`
	Docker DockerPolicy `yaml:"docker" json:"docker"`
}

// ImagePolicy restricts the images phases and linked containers run.
type ImagePolicy struct {
	// Allowlist entries are exact references ("golang:1.22") or prefixes
	// ending in "*" ("ghcr.io/acme/*"). An empty allowlist allows any image.
	Allowlist []string `yaml:"allowlist" json:"allowlist"`
	// AllowLinks permits linked containers.
	AllowLinks bool `yaml:"allow_links" json:"allow_links"`
}

// DockerPolicy restricts the build and push directives of phases.
type DockerPolicy struct {
	AllowPush bool `yaml:"allow_push" json:"allow_push"`
	// RequireTags rejects a build or push declared without tags.
	RequireTags bool `yaml:"require_tags" json:"require_tags"`
	// ValidateTags rejects tags that are not valid image references.
	ValidateTags bool `yaml:"validate_tags" json:"validate_tags"`
}

// Violation is a single policy breach.
type Violation struct {
	PhaseID string `yaml:"phase_id" json:"phase_id"`
	Rule    string `yaml:"rule" json:"rule"`
	Message string `yaml:"message" json:"message"`
}

func (v Violation) String() string {
	return "phase " + v.PhaseID + ": " + v.Message
}

// Rule names reported in violations.
const (
	RuleImageAllowlist = "images.allowlist"
	RuleAllowLinks     = "images.allow_links"
	RuleAllowPush      = "docker.allow_push"
	RuleRequireTags    = "docker.require_tags"
	RuleValidateTags   = "docker.validate_tags"
)
