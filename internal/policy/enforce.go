package policy

import (
	"fmt"
	"strings"

	"github.com/google/go-containerregistry/pkg/name"

	"github.com/felixgeelhaar/stagehand/internal/errors"
	"github.com/felixgeelhaar/stagehand/pkg/stagehand/pipeline"
)

// Enforce checks every materialized phase of rep and returns a POLICY-002
// error listing all violations. Failed reports are not checked.
func Enforce(rep *pipeline.Report, pol *Policy) error {
	return AsError(Check(rep, pol))
}

// AsError turns violations into a POLICY-002 error, or nil when there are none.
func AsError(violations []Violation) error {
	if len(violations) == 0 {
		return nil
	}

	msgs := make([]string, len(violations))
	for i, v := range violations {
		msgs[i] = v.String()
	}
	return errors.NewPolicyViolationError(msgs)
}

// Check returns the violations of rep in stage and phase order.
func Check(rep *pipeline.Report, pol *Policy) []Violation {
	if rep == nil || pol == nil || !rep.Success {
		return nil
	}

	var violations []Violation
	for _, stage := range rep.Pipeline.Stages {
		for _, phase := range stage {
			if !phase.Materialized {
				continue
			}
			violations = append(violations, checkPhase(phase, pol)...)
		}
	}
	return violations
}

func checkPhase(phase pipeline.PhaseEntry, pol *Policy) []Violation {
	var out []Violation
	add := func(rule, format string, args ...any) {
		out = append(out, Violation{PhaseID: phase.ID, Rule: rule, Message: fmt.Sprintf(format, args...)})
	}

	if args := phase.ContainerArgs; args != nil {
		image := args.RawArgs[pipeline.ArgImage]
		if len(pol.Images.Allowlist) > 0 && !imageAllowed(image, pol.Images.Allowlist) {
			if image == "" {
				add(RuleImageAllowlist, "no image set while an image allowlist is configured")
			} else {
				add(RuleImageAllowlist, "image %q is not in the allowlist", image)
			}
		}

		if len(args.Links) > 0 && !pol.Images.AllowLinks {
			add(RuleAllowLinks, "linked containers are not allowed (%d declared)", len(args.Links))
		}
		for _, link := range args.Links {
			if len(pol.Images.Allowlist) > 0 && !imageAllowed(link.Image, pol.Images.Allowlist) {
				add(RuleImageAllowlist, "linked image %q is not in the allowlist", link.Image)
			}
		}
	}

	if d := phase.Docker; d != nil {
		if d.PushEnabled && !pol.Docker.AllowPush {
			add(RuleAllowPush, "container push is not allowed")
		}
		if d.Declared() && len(d.Tags) == 0 && pol.Docker.RequireTags {
			add(RuleRequireTags, "container build or push declared without tags")
		}
		if pol.Docker.ValidateTags {
			for _, tag := range d.Tags {
				if _, err := name.ParseReference(tag); err != nil {
					add(RuleValidateTags, "tag %q is not a valid image reference", tag)
				}
			}
		}
	}

	return out
}

// imageAllowed matches image against the allowlist. Exact entries match when
// both sides resolve to the same fully qualified reference, so "golang:1.22"
// also matches "docker.io/library/golang:1.22". Entries ending in "*" match by
// prefix, against the image as written or fully qualified.
func imageAllowed(image string, allowlist []string) bool {
	if image == "" {
		return false
	}
	qualified := qualify(image)

	for _, pattern := range allowlist {
		if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
			if strings.HasPrefix(image, prefix) || strings.HasPrefix(qualified, prefix) {
				return true
			}
			continue
		}
		if image == pattern || qualified == qualify(pattern) {
			return true
		}
	}
	return false
}

// qualify returns the fully qualified form of ref, or ref itself when it does
// not parse.
func qualify(ref string) string {
	r, err := name.ParseReference(ref)
	if err != nil {
		return ref
	}
	return r.Name()
}
