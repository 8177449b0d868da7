package policy

import (
	"os"
	"strings"

	"github.com/google/go-containerregistry/pkg/name"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/stagehand/internal/errors"
)

// LoadPolicy reads a Policy from a YAML file. Fields the file leaves out keep
// the values of DefaultPolicy.
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodePolicyLoad, "read policy file", err).
			WithSuggestion("Check the path passed with --policy")
	}
	return ParsePolicy(data)
}

// ParsePolicy decodes and validates a YAML policy document.
func ParsePolicy(data []byte) (*Policy, error) {
	policy := DefaultPolicy()
	if err := yaml.Unmarshal(data, policy); err != nil {
		return nil, errors.Wrap(errors.ErrCodePolicyLoad, "unmarshal policy", err)
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return policy, nil
}

// DefaultPolicy allows every image, links and pushes, and checks nothing.
func DefaultPolicy() *Policy {
	return &Policy{
		Images: ImagePolicy{
			Allowlist:  []string{},
			AllowLinks: true,
		},
		Docker: DockerPolicy{
			AllowPush: true,
		},
	}
}

// Validate checks that every exact allowlist entry is a valid image reference.
func (p *Policy) Validate() error {
	for _, entry := range p.Images.Allowlist {
		if strings.TrimSpace(entry) == "" {
			return errors.New(errors.ErrCodePolicyLoad, "image allowlist contains an empty entry")
		}
		if strings.HasSuffix(entry, "*") {
			continue
		}
		if _, err := name.ParseReference(entry); err != nil {
			return errors.Wrap(errors.ErrCodePolicyLoad, "invalid image allowlist entry "+entry, err)
		}
	}
	return nil
}
