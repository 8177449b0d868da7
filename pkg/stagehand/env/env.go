// Package env implements the environment variable mappings used by pipelines,
// phases and the global build environment.
package env

import (
	"fmt"
	"sort"

	"github.com/felixgeelhaar/stagehand/internal/errors"
)

// WorkspacePath is the reserved variable naming the phase workspace directory.
const WorkspacePath = "WORKSPACE_PATH"

// Env is a flat mapping of environment variable names to values.
type Env map[string]string

// Merge returns a new Env holding every key of envs. When a key appears in
// more than one mapping, the value from the latest mapping wins. No input is
// modified.
func Merge(envs ...Env) Env {
	merged := make(Env)
	for _, e := range envs {
		for k, v := range e {
			merged[k] = v
		}
	}
	return merged
}

// MergeValues merges loosely typed mappings, such as values decoded from a
// definition file. Each value must be an Env, a map[string]string or a
// map[string]any with scalar values; anything else is an ARG-005 error that
// reports the index of the offending input. Nil entries count as empty.
func MergeValues(values ...any) (Env, error) {
	envs := make([]Env, 0, len(values))
	for i, v := range values {
		e, err := fromValue(i, v)
		if err != nil {
			return nil, err
		}
		envs = append(envs, e)
	}
	return Merge(envs...), nil
}

// FromValue converts a single loosely typed mapping into an Env.
func FromValue(v any) (Env, error) {
	return fromValue(0, v)
}

func fromValue(index int, v any) (Env, error) {
	switch m := v.(type) {
	case nil:
		return Env{}, nil
	case Env:
		return m, nil
	case map[string]string:
		return Env(m), nil
	case map[string]any:
		e := make(Env, len(m))
		for k, val := range m {
			s, ok := scalar(val)
			if !ok {
				return nil, errors.NewInvalidEnvError(index, val).
					WithSuggestion(fmt.Sprintf("Value of %q must be a string, number or boolean", k))
			}
			e[k] = s
		}
		return e, nil
	default:
		return nil, errors.NewInvalidEnvError(index, v)
	}
}

func scalar(v any) (string, bool) {
	switch s := v.(type) {
	case nil:
		return "", true
	case string:
		return s, true
	case bool, int, int64, uint64, float64:
		return fmt.Sprint(s), true
	default:
		return "", false
	}
}

// Keys returns the names in e in sorted order.
func (e Env) Keys() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a copy of e. The copy of a nil Env is an empty Env.
func (e Env) Clone() Env {
	return Merge(e)
}
