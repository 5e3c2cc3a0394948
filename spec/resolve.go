package spec

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/c360/comptree/errors"
)

const (
	// envPrefix marks an env string for process-environment substitution.
	envPrefix = "process.env."
	// linkPrefix marks an env string as a link into the root spec env.
	linkPrefix = "$._.env."
	// defaultSep separates the variable name from its default value.
	defaultSep = "||"
)

// Resolve runs environment substitution followed by top-env linking over
// the whole spec tree, in place. Both passes are idempotent.
func Resolve(s *Spec) error {
	if err := ResolveEnv(s); err != nil {
		return err
	}
	return ResolveLinks(s)
}

// ResolveEnv walks the spec tree and substitutes every env string of the
// form "process.env.NAME" or "process.env.NAME||default". A defined
// process variable is JSON-parsed, falling back to the raw string. An
// undefined variable takes the parsed default, or leaves the key unset when
// no default was given. Substitution recurses into nested objects and
// arrays.
func ResolveEnv(s *Spec) error {
	if s == nil {
		return nil
	}
	resolveEnvMap(s.Env)
	for _, c := range s.Components {
		if err := ResolveEnv(c); err != nil {
			return err
		}
	}
	return nil
}

func resolveEnvMap(env Env) {
	for k, v := range env {
		nv, present := resolveEnvValue(v)
		if !present {
			delete(env, k)
			continue
		}
		env[k] = nv
	}
}

func resolveEnvValue(v any) (any, bool) {
	switch x := v.(type) {
	case string:
		if !strings.HasPrefix(x, envPrefix) {
			return v, true
		}
		return substituteEnv(strings.TrimPrefix(x, envPrefix))
	case map[string]any:
		for k, elem := range x {
			nv, present := resolveEnvValue(elem)
			if !present {
				delete(x, k)
				continue
			}
			x[k] = nv
		}
		return x, true
	case []any:
		for i, elem := range x {
			nv, present := resolveEnvValue(elem)
			if !present {
				x[i] = nil
				continue
			}
			x[i] = nv
		}
		return x, true
	default:
		return v, true
	}
}

func substituteEnv(expr string) (any, bool) {
	name, def, hasDef := strings.Cut(expr, defaultSep)
	if raw, ok := os.LookupEnv(name); ok {
		return parseEnvValue(raw), true
	}
	if hasDef {
		return parseEnvValue(def), true
	}
	return nil, false
}

// parseEnvValue JSON-parses a raw environment string, falling back to the
// string itself when it is not valid JSON.
func parseEnvValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}

// ResolveLinks walks the spec tree and replaces every env string of the
// form "$._.env.KEY" with the root spec's env value for KEY. Linked values
// must already be fully resolved; a link resolving to another link, or to a
// missing key, is an error. Given resolved env, the pass is idempotent.
func ResolveLinks(root *Spec) error {
	if root == nil {
		return nil
	}
	// Lookups go against a snapshot of the top env, so resolution order
	// cannot hide a link that targets another link.
	top := make(Env, len(root.Env))
	for k, v := range root.Env {
		top[k] = v
	}
	return resolveLinksWalk(root, top)
}

func resolveLinksWalk(s *Spec, top Env) error {
	for k, v := range s.Env {
		nv, err := resolveLinkValue(v, top, s.Name)
		if err != nil {
			return err
		}
		s.Env[k] = nv
	}
	for _, c := range s.Components {
		if err := resolveLinksWalk(c, top); err != nil {
			return err
		}
	}
	return nil
}

func resolveLinkValue(v any, top Env, owner string) (any, error) {
	switch x := v.(type) {
	case string:
		if !strings.HasPrefix(x, linkPrefix) {
			return v, nil
		}
		key := strings.TrimPrefix(x, linkPrefix)
		target, ok := top[key]
		if !ok {
			return nil, fmt.Errorf("component %q links %q but the top env has no such key: %w",
				owner, key, errors.ErrUnresolvedLink)
		}
		if ts, isStr := target.(string); isStr && strings.HasPrefix(ts, linkPrefix) {
			return nil, fmt.Errorf("component %q link %q resolves to another link: %w",
				owner, key, errors.ErrUnresolvedLink)
		}
		return CloneValue(target), nil
	case map[string]any:
		for k, elem := range x {
			nv, err := resolveLinkValue(elem, top, owner)
			if err != nil {
				return nil, err
			}
			x[k] = nv
		}
		return x, nil
	case []any:
		for i, elem := range x {
			nv, err := resolveLinkValue(elem, top, owner)
			if err != nil {
				return nil, err
			}
			x[i] = nv
		}
		return x, nil
	default:
		return v, nil
	}
}
