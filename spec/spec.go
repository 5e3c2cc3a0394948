// Package spec defines the declarative description data model for component
// trees: the Spec type, validation, deep cloning, the order-sensitive merge
// of description deltas, environment substitution, and top-env linking.
package spec

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/c360/comptree/errors"
)

// Env holds the configuration mapping of a component. Values are any
// JSON-representable type: objects, arrays, numbers, strings, booleans, null.
type Env map[string]any

// Spec is the resolved description of one component in the tree.
type Spec struct {
	// Name identifies the component, unique within its parent's children.
	Name string `json:"name"`
	// Module is the logical module path providing the component factory,
	// possibly with a #-separated accessor chain (pkg#ns#factory).
	Module string `json:"module"`
	// Description is optional free text.
	Description string `json:"description,omitempty"`
	// Env carries the component configuration.
	Env Env `json:"env"`
	// Components lists the child specs in declaration order.
	Components []*Spec `json:"components,omitempty"`
}

// Parse decodes a JSON description document into a Spec.
func Parse(data []byte) (*Spec, error) {
	var s Spec
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.WrapInvalid(err, "Spec", "Parse", "description decode")
	}
	return &s, nil
}

// Validate checks the structural invariants of a spec tree: non-empty name
// and module at every node, and unique child names within every components
// array.
func (s *Spec) Validate() error {
	if s == nil {
		return fmt.Errorf("nil spec: %w", errors.ErrInvalidSpec)
	}
	if s.Name == "" {
		return fmt.Errorf("missing name: %w", errors.ErrInvalidSpec)
	}
	if s.Module == "" {
		return fmt.Errorf("component %q missing module: %w", s.Name, errors.ErrInvalidSpec)
	}
	seen := make(map[string]struct{}, len(s.Components))
	for _, child := range s.Components {
		if child == nil {
			return fmt.Errorf("component %q has nil child: %w", s.Name, errors.ErrInvalidSpec)
		}
		if _, dup := seen[child.Name]; dup {
			return fmt.Errorf("component %q child %q: %w", s.Name, child.Name, errors.ErrDuplicateChild)
		}
		seen[child.Name] = struct{}{}
		if err := child.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy of the spec via a JSON round-trip. The copy is
// structurally equal to and reference-disjoint from the original.
func (s *Spec) Clone() *Spec {
	if s == nil {
		return nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		// Specs originate from JSON documents, so marshalling cannot fail.
		panic(fmt.Sprintf("spec clone marshal: %v", err))
	}
	var out Spec
	if err := json.Unmarshal(data, &out); err != nil {
		panic(fmt.Sprintf("spec clone unmarshal: %v", err))
	}
	return &out
}

// CloneValue deep-copies an arbitrary JSON-representable env value.
func CloneValue(v any) any {
	switch v.(type) {
	case nil, bool, string, float64, int, int64:
		return v
	}
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("env value clone marshal: %v", err))
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		panic(fmt.Sprintf("env value clone unmarshal: %v", err))
	}
	return out
}

// Child returns the child spec with the given name, or nil.
func (s *Spec) Child(name string) *Spec {
	for _, c := range s.Components {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// GetString returns the string env value for key, or def when the key is
// absent or not a string.
func (e Env) GetString(key, def string) string {
	if v, ok := e[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// GetInt returns the integer env value for key, or def when the key is
// absent or not numeric. JSON numbers arrive as float64 and are truncated.
func (e Env) GetInt(key string, def int) int {
	if v, ok := e[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		case int64:
			return int(n)
		case json.Number:
			if i, err := n.Int64(); err == nil {
				return int(i)
			}
		}
	}
	return def
}

// GetBool returns the boolean env value for key, or def when the key is
// absent or not a boolean.
func (e Env) GetBool(key string, def bool) bool {
	if v, ok := e[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// GetDuration interprets the env value for key as a count of milliseconds
// and returns it as a duration, or def when absent or not numeric.
func (e Env) GetDuration(key string, def time.Duration) time.Duration {
	v, ok := e[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return time.Duration(n * float64(time.Millisecond))
	case int:
		return time.Duration(n) * time.Millisecond
	case int64:
		return time.Duration(n) * time.Millisecond
	}
	return def
}

// RequireInt returns the integer env value for key, failing when the key is
// absent, not numeric, or below min.
func (e Env) RequireInt(key string, min int) (int, error) {
	v, ok := e[key]
	if !ok {
		return 0, fmt.Errorf("env key %q required: %w", key, errors.ErrInvalidSpec)
	}
	var n int
	switch x := v.(type) {
	case float64:
		n = int(x)
	case int:
		n = x
	case int64:
		n = int(x)
	default:
		return 0, fmt.Errorf("env key %q must be an integer, got %T: %w", key, v, errors.ErrInvalidSpec)
	}
	if n < min {
		return 0, fmt.Errorf("env key %q must be >= %d, got %d: %w", key, min, n, errors.ErrInvalidSpec)
	}
	return n, nil
}
