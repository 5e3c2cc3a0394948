package spec

import (
	"encoding/json"
	"fmt"

	"github.com/c360/comptree/errors"
)

// OptionalModule distinguishes the three states a module field can take in a
// description delta: absent, present with a path, and explicitly null. A
// null module in a delta deletes the matching component.
type OptionalModule struct {
	set   bool
	value *string
}

// NewModule returns an OptionalModule carrying the given path.
func NewModule(path string) OptionalModule {
	return OptionalModule{set: true, value: &path}
}

// NullModule returns an OptionalModule carrying an explicit null.
func NullModule() OptionalModule {
	return OptionalModule{set: true}
}

// IsDelete reports whether the field was an explicit JSON null.
func (m OptionalModule) IsDelete() bool { return m.set && m.value == nil }

// Has reports whether the field carries a non-empty module path.
func (m OptionalModule) Has() bool { return m.set && m.value != nil && *m.value != "" }

// Path returns the module path, or the empty string.
func (m OptionalModule) Path() string {
	if m.value == nil {
		return ""
	}
	return *m.value
}

// UnmarshalJSON records presence before decoding, so an absent field stays
// distinguishable from an explicit null.
func (m *OptionalModule) UnmarshalJSON(data []byte) error {
	m.set = true
	if string(data) == "null" {
		m.value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	m.value = &s
	return nil
}

// MarshalJSON renders the module path, or null.
func (m OptionalModule) MarshalJSON() ([]byte, error) {
	if m.value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*m.value)
}

// Override is a description delta. It is structurally a spec, except that
// Module may be an explicit null (delete the matching component) and the
// top-level Name may differ from the template's when name overriding is
// allowed.
type Override struct {
	Name        string         `json:"name"`
	Module      OptionalModule `json:"module,omitempty"`
	Description string         `json:"description,omitempty"`
	Env         Env            `json:"env,omitempty"`
	Components  []*Override    `json:"components,omitempty"`
}

// ParseOverride decodes a JSON delta document into an Override.
func ParseOverride(data []byte) (*Override, error) {
	var o Override
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, errors.WrapInvalid(err, "Spec", "ParseOverride", "delta decode")
	}
	return &o, nil
}

// OverrideFromSpec adapts a plain spec into an override, so callers can pass
// fully-formed specs where a delta is expected.
func OverrideFromSpec(s *Spec) *Override {
	if s == nil {
		return nil
	}
	o := &Override{
		Name:        s.Name,
		Description: s.Description,
		Env:         s.Env,
	}
	if s.Module != "" {
		o.Module = NewModule(s.Module)
	}
	for _, c := range s.Components {
		o.Components = append(o.Components, OverrideFromSpec(c))
	}
	return o
}

// toSpec converts an insertable override subtree into a spec, deep-cloning
// env values. Nested null-module entries have nothing to delete and are
// dropped.
func (o *Override) toSpec() (*Spec, error) {
	if o.Module.IsDelete() || !o.Module.Has() {
		return nil, fmt.Errorf("inserted component %q needs a module: %w", o.Name, errors.ErrInvalidSpec)
	}
	s := &Spec{
		Name:        o.Name,
		Module:      o.Module.Path(),
		Description: o.Description,
		Env:         Env{},
	}
	for k, v := range o.Env {
		s.Env[k] = CloneValue(v)
	}
	for _, c := range o.Components {
		if c.Module.IsDelete() {
			continue
		}
		child, err := c.toSpec()
		if err != nil {
			return nil, err
		}
		s.Components = append(s.Components, child)
	}
	return s, nil
}
