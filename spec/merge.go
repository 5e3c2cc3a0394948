package spec

import (
	"fmt"

	"github.com/c360/comptree/errors"
)

// Merge combines a template spec with a delta and returns a fresh deep
// clone. Neither input is mutated.
//
// Scalar fields take the delta value when present, otherwise the template
// value. Env merges by shallow override: every key in the delta replaces the
// template's value wholesale. The components arrays merge under the cursor
// rule: a cursor starts before the first entry, matching an existing child
// by name moves the cursor to it, and unmatched delta entries insert
// immediately after the cursor. A delta entry with a null module deletes the
// matching child. Touch-then-insert therefore lets a delta reorder children.
//
// overrideName permits the delta to rename the component; it is only
// honoured at the root of a merge. Child merges always require matching
// names.
func Merge(template *Spec, delta *Override, overrideName bool) (*Spec, error) {
	if template == nil {
		return nil, fmt.Errorf("nil template: %w", errors.ErrInvalidSpec)
	}
	out := template.Clone()
	if delta == nil {
		return out, nil
	}

	if delta.Name != "" && delta.Name != out.Name {
		if !overrideName {
			return nil, fmt.Errorf("delta name %q does not match %q: %w",
				delta.Name, out.Name, errors.ErrInvalidSpec)
		}
		out.Name = delta.Name
	}
	if delta.Module.IsDelete() {
		return nil, fmt.Errorf("component %q cannot delete itself: %w",
			out.Name, errors.ErrInvalidSpec)
	}
	if delta.Module.Has() {
		out.Module = delta.Module.Path()
	}
	if delta.Description != "" {
		out.Description = delta.Description
	}

	if len(delta.Env) > 0 && out.Env == nil {
		out.Env = Env{}
	}
	for k, v := range delta.Env {
		out.Env[k] = CloneValue(v)
	}

	merged, err := mergeComponents(out.Components, delta.Components)
	if err != nil {
		return nil, fmt.Errorf("component %q: %w", out.Name, err)
	}
	out.Components = merged
	return out, nil
}

// mergeComponents applies the cursor rule over a result array that starts as
// the template's children (already cloned by the caller).
func mergeComponents(result []*Spec, deltas []*Override) ([]*Spec, error) {
	lastOp := -1
	for _, d := range deltas {
		idx := indexOf(result, d.Name)
		switch {
		case idx >= 0 && d.Module.IsDelete():
			lastOp = idx - 1
			result = append(result[:idx], result[idx+1:]...)
		case idx >= 0:
			merged, err := Merge(result[idx], d, false)
			if err != nil {
				return nil, err
			}
			result[idx] = merged
			lastOp = idx
		case d.Module.IsDelete():
			// Deleting an absent child is a no-op.
		default:
			ins, err := d.toSpec()
			if err != nil {
				return nil, err
			}
			pos := lastOp + 1
			result = append(result, nil)
			copy(result[pos+1:], result[pos:])
			result[pos] = ins
			lastOp = pos
		}
	}
	return result, nil
}

func indexOf(specs []*Spec, name string) int {
	for i, s := range specs {
		if s.Name == name {
			return i
		}
	}
	return -1
}
