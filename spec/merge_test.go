package spec

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/comptree/errors"
)

func mergeTemplate() *Spec {
	return &Spec{
		Name:   "top",
		Module: "testutil#container",
		Env:    Env{"maxRetries": float64(3), "retryDelay": float64(100)},
		Components: []*Spec{
			{Name: "a", Module: "testutil#hello", Env: Env{"msg": "a"}},
			{Name: "b", Module: "testutil#hello", Env: Env{"msg": "b"}},
			{Name: "c", Module: "testutil#hello", Env: Env{"msg": "c"}},
		},
	}
}

func childNames(s *Spec) []string {
	names := make([]string, 0, len(s.Components))
	for _, c := range s.Components {
		names = append(names, c.Name)
	}
	return names
}

func TestMergeNilDelta(t *testing.T) {
	tpl := mergeTemplate()
	out, err := Merge(tpl, nil, false)
	require.NoError(t, err)
	assert.Equal(t, tpl, out)
	assert.NotSame(t, tpl, out)
}

func TestMergeScalarsAndEnv(t *testing.T) {
	tpl := mergeTemplate()
	delta := &Override{
		Name:        "top",
		Description: "updated",
		Env:         Env{"maxRetries": float64(9), "extra": "yes"},
	}

	out, err := Merge(tpl, delta, false)
	require.NoError(t, err)
	assert.Equal(t, "updated", out.Description)
	assert.Equal(t, float64(9), out.Env["maxRetries"])
	assert.Equal(t, float64(100), out.Env["retryDelay"])
	assert.Equal(t, "yes", out.Env["extra"])

	// shallow override: delta env values replace wholesale
	tpl2 := &Spec{Name: "n", Module: "m",
		Env: Env{"obj": map[string]any{"keep": "x", "drop": "y"}}}
	out2, err := Merge(tpl2, &Override{Name: "n",
		Env: Env{"obj": map[string]any{"keep": "z"}}}, false)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"keep": "z"}, out2.Env["obj"])
}

func TestMergeNamePolicy(t *testing.T) {
	tpl := mergeTemplate()

	_, err := Merge(tpl, &Override{Name: "other"}, false)
	assert.ErrorIs(t, err, errors.ErrInvalidSpec)

	out, err := Merge(tpl, &Override{Name: "other"}, true)
	require.NoError(t, err)
	assert.Equal(t, "other", out.Name)

	// empty delta name keeps the template name
	out, err = Merge(tpl, &Override{}, false)
	require.NoError(t, err)
	assert.Equal(t, "top", out.Name)
}

func TestMergeComponentsUpdateAndDelete(t *testing.T) {
	tpl := mergeTemplate()
	delta := &Override{
		Name: "top",
		Components: []*Override{
			{Name: "b", Env: Env{"msg": "B"}},
			{Name: "a", Module: NullModule()},
			{Name: "ghost", Module: NullModule()},
		},
	}

	out, err := Merge(tpl, delta, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, childNames(out))
	assert.Equal(t, "B", out.Child("b").Env["msg"])
	assert.Equal(t, "testutil#hello", out.Child("b").Module)
}

func TestMergeCursorInsert(t *testing.T) {
	// touching b moves the cursor; the insert lands right after it
	tpl := mergeTemplate()
	delta := &Override{
		Name: "top",
		Components: []*Override{
			{Name: "b"},
			{Name: "new", Module: NewModule("testutil#hello"), Env: Env{"msg": "n"}},
		},
	}

	out, err := Merge(tpl, delta, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "new", "c"}, childNames(out))
}

func TestMergeCursorInsertAtFront(t *testing.T) {
	// no touch yet, cursor is before the first entry
	tpl := mergeTemplate()
	delta := &Override{
		Name: "top",
		Components: []*Override{
			{Name: "first", Module: NewModule("testutil#hello")},
		},
	}

	out, err := Merge(tpl, delta, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "a", "b", "c"}, childNames(out))
}

func TestMergeCursorDeleteThenInsert(t *testing.T) {
	// deleting b leaves the cursor before c, so the insert takes b's slot
	tpl := mergeTemplate()
	delta := &Override{
		Name: "top",
		Components: []*Override{
			{Name: "b", Module: NullModule()},
			{Name: "new", Module: NewModule("testutil#hello")},
		},
	}

	out, err := Merge(tpl, delta, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "new", "c"}, childNames(out))
}

func TestMergeReorderByTouch(t *testing.T) {
	// touch c then insert: touching moves the cursor to c while the array
	// keeps its shape, so the insert lands after c
	tpl := mergeTemplate()
	delta := &Override{
		Name: "top",
		Components: []*Override{
			{Name: "c"},
			{Name: "tail", Module: NewModule("testutil#hello")},
		},
	}

	out, err := Merge(tpl, delta, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "tail"}, childNames(out))
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	tpl := mergeTemplate()
	tplSnapshot, err := json.Marshal(tpl)
	require.NoError(t, err)

	delta := &Override{
		Name: "top",
		Env:  Env{"maxRetries": float64(1)},
		Components: []*Override{
			{Name: "a", Env: Env{"msg": "A"}},
			{Name: "b", Module: NullModule()},
			{Name: "new", Module: NewModule("testutil#hello"), Env: Env{"msg": "n"}},
		},
	}
	deltaSnapshot, err := json.Marshal(delta)
	require.NoError(t, err)

	out, err := Merge(tpl, delta, false)
	require.NoError(t, err)

	// mutate the output and recheck the inputs
	out.Env["maxRetries"] = float64(77)
	out.Child("a").Env["msg"] = "mutated"
	out.Child("new").Env["msg"] = "mutated"

	tplAfter, _ := json.Marshal(tpl)
	deltaAfter, _ := json.Marshal(delta)
	assert.JSONEq(t, string(tplSnapshot), string(tplAfter))
	assert.JSONEq(t, string(deltaSnapshot), string(deltaAfter))
}

func TestMergeNestedComponents(t *testing.T) {
	tpl := &Spec{
		Name: "top", Module: "m",
		Components: []*Spec{
			{Name: "mid", Module: "m", Components: []*Spec{
				{Name: "leaf", Module: "m", Env: Env{"msg": "old"}},
			}},
		},
	}
	delta := &Override{
		Name: "top",
		Components: []*Override{
			{Name: "mid", Components: []*Override{
				{Name: "leaf", Env: Env{"msg": "new"}},
			}},
		},
	}

	out, err := Merge(tpl, delta, false)
	require.NoError(t, err)
	assert.Equal(t, "new", out.Child("mid").Child("leaf").Env["msg"])
}

func TestMergeChildRenameRejected(t *testing.T) {
	// name overriding only applies at the merge root; a mismatched child
	// delta name is an unmatched entry and must carry a module to insert
	tpl := mergeTemplate()
	delta := &Override{
		Name: "top",
		Components: []*Override{
			{Name: "renamed", Env: Env{"msg": "x"}},
		},
	}

	_, err := Merge(tpl, delta, true)
	assert.ErrorIs(t, err, errors.ErrInvalidSpec)
}

func TestMergeSelfDeleteRejected(t *testing.T) {
	tpl := mergeTemplate()
	_, err := Merge(tpl, &Override{Name: "top", Module: NullModule()}, false)
	assert.ErrorIs(t, err, errors.ErrInvalidSpec)
}

func TestOptionalModuleJSON(t *testing.T) {
	var o Override
	require.NoError(t, json.Unmarshal([]byte(`{"name":"x","module":null}`), &o))
	assert.True(t, o.Module.IsDelete())

	var o2 Override
	require.NoError(t, json.Unmarshal([]byte(`{"name":"x","module":"pkg#f"}`), &o2))
	assert.True(t, o2.Module.Has())
	assert.Equal(t, "pkg#f", o2.Module.Path())

	var o3 Override
	require.NoError(t, json.Unmarshal([]byte(`{"name":"x"}`), &o3))
	assert.False(t, o3.Module.IsDelete())
	assert.False(t, o3.Module.Has())
}
