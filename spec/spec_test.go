package spec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/comptree/errors"
)

func helloSpec() *Spec {
	return &Spec{
		Name:   "top",
		Module: "testutil#hello",
		Env:    Env{"msg": "hola mundo", "number": float64(7)},
		Components: []*Spec{
			{Name: "h1", Module: "testutil#hello", Env: Env{"msg": "one"}},
			{Name: "h2", Module: "testutil#hello", Env: Env{"msg": "two"}},
		},
	}
}

func TestParse(t *testing.T) {
	data := []byte(`{
		"name": "top",
		"module": "testutil#hello",
		"env": {"msg": "hola mundo"},
		"components": [
			{"name": "h1", "module": "testutil#hello", "env": {}}
		]
	}`)

	s, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "top", s.Name)
	assert.Equal(t, "testutil#hello", s.Module)
	assert.Equal(t, "hola mundo", s.Env["msg"])
	require.Len(t, s.Components, 1)
	assert.Equal(t, "h1", s.Components[0].Name)

	_, err = Parse([]byte(`{not json`))
	assert.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Spec)
		wantErr error
	}{
		{"valid", func(s *Spec) {}, nil},
		{"missing name", func(s *Spec) { s.Name = "" }, errors.ErrInvalidSpec},
		{"missing module", func(s *Spec) { s.Module = "" }, errors.ErrInvalidSpec},
		{"duplicate child", func(s *Spec) {
			s.Components = append(s.Components, &Spec{Name: "h1", Module: "m"})
		}, errors.ErrDuplicateChild},
		{"invalid grandchild", func(s *Spec) {
			s.Components[0].Components = []*Spec{{Name: "g", Module: ""}}
		}, errors.ErrInvalidSpec},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s := helloSpec()
			test.mutate(s)
			err := s.Validate()
			if test.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, test.wantErr)
		})
	}
}

func TestClone(t *testing.T) {
	s := helloSpec()
	s.Env["nested"] = map[string]any{"a": []any{float64(1), "b"}}

	c := s.Clone()
	assert.Equal(t, s, c)

	c.Env["msg"] = "changed"
	c.Components[0].Env["msg"] = "changed"
	c.Env["nested"].(map[string]any)["a"].([]any)[0] = float64(99)

	assert.Equal(t, "hola mundo", s.Env["msg"])
	assert.Equal(t, "one", s.Components[0].Env["msg"])
	assert.Equal(t, float64(1), s.Env["nested"].(map[string]any)["a"].([]any)[0])
}

func TestChild(t *testing.T) {
	s := helloSpec()
	require.NotNil(t, s.Child("h2"))
	assert.Equal(t, "two", s.Child("h2").Env["msg"])
	assert.Nil(t, s.Child("absent"))
}

func TestEnvGetters(t *testing.T) {
	env := Env{
		"str":      "hello",
		"num":      float64(42),
		"flag":     true,
		"interval": float64(1500),
	}

	assert.Equal(t, "hello", env.GetString("str", "d"))
	assert.Equal(t, "d", env.GetString("absent", "d"))
	assert.Equal(t, "d", env.GetString("num", "d"))

	assert.Equal(t, 42, env.GetInt("num", -1))
	assert.Equal(t, -1, env.GetInt("str", -1))

	assert.True(t, env.GetBool("flag", false))
	assert.False(t, env.GetBool("absent", false))

	assert.Equal(t, 1500*time.Millisecond, env.GetDuration("interval", 0))
	assert.Equal(t, time.Second, env.GetDuration("absent", time.Second))
}

func TestRequireInt(t *testing.T) {
	env := Env{"maxRetries": float64(3), "bad": "x", "neg": float64(-1)}

	n, err := env.RequireInt("maxRetries", 0)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = env.RequireInt("absent", 0)
	assert.ErrorIs(t, err, errors.ErrInvalidSpec)

	_, err = env.RequireInt("bad", 0)
	assert.ErrorIs(t, err, errors.ErrInvalidSpec)

	_, err = env.RequireInt("neg", 0)
	assert.ErrorIs(t, err, errors.ErrInvalidSpec)
}
