package e2e

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/comptree/component"
	"github.com/c360/comptree/container"
	"github.com/c360/comptree/spec"
	"github.com/c360/comptree/testutil"
)

const helloDescription = `{
  "name": "top",
  "module": "comptree/testutil#container",
  "env": {"maxRetries": 1, "retryDelay": 1, "message": "hola mundo"},
  "components": [
    {
      "name": "hello",
      "module": "comptree/testutil#hello",
      "env": {"language": "es", "message": "$._.env.message"}
    }
  ]
}`

func TestHelloWorld(t *testing.T) {
	ctx := context.Background()
	ldr := newLoader(t, map[string]any{"hello.json": helloDescription})

	desc, err := ldr.LoadDescription("hello.json", true, nil)
	require.NoError(t, err)
	assert.Equal(t, "top", desc.Name)

	top := component.NewContext()
	top.SetLoader(ldr)
	root, err := ldr.LoadComponent(ctx, top, desc)
	require.NoError(t, err)
	defer func() { _ = root.Shutdown(ctx, nil) }()

	cont := root.(*container.Container)
	hello, ok := cont.Child("hello").(*testutil.Hello)
	require.True(t, ok, "child should be a hello leaf")
	assert.Equal(t, "hola mundo", hello.Message(), "top env link resolved")
	assert.Equal(t, "hola mundo world", hello.Greet("world"))
}

func TestHelloWorld_RenameOverride(t *testing.T) {
	ctx := context.Background()
	ldr := newLoader(t, map[string]any{"hello.json": helloDescription})

	desc, err := ldr.LoadDescription("hello.json", true, &spec.Override{Name: "newHello"})
	require.NoError(t, err)
	assert.Equal(t, "newHello", desc.Name)

	top := component.NewContext()
	top.SetLoader(ldr)
	root, err := ldr.LoadComponent(ctx, top, desc)
	require.NoError(t, err)
	defer func() { _ = root.Shutdown(ctx, nil) }()

	assert.Same(t, root, top.Get("newHello"), "root bound under the new name")
	assert.Nil(t, top.Get("top"), "old name not bound")
}

func TestHelloWorld_RenameRejectedWithoutOptIn(t *testing.T) {
	base, err := spec.Parse([]byte(helloDescription))
	require.NoError(t, err)
	_, err = spec.Merge(base, &spec.Override{Name: "newHello"}, false)
	require.Error(t, err)
}
