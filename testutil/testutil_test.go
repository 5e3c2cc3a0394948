package testutil

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/comptree/component"
	"github.com/c360/comptree/errors"
)

func TestHello_GreetAndState(t *testing.T) {
	c := component.NewContext()
	comp, err := NewHello(context.Background(), c, HelloDesc("greeter", "fr"))
	require.NoError(t, err)

	h := comp.(*Hello)
	assert.Equal(t, "fr", h.Language())
	assert.Equal(t, "Bonjour world", h.Greet("world"))

	h.SetMessage("Salut")
	assert.Equal(t, "Salut world", h.Greet("world"))

	require.NoError(t, h.Checkup(context.Background(), nil))
	assert.Equal(t, 1, h.CheckupCount())
}

func TestHello_UnknownLanguageFallsBack(t *testing.T) {
	comp, err := NewHello(context.Background(), component.NewContext(), HelloDesc("greeter", "xx"))
	require.NoError(t, err)
	assert.Equal(t, "Hello", comp.(*Hello).Message())
}

func TestFaulty_AlwaysAndNever(t *testing.T) {
	never, err := NewFaulty(context.Background(), component.NewContext(), FaultyDesc("stable", 0))
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		require.NoError(t, never.Checkup(context.Background(), nil))
	}

	always, err := NewFaulty(context.Background(), component.NewContext(), FaultyDesc("flaky", 1))
	require.NoError(t, err)
	cerr := always.Checkup(context.Background(), nil)
	require.Error(t, cerr)
	assert.ErrorIs(t, cerr, ErrInducedFailure)
	assert.True(t, errors.IsTransient(cerr))
	assert.Equal(t, 1, always.(*Faulty).FailureCount())
}

func TestLang_CommitAndAbort(t *testing.T) {
	ctx := context.Background()
	comp, err := NewLang(ctx, component.NewContext(), LangDesc("lang"))
	require.NoError(t, err)
	l := comp.(*Lang)

	require.NoError(t, l.Begin(ctx, "msg-1"))
	l.SetLanguage("fr")
	l.SetMessage("Bonjour")

	prepared, err := l.Prepare(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"language": "fr", "message": "Bonjour"}, prepared)
	assert.Equal(t, "en", l.Language(), "pending updates invisible before commit")

	require.NoError(t, l.Commit(ctx))
	assert.Equal(t, "fr", l.Language())
	assert.Equal(t, "Bonjour", l.Message())

	require.NoError(t, l.Begin(ctx, "msg-2"))
	l.SetLanguage("es")
	require.NoError(t, l.Abort(ctx))
	assert.Equal(t, "fr", l.Language())
	assert.Equal(t, "msg-2", l.LastMessage())
}

func TestLang_Resume(t *testing.T) {
	ctx := context.Background()
	comp, err := NewLang(ctx, component.NewContext(), LangDesc("lang"))
	require.NoError(t, err)
	l := comp.(*Lang)

	require.NoError(t, l.Resume(ctx, map[string]any{"language": "de", "message": "Hallo"}))
	assert.Equal(t, "de", l.Language())
	assert.Equal(t, "Hallo", l.Message())

	require.NoError(t, l.Resume(ctx, "not a checkpoint"))
	assert.Equal(t, "de", l.Language())
}

func TestModules_TableComplete(t *testing.T) {
	table := Modules()
	for _, name := range []string{
		"hello", "faulty", "lang",
		"container", "dynamic", "transactional", "supervisor",
	} {
		assert.Contains(t, table, name)
	}
}

func TestCapturingPublisher(t *testing.T) {
	p := NewCapturingPublisher()
	require.NoError(t, p.Publish("a.b", []byte("x")))
	require.NoError(t, p.Publish("a.c", []byte("y")))
	assert.Equal(t, []string{"a.b", "a.c"}, p.Subjects())

	p.FailWith(stderrors.New("down"))
	assert.Error(t, p.Publish("a.d", nil))
	assert.Len(t, p.Messages(), 2)

	p.Clear()
	assert.Empty(t, p.Messages())
}
