package e2e

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/comptree/component"
	"github.com/c360/comptree/container"
	"github.com/c360/comptree/errors"
	"github.com/c360/comptree/testutil"
)

func newTransactionalTree(t *testing.T) (*container.Transactional, *testutil.Lang) {
	t.Helper()
	ctx := context.Background()
	ldr := newLoader(t, nil)

	top := component.NewContext()
	top.SetLoader(ldr)
	root, err := ldr.LoadComponent(ctx, top,
		testutil.TransactionalDesc("top", testutil.LangDesc("lang")))
	require.NoError(t, err)

	tc := root.(*container.Transactional)
	t.Cleanup(func() { _ = tc.Shutdown(context.Background(), nil) })
	lang := tc.Child("lang").(*testutil.Lang)
	return tc, lang
}

// Staged updates stay invisible until the whole transaction commits.
func TestTransac_CommitAppliesStagedUpdates(t *testing.T) {
	ctx := context.Background()
	tc, lang := newTransactionalTree(t)

	require.NoError(t, tc.Init(ctx))
	require.NoError(t, tc.Begin(ctx, "msg-1"))
	lang.SetLanguage("fr")
	lang.SetMessage("Bonjour")
	tc.LazyApply("SetState", "round-1")

	cp, err := tc.Prepare(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, cp.ID)
	assert.Equal(t, map[string]any{"language": "fr", "message": "Bonjour"},
		cp.Children["lang"])

	assert.Equal(t, "en", lang.Language(), "staged update invisible before commit")
	assert.Nil(t, tc.State(), "deferred action not applied before commit")

	require.NoError(t, tc.Commit(ctx))
	assert.Equal(t, "fr", lang.Language())
	assert.Equal(t, "Bonjour", lang.Message())
	assert.Equal(t, "round-1", tc.State())
	assert.Empty(t, tc.LogActions(), "commit drains the action log")
}

// Abort reverts staged updates; resuming the prepared checkpoint replays
// them afterwards.
func TestTransac_AbortThenResumeReplays(t *testing.T) {
	ctx := context.Background()
	tc, lang := newTransactionalTree(t)

	require.NoError(t, tc.Begin(ctx, "msg-2"))
	lang.SetLanguage("es")
	lang.SetMessage("Hola")

	cp, err := tc.Prepare(ctx)
	require.NoError(t, err)

	require.NoError(t, tc.Abort(ctx))
	assert.Equal(t, "en", lang.Language(), "abort discards staged updates")

	require.NoError(t, tc.Resume(ctx, cp))
	assert.Equal(t, "es", lang.Language(), "resume replays the prepared snapshot")
	assert.Equal(t, "Hola", lang.Message())
}

// exploding is a deferred-action target whose method always fails.
type exploding struct{}

func (exploding) Detonate() error { return stderrors.New("induced commit failure") }

// A deferred action that fails at replay turns Commit into a fatal error:
// after a persisted prepare the container cannot limp along.
func TestTransac_CommitFailureIsFatal(t *testing.T) {
	ctx := context.Background()
	tc, _ := newTransactionalTree(t)

	tc.SetLogTarget(exploding{})
	require.NoError(t, tc.Begin(ctx, "msg-3"))
	tc.LazyApply("Detonate")

	cp, err := tc.Prepare(ctx)
	require.NoError(t, err)
	assert.Len(t, cp.LogActions, 1, "checkpoint carries the pending action")

	err = tc.Commit(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
}

// An unknown deferred method is caught at replay, not silently dropped.
func TestTransac_UnknownDeferredMethodFailsCommit(t *testing.T) {
	ctx := context.Background()
	tc, _ := newTransactionalTree(t)

	require.NoError(t, tc.Begin(ctx, "msg-4"))
	tc.LazyApply("NoSuchMethod", 1, 2)
	require.Error(t, tc.Commit(ctx))
}
