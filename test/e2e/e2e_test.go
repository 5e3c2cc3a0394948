// Package e2e exercises whole component trees end to end: description
// loading and merging, hierarchy lifecycle, supervision under induced
// failures, dynamic membership, and two-phase commit flows.
package e2e

import (
	"io"
	"log/slog"
	"testing"

	"github.com/c360/comptree/loader"
	"github.com/c360/comptree/testutil"
)

// newLoader builds a loader over the test module table plus an in-memory
// description store. Description values may be raw JSON strings or bytes.
func newLoader(t *testing.T, descriptions map[string]any) *loader.Loader {
	t.Helper()
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	ldr := loader.New(quiet, nil)
	ldr.SetModules([]loader.Resolver{
		testutil.Resolver(),
		loader.NewStaticResolver("descriptions", descriptions),
	})
	return ldr
}
