package component

import (
	"context"

	"github.com/c360/comptree/spec"
)

// Reserved context names and env flags.
const (
	// RootName resolves to the enclosing top-level component.
	RootName = "_"
	// LoaderName resolves to the loader at the top context.
	LoaderName = "loader"
	// ProxyName is reserved for platform proxies and never swept as unknown.
	ProxyName = "ca"

	// TemporaryFlag marks a child whose failure is not a restart trigger
	// for its parent.
	TemporaryFlag = "__ca_temporary__"
	// NotUnknownFlag marks a registered child that is not in the parent's
	// expected set but must survive unknown-child sweeps.
	NotUnknownFlag = "__ca_isNotUnknown__"
)

// Component is the kernel contract every live object in a supervised tree
// satisfies.
type Component interface {
	// Spec returns the immutable resolved description of this component.
	Spec() *spec.Spec
	// IsShutdown reports whether the component has been shut down. The
	// flag is monotonic: once true, it stays true.
	IsShutdown() bool
	// Checkup probes the component's health. It fails once the component
	// is shut down.
	Checkup(ctx context.Context, data *Data) error
	// Shutdown deactivates the component and deregisters it from its
	// context. It is idempotent and succeeds on repeated calls.
	Shutdown(ctx context.Context, data *Data) error
}

// Data carries per-checkup hints downward and annotations upward.
type Data struct {
	// DoNotRestart suppresses restarts: a failing child propagates its
	// error instead of being re-created.
	DoNotRestart bool
	// RestartAll is set by a static container when a full restart cascade
	// ran during this checkup, so observers can report it.
	RestartAll bool
}

// Factory constructs a component from its resolved spec, registering
// nothing itself. The loader invokes factories and performs registration
// after a first successful checkup.
type Factory func(ctx context.Context, c *Context, s *spec.Spec) (Component, error)

// Module is the terminal of a module accessor walk: an object exposing a
// component factory.
type Module interface {
	NewInstance(ctx context.Context, c *Context, s *spec.Spec) (Component, error)
}

// ModuleFunc adapts a Factory to the Module interface.
type ModuleFunc Factory

// NewInstance invokes the adapted factory.
func (f ModuleFunc) NewInstance(ctx context.Context, c *Context, s *spec.Spec) (Component, error) {
	return f(ctx, c, s)
}

// Loader is the slice of the loader contract the component layer needs:
// containers create children through it without importing the loader
// package.
type Loader interface {
	// LoadComponent resolves the spec's module, invokes its factory, runs
	// a first checkup, and registers the component into c on success.
	LoadComponent(ctx context.Context, c *Context, s *spec.Spec) (Component, error)
}

// IsTemporary reports whether a spec carries the temporary-child flag.
func IsTemporary(s *spec.Spec) bool {
	return s != nil && s.Env.GetBool(TemporaryFlag, false)
}

// IsNotUnknown reports whether a spec opts out of unknown-child sweeps.
func IsNotUnknown(s *spec.Spec) bool {
	return s != nil && s.Env.GetBool(NotUnknownFlag, false)
}
