package component

import (
	"context"
	"log/slog"
	"sync"

	"github.com/c360/comptree/errors"
	"github.com/c360/comptree/spec"
)

// Base is the generic component kernel. Derived kernels embed it and chain
// their Checkup and Shutdown implementations through the embedded methods.
type Base struct {
	spec   *spec.Spec
	ctx    *Context
	logger *slog.Logger

	mu       sync.Mutex
	shutdown bool
	self     Component
}

// NewBase validates the spec and returns a fresh kernel bound to the
// parent-provided context.
func NewBase(c *Context, s *spec.Spec, logger *slog.Logger) (*Base, error) {
	if s == nil || s.Name == "" || s.Module == "" {
		return nil, errors.WrapInvalid(errors.ErrInvalidSpec, "Component", "NewBase", "spec validation")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Base{
		spec:   s,
		ctx:    c,
		logger: logger.With("component", s.Name),
	}, nil
}

// Bind records the derived component's identity. Context deregistration at
// shutdown removes the binding only when it still points at this exact
// object, so factories bind the outermost value before returning.
func (b *Base) Bind(self Component) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.self = self
}

// Self returns the identity recorded by Bind, or nil.
func (b *Base) Self() Component {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.self
}

// Spec returns the immutable resolved spec.
func (b *Base) Spec() *spec.Spec { return b.spec }

// Context returns the context this component is registered in.
func (b *Base) Context() *Context { return b.ctx }

// Logger returns the component-scoped logger.
func (b *Base) Logger() *slog.Logger { return b.logger }

// IsShutdown reports the monotonic shutdown flag.
func (b *Base) IsShutdown() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.shutdown
}

// Checkup fails once the component is shut down and succeeds otherwise.
func (b *Base) Checkup(ctx context.Context, data *Data) error {
	if b.IsShutdown() {
		return errors.WrapTransient(errors.ErrComponentShutdown, "Component", "Checkup", b.spec.Name)
	}
	return nil
}

// Shutdown marks the component shut down and removes its context binding
// when the context still holds this exact object. Repeated calls succeed.
func (b *Base) Shutdown(ctx context.Context, data *Data) error {
	b.mu.Lock()
	already := b.shutdown
	b.shutdown = true
	self := b.self
	b.mu.Unlock()

	if already {
		return nil
	}
	if b.ctx != nil && self != nil {
		if b.ctx.Deregister(b.spec.Name, self) {
			b.logger.Debug("component deregistered", "name", b.spec.Name)
		}
	}
	return nil
}
