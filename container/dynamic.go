package container

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/c360/comptree/component"
	"github.com/c360/comptree/errors"
	"github.com/c360/comptree/spec"
)

// errQueueStopped reports an operation submitted after the container's
// serial queues were stopped.
var errQueueStopped = errors.New("dynamic container queues stopped")

// Dynamic is the runtime-mutable supervising kernel: children come and go
// through InstanceChild and DeleteChild, and recovery is one-for-one. Every
// operation on a given child name is serialized through a sharded
// single-worker queue.
type Dynamic struct {
	*component.Base
	ops childOps

	childCtx *component.Context
	queues   *serialQueues

	mu       sync.RWMutex
	expected map[string]*spec.Spec
	order    []string
}

// NewDynamic validates the container env, creates the children context and
// the serial queues, and starts any declared children in declaration order.
func NewDynamic(ctx context.Context, c *component.Context, s *spec.Spec, logger *slog.Logger) (*Dynamic, error) {
	base, err := component.NewBase(c, s, logger)
	if err != nil {
		return nil, err
	}
	maxRetries, err := s.Env.RequireInt("maxRetries", 0)
	if err != nil {
		return nil, errors.WrapInvalid(err, "DynamicContainer", "NewDynamic", "env validation")
	}
	retryDelayMs, err := s.Env.RequireInt("retryDelay", 0)
	if err != nil {
		return nil, errors.WrapInvalid(err, "DynamicContainer", "NewDynamic", "env validation")
	}
	if err := validateChildNames(s); err != nil {
		return nil, err
	}

	d := &Dynamic{
		Base:     base,
		childCtx: c.NewChild(),
		queues:   newSerialQueues(),
		expected: make(map[string]*spec.Spec),
	}
	d.ops = newChildOps("DynamicContainer", c, d.childCtx,
		maxRetries, time.Duration(retryDelayMs)*time.Millisecond, base.Logger())
	d.BindSelf(d)

	for _, cs := range s.Components {
		if _, err := d.InstanceChild(ctx, nil, cs); err != nil {
			_ = d.Shutdown(ctx, nil)
			return nil, errors.Wrap(err, "DynamicContainer", "NewDynamic", cs.Name)
		}
	}
	return d, nil
}

// BindSelf records the outermost identity and, when this container is the
// tree root, installs the root back-reference.
func (d *Dynamic) BindSelf(self component.Component) {
	prev := d.Self()
	d.Bind(self)
	root := d.Context().Root()
	if root == nil || (prev != nil && root == prev) {
		d.Context().SetRoot(self)
	}
}

// ChildContext returns the context the children are registered in.
func (d *Dynamic) ChildContext() *component.Context { return d.childCtx }

// InstanceChild creates the child described by s, or returns the existing
// live child registered under that name. The existing child's spec may
// differ from s; callers that need a specific spec delete the child first.
func (d *Dynamic) InstanceChild(ctx context.Context, data *component.Data, s *spec.Spec) (component.Component, error) {
	if d.IsShutdown() {
		return nil, errors.WrapTransient(errors.ErrComponentShutdown, "DynamicContainer", "InstanceChild", s.Name)
	}

	var comp component.Component
	err := d.queues.do(ctx, s.Name, func() error {
		// Repeat the existence check under the queue: a racing call on the
		// same name may have created the child first.
		if cur := d.childCtx.Get(s.Name); cur != nil && !cur.IsShutdown() {
			comp = cur
			return nil
		}
		var cerr error
		comp, cerr = d.createChild(ctx, s, data)
		return cerr
	})
	if err != nil {
		return nil, err
	}
	return comp, nil
}

// createChild records the spec in the expected set and loads the child.
// Temporary children roll the expected-set entry back when creation fails;
// permanent children keep it, so the next checkup retries them.
func (d *Dynamic) createChild(ctx context.Context, s *spec.Spec, data *component.Data) (component.Component, error) {
	clone := s.Clone()
	d.mu.Lock()
	if _, known := d.expected[clone.Name]; !known {
		d.order = append(d.order, clone.Name)
	}
	d.expected[clone.Name] = clone
	d.mu.Unlock()

	comp, err := d.ops.createChild(ctx, clone, data)
	if err != nil {
		if component.IsTemporary(clone) {
			d.removeExpected(clone.Name)
		}
		return nil, err
	}
	return comp, nil
}

// DeleteChild removes the name from the expected set and shuts the child
// down. Deleting an absent child succeeds.
func (d *Dynamic) DeleteChild(ctx context.Context, data *component.Data, name string) error {
	if d.IsShutdown() {
		return errors.WrapTransient(errors.ErrComponentShutdown, "DynamicContainer", "DeleteChild", name)
	}
	return d.queues.do(ctx, name, func() error {
		d.removeExpected(name)
		return d.ops.shutdownChild(ctx, name, data)
	})
}

func (d *Dynamic) removeExpected(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.expected[name]; !ok {
		return
	}
	delete(d.expected, name)
	for i, n := range d.order {
		if n == name {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

// GetChildSpec returns the expected spec recorded for name, or nil.
func (d *Dynamic) GetChildSpec(name string) *spec.Spec {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.expected[name]
}

// AllChildren returns the expected child names in creation order.
func (d *Dynamic) AllChildren() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]string(nil), d.order...)
}

// Child returns the live child registered under name, or nil.
func (d *Dynamic) Child(name string) component.Component {
	return d.childCtx.Get(name)
}

func (d *Dynamic) expectedSpecs() []*spec.Spec {
	d.mu.RLock()
	defer d.mu.RUnlock()
	specs := make([]*spec.Spec, 0, len(d.order))
	for _, name := range d.order {
		specs = append(specs, d.expected[name])
	}
	return specs
}

// Checkup shuts down unknown children and probes every expected child,
// restarting only the failing ones. Restarts go through the same serial
// queues as InstanceChild and DeleteChild, so per-name ordering holds.
func (d *Dynamic) Checkup(ctx context.Context, data *component.Data) error {
	if err := d.Base.Checkup(ctx, data); err != nil {
		return err
	}

	d.shutdownUnknowns(ctx, data)

	var firstErr error
	for _, cs := range d.expectedSpecs() {
		cs := cs
		err := d.queues.do(ctx, cs.Name, func() error {
			// The child may have been deleted while this probe waited.
			d.mu.RLock()
			_, still := d.expected[cs.Name]
			d.mu.RUnlock()
			if !still {
				return nil
			}
			return d.ops.checkAndRestartChild(ctx, cs, data)
		})
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		_ = d.Shutdown(ctx, data)
		return errors.Wrap(firstErr, "DynamicContainer", "Checkup", "child reconciliation")
	}
	return nil
}

func (d *Dynamic) shutdownUnknowns(ctx context.Context, data *component.Data) {
	d.mu.RLock()
	expected := make(map[string]struct{}, len(d.expected))
	for name := range d.expected {
		expected[name] = struct{}{}
	}
	d.mu.RUnlock()

	for _, name := range d.childCtx.Names() {
		if _, ok := expected[name]; ok {
			continue
		}
		if component.IsReservedName(name) {
			continue
		}
		if comp := d.childCtx.Get(name); comp != nil && component.IsNotUnknown(comp.Spec()) {
			continue
		}
		d.Logger().Info("shutting down unknown child", "child", name)
		if err := d.ops.shutdownChild(ctx, name, data); err != nil {
			d.Logger().Warn("unknown child shutdown failed", "child", name, "error", err)
		}
	}
}

// Shutdown stops every present child. Dynamic children are independent, so
// there is no ordering guarantee; per-child failures are logged and the
// first one is propagated after the kernel shutdown completes.
func (d *Dynamic) Shutdown(ctx context.Context, data *component.Data) error {
	if d.IsShutdown() {
		return nil
	}

	var firstErr error
	for _, name := range d.childCtx.Names() {
		if component.IsReservedName(name) {
			continue
		}
		if err := d.ops.shutdownChild(ctx, name, data); err != nil {
			d.Logger().Debug("child shutdown failed", "child", name, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if err := d.Base.Shutdown(ctx, data); err != nil && firstErr == nil {
		firstErr = err
	}
	d.queues.stop()
	return firstErr
}

var _ component.Component = (*Dynamic)(nil)
