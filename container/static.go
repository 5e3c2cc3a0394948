package container

import (
	"context"
	"log/slog"
	"time"

	"github.com/c360/comptree/component"
	"github.com/c360/comptree/errors"
	"github.com/c360/comptree/metric"
	"github.com/c360/comptree/spec"
)

// Container is the static supervising kernel: fixed membership decided at
// construction, one-for-all recovery.
type Container struct {
	*component.Base
	ops childOps

	childSpecs []*spec.Spec
	childCtx   *component.Context
	maxRetries int
	retryDelay time.Duration
}

// New validates the container env, clones the child specs, creates the
// children context, and starts every child in declaration order. A failed
// child start tears down the already-started children and fails
// construction.
func New(ctx context.Context, c *component.Context, s *spec.Spec, logger *slog.Logger) (*Container, error) {
	base, err := component.NewBase(c, s, logger)
	if err != nil {
		return nil, err
	}
	maxRetries, err := s.Env.RequireInt("maxRetries", 0)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Container", "New", "env validation")
	}
	retryDelayMs, err := s.Env.RequireInt("retryDelay", 0)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Container", "New", "env validation")
	}
	if err := validateChildNames(s); err != nil {
		return nil, err
	}

	cont := &Container{
		Base:       base,
		childCtx:   c.NewChild(),
		maxRetries: maxRetries,
		retryDelay: time.Duration(retryDelayMs) * time.Millisecond,
	}
	for _, cs := range s.Components {
		cont.childSpecs = append(cont.childSpecs, cs.Clone())
	}
	cont.ops = newChildOps("Container", c, cont.childCtx,
		maxRetries, cont.retryDelay, base.Logger())
	cont.BindSelf(cont)

	if err := cont.startChildren(ctx, nil); err != nil {
		teardown := &component.Data{}
		_ = cont.Shutdown(ctx, teardown)
		return nil, err
	}
	return cont, nil
}

func validateChildNames(s *spec.Spec) error {
	seen := make(map[string]struct{}, len(s.Components))
	for _, c := range s.Components {
		if _, dup := seen[c.Name]; dup {
			return errors.WrapInvalid(errors.ErrDuplicateChild, "Container", "New", c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return nil
}

// BindSelf records the outermost identity for context deregistration and,
// when this container is the tree root, installs the root back-reference.
// Derived kernels call it again with their own value after embedding.
func (cont *Container) BindSelf(self component.Component) {
	prev := cont.Self()
	cont.Bind(self)
	root := cont.Context().Root()
	if root == nil || (prev != nil && root == prev) {
		cont.Context().SetRoot(self)
	}
}

// ChildContext returns the context the children are registered in.
func (cont *Container) ChildContext() *component.Context { return cont.childCtx }

// ChildSpecs returns the declaration-ordered child specs.
func (cont *Container) ChildSpecs() []*spec.Spec { return cont.childSpecs }

// Child returns the live child registered under name, or nil.
func (cont *Container) Child(name string) component.Component {
	return cont.childCtx.Get(name)
}

func (cont *Container) startChildren(ctx context.Context, data *component.Data) error {
	for _, cs := range cont.childSpecs {
		if _, err := cont.ops.createChild(ctx, cs, data); err != nil {
			return errors.Wrap(err, "Container", "New", cs.Name)
		}
	}
	return nil
}

// Checkup reconciles the observed child set with the expected one and
// probes every expected child in declaration order. Any failure triggers
// the one-for-all cascade: all known children shut down in reverse
// declaration order, all expected children re-created in order. A cascade
// that cannot complete escalates to the container's own shutdown.
func (cont *Container) Checkup(ctx context.Context, data *component.Data) error {
	start := time.Now()
	err := cont.checkup(ctx, data)
	metric.Sup().ObserveCheckup(cont.Spec().Name, time.Since(start), err)
	return err
}

func (cont *Container) checkup(ctx context.Context, data *component.Data) error {
	if err := cont.Base.Checkup(ctx, data); err != nil {
		return err
	}

	cont.shutdownUnknowns(ctx, data)

	for _, cs := range cont.childSpecs {
		err := cont.ops.checkChild(ctx, cs.Name, data)
		if err == nil {
			continue
		}
		if component.IsTemporary(cs) {
			cont.Logger().Debug("temporary child failed, ignored by supervision",
				"child", cs.Name, "error", err)
			continue
		}
		if data != nil && data.DoNotRestart {
			return errors.Wrap(err, "Container", "Checkup", cs.Name)
		}
		if rerr := cont.restartAll(ctx, data); rerr != nil {
			_ = cont.Shutdown(ctx, data)
			return errors.Wrap(err, "Container", "Checkup", "restart cascade")
		}
		if data != nil {
			data.RestartAll = true
		}
		return nil
	}
	return nil
}

// shutdownUnknowns removes children registered in the children context that
// are neither expected nor reserved nor opted out of the sweep.
func (cont *Container) shutdownUnknowns(ctx context.Context, data *component.Data) {
	for _, name := range cont.unknownChildren() {
		cont.Logger().Info("shutting down unknown child", "child", name)
		if err := cont.ops.shutdownChild(ctx, name, data); err != nil {
			cont.Logger().Warn("unknown child shutdown failed", "child", name, "error", err)
		}
	}
}

func (cont *Container) unknownChildren() []string {
	expected := make(map[string]struct{}, len(cont.childSpecs))
	for _, cs := range cont.childSpecs {
		expected[cs.Name] = struct{}{}
	}
	var unknown []string
	for _, name := range cont.childCtx.Names() {
		if _, ok := expected[name]; ok {
			continue
		}
		if component.IsReservedName(name) {
			continue
		}
		if comp := cont.childCtx.Get(name); comp != nil && component.IsNotUnknown(comp.Spec()) {
			continue
		}
		unknown = append(unknown, name)
	}
	return unknown
}

// restartAll shuts down all known children in reverse declaration order and
// re-creates every expected child in declaration order.
func (cont *Container) restartAll(ctx context.Context, data *component.Data) error {
	cont.Logger().Warn("restarting all children")
	metric.Sup().RestartCascade(cont.Spec().Name)

	for i := len(cont.childSpecs) - 1; i >= 0; i-- {
		name := cont.childSpecs[i].Name
		if err := cont.ops.shutdownChild(ctx, name, data); err != nil {
			return errors.Wrap(err, "Container", "restartAll", name)
		}
	}
	for _, cs := range cont.childSpecs {
		if _, err := cont.ops.createChild(ctx, cs, data); err != nil {
			return errors.Wrap(err, "Container", "restartAll", cs.Name)
		}
		metric.Sup().ChildRestart(cont.Spec().Name, cs.Name)
	}
	return nil
}

// Shutdown stops every child, unknowns first and then the expected children
// in reverse declaration order, and chains to the kernel shutdown.
// Per-child failures are logged and do not block the rest.
func (cont *Container) Shutdown(ctx context.Context, data *component.Data) error {
	if cont.IsShutdown() {
		return nil
	}
	for _, name := range cont.unknownChildren() {
		if err := cont.ops.shutdownChild(ctx, name, data); err != nil {
			cont.Logger().Debug("child shutdown failed", "child", name, "error", err)
		}
	}
	for i := len(cont.childSpecs) - 1; i >= 0; i-- {
		name := cont.childSpecs[i].Name
		if err := cont.ops.shutdownChild(ctx, name, data); err != nil {
			cont.Logger().Debug("child shutdown failed", "child", name, "error", err)
		}
	}
	return cont.Base.Shutdown(ctx, data)
}

var _ component.Component = (*Container)(nil)
