package container

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/c360/comptree/component"
	"github.com/c360/comptree/errors"
	"github.com/c360/comptree/pkg/retry"
	"github.com/c360/comptree/spec"
)

// childOps bundles the per-child operations shared by the static and
// dynamic kernels: probe, shutdown with retry, and shutdown-then-create.
type childOps struct {
	name     string
	childCtx *component.Context
	parent   *component.Context
	budget   retry.Config
	logger   *slog.Logger
}

func newChildOps(name string, parent, childCtx *component.Context, maxRetries int, retryDelay time.Duration, logger *slog.Logger) childOps {
	return childOps{
		name:     name,
		childCtx: childCtx,
		parent:   parent,
		budget:   retry.Fixed(maxRetries, retryDelay),
		logger:   logger,
	}
}

// checkChild probes the named child. A missing or shut-down child fails
// with the corresponding transient error.
func (o *childOps) checkChild(ctx context.Context, name string, data *component.Data) error {
	comp := o.childCtx.Get(name)
	if comp == nil {
		return fmt.Errorf("child %q: %w", name, errors.ErrMissingChild)
	}
	if comp.IsShutdown() {
		return fmt.Errorf("child %q: %w", name, errors.ErrChildShutdown)
	}
	return comp.Checkup(ctx, data)
}

// shutdownChild shuts the named child down under the retry budget. Absence
// is success.
func (o *childOps) shutdownChild(ctx context.Context, name string, data *component.Data) error {
	comp := o.childCtx.Get(name)
	if comp == nil {
		return nil
	}
	return retry.Do(ctx, o.budget, func() error {
		return comp.Shutdown(ctx, data)
	})
}

// createChild shuts down any previous incarnation first and then loads a
// fresh child from its spec, under the retry budget. On success the loader
// has registered the child in the children context.
func (o *childOps) createChild(ctx context.Context, s *spec.Spec, data *component.Data) (component.Component, error) {
	if err := o.shutdownChild(ctx, s.Name, data); err != nil {
		return nil, errors.Wrap(err, o.name, "createChild", "previous incarnation shutdown")
	}
	ldr := o.parent.GetLoader()
	if ldr == nil {
		return nil, errors.Wrap(errors.ErrNoLoader, o.name, "createChild", s.Name)
	}
	return retry.DoWithResult(ctx, o.budget, func() (component.Component, error) {
		return ldr.LoadComponent(ctx, o.childCtx, s)
	})
}

// checkAndRestartChild probes a child and re-creates it on failure.
// Temporary children swallow their own failure; the DoNotRestart hint turns
// a failure into an error instead of a restart.
func (o *childOps) checkAndRestartChild(ctx context.Context, s *spec.Spec, data *component.Data) error {
	err := o.checkChild(ctx, s.Name, data)
	if err == nil {
		return nil
	}
	if component.IsTemporary(s) {
		o.logger.Debug("temporary child failed, not restarting",
			"child", s.Name, "error", err)
		return nil
	}
	if data != nil && data.DoNotRestart {
		return err
	}
	o.logger.Info("restarting child", "child", s.Name, "cause", err)
	if _, cerr := o.createChild(ctx, s, data); cerr != nil {
		return errors.Wrap(cerr, o.name, "checkAndRestartChild", s.Name)
	}
	return nil
}
