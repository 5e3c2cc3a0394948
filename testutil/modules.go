package testutil

import (
	"context"
	"log/slog"

	"github.com/c360/comptree/component"
	"github.com/c360/comptree/container"
	"github.com/c360/comptree/loader"
	"github.com/c360/comptree/spec"
	"github.com/c360/comptree/supervisor"
)

// ModulePath is the artifact name the test module table is registered under.
const ModulePath = "comptree/testutil"

// Modules returns a fresh module table exposing every test factory. Tests
// may replace individual entries, for example to wrap a factory with a
// creation counter.
func Modules() map[string]any {
	return map[string]any{
		"hello":         component.ModuleFunc(NewHello),
		"faulty":        component.ModuleFunc(NewFaulty),
		"lang":          component.ModuleFunc(NewLang),
		"container":     component.ModuleFunc(NewContainer),
		"dynamic":       component.ModuleFunc(NewDynamic),
		"transactional": component.ModuleFunc(NewTransactional),
		"supervisor":    component.ModuleFunc(NewSupervisor),
	}
}

// Resolver returns a static resolver serving the default module table.
func Resolver() *loader.StaticResolver {
	return loader.NewStaticResolver("testutil", map[string]any{
		ModulePath: Modules(),
	})
}

// NewContainer is the factory for the static container kernel.
func NewContainer(ctx context.Context, c *component.Context, s *spec.Spec) (component.Component, error) {
	cont, err := container.New(ctx, c, s, slog.Default())
	if err != nil {
		return nil, err
	}
	return cont, nil
}

// NewDynamic is the factory for the dynamic container kernel.
func NewDynamic(ctx context.Context, c *component.Context, s *spec.Spec) (component.Component, error) {
	d, err := container.NewDynamic(ctx, c, s, slog.Default())
	if err != nil {
		return nil, err
	}
	return d, nil
}

// NewTransactional is the factory for the transactional container kernel.
func NewTransactional(ctx context.Context, c *component.Context, s *spec.Spec) (component.Component, error) {
	t, err := container.NewTransactional(ctx, c, s, slog.Default())
	if err != nil {
		return nil, err
	}
	return t, nil
}

// NewSupervisor is the factory for the supervisor root.
func NewSupervisor(ctx context.Context, c *component.Context, s *spec.Spec) (component.Component, error) {
	sup, err := supervisor.New(ctx, c, s, slog.Default())
	if err != nil {
		return nil, err
	}
	return sup, nil
}
