package main

import (
	"context"
	"log/slog"

	"github.com/c360/comptree/component"
	"github.com/c360/comptree/container"
	"github.com/c360/comptree/loader"
	"github.com/c360/comptree/spec"
	"github.com/c360/comptree/supervisor"
)

// KernelModulePath is the artifact name the built-in kernel factories are
// registered under. Descriptions reference them as
// "comptree/kernels#supervisor" and so on. Embedders register their own
// module tables alongside through loader.SetModules.
const KernelModulePath = "comptree/kernels"

func kernelResolver() *loader.StaticResolver {
	return loader.NewStaticResolver("kernels", map[string]any{
		KernelModulePath: map[string]any{
			"container":     component.ModuleFunc(newContainer),
			"dynamic":       component.ModuleFunc(newDynamic),
			"transactional": component.ModuleFunc(newTransactional),
			"supervisor":    component.ModuleFunc(newSupervisor),
		},
	})
}

func newContainer(ctx context.Context, c *component.Context, s *spec.Spec) (component.Component, error) {
	cont, err := container.New(ctx, c, s, slog.Default())
	if err != nil {
		return nil, err
	}
	return cont, nil
}

func newDynamic(ctx context.Context, c *component.Context, s *spec.Spec) (component.Component, error) {
	d, err := container.NewDynamic(ctx, c, s, slog.Default())
	if err != nil {
		return nil, err
	}
	return d, nil
}

func newTransactional(ctx context.Context, c *component.Context, s *spec.Spec) (component.Component, error) {
	t, err := container.NewTransactional(ctx, c, s, slog.Default())
	if err != nil {
		return nil, err
	}
	return t, nil
}

func newSupervisor(ctx context.Context, c *component.Context, s *spec.Spec) (component.Component, error) {
	sup, err := supervisor.New(ctx, c, s, slog.Default())
	if err != nil {
		return nil, err
	}
	return sup, nil
}
