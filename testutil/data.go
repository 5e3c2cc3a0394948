package testutil

import "github.com/c360/comptree/spec"

// Desc builds a spec node. The env map is used as given; nil means empty.
func Desc(name, module string, env spec.Env, children ...*spec.Spec) *spec.Spec {
	if env == nil {
		env = spec.Env{}
	}
	return &spec.Spec{
		Name:       name,
		Module:     module,
		Env:        env,
		Components: children,
	}
}

// HelloDesc describes a Hello leaf.
func HelloDesc(name, language string) *spec.Spec {
	return Desc(name, ModulePath+"#hello", spec.Env{"language": language})
}

// FaultyDesc describes a Faulty leaf with the given mean checkups between
// failures.
func FaultyDesc(name string, mtbf int) *spec.Spec {
	return Desc(name, ModulePath+"#faulty", spec.Env{"mtbf": mtbf})
}

// LangDesc describes a Lang two-phase participant.
func LangDesc(name string) *spec.Spec {
	return Desc(name, ModulePath+"#lang", spec.Env{})
}

// ContainerDesc describes a static container with fast retry settings.
func ContainerDesc(name string, children ...*spec.Spec) *spec.Spec {
	return Desc(name, ModulePath+"#container", spec.Env{
		"maxRetries": 1,
		"retryDelay": 1,
	}, children...)
}

// DynamicDesc describes a dynamic container with fast retry settings.
func DynamicDesc(name string, children ...*spec.Spec) *spec.Spec {
	return Desc(name, ModulePath+"#dynamic", spec.Env{
		"maxRetries": 1,
		"retryDelay": 1,
	}, children...)
}

// TransactionalDesc describes a transactional container.
func TransactionalDesc(name string, children ...*spec.Spec) *spec.Spec {
	return Desc(name, ModulePath+"#transactional", spec.Env{
		"maxRetries": 1,
		"retryDelay": 1,
	}, children...)
}

// SupervisorDesc describes a supervisor root. Intervals are milliseconds; a
// negative dieDelay disables the process exit.
func SupervisorDesc(name string, intervalMs, dieDelayMs, maxHangRetries int, children ...*spec.Spec) *spec.Spec {
	return Desc(name, ModulePath+"#supervisor", spec.Env{
		"interval":       intervalMs,
		"dieDelay":       dieDelayMs,
		"maxHangRetries": maxHangRetries,
		"maxRetries":     1,
		"retryDelay":     1,
	}, children...)
}
