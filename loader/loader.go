package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/c360/comptree/component"
	"github.com/c360/comptree/errors"
	"github.com/c360/comptree/spec"
)

// deltaSuffix names the sibling delta of a base description: hello.json is
// refined by hello++.json when the latter exists.
const deltaSuffix = "++"

// Loader resolves artifacts through an ordered resolver chain and turns
// resolved specs into live components.
type Loader struct {
	logger          *slog.Logger
	defaultResolver Resolver

	mu          sync.RWMutex
	resolvers   []Resolver
	static      map[string]any
	descCache   map[string][]byte
	moduleIndex map[string]string
	watched     map[string]string

	watchMu sync.Mutex
	watcher descWatcher
}

// New builds a loader. The default resolver backs the configurable chain
// and is consulted last; it may be nil.
func New(logger *slog.Logger, defaultResolver Resolver) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		logger:          logger.With("component", "loader"),
		defaultResolver: defaultResolver,
		static:          make(map[string]any),
		descCache:       make(map[string][]byte),
		moduleIndex:     make(map[string]string),
		watched:         make(map[string]string),
	}
}

// SetModules replaces the resolver chain and clears the description cache.
func (l *Loader) SetModules(resolvers []Resolver) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resolvers = append([]Resolver(nil), resolvers...)
	l.descCache = make(map[string][]byte)
	l.moduleIndex = make(map[string]string)
}

// SetStaticArtifacts installs a table that bypasses resolution and returns
// the previous table.
func (l *Loader) SetStaticArtifacts(artifacts map[string]any) map[string]any {
	l.mu.Lock()
	defer l.mu.Unlock()
	prev := l.static
	l.static = make(map[string]any, len(artifacts))
	for k, v := range artifacts {
		l.static[k] = v
	}
	return prev
}

// ResolverFor reports which resolver supplied an artifact, or "" when the
// artifact has not been loaded.
func (l *Loader) ResolverFor(name string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.moduleIndex[name]
}

// LoadResource resolves an artifact by name: static table first, then each
// resolver in order, then the default resolver. The first success wins and
// is recorded in the module index.
func (l *Loader) LoadResource(name string) (any, error) {
	l.mu.RLock()
	if v, ok := l.static[name]; ok {
		l.mu.RUnlock()
		return v, nil
	}
	chain := append([]Resolver(nil), l.resolvers...)
	l.mu.RUnlock()

	if l.defaultResolver != nil {
		chain = append(chain, l.defaultResolver)
	}

	tried := make([]string, 0, len(chain))
	for _, r := range chain {
		art, err := r.Resolve(name)
		if err == nil {
			l.recordResolution(name, r)
			return art, nil
		}
		if !errors.Is(err, errors.ErrArtifactNotFound) {
			return nil, errors.Wrap(err, "Loader", "LoadResource", name)
		}
		tried = append(tried, r.ID())
	}
	return nil, &errors.ArtifactNotFoundError{Name: name, Resolvers: tried}
}

func (l *Loader) recordResolution(name string, r Resolver) {
	l.mu.Lock()
	l.moduleIndex[name] = r.ID()
	l.mu.Unlock()

	if fr, ok := r.(FileResolver); ok {
		if path, ok := fr.Path(name); ok {
			l.trackFile(normalizeDescName(name), path)
		}
	}
}

// LoadDescription loads a JSON description. With resolve false it returns
// the raw parsed base document. Otherwise it merges the base with the
// optional sibling <base>++.json delta and the caller-supplied override,
// then applies environment substitution and top-env linking, and validates
// the result.
func (l *Loader) LoadDescription(fileName string, resolve bool, override *spec.Override) (*spec.Spec, error) {
	if !strings.HasSuffix(fileName, ".json") || strings.TrimSuffix(fileName, ".json") == "" {
		return nil, fmt.Errorf("description name %q must end in .json: %w",
			fileName, errors.ErrInvalidSpec)
	}
	name := normalizeDescName(fileName)

	baseBytes, err := l.descriptionBytes(name)
	if err != nil {
		return nil, err
	}
	base, err := spec.Parse(baseBytes)
	if err != nil {
		return nil, err
	}
	if !resolve {
		return base, nil
	}

	merged := base
	deltaName := strings.TrimSuffix(name, ".json") + deltaSuffix + ".json"
	deltaBytes, err := l.descriptionBytes(deltaName)
	switch {
	case err == nil:
		delta, err := spec.ParseOverride(deltaBytes)
		if err != nil {
			return nil, err
		}
		if merged, err = spec.Merge(base, delta, false); err != nil {
			return nil, errors.Wrap(err, "Loader", "LoadDescription", "delta merge")
		}
	case errors.Is(err, errors.ErrArtifactNotFound):
		// A missing delta is the common case.
	default:
		return nil, err
	}

	if override != nil {
		if merged, err = spec.Merge(merged, override, true); err != nil {
			return nil, errors.Wrap(err, "Loader", "LoadDescription", "override merge")
		}
	}

	if err := spec.Resolve(merged); err != nil {
		return nil, errors.Wrap(err, "Loader", "LoadDescription", "env resolution")
	}
	if err := merged.Validate(); err != nil {
		return nil, errors.WrapInvalid(err, "Loader", "LoadDescription", "description validation")
	}
	return merged, nil
}

// descriptionBytes returns the raw bytes of a description document, served
// from the cache when possible.
func (l *Loader) descriptionBytes(name string) ([]byte, error) {
	l.mu.RLock()
	cached, ok := l.descCache[name]
	l.mu.RUnlock()
	if ok {
		return cached, nil
	}

	art, err := l.LoadResource(name)
	if err != nil {
		return nil, err
	}

	var data []byte
	switch v := art.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		// Static tables may carry pre-parsed documents.
		if data, err = json.Marshal(v); err != nil {
			return nil, errors.WrapInvalid(err, "Loader", "LoadDescription", "artifact encode")
		}
	}

	l.mu.Lock()
	l.descCache[name] = data
	l.mu.Unlock()
	return data, nil
}

// Invalidate drops the cached description for name, if any.
func (l *Loader) Invalidate(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.descCache, normalizeDescName(name))
}

// LoadComponent resolves the spec's module to a factory, invokes it with
// panic defence, runs a first checkup, and registers the component into c
// only when both succeed.
func (l *Loader) LoadComponent(ctx context.Context, c *component.Context, s *spec.Spec) (component.Component, error) {
	if s == nil || s.Module == "" {
		return nil, fmt.Errorf("empty module path: %w", errors.ErrBadModulePath)
	}
	parts := strings.Split(s.Module, "#")
	if parts[0] == "" {
		return nil, fmt.Errorf("module path %q: %w", s.Module, errors.ErrBadModulePath)
	}

	art, err := l.LoadResource(parts[0])
	if err != nil {
		return nil, err
	}
	factory, err := walkAccessors(art, s.Module, parts[1:])
	if err != nil {
		return nil, err
	}

	comp, err := invokeFactory(ctx, factory, c, s)
	if err != nil {
		return nil, err
	}
	if comp == nil {
		return nil, errors.Wrap(errors.ErrFactoryFailed, "Loader", "LoadComponent", s.Module)
	}

	if err := comp.Checkup(ctx, nil); err != nil {
		return nil, errors.Wrap(err, "Loader", "LoadComponent", "first checkup")
	}

	c.Register(s.Name, comp)
	l.logger.Debug("component loaded", "name", s.Name, "module", s.Module)
	return comp, nil
}

// walkAccessors follows the #-separated accessor chain down nested module
// maps to a factory.
func walkAccessors(art any, modulePath string, accessors []string) (component.Factory, error) {
	cur := art
	for _, acc := range accessors {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("module path %q: accessor %q applied to %T: %w",
				modulePath, acc, cur, errors.ErrBadModulePath)
		}
		if cur, ok = m[acc]; !ok {
			return nil, fmt.Errorf("module path %q: accessor %q missing: %w",
				modulePath, acc, errors.ErrBadModulePath)
		}
	}

	switch f := cur.(type) {
	case component.Factory:
		return f, nil
	case func(context.Context, *component.Context, *spec.Spec) (component.Component, error):
		return f, nil
	case component.ModuleFunc:
		return component.Factory(f), nil
	case component.Module:
		return f.NewInstance, nil
	}
	return nil, fmt.Errorf("module path %q: terminal %T exposes no factory: %w",
		modulePath, cur, errors.ErrBadModulePath)
}

// invokeFactory calls the factory with panic defence: a panic becomes a
// FactoryPanicError instead of unwinding through the supervision tree.
func invokeFactory(ctx context.Context, factory component.Factory, c *component.Context, s *spec.Spec) (comp component.Component, err error) {
	defer func() {
		if r := recover(); r != nil {
			comp = nil
			err = &errors.FactoryPanicError{Value: r, WasThrown: true}
		}
	}()
	return factory(ctx, c, s)
}

func normalizeDescName(name string) string {
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	return filepath.Clean("./" + name)
}

var _ component.Loader = (*Loader)(nil)
