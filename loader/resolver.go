package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/c360/comptree/errors"
)

// Resolver locates an artifact by logical name. Artifacts are either module
// objects (values walked by the #-accessor chain, terminating in a factory)
// or raw JSON description bytes.
type Resolver interface {
	// ID identifies the resolver in not-found reports and the module index.
	ID() string
	// Resolve returns the artifact for name, or ErrArtifactNotFound.
	Resolve(name string) (any, error)
}

// FileResolver is implemented by resolvers that serve artifacts from disk,
// so the loader can watch the backing files for changes.
type FileResolver interface {
	// Path returns the on-disk path backing name, when there is one.
	Path(name string) (string, bool)
}

// StaticResolver serves artifacts from an in-memory table. It is the usual
// carrier for module objects registered by the embedding program.
type StaticResolver struct {
	id string

	mu        sync.RWMutex
	artifacts map[string]any
}

// NewStaticResolver builds a resolver over a copy of the given table.
func NewStaticResolver(id string, artifacts map[string]any) *StaticResolver {
	table := make(map[string]any, len(artifacts))
	for k, v := range artifacts {
		table[k] = v
	}
	return &StaticResolver{id: id, artifacts: table}
}

// ID implements Resolver.
func (r *StaticResolver) ID() string { return r.id }

// Resolve implements Resolver.
func (r *StaticResolver) Resolve(name string) (any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if v, ok := r.artifacts[name]; ok {
		return v, nil
	}
	return nil, errors.ErrArtifactNotFound
}

// Register adds or replaces an artifact.
func (r *StaticResolver) Register(name string, artifact any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.artifacts[name] = artifact
}

// DirResolver serves JSON description files from a directory tree.
type DirResolver struct {
	id  string
	dir string
}

// NewDirResolver builds a resolver rooted at dir.
func NewDirResolver(id, dir string) *DirResolver {
	return &DirResolver{id: id, dir: dir}
}

// ID implements Resolver.
func (r *DirResolver) ID() string { return r.id }

// Resolve reads the file backing name and returns its bytes. Only JSON
// description names are served.
func (r *DirResolver) Resolve(name string) (any, error) {
	path, ok := r.Path(name)
	if !ok {
		return nil, errors.ErrArtifactNotFound
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ErrArtifactNotFound
		}
		return nil, fmt.Errorf("reading description %s: %w", path, err)
	}
	return data, nil
}

// Path implements FileResolver.
func (r *DirResolver) Path(name string) (string, bool) {
	if !strings.HasSuffix(name, ".json") {
		return "", false
	}
	if filepath.IsAbs(name) {
		return name, true
	}
	return filepath.Join(r.dir, filepath.Clean(name)), true
}
