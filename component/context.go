package component

import (
	"sync"
)

// Context is the parent-provided mapping from child name to live component.
// The owning container writes it; children only read it. Child contexts
// chain upward to the top context, which holds the loader; the root
// component is reachable from every context through the same chain.
type Context struct {
	mu      sync.RWMutex
	entries map[string]Component
	parent  *Context
	root    Component
	loader  Loader
}

// NewContext creates a top-level context.
func NewContext() *Context {
	return &Context{entries: make(map[string]Component)}
}

// NewChild creates a child context chained to c. The root back-reference is
// inherited through the chain.
func (c *Context) NewChild() *Context {
	return &Context{entries: make(map[string]Component), parent: c}
}

// Get returns the component registered under name, or nil. The reserved
// name "_" resolves to the root component.
func (c *Context) Get(name string) Component {
	if name == RootName {
		return c.Root()
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[name]
}

// Register binds comp under name, replacing any previous binding.
func (c *Context) Register(name string, comp Component) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[name] = comp
}

// Deregister removes the binding for name only when the context still holds
// this exact component. It reports whether a binding was removed.
func (c *Context) Deregister(name string, comp Component) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.entries[name]; ok && cur == comp {
		delete(c.entries, name)
		return true
	}
	return false
}

// Names returns a snapshot of the registered names.
func (c *Context) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	return names
}

// Len returns the number of registered components.
func (c *Context) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// SetRoot installs the root back-reference on this context. Containers call
// it on the top context when they are the tree root.
func (c *Context) SetRoot(root Component) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.root = root
}

// Root returns the root component, walking up the context chain.
func (c *Context) Root() Component {
	c.mu.RLock()
	root, parent := c.root, c.parent
	c.mu.RUnlock()
	if root != nil {
		return root
	}
	if parent != nil {
		return parent.Root()
	}
	return nil
}

// SetLoader installs the loader. It is registered only at the top context.
func (c *Context) SetLoader(l Loader) {
	top := c.top()
	top.mu.Lock()
	defer top.mu.Unlock()
	top.loader = l
}

// GetLoader returns the loader registered at the top context, or nil.
func (c *Context) GetLoader() Loader {
	top := c.top()
	top.mu.RLock()
	defer top.mu.RUnlock()
	return top.loader
}

func (c *Context) top() *Context {
	cur := c
	for {
		cur.mu.RLock()
		parent := cur.parent
		cur.mu.RUnlock()
		if parent == nil {
			return cur
		}
		cur = parent
	}
}

// IsReservedName reports whether name is reserved within a context and must
// never be treated as an unknown child.
func IsReservedName(name string) bool {
	return name == RootName || name == LoaderName || name == ProxyName
}
