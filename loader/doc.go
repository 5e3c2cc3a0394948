// Package loader resolves artifacts and instantiates components.
//
// # Overview
//
// The loader owns an ordered chain of resolvers. Each resolver can attempt
// to locate an artifact by logical name: a module object exposing component
// factories, or the raw bytes of a JSON description file. The first
// resolver to succeed wins; a default resolver backs the chain; a static
// artifact table bypasses resolution entirely.
//
// Descriptions are loaded in layers: the base document, an optional sibling
// delta named <base>++.json, and a caller-supplied override, merged in that
// order and then passed through environment substitution and top-env
// linking. Description documents are cached as the raw bytes their resolver
// returned and are parsed again on every load; the cache is dropped when the
// resolver chain changes, and individual entries are invalidated when
// WatchDescriptions observes the backing file change on disk.
//
// LoadComponent turns a resolved spec into a live component: it walks the
// module path's #-separated accessor chain to a factory, invokes it with
// panic defence, runs a first checkup, and registers the component into the
// parent-provided context only when both steps succeed.
package loader
