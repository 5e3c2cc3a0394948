// Package component provides the core component infrastructure for the
// supervision framework: the component contract, the context graph that
// names live components, and the base kernel that derived kernels build on.
//
// # Overview
//
// Every live object in a supervised tree satisfies the Component interface:
// an immutable spec, a monotonic shutdown flag, a health probe, and an
// idempotent shutdown. Containers and the supervisor are themselves
// components, layered on the base kernel by struct embedding with explicit
// chained calls to the embedded kernel's methods.
//
// # The Context Graph
//
// A Context maps child names to live components. Every container owns the
// context its children are registered in, child contexts chain upward to
// the top context, and the reserved name "_" always resolves to the root
// component. The loader is reachable from any context through the same
// upward chain. These two relations form the supervision tree: ownership
// follows the spec's components array, while the root back-reference is a
// non-owning pointer used for navigation.
//
// # Registration Pattern
//
// Components register EXPLICITLY: the loader invokes a module factory and
// binds the result into the parent-provided context only after a first
// successful checkup. Nothing self-registers at init time, so tests can
// build isolated trees from plain constructors.
package component
