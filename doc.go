// Package comptree provides a component lifecycle and supervision framework:
// it instantiates, health-checks, restarts, and tears down a tree of
// asynchronously constructed components according to a declarative JSON
// description, following the Erlang/OTP supervision-tree discipline.
//
// # Architecture
//
// A deployment is described by a JSON document that names every component,
// the logical module providing its factory, its environment, and its
// children. The description is resolved in layers (base, sibling delta,
// caller override, process environment, top-level links) and then
// instantiated bottom-up by the loader:
//
//	┌─────────────────────────────────────┐
//	│          Supervisor                 │  Periodic health driver,
//	│  (tick, hang detection, die)        │  terminal escalation
//	└─────────────────────────────────────┘
//	           ↓ drives checkup
//	┌─────────────────────────────────────┐
//	│         Containers                  │  one-for-all (static),
//	│  (static, dynamic, transactional)   │  one-for-one (dynamic),
//	└─────────────────────────────────────┘  two-phase commit
//	           ↓ own and restart
//	┌─────────────────────────────────────┐
//	│         Components                  │  Spec, Checkup, Shutdown,
//	│    (loaded through factories)       │  context registration
//	└─────────────────────────────────────┘
//
// Every live component is registered under its name in a context owned by
// its parent container. Contexts chain upward to the root component, so any
// component can reach any sibling or the supervisor by name.
//
// # Supervision
//
// Containers reconcile their expected child set with the observed child set
// on every checkup. A static container restarts all of its children when any
// one of them fails (one-for-all); a dynamic container restarts only the
// failing child (one-for-one), serializing operations on a given child name
// through sharded queues. Failures that a container cannot recover from
// escalate to its own shutdown and propagate upward; at the root, the
// supervisor logs, shuts the tree down, and optionally exits the process.
//
// # Packages
//
//   - spec: description data model, merge, environment resolution, linking
//   - loader: artifact resolution, description cache, factory invocation
//   - component: component contract, contexts, base kernel
//   - container: static, dynamic, and transactional containers
//   - supervisor: periodic driver and terminal escalation
//   - health, metric: supervision observability
//   - errors: classified errors and the supervision error taxonomy
package comptree
