// Package container provides the supervising kernels that own children.
//
// # Overview
//
// Three kernels layer on the base component kernel:
//
//   - Container: fixed membership, one-for-all supervision. Any failing
//     child triggers a full restart cascade: every known child is shut down
//     in reverse declaration order and every expected child re-created in
//     declaration order.
//   - Dynamic: runtime-mutable membership, one-for-one supervision. Only
//     the failing child restarts. Create and delete operations on a given
//     child name are serialized through sharded single-worker queues.
//   - Transactional: a static container that additionally speaks two-phase
//     commit over its transactional children and defers side effects into a
//     replayable action log.
//
// Every checkup first reconciles the observed child set with the expected
// one: registered children that are neither expected nor reserved are shut
// down before the expected children are probed.
//
// # Recovery Budget
//
// All child creation and shutdown runs under the container's retry budget:
// env.maxRetries extra attempts spaced env.retryDelay milliseconds apart.
// Failures that exhaust the budget escalate to the container's own shutdown
// and propagate upward.
package container
