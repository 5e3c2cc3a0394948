// Package errors provides standardized error handling patterns for the
// supervision framework.
//
// # Overview
//
// The errors package implements a three-class error classification system:
// Transient (temporary, retryable), Invalid (bad input, non-retryable), and
// Fatal (unrecoverable, stop processing). Callers read the class back with
// IsTransient, IsInvalid, IsFatal and Classify; within this module the
// health package grades checkup failures by it. Container retry, restart and
// shutdown decisions do not depend on the class.
//
// # Supervision Taxonomy
//
// Beyond classification, the package defines the typed errors the
// supervision tree traffics in:
//
//   - ArtifactNotFoundError: the loader exhausted its resolvers
//   - FactoryPanicError: a component factory panicked (WasThrown=true)
//   - TimeoutError: a bounded timeout wrapper fired (Timeout=true)
//   - HangError: overlapping health checks (CheckingForHang=true)
//   - RetryExhaustedError: bounded retry gave up, carrying the last error
//   - FatalError: the supervisor's terminal escalation
//
// # Usage
//
// Wrapping with context:
//
//	return errors.Wrap(err, "Container", "CreateChild", "loader invocation")
//
// Classified wrapping:
//
//	return errors.WrapTransient(err, "Container", "CheckChild", "child checkup")
//
// Classification at a decision point:
//
//	if errors.IsTransient(err) {
//	    // retry under the container's retry budget
//	}
//
// Operator-facing rendering, including typed-error properties:
//
//	slog.Error("supervision failed", "detail", errors.Pretty(err))
package errors
