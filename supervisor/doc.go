// Package supervisor drives a supervised component tree from a periodic
// health-check timer.
//
// A Supervisor extends the static container kernel: the tree root is a
// container whose checkup is invoked every interval, with hang detection
// when a round is still in flight at the next tick and terminal escalation
// ("die") when the root cannot recover. The supervisor is the only component
// allowed to terminate the process, and only when its dieDelay is
// non-negative.
//
// Two start modes are supported. Start runs one health check synchronously
// and only arms the timer when it succeeds. StartLazy arms the timer
// immediately and lets the first tick run the first health check.
//
// Per-round outcomes are delivered to an optional Notifier. The NATSNotifier
// adapter publishes them as JSON events on a supervision subject.
package supervisor
