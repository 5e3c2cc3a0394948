// Package health provides health monitoring for supervised component trees
// with thread-safe status tracking, aggregation, and an HTTP endpoint.
//
// The package sits on the read side of supervision: the supervisor pushes the
// outcome of each round into a Monitor, and operators read the aggregate back
// through the /healthz endpoint or directly via the Monitor API.
//
// # Health States
//
// The package supports three health states:
//   - Healthy: component operating normally
//   - Degraded: component operating with reduced functionality
//   - Unhealthy: component not functioning properly
//
// The three-state model maps onto supervision outcomes: FromCheckup reports
// a transient checkup failure as degraded, and the supervision Listener
// reports a hang retry as degraded, while any failed round or terminal
// failure reports unhealthy.
//
// # Core Components
//
// Status: an individual component health state with status level, descriptive
// message, timestamp, and hierarchical sub-statuses.
//
// Monitor: thread-safe tracking of multiple component health statuses with
// concurrent read/write access and automatic timestamp management.
//
// Listener: adapts a Monitor into a supervision event callback so the
// supervisor feeds the monitor without either side knowing the other's type.
//
// Server: HTTP endpoint exposing the aggregate health as JSON, returning 503
// once the tree is unhealthy.
//
// # Basic Usage
//
// Wiring a monitor to a supervisor and serving health:
//
//	monitor := health.NewMonitor()
//	sup.SetNotifier(health.Listener(monitor, "mytree"))
//
//	srv := health.NewServer(monitor, "mytree", 8080, logger)
//	go srv.Start()
//	defer srv.Stop(ctx)
//
// Components can also report their own checkup results:
//
//	monitor.Update("database", health.FromCheckup("database", err))
//
// # Error Sanitization
//
// Error messages are sanitized before they appear in health output: URLs,
// file paths, IP addresses, ports, and credential-shaped fragments are
// replaced with placeholders so health endpoints can be exposed without
// leaking connection details.
package health
