package health

import (
	"github.com/c360/comptree/supervisor"
)

// Listener adapts a Monitor into a supervision event callback. Each
// supervision round updates the system entry in the monitor:
//
//   - a healthy round marks the system healthy (noting restart cascades)
//   - a hang retry marks it degraded
//   - a terminal death marks it unhealthy
//   - a failed round marks it unhealthy with the sanitized error
//
// The returned callback is safe to install with Supervisor.SetNotifier.
func Listener(m *Monitor, system string) supervisor.Notifier {
	return func(ev supervisor.Event) {
		switch {
		case ev.Died:
			m.UpdateUnhealthy(system, sanitizeErrorMessage(ev.Error))
		case ev.Hang:
			m.UpdateDegraded(system, "health check still in progress")
		case ev.Healthy:
			msg := "all components healthy"
			if ev.RestartAll {
				msg = "tree healthy after restart cascade"
			}
			m.UpdateHealthy(system, msg)
		default:
			m.UpdateUnhealthy(system, sanitizeErrorMessage(ev.Error))
		}
	}
}
