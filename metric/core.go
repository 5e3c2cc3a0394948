package metric

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SupervisionMetrics contains the platform-level supervision metrics. All
// recording methods are nil-safe so instrumented code never needs to guard
// against an uninstalled registry.
type SupervisionMetrics struct {
	CheckupDuration *prometheus.HistogramVec
	CheckupFailures *prometheus.CounterVec
	RestartCascades *prometheus.CounterVec
	ChildRestarts   *prometheus.CounterVec
	SupervisorTicks *prometheus.CounterVec
	HangsDetected   *prometheus.CounterVec
	TreeHealthy     prometheus.Gauge
}

// NewSupervisionMetrics creates the supervision metric set.
func NewSupervisionMetrics() *SupervisionMetrics {
	return &SupervisionMetrics{
		CheckupDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "comptree",
				Subsystem: "supervision",
				Name:      "checkup_duration_seconds",
				Help:      "Container checkup duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"container"},
		),

		CheckupFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "comptree",
				Subsystem: "supervision",
				Name:      "checkup_failures_total",
				Help:      "Total number of failed container checkups",
			},
			[]string{"container"},
		),

		RestartCascades: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "comptree",
				Subsystem: "supervision",
				Name:      "restart_cascades_total",
				Help:      "Total number of all-children restart cascades",
			},
			[]string{"container"},
		),

		ChildRestarts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "comptree",
				Subsystem: "supervision",
				Name:      "child_restarts_total",
				Help:      "Total number of individual child restarts",
			},
			[]string{"container", "child"},
		),

		SupervisorTicks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "comptree",
				Subsystem: "supervision",
				Name:      "ticks_total",
				Help:      "Total number of supervisor checkup ticks",
			},
			[]string{"supervisor"},
		),

		HangsDetected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "comptree",
				Subsystem: "supervision",
				Name:      "hangs_detected_total",
				Help:      "Total number of checkups still pending at the next tick",
			},
			[]string{"supervisor"},
		),

		TreeHealthy: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "comptree",
				Subsystem: "supervision",
				Name:      "tree_healthy",
				Help:      "Supervised tree status (0=unhealthy, 1=healthy)",
			},
		),
	}
}

func (m *SupervisionMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.CheckupDuration,
		m.CheckupFailures,
		m.RestartCascades,
		m.ChildRestarts,
		m.SupervisorTicks,
		m.HangsDetected,
		m.TreeHealthy,
	}
}

// ObserveCheckup records a container checkup's duration and outcome.
func (m *SupervisionMetrics) ObserveCheckup(container string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.CheckupDuration.WithLabelValues(container).Observe(d.Seconds())
	if err != nil {
		m.CheckupFailures.WithLabelValues(container).Inc()
	}
}

// RestartCascade counts an all-children restart.
func (m *SupervisionMetrics) RestartCascade(container string) {
	if m == nil {
		return
	}
	m.RestartCascades.WithLabelValues(container).Inc()
}

// ChildRestart counts the restart of a single child.
func (m *SupervisionMetrics) ChildRestart(container, child string) {
	if m == nil {
		return
	}
	m.ChildRestarts.WithLabelValues(container, child).Inc()
}

// Tick counts a supervisor checkup tick.
func (m *SupervisionMetrics) Tick(supervisor string) {
	if m == nil {
		return
	}
	m.SupervisorTicks.WithLabelValues(supervisor).Inc()
}

// HangDetected counts a checkup found still pending at the next tick.
func (m *SupervisionMetrics) HangDetected(supervisor string) {
	if m == nil {
		return
	}
	m.HangsDetected.WithLabelValues(supervisor).Inc()
}

// SetTreeHealthy records whether the supervised tree is currently healthy.
func (m *SupervisionMetrics) SetTreeHealthy(healthy bool) {
	if m == nil {
		return
	}
	v := 0.0
	if healthy {
		v = 1.0
	}
	m.TreeHealthy.Set(v)
}

// sup holds the process-wide supervision metrics installed by the registry.
var sup atomic.Pointer[SupervisionMetrics]

// Sup returns the installed supervision metrics, or nil when no registry has
// been created. The returned value's methods are safe to call either way.
func Sup() *SupervisionMetrics {
	return sup.Load()
}

// SetSup installs the process-wide supervision metrics. Passing nil turns
// recording off.
func SetSup(m *SupervisionMetrics) {
	sup.Store(m)
}
