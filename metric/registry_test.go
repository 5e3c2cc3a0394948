package metric

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gatheredNames(t *testing.T, r *MetricsRegistry) map[string]bool {
	t.Helper()
	families, err := r.PrometheusRegistry().Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	return names
}

func TestNewMetricsRegistry_RegistersSupervisionSet(t *testing.T) {
	registry := NewMetricsRegistry()
	defer SetSup(nil)

	require.NotNil(t, registry.PrometheusRegistry())
	require.NotNil(t, registry.Supervision)
	assert.Same(t, registry.Supervision, Sup())

	registry.Supervision.RestartCascade("top")
	names := gatheredNames(t, registry)
	assert.True(t, names["comptree_supervision_restart_cascades_total"])
	assert.True(t, names["go_goroutines"], "runtime collectors should be present")
}

func TestRegister_ComponentCollector(t *testing.T) {
	registry := NewMetricsRegistry()
	defer SetSup(nil)

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_operations_total",
		Help: "A test counter",
	})
	require.NoError(t, registry.Register("worker", "test_operations_total", counter))
	counter.Inc()

	names := gatheredNames(t, registry)
	assert.True(t, names["test_operations_total"])
}

func TestRegister_DuplicateKeyFails(t *testing.T) {
	registry := NewMetricsRegistry()
	defer SetSup(nil)

	first := prometheus.NewCounter(prometheus.CounterOpts{Name: "dup_total", Help: "x"})
	require.NoError(t, registry.Register("worker", "dup_total", first))

	second := prometheus.NewCounter(prometheus.CounterOpts{Name: "dup2_total", Help: "x"})
	err := registry.Register("worker", "dup_total", second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegister_PrometheusConflictFails(t *testing.T) {
	registry := NewMetricsRegistry()
	defer SetSup(nil)

	first := prometheus.NewCounter(prometheus.CounterOpts{Name: "conflict_total", Help: "x"})
	require.NoError(t, registry.Register("a", "conflict_total", first))

	// Same Prometheus name under a different registry key.
	second := prometheus.NewCounter(prometheus.CounterOpts{Name: "conflict_total", Help: "x"})
	assert.Error(t, registry.Register("b", "other_name", second))
}

func TestUnregister(t *testing.T) {
	registry := NewMetricsRegistry()
	defer SetSup(nil)

	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "gone_total", Help: "x"})
	require.NoError(t, registry.Register("worker", "gone_total", counter))

	assert.True(t, registry.Unregister("worker", "gone_total"))
	assert.False(t, registry.Unregister("worker", "gone_total"))

	names := gatheredNames(t, registry)
	assert.False(t, names["gone_total"])
}

func TestRegister_Concurrent(t *testing.T) {
	registry := NewMetricsRegistry()
	defer SetSup(nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("concurrent_%d_total", i)
			counter := prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: "x"})
			assert.NoError(t, registry.Register("worker", name, counter))
		}(i)
	}
	wg.Wait()
}

func TestSupervisionMetrics_NilReceiverIsNoop(t *testing.T) {
	SetSup(nil)
	var m *SupervisionMetrics

	// None of these may panic.
	m.ObserveCheckup("top", time.Second, nil)
	m.RestartCascade("top")
	m.ChildRestart("top", "child")
	m.Tick("sup")
	m.HangDetected("sup")
	m.SetTreeHealthy(true)
	Sup().ObserveCheckup("top", time.Second, assert.AnError)
}

func TestSupervisionMetrics_Recording(t *testing.T) {
	m := NewSupervisionMetrics()

	m.ObserveCheckup("top", 10*time.Millisecond, nil)
	m.ObserveCheckup("top", 10*time.Millisecond, assert.AnError)
	m.RestartCascade("top")
	m.ChildRestart("top", "worker")
	m.ChildRestart("top", "worker")
	m.Tick("sup")
	m.HangDetected("sup")
	m.SetTreeHealthy(true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CheckupFailures.WithLabelValues("top")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RestartCascades.WithLabelValues("top")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ChildRestarts.WithLabelValues("top", "worker")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SupervisorTicks.WithLabelValues("sup")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HangsDetected.WithLabelValues("sup")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TreeHealthy))
}
