// Package metric provides Prometheus-based metrics collection and an HTTP
// server for supervision observability.
//
// The package offers a centralized metrics registry managing both the
// platform supervision metrics (checkup durations, restart cascades, child
// restarts, supervisor ticks and hangs) and custom component-owned metrics.
// It includes an HTTP server exposing metrics in Prometheus format.
//
// # Architecture
//
// The package follows a three-layer design:
//
//  1. Supervision metrics: platform-level metrics automatically registered
//     (SupervisionMetrics type)
//  2. Component registry: extensible registration for component-owned
//     metrics (Registrar interface)
//  3. HTTP server: Prometheus scrape endpoint (Server type)
//
// # Basic Usage
//
// Setting up metrics collection and the HTTP server:
//
//	registry := metric.NewMetricsRegistry()
//	server := metric.NewServer(9090, "/metrics", registry)
//
//	go func() {
//	    if err := server.Start(); err != nil {
//	        log.Printf("metrics server error: %v", err)
//	    }
//	}()
//	defer server.Stop(context.Background())
//
// Creating the registry installs its supervision set process-wide, so the
// container and supervisor kernels record through metric.Sup() without any
// explicit wiring:
//
//	metric.Sup().ObserveCheckup("top", elapsed, err)
//	metric.Sup().RestartCascade("top")
//
// When no registry has been created, Sup() returns nil and every recording
// method is a no-op, so instrumented code needs no guards.
//
// # Component Metrics
//
// Components register their own collectors through the Registrar interface:
//
//	counter := prometheus.NewCounter(prometheus.CounterOpts{
//	    Name: "operations_total",
//	    Help: "Total operations performed",
//	})
//	err := registry.Register("my-component", "operations_total", counter)
//
// Registration fails on duplicate component/metric pairs and on Prometheus
// name conflicts. Unregister removes a collector when its component shuts
// down.
//
// # Exposed Metrics
//
// All supervision metrics use the namespace "comptree" and the subsystem
// "supervision":
//
//   - comptree_supervision_checkup_duration_seconds{container="..."}
//   - comptree_supervision_checkup_failures_total{container="..."}
//   - comptree_supervision_restart_cascades_total{container="..."}
//   - comptree_supervision_child_restarts_total{container="...",child="..."}
//   - comptree_supervision_ticks_total{supervisor="..."}
//   - comptree_supervision_hangs_detected_total{supervisor="..."}
//   - comptree_supervision_tree_healthy
//
// Go runtime and process collectors are registered alongside them.
//
// # Thread Safety
//
// All registry operations are mutex-protected; metric recording itself is
// lock-free per the Prometheus client guarantees. Sup()/SetSup() use an
// atomic pointer and are safe from any goroutine.
package metric
