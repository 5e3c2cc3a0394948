// Package main implements the comptree entry point: it loads a tree
// description, builds the supervised component tree through the loader, and
// runs it until a signal arrives or the supervisor dies.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/c360/comptree/component"
	"github.com/c360/comptree/errors"
	"github.com/c360/comptree/health"
	"github.com/c360/comptree/loader"
	"github.com/c360/comptree/metric"
	"github.com/c360/comptree/spec"
	"github.com/c360/comptree/supervisor"
)

// Build information constants.
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "comptree"

	shutdownTimeout = 30 * time.Second
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, errors.Pretty(err))
		slog.Error("application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg, shouldExit, err := initializeCLI()
	if shouldExit || err != nil {
		return err
	}

	ctx := context.Background()
	ldr, desc, err := loadTree(ctx, cliCfg)
	if err != nil {
		return err
	}
	defer ldr.CloseWatch()

	if cliCfg.Validate {
		slog.Info("description is valid", "name", desc.Name, "module", desc.Module)
		return nil
	}

	metricsRegistry := metric.NewMetricsRegistry()
	defer metric.SetSup(nil)

	signalCtx, signalCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	sup, err := buildSupervisor(ctx, ldr, desc)
	if err != nil {
		return err
	}

	monitor := health.NewMonitor()
	notify, cleanup, err := buildNotifier(cliCfg, monitor, desc.Name, signalCancel)
	if err != nil {
		return err
	}
	defer cleanup()
	sup.SetNotifier(notify)

	stopServers := startServers(cliCfg, monitor, desc.Name, metricsRegistry)
	defer stopServers()

	slog.Info("starting supervision", "tree", desc.Name, "version", Version)
	if err := sup.Start(ctx); err != nil {
		return fmt.Errorf("start supervision: %w", err)
	}

	<-signalCtx.Done()
	if ferr := sup.Err(); ferr != nil {
		return ferr
	}
	slog.Info("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := sup.Shutdown(shutdownCtx, nil); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// initializeCLI parses flags and sets up logging.
func initializeCLI() (*CLIConfig, bool, error) {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return nil, false, fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil, true, nil
	}
	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil, true, nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("starting comptree",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath)
	return cliCfg, false, nil
}

// loadTree builds the loader over the description directory plus the kernel
// module table, and loads the resolved root description.
func loadTree(ctx context.Context, cliCfg *CLIConfig) (*loader.Loader, *spec.Spec, error) {
	dir := filepath.Dir(cliCfg.ConfigPath)
	ldr := loader.New(slog.Default(), loader.NewDirResolver("descriptions", dir))
	ldr.SetModules([]loader.Resolver{kernelResolver()})

	if cliCfg.Watch {
		if err := ldr.WatchDescriptions(ctx); err != nil {
			return nil, nil, fmt.Errorf("watch descriptions: %w", err)
		}
	}

	desc, err := ldr.LoadDescription(filepath.Base(cliCfg.ConfigPath), true, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("load description: %w", err)
	}
	return ldr, desc, nil
}

// buildSupervisor loads the root component and requires it to be a
// supervisor, since only a supervisor can run a tree unattended.
func buildSupervisor(ctx context.Context, ldr *loader.Loader, desc *spec.Spec) (*supervisor.Supervisor, error) {
	top := component.NewContext()
	top.SetLoader(ldr)

	root, err := ldr.LoadComponent(ctx, top, desc)
	if err != nil {
		return nil, fmt.Errorf("load tree: %w", err)
	}
	sup, ok := root.(*supervisor.Supervisor)
	if !ok {
		return nil, fmt.Errorf("root module %q is not a supervisor: %w",
			desc.Module, errors.ErrInvalidSpec)
	}
	return sup, nil
}

// buildNotifier fans supervision events out to the health monitor, the
// optional NATS publisher, and the signal cancel on death.
func buildNotifier(cliCfg *CLIConfig, monitor *health.Monitor, tree string, onDeath func()) (supervisor.Notifier, func(), error) {
	listeners := []supervisor.Notifier{health.Listener(monitor, tree)}
	cleanup := func() {}

	if cliCfg.NATSURL != "" {
		nc, err := nats.Connect(cliCfg.NATSURL, nats.Name(appName))
		if err != nil {
			return nil, nil, fmt.Errorf("connect to NATS: %w", err)
		}
		cleanup = nc.Close
		listeners = append(listeners,
			supervisor.NewNATSNotifier(nc, "", slog.Default()).Notify)
		slog.Info("supervision events publishing to NATS", "url", cliCfg.NATSURL)
	}

	notify := func(ev supervisor.Event) {
		for _, l := range listeners {
			l(ev)
		}
		if ev.Died {
			onDeath()
		}
	}
	return notify, cleanup, nil
}

// startServers launches the health and metrics endpoints and returns a stop
// function. A port of 0 disables the corresponding server.
func startServers(cliCfg *CLIConfig, monitor *health.Monitor, tree string, registry *metric.MetricsRegistry) func() {
	var stops []func()

	if cliCfg.HealthPort > 0 {
		healthSrv := health.NewServer(monitor, tree, cliCfg.HealthPort, slog.Default())
		go func() {
			if err := healthSrv.Start(); err != nil {
				slog.Error("health server failed", "error", err)
			}
		}()
		stops = append(stops, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = healthSrv.Stop(ctx)
		})
	}

	if cliCfg.MetricsPort > 0 {
		metricSrv := metric.NewServer(cliCfg.MetricsPort, "/metrics", registry)
		go func() {
			if err := metricSrv.Start(); err != nil {
				slog.Error("metrics server failed", "error", err)
			}
		}()
		stops = append(stops, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricSrv.Stop(ctx)
		})
	}

	return func() {
		for _, stop := range stops {
			stop()
		}
	}
}
