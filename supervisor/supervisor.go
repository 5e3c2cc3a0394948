package supervisor

import (
	"context"
	"log/slog"
	"math"
	"os"
	"sync"
	"time"

	"github.com/c360/comptree/component"
	"github.com/c360/comptree/container"
	"github.com/c360/comptree/errors"
	"github.com/c360/comptree/metric"
	"github.com/c360/comptree/spec"
)

// Event describes the outcome of one supervision round.
type Event struct {
	Supervisor string    `json:"supervisor"`
	Time       time.Time `json:"time"`
	Healthy    bool      `json:"healthy"`
	Hang       bool      `json:"hang,omitempty"`
	RestartAll bool      `json:"restartAll,omitempty"`
	Died       bool      `json:"died,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Notifier receives per-round supervision events. It is called from the
// supervisor's timer goroutines and must not block.
type Notifier func(Event)

// Supervisor is the tree root: a static container driven by a periodic
// health-check timer, with hang detection and terminal escalation.
type Supervisor struct {
	*container.Container

	interval       time.Duration
	dieDelay       time.Duration
	dieDisabled    bool
	maxHangRetries int

	stopOnce sync.Once
	stopCh   chan struct{}

	mu       sync.Mutex
	notifier Notifier
	exit     func(int)
	started  bool
	pending  bool
	hangs    int
	dying    bool
	fatal    *errors.FatalError
}

// New validates the supervisor env, builds the underlying static container
// with its children, and binds the supervisor as the tree root. The timer is
// not armed until Start or StartLazy.
func New(ctx context.Context, c *component.Context, s *spec.Spec, logger *slog.Logger) (*Supervisor, error) {
	intervalMs, err := s.Env.RequireInt("interval", 1)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Supervisor", "New", "env validation")
	}
	dieDelayMs, err := s.Env.RequireInt("dieDelay", math.MinInt)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Supervisor", "New", "env validation")
	}
	maxHangRetries, err := s.Env.RequireInt("maxHangRetries", 0)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Supervisor", "New", "env validation")
	}

	cont, err := container.New(ctx, c, s, logger)
	if err != nil {
		return nil, err
	}

	sup := &Supervisor{
		Container:      cont,
		interval:       time.Duration(intervalMs) * time.Millisecond,
		dieDelay:       time.Duration(dieDelayMs) * time.Millisecond,
		dieDisabled:    dieDelayMs < 0,
		maxHangRetries: maxHangRetries,
		stopCh:         make(chan struct{}),
		exit:           os.Exit,
	}
	sup.BindSelf(sup)
	return sup, nil
}

// SetNotifier installs the per-round event callback. Install it before
// starting the timer.
func (sup *Supervisor) SetNotifier(n Notifier) {
	sup.mu.Lock()
	defer sup.mu.Unlock()
	sup.notifier = n
}

// SetExitFunc replaces the process-exit function invoked from die. Tests and
// embedders use it to observe termination instead of exiting.
func (sup *Supervisor) SetExitFunc(fn func(int)) {
	sup.mu.Lock()
	defer sup.mu.Unlock()
	if fn != nil {
		sup.exit = fn
	}
}

// Err returns the fatal error recorded by die, or nil while the tree is
// alive.
func (sup *Supervisor) Err() error {
	sup.mu.Lock()
	defer sup.mu.Unlock()
	if sup.fatal == nil {
		return nil
	}
	return sup.fatal
}

// Start runs one health check synchronously. On failure the timer is not
// armed and the error is returned; on success the periodic timer takes over.
func (sup *Supervisor) Start(ctx context.Context) error {
	if err := sup.checkNotStarted("Start"); err != nil {
		return err
	}

	data := &component.Data{}
	if err := sup.Container.Checkup(ctx, data); err != nil {
		return errors.Wrap(err, "Supervisor", "Start", "initial health check")
	}
	metric.Sup().SetTreeHealthy(true)
	sup.notify(Event{Healthy: true, RestartAll: data.RestartAll})

	return sup.arm(ctx, "Start")
}

// StartLazy arms the timer immediately; the first tick runs the first health
// check.
func (sup *Supervisor) StartLazy(ctx context.Context) error {
	if err := sup.checkNotStarted("StartLazy"); err != nil {
		return err
	}
	return sup.arm(ctx, "StartLazy")
}

func (sup *Supervisor) checkNotStarted(method string) error {
	sup.mu.Lock()
	defer sup.mu.Unlock()
	if sup.started {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Supervisor", method, sup.Spec().Name)
	}
	return nil
}

func (sup *Supervisor) arm(ctx context.Context, method string) error {
	sup.mu.Lock()
	if sup.started {
		sup.mu.Unlock()
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Supervisor", method, sup.Spec().Name)
	}
	sup.started = true
	sup.mu.Unlock()

	go sup.loop(ctx)
	return nil
}

func (sup *Supervisor) loop(ctx context.Context) {
	ticker := time.NewTicker(sup.interval)
	defer ticker.Stop()
	for {
		select {
		case <-sup.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			sup.tick(ctx)
		}
	}
}

// tick runs one supervision round. The health check itself runs in its own
// goroutine so the ticker keeps firing and can observe a hang.
func (sup *Supervisor) tick(ctx context.Context) {
	name := sup.Spec().Name
	metric.Sup().Tick(name)

	sup.mu.Lock()
	if sup.pending {
		sup.hangs++
		hangs := sup.hangs
		sup.mu.Unlock()

		metric.Sup().HangDetected(name)
		hangErr := &errors.HangError{Retries: hangs, CheckingForHang: true}
		if hangs > sup.maxHangRetries {
			sup.die(ctx, "health check hung", hangErr)
			return
		}
		sup.Logger().Warn("health check still in progress", "retries", hangs)
		sup.notify(Event{Hang: true, Error: hangErr.Error()})
		return
	}
	sup.pending = true
	sup.mu.Unlock()

	go func() {
		data := &component.Data{}
		err := sup.Checkup(ctx, data)

		sup.mu.Lock()
		sup.pending = false
		sup.hangs = 0
		sup.mu.Unlock()

		metric.Sup().SetTreeHealthy(err == nil)
		ev := Event{Healthy: err == nil, RestartAll: data.RestartAll}
		if err != nil {
			ev.Error = err.Error()
		}
		sup.notify(ev)
	}()
}

// Checkup wraps the container checkup with root escalation: the root does
// not limp along, so any unrecoverable failure triggers die.
func (sup *Supervisor) Checkup(ctx context.Context, data *component.Data) error {
	err := sup.Container.Checkup(ctx, data)
	if err == nil {
		return nil
	}
	sup.die(ctx, "unrecoverable health check failure", err)
	return errors.WrapFatal(err, "Supervisor", "Checkup", "root escalation")
}

// die is the terminal escalation: log at the highest severity, schedule the
// process exit unless disabled, shut the tree down, and record the fatal
// error for Err and the notifier. Repeated calls are ignored.
func (sup *Supervisor) die(ctx context.Context, reason string, cause error) {
	fatal := &errors.FatalError{Reason: reason, Err: cause}

	sup.mu.Lock()
	if sup.dying {
		sup.mu.Unlock()
		return
	}
	sup.dying = true
	sup.fatal = fatal
	exit := sup.exit
	sup.mu.Unlock()

	sup.Logger().Error("supervisor terminating", "reason", reason, "error", cause)
	metric.Sup().SetTreeHealthy(false)

	if !sup.dieDisabled {
		time.AfterFunc(sup.dieDelay, func() { exit(1) })
	}

	if err := sup.Shutdown(ctx, nil); err != nil {
		sup.Logger().Error("shutdown during termination failed", "error", err)
	}
	sup.notify(Event{Died: true, Error: fatal.Error()})
}

// Shutdown stops the timer and chains to the container shutdown.
func (sup *Supervisor) Shutdown(ctx context.Context, data *component.Data) error {
	if sup.IsShutdown() {
		return nil
	}
	sup.stopOnce.Do(func() { close(sup.stopCh) })
	return sup.Container.Shutdown(ctx, data)
}

func (sup *Supervisor) notify(ev Event) {
	sup.mu.Lock()
	n := sup.notifier
	sup.mu.Unlock()
	if n == nil {
		return
	}
	ev.Supervisor = sup.Spec().Name
	ev.Time = time.Now()
	n(ev)
}

var _ component.Component = (*Supervisor)(nil)
