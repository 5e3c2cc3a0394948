package container

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/google/uuid"

	"github.com/c360/comptree/component"
	"github.com/c360/comptree/errors"
	"github.com/c360/comptree/spec"
)

// TwoPhase is implemented by children that participate in the two-phase
// commit protocol.
type TwoPhase interface {
	component.Component
	Init(ctx context.Context) error
	Resume(ctx context.Context, cp any) error
	Begin(ctx context.Context, msg any) error
	Prepare(ctx context.Context) (any, error)
	Commit(ctx context.Context) error
	Abort(ctx context.Context) error
}

// Action is one deferred operation in the lazy log: a method applied to the
// log target at commit or resume time. Deferred operations must be
// idempotent, since resume replays the log after a crash between prepare
// and commit.
type Action struct {
	Method string `json:"method"`
	Args   []any  `json:"args"`
}

// Checkpoint is the externally-persistable value produced by Prepare. The
// ID keys the checkpoint in whatever store the platform uses.
type Checkpoint struct {
	ID         string         `json:"id"`
	Children   map[string]any `json:"children,omitempty"`
	State      any            `json:"state,omitempty"`
	LogActions []Action       `json:"logActions,omitempty"`
}

// Transactional is a static container that additionally coordinates
// two-phase commit over its transactional children and defers its own side
// effects into a replayable action log.
type Transactional struct {
	*Container

	mu          sync.Mutex
	state       any
	stateBackup string
	logActions  []Action
	logTarget   any
}

// NewTransactional builds the underlying static container and wraps it with
// empty transactional state. The log target defaults to the container
// itself.
func NewTransactional(ctx context.Context, c *component.Context, s *spec.Spec, logger *slog.Logger) (*Transactional, error) {
	cont, err := New(ctx, c, s, logger)
	if err != nil {
		return nil, err
	}
	t := &Transactional{Container: cont}
	t.logTarget = t
	t.BindSelf(t)
	return t, nil
}

// State returns the container's own snapshot value.
func (t *Transactional) State() any {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// SetState replaces the container's own snapshot value. It must be
// JSON-serializable.
func (t *Transactional) SetState(v any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = v
}

// SetLogTarget redirects deferred actions to an external object.
func (t *Transactional) SetLogTarget(target any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.logTarget = target
}

// LazyApply defers a method call until commit or resume replay.
func (t *Transactional) LazyApply(method string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.logActions = append(t.logActions, Action{Method: method, Args: args})
}

// LogActions returns a copy of the pending deferred actions.
func (t *Transactional) LogActions() []Action {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Action(nil), t.logActions...)
}

func (t *Transactional) clearLog() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.logActions = nil
}

// transactionalChildren returns the transactional children in declaration
// order.
func (t *Transactional) transactionalChildren() []TwoPhase {
	var out []TwoPhase
	for _, cs := range t.ChildSpecs() {
		if tp, ok := t.Child(cs.Name).(TwoPhase); ok {
			out = append(out, tp)
		}
	}
	return out
}

// mapSeries applies op to every transactional child serially in
// declaration order, collecting per-child results by name.
func (t *Transactional) mapSeries(op func(tp TwoPhase) (any, error)) (map[string]any, error) {
	results := make(map[string]any)
	for _, tp := range t.transactionalChildren() {
		v, err := op(tp)
		if err != nil {
			return nil, fmt.Errorf("child %q: %w", tp.Spec().Name, err)
		}
		results[tp.Spec().Name] = v
	}
	return results, nil
}

// Init clears the action log and initializes every transactional child in
// declaration order.
func (t *Transactional) Init(ctx context.Context) error {
	t.clearLog()
	_, err := t.mapSeries(func(tp TwoPhase) (any, error) {
		return nil, tp.Init(ctx)
	})
	if err != nil {
		return errors.Wrap(err, "TransactionalContainer", "Init", "child init")
	}
	return nil
}

// Resume restores a previously prepared checkpoint: each transactional
// child resumes from its own slice, then the container's state and action
// log are restored and the log replayed. A successful replay clears the
// log.
func (t *Transactional) Resume(ctx context.Context, cp *Checkpoint) error {
	if cp == nil {
		return nil
	}
	_, err := t.mapSeries(func(tp TwoPhase) (any, error) {
		return nil, tp.Resume(ctx, cp.Children[tp.Spec().Name])
	})
	if err != nil {
		return errors.Wrap(err, "TransactionalContainer", "Resume", "child resume")
	}

	t.mu.Lock()
	if cp.State != nil {
		t.state = cp.State
	}
	if len(cp.LogActions) > 0 {
		t.logActions = append([]Action(nil), cp.LogActions...)
	}
	t.mu.Unlock()

	if err := t.replayLog(); err != nil {
		return errors.Wrap(err, "TransactionalContainer", "Resume", "log replay")
	}
	t.clearLog()
	return nil
}

// Begin opens a transaction: it snapshots the state for Abort, clears the
// action log, and propagates to the transactional children in declaration
// order.
func (t *Transactional) Begin(ctx context.Context, msg any) error {
	t.mu.Lock()
	backup, err := json.Marshal(t.state)
	if err != nil {
		t.mu.Unlock()
		return errors.WrapInvalid(err, "TransactionalContainer", "Begin", "state snapshot")
	}
	t.stateBackup = string(backup)
	t.logActions = nil
	t.mu.Unlock()

	_, err = t.mapSeries(func(tp TwoPhase) (any, error) {
		return nil, tp.Begin(ctx, msg)
	})
	if err != nil {
		return errors.Wrap(err, "TransactionalContainer", "Begin", "child begin")
	}
	return nil
}

// Prepare collects every transactional child's prepared value into a
// checkpoint, attaching the container's own state and pending actions. The
// platform persists the checkpoint before Commit.
func (t *Transactional) Prepare(ctx context.Context) (*Checkpoint, error) {
	children, err := t.mapSeries(func(tp TwoPhase) (any, error) {
		return tp.Prepare(ctx)
	})
	if err != nil {
		return nil, errors.Wrap(err, "TransactionalContainer", "Prepare", "child prepare")
	}

	cp := &Checkpoint{ID: uuid.NewString(), Children: children}
	t.mu.Lock()
	if t.state != nil {
		cp.State = t.state
	}
	if len(t.logActions) > 0 {
		cp.LogActions = append([]Action(nil), t.logActions...)
	}
	t.mu.Unlock()
	return cp, nil
}

// Commit propagates to the transactional children in declaration order and
// then replays the action log. A commit error after a persisted prepare is
// unrecoverable for this container: the caller shuts it down and relies on
// Resume to retry the deferred operations.
func (t *Transactional) Commit(ctx context.Context) error {
	_, err := t.mapSeries(func(tp TwoPhase) (any, error) {
		return nil, tp.Commit(ctx)
	})
	if err != nil {
		return errors.WrapFatal(err, "TransactionalContainer", "Commit", "child commit")
	}
	if err := t.replayLog(); err != nil {
		return errors.WrapFatal(err, "TransactionalContainer", "Commit", "log replay")
	}
	t.clearLog()
	return nil
}

// Abort restores the state snapshot taken at Begin, drops the action log,
// and propagates to the transactional children in declaration order.
func (t *Transactional) Abort(ctx context.Context) error {
	t.mu.Lock()
	if t.stateBackup != "" {
		var restored any
		if err := json.Unmarshal([]byte(t.stateBackup), &restored); err != nil {
			t.mu.Unlock()
			return errors.WrapInvalid(err, "TransactionalContainer", "Abort", "state restore")
		}
		t.state = restored
	}
	t.logActions = nil
	t.mu.Unlock()

	_, err := t.mapSeries(func(tp TwoPhase) (any, error) {
		return nil, tp.Abort(ctx)
	})
	if err != nil {
		return errors.Wrap(err, "TransactionalContainer", "Abort", "child abort")
	}
	return nil
}

// replayLog applies the pending actions to the log target in order,
// stopping at the first failure.
func (t *Transactional) replayLog() error {
	t.mu.Lock()
	actions := append([]Action(nil), t.logActions...)
	target := t.logTarget
	t.mu.Unlock()

	for _, a := range actions {
		if err := applyAction(target, a); err != nil {
			return err
		}
	}
	return nil
}

// applyAction invokes a deferred method by name via reflection, converting
// JSON-roundtripped arguments (notably float64 numbers) to the parameter
// types. A method whose last return value is a non-nil error fails the
// replay.
func applyAction(target any, a Action) error {
	m := reflect.ValueOf(target).MethodByName(a.Method)
	if !m.IsValid() {
		return fmt.Errorf("deferred method %q not found on %T", a.Method, target)
	}
	mt := m.Type()
	if mt.NumIn() != len(a.Args) {
		return fmt.Errorf("deferred method %q wants %d args, log has %d",
			a.Method, mt.NumIn(), len(a.Args))
	}

	in := make([]reflect.Value, len(a.Args))
	for i, arg := range a.Args {
		want := mt.In(i)
		v := reflect.ValueOf(arg)
		switch {
		case arg == nil:
			v = reflect.Zero(want)
		case v.Type().AssignableTo(want):
		case v.Type().ConvertibleTo(want):
			v = v.Convert(want)
		default:
			return fmt.Errorf("deferred method %q arg %d: cannot use %T as %s",
				a.Method, i, arg, want)
		}
		in[i] = v
	}

	out := m.Call(in)
	if n := len(out); n > 0 {
		if err, ok := out[n-1].Interface().(error); ok && err != nil {
			return err
		}
	}
	return nil
}
