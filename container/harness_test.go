package container

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/c360/comptree/component"
	"github.com/c360/comptree/spec"
)

// fakeLoader is an in-memory component.Loader that builds fakeChild and
// fakeTx instances and records lifecycle events in submission order.
type fakeLoader struct {
	mu     sync.Mutex
	events []string
	failOn map[string]error
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{failOn: make(map[string]error)}
}

func (l *fakeLoader) record(ev string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *fakeLoader) eventList() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

func (l *fakeLoader) countEvents(ev string) int {
	n := 0
	for _, e := range l.eventList() {
		if e == ev {
			n++
		}
	}
	return n
}

func (l *fakeLoader) setFailOn(name string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err == nil {
		delete(l.failOn, name)
	} else {
		l.failOn[name] = err
	}
}

func (l *fakeLoader) LoadComponent(ctx context.Context, c *component.Context, s *spec.Spec) (component.Component, error) {
	l.mu.Lock()
	err := l.failOn[s.Name]
	l.mu.Unlock()
	if err != nil {
		return nil, err
	}

	base, berr := component.NewBase(c, s, slog.Default())
	if berr != nil {
		return nil, berr
	}

	var comp component.Component
	switch s.Module {
	case "test#tx":
		tx := &fakeTx{fakeChild: fakeChild{Base: base, loader: l}}
		tx.Bind(tx)
		comp = tx
	default:
		ch := &fakeChild{Base: base, loader: l}
		ch.Bind(ch)
		comp = ch
	}

	if cerr := comp.Checkup(ctx, nil); cerr != nil {
		return nil, cerr
	}
	c.Register(s.Name, comp)
	l.record("create:" + s.Name)
	return comp, nil
}

// fakeChild is a leaf component whose checkup failure is switchable.
type fakeChild struct {
	*component.Base
	loader *fakeLoader

	mu       sync.Mutex
	fail     bool
	checkups int
}

func (f *fakeChild) setFail(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = v
}

func (f *fakeChild) checkupCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.checkups
}

func (f *fakeChild) Checkup(ctx context.Context, data *component.Data) error {
	if err := f.Base.Checkup(ctx, data); err != nil {
		return err
	}
	f.mu.Lock()
	f.checkups++
	fail := f.fail
	f.mu.Unlock()
	if fail {
		return stderrors.New("induced checkup failure")
	}
	return nil
}

func (f *fakeChild) Shutdown(ctx context.Context, data *component.Data) error {
	if !f.IsShutdown() {
		f.loader.record("shutdown:" + f.Spec().Name)
	}
	return f.Base.Shutdown(ctx, data)
}

// fakeTx is a fakeChild that participates in two-phase commit, recording
// each phase and remembering the values handed to Begin and Resume.
type fakeTx struct {
	fakeChild

	txMu        sync.Mutex
	lastMsg     any
	resumedWith any
	failPrepare bool
}

func (f *fakeTx) Init(ctx context.Context) error {
	f.loader.record("init:" + f.Spec().Name)
	return nil
}

func (f *fakeTx) Resume(ctx context.Context, cp any) error {
	f.txMu.Lock()
	f.resumedWith = cp
	f.txMu.Unlock()
	f.loader.record("resume:" + f.Spec().Name)
	return nil
}

func (f *fakeTx) Begin(ctx context.Context, msg any) error {
	f.txMu.Lock()
	f.lastMsg = msg
	f.txMu.Unlock()
	f.loader.record("begin:" + f.Spec().Name)
	return nil
}

func (f *fakeTx) Prepare(ctx context.Context) (any, error) {
	f.txMu.Lock()
	failing := f.failPrepare
	f.txMu.Unlock()
	f.loader.record("prepare:" + f.Spec().Name)
	if failing {
		return nil, stderrors.New("induced prepare failure")
	}
	return "prepared-" + f.Spec().Name, nil
}

func (f *fakeTx) Commit(ctx context.Context) error {
	f.loader.record("commit:" + f.Spec().Name)
	return nil
}

func (f *fakeTx) Abort(ctx context.Context) error {
	f.loader.record("abort:" + f.Spec().Name)
	return nil
}

func containerSpec(name string, children ...*spec.Spec) *spec.Spec {
	return &spec.Spec{
		Name:       name,
		Module:     "test#container",
		Env:        spec.Env{"maxRetries": 1, "retryDelay": 1},
		Components: children,
	}
}

func childSpec(name string) *spec.Spec {
	return &spec.Spec{Name: name, Module: "test#child", Env: spec.Env{}}
}

func txChildSpec(name string) *spec.Spec {
	return &spec.Spec{Name: name, Module: "test#tx", Env: spec.Env{}}
}

// newTestContext returns a top context with a fresh fake loader installed.
func newTestContext() (*component.Context, *fakeLoader) {
	top := component.NewContext()
	ldr := newFakeLoader()
	top.SetLoader(ldr)
	return top, ldr
}

// registerStray places a bare component in the children context without
// going through the loader, as an out-of-band registration would.
func registerStray(c *component.Context, name string, env spec.Env) component.Component {
	s := &spec.Spec{Name: name, Module: "test#stray", Env: env}
	base, err := component.NewBase(c, s, slog.Default())
	if err != nil {
		panic(fmt.Sprintf("stray base: %v", err))
	}
	ch := &fakeChild{Base: base, loader: newFakeLoader()}
	ch.Bind(ch)
	c.Register(name, ch)
	return ch
}
