package testutil

import (
	"context"
	stderrors "errors"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/c360/comptree/component"
	"github.com/c360/comptree/errors"
	"github.com/c360/comptree/spec"
)

// ErrInducedFailure is the root cause of every random Faulty failure.
var ErrInducedFailure = stderrors.New("induced checkup failure")

// Faulty is a leaf whose checkup fails at random. Env key "mtbf" sets the
// mean number of checkups between failures; each probe fails independently
// with probability 1/mtbf. An mtbf of 0 never fails.
type Faulty struct {
	*component.Base

	mtbf int

	mu       sync.Mutex
	checkups int
	failures int
}

// NewFaulty builds a Faulty from its spec.
func NewFaulty(_ context.Context, c *component.Context, s *spec.Spec) (component.Component, error) {
	mtbf, err := s.Env.RequireInt("mtbf", 0)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Faulty", "NewFaulty", "env validation")
	}
	base, berr := component.NewBase(c, s, slog.Default())
	if berr != nil {
		return nil, berr
	}
	f := &Faulty{Base: base, mtbf: mtbf}
	f.Bind(f)
	return f, nil
}

// CheckupCount returns the number of checkups this instance has seen.
func (f *Faulty) CheckupCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.checkups
}

// FailureCount returns the number of induced failures.
func (f *Faulty) FailureCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failures
}

// Checkup chains to the kernel and then rolls the failure die.
func (f *Faulty) Checkup(ctx context.Context, data *component.Data) error {
	if err := f.Base.Checkup(ctx, data); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkups++
	if f.mtbf > 0 && rand.Float64() < 1.0/float64(f.mtbf) {
		f.failures++
		return errors.WrapTransient(ErrInducedFailure, "Faulty", "Checkup", f.Spec().Name)
	}
	return nil
}

var _ component.Component = (*Faulty)(nil)
