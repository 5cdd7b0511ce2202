// Package solver implements the core solver seam on gonum's dense simplex.
package solver

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	corelp "github.com/kilianp07/gridplan/core/lp"
	coresolver "github.com/kilianp07/gridplan/core/solver"
	"github.com/kilianp07/gridplan/infra/logger"
)

const defaultTol = 1e-7

// Simplex solves models with gonum's optimize/convex/lp package. The zero
// value is not usable; construct it with NewSimplex.
type Simplex struct {
	tol float64
	log logger.Logger
}

// NewSimplex returns a simplex-backed solver with the default tolerance.
func NewSimplex() *Simplex {
	return &Simplex{tol: defaultTol, log: logger.New("simplex-solver")}
}

type simplexOutcome struct {
	obj float64
	x   []float64
	err error
}

// Solve converts the model to standard form and runs the simplex algorithm.
// The run is bounded by opts.TimeLimit and the context deadline; hitting
// either reports StatusUnknown. A panicking backend is reported as
// *solver.UnavailableError with StatusUnavailable.
func (s *Simplex) Solve(ctx context.Context, m *corelp.Model, opts coresolver.Options) (coresolver.Solution, error) {
	c, g, h, a, b, err := m.GeneralForm()
	if err != nil {
		return coresolver.Solution{Status: coresolver.StatusUnknown}, err
	}
	tol := s.tol
	if opts.Tol > 0 {
		tol = opts.Tol
	}
	if opts.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.TimeLimit)
		defer cancel()
	}
	if ctx.Err() != nil {
		return coresolver.Solution{Status: coresolver.StatusUnknown}, nil
	}

	nVars := m.NumVars()
	done := make(chan simplexOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- simplexOutcome{err: &coresolver.UnavailableError{Err: fmt.Errorf("simplex panic: %v", r)}}
			}
		}()
		// Convert accepts nil constraint blocks, but only as untyped
		// nil interfaces.
		var ineq, eq mat.Matrix
		if g != nil {
			ineq = g
		}
		if a != nil {
			eq = a
		}
		// Convert splits each variable into positive and negative parts
		// and appends one slack per inequality row.
		cStd, aStd, bStd := lp.Convert(c, ineq, h, eq, b)
		obj, x, err := lp.Simplex(cStd, aStd, bStd, tol, nil)
		done <- simplexOutcome{obj: obj, x: x, err: err}
	}()

	select {
	case <-ctx.Done():
		s.log.Warnf("solve of %q cut off: %v", m.Name(), ctx.Err())
		return coresolver.Solution{Status: coresolver.StatusUnknown}, nil
	case out := <-done:
		return s.interpret(m, nVars, out)
	}
}

func (s *Simplex) interpret(m *corelp.Model, nVars int, out simplexOutcome) (coresolver.Solution, error) {
	if out.err != nil {
		var unavail *coresolver.UnavailableError
		switch {
		case errors.As(out.err, &unavail):
			return coresolver.Solution{Status: coresolver.StatusUnavailable}, out.err
		case errors.Is(out.err, lp.ErrInfeasible):
			return coresolver.Solution{Status: coresolver.StatusInfeasible}, nil
		case errors.Is(out.err, lp.ErrUnbounded):
			return coresolver.Solution{Status: coresolver.StatusUnbounded}, nil
		default:
			s.log.Warnf("solve of %q inconclusive: %v", m.Name(), out.err)
			return coresolver.Solution{Status: coresolver.StatusUnknown}, nil
		}
	}
	// Recover the original variables from the split standard form.
	values := make([]float64, nVars)
	for i := range values {
		values[i] = out.x[i] - out.x[nVars+i]
	}
	return coresolver.Solution{
		Status:    coresolver.StatusOptimal,
		Objective: out.obj,
		Values:    values,
	}, nil
}
