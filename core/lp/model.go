// Package lp holds an explicit linear-model representation: variables are
// opaque handles, expressions are (coefficient, variable) term lists and
// constraints carry an explicit relational sense. Models are assembled by a
// builder and exported in general form for the simplex adapter.
package lp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Var is an opaque handle to a decision variable of a Model.
type Var struct {
	idx int
}

// Index returns the column of the variable in the model's dense form.
func (v Var) Index() int { return v.idx }

// Sense is the relational sense of a constraint.
type Sense int

const (
	LessEq Sense = iota
	GreaterEq
	Equal
)

func (s Sense) String() string {
	switch s {
	case LessEq:
		return "<="
	case GreaterEq:
		return ">="
	case Equal:
		return "=="
	default:
		return "?"
	}
}

// Term is one coefficient*variable product of a linear expression.
type Term struct {
	Coeff float64
	Var   Var
}

// Expr is a linear expression: an ordered term list plus a constant offset.
type Expr struct {
	Terms    []Term
	Constant float64
}

// Add appends a coefficient*variable term and returns the expression for
// chaining.
func (e *Expr) Add(coeff float64, v Var) *Expr {
	e.Terms = append(e.Terms, Term{Coeff: coeff, Var: v})
	return e
}

// AddConstant shifts the constant offset of the expression.
func (e *Expr) AddConstant(c float64) *Expr {
	e.Constant += c
	return e
}

// Constraint relates a linear expression to a right-hand side.
type Constraint struct {
	Name  string
	Expr  Expr
	Sense Sense
	RHS   float64
}

type variable struct {
	name string
	lb   float64
	ub   float64
}

// Model accumulates variables, constraints and the minimization objective.
// It is a pure container: nothing is solved until it is handed to a solver.
type Model struct {
	name string
	vars []variable
	cons []Constraint
	obj  Expr
}

// New returns an empty minimization model.
func New(name string) *Model {
	return &Model{name: name}
}

// Name returns the model label used in logs.
func (m *Model) Name() string { return m.name }

// AddVariable registers a bounded variable and returns its handle.
// Use math.Inf(1) for an unbounded upper limit.
func (m *Model) AddVariable(name string, lb, ub float64) Var {
	m.vars = append(m.vars, variable{name: name, lb: lb, ub: ub})
	return Var{idx: len(m.vars) - 1}
}

// AddConstraint appends a relational constraint.
func (m *Model) AddConstraint(c Constraint) {
	m.cons = append(m.cons, c)
}

// SetObjectiveTerm adds coeff*v to the minimization objective. Repeated calls
// for the same variable accumulate.
func (m *Model) SetObjectiveTerm(coeff float64, v Var) {
	m.obj.Add(coeff, v)
}

// NumVars returns the number of registered variables.
func (m *Model) NumVars() int { return len(m.vars) }

// NumConstraints returns the number of relational constraints, bounds excluded.
func (m *Model) NumConstraints() int { return len(m.cons) }

// Constraints returns the registered constraints. The slice is shared; callers
// must not mutate it.
func (m *Model) Constraints() []Constraint { return m.cons }

// VarName returns the registered name for a variable handle.
func (m *Model) VarName(v Var) string { return m.vars[v.idx].name }

// Bounds returns the lower and upper bound of a variable.
func (m *Model) Bounds(v Var) (lb, ub float64) {
	return m.vars[v.idx].lb, m.vars[v.idx].ub
}

// Objective returns the minimization objective expression.
func (m *Model) Objective() Expr { return m.obj }

// EvalExpr computes the value of an expression under the given assignment,
// indexed by variable column.
func EvalExpr(e Expr, values []float64) float64 {
	sum := e.Constant
	for _, t := range e.Terms {
		sum += t.Coeff * values[t.Var.idx]
	}
	return sum
}

// GeneralForm exports the model as
//
//	minimize c^T x subject to G x <= h, A x = b
//
// suitable for lp.Convert. Variable bounds are emitted as inequality rows and
// constraint constants are folded into the right-hand sides. The inequality
// and equality blocks are nil when the model has no rows of that kind. An
// error is returned for a model without variables.
func (m *Model) GeneralForm() (c []float64, g *mat.Dense, h []float64, a *mat.Dense, b []float64, err error) {
	n := len(m.vars)
	if n == 0 {
		return nil, nil, nil, nil, nil, fmt.Errorf("model %q has no variables", m.name)
	}

	c = make([]float64, n)
	for _, t := range m.obj.Terms {
		c[t.Var.idx] += t.Coeff
	}

	var nIneq, nEq int
	for _, con := range m.cons {
		if con.Sense == Equal {
			nEq++
		} else {
			nIneq++
		}
	}
	for _, v := range m.vars {
		if !math.IsInf(v.lb, -1) {
			nIneq++
		}
		if !math.IsInf(v.ub, 1) {
			nIneq++
		}
	}

	if nIneq > 0 {
		g = mat.NewDense(nIneq, n, nil)
		h = make([]float64, nIneq)
	}
	if nEq > 0 {
		a = mat.NewDense(nEq, n, nil)
		b = make([]float64, nEq)
	}

	var iRow, eRow int
	for _, con := range m.cons {
		rhs := con.RHS - con.Expr.Constant
		switch con.Sense {
		case Equal:
			for _, t := range con.Expr.Terms {
				a.Set(eRow, t.Var.idx, a.At(eRow, t.Var.idx)+t.Coeff)
			}
			b[eRow] = rhs
			eRow++
		case LessEq:
			for _, t := range con.Expr.Terms {
				g.Set(iRow, t.Var.idx, g.At(iRow, t.Var.idx)+t.Coeff)
			}
			h[iRow] = rhs
			iRow++
		case GreaterEq:
			// flip to <= form
			for _, t := range con.Expr.Terms {
				g.Set(iRow, t.Var.idx, g.At(iRow, t.Var.idx)-t.Coeff)
			}
			h[iRow] = -rhs
			iRow++
		}
	}
	for j, v := range m.vars {
		if !math.IsInf(v.lb, -1) {
			g.Set(iRow, j, -1)
			h[iRow] = -v.lb
			iRow++
		}
		if !math.IsInf(v.ub, 1) {
			g.Set(iRow, j, 1)
			h[iRow] = v.ub
			iRow++
		}
	}
	return c, g, h, a, b, nil
}
