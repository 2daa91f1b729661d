// Package solvermock is a no-op solver.Factory/Model used by tests
// that need to exercise the model builder's wiring (variable and
// constraint counts, RHS mutation, lazy-constraint registration)
// without a real LP/MIP backend, the way the teacher's
// dispatch/mockdispatch and bus/mockbus packages stand in for their
// respective interfaces.
package solvermock

import "github.com/ohowland/cgc_lopf/internal/pkg/solver"

// Model records every AddVariable/AddConstraint call and reports a
// fixed Solve outcome; Value/Dual/Ray return whatever was registered
// via SetValue/SetDual, defaulting to 0.
type Model struct {
	Kind solver.Kind

	VarNames  []string
	VarDomain []solver.Domain
	VarLower  []float64
	VarUpper  []float64

	Constraints []Row
	Objective   solver.LinExpr
	Lazy        solver.LazyCallback

	SolveStatus solver.Status
	SolveErr    error
	values      map[solver.Variable]float64
	duals       map[solver.Constraint]float64
	objective   float64
}

// Row is one recorded constraint.
type Row struct {
	Expr solver.LinExpr
	Rel  solver.Relation
	RHS  float64
}

func New() *Model {
	return &Model{SolveStatus: solver.Optimal, values: map[solver.Variable]float64{}, duals: map[solver.Constraint]float64{}}
}

// Factory builds a fresh Model recording Kind, for tests that assert
// on solver.Kind selection (LP vs MIP) without caring about solve values.
type Factory struct{ Built []*Model }

func (f *Factory) NewModel(kind solver.Kind) (solver.Model, error) {
	m := New()
	m.Kind = kind
	f.Built = append(f.Built, m)
	return m, nil
}

func (m *Model) AddVariable(name string, domain solver.Domain, lower, upper float64) solver.Variable {
	idx := len(m.VarNames)
	m.VarNames = append(m.VarNames, name)
	m.VarDomain = append(m.VarDomain, domain)
	m.VarLower = append(m.VarLower, lower)
	m.VarUpper = append(m.VarUpper, upper)
	return solver.Variable(idx)
}

func (m *Model) AddConstraint(expr solver.LinExpr, rel solver.Relation, rhs float64) solver.Constraint {
	idx := len(m.Constraints)
	m.Constraints = append(m.Constraints, Row{Expr: expr, Rel: rel, RHS: rhs})
	return solver.Constraint(idx)
}

func (m *Model) SetObjective(expr solver.LinExpr) { m.Objective = expr }

func (m *Model) SetRHS(c solver.Constraint, rhs float64) {
	m.Constraints[int(c)].RHS = rhs
}

func (m *Model) AddLazyConstraint(cb solver.LazyCallback) error {
	m.Lazy = cb
	return solver.ErrLazyUnsupported
}

func (m *Model) Solve() (solver.Status, error) { return m.SolveStatus, m.SolveErr }

func (m *Model) Value(v solver.Variable) float64 { return m.values[v] }

func (m *Model) ObjectiveValue() float64 { return m.objective }

// SetObjectiveValue seeds the value ObjectiveValue() will return, for
// tests asserting on Benders cut constants derived from it.
func (m *Model) SetObjectiveValue(val float64) { m.objective = val }

func (m *Model) Dual(c solver.Constraint) float64 { return m.duals[c] }

func (m *Model) Ray(c solver.Constraint) float64 { return m.duals[c] }

// SetValue seeds the value Value(v) will return, for tests asserting
// writeback logic against a known solution.
func (m *Model) SetValue(v solver.Variable, val float64) { m.values[v] = val }

// SetDual seeds the value Dual(c)/Ray(c) will return.
func (m *Model) SetDual(c solver.Constraint, val float64) { m.duals[c] = val }
