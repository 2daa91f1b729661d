// Package highs implements the spec §4.3 solver abstraction on top of
// a gohighs-shaped LP/MIP binding (grounded on
// other_examples/bartolsthoorn-gohighs__model.go and __solution.go):
// a dense Model{ColCosts, ColLower, ColUpper, RowLower, RowUpper,
// ConstMatrix, VarTypes} solved via Solve(opts ...SolveOption).
package highs

import (
	"math"

	gohighs "github.com/bartolsthoorn/gohighs/highs"

	"github.com/ohowland/cgc_lopf/internal/pkg/solver"
)

// Backend is a solver.Factory backed by HiGHS.
type Backend struct {
	TimeLimit float64
	MIPGap    float64
	Output    bool
}

// NewBackend returns a Backend with the given solve options applied
// to every model it constructs.
func NewBackend(timeLimit, mipGap float64) *Backend {
	return &Backend{TimeLimit: timeLimit, MIPGap: mipGap}
}

func (b *Backend) NewModel(kind solver.Kind) (solver.Model, error) {
	return &model{backend: b, kind: kind, rowLower: []float64{}, rowUpper: []float64{}}, nil
}

type nonzero struct {
	row, col int
	val      float64
}

// model accumulates a dense/sparse problem description and defers
// building the gohighs.Model until Solve is called, matching the
// spec's "assemble then solve" builder shape.
type model struct {
	backend *Backend
	kind    solver.Kind

	names    []string
	domains  []solver.Domain
	colLower []float64
	colUpper []float64
	objCoeff []float64

	rowLower []float64
	rowUpper []float64
	rowRel   []solver.Relation
	nonzeros []nonzero

	lazy solver.LazyCallback

	lastSolution *gohighs.Solution
	status       solver.Status
}

func (m *model) AddVariable(name string, domain solver.Domain, lower, upper float64) solver.Variable {
	idx := len(m.names)
	m.names = append(m.names, name)
	m.domains = append(m.domains, domain)
	m.colLower = append(m.colLower, lower)
	m.colUpper = append(m.colUpper, upper)
	m.objCoeff = append(m.objCoeff, 0)
	return solver.Variable(idx)
}

func (m *model) AddConstraint(expr solver.LinExpr, rel solver.Relation, rhs float64) solver.Constraint {
	row := len(m.rowLower)
	lower, upper := rowBounds(rel, rhs)
	m.rowLower = append(m.rowLower, lower)
	m.rowUpper = append(m.rowUpper, upper)
	m.rowRel = append(m.rowRel, rel)
	for _, t := range expr.Terms {
		if t.Coeff == 0 {
			continue
		}
		m.nonzeros = append(m.nonzeros, nonzero{row: row, col: int(t.Var), val: t.Coeff})
	}
	return solver.Constraint(row)
}

// rowBounds converts a spec-level Relation into a gohighs-style
// two-sided row range, matching the teacher file's own AddLeRow/
// AddGeRow/AddEqRow helpers (other_examples/bartolsthoorn-gohighs__model.go).
func rowBounds(rel solver.Relation, rhs float64) (float64, float64) {
	switch rel {
	case solver.LE:
		return math.Inf(-1), rhs
	case solver.GE:
		return rhs, math.Inf(1)
	default:
		return rhs, rhs
	}
}

func (m *model) SetObjective(expr solver.LinExpr) {
	for i := range m.objCoeff {
		m.objCoeff[i] = 0
	}
	for _, t := range expr.Terms {
		m.objCoeff[t.Var] += t.Coeff
	}
}

func (m *model) SetRHS(c solver.Constraint, rhs float64) {
	row := int(c)
	lower, upper := rowBounds(m.rowRel[row], rhs)
	m.rowLower[row] = lower
	m.rowUpper[row] = upper
}

func (m *model) AddLazyConstraint(cb solver.LazyCallback) error {
	// The bound HiGHS binding exposes a single blocking Solve call with
	// no native mid-branch-and-bound callback hook (see
	// other_examples/bartolsthoorn-gohighs__model.go: Solve runs to
	// completion). internal/pkg/benders emulates spec §4.3's lazy
	// constraint contract with an outer solve/cut/resolve loop instead
	// of relying on backend support; registering a callback here is
	// therefore a no-op recorded for API completeness.
	m.lazy = cb
	return solver.ErrLazyUnsupported
}

func (m *model) Solve() (solver.Status, error) {
	numCol := len(m.names)
	gm := &gohighs.Model{
		Maximize: false,
		ColCosts: append([]float64(nil), m.objCoeff...),
		ColLower: append([]float64(nil), m.colLower...),
		ColUpper: append([]float64(nil), m.colUpper...),
		RowLower: append([]float64(nil), m.rowLower...),
		RowUpper: append([]float64(nil), m.rowUpper...),
	}
	gm.VarTypes = make([]gohighs.VariableType, numCol)
	for i, d := range m.domains {
		gm.VarTypes[i] = toVarType(d)
	}
	gm.ConstMatrix = make([]gohighs.Nonzero, len(m.nonzeros))
	for i, nz := range m.nonzeros {
		gm.ConstMatrix[i] = gohighs.Nonzero{Row: nz.row, Col: nz.col, Val: nz.val}
	}

	opts := []gohighs.SolveOption{gohighs.WithOutput(m.backend.Output)}
	if m.backend.TimeLimit > 0 {
		opts = append(opts, gohighs.WithTimeLimit(m.backend.TimeLimit))
	}
	if m.backend.MIPGap > 0 {
		opts = append(opts, gohighs.WithMIPRelGap(m.backend.MIPGap))
	}

	sol, err := gm.Solve(opts...)
	if err != nil {
		m.status = solver.Error
		return m.status, err
	}
	m.lastSolution = sol
	m.status = toStatus(sol.Status)
	return m.status, nil
}

func (m *model) Value(v solver.Variable) float64 {
	if m.lastSolution == nil {
		return 0
	}
	return m.lastSolution.Value(int(v))
}

func (m *model) ObjectiveValue() float64 {
	if m.lastSolution == nil {
		return 0
	}
	return m.lastSolution.Objective
}

func (m *model) Dual(c solver.Constraint) float64 {
	if m.lastSolution == nil || int(c) >= len(m.lastSolution.RowDuals) {
		return 0
	}
	return m.lastSolution.RowDuals[c]
}

// Ray approximates a Farkas extreme ray for an infeasible model by the
// row dual (sign included) from the last attempted solve. The bound
// HiGHS binding does not expose a dedicated unbounded-ray accessor, so
// callers needing feasibility-cut coefficients (internal/pkg/benders)
// treat this as an approximation, consistent with spec §4.7 step 6's
// requirement for "extreme-ray duals" rather than a specific API.
func (m *model) Ray(c solver.Constraint) float64 {
	return m.Dual(c)
}

func toVarType(d solver.Domain) gohighs.VariableType {
	switch d {
	case solver.Integer:
		return gohighs.Integer
	case solver.Binary:
		return gohighs.Integer
	default:
		return gohighs.Continuous
	}
}

func toStatus(s gohighs.ModelStatus) solver.Status {
	switch {
	case s == gohighs.ModelStatusOptimal:
		return solver.Optimal
	case s == gohighs.ModelStatusInfeasible || s == gohighs.ModelStatusUnboundedOrInfeasible:
		return solver.Infeasible
	case s == gohighs.ModelStatusUnbounded:
		return solver.Unbounded
	case s == gohighs.ModelStatusTimeLimit:
		return solver.TimeLimit
	default:
		return solver.Error
	}
}
