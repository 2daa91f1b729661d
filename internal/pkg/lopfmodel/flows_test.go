package lopfmodel

import (
	"testing"

	"github.com/ohowland/cgc_lopf/internal/pkg/network"
	"github.com/ohowland/cgc_lopf/internal/pkg/rescale"
	"github.com/ohowland/cgc_lopf/internal/pkg/solver"
	"github.com/ohowland/cgc_lopf/internal/pkg/solver/solvermock"
	"gotest.tools/v3/assert"
)

// radialFixture is a slack bus feeding a single load across one line,
// small enough that the feasible dispatch (generation meets load,
// every watt of it crosses the one line) can be worked out by hand and
// checked against the rows buildFlowCoupling actually emits.
func radialFixture() network.Network {
	return network.Network{
		Buses: []network.Bus{{ID: "b0", VNom: 1}, {ID: "b1", VNom: 1}},
		Lines: []network.Line{{ID: "L0", Bus0: "b0", Bus1: "b1", X: 0.1, SNom: 200, SMaxPU: 1}},
		Generators: []network.Generator{
			{ID: "G0", Bus: "b0", PNom: 200, PMaxPU: 1, MarginalCost: 5},
		},
		Loads:     []network.Load{{ID: "load1", Bus: "b1", P: []float64{80}}},
		Snapshots: []network.Snapshot{{Index: 0, Weighting: 1}},
		SBase:     1,
	}
}

// evalTerms sums coeff*value over a row's terms (the row's Constant is
// never part of the solver's actual equation, since every call site
// already folds it into the RHS it passes to AddConstraint).
func evalTerms(row solvermock.Row, values map[solver.Variable]float64) float64 {
	sum := 0.0
	for _, tm := range row.Expr.Terms {
		sum += tm.Coeff * values[tm.Var]
	}
	return sum
}

func rowWithVar(sm *solvermock.Model, v solver.Variable) solvermock.Row {
	for _, row := range sm.Constraints {
		for _, tm := range row.Expr.Terms {
			if tm.Var == v {
				return row
			}
		}
	}
	return solvermock.Row{}
}

func TestAnglesLinearNodalBalanceSatisfiedByHandSolvedDispatch(t *testing.T) {
	net := radialFixture()
	f := &solvermock.Factory{}
	opts := BuildOptions{Formulation: AnglesLinear, InvestmentType: Continuous, Role: Monolithic, Snapshots: AllSnapshots(), Rescale: rescale.Default()}
	m, err := Build(net, f, opts)
	assert.NilError(t, err)
	sm := f.Built[0]

	// The only feasible dispatch: generation covers the load in full,
	// and since there is exactly one path to it, the line carries the
	// same 80 MW.
	g, ln := 80.0, 80.0
	susceptance := 1 / m.Net.XPerUnit(net.Lines[0])
	theta1 := -ln / susceptance // from LN + susceptance*theta1 = 0, theta0 pinned to 0

	values := map[solver.Variable]float64{
		m.G[0][0]:     g,
		m.LN[0][0]:    ln,
		m.Theta[0][0]: 0,
		m.Theta[1][0]: theta1,
	}

	bus0Row := rowWithVar(sm, m.G[0][0])
	assert.Equal(t, bus0Row.RHS, 0.0)
	assert.Equal(t, evalTerms(bus0Row, values), bus0Row.RHS) // G - LN = 0

	angleRow := rowWithVar(sm, m.Theta[1][0]) // theta1 only appears in the angle-law row
	assert.Equal(t, angleRow.RHS, 0.0)
	assert.Equal(t, evalTerms(angleRow, values), angleRow.RHS) // LN - susceptance*(theta0-theta1) = 0

	// bus1's balance row: the other EQ row carrying LN besides bus0's
	// balance and the angle-law row above.
	var busBalance1 solvermock.Row
	for _, row := range sm.Constraints {
		if row.Rel != solver.EQ {
			continue
		}
		hasLN, hasTheta, hasG := false, false, false
		for _, tm := range row.Expr.Terms {
			switch tm.Var {
			case m.LN[0][0]:
				hasLN = true
			case m.Theta[0][0], m.Theta[1][0]:
				hasTheta = true
			case m.G[0][0]:
				hasG = true
			}
		}
		if hasLN && !hasTheta && !hasG {
			busBalance1 = row
		}
	}
	assert.Equal(t, evalTerms(busBalance1, values), busBalance1.RHS) // LN = load
	assert.Equal(t, busBalance1.RHS, 80.0)                           // the load itself
}
