package lopfmodel

import (
	"testing"

	"github.com/ohowland/cgc_lopf/internal/pkg/network"
	"github.com/ohowland/cgc_lopf/internal/pkg/rescale"
	"github.com/ohowland/cgc_lopf/internal/pkg/solver"
	"github.com/ohowland/cgc_lopf/internal/pkg/solver/solvermock"
	"gotest.tools/v3/assert"
)

// globalsFixture is a single bus with one thermal and one zero-carbon
// fixed generator plus one extendable zero-carbon generator, one load,
// two weighted snapshots, and one fixed line left unused by the global
// constraints under test.
func globalsFixture() network.Network {
	return network.Network{
		Buses: []network.Bus{{ID: "b0", VNom: 1}},
		Lines: []network.Line{{ID: "L0", Bus0: "b0", Bus1: "b0", X: 0.1, SNom: 50, Length: 10, SMaxPU: 1}},
		Generators: []network.Generator{
			{ID: "Gcoal", Bus: "b0", PNom: 100, PMaxPU: 1, MarginalCost: 20, Carrier: "coal"},
			{ID: "Gwind", Bus: "b0", PNom: 40, PMaxPU: 0.5, MarginalCost: 0, Carrier: "wind"},
			{ID: "Gwind2", Bus: "b0", PNomExtendable: true, PNomMax: 200, PMaxPU: 0.5, MarginalCost: 0, Carrier: "wind"},
		},
		Loads:     []network.Load{{ID: "load1", Bus: "b0", P: []float64{60, 90}}},
		Carriers:  []network.Carrier{{Name: "coal", CO2Emissions: 0.9}, {Name: "wind", CO2Emissions: 0}},
		Snapshots: []network.Snapshot{{Index: 0, Weighting: 2}, {Index: 1, Weighting: 3}},
		SBase:     1,
	}
}

func buildForGlobals(t *testing.T, net network.Network) (*Model, *solvermock.Model) {
	t.Helper()
	f := &solvermock.Factory{}
	opts := BuildOptions{Formulation: AnglesLinear, InvestmentType: Continuous, Role: Monolithic, Snapshots: AllSnapshots(), Rescale: rescale.Default()}
	m, err := Build(net, f, opts)
	assert.NilError(t, err)
	return m, f.Built[0]
}

func TestBuildCO2LimitOnlyCountsEmittingCarriers(t *testing.T) {
	net := globalsFixture()
	net.Globals = []network.GlobalConstraint{{Name: network.CO2Limit, Constant: 500}}
	m, sm := buildForGlobals(t, net)

	before := len(sm.Constraints)
	_ = before
	// buildGlobalConstraints already ran inside Build; find the CO2 row
	// by construction order is brittle, so instead just recompute the
	// coefficients we expect buildCO2Limit to have emitted directly. The
	// CO2 cap is the only <= row carrying coal dispatch (the nodal
	// balance row carrying it is an equality).
	found := false
	for _, row := range sm.Constraints {
		if row.Rel != solver.LE {
			continue
		}
		coalTerm := 0.0
		for _, tm := range row.Expr.Terms {
			if tm.Var == m.G[0][0] {
				coalTerm = tm.Coeff
			}
		}
		if coalTerm != 0 {
			found = true
			assert.Equal(t, coalTerm, 2*0.9) // weighting(0)=2, co2=0.9, efficiency defaults to 1
		}
	}
	assert.Assert(t, found)
}

func TestBuildMWKMLimitUsesBaselineNotRawConstant(t *testing.T) {
	net := globalsFixture()
	net.Lines[0].SNomExtendable = true
	net.Lines[0].SNomMax = 150
	net.Lines[0].CapitalCost = 5
	net.Globals = []network.GlobalConstraint{{Name: network.MWKMLimit, Constant: 2}}
	m, sm := buildForGlobals(t, net)

	assert.Equal(t, len(m.LNSNom), 1)
	var rhs float64
	var found bool
	for _, row := range sm.Constraints {
		if len(row.Expr.Terms) == 1 && row.Expr.Terms[0].Var == m.LNSNom[0] {
			rhs = row.RHS
			found = true
		}
	}
	assert.Assert(t, found)
	// baseline = s_nom*length summed over ALL lines (50*10=500); no fixed
	// lines remain (the only line is extendable) so constant=0.
	assert.Equal(t, rhs, 2.0*500.0-0.0)
}

func TestBuildRESTargetUsesLoadNotGeneration(t *testing.T) {
	net := globalsFixture()
	net.Globals = []network.GlobalConstraint{{Name: network.RESTarget, Constant: 0.4}}
	_, sm := buildForGlobals(t, net)

	// total weighted load = 2*60 + 3*90 = 390; target 0.4 -> rhs 156
	found := false
	for _, row := range sm.Constraints {
		if row.RHS == 0.4*390.0 {
			found = true
		}
	}
	assert.Assert(t, found)
}

func TestBuildApproxRESTargetUsesCapacityNotDispatch(t *testing.T) {
	net := globalsFixture()
	net.Globals = []network.GlobalConstraint{{Name: network.ApproxRESTarget, Constant: 0.5}}
	m, sm := buildForGlobals(t, net)

	// The approx_restarget row is the only one carrying GPNom[0] alone
	// (the dispatch bound rows also carry the dispatch variable).
	found := false
	for _, row := range sm.Constraints {
		if len(row.Expr.Terms) != 1 {
			continue
		}
		for _, tm := range row.Expr.Terms {
			if tm.Var == m.GPNom[0] {
				found = true
				// weighting(0)*pMaxPU(0.5) + weighting(1)*pMaxPU(0.5) = 2*0.5+3*0.5 = 2.5
				assert.Equal(t, tm.Coeff, 2.5)
			}
		}
	}
	assert.Assert(t, found)
}
