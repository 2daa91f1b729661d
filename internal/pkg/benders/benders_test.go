package benders

import (
	"testing"

	"github.com/ohowland/cgc_lopf/internal/pkg/lopfmodel"
	"github.com/ohowland/cgc_lopf/internal/pkg/network"
	"github.com/ohowland/cgc_lopf/internal/pkg/rescale"
	"github.com/ohowland/cgc_lopf/internal/pkg/solver"
	"github.com/ohowland/cgc_lopf/internal/pkg/solver/solvermock"
	"gotest.tools/v3/assert"
)

// twoBusFixture mirrors lopfmodel's own fixture: a fixed generator, an
// extendable generator and an extendable line, over two snapshots, so
// both a CoupledGPNom and a CoupledLNSNom constraint get built.
func twoBusFixture() network.Network {
	return network.Network{
		Buses: []network.Bus{{ID: "b0", VNom: 1}, {ID: "b1", VNom: 1}},
		Lines: []network.Line{{
			ID: "L0", Bus0: "b0", Bus1: "b1", X: 0.1,
			SNom: 100, SNomMax: 300, SNomExtendable: true, NumParallel: 1, SMaxPU: 1, CapitalCost: 10,
		}},
		Generators: []network.Generator{
			{ID: "G0", Bus: "b0", PNom: 200, PMaxPU: 1, MarginalCost: 5},
			{ID: "G1", Bus: "b0", PNomExtendable: true, PNomMax: 500, PMaxPU: 1, MarginalCost: 8, CapitalCost: 3},
		},
		Loads:     []network.Load{{ID: "load1", Bus: "b1", P: []float64{50, 80}}},
		Snapshots: []network.Snapshot{{Index: 0, Weighting: 1}, {Index: 1, Weighting: 1}},
		SBase:     1,
	}
}

func TestNewBuildsMasterAndSlave(t *testing.T) {
	net := twoBusFixture()
	f := &solvermock.Factory{}
	opts := lopfmodel.BuildOptions{Formulation: lopfmodel.AnglesLinear, InvestmentType: lopfmodel.Continuous, Rescale: rescale.Default()}

	d, err := New(&net, f, opts, Options{})
	assert.NilError(t, err)
	assert.Assert(t, d.Master != nil)
	assert.Equal(t, len(d.Slaves), 1)
	assert.Equal(t, len(d.Master.Alpha), 1) // default: one ALPHA group, no individualcuts
	assert.Assert(t, len(d.Slaves[0].Coupled) > 0)
}

func TestNewSplitSubproblemsBuildsOneSlavePerSnapshot(t *testing.T) {
	net := twoBusFixture()
	f := &solvermock.Factory{}
	opts := lopfmodel.BuildOptions{Formulation: lopfmodel.AnglesLinear, InvestmentType: lopfmodel.Continuous, Rescale: rescale.Default()}

	d, err := New(&net, f, opts, Options{SplitSubproblems: true, IndividualCuts: true})
	assert.NilError(t, err)
	assert.Equal(t, len(d.Slaves), 2)
	assert.Equal(t, len(d.Master.Alpha), 2)
}

func TestMasterVariableResolvesFamilies(t *testing.T) {
	net := twoBusFixture()
	f := &solvermock.Factory{}
	opts := lopfmodel.BuildOptions{Formulation: lopfmodel.AnglesLinear, InvestmentType: lopfmodel.Continuous, Rescale: rescale.Default()}
	d, err := New(&net, f, opts, Options{})
	assert.NilError(t, err)

	gVar := d.masterVariable(lopfmodel.CoupledGPNom, 0)
	assert.Equal(t, gVar, d.Master.GPNom[0])
	lVar := d.masterVariable(lopfmodel.CoupledLNSNom, 0)
	assert.Equal(t, lVar, d.Master.LNSNom[0])
}

func TestPushMasterValuesSetsSlaveRHS(t *testing.T) {
	net := twoBusFixture()
	f := &solvermock.Factory{}
	opts := lopfmodel.BuildOptions{Formulation: lopfmodel.AnglesLinear, InvestmentType: lopfmodel.Continuous, Rescale: rescale.Default()}
	d, err := New(&net, f, opts, Options{})
	assert.NilError(t, err)

	masterMock := f.Built[0]
	masterMock.SetValue(d.Master.GPNom[0], 123)

	d.pushMasterValues()

	slaveMock := f.Built[1]
	found := false
	for _, c := range d.Slaves[0].Coupled {
		if c.Family == lopfmodel.CoupledGPNom {
			found = true
			expected := c.Coefficient * 123
			if c.Rescale != 0 {
				expected *= c.Rescale
			}
			got := slaveMock.Constraints[int(c.Handle)].RHS
			assert.Assert(t, abs(got-expected) < 1e-6 || abs(got) < 1e-4 && abs(expected) < 1e-4)
		}
	}
	assert.Assert(t, found)
}

func TestRunConvergesWhenGapWithinTolerance(t *testing.T) {
	net := twoBusFixture()
	f := &solvermock.Factory{}
	opts := lopfmodel.BuildOptions{Formulation: lopfmodel.AnglesLinear, InvestmentType: lopfmodel.Continuous, Rescale: rescale.Default()}
	d, err := New(&net, f, opts, Options{Tolerance: 1})
	assert.NilError(t, err)

	masterMock := f.Built[0]
	slaveMock := f.Built[1]
	slaveMock.SetObjectiveValue(100)
	masterMock.SetValue(d.Master.Alpha[0], 100) // alpha already tracks the slave cost, so the gap is zero

	result, err := d.Run()
	assert.NilError(t, err)
	assert.Equal(t, result.Status, solver.Optimal)
	assert.Equal(t, result.Iterations, 1)
	assert.Equal(t, masterMock.SolveStatus, solver.Optimal)
}

func TestRunStopsOnMasterInfeasible(t *testing.T) {
	net := twoBusFixture()
	f := &solvermock.Factory{}
	opts := lopfmodel.BuildOptions{Formulation: lopfmodel.AnglesLinear, InvestmentType: lopfmodel.Continuous, Rescale: rescale.Default()}
	d, err := New(&net, f, opts, Options{})
	assert.NilError(t, err)

	f.Built[0].SolveStatus = solver.Infeasible

	result, err := d.Run()
	assert.NilError(t, err)
	assert.Equal(t, result.Status, solver.Infeasible)
	assert.Equal(t, result.Iterations, 1)
}

func TestAddFeasibilityCutAddsConstraintWhenRayNonzero(t *testing.T) {
	net := twoBusFixture()
	f := &solvermock.Factory{}
	opts := lopfmodel.BuildOptions{Formulation: lopfmodel.AnglesLinear, InvestmentType: lopfmodel.Continuous, Rescale: rescale.Default()}
	d, err := New(&net, f, opts, Options{})
	assert.NilError(t, err)

	slaveMock := f.Built[1]
	slave := d.Slaves[0]
	before := len(f.Built[0].Constraints)
	for _, c := range slave.Coupled {
		slaveMock.SetDual(c.Handle, 1)
	}

	d.addFeasibilityCut(0, slave)

	after := len(f.Built[0].Constraints)
	assert.Assert(t, after > before)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
