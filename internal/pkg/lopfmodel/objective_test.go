package lopfmodel

import (
	"testing"

	"github.com/ohowland/cgc_lopf/internal/pkg/rescale"
	"github.com/ohowland/cgc_lopf/internal/pkg/solver/solvermock"
	"gotest.tools/v3/assert"
)

func TestBuildObjectiveMonolithicIncludesOperationalAndCapital(t *testing.T) {
	net := twoBusFixture()
	net.Generators[0].PNomExtendable = false
	f := &solvermock.Factory{}
	opts := BuildOptions{Formulation: AnglesLinear, InvestmentType: Continuous, Role: Monolithic, Snapshots: AllSnapshots(), Rescale: rescale.Default()}
	m, err := Build(net, f, opts)
	assert.NilError(t, err)

	sm := f.Built[0]
	sawGen := false
	sawLine := false
	for _, tm := range sm.Objective.Terms {
		if tm.Var == m.G[0][0] {
			sawGen = true
			assert.Equal(t, tm.Coeff, 5.0) // weighting 1 * marginal cost 5
		}
		if len(m.LNSNom) > 0 && tm.Var == m.LNSNom[0] {
			sawLine = true
			assert.Equal(t, tm.Coeff, 10.0) // line CapitalCost, charged on LN_s_nom directly
		}
	}
	assert.Assert(t, sawGen)
	assert.Assert(t, sawLine)
}

func TestBuildObjectiveMasterExcludesOperationalCost(t *testing.T) {
	net := twoBusFixture()
	f := &solvermock.Factory{}
	opts := BuildOptions{Formulation: AnglesLinear, InvestmentType: Continuous, Role: Master, Snapshots: AllSnapshots(), Rescale: rescale.Default(), NGroups: 1}
	m, err := Build(net, f, opts)
	assert.NilError(t, err)

	sm := f.Built[0]
	assert.Equal(t, len(m.G), 0) // no operation variables built for master at all
	sawAlpha := false
	sawLine := false
	for _, tm := range sm.Objective.Terms {
		if tm.Var == m.Alpha[0] {
			sawAlpha = true
			assert.Equal(t, tm.Coeff, 1.0)
		}
		if tm.Var == m.LNSNom[0] {
			sawLine = true
		}
	}
	assert.Assert(t, sawAlpha)
	assert.Assert(t, sawLine)
}

func TestBuildObjectiveSlaveExcludesCapitalAndAlpha(t *testing.T) {
	net := twoBusFixture()
	f := &solvermock.Factory{}
	opts := BuildOptions{Formulation: AnglesLinear, InvestmentType: Continuous, Role: Slave, Snapshots: AllSnapshots(), Rescale: rescale.Default(), NGroups: 1}
	m, err := Build(net, f, opts)
	assert.NilError(t, err)

	sm := f.Built[0]
	assert.Equal(t, len(m.LNInv), 0) // slave never builds investment variables
	sawGen := false
	for _, tm := range sm.Objective.Terms {
		if tm.Var == m.G[0][0] {
			sawGen = true
		}
	}
	assert.Assert(t, sawGen)
	assert.Equal(t, len(sm.Objective.Terms) > 0, true)
}

func TestBuildObjectiveIntegerBigMIncludesPerCandidateCapitalCost(t *testing.T) {
	net := twoBusFixture() // SNom=100, SNomMax=300, NumParallel=1 -> candidates {0,1,2}
	f := &solvermock.Factory{}
	opts := BuildOptions{Formulation: AnglesLinearIntegerBigM, InvestmentType: IntegerBigM, Role: Monolithic, Snapshots: AllSnapshots(), Rescale: rescale.Default(), BigM: 1e6}
	m, err := Build(net, f, opts)
	assert.NilError(t, err)

	sm := f.Built[0]
	assert.Equal(t, len(m.LNOpt[0]), 3)
	found := 0
	for c, opt := range m.LNOpt[0] {
		for _, tm := range sm.Objective.Terms {
			if tm.Var == opt {
				found++
				expected := float64(c) * net.Lines[0].CapitalCost * net.Lines[0].SNom / net.Lines[0].NumParallel
				assert.Equal(t, tm.Coeff, expected)
			}
		}
	}
	assert.Assert(t, found > 0)
}
