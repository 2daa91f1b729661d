package iterative

import (
	"testing"

	"github.com/ohowland/cgc_lopf/internal/pkg/lopf"
	"github.com/ohowland/cgc_lopf/internal/pkg/lopfmodel"
	"github.com/ohowland/cgc_lopf/internal/pkg/network"
	"github.com/ohowland/cgc_lopf/internal/pkg/solver"
	"gotest.tools/v3/assert"
)

func TestRoundAtThreshold(t *testing.T) {
	assert.Equal(t, roundAtThreshold(1.2, 0.3), 1.0)
	assert.Equal(t, roundAtThreshold(1.35, 0.3), 2.0)
	assert.Equal(t, roundAtThreshold(1.3, 0.3), 2.0) // >= threshold rounds up
}

func TestUpdateReactancesZeroCapacitySetsSentinel(t *testing.T) {
	net := &network.Network{Lines: []network.Line{{ID: "L0", X: 0.1, SNom: 100, SNomExtendable: true, SNomOpt: 0}}}
	base := snapshotBaseline(net)
	updateReactances(net, base, Options{})
	assert.Equal(t, net.Lines[0].X, network.ReactanceSentinel)
}

func TestUpdateReactancesScalesWithCapacity(t *testing.T) {
	net := &network.Network{Lines: []network.Line{{ID: "L0", X: 0.2, SNom: 100, SNomExtendable: true, SNomOpt: 200}}}
	base := snapshotBaseline(net)
	updateReactances(net, base, Options{})
	assert.Equal(t, net.Lines[0].X, 0.1) // doubled capacity halves reactance
}

func TestRunStopsOnConvergedObjective(t *testing.T) {
	net := &network.Network{Lines: []network.Line{{ID: "L0", X: 0.1, SNom: 100}}}
	calls := 0
	solve := func(n *network.Network, f solver.Factory, opts lopfmodel.BuildOptions) (lopf.Result, error) {
		calls++
		return lopf.Result{Status: solver.Optimal, Objective: 42.0}, nil
	}

	result, err := Run(net, nil, lopfmodel.BuildOptions{}, Options{Iterations: 10}, solve)
	assert.NilError(t, err)
	assert.Equal(t, calls, 2) // converges after the second identical objective
	assert.Equal(t, len(result.Traces), 2)
}

func TestRunStopsOnInfeasible(t *testing.T) {
	net := &network.Network{}
	calls := 0
	solve := func(n *network.Network, f solver.Factory, opts lopfmodel.BuildOptions) (lopf.Result, error) {
		calls++
		return lopf.Result{Status: solver.Infeasible}, nil
	}

	result, err := Run(net, nil, lopfmodel.BuildOptions{}, Options{Iterations: 5}, solve)
	assert.NilError(t, err)
	assert.Equal(t, calls, 1)
	assert.Equal(t, result.Final.Status, solver.Infeasible)
}
