package network

import (
	"testing"

	"gotest.tools/v3/assert"
)

// triangleFixture is a 3-bus meshed network: bus0-bus1, bus1-bus2,
// bus0-bus2, the minimal topology with exactly one fundamental cycle.
func triangleFixture() ([]Line, map[string]int) {
	lines := []Line{
		{ID: "L0", Bus0: "b0", Bus1: "b1", X: 0.1},
		{ID: "L1", Bus0: "b1", Bus1: "b2", X: 0.1},
		{ID: "L2", Bus0: "b0", Bus1: "b2", X: 0.1},
	}
	busIdx := map[string]int{"b0": 0, "b1": 1, "b2": 2}
	return lines, busIdx
}

func TestFundamentalCyclesMeshedTriangle(t *testing.T) {
	lines, busIdx := triangleFixture()
	cycles := FundamentalCycles(3, lines, busIdx)

	assert.Equal(t, len(cycles), 1)
	assert.Equal(t, len(cycles[0].Lines), 3)
	assert.Equal(t, len(cycles[0].Directions), len(cycles[0].Lines))
}

func TestFundamentalCyclesRadialHasNone(t *testing.T) {
	lines := []Line{
		{ID: "L0", Bus0: "b0", Bus1: "b1", X: 0.1},
		{ID: "L1", Bus0: "b1", Bus1: "b2", X: 0.1},
	}
	busIdx := map[string]int{"b0": 0, "b1": 1, "b2": 2}

	cycles := FundamentalCycles(3, lines, busIdx)
	assert.Equal(t, len(cycles), 0)
}
