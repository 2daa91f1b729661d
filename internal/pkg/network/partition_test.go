package network

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestPartitionLinesFixedFirst(t *testing.T) {
	lines := []Line{
		{ID: "L0", SNomExtendable: true},
		{ID: "L1", SNomExtendable: false},
		{ID: "L2", SNomExtendable: false},
		{ID: "L3", SNomExtendable: true},
	}
	p, out := PartitionLines(lines)

	assert.Equal(t, p.NumFixed, 2)
	assert.Equal(t, p.NumExt, 2)
	assert.Equal(t, out[0].ID, "L1")
	assert.Equal(t, out[1].ID, "L2")
	assert.Equal(t, out[2].ID, "L0")
	assert.Equal(t, out[3].ID, "L3")
}

func TestPartitionPreservesRelativeOrder(t *testing.T) {
	gens := []Generator{
		{ID: "G0", PNomExtendable: false},
		{ID: "G1", PNomExtendable: true},
		{ID: "G2", PNomExtendable: false},
		{ID: "G3", PNomExtendable: true},
	}
	_, out := PartitionGenerators(gens)
	assert.Equal(t, out[0].ID, "G0")
	assert.Equal(t, out[1].ID, "G2")
	assert.Equal(t, out[2].ID, "G1")
	assert.Equal(t, out[3].ID, "G3")
}

func TestPartitionAllFixed(t *testing.T) {
	stores := []Store{{ID: "S0"}, {ID: "S1"}}
	p, out := PartitionStores(stores)
	assert.Equal(t, p.NumFixed, 2)
	assert.Equal(t, p.NumExt, 0)
	assert.Equal(t, len(p.Extendable()), 0)
	assert.Equal(t, len(out), 2)
}
