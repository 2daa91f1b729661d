package network

import (
	"math"
	"testing"

	"gotest.tools/v3/assert"
)

func twoBusFixture() Network {
	return Network{
		Buses: []Bus{{ID: "b0", VNom: 1}, {ID: "b1", VNom: 1}},
		Lines: []Line{{ID: "L0", Bus0: "b0", Bus1: "b1", X: 0.1, SNom: 100}},
		SBase: 1,
	}
}

func TestXPerUnit(t *testing.T) {
	net := twoBusFixture()
	xpu := net.XPerUnit(net.Lines[0])
	assert.Equal(t, xpu, 0.1) // VNom=1, SBase=1 => x_pu == x
}

func TestComputePTDFTwoBus(t *testing.T) {
	net := twoBusFixture()
	res := ComputePTDF(net)

	// A single line between the slack (bus0) and one other bus carries
	// the full injection at that bus: |PTDF[line, bus1]| == 1.
	assert.Assert(t, math.Abs(math.Abs(res.Matrix.At(0, 1))-1) < 1e-9)
	assert.Assert(t, res.Fingerprint != "")
}

func TestLineExtensionCandidatesBounded(t *testing.T) {
	l := Line{SNom: 100, SNomMax: 300, NumParallel: 1}
	candidates := LineExtensionCandidates(l)
	assert.Equal(t, len(candidates), 3) // 0, 1, 2 additional circuits
	assert.Equal(t, candidates[0], 0)
	assert.Equal(t, candidates[2], 2)
}

func TestLineExtensionCandidatesNoParallelData(t *testing.T) {
	l := Line{SNom: 100, SNomMax: 0}
	candidates := LineExtensionCandidates(l)
	assert.Equal(t, len(candidates), 1)
	assert.Equal(t, candidates[0], 0)
}

func TestFingerprintStableAcrossCalls(t *testing.T) {
	net := twoBusFixture()
	busIdx := net.BusIndex()
	assert.Equal(t, fingerprint(net, busIdx), fingerprint(net, busIdx))
}
