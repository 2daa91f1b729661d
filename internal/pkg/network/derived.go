package network

import (
	"math"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// sBase returns the network's MVA base, defaulting to 1.0 when unset.
func (n Network) sBase() float64 {
	if n.SBase == 0 {
		return 1.0
	}
	return n.SBase
}

// XPerUnit returns the per-unit reactance of line l: x_pu = x / (v_nom^2 / s_base).
func (n Network) XPerUnit(l Line) float64 {
	bus, ok := n.busByID(l.Bus0)
	if !ok || bus.VNom == 0 {
		return l.X
	}
	return l.X / (bus.VNom * bus.VNom / n.sBase())
}

func (n Network) busByID(id string) (Bus, bool) {
	for _, b := range n.Buses {
		if b.ID == id {
			return b, true
		}
	}
	return Bus{}, false
}

// ReactanceSentinel is the numerical stand-in for infinite reactance
// used when an extendable line's optimal capacity is zero (spec §4.6,
// §7 NumericalWarning) instead of propagating +Inf into the next
// linear solve.
const ReactanceSentinel = 1e7

// LineExtensionCandidates returns, for an extendable line under
// integer_bigm investment, the ordered set {0, 1, ..., C} of integer
// parallel-circuit additions bounded by SNomMax/s_nom_per_parallel
// (spec §4.1). s_nom_per_parallel is SNom/NumParallel for the line (the
// per-circuit rating), or SNom itself if NumParallel is zero.
func LineExtensionCandidates(l Line) []int {
	perParallel := l.SNom
	if l.NumParallel > 0 {
		perParallel = l.SNom / l.NumParallel
	}
	if perParallel <= 0 {
		return []int{0}
	}
	maxAdditional := l.SNomMax/perParallel - l.NumParallel
	c := int(math.Floor(maxAdditional + 1e-9))
	if c < 0 {
		c = 0
	}
	candidates := make([]int, c+1)
	for i := range candidates {
		candidates[i] = i
	}
	return candidates
}

// PTDFResult is a Power Transfer Distribution Factor matrix together
// with a fingerprint of the inputs it was computed from (bus order,
// line endpoints, x_pu vector). ComputePTDF recomputes the matrix on
// every call; nothing caches results or compares fingerprints.
type PTDFResult struct {
	Matrix      *mat.Dense // L x N
	Fingerprint string
}

// ComputePTDF builds PTDF[l,n] = (B_line . B_bus^+)[l,n] using line
// reactances and a slack bus at index 0 (spec §4.1).
func ComputePTDF(n Network) PTDFResult {
	busIdx := n.BusIndex()
	numBuses := len(n.Buses)
	numLines := len(n.Lines)

	// Incidence: Inc[l][bus0] = 1, Inc[l][bus1] = -1.
	incidence := mat.NewDense(numLines, numBuses, nil)
	bSusceptance := make([]float64, numLines)
	for li, l := range n.Lines {
		b0, ok0 := busIdx[l.Bus0]
		b1, ok1 := busIdx[l.Bus1]
		if !ok0 || !ok1 {
			continue
		}
		incidence.Set(li, b0, 1)
		incidence.Set(li, b1, -1)
		xpu := n.XPerUnit(l)
		if xpu == 0 {
			xpu = ReactanceSentinel
		}
		bSusceptance[li] = 1.0 / xpu
	}

	// B_line = diag(susceptance) * incidence  (L x N)
	bLine := mat.NewDense(numLines, numBuses, nil)
	for li := 0; li < numLines; li++ {
		for nn := 0; nn < numBuses; nn++ {
			bLine.Set(li, nn, bSusceptance[li]*incidence.At(li, nn))
		}
	}

	// Nodal susceptance matrix B_bus = Inc^T * diag(susceptance) * Inc, slack row/col zeroed.
	bBus := mat.NewDense(numBuses, numBuses, nil)
	bBus.Mul(incidence.T(), bLine)
	const slack = 0
	if numBuses > 0 {
		for i := 0; i < numBuses; i++ {
			bBus.Set(slack, i, 0)
			bBus.Set(i, slack, 0)
		}
		bBus.Set(slack, slack, 1)
	}

	var bBusPinv mat.Dense
	if err := bBusPinv.Inverse(bBus); err != nil {
		// Singular (e.g. meshless or disconnected network): fall back
		// to a zero sensitivity matrix rather than propagate NaNs.
		bBusPinv = *mat.NewDense(numBuses, numBuses, nil)
	}
	if numBuses > 0 {
		for i := 0; i < numBuses; i++ {
			bBusPinv.Set(slack, i, 0)
			bBusPinv.Set(i, slack, 0)
		}
	}

	ptdf := mat.NewDense(numLines, numBuses, nil)
	ptdf.Mul(bLine, &bBusPinv)

	return PTDFResult{Matrix: ptdf, Fingerprint: fingerprint(n, busIdx)}
}

func fingerprint(n Network, busIdx map[string]int) string {
	var h uint64 = 14695981039346656037 // FNV-1a offset basis
	mix := func(x uint64) {
		h ^= x
		h *= 1099511628211
	}
	for _, b := range n.Buses {
		for _, c := range b.ID {
			mix(uint64(c))
		}
	}
	for _, l := range n.Lines {
		mix(uint64(busIdx[l.Bus0]))
		mix(uint64(busIdx[l.Bus1]))
		mix(math.Float64bits(n.XPerUnit(l)))
	}
	return strconv.FormatUint(h, 16)
}
