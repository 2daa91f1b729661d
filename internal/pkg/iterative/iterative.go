// Package iterative implements spec §4.6's fixed-point reactance-update
// loop: the monolithic/Benders linear solve takes line reactance as
// data, but reactance should fall as installed capacity grows, so this
// package re-solves repeatedly, updating x from the previous solve's
// s_nom_opt until the objective stops moving or the iteration budget
// runs out.
package iterative

import (
	"log"
	"math"
	"sort"

	"github.com/ohowland/cgc_lopf/internal/pkg/lopf"
	"github.com/ohowland/cgc_lopf/internal/pkg/lopfmodel"
	"github.com/ohowland/cgc_lopf/internal/pkg/network"
	"github.com/ohowland/cgc_lopf/internal/pkg/solver"
)

// Options parameterizes the loop (spec §6 Iterative options).
type Options struct {
	Iterations                int
	SeqDiscretization         bool
	SeqDiscretizationThreshold float64 // default 0.3
	PostDiscretization        bool
	DiscretizationThresholds  []float64 // default [0.2, 0.3]
	Rescale                   bool
}

// Trace records one solve's iteration number, objective and status.
// Line capacities and reactances are not recorded per iteration; only
// their values after the last update remain, on the network itself.
type Trace struct {
	Iteration int
	Objective float64
	Status    solver.Status
}

// Result is the final solved state plus the per-iteration trace.
type Result struct {
	Traces []Trace
	Final  lopf.Result
}

// baseline snapshots the per-line quantities the fixed-point loop
// needs to restore or compute deltas against (spec §4.6 step 1).
type baseline struct {
	x           []float64
	sNom        []float64
	numParallel []float64
}

func snapshotBaseline(net *network.Network) baseline {
	b := baseline{x: make([]float64, len(net.Lines)), sNom: make([]float64, len(net.Lines)), numParallel: make([]float64, len(net.Lines))}
	for i, l := range net.Lines {
		b.x[i], b.sNom[i], b.numParallel[i] = l.X, l.SNom, l.NumParallel
	}
	return b
}

// Run executes the fixed-point loop over net using solve for each
// iteration's linear program (monolithic or Benders, per spec §4.6:
// "Solve LOPF (monolithic or Benders)").
func Run(net *network.Network, factory solver.Factory, opts lopfmodel.BuildOptions, iterOpts Options, solve func(*network.Network, solver.Factory, lopfmodel.BuildOptions) (lopf.Result, error)) (Result, error) {
	base := snapshotBaseline(net)
	iterations := iterOpts.Iterations
	if iterations <= 0 {
		iterations = 1
	}

	var traces []Trace
	var prevObjective float64
	var last lopf.Result

	for k := 1; k <= iterations; k++ {
		res, err := solve(net, factory, opts)
		if err != nil {
			return Result{}, err
		}
		traces = append(traces, Trace{Iteration: k, Objective: res.Objective, Status: res.Status})
		log.Printf("[Iterative] k=%d status=%s objective=%.4f", k, res.Status, res.Objective)
		last = res

		if res.Status != solver.Optimal {
			break
		}
		if k > 1 && math.Abs(res.Objective-prevObjective) <= 1 {
			break
		}
		prevObjective = res.Objective

		updateReactances(net, base, iterOpts)
	}

	result := Result{Traces: traces, Final: last}
	if iterOpts.PostDiscretization {
		if err := postDiscretize(net, factory, opts, iterOpts, solve, &result); err != nil {
			return result, err
		}
	}
	return result, nil
}

// updateReactances applies spec §4.6 step 2's per-line rule after a
// solve: zero optimal capacity collapses x to the numerical sentinel;
// sequential discretization rounds the parallel-circuit count at the
// configured threshold; otherwise x scales inversely with the
// continuous capacity ratio.
func updateReactances(net *network.Network, base baseline, opts Options) {
	threshold := opts.SeqDiscretizationThreshold
	if threshold == 0 {
		threshold = 0.3
	}
	for i := range net.Lines {
		l := &net.Lines[i]
		if !l.SNomExtendable {
			continue
		}
		switch {
		case l.SNomOpt == 0:
			l.X = network.ReactanceSentinel
		case opts.SeqDiscretization:
			extension := (l.SNomOpt/base.sNom[i] - 1) * base.numParallel[i]
			rounded := roundAtThreshold(extension, threshold)
			l.NumParallel = rounded + base.numParallel[i]
			l.X = base.x[i] * base.numParallel[i] / l.NumParallel
		default:
			l.X = base.x[i] * base.sNom[i] / l.SNomOpt
		}
	}
}

// roundAtThreshold rounds v to the nearest integer, except that the
// fractional part must clear threshold to round up rather than down
// (spec §4.6 step 2: "round ... at threshold τ").
func roundAtThreshold(v, threshold float64) float64 {
	floor := math.Floor(v)
	frac := v - floor
	if frac >= threshold {
		return floor + 1
	}
	return floor
}

// postDiscretize sweeps the configured thresholds, rounds extendable
// line capacity at each, re-solves with that capacity fixed, and
// keeps whichever threshold produced the lowest objective, restoring
// the original extendability flags afterward (spec §4.6 step 3).
func postDiscretize(net *network.Network, factory solver.Factory, opts lopfmodel.BuildOptions, iterOpts Options, solve func(*network.Network, solver.Factory, lopfmodel.BuildOptions) (lopf.Result, error), result *Result) error {
	thresholds := iterOpts.DiscretizationThresholds
	if len(thresholds) == 0 {
		thresholds = []float64{0.2, 0.3}
	}
	sorted := append([]float64(nil), thresholds...)
	sort.Float64s(sorted)

	origExtendable := make([]bool, len(net.Lines))
	sNomContinuous := make([]float64, len(net.Lines))
	for i, l := range net.Lines {
		origExtendable[i] = l.SNomExtendable
		sNomContinuous[i] = l.SNomOpt
	}

	bestObjective := math.Inf(1)
	var bestSNom []float64
	for _, tau := range sorted {
		roundLineExtension(net, sNomContinuous, tau)
		for i := range net.Lines {
			net.Lines[i].SNomExtendable = false
		}
		res, err := solve(net, factory, opts)
		if err != nil {
			return err
		}
		log.Printf("[Iterative] post-discretization tau=%.3f objective=%.4f status=%s", tau, res.Objective, res.Status)
		if res.Status == solver.Optimal && res.Objective < bestObjective {
			bestObjective = res.Objective
			bestSNom = make([]float64, len(net.Lines))
			for i, l := range net.Lines {
				bestSNom[i] = l.SNom
			}
			result.Final = res
		}
		for i := range net.Lines {
			net.Lines[i].SNomExtendable = origExtendable[i]
		}
	}

	if bestSNom != nil {
		for i := range net.Lines {
			net.Lines[i].SNom = bestSNom[i]
		}
	}
	return nil
}

// roundLineExtension rounds each extendable line's continuous optimal
// capacity to the nearest integer-parallel-circuit count at threshold
// tau and writes the result into SNom (spec §4.6 step 3
// round_line_extension!(τ)).
func roundLineExtension(net *network.Network, sNomContinuous []float64, tau float64) {
	for i := range net.Lines {
		l := &net.Lines[i]
		if !l.SNomExtendable || sNomContinuous[i] == 0 {
			continue
		}
		perParallel := l.SNom
		if l.NumParallel > 0 {
			perParallel = l.SNom / l.NumParallel
		}
		if perParallel <= 0 {
			continue
		}
		extension := (sNomContinuous[i]/l.SNom - 1) * l.NumParallel
		rounded := roundAtThreshold(extension, tau)
		l.NumParallel = rounded + l.NumParallel
		l.SNom = perParallel * l.NumParallel
	}
}
