// Package lopf is the monolithic LOPF runner (spec §4.5): build one
// Model across the whole snapshot horizon, solve it, and write the
// optimized capacities, dispatches and marginal prices back into the
// Network.
//
// Grounded on the teacher's internal/pkg/dispatch/lpdispatch package,
// which wraps build-then-solve around an external LP/MIP handle the
// same way; this package keeps that shape but drops the actor/pubsub
// plumbing lpdispatch used to receive live status, since a LOPF run is
// a single batch solve over a Network value, not a running process.
package lopf

import (
	"fmt"
	"log"

	"github.com/ohowland/cgc_lopf/internal/pkg/lopfmodel"
	"github.com/ohowland/cgc_lopf/internal/pkg/network"
	"github.com/ohowland/cgc_lopf/internal/pkg/solver"
)

// Result is the outcome of a monolithic solve.
type Result struct {
	Status    solver.Status
	Objective float64
}

// Run builds a Monolithic Model over the whole snapshot horizon,
// solves it, and writes results back into net (spec §4.5: "write back
// LN_s_nom (as s_nom_opt), P_nom values, flows, dispatches, SOCs, and
// marginal prices").
func Run(net *network.Network, factory solver.Factory, opts lopfmodel.BuildOptions) (Result, error) {
	opts.Role = lopfmodel.Monolithic
	opts.Snapshots = lopfmodel.AllSnapshots()

	m, err := lopfmodel.Build(*net, factory, opts)
	if err != nil {
		return Result{}, err
	}

	status, err := m.Solver.Solve()
	if err != nil {
		return Result{}, fmt.Errorf("lopf: solve: %w", err)
	}
	log.Printf("[LOPF] monolithic solve status=%s", status)
	if status != solver.Optimal {
		return Result{Status: status}, nil
	}

	writeBack(m, net)
	return Result{Status: status, Objective: m.Solver.ObjectiveValue()}, nil
}

// writeBack copies optimized investment and operation values from the
// assembled Model back into net, matching assets by ID: extendable
// assets get their *NomOpt field (fixed assets' *NomOpt is left as
// is), every asset gets its per-snapshot dispatch/flow/SOC/spill
// series, and every bus its marginal prices.
func writeBack(m *lopfmodel.Model, net *network.Network) {
	snaps := m.Opts.Snapshots.Indices(*net)

	for idx, v := range m.GPNom {
		gi := m.GenPart.NumFixed + idx
		net.Generators[indexOf(net.Generators, m.Gens[gi].ID)].PNomOpt = m.Solver.Value(v)
	}
	for idx, v := range m.LKPNom {
		ki := m.LinkPart.NumFixed + idx
		net.Links[indexOfLink(net.Links, m.Links[ki].ID)].PNomOpt = m.Solver.Value(v)
	}
	for idx, v := range m.LNSNom {
		li := m.LinePart.NumFixed + idx
		net.Lines[indexOfLine(net.Lines, m.Lines[li].ID)].SNomOpt = m.Solver.Value(v)
	}
	for idx, v := range m.SUPNom {
		ui := m.SUPart.NumFixed + idx
		net.Storage[indexOfSU(net.Storage, m.SUs[ui].ID)].PNomOpt = m.Solver.Value(v)
	}
	for idx, v := range m.STENom {
		sti := m.STPart.NumFixed + idx
		net.Stores[indexOfST(net.Stores, m.STs[sti].ID)].ENomOpt = m.Solver.Value(v)
	}

	for gi, g := range m.Gens {
		series := make([]float64, len(snaps))
		for si := range snaps {
			series[si] = m.Solver.Value(m.G[gi][si])
		}
		net.Generators[indexOf(net.Generators, g.ID)].DispatchSeries = series
	}
	for li, l := range m.Lines {
		series := make([]float64, len(snaps))
		for si := range snaps {
			series[si] = m.Solver.Value(m.LN[li][si])
		}
		net.Lines[indexOfLine(net.Lines, l.ID)].FlowSeries = series
	}
	for ki, l := range m.Links {
		series := make([]float64, len(snaps))
		for si := range snaps {
			series[si] = m.Solver.Value(m.LK[ki][si])
		}
		net.Links[indexOfLink(net.Links, l.ID)].FlowSeries = series
	}
	for ui, u := range m.SUs {
		dispatch, store, soc, spill := make([]float64, len(snaps)), make([]float64, len(snaps)), make([]float64, len(snaps)), make([]float64, len(snaps))
		for si := range snaps {
			vars := m.SU[ui][si]
			dispatch[si], store[si], soc[si], spill[si] = m.Solver.Value(vars.Dispatch), m.Solver.Value(vars.Store), m.Solver.Value(vars.SOC), m.Solver.Value(vars.Spill)
		}
		i := indexOfSU(net.Storage, u.ID)
		net.Storage[i].DispatchSeries, net.Storage[i].StoreSeries, net.Storage[i].SOCSeries, net.Storage[i].SpillSeries = dispatch, store, soc, spill
	}
	for sti, s := range m.STs {
		dispatch, store, soc, spill := make([]float64, len(snaps)), make([]float64, len(snaps)), make([]float64, len(snaps)), make([]float64, len(snaps))
		for si := range snaps {
			vars := m.ST[sti][si]
			dispatch[si], store[si], soc[si], spill[si] = m.Solver.Value(vars.Dispatch), m.Solver.Value(vars.Store), m.Solver.Value(vars.SOC), m.Solver.Value(vars.Spill)
		}
		i := indexOfST(net.Stores, s.ID)
		net.Stores[i].DispatchSeries, net.Stores[i].StoreSeries, net.Stores[i].SOCSeries, net.Stores[i].SpillSeries = dispatch, store, soc, spill
	}

	prices := make([][]float64, len(net.Buses))
	for bi := range net.Buses {
		prices[bi] = make([]float64, len(net.Snapshots))
	}
	for _, nb := range m.NodalBalances {
		if nb.Bus < 0 || nb.Snapshot >= len(net.Snapshots) {
			continue
		}
		prices[nb.Bus][nb.Snapshot] = m.Solver.Dual(nb.Handle)
	}
	for bi := range net.Buses {
		net.Buses[bi].MarginalPrice = prices[bi]
	}
}

func indexOf(gens []network.Generator, id string) int {
	for i, g := range gens {
		if g.ID == id {
			return i
		}
	}
	return -1
}

func indexOfLine(lines []network.Line, id string) int {
	for i, l := range lines {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func indexOfLink(links []network.Link, id string) int {
	for i, l := range links {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func indexOfSU(sus []network.StorageUnit, id string) int {
	for i, u := range sus {
		if u.ID == id {
			return i
		}
	}
	return -1
}

func indexOfST(sts []network.Store, id string) int {
	for i, s := range sts {
		if s.ID == id {
			return i
		}
	}
	return -1
}
