package lopfmodel

import (
	"github.com/ohowland/cgc_lopf/internal/pkg/network"
	"github.com/ohowland/cgc_lopf/internal/pkg/solver"
)

// buildGlobalConstraints emits spec §4.4.5's system-wide policy
// constraints for whichever of co2_limit, mwkm_limit, restarget and
// approx_restarget are present on the network. Only built when
// Role != Master (a master has no generator dispatch to constrain);
// for Role == Slave these are built once per slave, over whatever
// snapshot slice that slave owns.
func (m *Model) buildGlobalConstraints(snaps []int) {
	if gc, ok := m.Net.Global(network.CO2Limit); ok {
		m.buildCO2Limit(gc, snaps)
	}
	if gc, ok := m.Net.Global(network.MWKMLimit); ok {
		m.buildMWKMLimit(gc)
	}
	if gc, ok := m.Net.Global(network.RESTarget); ok {
		m.buildRESTarget(gc, snaps)
	}
	if gc, ok := m.Net.Global(network.ApproxRESTarget); ok {
		m.buildApproxRESTarget(gc, snaps)
	}
}

// buildCO2Limit caps total weighted emissions: sum_g,t w_t * G[g,t] /
// efficiency_g * co2_emissions(carrier_g) <= constant.
func (m *Model) buildCO2Limit(gc network.GlobalConstraint, snaps []int) {
	expr := solver.LinExpr{}
	for gi, g := range m.Gens {
		carrier, ok := m.Net.CarrierByName(g.Carrier)
		if !ok || carrier.CO2Emissions == 0 {
			continue
		}
		eff := g.Efficiency
		if eff == 0 {
			eff = 1
		}
		for si, t := range snaps {
			expr = expr.AddTerm(m.G[gi][si], m.weighting(t)*carrier.CO2Emissions/eff)
		}
	}
	m.Solver.AddConstraint(expr, solver.LE, gc.Constant)
}

// buildMWKMLimit caps weighted transmission build-out by length:
// sum_l LN_s_nom[l]*length[l] <= limit * sum_l s_nom[l]*length[l],
// where the left side is constant (length*s_nom) for fixed lines and
// length*LN_s_nom (a variable) for extendable ones, and the right
// side is a constant baseline over every line (spec §4.4.5).
func (m *Model) buildMWKMLimit(gc network.GlobalConstraint) {
	var baseline float64
	for _, l := range m.Lines {
		baseline += l.SNom * l.Length
	}

	expr := solver.LinExpr{}
	var constant float64
	for li := 0; li < m.LinePart.NumFixed; li++ {
		constant += m.Lines[li].SNom * m.Lines[li].Length
	}
	for idx, v := range m.LNSNom {
		li := m.LinePart.NumFixed + idx
		expr = expr.AddTerm(v, m.Lines[li].Length)
	}
	m.Solver.AddConstraint(expr, solver.LE, gc.Constant*baseline-constant)
}

// buildRESTarget enforces a minimum renewable-carrier dispatch volume:
// sum_t w_t * sum_{g zero-co2} G[g,t] >= target * sum_t w_t * sum_loads[t]
// (spec §4.4.5, gc.Constant is the target fraction).
func (m *Model) buildRESTarget(gc network.GlobalConstraint, snaps []int) {
	expr := solver.LinExpr{}
	for gi, g := range m.Gens {
		carrier, _ := m.Net.CarrierByName(g.Carrier)
		if carrier.CO2Emissions != 0 {
			continue
		}
		for si, t := range snaps {
			expr = expr.AddTerm(m.G[gi][si], m.weighting(t))
		}
	}
	rhs := gc.Constant * m.totalLoad(snaps)
	m.Solver.AddConstraint(expr, solver.GE, rhs)
}

// buildApproxRESTarget is the approx_restarget variant: instead of
// actual renewable dispatch, it uses maximum renewable availability
// (p_max_pu * p_nom, a proxy upper bound rather than a dispatch
// decision) so it remains checkable from a partial snapshot slice
// where total system dispatch is not locally known (spec §4.4.5 Open
// Question: built literally per the distilled spec, no biomass
// carve-out). Rescaled by Opts.Rescale.ApproxRESTarget per the
// rescaling table convention (internal/pkg/rescale).
func (m *Model) buildApproxRESTarget(gc network.GlobalConstraint, snaps []int) {
	scale := m.Opts.Rescale.ApproxRESTarget
	if scale == 0 {
		scale = 1
	}
	expr := solver.LinExpr{}
	var constant float64
	for gi, g := range m.Gens {
		carrier, _ := m.Net.CarrierByName(g.Carrier)
		if carrier.CO2Emissions != 0 {
			continue
		}
		extendable := gi >= m.GenPart.NumFixed
		var coeff float64
		for _, t := range snaps {
			w := m.weighting(t) * g.PMaxPUAt(t)
			if extendable {
				coeff += scale * w
			} else {
				constant += scale * w * g.PNom
			}
		}
		if extendable {
			expr = expr.AddTerm(m.GPNom[gi-m.GenPart.NumFixed], coeff)
		}
	}
	rhs := scale*gc.Constant*m.totalLoad(snaps) - constant
	m.Solver.AddConstraint(expr, solver.GE, rhs)
}

func (m *Model) totalLoad(snaps []int) float64 {
	var total float64
	for _, load := range m.Net.Loads {
		for _, t := range snaps {
			total += m.weighting(t) * loadAt(load.P, t)
		}
	}
	return total
}

func (m *Model) weighting(t int) float64 {
	if t < len(m.Net.Snapshots) {
		return m.Net.Snapshots[t].Weighting
	}
	return 1
}
