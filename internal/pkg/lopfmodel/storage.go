package lopfmodel

import (
	"github.com/ohowland/cgc_lopf/internal/pkg/solver"
)

// buildStorageRecurrences emits spec §3/§4.4.3's state-of-charge
// recurrence for every StorageUnit and Store in the snapshot slice:
//
//	SOC[t] = SOC[prev] + eta_store*store[t] - (1/eta_dispatch)*dispatch[t] + inflow[t] - spill[t]
//
// where prev is SOC[t-1], or SOC[T-1] under CyclicStateOfCharge, or
// StateOfChargeInitial at the first snapshot of a non-cyclic unit.
//
// Per spec Design Notes ("Storage/store support in Benders: the source
// explicitly disables it"), these recurrences are only built for
// role != Slave; a Benders slave build omits SU/ST state entirely,
// matching the teacher's origin design rather than inventing an
// unspecified cut family for it.
func (m *Model) buildStorageRecurrences() error {
	if m.Opts.Role == Slave {
		return nil
	}
	snaps := m.Opts.Snapshots.Indices(m.Net)

	for ui, u := range m.SUs {
		capacity := u.PNom * u.MaxHours
		var capVar solver.Variable
		extendable := u.PNomExtendable
		if extendable {
			capVar = m.SUPNom[ui-m.SUPart.NumFixed]
		}
		for si, t := range snaps {
			vars := m.SU[ui][si]
			m.addSOCRecurrence(vars, m.previousSOC(m.SU[ui], snaps, si, u.CyclicStateOfCharge, u.StateOfChargeInitial*capacity),
				u.EfficiencyStore, u.EfficiencyDispatch, inflowAt(u.Inflow, t), m.weighting(t))

			if extendable {
				expr := solver.LinExpr{}.AddTerm(vars.SOC, 1).AddTerm(capVar, -u.MaxHours)
				m.Solver.AddConstraint(expr, solver.LE, 0)
			} else {
				m.Solver.AddConstraint(solver.LinExpr{}.AddTerm(vars.SOC, 1), solver.LE, capacity)
			}
		}
	}

	for si2, s := range m.STs {
		var capVar solver.Variable
		extendable := s.ENomExtendable
		if extendable {
			capVar = m.STENom[si2-m.STPart.NumFixed]
		}
		for si, t := range snaps {
			vars := m.ST[si2][si]
			m.addSOCRecurrence(vars, m.previousSOC(m.ST[si2], snaps, si, s.CyclicStateOfCharge, s.StateOfChargeInitial*s.ENom),
				s.EfficiencyStore, s.EfficiencyDispatch, inflowAt(s.Inflow, t), m.weighting(t))

			if extendable {
				expr := solver.LinExpr{}.AddTerm(vars.SOC, 1).AddTerm(capVar, -s.EMaxPU)
				m.Solver.AddConstraint(expr, solver.LE, 0)
			} else {
				m.Solver.AddConstraint(solver.LinExpr{}.AddTerm(vars.SOC, 1), solver.LE, s.EMaxPU*s.ENom)
			}
		}
	}
	return nil
}

func inflowAt(series []float64, t int) float64 {
	if t < len(series) {
		return series[t]
	}
	return 0
}

// previousSOC returns either the previous snapshot's SOC variable (as
// a 1-term contribution), the cyclic wrap to the last snapshot's SOC,
// or a constant initial value, expressed as a LinExpr so
// addSOCRecurrence can treat all three cases uniformly.
func (m *Model) previousSOC(vars []StorageVars, snaps []int, si int, cyclic bool, initial float64) solver.LinExpr {
	if si > 0 {
		return solver.LinExpr{}.AddTerm(vars[si-1].SOC, 1)
	}
	if cyclic {
		return solver.LinExpr{}.AddTerm(vars[len(vars)-1].SOC, 1)
	}
	return solver.LinExpr{Constant: initial}
}

// addSOCRecurrence emits SOC[t] - prev - eta_store*store + (1/eta_dispatch)*dispatch + spill = inflow*weighting.
func (m *Model) addSOCRecurrence(v StorageVars, prev solver.LinExpr, etaStore, etaDispatch, inflow, weighting float64) {
	if etaDispatch == 0 {
		etaDispatch = 1
	}
	expr := solver.LinExpr{}.AddTerm(v.SOC, 1).AddTerm(v.Store, -etaStore).AddTerm(v.Dispatch, 1/etaDispatch).AddTerm(v.Spill, 1)
	for _, t := range prev.Terms {
		expr = expr.AddTerm(t.Var, -t.Coeff)
	}
	rhs := inflow*weighting - prev.Constant
	m.Solver.AddConstraint(expr, solver.EQ, rhs)
}
