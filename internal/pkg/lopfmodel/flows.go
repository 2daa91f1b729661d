package lopfmodel

import (
	"fmt"

	"github.com/ohowland/cgc_lopf/internal/pkg/network"
	"github.com/ohowland/cgc_lopf/internal/pkg/solver"
)

// buildFlowCoupling emits spec §4.4.4's nodal balance and flow-formulation
// constraints for the snapshot slice. Every formulation shares the same
// per-bus injection expression (generation + link/line net withdrawal +
// storage net discharge - load); what differs is how line flow is tied
// to that injection.
func (m *Model) buildFlowCoupling() error {
	snaps := m.Opts.Snapshots.Indices(m.Net)

	switch m.Opts.Formulation {
	case AnglesLinear, AnglesLinearIntegerBigM:
		m.buildAngleFlows(snaps)
	case KirchhoffLinear:
		m.buildKirchhoffFlows(snaps)
	case PTDF:
		m.buildPTDFFlows(snaps)
	default:
		return &ConfigurationError{Msg: fmt.Sprintf("unsupported formulation %s", m.Opts.Formulation)}
	}
	return nil
}

// injectionExpr returns the net injection at bus busIdx at snapshot
// position si: generation minus load plus link/storage contributions
// sited at that bus. Line flow terms are added separately by the
// caller (angle/kirchhoff formulations fold them into the same
// equation; ptdf does not need them at all).
func (m *Model) injectionExpr(busIdx int, t, si int) solver.LinExpr {
	expr := solver.LinExpr{}
	bus := m.Net.Buses[busIdx]

	for gi, g := range m.Gens {
		if g.Bus == bus.ID {
			expr = expr.AddTerm(m.G[gi][si], 1)
		}
	}
	for ki, l := range m.Links {
		eff := l.Efficiency
		if eff == 0 {
			eff = 1
		}
		if l.Bus0 == bus.ID {
			expr = expr.AddTerm(m.LK[ki][si], -1)
		}
		if l.Bus1 == bus.ID {
			expr = expr.AddTerm(m.LK[ki][si], eff)
		}
	}
	for ui, u := range m.SUs {
		if u.Bus == bus.ID {
			expr = expr.AddTerm(m.SU[ui][si].Dispatch, 1)
			expr = expr.AddTerm(m.SU[ui][si].Store, -1)
		}
	}
	for sti, s := range m.STs {
		if s.Bus == bus.ID {
			expr = expr.AddTerm(m.ST[sti][si].Dispatch, 1)
			expr = expr.AddTerm(m.ST[sti][si].Store, -1)
		}
	}
	for _, load := range m.Net.Loads {
		if load.Bus == bus.ID {
			expr.Constant -= loadAt(load.P, t)
		}
	}
	return expr
}

func loadAt(series []float64, t int) float64 {
	if t < len(series) {
		return series[t]
	}
	return 0
}

// buildAngleFlows emits LN[l,t] = B_l*(THETA[bus0,t]-THETA[bus1,t])
// (spec §4.1, angles_linear), or its big-M candidate-selected
// counterpart for angles_linear_integer_bigm, plus the nodal balance
// injection - sum_l(line withdrawal) = 0 for every bus.
func (m *Model) buildAngleFlows(snaps []int) {
	for li, l := range m.Lines {
		b0, ok0 := m.BusIdx[l.Bus0]
		b1, ok1 := m.BusIdx[l.Bus1]
		if !ok0 || !ok1 {
			continue
		}
		xpu := m.Net.XPerUnit(l)
		if xpu == 0 {
			xpu = 1
		}
		susceptance := 1 / xpu

		if m.Opts.InvestmentType == IntegerBigM && li >= m.LinePart.NumFixed {
			m.buildBigMAngleFlow(li, l, b0, b1, susceptance, snaps)
			continue
		}
		for si := range snaps {
			expr := solver.LinExpr{}.AddTerm(m.LN[li][si], 1).AddTerm(m.Theta[b0][si], -susceptance).AddTerm(m.Theta[b1][si], susceptance)
			m.Solver.AddConstraint(expr, solver.EQ, 0)
		}
	}
	m.buildBusBalances(snaps, true)
}

// buildBigMAngleFlow relaxes the angle equation per investment
// candidate c (extra parallel circuits), active only when LN_opt[l,c]
// selects it (spec §4.4.2 integer_bigm, §4.1 angle equation):
//
//	LN - B_c*(theta0-theta1) <= M*(1-opt_c)
//	LN - B_c*(theta0-theta1) >= -M*(1-opt_c)
func (m *Model) buildBigMAngleFlow(li int, l network.Line, b0, b1 int, baseSusceptance float64, snaps []int) {
	bigM := m.Opts.BigM
	if bigM == 0 {
		bigM = 1e12
	}
	np := l.NumParallel
	if np == 0 {
		np = 1
	}
	opts := m.LNOpt[li]
	for ci, opt := range opts {
		bc := baseSusceptance * (np + float64(ci)) / np
		for si := range snaps {
			base := solver.LinExpr{}.AddTerm(m.LN[li][si], 1).AddTerm(m.Theta[b0][si], -bc).AddTerm(m.Theta[b1][si], bc)
			upper := base
			upper = upper.AddTerm(opt, bigM)
			m.Solver.AddConstraint(upper, solver.LE, bigM)
			lower := base
			lower = lower.AddTerm(opt, -bigM)
			m.Solver.AddConstraint(lower, solver.GE, -bigM)
		}
	}
}

// buildKirchhoffFlows emits the fundamental-cycle KVL constraint
// sum_l(direction * x_pu * LN_l) = 0 for each cycle (spec §4.1
// kirchhoff_linear), in place of angle variables.
func (m *Model) buildKirchhoffFlows(snaps []int) {
	for _, cyc := range m.Cycles {
		for si := range snaps {
			expr := solver.LinExpr{}
			for idx, li := range cyc.Lines {
				xpu := m.Net.XPerUnit(m.Lines[li])
				if xpu == 0 {
					xpu = 1
				}
				expr = expr.AddTerm(m.LN[li][si], xpu*float64(cyc.Directions[idx]))
			}
			m.Solver.AddConstraint(expr, solver.EQ, 0)
		}
	}
	m.buildBusBalances(snaps, true)
}

// buildPTDFFlows emits LN[l,t] = sum_n PTDF[l,n]*injection[n,t] (spec
// §4.1 ptdf) plus one system-wide power balance per snapshot (PTDF
// flows already encode KCL, so no per-bus balance is needed).
func (m *Model) buildPTDFFlows(snaps []int) {
	numBuses := len(m.Net.Buses)
	for si, t := range snaps {
		injections := make([]solver.LinExpr, numBuses)
		total := solver.LinExpr{}
		for bi := 0; bi < numBuses; bi++ {
			injections[bi] = m.injectionExpr(bi, t, si)
			total.Terms = append(total.Terms, injections[bi].Terms...)
			total.Constant += injections[bi].Constant
		}
		handle := m.Solver.AddConstraint(total, solver.EQ, -total.Constant)
		m.NodalBalances = append(m.NodalBalances, NodalBalance{Bus: -1, Snapshot: t, Handle: handle})

		for li := range m.Lines {
			expr := solver.LinExpr{}.AddTerm(m.LN[li][si], 1)
			for bi := 0; bi < numBuses; bi++ {
				coeff := m.PTDF.Matrix.At(li, bi)
				if coeff == 0 {
					continue
				}
				for _, term := range injections[bi].Terms {
					expr = expr.AddTerm(term.Var, -coeff*term.Coeff)
				}
				expr.Constant -= coeff * injections[bi].Constant
			}
			m.Solver.AddConstraint(expr, solver.EQ, -expr.Constant)
		}
	}
}

// buildBusBalances emits injection - line_withdrawal = 0 for every
// bus and snapshot; lineTerms selects whether line flow terms (angle
// and kirchhoff formulations both need them) are folded in.
func (m *Model) buildBusBalances(snaps []int, lineTerms bool) {
	for bi, bus := range m.Net.Buses {
		for si, t := range snaps {
			expr := m.injectionExpr(bi, t, si)
			if lineTerms {
				for li, l := range m.Lines {
					if l.Bus0 == bus.ID {
						expr = expr.AddTerm(m.LN[li][si], -1)
					}
					if l.Bus1 == bus.ID {
						expr = expr.AddTerm(m.LN[li][si], 1)
					}
				}
			}
			h := m.Solver.AddConstraint(expr, solver.EQ, -expr.Constant)
			m.NodalBalances = append(m.NodalBalances, NodalBalance{Bus: bi, Snapshot: t, Handle: h})
		}
	}
}
