package lopfmodel

import "github.com/ohowland/cgc_lopf/internal/pkg/solver"

// buildObjective assembles spec §4.4.6's role-gated objective:
//
//	monolithic: sum_t w_t*(operational cost) + sum(capital cost)
//	master:     sum(capital cost) + sum_g ALPHA[g]
//	slave:      sum_t w_t*(operational cost) only
func (m *Model) buildObjective(snaps []int) {
	expr := solver.LinExpr{}

	if m.Opts.Role != Master {
		for gi, g := range m.Gens {
			if g.MarginalCost == 0 {
				continue
			}
			for si, t := range snaps {
				expr = expr.AddTerm(m.G[gi][si], m.weighting(t)*g.MarginalCost)
			}
		}
		for ui, u := range m.SUs {
			if u.MarginalCost == 0 {
				continue
			}
			for si, t := range snaps {
				expr = expr.AddTerm(m.SU[ui][si].Dispatch, m.weighting(t)*u.MarginalCost)
			}
		}
		for sti, s := range m.STs {
			if s.MarginalCost == 0 {
				continue
			}
			for si, t := range snaps {
				expr = expr.AddTerm(m.ST[sti][si].Dispatch, m.weighting(t)*s.MarginalCost)
			}
		}
	}

	if m.Opts.Role != Slave {
		for idx, v := range m.GPNom {
			gi := m.GenPart.NumFixed + idx
			expr = expr.AddTerm(v, m.Gens[gi].CapitalCost)
		}
		for idx, v := range m.LKPNom {
			ki := m.LinkPart.NumFixed + idx
			expr = expr.AddTerm(v, m.Links[ki].CapitalCost)
		}
		if m.Opts.InvestmentType == IntegerBigM {
			for li := m.LinePart.NumFixed; li < len(m.Lines); li++ {
				l := m.Lines[li]
				np := l.NumParallel
				if np == 0 {
					np = 1
				}
				for c, opt := range m.LNOpt[li] {
					expr = expr.AddTerm(opt, float64(c)*l.CapitalCost*l.SNom/np)
				}
			}
		} else {
			for idx, v := range m.LNSNom {
				li := m.LinePart.NumFixed + idx
				expr = expr.AddTerm(v, m.Lines[li].CapitalCost)
			}
		}
		for idx, v := range m.SUPNom {
			ui := m.SUPart.NumFixed + idx
			expr = expr.AddTerm(v, m.SUs[ui].CapitalCost)
		}
		for idx, v := range m.STENom {
			sti := m.STPart.NumFixed + idx
			expr = expr.AddTerm(v, m.STs[sti].CapitalCost)
		}
		for _, a := range m.Alpha {
			expr = expr.AddTerm(a, 1)
		}
	}

	m.Solver.SetObjective(expr)
}
