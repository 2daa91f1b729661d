package lopfmodel

import (
	"fmt"
	"math"

	"github.com/ohowland/cgc_lopf/internal/pkg/network"
	"github.com/ohowland/cgc_lopf/internal/pkg/solver"
)

// buildInvestmentVariables emits spec §4.4.2's investment block:
// G_p_nom, LN_s_nom, LK_p_nom, SU_p_nom, ST_e_nom for every extendable
// asset, plus the line-investment integrality companion chosen by
// Opts.InvestmentType.
func (m *Model) buildInvestmentVariables() {
	for i := m.GenPart.NumFixed; i < len(m.Gens); i++ {
		g := m.Gens[i]
		v := m.Solver.AddVariable(fmt.Sprintf("G_p_nom[%s]", g.ID), solver.Real, g.PNomMin, g.PNomMax)
		m.GPNom = append(m.GPNom, v)
	}
	for i := m.LinkPart.NumFixed; i < len(m.Links); i++ {
		l := m.Links[i]
		v := m.Solver.AddVariable(fmt.Sprintf("LK_p_nom[%s]", l.ID), solver.Real, l.PNomMin, l.PNomMax)
		m.LKPNom = append(m.LKPNom, v)
	}
	for i := m.SUPart.NumFixed; i < len(m.SUs); i++ {
		u := m.SUs[i]
		v := m.Solver.AddVariable(fmt.Sprintf("SU_p_nom[%s]", u.ID), solver.Real, 0, math.Inf(1))
		m.SUPNom = append(m.SUPNom, v)
	}
	for i := m.STPart.NumFixed; i < len(m.STs); i++ {
		s := m.STs[i]
		v := m.Solver.AddVariable(fmt.Sprintf("ST_e_nom[%s]", s.ID), solver.Real, 0, math.Inf(1))
		m.STENom = append(m.STENom, v)
	}
	m.buildLineInvestment()
}

// buildLineInvestment emits LN_s_nom (always, as a variable tied to the
// companion by an equality row) and the integrality companion selected
// by Opts.InvestmentType (spec §4.4.2).
func (m *Model) buildLineInvestment() {
	m.LNOpt = make([][]solver.Variable, len(m.Lines))
	m.LNSNom = make([]solver.Variable, 0, m.LinePart.NumExt)
	m.LNInv = make([]solver.Variable, 0, m.LinePart.NumExt)

	for i := m.LinePart.NumFixed; i < len(m.Lines); i++ {
		l := m.Lines[i]
		bigM := m.Opts.BigM
		if bigM == 0 {
			bigM = 1e12
		}

		switch m.Opts.InvestmentType {
		case Continuous, Integer:
			domain := solver.Real
			if m.Opts.InvestmentType == Integer {
				domain = solver.Integer
			}
			inv := m.Solver.AddVariable(fmt.Sprintf("LN_inv[%s]", l.ID), domain, l.SNomExtMin, math.Inf(1))
			sNom := m.Solver.AddVariable(fmt.Sprintf("LN_s_nom[%s]", l.ID), solver.Real, l.SNomMin, l.SNomMax)
			// LN_s_nom = (1 + LN_inv/num_parallel) * s_nom
			np := l.NumParallel
			if np == 0 {
				np = 1
			}
			expr := solver.LinExpr{}.AddTerm(sNom, 1).AddTerm(inv, -l.SNom/np)
			m.Solver.AddConstraint(expr, solver.EQ, l.SNom)
			m.LNInv = append(m.LNInv, inv)
			m.LNSNom = append(m.LNSNom, sNom)

		case Binary:
			opt := m.Solver.AddVariable(fmt.Sprintf("LN_opt[%s]", l.ID), solver.Binary, 0, 1)
			inv := m.Solver.AddVariable(fmt.Sprintf("LN_inv[%s]", l.ID), solver.Real, 0, bigM)
			sNom := m.Solver.AddVariable(fmt.Sprintf("LN_s_nom[%s]", l.ID), solver.Real, l.SNomMin, l.SNomMax)
			// -M*(1-opt) + s_nom_ext_min <= inv
			lowExpr := solver.LinExpr{}.AddTerm(inv, 1).AddTerm(opt, -bigM)
			m.Solver.AddConstraint(lowExpr, solver.GE, l.SNomExtMin-bigM)
			// inv <= M*opt
			upExpr := solver.LinExpr{}.AddTerm(inv, 1).AddTerm(opt, -bigM)
			m.Solver.AddConstraint(upExpr, solver.LE, 0)
			np := l.NumParallel
			if np == 0 {
				np = 1
			}
			capExpr := solver.LinExpr{}.AddTerm(sNom, 1).AddTerm(inv, -l.SNom/np)
			m.Solver.AddConstraint(capExpr, solver.EQ, l.SNom)
			m.LNOpt[i] = []solver.Variable{opt}
			m.LNInv = append(m.LNInv, inv)
			m.LNSNom = append(m.LNSNom, sNom)

		case IntegerBigM:
			candidates := network.LineExtensionCandidates(l)
			opts := make([]solver.Variable, len(candidates))
			sumExpr := solver.LinExpr{}
			for ci, c := range candidates {
				v := m.Solver.AddVariable(fmt.Sprintf("LN_opt[%s,%d]", l.ID, c), solver.Binary, 0, 1)
				opts[ci] = v
				sumExpr = sumExpr.AddTerm(v, 1)
			}
			m.Solver.AddConstraint(sumExpr, solver.EQ, 1)
			m.LNOpt[i] = opts

			sNom := m.Solver.AddVariable(fmt.Sprintf("LN_s_nom[%s]", l.ID), solver.Real, l.SNomMin, l.SNomMax)
			np := l.NumParallel
			if np == 0 {
				np = 1
			}
			// LN_s_nom = (1 + sum_c c*LN_opt[l,c]/num_parallel) * s_nom
			capExpr := solver.LinExpr{}.AddTerm(sNom, 1)
			for ci, c := range candidates {
				capExpr = capExpr.AddTerm(opts[ci], -float64(c)*l.SNom/np)
			}
			m.Solver.AddConstraint(capExpr, solver.EQ, l.SNom)
			m.LNSNom = append(m.LNSNom, sNom)
		}
	}
}

// buildOperationVariables emits spec §4.4.2's per-snapshot operation
// block: G, LN, LK, storage variables, and THETA for angle formulations.
func (m *Model) buildOperationVariables() {
	snaps := m.Opts.Snapshots.Indices(m.Net)
	nSnap := len(snaps)

	m.G = make([][]solver.Variable, len(m.Gens))
	for gi, g := range m.Gens {
		m.G[gi] = make([]solver.Variable, nSnap)
		for si, t := range snaps {
			lo, hi := 0.0, math.Inf(1)
			if !g.PNomExtendable {
				lo = g.PMinPUAt(t) * g.PNom
				hi = g.PMaxPUAt(t) * g.PNom
			}
			m.G[gi][si] = m.Solver.AddVariable(fmt.Sprintf("G[%s,%d]", g.ID, t), solver.Real, lo, hi)
		}
	}

	m.LN = make([][]solver.Variable, len(m.Lines))
	for li, l := range m.Lines {
		m.LN[li] = make([]solver.Variable, nSnap)
		for si := range snaps {
			bound := l.SNom * l.SMaxPU
			if bound == 0 || l.SNomExtendable {
				bound = math.Inf(1)
			}
			m.LN[li][si] = m.Solver.AddVariable(fmt.Sprintf("LN[%s,%d]", l.ID, si), solver.Real, -bound, bound)
		}
	}

	m.LK = make([][]solver.Variable, len(m.Links))
	for ki, l := range m.Links {
		m.LK[ki] = make([]solver.Variable, nSnap)
		for si := range snaps {
			lo, hi := l.PMinPU*l.PNom, l.PMaxPU*l.PNom
			if l.PNomExtendable {
				lo, hi = math.Inf(-1), math.Inf(1)
			}
			m.LK[ki][si] = m.Solver.AddVariable(fmt.Sprintf("LK[%s,%d]", l.ID, si), solver.Real, lo, hi)
		}
	}

	if m.Opts.Formulation == AnglesLinear || m.Opts.Formulation == AnglesLinearIntegerBigM || m.Opts.Formulation == AnglesBilinear {
		m.Theta = make([][]solver.Variable, len(m.Net.Buses))
		for bi := range m.Net.Buses {
			m.Theta[bi] = make([]solver.Variable, nSnap)
			for si := range snaps {
				lo, hi := math.Inf(-1), math.Inf(1)
				if bi == 0 {
					lo, hi = 0, 0 // slack bus
				}
				m.Theta[bi][si] = m.Solver.AddVariable(fmt.Sprintf("THETA[%d,%d]", bi, si), solver.Real, lo, hi)
			}
		}
	}

	m.SU = make([][]StorageVars, len(m.SUs))
	for ui, u := range m.SUs {
		m.SU[ui] = make([]StorageVars, nSnap)
		for si := range snaps {
			dispHi := u.PMaxPU * u.PNom
			storeHi := -u.PMinPU * u.PNom // PMinPU is typically <= 0 for storage
			if u.PNomExtendable {
				dispHi, storeHi = math.Inf(1), math.Inf(1)
			}
			m.SU[ui][si] = StorageVars{
				Dispatch: m.Solver.AddVariable(fmt.Sprintf("SU_dispatch[%s,%d]", u.ID, si), solver.Real, 0, dispHi),
				Store:    m.Solver.AddVariable(fmt.Sprintf("SU_store[%s,%d]", u.ID, si), solver.Real, 0, storeHi),
				SOC:      m.Solver.AddVariable(fmt.Sprintf("SU_soc[%s,%d]", u.ID, si), solver.Real, 0, math.Inf(1)),
				Spill:    m.Solver.AddVariable(fmt.Sprintf("SU_spill[%s,%d]", u.ID, si), solver.Real, 0, math.Inf(1)),
			}
		}
	}

	m.ST = make([][]StorageVars, len(m.STs))
	for si2, s := range m.STs {
		m.ST[si2] = make([]StorageVars, nSnap)
		for si := range snaps {
			m.ST[si2][si] = StorageVars{
				Dispatch: m.Solver.AddVariable(fmt.Sprintf("ST_dispatch[%s,%d]", s.ID, si), solver.Real, 0, math.Inf(1)),
				Store:    m.Solver.AddVariable(fmt.Sprintf("ST_store[%s,%d]", s.ID, si), solver.Real, 0, math.Inf(1)),
				SOC:      m.Solver.AddVariable(fmt.Sprintf("ST_soc[%s,%d]", s.ID, si), solver.Real, 0, math.Inf(1)),
				Spill:    m.Solver.AddVariable(fmt.Sprintf("ST_spill[%s,%d]", s.ID, si), solver.Real, 0, math.Inf(1)),
			}
		}
	}
}

// buildMasterAlpha emits the master-only ALPHA scalars (spec §4.4.2).
func (m *Model) buildMasterAlpha() {
	if m.Opts.Role != Master {
		return
	}
	n := m.Opts.NGroups
	if n <= 0 {
		n = 1
	}
	m.Alpha = make([]solver.Variable, n)
	for g := 0; g < n; g++ {
		m.Alpha[g] = m.Solver.AddVariable(fmt.Sprintf("ALPHA[%d]", g), solver.Real, 0, math.Inf(1))
	}
}
