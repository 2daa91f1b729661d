package lopfmodel

import (
	"github.com/ohowland/cgc_lopf/internal/pkg/solver"
)

// buildBounds emits spec §4.4.3's dispatch bound / capacity-coupling
// constraints for extendable generators, links and lines (fixed-asset
// bounds are already encoded directly as variable bounds in
// buildOperationVariables — they never change between solves). For
// extendable assets under role=slave the capacity term is a master
// value pushed in as an RHS, not a variable, so the bound is built as
// a plain <= / >= constraint whose RHS Benders mutates in place
// (spec: "capacity on the RHS is initialized from current p_nom and
// must be mutable"); the constraint is recorded in m.Coupled so
// internal/pkg/benders knows which master variable and coefficient
// drive it.
func (m *Model) buildBounds() error {
	snaps := m.Opts.Snapshots.Indices(m.Net)

	m.GBounds = make([][]BoundPair, len(m.Gens))
	for gi := m.GenPart.NumFixed; gi < len(m.Gens); gi++ {
		g := m.Gens[gi]
		extIdx := gi - m.GenPart.NumFixed
		m.GBounds[gi] = make([]BoundPair, len(snaps))
		for si, t := range snaps {
			dispatch := m.G[gi][si]
			pMin, pMax := g.PMinPUAt(t), g.PMaxPUAt(t)

			if m.Opts.Role == Slave {
				lowerC := m.Solver.AddConstraint(solver.LinExpr{}.AddTerm(dispatch, 1), solver.GE, pMin*g.PNom)
				upperC := m.Solver.AddConstraint(solver.LinExpr{}.AddTerm(dispatch, 1), solver.LE, pMax*g.PNom)
				m.GBounds[gi][si] = BoundPair{AssetIndex: gi, Snapshot: t, Lower: lowerC, Upper: upperC}
				m.Coupled = append(m.Coupled,
					CoupledConstraint{Handle: lowerC, Family: CoupledGPNom, AssetIndex: extIdx, Coefficient: pMin, Rescale: m.Opts.Rescale.BoundsG},
					CoupledConstraint{Handle: upperC, Family: CoupledGPNom, AssetIndex: extIdx, Coefficient: pMax, Rescale: m.Opts.Rescale.BoundsG},
				)
				continue
			}

			nomVar := m.GPNom[extIdx]
			lowerExpr := solver.LinExpr{}.AddTerm(dispatch, 1).AddTerm(nomVar, -pMin)
			upperExpr := solver.LinExpr{}.AddTerm(dispatch, 1).AddTerm(nomVar, -pMax)
			lowerC := m.Solver.AddConstraint(lowerExpr, solver.GE, 0)
			upperC := m.Solver.AddConstraint(upperExpr, solver.LE, 0)
			m.GBounds[gi][si] = BoundPair{AssetIndex: gi, Snapshot: t, Lower: lowerC, Upper: upperC}
		}
	}

	m.LKBounds = make([][]BoundPair, len(m.Links))
	for ki := m.LinkPart.NumFixed; ki < len(m.Links); ki++ {
		l := m.Links[ki]
		extIdx := ki - m.LinkPart.NumFixed
		m.LKBounds[ki] = make([]BoundPair, len(snaps))
		for si, t := range snaps {
			flow := m.LK[ki][si]
			if m.Opts.Role == Slave {
				lowerC := m.Solver.AddConstraint(solver.LinExpr{}.AddTerm(flow, 1), solver.GE, l.PMinPU*l.PNom)
				upperC := m.Solver.AddConstraint(solver.LinExpr{}.AddTerm(flow, 1), solver.LE, l.PMaxPU*l.PNom)
				m.LKBounds[ki][si] = BoundPair{AssetIndex: ki, Snapshot: t, Lower: lowerC, Upper: upperC}
				m.Coupled = append(m.Coupled,
					CoupledConstraint{Handle: lowerC, Family: CoupledLKPNom, AssetIndex: extIdx, Coefficient: l.PMinPU, Rescale: m.Opts.Rescale.BoundsLK},
					CoupledConstraint{Handle: upperC, Family: CoupledLKPNom, AssetIndex: extIdx, Coefficient: l.PMaxPU, Rescale: m.Opts.Rescale.BoundsLK},
				)
				continue
			}
			nomVar := m.LKPNom[extIdx]
			lowerExpr := solver.LinExpr{}.AddTerm(flow, 1).AddTerm(nomVar, -l.PMinPU)
			upperExpr := solver.LinExpr{}.AddTerm(flow, 1).AddTerm(nomVar, -l.PMaxPU)
			lowerC := m.Solver.AddConstraint(lowerExpr, solver.GE, 0)
			upperC := m.Solver.AddConstraint(upperExpr, solver.LE, 0)
			m.LKBounds[ki][si] = BoundPair{AssetIndex: ki, Snapshot: t, Lower: lowerC, Upper: upperC}
		}
	}

	// Extendable line flow magnitude bounds (LN_ext) couple to
	// LN_s_nom, built here; the angle/ptdf/kirchhoff flow equality
	// itself is built in flows.go.
	m.LNBounds = make([][]BoundPair, len(m.Lines))
	for li := m.LinePart.NumFixed; li < len(m.Lines); li++ {
		l := m.Lines[li]
		extIdx := li - m.LinePart.NumFixed
		m.LNBounds[li] = make([]BoundPair, len(snaps))
		sMaxPU := l.SMaxPU
		if sMaxPU == 0 {
			sMaxPU = 1
		}
		for si, t := range snaps {
			flow := m.LN[li][si]
			if m.Opts.Role == Slave {
				bound := l.SNom * sMaxPU
				lowerC := m.Solver.AddConstraint(solver.LinExpr{}.AddTerm(flow, 1), solver.GE, -bound)
				upperC := m.Solver.AddConstraint(solver.LinExpr{}.AddTerm(flow, 1), solver.LE, bound)
				m.LNBounds[li][si] = BoundPair{AssetIndex: li, Snapshot: t, Lower: lowerC, Upper: upperC}
				m.Coupled = append(m.Coupled,
					CoupledConstraint{Handle: lowerC, Family: CoupledLNSNom, AssetIndex: extIdx, Coefficient: -sMaxPU, Rescale: m.Opts.Rescale.BoundsLN},
					CoupledConstraint{Handle: upperC, Family: CoupledLNSNom, AssetIndex: extIdx, Coefficient: sMaxPU, Rescale: m.Opts.Rescale.BoundsLN},
				)
				continue
			}
			nomVar := m.LNSNom[extIdx]
			lowerExpr := solver.LinExpr{}.AddTerm(flow, 1).AddTerm(nomVar, sMaxPU)
			upperExpr := solver.LinExpr{}.AddTerm(flow, 1).AddTerm(nomVar, -sMaxPU)
			lowerC := m.Solver.AddConstraint(lowerExpr, solver.GE, 0)
			upperC := m.Solver.AddConstraint(upperExpr, solver.LE, 0)
			m.LNBounds[li][si] = BoundPair{AssetIndex: li, Snapshot: t, Lower: lowerC, Upper: upperC}
		}
	}
	return nil
}
