package benders

import (
	"github.com/ohowland/cgc_lopf/internal/pkg/lopfmodel"
	"github.com/ohowland/cgc_lopf/internal/pkg/solver"
)

// addOptimalityCut adds ALPHA[g] >= slave_obj_now + sum_coupled
// dual*rescale*coefficient*(masterVar - masterVar_now) to the master
// (spec §4.7 step 5). Expanding the Taylor term around the current
// master point gives a constant plus a linear term in the master
// investment variables:
//
//	ALPHA[g] >= (slave_obj_now - sum_coupled dual*rhs_now) + sum_coupled dual*rescale*coefficient*masterVar
//
// By LP strong duality slave_obj_now already equals the sum of
// dual*rhs over every constraint (coupled and uncoupled) at the
// optimum, so subtracting the coupled contribution evaluated at the
// current point leaves exactly the uncoupled constant without having
// to track every uncoupled constraint's dual individually.
func (d *Driver) addOptimalityCut(slaveIdx int, slave *lopfmodel.Model) {
	group := d.groupOf(slaveIdx)
	if group >= len(d.Master.Alpha) {
		return
	}
	alpha := d.Master.Alpha[group]
	bendersScale := d.modelOpts.Rescale.BendersCut
	if bendersScale == 0 {
		bendersScale = 1
	}

	expr := solver.LinExpr{}
	expr = expr.AddTerm(alpha, bendersScale)

	constant := bendersScale * slave.Solver.ObjectiveValue()
	for _, c := range slave.Coupled {
		dual := slave.Solver.Dual(c.Handle)
		if dual == 0 {
			continue
		}
		rescaleFactor := c.Rescale
		if rescaleFactor == 0 {
			rescaleFactor = 1
		}
		coeff := bendersScale * dual * rescaleFactor * c.Coefficient
		masterVar := d.masterVariable(c.Family, c.AssetIndex)
		expr = expr.AddTerm(masterVar, -coeff)
		constant -= coeff * d.Master.Solver.Value(masterVar)
	}

	d.Master.Solver.AddConstraint(expr, solver.GE, constant)
}

// addFeasibilityCut adds a no-good cut excluding the master point that
// produced an infeasible slave, built from the slave's extreme-ray
// duals on its coupled constraints (spec §4.7 step 6). Unlike the
// optimality cut there is no slave objective value to anchor the
// constant term (an infeasible model has none), so the cut only
// excludes the immediate neighborhood of the current master point:
//
//	sum_coupled ray*rescale*coefficient*(masterVar - masterVar_now) <= 0
func (d *Driver) addFeasibilityCut(slaveIdx int, slave *lopfmodel.Model) {
	bendersScale := d.modelOpts.Rescale.BendersCut
	if bendersScale == 0 {
		bendersScale = 1
	}

	expr := solver.LinExpr{}
	var constant float64
	any := false
	for _, c := range slave.Coupled {
		ray := slave.Solver.Ray(c.Handle)
		if ray == 0 {
			continue
		}
		any = true
		rescaleFactor := c.Rescale
		if rescaleFactor == 0 {
			rescaleFactor = 1
		}
		coeff := bendersScale * ray * rescaleFactor * c.Coefficient
		masterVar := d.masterVariable(c.Family, c.AssetIndex)
		expr = expr.AddTerm(masterVar, coeff)
		constant += coeff * d.Master.Solver.Value(masterVar)
	}
	if !any {
		return
	}
	d.Master.Solver.AddConstraint(expr, solver.LE, constant)
}
