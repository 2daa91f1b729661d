// Package benders implements spec §4.7's lazy-constraint Benders
// decomposition: one master Model (investment + ALPHA) and one-or-many
// slave Models (operation only), linked by pushing master investment
// values into slave RHS and feeding optimality/feasibility cuts back.
//
// The bundled solver.Model backend (internal/pkg/solver/highs) has no
// native mid-branch-and-bound callback hook — AddLazyConstraint
// returns solver.ErrLazyUnsupported. This package emulates the same
// contract with an outer solve/cut/resolve loop: solve the master to
// completion, treat its optimum as the "incumbent," push values to the
// slaves, solve them, add any cuts directly to the master as ordinary
// constraints, and resolve. This converges to the same fixed point a
// native lazy callback would reach, at the cost of repeated full
// master solves instead of one branch-and-bound run with interior
// callbacks (spec Design Notes / DESIGN.md: accepted simplification
// given no available backend exposes the native hook).
package benders

import (
	"log"
	"math"

	"github.com/ohowland/cgc_lopf/internal/pkg/lopfmodel"
	"github.com/ohowland/cgc_lopf/internal/pkg/network"
	"github.com/ohowland/cgc_lopf/internal/pkg/rescale"
	"github.com/ohowland/cgc_lopf/internal/pkg/solver"
)

// Options parameterizes the driver (spec §6 Benders options).
type Options struct {
	SplitSubproblems bool
	IndividualCuts   bool
	Tolerance        float64 // default 100.0
	MIPGap           float64 // default 1e-8
	BigM             float64 // default 1e12
	UpdateX          bool
	MaxIterations    int // outer solve/cut/resolve loop bound; not a spec field, an engine safety valve
}

// Result is the outcome of a Benders run.
type Result struct {
	Status     solver.Status
	Objective  float64
	Iterations int
}

// Driver owns the master and slave Models for the lifetime of a run
// (spec §3 Lifecycle: "each is constructed once ... unless update_x
// requires rebuild").
type Driver struct {
	net       *network.Network
	factory   solver.Factory
	modelOpts lopfmodel.BuildOptions
	opts      Options

	Master *lopfmodel.Model
	Slaves []*lopfmodel.Model
}

// New builds the master and slave Models once (spec §4.7 intro).
func New(net *network.Network, factory solver.Factory, modelOpts lopfmodel.BuildOptions, opts Options) (*Driver, error) {
	d := &Driver{net: net, factory: factory, modelOpts: modelOpts, opts: opts}
	if err := d.build(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Driver) build() error {
	if err := d.buildMaster(); err != nil {
		return err
	}
	return d.buildSlaves()
}

func (d *Driver) buildMaster() error {
	nGroups := 1
	if d.opts.IndividualCuts {
		nGroups = len(d.net.Snapshots)
	}
	masterOpts := d.modelOpts
	masterOpts.Role = lopfmodel.Master
	masterOpts.NGroups = nGroups
	masterOpts.BigM = d.opts.BigM

	master, err := lopfmodel.Build(*d.net, d.factory, masterOpts)
	if err != nil {
		return err
	}
	d.Master = master
	return nil
}

// buildSlaves (re)builds only the slave Models against the current
// net, leaving d.Master and its accumulated cuts untouched.
func (d *Driver) buildSlaves() error {
	slaveOpts := d.modelOpts
	slaveOpts.Role = lopfmodel.Slave
	slaveOpts.BigM = d.opts.BigM

	var slaves []*lopfmodel.Model
	if d.opts.SplitSubproblems {
		for t := range d.net.Snapshots {
			so := slaveOpts
			so.Snapshots = lopfmodel.SingleSnapshot(t)
			s, err := lopfmodel.Build(*d.net, d.factory, so)
			if err != nil {
				return err
			}
			slaves = append(slaves, s)
		}
	} else {
		so := slaveOpts
		so.Snapshots = lopfmodel.AllSnapshots()
		s, err := lopfmodel.Build(*d.net, d.factory, so)
		if err != nil {
			return err
		}
		slaves = append(slaves, s)
	}
	d.Slaves = slaves
	return nil
}

// groupOf maps a slave index to its ALPHA cut group (spec §4.7 cut
// grouping: one ALPHA per snapshot under individualcuts, else one
// ALPHA for all T).
func (d *Driver) groupOf(slaveIdx int) int {
	if d.opts.IndividualCuts {
		return slaveIdx
	}
	return 0
}

// Run executes the outer solve/cut/resolve loop until the master and
// slaves agree within tolerance or MaxIterations is reached (spec
// §4.7 steps 1-7).
func (d *Driver) Run() (Result, error) {
	tol := d.opts.Tolerance
	if tol == 0 {
		tol = 100.0
	}
	maxIter := d.opts.MaxIterations
	if maxIter <= 0 {
		maxIter = 50
	}

	for iter := 1; iter <= maxIter; iter++ {
		status, err := d.Master.Solver.Solve()
		if err != nil {
			return Result{}, err
		}
		log.Printf("[Benders] iter=%d master status=%s", iter, status)
		if status != solver.Optimal {
			return Result{Status: status, Iterations: iter}, nil
		}

		if d.opts.UpdateX {
			d.updateReactances()
		}

		d.pushMasterValues()

		slaveObjective := 0.0
		allOptimal := true
		for si, slave := range d.Slaves {
			sStatus, err := slave.Solver.Solve()
			if err != nil {
				return Result{}, err
			}
			if sStatus == solver.Optimal {
				slaveObjective += slave.Solver.ObjectiveValue()
				d.addOptimalityCut(si, slave)
			} else {
				allOptimal = false
				d.addFeasibilityCut(si, slave)
			}
		}

		if allOptimal {
			alphaSum := 0.0
			for _, a := range d.Master.Alpha {
				alphaSum += d.Master.Solver.Value(a)
			}
			gap := math.Abs(slaveObjective - alphaSum)
			log.Printf("[Benders] iter=%d slave_obj=%.4f alpha_sum=%.4f gap=%.4f", iter, slaveObjective, alphaSum, gap)
			if gap <= tol {
				return Result{Status: solver.Optimal, Objective: d.Master.Solver.ObjectiveValue() - alphaSum + slaveObjective, Iterations: iter}, nil
			}
		}
	}
	return Result{Status: solver.TimeLimit, Iterations: maxIter}, nil
}

// pushMasterValues sets every slave's coupled constraint RHS from the
// master's current investment values (spec §4.7 step 3), clamping
// |rhs| < 1e-4 to 0 (internal/pkg/rescale.ClampRHS).
func (d *Driver) pushMasterValues() {
	for _, slave := range d.Slaves {
		for _, c := range slave.Coupled {
			masterVar := d.masterVariable(c.Family, c.AssetIndex)
			rescaleFactor := c.Rescale
			if rescaleFactor == 0 {
				rescaleFactor = 1
			}
			rhs := rescale.ClampRHS(rescaleFactor * c.Coefficient * d.Master.Solver.Value(masterVar))
			slave.Solver.SetRHS(c.Handle, rhs)
		}
	}
}

// masterVariable resolves a CoupledConstraint's Family/AssetIndex
// against the master's investment variable arrays (spec §4.4.3:
// "AssetIndex indexes the extendable-only investment arrays ... of
// the master Model").
func (d *Driver) masterVariable(family lopfmodel.CoupledFamily, assetIndex int) solver.Variable {
	switch family {
	case lopfmodel.CoupledLNSNom:
		return d.Master.LNSNom[assetIndex]
	case lopfmodel.CoupledLKPNom:
		return d.Master.LKPNom[assetIndex]
	default:
		return d.Master.GPNom[assetIndex]
	}
}

// updateReactances applies master LN_inv to net's line x (spec §4.7
// step 2), then rebuilds only the slaves against the updated net so
// their flow-formulation coefficients reflect the new reactances. The
// master and its accumulated optimality/feasibility cuts are left in
// place — rebuilding it would discard every cut added so far.
func (d *Driver) updateReactances() {
	for idx, inv := range d.Master.LNInv {
		// d.Master.Lines is fixed-first; d.net.Lines keeps input order.
		id := d.Master.Lines[d.Master.LinePart.NumFixed+idx].ID
		var l *network.Line
		for i := range d.net.Lines {
			if d.net.Lines[i].ID == id {
				l = &d.net.Lines[i]
			}
		}
		if l == nil {
			continue
		}
		invVal := d.Master.Solver.Value(inv)
		np := l.NumParallel
		if np == 0 {
			np = 1
		}
		newParallel := np + invVal
		if newParallel <= 0 {
			l.X = network.ReactanceSentinel
			continue
		}
		l.X = l.X * np / newParallel
	}
	if err := d.buildSlaves(); err != nil {
		log.Printf("[Benders] slave rebuild after update_x failed: %v", err)
	}
}
