// Package lopfmodel assembles a solver.Model from a network.Network
// according to spec §4.4: variables, bounds, storage recurrences, flow
// couplings, global constraints and objective, parameterized by
// formulation, investment type, role and snapshot slice.
//
// Grounded on the teacher's internal/pkg/dispatch/lpdispatch package:
// lpconstruct.go already derives one LP "unit" (cost/capacity bounds)
// per asset from typed accessors before handing it to a solver; this
// package generalizes that per-asset assembly across the full
// formulation/investment-type/role matrix spec §4.4 describes.
package lopfmodel

import (
	"github.com/ohowland/cgc_lopf/internal/pkg/network"
	"github.com/ohowland/cgc_lopf/internal/pkg/rescale"
	"github.com/ohowland/cgc_lopf/internal/pkg/solver"
)

// Formulation selects the flow coupling (spec §4.4.4).
type Formulation string

const (
	AnglesLinear            Formulation = "angles_linear"
	AnglesLinearIntegerBigM Formulation = "angles_linear_integer_bigm"
	AnglesBilinear          Formulation = "angles_bilinear"
	KirchhoffLinear         Formulation = "kirchhoff_linear"
	KirchhoffBilinear       Formulation = "kirchhoff_bilinear"
	PTDF                    Formulation = "ptdf"
)

// InvestmentType selects the line-investment integrality companion
// (spec §4.4.2).
type InvestmentType string

const (
	Continuous  InvestmentType = "continuous"
	Integer     InvestmentType = "integer"
	Binary      InvestmentType = "binary"
	IntegerBigM InvestmentType = "integer_bigm"
)

// Role gates which variable/constraint families are emitted (spec §4.4.2).
type Role int

const (
	Monolithic Role = iota
	Master
	Slave
)

// SnapshotSlice selects all snapshots or a single one (spec §4.4, role=slave).
type SnapshotSlice struct {
	All    bool
	Single int // snapshot index, meaningful only when !All
}

func AllSnapshots() SnapshotSlice          { return SnapshotSlice{All: true} }
func SingleSnapshot(t int) SnapshotSlice    { return SnapshotSlice{All: false, Single: t} }

// Indices returns the snapshot indices this slice covers, relative to
// net.Snapshots.
func (s SnapshotSlice) Indices(net network.Network) []int {
	if s.All {
		idx := make([]int, len(net.Snapshots))
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	return []int{s.Single}
}

// BuildOptions parameterizes Build (spec §4.4).
type BuildOptions struct {
	Formulation    Formulation
	InvestmentType InvestmentType
	Role           Role
	Snapshots      SnapshotSlice
	Rescale        rescale.Table
	BigM           float64
	NGroups        int // master ALPHA count; spec Open Question: T if individualcuts else 1
}

// NodalBalance records the constraint handle for (bus, snapshot) nodal
// energy balance, used both to couple the flow formulation and to read
// back marginal prices after a solve (spec §4.5).
type NodalBalance struct {
	Bus      int
	Snapshot int
	Handle   solver.Constraint
}

// BoundPair is a lower/upper bound constraint pair on a dispatch
// variable at one snapshot; Benders mutates Lower/Upper's RHS in place
// from master values (spec §4.4.3).
type BoundPair struct {
	AssetIndex int
	Snapshot   int
	Lower      solver.Constraint
	Upper      solver.Constraint
}

// StorageVars are the four per-(asset,snapshot) variables a storage
// recurrence needs.
type StorageVars struct {
	Dispatch solver.Variable
	Store    solver.Variable
	SOC      solver.Variable
	Spill    solver.Variable
}

// Model is the assembled result of Build: a solver.Model plus the
// index tables needed to write a solution back into a Network and, for
// Benders, to push master values into slave RHS.
type Model struct {
	Solver  solver.Model
	Net     network.Network
	Opts    BuildOptions
	BusIdx  map[string]int
	Cycles  []network.Cycle
	PTDF    *network.PTDFResult

	// Partitions (fixed-first ordering) per asset type.
	LinePart network.Partition
	Lines    []network.Line // re-ordered per LinePart
	LinkPart network.Partition
	Links    []network.Link
	GenPart  network.Partition
	Gens     []network.Generator
	SUPart   network.Partition
	SUs      []network.StorageUnit
	STPart   network.Partition
	STs      []network.Store

	// Investment variables (extendable subset only, fixed-first ordering
	// means these index the tail of each partition).
	GPNom  []solver.Variable // len GenPart.NumExt
	LNSNom []solver.Variable // len LinePart.NumExt; a solver variable for every investment_type, tied to LN_inv/LN_opt by an equality row (see variables.go)
	LNInv  []solver.Variable
	LNOpt  [][]solver.Variable // per extendable line, per candidate (integer_bigm/binary)
	LKPNom []solver.Variable
	SUPNom []solver.Variable
	STENom []solver.Variable

	// Operation variables, keyed by position in the (reordered) asset
	// slice and by position within Opts.Snapshots.Indices.
	G     [][]solver.Variable // [genIdx][snapshotPos]
	LN    [][]solver.Variable // [lineIdx][snapshotPos]
	LK    [][]solver.Variable // [linkIdx][snapshotPos]
	Theta [][]solver.Variable // [busIdx][snapshotPos], angle formulations only
	SU    [][]StorageVars     // [suIdx][snapshotPos]
	ST    [][]StorageVars     // [stIdx][snapshotPos]

	Alpha []solver.Variable // master only, len Opts.NGroups

	GBounds  [][]BoundPair // per extendable generator, per snapshot
	LNBounds [][]BoundPair
	LKBounds [][]BoundPair

	NodalBalances []NodalBalance

	// Coupled constraint set pushed from master values in Benders (spec
	// §4.7 step 3): slave role only.
	Coupled []CoupledConstraint
}

// CoupledFamily names which master investment-variable array a slave
// constraint's RHS is driven by (spec §4.7 step 3).
type CoupledFamily int

const (
	CoupledGPNom CoupledFamily = iota
	CoupledLNSNom
	CoupledLKPNom
)

// CoupledConstraint names a slave constraint whose RHS is driven by a
// master investment variable, plus the coefficient linking them (spec
// §4.7 step 3: rhs = rescaling * coefficient * master_var_value).
// AssetIndex indexes the extendable-only investment arrays (GPNom,
// LNSNom, LKPNom) of the *master* Model, which benders.go resolves at
// push time — a slave Model never holds investment variables of its
// own (role=slave skips buildInvestmentVariables).
type CoupledConstraint struct {
	Handle      solver.Constraint
	Family      CoupledFamily
	AssetIndex  int
	Coefficient float64
	Rescale     float64
}
