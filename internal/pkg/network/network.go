// Package network holds the in-memory data model of the power system
// the LOPF engine solves over: buses, branches, controllable assets,
// and the snapshot horizon. It is read-only during a solve; between
// solves the monolithic runner writes results back into it, and the
// iterative, discretization and Benders (update_x) runners change line
// data in place.
package network

import "github.com/google/uuid"

// Bus is a topology node. Buses are read-only for the lifetime of a solve.
type Bus struct {
	PID  uuid.UUID
	ID   string
	Name string
	VNom float64 // nominal voltage, kV; used for per-unit conversion

	MarginalPrice []float64 // per snapshot, written back from nodal duals (spec §4.5)
}

// Line is an AC transmission branch. Its X, SNom, SNomExtendable,
// SNomOpt and NumParallel fields are mutated in place by the iterative
// and discretization runners between solves.
type Line struct {
	PID  uuid.UUID
	ID   string
	Bus0 string
	Bus1 string

	X float64 // reactance, ohms
	R float64 // resistance, ohms

	SNom           float64
	SNomMin        float64
	SNomMax        float64
	SNomExtendable bool
	SNomExtMin     float64
	SNomOpt        float64

	NumParallel float64
	SMaxPU      float64
	Length      float64
	CapitalCost float64

	FlowSeries []float64 // per snapshot, written back (spec §4.5)
}

// Link is a controllable DC branch.
type Link struct {
	PID  uuid.UUID
	ID   string
	Bus0 string
	Bus1 string

	PNom           float64
	PNomMin        float64
	PNomMax        float64
	PNomExtendable bool
	PNomOpt        float64

	PMinPU     float64
	PMaxPU     float64
	Efficiency float64

	CapitalCost float64

	FlowSeries []float64 // per snapshot, written back (spec §4.5)
}

// Generator is a controllable injection at a single bus.
type Generator struct {
	PID     uuid.UUID
	ID      string
	Bus     string
	Carrier string

	PNom           float64
	PNomMin        float64
	PNomMax        float64
	PNomExtendable bool
	PNomOpt        float64
	Commitable     bool

	// PMinPU/PMaxPU may be a scalar (PMinPUSeries/PMaxPUSeries empty)
	// or snapshot-indexed (len == len(Snapshots)).
	PMinPU       float64
	PMaxPU       float64
	PMinPUSeries []float64
	PMaxPUSeries []float64

	MarginalCost float64
	CapitalCost  float64
	Efficiency   float64

	DispatchSeries []float64 // per snapshot, written back (spec §4.5)
}

// PMinPUAt returns the per-unit minimum dispatch bound at snapshot t.
func (g Generator) PMinPUAt(t int) float64 {
	if len(g.PMinPUSeries) > t {
		return g.PMinPUSeries[t]
	}
	return g.PMinPU
}

// PMaxPUAt returns the per-unit maximum dispatch bound at snapshot t.
func (g Generator) PMaxPUAt(t int) float64 {
	if len(g.PMaxPUSeries) > t {
		return g.PMaxPUSeries[t]
	}
	return g.PMaxPU
}

// StorageUnit is a single-variable (power-only) storage asset; its
// energy capacity is implied by PNom*MaxHours.
type StorageUnit struct {
	PID uuid.UUID
	ID  string
	Bus string

	PNom           float64
	PNomExtendable bool
	PNomOpt        float64
	PMinPU         float64
	PMaxPU         float64
	MaxHours       float64

	CyclicStateOfCharge  bool
	StateOfChargeInitial float64
	EfficiencyStore      float64
	EfficiencyDispatch   float64
	Inflow               []float64 // length T

	MarginalCost float64
	CapitalCost  float64

	DispatchSeries []float64 // per snapshot, written back (spec §4.5)
	StoreSeries    []float64
	SOCSeries      []float64
	SpillSeries    []float64
}

// Store is a pure energy reservoir (its own nominal energy capacity,
// not derived from a power rating).
type Store struct {
	PID uuid.UUID
	ID  string
	Bus string

	ENom           float64
	ENomExtendable bool
	ENomOpt        float64
	EMinPU         float64
	EMaxPU         float64
	MaxHours       float64

	CyclicStateOfCharge  bool
	StateOfChargeInitial float64
	EfficiencyStore      float64
	EfficiencyDispatch   float64
	Inflow               []float64

	MarginalCost float64
	CapitalCost  float64

	DispatchSeries []float64 // per snapshot, written back (spec §4.5)
	StoreSeries    []float64
	SOCSeries      []float64
	SpillSeries    []float64
}

// Load is an inelastic withdrawal at a bus, one value per snapshot.
type Load struct {
	PID uuid.UUID
	ID  string
	Bus string
	P   []float64 // length T
}

// Carrier names a generation technology and its emissions factor.
type Carrier struct {
	Name         string
	CO2Emissions float64 // tonnes CO2 per MWh thermal
}

// GlobalConstraintKind enumerates the supported policy constraint families.
type GlobalConstraintKind string

const (
	CO2Limit       GlobalConstraintKind = "co2_limit"
	MWKMLimit      GlobalConstraintKind = "mwkm_limit"
	RESTarget      GlobalConstraintKind = "restarget"
	ApproxRESTarget GlobalConstraintKind = "approx_restarget"
)

// GlobalConstraint is a system-wide policy constraint.
type GlobalConstraint struct {
	Name     GlobalConstraintKind
	Constant float64
}

// Snapshot is a single weighted time slice.
type Snapshot struct {
	Index     int
	Weighting float64
}

// Network is the complete in-memory power-system dataset the builder
// consumes. Ownership stays with the caller; the engine never loads
// or persists it.
type Network struct {
	Buses     []Bus
	Lines     []Line
	Links     []Link
	Generators []Generator
	Storage   []StorageUnit
	Stores    []Store
	Loads     []Load
	Carriers  []Carrier
	Globals   []GlobalConstraint
	Snapshots []Snapshot

	SBase float64 // MVA base for per-unit conversion, default 1.0
}

// BusIndex returns a name->slice-index lookup for Buses, built fresh
// each call (Network is small and read mostly during construction).
func (n Network) BusIndex() map[string]int {
	idx := make(map[string]int, len(n.Buses))
	for i, b := range n.Buses {
		idx[b.ID] = i
	}
	return idx
}

// CarrierByName returns the Carrier with the given name and whether it exists.
func (n Network) CarrierByName(name string) (Carrier, bool) {
	for _, c := range n.Carriers {
		if c.Name == name {
			return c, true
		}
	}
	return Carrier{}, false
}

// Global returns the named GlobalConstraint, if present.
func (n Network) Global(kind GlobalConstraintKind) (GlobalConstraint, bool) {
	for _, g := range n.Globals {
		if g.Name == kind {
			return g, true
		}
	}
	return GlobalConstraint{}, false
}
