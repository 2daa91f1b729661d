package lopfmodel

import (
	"fmt"

	"github.com/ohowland/cgc_lopf/internal/pkg/network"
	"github.com/ohowland/cgc_lopf/internal/pkg/solver"
)

// Build assembles a Model from net according to opts (spec §4.4). It
// is the single entry point all three runners (monolithic, iterative,
// benders) call with different Role/Snapshots/InvestmentType values.
func Build(net network.Network, factory solver.Factory, opts BuildOptions) (*Model, error) {
	if opts.InvestmentType == "" {
		opts.InvestmentType = Continuous
	}
	if opts.Formulation == "" {
		opts.Formulation = AnglesLinear
	}
	if err := validate(net, opts); err != nil {
		return nil, err
	}

	kind := solver.LPKind
	if opts.InvestmentType != Continuous {
		kind = solver.MIPKind
	}
	sm, err := factory.NewModel(kind)
	if err != nil {
		return nil, err
	}

	linePart, lines := network.PartitionLines(net.Lines)
	linkPart, links := network.PartitionLinks(net.Links)
	genPart, gens := network.PartitionGenerators(net.Generators)
	suPart, sus := network.PartitionStorage(net.Storage)
	stPart, sts := network.PartitionStores(net.Stores)

	m := &Model{
		Solver:   sm,
		Net:      net,
		Opts:     opts,
		BusIdx:   net.BusIndex(),
		LinePart: linePart,
		Lines:    lines,
		LinkPart: linkPart,
		Links:    links,
		GenPart:  genPart,
		Gens:     gens,
		SUPart:   suPart,
		SUs:      sus,
		STPart:   stPart,
		STs:      sts,
	}

	if opts.Formulation == KirchhoffLinear || opts.Formulation == KirchhoffBilinear {
		cycles := network.FundamentalCycles(len(net.Buses), lines, m.BusIdx)
		m.Cycles = cycles
	}
	if opts.Formulation == PTDF {
		// ComputePTDF must see lines in the same (fixed-first) order as
		// m.Lines, since flows.go indexes PTDF.Matrix rows by position
		// in m.Lines, not net.Lines.
		reordered := net
		reordered.Lines = lines
		res := network.ComputePTDF(reordered)
		m.PTDF = &res
	}

	if opts.Role != Slave {
		m.buildInvestmentVariables()
	}
	if opts.Role != Master {
		m.buildOperationVariables()
		if err := m.buildBounds(); err != nil {
			return nil, err
		}
		if err := m.buildStorageRecurrences(); err != nil {
			return nil, err
		}
		if err := m.buildFlowCoupling(); err != nil {
			return nil, err
		}
	}
	if opts.Role != Slave {
		m.buildMasterAlpha()
	}

	snapIdx := opts.Snapshots.Indices(net)
	isLastSlice := opts.Role != Master // global constraints are emitted once per Model, which for role=master means never (master has no operation variables to constrain)
	if isLastSlice {
		m.buildGlobalConstraints(snapIdx)
	}

	m.buildObjective(snapIdx)

	return m, nil
}

func validate(net network.Network, opts BuildOptions) error {
	if opts.InvestmentType == IntegerBigM && opts.Formulation != AnglesLinearIntegerBigM {
		return &ConfigurationError{Msg: "investment_type=integer_bigm requires formulation=angles_linear_integer_bigm"}
	}
	if opts.Formulation == AnglesBilinear || opts.Formulation == KirchhoffBilinear {
		return &ConfigurationError{Msg: fmt.Sprintf("formulation %s requires a nonlinear backend, which is not wired", opts.Formulation)}
	}
	if opts.Role == Slave && opts.Snapshots.All && len(net.Snapshots) > 1 {
		// allowed: a single combined slave (split_subproblems=false); not an error.
		_ = net
	}
	if opts.NGroups <= 0 && opts.Role == Master {
		return &ConfigurationError{Msg: "N_groups must be >= 1 for a master model"}
	}
	return nil
}

// ConfigurationError signals an incompatible option combination,
// detected before any solver call (spec §7).
type ConfigurationError struct{ Msg string }

func (e *ConfigurationError) Error() string { return "configuration error: " + e.Msg }
