// Command lopf is a smoke-test driver, grounded on cmd/cgc/main.go's
// build-then-run shape: it assembles the 5-bus meshed AC-DC example
// network from spec §8's Scenarios, then exercises the monolithic,
// iterative and Benders solve paths against it. Out of scope per spec
// §1 ("CLI/REPL entry points"); kept only so the packages above have a
// runnable entry point the way the teacher keeps cmd/cgc for its own
// engine.
package main

import (
	"log"

	"github.com/ohowland/cgc_lopf/internal/pkg/benders"
	"github.com/ohowland/cgc_lopf/internal/pkg/iterative"
	"github.com/ohowland/cgc_lopf/internal/pkg/lopf"
	"github.com/ohowland/cgc_lopf/internal/pkg/lopfmodel"
	"github.com/ohowland/cgc_lopf/internal/pkg/network"
	"github.com/ohowland/cgc_lopf/internal/pkg/rescale"
	"github.com/ohowland/cgc_lopf/internal/pkg/solver/highs"
)

func main() {
	log.Println("[Main] Building ac-dc-meshed network")
	net := buildACDCMeshed()

	// The iterative and Benders paths mutate Lines in place (reactance
	// updates, RHS pushes), so each run gets its own copy of the line
	// table rather than sharing buildACDCMeshed's backing array.
	log.Println("[Main] Running monolithic LOPF")
	runMonolithic(cloneNet(net))

	log.Println("[Main] Running iterative LOPF")
	runIterative(cloneNet(net))

	log.Println("[Main] Running lazy Benders LOPF")
	runBenders(cloneNet(net))
}

func cloneNet(net network.Network) network.Network {
	clone := net
	clone.Lines = append([]network.Line(nil), net.Lines...)
	clone.Links = append([]network.Link(nil), net.Links...)
	clone.Generators = append([]network.Generator(nil), net.Generators...)
	return clone
}

// buildACDCMeshed is the 5-bus meshed AC-DC dataset spec §8 names:
// three AC buses in a meshed triangle, one DC bus bridged by a link,
// and a fifth radial AC bus. The extendable line L02 closes the
// triangle, its only loop, so both the Kirchhoff and PTDF formulations
// have a real cycle to agree over.
func buildACDCMeshed() network.Network {
	return network.Network{
		Buses: []network.Bus{
			{ID: "ac0", VNom: 1}, {ID: "ac1", VNom: 1}, {ID: "ac2", VNom: 1},
			{ID: "dc0", VNom: 1}, {ID: "ac3", VNom: 1},
		},
		Lines: []network.Line{
			{ID: "L01", Bus0: "ac0", Bus1: "ac1", X: 0.1, SNom: 150, SMaxPU: 1, Length: 20, NumParallel: 1},
			{ID: "L12", Bus0: "ac1", Bus1: "ac2", X: 0.1, SNom: 150, SMaxPU: 1, Length: 20, NumParallel: 1},
			{
				ID: "L02", Bus0: "ac0", Bus1: "ac2", X: 0.15, SNom: 100, SMaxPU: 1, Length: 25,
				SNomExtendable: true, SNomMin: 100, SNomMax: 300, SNomExtMin: 0, CapitalCost: 8, NumParallel: 1,
			},
			{ID: "L23", Bus0: "ac2", Bus1: "ac3", X: 0.2, SNom: 80, SMaxPU: 1, Length: 15, NumParallel: 1},
		},
		Links: []network.Link{
			{ID: "K0", Bus0: "ac1", Bus1: "dc0", PNom: 100, PMinPU: -1, PMaxPU: 1, Efficiency: 0.97, CapitalCost: 6},
		},
		Generators: []network.Generator{
			{ID: "Gthermal", Bus: "ac0", PNom: 300, PMaxPU: 1, MarginalCost: 25, Carrier: "gas"},
			{ID: "Gwind", Bus: "dc0", PNom: 120, PMaxPU: 0.45, MarginalCost: 0, Carrier: "wind"},
			{
				ID: "Gpeak", Bus: "ac3", PNomExtendable: true, PNomMax: 200, PMaxPU: 1, MarginalCost: 40,
				CapitalCost: 5, Carrier: "gas",
			},
		},
		Storage: []network.StorageUnit{
			{
				ID: "SU0", Bus: "ac2", PNom: 50, EfficiencyStore: 0.95, EfficiencyDispatch: 0.95,
				MaxHours: 4, MarginalCost: 0.1, CyclicStateOfCharge: true,
			},
		},
		Loads: []network.Load{
			{ID: "load-ac1", Bus: "ac1", P: []float64{120, 150, 90}},
			{ID: "load-ac3", Bus: "ac3", P: []float64{60, 70, 65}},
		},
		Carriers: []network.Carrier{
			{Name: "gas", CO2Emissions: 0.4},
			{Name: "wind", CO2Emissions: 0},
		},
		Globals: []network.GlobalConstraint{
			{Name: network.CO2Limit, Constant: 400},
		},
		Snapshots: []network.Snapshot{
			{Index: 0, Weighting: 8}, {Index: 1, Weighting: 8}, {Index: 2, Weighting: 8},
		},
		SBase: 1,
	}
}

func runMonolithic(net network.Network) {
	factory := highs.NewBackend(0, 1e-8)
	opts := lopfmodel.BuildOptions{
		Formulation:    lopfmodel.AnglesLinear,
		InvestmentType: lopfmodel.Continuous,
		Rescale:        rescale.Default(),
	}
	result, err := lopf.Run(&net, factory, opts)
	if err != nil {
		log.Printf("[Main] monolithic run failed: %v", err)
		return
	}
	log.Printf("[Main] monolithic status=%s objective=%.4f", result.Status, result.Objective)
}

func runIterative(net network.Network) {
	factory := highs.NewBackend(0, 1e-8)
	opts := lopfmodel.BuildOptions{
		Formulation:    lopfmodel.AnglesLinear,
		InvestmentType: lopfmodel.Continuous,
		Rescale:        rescale.Default(),
	}
	iterOpts := iterative.Options{
		Iterations:                 4,
		SeqDiscretization:          true,
		SeqDiscretizationThreshold: 0.3,
		PostDiscretization:         true,
		DiscretizationThresholds:   []float64{0.2, 0.3, 0.4},
	}
	result, err := iterative.Run(&net, factory, opts, iterOpts, lopf.Run)
	if err != nil {
		log.Printf("[Main] iterative run failed: %v", err)
		return
	}
	for _, tr := range result.Traces {
		log.Printf("[Main] iterative k=%d status=%s objective=%.4f", tr.Iteration, tr.Status, tr.Objective)
	}
}

func runBenders(net network.Network) {
	factory := highs.NewBackend(0, 1e-8)
	opts := lopfmodel.BuildOptions{
		Formulation:    lopfmodel.AnglesLinear,
		InvestmentType: lopfmodel.Continuous,
		Rescale:        rescale.Default(),
	}
	d, err := benders.New(&net, factory, opts, benders.Options{
		SplitSubproblems: true,
		IndividualCuts:   true,
		Tolerance:        100.0,
	})
	if err != nil {
		log.Printf("[Main] benders setup failed: %v", err)
		return
	}
	result, err := d.Run()
	if err != nil {
		log.Printf("[Main] benders run failed: %v", err)
		return
	}
	log.Printf("[Main] benders status=%s objective=%.4f iterations=%d", result.Status, result.Objective, result.Iterations)
}
