// Package rescale holds the numeric preconditioning table applied
// uniformly to selected constraint families when emitting coefficients
// (spec §4.2). The constants are a solver-numerics tuning knob; they
// never change feasibility.
package rescale

// Table is a named set of positive coefficients, one per rescaled
// constraint family.
type Table struct {
	BoundsG         float64
	BoundsLN        float64
	BoundsLK        float64
	Flows           float64
	ApproxRESTarget float64
	BendersCut      float64
}

// Default is the all-ones table used when rescaling is disabled.
func Default() Table {
	return Table{
		BoundsG:         1,
		BoundsLN:        1,
		BoundsLK:        1,
		Flows:           1,
		ApproxRESTarget: 1,
		BendersCut:      1,
	}
}

// Tuned is the table applied when Config.Rescaling is set, chosen to
// bring per-unit coefficients for MW-scale quantities and per-km
// capital-cost quantities onto comparable solver scales.
func Tuned() Table {
	return Table{
		BoundsG:         1e-1,
		BoundsLN:        1e-1,
		BoundsLK:        1e-1,
		Flows:           1e-1,
		ApproxRESTarget: 1e-2,
		BendersCut:      1e-1,
	}
}

// ForConfig returns Tuned() when enabled is true, else Default().
func ForConfig(enabled bool) Table {
	if enabled {
		return Tuned()
	}
	return Default()
}

// ClampRHS implements the Benders numerical-hygiene contract (spec
// §4.7 step 3, Design Notes): RHS magnitudes below 1e-4 are clamped to
// zero rather than pushed into the slave as noise.
func ClampRHS(v float64) float64 {
	if v < 1e-4 && v > -1e-4 {
		return 0
	}
	return v
}
