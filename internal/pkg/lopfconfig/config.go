// Package lopfconfig is the JSON-configured options surface callers
// use to parameterize a LOPF run, grounded on the teacher's
// MachineConfig/json.Unmarshal convention
// (internal/pkg/asset/ess/ess.go's Config/MachineConfig).
package lopfconfig

import (
	"encoding/json"
	"os"

	"github.com/ohowland/cgc_lopf/internal/pkg/benders"
	"github.com/ohowland/cgc_lopf/internal/pkg/iterative"
	"github.com/ohowland/cgc_lopf/internal/pkg/lopfmodel"
	"github.com/ohowland/cgc_lopf/internal/pkg/rescale"
)

// Config is the full set of recognized options (spec §6 Configuration).
type Config struct {
	Formulation    string `json:"formulation"`
	InvestmentType string `json:"investment_type"`
	Rescaling      bool   `json:"rescaling"`
	Blockmodel     bool   `json:"blockmodel"`
	Decomposition  string `json:"decomposition"`

	Iterations                 int       `json:"iterations"`
	PostDiscretization         bool      `json:"post_discretization"`
	SeqDiscretization          bool      `json:"seq_discretization"`
	SeqDiscretizationThreshold float64   `json:"seq_discretization_threshold"`
	DiscretizationThresholds   []float64 `json:"discretization_thresholds"`

	SplitSubproblems bool    `json:"split_subproblems"`
	IndividualCuts   bool    `json:"individualcuts"`
	Tolerance        float64 `json:"tolerance"`
	MIPGap           float64 `json:"mip_gap"`
	BigM             float64 `json:"bigM"`
	UpdateX          bool    `json:"update_x"`
}

// Load reads and unmarshals a Config from path (spec §6: caller owns
// the on-disk format; the engine only consumes the in-memory value).
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return Config{}, err
	}
	c.applyDefaults()
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Formulation == "" {
		c.Formulation = string(lopfmodel.AnglesLinear)
	}
	if c.InvestmentType == "" {
		c.InvestmentType = string(lopfmodel.Continuous)
	}
	if c.SeqDiscretizationThreshold == 0 {
		c.SeqDiscretizationThreshold = 0.3
	}
	if len(c.DiscretizationThresholds) == 0 {
		c.DiscretizationThresholds = []float64{0.2, 0.3}
	}
	if c.Tolerance == 0 {
		c.Tolerance = 100.0
	}
	if c.MIPGap == 0 {
		c.MIPGap = 1e-8
	}
	if c.BigM == 0 {
		c.BigM = 1e12
	}
}

// Validate checks for incompatible option combinations before any
// solver call (spec §7 ConfigurationError).
func (c Config) Validate() error {
	if c.InvestmentType == string(lopfmodel.IntegerBigM) && c.Formulation != string(lopfmodel.AnglesLinearIntegerBigM) {
		return &ConfigurationError{Msg: "investment_type=integer_bigm requires formulation=angles_linear_integer_bigm"}
	}
	if c.UpdateX && c.InvestmentType == string(lopfmodel.IntegerBigM) {
		return &ConfigurationError{Msg: "update_x is incompatible with investment_type=integer_bigm"}
	}
	if c.Blockmodel && c.Decomposition != "" {
		return &ConfigurationError{Msg: "blockmodel requires an empty decomposition"}
	}
	if c.Decomposition != "" && c.Decomposition != "benders" {
		return &ConfigurationError{Msg: "unrecognized decomposition: " + c.Decomposition}
	}
	return nil
}

// ModelOptions projects Config onto a lopfmodel.BuildOptions for the
// monolithic/iterative runners (Role and Snapshots are set by the
// caller per spec §4.4, not derived here).
func (c Config) ModelOptions() lopfmodel.BuildOptions {
	return lopfmodel.BuildOptions{
		Formulation:    lopfmodel.Formulation(c.Formulation),
		InvestmentType: lopfmodel.InvestmentType(c.InvestmentType),
		BigM:           c.BigM,
		Rescale:        rescale.ForConfig(c.Rescaling),
	}
}

// IterativeOptions projects Config onto an iterative.Options.
func (c Config) IterativeOptions() iterative.Options {
	return iterative.Options{
		Iterations:                 c.Iterations,
		SeqDiscretization:          c.SeqDiscretization,
		SeqDiscretizationThreshold: c.SeqDiscretizationThreshold,
		PostDiscretization:         c.PostDiscretization,
		DiscretizationThresholds:   c.DiscretizationThresholds,
		Rescale:                    c.Rescaling,
	}
}

// BendersOptions projects Config onto a benders.Options.
func (c Config) BendersOptions() benders.Options {
	return benders.Options{
		SplitSubproblems: c.SplitSubproblems,
		IndividualCuts:   c.IndividualCuts,
		Tolerance:        c.Tolerance,
		MIPGap:           c.MIPGap,
		BigM:             c.BigM,
		UpdateX:          c.UpdateX,
	}
}
