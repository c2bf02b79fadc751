// Package cli wires the quality engine into a cobra/viper command
// line: a root command with persistent config flags, a toml-decoded
// run configuration, and one subcommand per operation.
package cli

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/watermsx/msx"
)

// RunConfig is the toml-decoded description of one simulation run:
// where its hydraulics come from, where its output goes, and the
// engine options to run with. Network topology and chemistry are
// built through the msx package's API by the embedding application,
// not parsed from this file: this package carries no topology or
// chemistry text-format parser.
type RunConfig struct {
	HydraulicsFile string `toml:"hydraulics_file"`
	ResultsFile    string `toml:"results_file"`
	TextReportFile string `toml:"text_report_file"`

	Qstep    float64 `toml:"qstep"`
	Rstep    float64 `toml:"rstep"`
	Rstart   float64 `toml:"rstart"`
	Duration float64 `toml:"duration"`
	RTol     float64 `toml:"rtol"`
	ATol     float64 `toml:"atol"`

	Solver    string `toml:"solver"`   // "EUL", "RK5", "ROS2"
	Coupling  string `toml:"coupling"` // "NONE", "FULL"
	AreaUnits string `toml:"area_units"`
	RateUnits string `toml:"rate_units"`
}

// LoadRunConfig decodes a toml run configuration from path.
func LoadRunConfig(path string) (*RunConfig, error) {
	cfg := &RunConfig{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("msx/cli: decode run config %q: %w", path, err)
	}
	return cfg, nil
}

// Options converts the toml configuration to the engine's own Options
// value, falling back to DefaultOptions for anything left zero.
func (c *RunConfig) Options() (msx.Options, error) {
	opts := msx.DefaultOptions()
	if c.Qstep > 0 {
		opts.Qstep = c.Qstep
	}
	if c.Rstep > 0 {
		opts.Rstep = c.Rstep
	}
	opts.Rstart = c.Rstart
	if c.Duration > 0 {
		opts.Duration = c.Duration
	}
	if c.RTol > 0 {
		opts.RTol = c.RTol
	}
	if c.ATol > 0 {
		opts.ATol = c.ATol
	}

	if c.Solver != "" {
		s, err := parseSolver(c.Solver)
		if err != nil {
			return opts, err
		}
		opts.SolverOpt = s
	}
	if c.Coupling != "" {
		cp, err := parseCoupling(c.Coupling)
		if err != nil {
			return opts, err
		}
		opts.Coupling = cp
	}
	if c.AreaUnits != "" {
		au, err := parseAreaUnits(c.AreaUnits)
		if err != nil {
			return opts, err
		}
		opts.AreaUnits = au
	}
	if c.RateUnits != "" {
		ru, err := parseRateUnits(c.RateUnits)
		if err != nil {
			return opts, err
		}
		opts.RateUnits = ru
	}
	return opts, nil
}

func parseAreaUnits(s string) (msx.AreaUnits, error) {
	switch s {
	case "FT2":
		return msx.AreaFT2, nil
	case "M2":
		return msx.AreaM2, nil
	default:
		return 0, fmt.Errorf("msx/cli: unknown area units %q", s)
	}
}

func parseRateUnits(s string) (msx.RateUnits, error) {
	switch s {
	case "SECOND":
		return msx.RateSecond, nil
	case "MINUTE":
		return msx.RateMinute, nil
	case "HOUR":
		return msx.RateHour, nil
	case "DAY":
		return msx.RateDay, nil
	default:
		return 0, fmt.Errorf("msx/cli: unknown rate units %q", s)
	}
}

func parseSolver(s string) (msx.Solver, error) {
	switch s {
	case "EUL":
		return msx.EUL, nil
	case "RK5":
		return msx.RK5, nil
	case "ROS2":
		return msx.ROS2, nil
	default:
		return 0, fmt.Errorf("msx/cli: unknown solver %q", s)
	}
}

func parseCoupling(s string) (msx.Coupling, error) {
	switch s {
	case "NONE":
		return msx.NONE, nil
	case "FULL":
		return msx.FULL, nil
	default:
		return 0, fmt.Errorf("msx/cli: unknown coupling %q", s)
	}
}
