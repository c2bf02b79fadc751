package cli

import (
	"os"
	"testing"

	"github.com/watermsx/msx"
)

func writeConfigFixture(t *testing.T, body string) string {
	t.Helper()
	path := t.TempDir() + "/run.toml"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("os.WriteFile() error: %v", err)
	}
	return path
}

func TestLoadRunConfigDecodesFields(t *testing.T) {
	path := writeConfigFixture(t, `
hydraulics_file = "hyd.bin"
results_file = "results.bin"
qstep = 120
duration = 3600
solver = "RK5"
coupling = "FULL"
area_units = "M2"
rate_units = "DAY"
`)
	cfg, err := LoadRunConfig(path)
	if err != nil {
		t.Fatalf("LoadRunConfig() error: %v", err)
	}
	if cfg.HydraulicsFile != "hyd.bin" || cfg.ResultsFile != "results.bin" {
		t.Errorf("file paths = %+v", cfg)
	}
	if cfg.Qstep != 120 || cfg.Duration != 3600 {
		t.Errorf("run parameters = %+v", cfg)
	}

	opts, err := cfg.Options()
	if err != nil {
		t.Fatalf("Options() error: %v", err)
	}
	if opts.SolverOpt != msx.RK5 {
		t.Errorf("SolverOpt = %v, want RK5", opts.SolverOpt)
	}
	if opts.Coupling != msx.FULL {
		t.Errorf("Coupling = %v, want FULL", opts.Coupling)
	}
	if opts.AreaUnits != msx.AreaM2 {
		t.Errorf("AreaUnits = %v, want AreaM2", opts.AreaUnits)
	}
	if opts.RateUnits != msx.RateDay {
		t.Errorf("RateUnits = %v, want RateDay", opts.RateUnits)
	}
	if opts.Qstep != 120 {
		t.Errorf("Options().Qstep = %v, want 120", opts.Qstep)
	}
}

func TestOptionsFallsBackToDefaultsWhenUnset(t *testing.T) {
	cfg := &RunConfig{}
	opts, err := cfg.Options()
	if err != nil {
		t.Fatalf("Options() error: %v", err)
	}
	def := msx.DefaultOptions()
	if opts.Qstep != def.Qstep || opts.SolverOpt != def.SolverOpt || opts.Coupling != def.Coupling {
		t.Errorf("Options() with empty config = %+v, want defaults %+v", opts, def)
	}
}

func TestOptionsRejectsUnknownSolver(t *testing.T) {
	cfg := &RunConfig{Solver: "BOGUS"}
	if _, err := cfg.Options(); err == nil {
		t.Errorf("Options() with unknown solver succeeded, want error")
	}
}

func TestLoadRunConfigRejectsMissingFile(t *testing.T) {
	if _, err := LoadRunConfig("/nonexistent/run.toml"); err == nil {
		t.Errorf("LoadRunConfig(missing file) succeeded, want error")
	}
}
