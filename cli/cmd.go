package cli

import (
	"fmt"
	"io"
	"os"

	msxio "github.com/watermsx/msx/io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/watermsx/msx"
)

// Version is the engine version string reported by the version
// subcommand, overridable at link time with -ldflags.
var Version = "dev"

// ProjectBuilder populates a freshly Open-ed project's topology and
// chemistry. The embedding application supplies one; this package
// never parses a topology file itself (see RunConfig's doc comment).
type ProjectBuilder func(*msx.Project) error

// Cfg holds the cobra/viper wiring for the msx command line: a root
// command plus one struct field per subcommand.
type Cfg struct {
	v    *viper.Viper
	Root *cobra.Command

	runCmd      *cobra.Command
	validateCmd *cobra.Command
	versionCmd  *cobra.Command

	build ProjectBuilder
	log   logrus.FieldLogger
}

// NewCfg builds the root command and its subcommands, ready for
// Execute. build supplies the network topology and chemistry for
// every run.
func NewCfg(build ProjectBuilder, log logrus.FieldLogger) *Cfg {
	if log == nil {
		log = logrus.StandardLogger()
	}
	cfg := &Cfg{v: viper.New(), build: build, log: log}

	cfg.Root = &cobra.Command{
		Use:               "msx",
		Short:             "A multi-species pipe-network water-quality simulation engine.",
		DisableAutoGenTag: true,
	}
	cfg.Root.PersistentFlags().String("config", "", "path to a toml run configuration")
	cfg.v.BindPFlag("config", cfg.Root.PersistentFlags().Lookup("config"))

	cfg.versionCmd = &cobra.Command{
		Use:               "version",
		Short:             "Print the version number.",
		DisableAutoGenTag: true,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "msx v%s\n", Version)
		},
	}

	cfg.validateCmd = &cobra.Command{
		Use:               "validate",
		Short:             "Build and finish-init the project without running it.",
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := cfg.newProject(nil)
			if err != nil {
				return err
			}
			defer proj.Close()
			cmd.Println("project is valid")
			return nil
		},
	}

	cfg.runCmd = &cobra.Command{
		Use:               "run",
		Short:             "Run a simulation to completion.",
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			runCfg, err := cfg.loadRunConfig()
			if err != nil {
				return err
			}
			return cfg.run(cmd.OutOrStdout(), runCfg)
		},
	}

	cfg.Root.AddCommand(cfg.versionCmd, cfg.validateCmd, cfg.runCmd)
	return cfg
}

func (cfg *Cfg) loadRunConfig() (*RunConfig, error) {
	path := cfg.v.GetString("config")
	if path == "" {
		return nil, fmt.Errorf("msx/cli: --config is required")
	}
	return LoadRunConfig(path)
}

// newProject opens and builds a project, applies opts (when non-nil)
// before FinishInit so its unit conversions take effect, and
// finish-inits it.
func (cfg *Cfg) newProject(opts *msx.Options) (*msx.Project, error) {
	proj := msx.New(cfg.log)
	if err := proj.Open(); err != nil {
		return nil, err
	}
	if err := cfg.build(proj); err != nil {
		return nil, fmt.Errorf("msx/cli: building project: %w", err)
	}
	if opts != nil {
		if err := proj.SetOptions(*opts); err != nil {
			return nil, err
		}
	}
	if err := proj.FinishInit(); err != nil {
		return nil, err
	}
	return proj, nil
}

// run drives one simulation end to end: build the project, apply the
// run configuration's options, open and initialize the quality model,
// then alternate feeding hydraulic snapshots and stepping the quality
// clock until Opts.Duration elapses.
func (cfg *Cfg) run(out io.Writer, runCfg *RunConfig) error {
	opts, err := runCfg.Options()
	if err != nil {
		return err
	}

	proj, err := cfg.newProject(&opts)
	if err != nil {
		return err
	}
	defer proj.Close()

	if err := proj.QualOpen(); err != nil {
		return err
	}
	if err := proj.QualInit(); err != nil {
		return err
	}

	var results *msxio.ResultsWriter
	if runCfg.ResultsFile != "" {
		results, err = msxio.CreateResultsWriter(runCfg.ResultsFile, len(proj.Species)-1)
		if err != nil {
			return err
		}
		defer results.Close()
		proj.RegisterResultsWriter(results)
	}

	var reportFile *os.File
	if runCfg.TextReportFile != "" {
		reportFile, err = os.Create(runCfg.TextReportFile)
		if err != nil {
			return fmt.Errorf("msx/cli: create text report: %w", err)
		}
		defer reportFile.Close()
	}

	hyd, err := msxio.OpenHydraulicsReader(runCfg.HydraulicsFile)
	if err != nil {
		return err
	}
	defer hyd.Close()

	inst, err := hyd.Next()
	if err != nil {
		return fmt.Errorf("msx/cli: hydraulics file has no instants: %w", err)
	}
	if err := proj.SetHydraulics(inst.Time, inst.Demands, inst.Heads, inst.Flows); err != nil {
		return err
	}

	for {
		t, tleft, err := proj.Step()
		if err != nil {
			return err
		}
		if reportFile != nil {
			if err := writeTextReportInstant(proj, reportFile, t); err != nil {
				return err
			}
		}
		if tleft <= 0 {
			break
		}

		next, err := hyd.Next()
		if err == io.EOF {
			continue
		}
		if err != nil {
			return err
		}
		if err := proj.SetHydraulics(next.Time, next.Demands, next.Heads, next.Flows); err != nil {
			return err
		}
	}

	fmt.Fprintln(out, "simulation complete")
	return nil
}

func writeTextReportInstant(proj *msx.Project, w io.Writer, t float64) error {
	names := make([]string, 0, len(proj.Species)-1)
	precision := make([]int, 0, len(proj.Species)-1)
	for _, sp := range proj.Species[1:] {
		names = append(names, sp.ID)
		precision = append(precision, sp.ReportPrecision)
	}

	var nodes, links []msxio.ReportRow
	for _, n := range proj.Nodes[1:] {
		if n == nil || !n.Report {
			continue
		}
		nodes = append(nodes, msxio.ReportRow{Label: n.ID, C: n.C[1:]})
	}
	for _, l := range proj.Links[1:] {
		if l == nil || !l.Report {
			continue
		}
		c := l.Segments.TotalConcentration()
		if len(c) > 1 {
			c = c[1:]
		}
		links = append(links, msxio.ReportRow{Label: l.ID, C: c})
	}
	return msxio.WriteTextReport(w, names, precision, t, nodes, links)
}
