// Package msx is the in-memory project/topology model and quality
// engine for a multi-species pipe-network water-quality simulation: the
// symbolic expression evaluator's host, the segment/transport layer,
// node and tank mixing, reaction kernels, and the quality driver that
// coordinates them across nested hydraulic and quality time steps.
package msx

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// State is a position in the project lifecycle:
// Uninitialized -> Open -> QualityOpen -> Initialized -> Stepping
// -> Closed.
type State int

const (
	Uninitialized State = iota
	Open
	QualityOpen
	Initialized
	Stepping
	Closed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case Open:
		return "Open"
	case QualityOpen:
		return "QualityOpen"
	case Initialized:
		return "Initialized"
	case Stepping:
		return "Stepping"
	case Closed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// Options holds the engine's enumerated run-time simulation options.
type Options struct {
	AreaUnits AreaUnits
	RateUnits RateUnits
	SolverOpt Solver
	Coupling  Coupling
	Qstep     float64 // seconds
	Rstep     float64 // seconds
	Rstart    float64 // seconds
	Duration  float64 // seconds
	RTol      float64 // default relative tolerance
	ATol      float64 // default absolute tolerance
}

// DefaultOptions returns the engine's baseline option set.
func DefaultOptions() Options {
	return Options{
		SolverOpt: EUL,
		Coupling:  NONE,
		Qstep:     300,
		Rstep:     3600,
		Rstart:    0,
		RTol:      0.001,
		ATol:      0.01,
	}
}

// Project is a single simulation's complete in-memory state: topology,
// chemistry, options, and (once QualityOpen) the segment pool and
// clocks. A Project owns every entity it references; cross-references
// are 1-based indices into the slices below, never pointers, so the
// whole model lives in contiguous per-kind arrays.
type Project struct {
	state State
	Opts  Options
	log   logrus.FieldLogger

	Nodes      []*Node
	Links      []*Link
	Tanks      []*Tank
	Species    []*Species
	Constants  []*Constant
	Parameters []*Parameter
	Patterns   []*Pattern
	Terms      []*Term

	nodeIndex  map[string]int
	linkIndex  map[string]int
	tankIndex  map[string]int
	specIndex  map[string]int
	constIndex map[string]int
	paramIndex map[string]int
	patIndex   map[string]int
	termIndex  map[string]int

	adjacency [][]AdjacencyEntry

	pool *SegmentPool

	// Current hydraulic snapshot, indexed like Nodes/Links.
	hydTime    float64
	demands    []float64
	heads      []float64
	flows      []float64

	qTime, rTime float64
	periodIndex  int

	finished       bool
	rateUnitFactor float64
	areaUnitFactor float64

	resultsWriter resultsWriter
}

// resultsWriter is the narrow interface driver.go needs from the io
// package's binary writer, kept here to avoid an import cycle; see
// io/results.go for the concrete implementation wired in by the cli
// package.
type resultsWriter interface {
	WriteInstant(t float64, nodeVals, linkVals [][]float32) error
}

// New creates a Project in the Uninitialized state.
func New(log logrus.FieldLogger) *Project {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Project{
		state:      Uninitialized,
		Opts:       DefaultOptions(),
		log:        log,
		nodeIndex:  map[string]int{},
		linkIndex:  map[string]int{},
		tankIndex:  map[string]int{},
		specIndex:  map[string]int{},
		constIndex: map[string]int{},
		paramIndex: map[string]int{},
		patIndex:   map[string]int{},
		termIndex:  map[string]int{},
		// index 0 is reserved in every 1-based slice.
		Nodes:      []*Node{nil},
		Links:      []*Link{nil},
		Tanks:      []*Tank{nil},
		Species:    []*Species{nil},
		Constants:  []*Constant{nil},
		Parameters: []*Parameter{nil},
		Patterns:   []*Pattern{nil},
		Terms:      []*Term{nil},
	}
}

// State returns the project's current lifecycle state.
func (p *Project) State() State { return p.state }

func (p *Project) requireState(allowed ...State) error {
	for _, s := range allowed {
		if p.state == s {
			return nil
		}
	}
	return fmt.Errorf("%w: in state %s", ErrNotOpened, p.state)
}

// Open transitions Uninitialized -> Open, allocating topology
// containers and admitting add*/set* configuration calls.
func (p *Project) Open() error {
	if p.state != Uninitialized {
		return fmt.Errorf("%w: already in state %s", ErrAlreadyOpened, p.state)
	}
	p.state = Open
	return nil
}

// SetOptions replaces the project's simulation options. Valid only in
// Open or QualityOpen, matching the add*/set* admission rule.
func (p *Project) SetOptions(o Options) error {
	if err := p.requireState(Open, QualityOpen); err != nil {
		return err
	}
	p.Opts = o
	return nil
}

// RegisterResultsWriter attaches the binary results sink the driver
// writes reporting instants to. Optional: a Project with no writer
// simply skips persistence and callers poll GetQuality* instead.
func (p *Project) RegisterResultsWriter(w resultsWriter) {
	p.resultsWriter = w
}
