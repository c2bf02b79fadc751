package msx

// SpeciesKind distinguishes bulk (dissolved) species from wall species.
// Numeric values are part of the external ABI; do not renumber.
type SpeciesKind int

const (
	BULK SpeciesKind = 0
	WALL SpeciesKind = 1
)

// SourceKind selects how a Source modifies a node's outflow concentration.
type SourceKind int

const (
	NOSOURCE  SourceKind = -1
	CONCEN    SourceKind = 0
	MASS      SourceKind = 1
	SETPOINT  SourceKind = 2
	FLOWPACED SourceKind = 3
)

// TankMix selects a tank's mixing regime.
type TankMix int

const (
	MIX1 TankMix = 0
	MIX2 TankMix = 1
	FIFO TankMix = 2
	LIFO TankMix = 3
)

// Solver selects the numerical integrator used for RATE/EQUIL kinetics.
type Solver int

const (
	EUL  Solver = 0
	RK5  Solver = 1
	ROS2 Solver = 2
)

// Coupling selects transport/reaction sequencing within a sub-step.
type Coupling int

const (
	NONE Coupling = 0
	FULL Coupling = 1
)

// Scope discriminates node-valued from link-valued quantities in the
// report/quality/parameter API calls.
type Scope int

const (
	NodeScope Scope = 0
	LinkScope Scope = 1
)

// ExprClass is the role an expression tree plays for a species.
type ExprClass int

const (
	RATE ExprClass = iota
	EQUIL
	FORMULA
)

// AreaUnits and RateUnits select the unit convention applied to wall
// reaction area and reaction rate constants, respectively, at finishInit.
type AreaUnits int

const (
	AreaFT2 AreaUnits = iota
	AreaM2
)

type RateUnits int

const (
	RateSecond RateUnits = iota
	RateMinute
	RateHour
	RateDay
)
