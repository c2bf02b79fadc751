package msx

import (
	"math"
	"testing"
)

func projectWithRateSpecies(t *testing.T) *Project {
	t.Helper()
	p := New(nil)
	if err := p.Open(); err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if _, err := p.AddNode("N1"); err != nil {
		t.Fatalf("AddNode() error: %v", err)
	}
	if _, err := p.AddNode("N2"); err != nil {
		t.Fatalf("AddNode() error: %v", err)
	}
	if _, err := p.AddLink("P1", "N1", "N2", 1000, 1, 100); err != nil {
		t.Fatalf("AddLink() error: %v", err)
	}
	if _, err := p.AddSpecies("Cl", BULK, "MG", 0.01, 0.001); err != nil {
		t.Fatalf("AddSpecies() error: %v", err)
	}
	if _, err := p.AddCoefficient(CoeffConstant, "K", 0.5); err != nil {
		t.Fatalf("AddCoefficient() error: %v", err)
	}
	if err := p.AddExpression(ExprPipe, RATE, "Cl", "-K*Cl"); err != nil {
		t.Fatalf("AddExpression() error: %v", err)
	}
	if err := p.AliasTankToPipe("Cl"); err != nil {
		t.Fatalf("AliasTankToPipe() error: %v", err)
	}
	if err := p.FinishInit(); err != nil {
		t.Fatalf("FinishInit() error: %v", err)
	}
	return p
}

func TestRHSComputesFirstOrderDecay(t *testing.T) {
	p := projectWithRateSpecies(t)
	link := p.Links[p.linkIndex["P1"]]
	clIdx := p.specIndex["Cl"]

	c := make([]float64, len(p.Species))
	c[clIdx] = 2.0

	deriv, err := RHS(p, c, hydraulicVars{}, 0, link.Index, 0, false)
	if err != nil {
		t.Fatalf("RHS() error: %v", err)
	}
	want := -0.5 * 2.0
	if math.Abs(deriv[clIdx]-want) > 1e-9 {
		t.Errorf("RHS() deriv = %v, want %v", deriv[clIdx], want)
	}
}

func TestEquilResidualMatchesDefiningEquation(t *testing.T) {
	p := New(nil)
	if err := p.Open(); err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if _, err := p.AddNode("N1"); err != nil {
		t.Fatalf("AddNode() error: %v", err)
	}
	if _, err := p.AddTank("T1", 100, MIX1, 0); err != nil {
		t.Fatalf("AddTank() error: %v", err)
	}
	if _, err := p.AddSpecies("Fe", BULK, "MG", 0.01, 0.001); err != nil {
		t.Fatalf("AddSpecies() error: %v", err)
	}
	if _, err := p.AddCoefficient(CoeffConstant, "Ksp", 4.0); err != nil {
		t.Fatalf("AddCoefficient() error: %v", err)
	}
	if err := p.AddExpression(ExprTank, EQUIL, "Fe", "Ksp"); err != nil {
		t.Fatalf("AddExpression() error: %v", err)
	}
	if err := p.FinishInit(); err != nil {
		t.Fatalf("FinishInit() error: %v", err)
	}

	feIdx := p.specIndex["Fe"]
	tankIdx := p.tankIndex["T1"]

	c := make([]float64, len(p.Species))
	c[feIdx] = 4.0 // at equilibrium
	res, err := EquilResidual(p, c, hydraulicVars{}, 0, 0, tankIdx, true, []int{feIdx})
	if err != nil {
		t.Fatalf("EquilResidual() error: %v", err)
	}
	if math.Abs(res[0]) > 1e-9 {
		t.Errorf("EquilResidual() at equilibrium = %v, want 0", res[0])
	}

	c[feIdx] = 10.0 // away from equilibrium
	res, err = EquilResidual(p, c, hydraulicVars{}, 0, 0, tankIdx, true, []int{feIdx})
	if err != nil {
		t.Fatalf("EquilResidual() error: %v", err)
	}
	want := 10.0 - 4.0
	if math.Abs(res[0]-want) > 1e-9 {
		t.Errorf("EquilResidual() off equilibrium = %v, want %v", res[0], want)
	}
}

func TestLinkHydraulicVarsZeroFlow(t *testing.T) {
	l := &Link{Diameter: 1, Length: 10, Flow: 0, Roughness: 100}
	hv := linkHydraulicVars(l, 1)
	if hv.re != 0 || hv.ff != 0 || hv.us != 0 {
		t.Errorf("linkHydraulicVars() at zero flow = %+v, want all-zero Re/Ff/Us", hv)
	}
}

func TestLinkHydraulicVarsNonzeroFlow(t *testing.T) {
	l := &Link{Diameter: 1, Length: 100, Flow: 1, Roughness: 0.0001}
	hv := linkHydraulicVars(l, 1)
	if hv.re <= 0 {
		t.Errorf("linkHydraulicVars() Re = %v, want > 0", hv.re)
	}
	if hv.ff <= 0 {
		t.Errorf("linkHydraulicVars() Ff = %v, want > 0", hv.ff)
	}
	if hv.av != l.wallAv() {
		t.Errorf("linkHydraulicVars() Av = %v, want %v", hv.av, l.wallAv())
	}
}

func TestLinkHydraulicVarsScalesAvByAreaUnitFactor(t *testing.T) {
	l := &Link{Diameter: 1, Length: 100, Flow: 1, Roughness: 0.0001}
	hv := linkHydraulicVars(l, areaUnitFactor(AreaM2))
	want := l.wallAv() / feetPerMeter
	if math.Abs(hv.av-want) > 1e-9 {
		t.Errorf("linkHydraulicVars() Av under AreaM2 = %v, want %v", hv.av, want)
	}
}

func TestAreaUnitFactorWiredThroughFinishInit(t *testing.T) {
	p := New(nil)
	if err := p.Open(); err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if _, err := p.AddNode("N1"); err != nil {
		t.Fatalf("AddNode() error: %v", err)
	}
	p.Opts.AreaUnits = AreaM2
	if err := p.FinishInit(); err != nil {
		t.Fatalf("FinishInit() error: %v", err)
	}
	want := areaUnitFactor(AreaM2)
	if p.areaUnitFactor != want {
		t.Errorf("p.areaUnitFactor = %v, want %v", p.areaUnitFactor, want)
	}
}
