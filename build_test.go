package msx

import "testing"

func buildSimpleProject(t *testing.T) *Project {
	t.Helper()
	p := New(nil)
	if err := p.Open(); err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if _, err := p.AddNode("N1"); err != nil {
		t.Fatalf("AddNode(N1) error: %v", err)
	}
	if _, err := p.AddNode("N2"); err != nil {
		t.Fatalf("AddNode(N2) error: %v", err)
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
	return p
}

func TestBuildRejectsDuplicateIDs(t *testing.T) {
	p := buildSimpleProject(t)
	if _, err := p.AddNode("N1"); err == nil {
		t.Fatalf("AddNode(duplicate) succeeded, want error")
	}
}

func TestBuildRejectsUnknownReferences(t *testing.T) {
	p := buildSimpleProject(t)
	if _, err := p.AddLink("P2", "N1", "Nope", 10, 1, 100); err == nil {
		t.Fatalf("AddLink(unknown node) succeeded, want error")
	}
}

func TestBuildRejectsOutsideOpenStates(t *testing.T) {
	p := buildSimpleProject(t)
	if err := p.FinishInit(); err != nil {
		t.Fatalf("FinishInit() error: %v", err)
	}
	if err := p.QualOpen(); err != nil {
		t.Fatalf("QualOpen() error: %v", err)
	}
	if err := p.QualInit(); err != nil {
		t.Fatalf("QualInit() error: %v", err)
	}
	if _, err := p.AddNode("N3"); err == nil {
		t.Fatalf("AddNode() after QualInit succeeded, want error")
	}
}

func TestFinishInitSizesPerEntityArrays(t *testing.T) {
	p := buildSimpleProject(t)
	if err := p.AddQuality(NodeScope, "Cl", 1.0, "N1"); err != nil {
		t.Fatalf("AddQuality() error: %v", err)
	}
	if err := p.FinishInit(); err != nil {
		t.Fatalf("FinishInit() error: %v", err)
	}

	n1 := p.Nodes[p.nodeIndex["N1"]]
	if len(n1.C) != len(p.Species) {
		t.Fatalf("len(N1.C) = %d, want %d", len(n1.C), len(p.Species))
	}
	if n1.C[p.specIndex["Cl"]] != 1.0 {
		t.Fatalf("N1 initial Cl = %v, want 1.0", n1.C[p.specIndex["Cl"]])
	}

	link := p.Links[p.linkIndex["P1"]]
	if link.Segments == nil || link.Segments.Len() != 0 {
		t.Fatalf("P1 Segments = %+v, want an empty deque ready for QualInit", link.Segments)
	}
	if len(p.adjacency) != len(p.Nodes) {
		t.Fatalf("len(adjacency) = %d, want %d", len(p.adjacency), len(p.Nodes))
	}
}

func TestFinishInitRejectsEmptyProject(t *testing.T) {
	p := New(nil)
	if err := p.Open(); err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if err := p.FinishInit(); err == nil {
		t.Fatalf("FinishInit() on an empty project succeeded, want error")
	}
}

func TestPatternValueWrapsAround(t *testing.T) {
	p := buildSimpleProject(t)
	idx, err := p.AddPattern("PAT1")
	if err != nil {
		t.Fatalf("AddPattern() error: %v", err)
	}
	if err := p.SetPattern(idx, []float64{1, 2, 3}); err != nil {
		t.Fatalf("SetPattern() error: %v", err)
	}
	pat := p.Patterns[idx]
	if v := pat.Value(3); v != 1 {
		t.Fatalf("Value(3) = %v, want 1 (wraps to index 0)", v)
	}
	if v := pat.Value(-1); v != 3 {
		t.Fatalf("Value(-1) = %v, want 3 (wraps to last)", v)
	}
}
