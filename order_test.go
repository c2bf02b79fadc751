package msx

import "testing"

func indexOf(order []int, v int) int {
	for i, x := range order {
		if x == v {
			return i
		}
	}
	return -1
}

func TestFlowOrderTopologicalForAcyclicNetwork(t *testing.T) {
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
	if _, err := p.AddNode("N3"); err != nil {
		t.Fatalf("AddNode(N3) error: %v", err)
	}
	if _, err := p.AddLink("P1", "N1", "N2", 10, 1, 100); err != nil {
		t.Fatalf("AddLink(P1) error: %v", err)
	}
	if _, err := p.AddLink("P2", "N2", "N3", 10, 1, 100); err != nil {
		t.Fatalf("AddLink(P2) error: %v", err)
	}
	if err := p.FinishInit(); err != nil {
		t.Fatalf("FinishInit() error: %v", err)
	}

	p.Links[p.linkIndex["P1"]].applyFlow(1)
	p.Links[p.linkIndex["P2"]].applyFlow(1)

	order, err := p.flowOrder()
	if err != nil {
		t.Fatalf("flowOrder() error: %v", err)
	}
	n1, n2, n3 := p.nodeIndex["N1"], p.nodeIndex["N2"], p.nodeIndex["N3"]
	if indexOf(order, n1) >= indexOf(order, n2) || indexOf(order, n2) >= indexOf(order, n3) {
		t.Errorf("flowOrder() = %v, want N1 before N2 before N3", order)
	}
}

func TestFlowOrderFallsBackToBoundedRevisitOnCycle(t *testing.T) {
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
	if _, err := p.AddLink("P1", "N1", "N2", 10, 1, 100); err != nil {
		t.Fatalf("AddLink(P1) error: %v", err)
	}
	if _, err := p.AddLink("P2", "N2", "N1", 10, 1, 100); err != nil {
		t.Fatalf("AddLink(P2) error: %v", err)
	}
	if err := p.FinishInit(); err != nil {
		t.Fatalf("FinishInit() error: %v", err)
	}

	p.Links[p.linkIndex["P1"]].applyFlow(1)
	p.Links[p.linkIndex["P2"]].applyFlow(1)

	order, err := p.flowOrder()
	if err != nil {
		t.Fatalf("flowOrder() error: %v", err)
	}
	if len(order) != 2 {
		t.Fatalf("flowOrder() on a two-node cycle = %v, want 2 entries", order)
	}
}
