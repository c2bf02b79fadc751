package msx

import (
	"math"
	"testing"
)

func buildTransportProject(t *testing.T) *Project {
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
	// diameter chosen so cross-section area is 1 ft^2: full volume = length.
	d := math.Sqrt(4 / math.Pi)
	if _, err := p.AddLink("P1", "N1", "N2", 100, d, 100); err != nil {
		t.Fatalf("AddLink() error: %v", err)
	}
	if _, err := p.AddSpecies("Cl", BULK, "MG", 0.01, 0.001); err != nil {
		t.Fatalf("AddSpecies() error: %v", err)
	}
	if err := p.AddQuality(NodeScope, "Cl", 5.0, "N1"); err != nil {
		t.Fatalf("AddQuality() error: %v", err)
	}
	if err := p.FinishInit(); err != nil {
		t.Fatalf("FinishInit() error: %v", err)
	}
	if err := p.QualOpen(); err != nil {
		t.Fatalf("QualOpen() error: %v", err)
	}
	if err := p.QualInit(); err != nil {
		t.Fatalf("QualInit() error: %v", err)
	}
	return p
}

func TestTransportSubstepMovesVolumeDownstream(t *testing.T) {
	p := buildTransportProject(t)
	link := p.Links[p.linkIndex["P1"]]
	link.applyFlow(1) // 1 cfs, N1 -> N2

	fullVol := link.fullVolume()
	n1 := p.Nodes[p.nodeIndex["N1"]]
	n1.C[p.specIndex["Cl"]] = 5.0

	if err := p.transportSubstep(10, 0); err != nil {
		t.Fatalf("transportSubstep() error: %v", err)
	}

	if link.Segments.Len() == 0 {
		t.Fatalf("Segments empty after transportSubstep, want at least one segment")
	}
	tail := link.Segments.Tail()
	if math.Abs(tail.C[p.specIndex["Cl"]]-5.0) > 1e-6 {
		t.Errorf("new tail segment Cl = %v, want 5.0 (from N1's outflow concentration)", tail.C[p.specIndex["Cl"]])
	}

	total := link.Segments.TotalVolume()
	if math.Abs(total-fullVol) > 1e-6 {
		t.Errorf("total segment volume = %v, want %v (conserved, pipe stays full)", total, fullVol)
	}
}

func TestTransportSubstepEjectsHeadIntoDownstreamNode(t *testing.T) {
	p := buildTransportProject(t)
	link := p.Links[p.linkIndex["P1"]]
	link.applyFlow(1)

	clIdx := p.specIndex["Cl"]
	// Replace the full-volume initial segment with a known head value.
	link.Segments = newSegmentDeque()
	link.Segments.PushTail(p.pool, link.fullVolume(), []float64{0, 9})

	if err := p.transportSubstep(5, 0); err != nil {
		t.Fatalf("transportSubstep() error: %v", err)
	}

	n2 := p.Nodes[p.nodeIndex["N2"]]
	if math.Abs(n2.C[clIdx]-9) > 1e-6 {
		t.Errorf("N2.C[Cl] = %v, want 9 (ejected head segment's concentration)", n2.C[clIdx])
	}
}

func TestOutwardFlowSumsLeavingLinksOnly(t *testing.T) {
	p := buildTransportProject(t)
	link := p.Links[p.linkIndex["P1"]]
	link.applyFlow(3)

	n1Idx := p.nodeIndex["N1"]
	n2Idx := p.nodeIndex["N2"]

	if got := p.outwardFlow(n1Idx); math.Abs(got-3) > 1e-9 {
		t.Errorf("outwardFlow(N1) = %v, want 3", got)
	}
	if got := p.outwardFlow(n2Idx); got != 0 {
		t.Errorf("outwardFlow(N2) = %v, want 0 (N2 is downstream only)", got)
	}
}

func TestDivideVolumeHandlesNearZeroVolume(t *testing.T) {
	mass := []float64{0, 10}
	if got := divideVolume(mass, 0); got[1] != 0 {
		t.Errorf("divideVolume with zero volume = %v, want 0", got[1])
	}
	got := divideVolume(mass, 2)
	if math.Abs(got[1]-5) > 1e-9 {
		t.Errorf("divideVolume(10, 2) = %v, want 5", got[1])
	}
}

func TestMinSegmentVolumeFloor(t *testing.T) {
	if got := minSegmentVolume(0); got != 1e-8 {
		t.Errorf("minSegmentVolume(0) = %v, want the 1e-8 floor", got)
	}
	if got := minSegmentVolume(1000); math.Abs(got-1) > 1e-9 {
		t.Errorf("minSegmentVolume(1000) = %v, want 1 (0.1%% of volume)", got)
	}
}
