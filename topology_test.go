package msx

import (
	"math"
	"testing"
)

func TestLinkXSectionAreaAndFullVolume(t *testing.T) {
	l := &Link{Diameter: 2, Length: 10}
	wantArea := math.Pi * 1 * 1
	if got := l.xSectionArea(); math.Abs(got-wantArea) > 1e-9 {
		t.Errorf("xSectionArea() = %v, want %v", got, wantArea)
	}
	if got := l.fullVolume(); math.Abs(got-wantArea*10) > 1e-9 {
		t.Errorf("fullVolume() = %v, want %v", got, wantArea*10)
	}
}

func TestLinkWallAv(t *testing.T) {
	l := &Link{Diameter: 4}
	if got := l.wallAv(); math.Abs(got-1) > 1e-9 {
		t.Errorf("wallAv() = %v, want 1 (4/4)", got)
	}
	l2 := &Link{Diameter: 0}
	if got := l2.wallAv(); got != 0 {
		t.Errorf("wallAv() with zero diameter = %v, want 0", got)
	}
}

func TestTankIsReservoir(t *testing.T) {
	reservoir := &Tank{Area: 0}
	if !reservoir.IsReservoir() {
		t.Errorf("IsReservoir() = false for Area 0, want true")
	}
	tank := &Tank{Area: 100}
	if tank.IsReservoir() {
		t.Errorf("IsReservoir() = true for Area 100, want false")
	}
}

func TestNodeIsTank(t *testing.T) {
	junction := &Node{TankIndex: 0}
	if junction.IsTank() {
		t.Errorf("IsTank() = true for TankIndex 0, want false")
	}
	tankNode := &Node{TankIndex: 3}
	if !tankNode.IsTank() {
		t.Errorf("IsTank() = false for TankIndex 3, want true")
	}
}

func TestLinkApplyFlowReversesOnDirectionChange(t *testing.T) {
	l := &Link{Segments: newSegmentDeque()}
	pool := NewSegmentPool(1)
	l.Segments.PushTail(pool, 10, []float64{0, 1})
	l.Segments.PushTail(pool, 20, []float64{0, 2})

	l.applyFlow(5)
	if l.flowSign != 1 {
		t.Fatalf("flowSign = %d, want 1", l.flowSign)
	}
	headBefore := l.Segments.Head().Volume

	l.applyFlow(-3)
	if l.flowSign != -1 {
		t.Fatalf("flowSign after reversal = %d, want -1", l.flowSign)
	}
	if l.Segments.Head().Volume == headBefore {
		t.Errorf("Segments did not reverse after a flow direction change")
	}

	l.applyFlow(0)
	if l.flowSign != -1 {
		t.Errorf("flowSign changed on zero flow, want unchanged at -1")
	}
	if l.Flow != 0 {
		t.Errorf("Flow = %v, want 0", l.Flow)
	}
}

func TestPatternMultiplierLookup(t *testing.T) {
	src := &Source{PatternIndex: 0}
	if got := src.multiplier(nil, 5); got != 1 {
		t.Errorf("multiplier() with no pattern = %v, want 1", got)
	}
}
