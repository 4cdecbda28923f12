package core

import (
	"math"
	"testing"
)

func TestRecomputeNeighborsRangeFilter(t *testing.T) {
	self := Vec3{X: 7000, Y: 0, Z: 0}
	candidates := []Candidate{
		{ID: 2, Position: Vec3{X: 7000, Y: 500, Z: 0}, Link: 10},
		{ID: 3, Position: Vec3{X: 7000, Y: 1500, Z: 0}, Link: 11},
	}

	got := RecomputeNeighbors(self, candidates, 1000)
	if len(got) != 1 {
		t.Fatalf("got %d neighbors, want 1", len(got))
	}
	if got[0].PeerID != 2 {
		t.Fatalf("neighbor = %d, want 2", got[0].PeerID)
	}
	if math.Abs(got[0].CostKm-500) > 1e-6 {
		t.Fatalf("cost = %v, want 500", got[0].CostKm)
	}
	if got[0].DistanceKm != got[0].CostKm {
		t.Fatalf("cost %v != distance %v; cost metric is the distance", got[0].CostKm, got[0].DistanceKm)
	}
}

func TestRecomputeNeighborsSymmetricCost(t *testing.T) {
	a := Vec3{X: 7000, Y: 0, Z: 0}
	b := Vec3{X: 7000, Y: 500, Z: 0}

	fromA := RecomputeNeighbors(a, []Candidate{{ID: 2, Position: b}}, 1000)
	fromB := RecomputeNeighbors(b, []Candidate{{ID: 1, Position: a}}, 1000)

	if len(fromA) != 1 || len(fromB) != 1 {
		t.Fatalf("expected one neighbor on each side, got %d and %d", len(fromA), len(fromB))
	}
	if fromA[0].CostKm != fromB[0].CostKm {
		t.Fatalf("asymmetric cost: %v vs %v", fromA[0].CostKm, fromB[0].CostKm)
	}
}

func TestRecomputeNeighborsGroundLinkBypassesRange(t *testing.T) {
	self := Vec3{X: 7000, Y: 0, Z: 0}
	candidates := []Candidate{
		{ID: 5, Position: Vec3{X: 7000, Y: 2500, Z: 0}, Link: 7, GroundLink: true},
	}

	got := RecomputeNeighbors(self, candidates, 1000)
	if len(got) != 1 {
		t.Fatalf("ground-link candidate filtered by range; the handover controller owns that decision")
	}
	if got[0].Link != 7 {
		t.Fatalf("link = %d, want 7", got[0].Link)
	}
}

func TestRecomputeNeighborsReplacesWholesale(t *testing.T) {
	self := Vec3{X: 7000, Y: 0, Z: 0}

	got := RecomputeNeighbors(self, nil, 1000)
	if len(got) != 0 {
		t.Fatalf("no candidates must yield an empty set, got %d", len(got))
	}
}
