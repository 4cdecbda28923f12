package core

import (
	"errors"
	"testing"

	"github.com/signalsfoundry/leo-mesh-sim/model"
)

func newTestSat(id model.NodeID) *Node {
	return NewSatellite(id, "", KeplerianMotion{Params: circularOrbit(550)})
}

func TestRegistryAddAndLookup(t *testing.T) {
	r := NewRegistry()
	if err := r.AddNode(newTestSat(1)); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if err := r.AddNode(newTestSat(1)); !errors.Is(err, ErrNodeExists) {
		t.Fatalf("duplicate AddNode error = %v, want ErrNodeExists", err)
	}
	if err := r.AddNode(nil); !errors.Is(err, ErrNodeBadInput) {
		t.Fatalf("nil AddNode error = %v, want ErrNodeBadInput", err)
	}
	if n := r.Node(1); n == nil || n.ID != 1 {
		t.Fatalf("Node(1) = %v", n)
	}
	if n := r.Node(99); n != nil {
		t.Fatalf("Node(99) = %v, want nil", n)
	}
}

func TestRegistryNodesKeepInsertionOrder(t *testing.T) {
	r := NewRegistry()
	for _, id := range []model.NodeID{5, 1, 3} {
		if err := r.AddNode(newTestSat(id)); err != nil {
			t.Fatalf("AddNode(%d): %v", id, err)
		}
	}
	want := []model.NodeID{5, 1, 3}
	for i, n := range r.Nodes() {
		if n.ID != want[i] {
			t.Fatalf("Nodes()[%d] = %d, want %d", i, n.ID, want[i])
		}
	}
}

func TestEnsureISLIsStableAcrossChurn(t *testing.T) {
	r := NewRegistry()
	l1 := r.EnsureISL(1, 2, 4e9)
	l1.Connected = true

	// Same pair in either order resolves to the same link.
	l2 := r.EnsureISL(2, 1, 4e9)
	if l1.ID != l2.ID {
		t.Fatalf("EnsureISL returned different links for the same pair: %d vs %d", l1.ID, l2.ID)
	}

	// Out of range and back: identity survives, only Connected toggles.
	l1.Connected = false
	l3 := r.EnsureISL(1, 2, 4e9)
	if l3.ID != l1.ID {
		t.Fatalf("link identity changed across churn: %d vs %d", l3.ID, l1.ID)
	}
	if l3.Connected {
		t.Fatal("EnsureISL reconnected the link; the position tick owns that flag")
	}
}

func TestCreateGroundLinkIsFreshPerHandover(t *testing.T) {
	r := NewRegistry()
	l1 := r.CreateGroundLink(10, 1, 700, 4e9)
	l1.Connected = false // teardown
	l2 := r.CreateGroundLink(10, 1, 650, 4e9)

	if l1.ID == l2.ID {
		t.Fatal("handover reused the previous ground link; each connect must mint a fresh one")
	}
	if !l2.Connected || l2.DistanceKm != 650 {
		t.Fatalf("new ground link = %+v, want connected at frozen distance 650", l2)
	}
}

func TestLinkBetweenPrefersISLThenConnectedGround(t *testing.T) {
	r := NewRegistry()
	isl := r.EnsureISL(1, 2, 4e9)

	if got := r.LinkBetween(1, 2); got == nil || got.ID != isl.ID {
		t.Fatalf("LinkBetween(1,2) = %v, want ISL %d", got, isl.ID)
	}

	ground := r.CreateGroundLink(10, 1, 700, 4e9)
	if got := r.LinkBetween(10, 1); got == nil || got.ID != ground.ID {
		t.Fatalf("LinkBetween(10,1) = %v, want ground link %d", got, ground.ID)
	}

	ground.Connected = false
	if got := r.LinkBetween(10, 1); got != nil {
		t.Fatalf("LinkBetween over a disconnected ground link = %v, want nil", got)
	}

	if got := r.LinkBetween(3, 4); got != nil {
		t.Fatalf("LinkBetween with no history = %v, want nil", got)
	}
}

func TestGroundLinksOfReturnsOnlyConnected(t *testing.T) {
	r := NewRegistry()
	a := r.CreateGroundLink(10, 1, 700, 4e9)
	a.Connected = false
	b := r.CreateGroundLink(11, 1, 600, 4e9)

	got := r.GroundLinksOf(1)
	if len(got) != 1 || got[0].ID != b.ID {
		t.Fatalf("GroundLinksOf = %v, want only the connected link %d", got, b.ID)
	}
}
