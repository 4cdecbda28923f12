package core

import (
	"testing"
	"time"

	"github.com/signalsfoundry/leo-mesh-sim/model"
)

func TestTrafficGeneratorSingleDestination(t *testing.T) {
	g := NewTrafficGenerator(TrafficProfile{
		Interval:     time.Second,
		SizeBits:     8000,
		Destinations: []model.NodeID{9},
	}, 1)

	for i := int64(0); i < 3; i++ {
		pkt := g.Next(time.Duration(i)*time.Second, 4)
		if pkt.DestinationID != 9 {
			t.Fatalf("destination = %d, want 9", pkt.DestinationID)
		}
		if pkt.SourceID != 4 || pkt.SizeBits != 8000 {
			t.Fatalf("packet = %+v, want source 4 size 8000", pkt)
		}
		if pkt.PacketID != i {
			t.Fatalf("packet id = %d, want %d", pkt.PacketID, i)
		}
		if pkt.CreatedAt != time.Duration(i)*time.Second {
			t.Fatalf("created at %v, want %v", pkt.CreatedAt, time.Duration(i)*time.Second)
		}
	}
}

func TestTrafficGeneratorSeededPicksAreReproducible(t *testing.T) {
	profile := TrafficProfile{
		Interval:     time.Second,
		SizeBits:     100,
		Destinations: []model.NodeID{1, 2, 3, 4, 5},
	}

	a := NewTrafficGenerator(profile, 42)
	b := NewTrafficGenerator(profile, 42)

	for i := 0; i < 50; i++ {
		pa := a.Next(0, 9)
		pb := b.Next(0, 9)
		if pa.DestinationID != pb.DestinationID {
			t.Fatalf("pick %d diverged: %d vs %d", i, pa.DestinationID, pb.DestinationID)
		}
	}
}

func TestTrafficProfileEnabled(t *testing.T) {
	if (TrafficProfile{}).Enabled() {
		t.Fatal("zero profile reports enabled")
	}
	if !(TrafficProfile{Interval: time.Second, SizeBits: 1, Destinations: []model.NodeID{1}}).Enabled() {
		t.Fatal("complete profile reports disabled")
	}
	if (TrafficProfile{Interval: time.Second, SizeBits: 1}).Enabled() {
		t.Fatal("profile without destinations reports enabled")
	}
}
