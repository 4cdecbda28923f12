package core

import (
	"math"
	"testing"
	"time"

	"github.com/signalsfoundry/leo-mesh-sim/model"
)

func TestThroughputUsesActiveWindow(t *testing.T) {
	var s NodeStats
	s.Accept(10*time.Second, &model.Packet{SizeBits: 8000, CreatedAt: 9 * time.Second})
	s.Accept(20*time.Second, &model.Packet{SizeBits: 8000, CreatedAt: 19 * time.Second})

	// 16000 bits over a 10s active window.
	if got := s.Throughput(time.Hour); math.Abs(got-1600) > 1e-9 {
		t.Fatalf("Throughput = %v, want 1600", got)
	}
}

func TestThroughputFallsBackToSimDuration(t *testing.T) {
	var s NodeStats
	s.Accept(10*time.Second, &model.Packet{SizeBits: 8000, CreatedAt: 9 * time.Second})

	// Single packet: degenerate window, fall back to the run length.
	if got := s.Throughput(100 * time.Second); math.Abs(got-80) > 1e-9 {
		t.Fatalf("Throughput = %v, want 80 (8000 bits / 100s)", got)
	}
}

func TestDeliveryRatioNoTrafficIsOne(t *testing.T) {
	var s NodeStats
	if got := s.DeliveryRatio(); got != 1.0 {
		t.Fatalf("DeliveryRatio with no traffic = %v, want 1.0", got)
	}
}

func TestDeliveryRatioCountsForwardsAsSuccesses(t *testing.T) {
	var s NodeStats
	s.PacketsForwarded = 3
	s.Drop(DropQueueFull)

	if got := s.DeliveryRatio(); math.Abs(got-0.75) > 1e-9 {
		t.Fatalf("DeliveryRatio = %v, want 0.75", got)
	}
}

func TestAcceptRecordsDelayAndHops(t *testing.T) {
	var s NodeStats
	s.Accept(2*time.Second, &model.Packet{SizeBits: 100, HopCount: 3, CreatedAt: 1500 * time.Millisecond})

	if len(s.DelaySamples) != 1 || math.Abs(s.DelaySamples[0]-0.5) > 1e-9 {
		t.Fatalf("delay samples = %v, want [0.5]", s.DelaySamples)
	}
	if len(s.HopCountSamples) != 1 || s.HopCountSamples[0] != 3 {
		t.Fatalf("hop samples = %v, want [3]", s.HopCountSamples)
	}
}

func TestEmitWritesScalarsAndVectors(t *testing.T) {
	var s NodeStats
	s.PacketsSent = 5
	s.Accept(time.Second, &model.Packet{SizeBits: 1000, HopCount: 2, CreatedAt: 900 * time.Millisecond})
	s.Drop(DropNoRoute)

	sink := NewMemorySink()
	s.Emit(sink, 7, time.Minute)

	if got, ok := sink.ScalarValue(7, "PacketsSent"); !ok || got != 5 {
		t.Fatalf("PacketsSent = %v (ok=%v), want 5", got, ok)
	}
	if got, ok := sink.ScalarValue(7, "DropsNoRoute"); !ok || got != 1 {
		t.Fatalf("DropsNoRoute = %v (ok=%v), want 1", got, ok)
	}
	if got := sink.VectorValue(7, "endToEndDelay"); len(got) != 1 {
		t.Fatalf("endToEndDelay vector = %v, want one sample", got)
	}
	if got := sink.VectorValue(7, "hopCount"); len(got) != 1 || got[0] != 2 {
		t.Fatalf("hopCount vector = %v, want [2]", got)
	}
}

func TestDropReasonStrings(t *testing.T) {
	cases := map[DropReason]string{
		DropNoRoute:          "no_route",
		DropQueueFull:        "queue_full",
		DropLinkDisconnected: "link_disconnected",
		DropInvalidLink:      "invalid_link",
	}
	for reason, want := range cases {
		if got := reason.String(); got != want {
			t.Fatalf("%d.String() = %q, want %q", reason, got, want)
		}
	}
}
