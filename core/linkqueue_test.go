package core

import (
	"testing"
	"time"

	"github.com/signalsfoundry/leo-mesh-sim/model"
)

type scheduled struct {
	at      time.Duration
	target  model.NodeID
	payload model.Payload
}

// fakeSched records scheduling calls without running anything.
type fakeSched struct {
	now    time.Duration
	events []scheduled
}

func (f *fakeSched) Now() time.Duration { return f.now }

func (f *fakeSched) Schedule(delay time.Duration, target model.NodeID, payload model.Payload) {
	if delay < 0 {
		delay = 0
	}
	f.ScheduleAt(f.now+delay, target, payload)
}

func (f *fakeSched) ScheduleAt(at time.Duration, target model.NodeID, payload model.Payload) {
	f.events = append(f.events, scheduled{at: at, target: target, payload: payload})
}

func (f *fakeSched) txCompletes() []scheduled {
	var out []scheduled
	for _, e := range f.events {
		if tick, ok := e.payload.(model.TickEvent); ok && tick.Kind == model.TxComplete {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeSched) packets() []scheduled {
	var out []scheduled
	for _, e := range f.events {
		if _, ok := e.payload.(*model.Packet); ok {
			out = append(out, e)
		}
	}
	return out
}

func testLink(rateBps float64) *Link {
	return &Link{
		ID:         1,
		Kind:       LinkISL,
		A:          1,
		B:          2,
		Connected:  true,
		DistanceKm: 500,
		forward:    Channel{DataRateBps: rateBps},
		reverse:    Channel{DataRateBps: rateBps},
	}
}

func pkt(id int64, bits int64) *model.Packet {
	return &model.Packet{SourceID: 1, DestinationID: 2, PacketID: id, SizeBits: bits}
}

func TestEnqueueTransmitsImmediatelyWhenIdle(t *testing.T) {
	sched := &fakeSched{}
	link := testLink(1000)
	var stats NodeStats
	q := NewLinkQueue(1, link, 10, &stats)

	if !q.Enqueue(sched, pkt(1, 1000)) {
		t.Fatal("Enqueue returned false on an idle connected link")
	}

	deliveries := sched.packets()
	if len(deliveries) != 1 {
		t.Fatalf("scheduled %d packet deliveries, want 1", len(deliveries))
	}
	// 1000 bits at 1000 bps = 1s serialization, plus propagation and
	// processing.
	want := time.Second + link.Delay()
	if deliveries[0].at != want {
		t.Fatalf("delivery at %v, want %v", deliveries[0].at, want)
	}
	if deliveries[0].target != 2 {
		t.Fatalf("delivery target = %d, want peer 2", deliveries[0].target)
	}
	if q.Len() != 0 {
		t.Fatalf("backlog = %d after immediate transmit, want 0", q.Len())
	}
}

func TestBusyChannelParksBacklogBehindSingleWake(t *testing.T) {
	sched := &fakeSched{}
	link := testLink(1000)
	var stats NodeStats
	q := NewLinkQueue(1, link, 10, &stats)

	q.Enqueue(sched, pkt(1, 1000)) // occupies the channel until t=1s
	q.Enqueue(sched, pkt(2, 1000))
	q.Enqueue(sched, pkt(3, 1000))

	if q.Len() != 2 {
		t.Fatalf("backlog = %d, want 2", q.Len())
	}
	wakes := sched.txCompletes()
	if len(wakes) != 1 {
		t.Fatalf("scheduled %d wake-ups, want exactly 1", len(wakes))
	}
	if wakes[0].at != time.Second {
		t.Fatalf("wake-up at %v, want 1s (channel finish time)", wakes[0].at)
	}
	if wakes[0].target != 1 {
		t.Fatalf("wake-up target = %d, want owner 1", wakes[0].target)
	}
}

func TestTransmissionCompleteDrainsNextFrame(t *testing.T) {
	sched := &fakeSched{}
	link := testLink(1000)
	var stats NodeStats
	q := NewLinkQueue(1, link, 10, &stats)

	q.Enqueue(sched, pkt(1, 1000))
	q.Enqueue(sched, pkt(2, 1000))

	sched.now = time.Second
	q.OnTransmissionComplete(sched)

	deliveries := sched.packets()
	if len(deliveries) != 2 {
		t.Fatalf("scheduled %d deliveries, want 2", len(deliveries))
	}
	want := 2*time.Second + link.Delay()
	if deliveries[1].at != want {
		t.Fatalf("second delivery at %v, want %v", deliveries[1].at, want)
	}
	if q.Len() != 0 {
		t.Fatalf("backlog = %d after drain, want 0", q.Len())
	}
}

func TestEnqueueTailDropsAtCapacity(t *testing.T) {
	sched := &fakeSched{}
	link := testLink(1000)
	var stats NodeStats
	q := NewLinkQueue(1, link, 2, &stats)

	q.Enqueue(sched, pkt(1, 1000)) // in flight, not in the queue
	q.Enqueue(sched, pkt(2, 1000))
	q.Enqueue(sched, pkt(3, 1000))

	if ok := q.Enqueue(sched, pkt(4, 1000)); ok {
		t.Fatal("Enqueue succeeded past capacity")
	}
	if stats.DropsQueueFull != 1 {
		t.Fatalf("DropsQueueFull = %d, want 1", stats.DropsQueueFull)
	}
	if q.Len() != 2 {
		t.Fatalf("backlog = %d, want capacity 2", q.Len())
	}
}

func TestEnqueueOnDisconnectedLinkDrops(t *testing.T) {
	sched := &fakeSched{}
	link := testLink(1000)
	link.Connected = false
	var stats NodeStats
	q := NewLinkQueue(1, link, 10, &stats)

	if ok := q.Enqueue(sched, pkt(1, 1000)); ok {
		t.Fatal("Enqueue succeeded on a disconnected link")
	}
	if stats.DropsLinkDisconnected != 1 {
		t.Fatalf("DropsLinkDisconnected = %d, want 1", stats.DropsLinkDisconnected)
	}
}

func TestEnqueueWithNilLinkDrops(t *testing.T) {
	sched := &fakeSched{}
	var stats NodeStats
	q := NewLinkQueue(1, nil, 10, &stats)

	if ok := q.Enqueue(sched, pkt(1, 1000)); ok {
		t.Fatal("Enqueue succeeded with a nil link")
	}
	if stats.DropsInvalidLink != 1 {
		t.Fatalf("DropsInvalidLink = %d, want 1", stats.DropsInvalidLink)
	}
}

func TestDispatchDrainsQueuedFramesAfterDisconnect(t *testing.T) {
	sched := &fakeSched{}
	link := testLink(1000)
	var stats NodeStats
	q := NewLinkQueue(1, link, 10, &stats)

	q.Enqueue(sched, pkt(1, 1000))
	q.Enqueue(sched, pkt(2, 1000))
	q.Enqueue(sched, pkt(3, 1000))

	// Handover tears the link down with two frames still queued; they
	// fail at the next dispatch attempt, not at teardown.
	link.Connected = false
	if stats.DropsLinkDisconnected != 0 {
		t.Fatalf("drops before dispatch = %d, want 0", stats.DropsLinkDisconnected)
	}

	sched.now = time.Second
	q.OnTransmissionComplete(sched)

	if stats.DropsLinkDisconnected != 2 {
		t.Fatalf("DropsLinkDisconnected = %d, want 2", stats.DropsLinkDisconnected)
	}
	if q.Len() != 0 {
		t.Fatalf("backlog = %d after drain, want 0", q.Len())
	}
}

func TestWakeUpIsIdempotent(t *testing.T) {
	sched := &fakeSched{}
	link := testLink(1000)
	var stats NodeStats
	q := NewLinkQueue(1, link, 10, &stats)

	q.Enqueue(sched, pkt(1, 1000))
	q.Enqueue(sched, pkt(2, 1000))
	q.Dispatch(sched)
	q.Dispatch(sched)
	q.Dispatch(sched)

	if wakes := sched.txCompletes(); len(wakes) != 1 {
		t.Fatalf("scheduled %d wake-ups after repeated dispatch, want 1", len(wakes))
	}
}
