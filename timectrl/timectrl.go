package timectrl

import (
	"container/heap"
	"time"

	"github.com/signalsfoundry/leo-mesh-sim/model"
)

// SimClock is read-only access to simulation time. Components depend on
// this abstraction rather than on the concrete Scheduler, which keeps them
// testable with a fixed clock.
type SimClock interface {
	// Now returns the current simulation time, measured from the start
	// of the run.
	Now() time.Duration
}

// Mode describes how the Scheduler advances simulation time.
type Mode int

const (
	// Accelerated drains the event queue as fast as the loop can run.
	Accelerated Mode = iota
	// RealTime paces event execution against wall-clock time, one
	// simulated second per real second.
	RealTime
)

// Dispatcher consumes events in delivery order. The simulation engine
// implements this by routing each payload to its target node's handler.
type Dispatcher interface {
	Deliver(now time.Duration, target model.NodeID, payload model.Payload)
}

// Scheduler is a time-ordered event queue with run-to-completion delivery:
// exactly one handler runs at a time, and a handler never blocks — any wait
// is expressed by scheduling a future event. Events at equal times are
// delivered in scheduling order.
//
// The Scheduler is single-threaded by design; it must only be used from
// the goroutine that calls Run.
type Scheduler struct {
	mode Mode
	now  time.Duration
	seq  uint64

	queue eventHeap

	listeners []func(time.Duration)
}

// NewScheduler constructs an empty scheduler at simulation time zero.
func NewScheduler(mode Mode) *Scheduler {
	return &Scheduler{mode: mode}
}

// Now returns the current simulation time. Implements SimClock.
func (s *Scheduler) Now() time.Duration { return s.now }

// Schedule enqueues a payload for delivery to target after delay.
// Negative delays are clamped to zero, i.e. delivery at the current time
// but strictly after the running handler returns.
func (s *Scheduler) Schedule(delay time.Duration, target model.NodeID, payload model.Payload) {
	if delay < 0 {
		delay = 0
	}
	s.ScheduleAt(s.now+delay, target, payload)
}

// ScheduleAt enqueues a payload for delivery at an absolute simulation
// time. Events in the past are silently discarded.
func (s *Scheduler) ScheduleAt(at time.Duration, target model.NodeID, payload model.Payload) {
	if at < s.now {
		return
	}
	s.seq++
	heap.Push(&s.queue, &event{
		at:      at,
		seq:     s.seq,
		target:  target,
		payload: payload,
	})
}

// AddListener registers a callback invoked whenever simulation time
// advances to a new instant, before the events at that instant run.
func (s *Scheduler) AddListener(fn func(time.Duration)) {
	s.listeners = append(s.listeners, fn)
}

// Pending reports the number of queued events.
func (s *Scheduler) Pending() int { return s.queue.Len() }

// NextEventTime returns the timestamp of the earliest queued event.
func (s *Scheduler) NextEventTime() (time.Duration, bool) {
	if s.queue.Len() == 0 {
		return 0, false
	}
	return s.queue[0].at, true
}

// Run delivers events in global time order until the queue is empty or the
// next event lies beyond until. Events scheduled exactly at until still run.
func (s *Scheduler) Run(d Dispatcher, until time.Duration) {
	wallStart := time.Now()

	for s.queue.Len() > 0 {
		next := s.queue[0]
		if next.at > until {
			break
		}
		heap.Pop(&s.queue)

		if s.mode == RealTime {
			if ahead := next.at - time.Since(wallStart); ahead > 0 {
				time.Sleep(ahead)
			}
		}

		if next.at > s.now {
			s.now = next.at
			for _, fn := range s.listeners {
				fn(s.now)
			}
		}
		d.Deliver(s.now, next.target, next.payload)
	}

	if until > s.now {
		s.now = until
	}
}

// RunSteps delivers at most n events regardless of their timestamps.
// Intended for tests that want to single-step the simulation.
func (s *Scheduler) RunSteps(d Dispatcher, n int) {
	for i := 0; i < n && s.queue.Len() > 0; i++ {
		next := heap.Pop(&s.queue).(*event)
		if next.at > s.now {
			s.now = next.at
			for _, fn := range s.listeners {
				fn(s.now)
			}
		}
		d.Deliver(s.now, next.target, next.payload)
	}
}

type event struct {
	at      time.Duration
	seq     uint64
	target  model.NodeID
	payload model.Payload
}

// eventHeap orders events by time, breaking ties by scheduling order so
// that same-instant events form a FIFO.
type eventHeap []*event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].at != h[j].at {
		return h[i].at < h[j].at
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) { *h = append(*h, x.(*event)) }

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return ev
}
