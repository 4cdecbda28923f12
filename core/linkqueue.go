package core

import (
	"time"

	"github.com/signalsfoundry/leo-mesh-sim/model"
)

// DefaultQueueCapacity bounds each per-link transmission queue unless the
// scenario overrides it.
const DefaultQueueCapacity = 1000

// EventScheduler is the scheduling surface core components need from the
// scheduler collaborator: read the clock and arrange future deliveries.
// Handlers never block; every wait is expressed through these calls.
type EventScheduler interface {
	Now() time.Duration
	Schedule(delay time.Duration, target model.NodeID, payload model.Payload)
	ScheduleAt(at time.Duration, target model.NodeID, payload model.Payload)
}

// LinkQueue is the bounded FIFO in front of one outgoing transmitter. It
// models finite buffering, serialization delay and backpressure: when the
// channel is busy the backlog waits behind a single transmission-complete
// wake-up, and arrivals beyond capacity are tail-dropped.
type LinkQueue struct {
	owner    model.NodeID
	link     *Link
	capacity int
	stats    *NodeStats

	frames      []*model.Packet
	wakePending bool
}

// NewLinkQueue builds a queue for owner's side of link. Drops are counted
// against the owning node's stats.
func NewLinkQueue(owner model.NodeID, link *Link, capacity int, stats *NodeStats) *LinkQueue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &LinkQueue{owner: owner, link: link, capacity: capacity, stats: stats}
}

// Len reports the current backlog.
func (q *LinkQueue) Len() int { return len(q.frames) }

// Link returns the link this queue feeds.
func (q *LinkQueue) Link() *Link { return q.link }

// Enqueue appends a frame and attempts dispatch. The frame is dropped and
// counted when the link reference is invalid, the link is disconnected, or
// the queue is at capacity.
func (q *LinkQueue) Enqueue(sched EventScheduler, pkt *model.Packet) bool {
	if q.link == nil {
		q.stats.Drop(DropInvalidLink)
		return false
	}
	if !q.link.Connected {
		q.stats.Drop(DropLinkDisconnected)
		return false
	}
	if len(q.frames) >= q.capacity {
		q.stats.Drop(DropQueueFull)
		return false
	}
	q.frames = append(q.frames, pkt)
	q.Dispatch(sched)
	return true
}

// Dispatch tries to move the head frame onto the channel. A busy channel
// results in exactly one pending transmission-complete wake-up at the
// channel's reported finish time; scheduling it again is skipped while one
// is outstanding.
func (q *LinkQueue) Dispatch(sched EventScheduler) {
	if q.link != nil && !q.link.Connected {
		// The link was torn down (e.g. mid-handover) with frames still
		// queued. They were left to fail at their next dispatch attempt;
		// this is that attempt.
		for len(q.frames) > 0 {
			q.pop()
			q.stats.Drop(DropLinkDisconnected)
		}
		return
	}
	if len(q.frames) == 0 || q.link == nil {
		return
	}

	now := sched.Now()
	ch := q.link.ChannelFrom(q.owner)
	if ch.IsBusy(now) {
		q.ensureWake(sched, ch.TransmissionFinishTime())
		return
	}

	pkt := q.pop()
	finish := ch.BeginTransmission(now, pkt.SizeBits)
	sched.ScheduleAt(finish+q.link.Delay(), q.link.Peer(q.owner), pkt)

	if len(q.frames) > 0 {
		q.ensureWake(sched, finish)
	}
}

// OnTransmissionComplete clears the pending wake-up and re-dispatches to
// drain further backlog.
func (q *LinkQueue) OnTransmissionComplete(sched EventScheduler) {
	q.wakePending = false
	q.Dispatch(sched)
}

func (q *LinkQueue) ensureWake(sched EventScheduler, at time.Duration) {
	if q.wakePending {
		return
	}
	q.wakePending = true
	sched.ScheduleAt(at, q.owner, model.TickEvent{Kind: model.TxComplete, Link: q.link.ID})
}

func (q *LinkQueue) pop() *model.Packet {
	pkt := q.frames[0]
	q.frames[0] = nil
	q.frames = q.frames[1:]
	return pkt
}
