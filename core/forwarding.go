package core

import (
	"time"

	"github.com/signalsfoundry/leo-mesh-sim/internal/logging"
	"github.com/signalsfoundry/leo-mesh-sim/model"
)

// onPacketArrival is the accept-or-forward decision for one arriving
// packet. A packet addressed to this node is always accepted and
// destroyed, never forwarded. Anything else takes a hop, consults the
// routing table and is queued toward the next hop — or dropped and
// counted when no route or no usable link exists. There is no TTL:
// inconsistent routing can loop a packet indefinitely.
func (n *Node) onPacketArrival(e *Engine, now time.Duration, pkt *model.Packet) {
	if pkt.DestinationID == n.ID {
		n.Stats.Accept(now, pkt)
		e.log.Debug(e.ctx, "packet accepted",
			logging.Int("node", int(n.ID)),
			logging.Int("source", int(pkt.SourceID)),
			logging.Int("hops", pkt.HopCount),
			logging.Any("delay", now-pkt.CreatedAt))
		return
	}

	pkt.HopCount++

	entry, ok := n.routing.Lookup(pkt.DestinationID)
	if !ok {
		n.Stats.Drop(DropNoRoute)
		e.log.Debug(e.ctx, "packet dropped: no route",
			logging.Int("node", int(n.ID)), logging.Int("dest", int(pkt.DestinationID)))
		return
	}

	l := e.reg.LinkBetween(n.ID, entry.NextHopID)
	if l == nil {
		// The table points at a next hop this node never had a link
		// with — stale bookkeeping from a vanished adjacency.
		n.Stats.Drop(DropInvalidLink)
		return
	}

	if n.queueFor(e, l).Enqueue(e.sched, pkt) {
		n.Stats.PacketsForwarded++
		n.Stats.TotalBitsForwarded += pkt.SizeBits
	}
}
