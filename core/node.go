package core

import (
	"time"

	"github.com/signalsfoundry/leo-mesh-sim/internal/logging"
	"github.com/signalsfoundry/leo-mesh-sim/model"
)

// Node is one simulated entity: a satellite or a ground station. Each
// node exclusively owns its routing table, neighbor set, per-link queues
// and statistics; all cross-node effects travel as scheduled events, never
// as direct mutation of another node's state.
type Node struct {
	ID   model.NodeID
	Name string
	Kind model.NodeKind

	// Motion is pure; Position caches the result of the node's own most
	// recent position tick (ground stations are fixed in ECEF).
	Motion   MotionModel
	Position Vec3

	neighbors []NeighborLink
	routing   *RoutingTable
	queues    map[model.LinkID]*LinkQueue

	Stats NodeStats

	// Ground-station-only collaborators.
	handover   *GroundHandoverController
	traffic    *TrafficGenerator
	groundLink model.LinkID
}

// NewSatellite builds an orbiting node with the given motion model.
func NewSatellite(id model.NodeID, name string, motion MotionModel) *Node {
	n := &Node{
		ID:         id,
		Name:       name,
		Kind:       model.KindSatellite,
		Motion:     motion,
		routing:    NewRoutingTable(id),
		queues:     make(map[model.LinkID]*LinkQueue),
		groundLink: model.NoLink,
	}
	n.Position = motion.PositionAt(0)
	return n
}

// NewGroundStation builds a fixed node at the given geodetic position.
// traffic may be nil for a passive station.
func NewGroundStation(id model.NodeID, name string, geo model.GeoCoord, maxRangeKm float64, traffic *TrafficGenerator) *Node {
	pos := GeoToECEF(geo)
	return &Node{
		ID:         id,
		Name:       name,
		Kind:       model.KindGroundStation,
		Motion:     StaticMotion{Position: pos},
		Position:   pos,
		routing:    NewRoutingTable(id),
		queues:     make(map[model.LinkID]*LinkQueue),
		handover:   NewGroundHandoverController(maxRangeKm),
		traffic:    traffic,
		groundLink: model.NoLink,
	}
}

// Neighbors returns the current neighbor set.
func (n *Node) Neighbors() []NeighborLink { return n.neighbors }

// Routing exposes the routing table, mainly for inspection and tests.
func (n *Node) Routing() *RoutingTable { return n.routing }

// Handover exposes the ground station's handover controller; nil for
// satellites.
func (n *Node) Handover() *GroundHandoverController { return n.handover }

// HandleEvent is the node's single entry point for delivered events. It
// runs to completion without blocking; the payload set is closed and
// matched exhaustively.
func (n *Node) HandleEvent(e *Engine, now time.Duration, payload model.Payload) {
	switch p := payload.(type) {
	case model.TickEvent:
		switch p.Kind {
		case model.PositionTick:
			n.handlePositionTick(e, now)
		case model.HandoverTick:
			n.handleHandoverTick(e, now)
		case model.TrafficTick:
			n.handleTrafficTick(e, now)
		case model.TxComplete:
			n.handleTxComplete(e, p.Link)
		}
	case *model.Packet:
		n.onPacketArrival(e, now, p)
	case *model.RoutingAdvertisement:
		n.onAdvertisementReceived(e, p)
	case model.ControlMessage:
		e.log.Debug(e.ctx, "control message discarded",
			logging.Int("node", int(n.ID)), logging.String("name", p.Name))
	}
}

// handlePositionTick recomputes the satellite's position, rebuilds its
// neighbor set and link bindings, resets the routing table to direct
// entries and broadcasts the result. The tick reschedules itself exactly
// once per firing.
func (n *Node) handlePositionTick(e *Engine, now time.Duration) {
	n.Position = n.Motion.PositionAt(now)

	candidates := e.topologyCandidates(n, now)
	neighbors := RecomputeNeighbors(n.Position, candidates, e.cfg.MaxISLRangeKm)

	// Bind each satellite neighbor to its ISL, creating links on first
	// contact and refreshing distances. Ground-link distances stay
	// frozen at their establishment value.
	inRange := make(map[model.NodeID]bool, len(neighbors))
	for i := range neighbors {
		nb := &neighbors[i]
		inRange[nb.PeerID] = true
		if nb.Link == model.NoLink {
			l := e.reg.EnsureISL(n.ID, nb.PeerID, e.cfg.ISLDataRateBps)
			l.Connected = true
			l.DistanceKm = nb.DistanceKm
			nb.Link = l.ID
			continue
		}
		if l := e.reg.Link(nb.Link); l != nil && l.Kind == LinkISL {
			l.Connected = true
			l.DistanceKm = nb.DistanceKm
		}
	}
	for _, l := range e.reg.ISLLinksOf(n.ID) {
		if !inRange[l.Peer(n.ID)] {
			l.Connected = false
		}
	}

	n.neighbors = neighbors
	n.routing.OnTopologyChanged(neighbors)
	n.broadcastAdvertisement(e)

	e.sched.Schedule(e.cfg.PositionInterval, n.ID, model.TickEvent{Kind: model.PositionTick})
}

// broadcastAdvertisement sends one copy of the current table, plus self at
// cost 0, to every current neighbor. Advertisements travel with the link's
// latency but bypass the transmission queues: routing chatter is control
// plane, not queued traffic.
func (n *Node) broadcastAdvertisement(e *Engine) {
	if len(n.neighbors) == 0 {
		return
	}
	adv := n.routing.Advertisement()
	for _, nb := range n.neighbors {
		l := e.reg.Link(nb.Link)
		if l == nil {
			continue
		}
		e.sched.Schedule(l.Delay(), nb.PeerID, adv)
	}
}

// onAdvertisementReceived merges a peer's advertisement. The link cost
// comes from the current neighbor set; an advertisement from a node that
// is not currently a neighbor is still processed with link cost zero.
func (n *Node) onAdvertisementReceived(e *Engine, adv *model.RoutingAdvertisement) {
	n.routing.Merge(adv, func(peer model.NodeID) (float64, bool) {
		for _, nb := range n.neighbors {
			if nb.PeerID == peer {
				return nb.CostKm, true
			}
		}
		return 0, false
	})
}

// handleHandoverTick re-points the ground station's single dynamic link
// at the nearest in-range satellite.
func (n *Node) handleHandoverTick(e *Engine, now time.Duration) {
	if n.handover == nil {
		return
	}

	dec := n.handover.Evaluate(n.Position, e.satCandidates(now))
	if dec.TearDown {
		if l := e.reg.Link(n.groundLink); l != nil {
			// No active flush: frames queued on the old link fail at
			// their next dispatch attempt.
			l.Connected = false
		}
		n.groundLink = model.NoLink
		n.neighbors = nil
		n.routing.OnTopologyChanged(nil)
		e.log.Info(e.ctx, "ground station handover: disconnected",
			logging.Int("node", int(n.ID)), logging.Int("from", int(dec.Previous)))
	}
	if dec.Establish {
		l := e.reg.CreateGroundLink(n.ID, dec.Target, dec.DistanceKm, e.cfg.GroundDataRateBps)
		n.groundLink = l.ID
		n.neighbors = []NeighborLink{{
			PeerID:     dec.Target,
			DistanceKm: dec.DistanceKm,
			CostKm:     dec.DistanceKm,
			Link:       l.ID,
		}}
		n.routing.OnTopologyChanged(n.neighbors)
		e.log.Info(e.ctx, "ground station handover: connected",
			logging.Int("node", int(n.ID)),
			logging.Int("to", int(dec.Target)),
			logging.Any("distance_km", dec.DistanceKm))
	}

	e.sched.Schedule(e.cfg.HandoverInterval, n.ID, model.TickEvent{Kind: model.HandoverTick})
}

// handleTrafficTick emits one generated packet toward the serving
// satellite and reschedules itself.
func (n *Node) handleTrafficTick(e *Engine, now time.Duration) {
	if n.traffic == nil {
		return
	}

	pkt := n.traffic.Next(now, n.ID)
	n.sendToServingSatellite(e, pkt)

	e.sched.Schedule(n.traffic.Interval(), n.ID, model.TickEvent{Kind: model.TrafficTick})
}

// sendToServingSatellite pushes a locally generated packet onto the
// ground link. Without a live connection the packet is dropped and
// counted; there is no buffering across the unreachability window.
func (n *Node) sendToServingSatellite(e *Engine, pkt *model.Packet) {
	l := e.reg.Link(n.groundLink)
	if l == nil || !l.Connected {
		n.Stats.Drop(DropLinkDisconnected)
		return
	}
	n.Stats.PacketsSent++
	n.queueFor(e, l).Enqueue(e.sched, pkt)
}

// handleTxComplete wakes the queue whose channel finished transmitting.
// A wake-up for an unknown queue is a stale reference and is ignored.
func (n *Node) handleTxComplete(e *Engine, link model.LinkID) {
	q, ok := n.queues[link]
	if !ok {
		return
	}
	q.OnTransmissionComplete(e.sched)
}

// queueFor returns the node's queue feeding the given link, creating it
// on first use.
func (n *Node) queueFor(e *Engine, l *Link) *LinkQueue {
	if q, ok := n.queues[l.ID]; ok {
		return q
	}
	q := NewLinkQueue(n.ID, l, e.cfg.QueueCapacity, &n.Stats)
	n.queues[l.ID] = q
	return q
}
