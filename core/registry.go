package core

import (
	"errors"
	"fmt"

	"github.com/signalsfoundry/leo-mesh-sim/model"
)

var (
	ErrNodeExists   = errors.New("node already exists")
	ErrNodeNotFound = errors.New("node not found")
	ErrNodeBadInput = errors.New("invalid node")
)

// Registry is the arena owning every node and link in the simulation.
// Nodes address each other exclusively by integer ID through the registry;
// no node ever holds a pointer into another node's state. Iteration
// helpers return insertion order so runs are deterministic.
type Registry struct {
	nodes map[model.NodeID]*Node
	order []model.NodeID

	links       map[model.LinkID]*Link
	linksByNode map[model.NodeID][]model.LinkID
	islIndex    map[[2]model.NodeID]model.LinkID
	nextLinkID  model.LinkID
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		nodes:       make(map[model.NodeID]*Node),
		links:       make(map[model.LinkID]*Link),
		linksByNode: make(map[model.NodeID][]model.LinkID),
		islIndex:    make(map[[2]model.NodeID]model.LinkID),
	}
}

// AddNode registers a node under its ID.
func (r *Registry) AddNode(n *Node) error {
	if n == nil || n.ID < 0 {
		return fmt.Errorf("%w", ErrNodeBadInput)
	}
	if _, exists := r.nodes[n.ID]; exists {
		return fmt.Errorf("%w: %d", ErrNodeExists, n.ID)
	}
	r.nodes[n.ID] = n
	r.order = append(r.order, n.ID)
	return nil
}

// Node returns a node by ID, or nil.
func (r *Registry) Node(id model.NodeID) *Node { return r.nodes[id] }

// Nodes returns all nodes in insertion order.
func (r *Registry) Nodes() []*Node {
	out := make([]*Node, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.nodes[id])
	}
	return out
}

// Satellites returns the orbiting nodes in insertion order.
func (r *Registry) Satellites() []*Node {
	var out []*Node
	for _, id := range r.order {
		if n := r.nodes[id]; n.Kind == model.KindSatellite {
			out = append(out, n)
		}
	}
	return out
}

// Link returns a link by ID, or nil for a stale reference.
func (r *Registry) Link(id model.LinkID) *Link { return r.links[id] }

// EnsureISL returns the inter-satellite link between a and b, creating it
// on first contact. The link's identity is stable across range churn; only
// its Connected flag toggles.
func (r *Registry) EnsureISL(a, b model.NodeID, dataRateBps float64) *Link {
	key := pairKey(a, b)
	if id, ok := r.islIndex[key]; ok {
		return r.links[id]
	}
	l := r.newLink(LinkISL, a, b, dataRateBps)
	r.islIndex[key] = l.ID
	return l
}

// CreateGroundLink establishes a fresh link between a ground station and
// its new serving satellite. Each handover creates a new link; the torn
// down predecessor keeps its identity so queued frames can fail lazily.
// The distance, and with it the propagation delay, is frozen at
// establishment time.
func (r *Registry) CreateGroundLink(ground, sat model.NodeID, distanceKm, dataRateBps float64) *Link {
	l := r.newLink(LinkGround, ground, sat, dataRateBps)
	l.DistanceKm = distanceKm
	l.Connected = true
	return l
}

// LinkBetween resolves the link to use when forwarding from a to b: the
// ISL between them if one was ever formed, else the currently connected
// ground link. Returns nil when bookkeeping points at a pair that never
// had a link.
func (r *Registry) LinkBetween(a, b model.NodeID) *Link {
	if id, ok := r.islIndex[pairKey(a, b)]; ok {
		return r.links[id]
	}
	for _, id := range r.linksByNode[a] {
		l := r.links[id]
		if l.Kind == LinkGround && l.Connected && l.Peer(a) == b {
			return l
		}
	}
	return nil
}

// ISLLinksOf returns every inter-satellite link touching the node, in
// creation order.
func (r *Registry) ISLLinksOf(id model.NodeID) []*Link {
	var out []*Link
	for _, lid := range r.linksByNode[id] {
		if l := r.links[lid]; l.Kind == LinkISL {
			out = append(out, l)
		}
	}
	return out
}

// GroundLinksOf returns the connected ground links touching the node.
func (r *Registry) GroundLinksOf(id model.NodeID) []*Link {
	var out []*Link
	for _, lid := range r.linksByNode[id] {
		if l := r.links[lid]; l.Kind == LinkGround && l.Connected {
			out = append(out, l)
		}
	}
	return out
}

func (r *Registry) newLink(kind LinkKind, a, b model.NodeID, dataRateBps float64) *Link {
	r.nextLinkID++
	l := &Link{
		ID:      r.nextLinkID,
		Kind:    kind,
		A:       a,
		B:       b,
		forward: Channel{DataRateBps: dataRateBps},
		reverse: Channel{DataRateBps: dataRateBps},
	}
	r.links[l.ID] = l
	r.linksByNode[a] = append(r.linksByNode[a], l.ID)
	r.linksByNode[b] = append(r.linksByNode[b], l.ID)
	return l
}

func pairKey(a, b model.NodeID) [2]model.NodeID {
	if a > b {
		a, b = b, a
	}
	return [2]model.NodeID{a, b}
}
