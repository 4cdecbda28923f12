package core

import "github.com/signalsfoundry/leo-mesh-sim/model"

// NeighborLink is one entry in a node's neighbor set: the peer, the
// current distance, the link cost derived from it, and the link carrying
// the adjacency. The cost metric is the distance in kilometres — a
// propagation-delay proxy, not a traffic-aware metric.
type NeighborLink struct {
	PeerID     model.NodeID
	DistanceKm float64
	CostKm     float64
	Link       model.LinkID
}

// Candidate is a node considered for adjacency during a topology
// recompute. GroundLink marks an existing physical satellite–ground
// connection, which is admitted unconditionally rather than range
// filtered; satellite–satellite pairs are admitted iff their distance is
// within maxRange. The asymmetry is deliberate and mirrors how ground
// links are established by the handover controller, not by geometry.
type Candidate struct {
	ID         model.NodeID
	Position   Vec3
	Link       model.LinkID
	GroundLink bool
}

// RecomputeNeighbors builds the full replacement neighbor set for a node
// at selfPos. It runs once at init and on every position tick, before the
// routing layer rebuilds its direct entries. The previous set is discarded
// wholesale, never merged.
func RecomputeNeighbors(selfPos Vec3, candidates []Candidate, maxRangeKm float64) []NeighborLink {
	neighbors := make([]NeighborLink, 0, len(candidates))
	for _, c := range candidates {
		dist := selfPos.DistanceTo(c.Position)
		if !c.GroundLink && dist > maxRangeKm {
			continue
		}
		neighbors = append(neighbors, NeighborLink{
			PeerID:     c.ID,
			DistanceKm: dist,
			CostKm:     dist,
			Link:       c.Link,
		})
	}
	return neighbors
}
