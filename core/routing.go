package core

import (
	"sort"

	"github.com/signalsfoundry/leo-mesh-sim/model"
)

// RoutingEntry maps a destination to the neighbor that currently offers
// the cheapest known path toward it. At most one entry exists per
// destination.
type RoutingEntry struct {
	DestinationID model.NodeID
	NextHopID     model.NodeID
	CostKm        float64
}

// RoutingTable implements the distance-vector protocol's per-node state:
// destination → (next hop, cost). Entries are only ever replaced through
// strict cost improvement; there is no removal path, no split-horizon, no
// poison-reverse and no hold-down. Entries pointing through a vanished
// neighbor persist until the next topology reset discards them.
type RoutingTable struct {
	self    model.NodeID
	entries map[model.NodeID]RoutingEntry
}

// NewRoutingTable creates an empty table owned by self.
func NewRoutingTable(self model.NodeID) *RoutingTable {
	return &RoutingTable{
		self:    self,
		entries: make(map[model.NodeID]RoutingEntry),
	}
}

// OnTopologyChanged performs the full reset: the table is cleared and one
// direct entry is reinserted per current neighbor. Indirect routes learned
// from earlier advertisements are discarded until new advertisements
// rebuild them.
func (rt *RoutingTable) OnTopologyChanged(neighbors []NeighborLink) {
	rt.entries = make(map[model.NodeID]RoutingEntry, len(neighbors))
	for _, n := range neighbors {
		rt.entries[n.PeerID] = RoutingEntry{
			DestinationID: n.PeerID,
			NextHopID:     n.PeerID,
			CostKm:        n.CostKm,
		}
	}
}

// Lookup returns the entry for a destination, if any.
func (rt *RoutingTable) Lookup(dest model.NodeID) (RoutingEntry, bool) {
	e, ok := rt.entries[dest]
	return e, ok
}

// Len reports the number of entries.
func (rt *RoutingTable) Len() int { return len(rt.entries) }

// Entries returns the table sorted by destination, for deterministic
// advertisement contents and logging.
func (rt *RoutingTable) Entries() []RoutingEntry {
	out := make([]RoutingEntry, 0, len(rt.entries))
	for _, e := range rt.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DestinationID < out[j].DestinationID
	})
	return out
}

// Advertisement builds the message sent to every neighbor: the current
// table plus the sender itself at cost 0.
func (rt *RoutingTable) Advertisement() *model.RoutingAdvertisement {
	adv := &model.RoutingAdvertisement{
		SourceID: rt.self,
		Routes:   make([]model.AdvertisedRoute, 0, len(rt.entries)+1),
	}
	adv.Routes = append(adv.Routes, model.AdvertisedRoute{
		DestinationID: rt.self,
		CostKm:        0,
	})
	for _, e := range rt.Entries() {
		adv.Routes = append(adv.Routes, model.AdvertisedRoute{
			DestinationID: e.DestinationID,
			CostKm:        e.CostKm,
		})
	}
	return adv
}

// Merge folds a received advertisement into the table. linkCost resolves
// the cost of the link toward the sender from the current neighbor set;
// when the sender is not currently a neighbor the advertisement is still
// processed with a zero link cost. Existing entries update only on strict
// improvement — ties keep the old route. Returns the number of entries
// inserted or improved.
func (rt *RoutingTable) Merge(adv *model.RoutingAdvertisement, linkCost func(model.NodeID) (float64, bool)) int {
	lc, ok := linkCost(adv.SourceID)
	if !ok {
		lc = 0
	}

	changed := 0
	for _, route := range adv.Routes {
		if route.DestinationID == rt.self {
			continue
		}
		total := route.CostKm + lc
		existing, exists := rt.entries[route.DestinationID]
		if exists && total >= existing.CostKm {
			continue
		}
		rt.entries[route.DestinationID] = RoutingEntry{
			DestinationID: route.DestinationID,
			NextHopID:     adv.SourceID,
			CostKm:        total,
		}
		changed++
	}
	return changed
}
