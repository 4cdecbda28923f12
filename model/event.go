package model

import "time"

// Payload is the closed set of event payloads a node can receive from the
// scheduler. Handlers switch exhaustively over the concrete types below;
// there is no open-ended message hierarchy.
type Payload interface {
	payload()
}

// TickKind names the self-rescheduling timers a node maintains. Per timer
// purpose at most one wake-up is outstanding at any moment.
type TickKind int

const (
	PositionTick TickKind = iota // recompute position, topology, routing
	HandoverTick                 // ground station re-points its serving satellite
	TrafficTick                  // ground station emits a generated packet
	TxComplete                   // a link's channel finished its transmission
)

func (k TickKind) String() string {
	switch k {
	case PositionTick:
		return "position"
	case HandoverTick:
		return "handover"
	case TrafficTick:
		return "traffic"
	case TxComplete:
		return "tx_complete"
	default:
		return "unknown"
	}
}

// TickEvent is a timer wake-up. Link is set only for TxComplete.
type TickEvent struct {
	Kind TickKind
	Link LinkID
}

// Packet is a unit of user traffic. Packets are created by the traffic
// generator (or forwarded by satellites) and destroyed on accept or drop;
// there is no byte-level encoding, the struct itself travels between nodes
// as an in-process event.
type Packet struct {
	SourceID      NodeID
	DestinationID NodeID
	PacketID      int64
	HopCount      int
	SizeBits      int64
	CreatedAt     time.Duration // simulation time of creation
}

// AdvertisedRoute is one destination/cost pair inside an advertisement.
type AdvertisedRoute struct {
	DestinationID NodeID
	CostKm        float64
}

// RoutingAdvertisement carries a node's full routing view to a neighbor.
// The sender always includes itself at cost 0.
type RoutingAdvertisement struct {
	SourceID NodeID
	Routes   []AdvertisedRoute
}

// ControlMessage covers miscellaneous signalling that is neither traffic
// nor routing; receivers log and discard it.
type ControlMessage struct {
	Name string
}

func (TickEvent) payload()             {}
func (*Packet) payload()               {}
func (*RoutingAdvertisement) payload() {}
func (ControlMessage) payload()        {}
