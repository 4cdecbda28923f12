package model

// NodeID is the stable integer address of a simulated entity. Nodes refer
// to each other only by ID through the registry, never by pointer.
type NodeID int

// NoNode marks the absence of a node, e.g. a ground station with no
// serving satellite.
const NoNode NodeID = -1

// LinkID identifies a point-to-point link in the link table.
type LinkID int

// NoLink marks the absence of a link.
const NoLink LinkID = -1

// NodeKind distinguishes orbiting nodes from ground terminals.
type NodeKind int

const (
	KindSatellite NodeKind = iota
	KindGroundStation
)

func (k NodeKind) String() string {
	switch k {
	case KindSatellite:
		return "satellite"
	case KindGroundStation:
		return "ground_station"
	default:
		return "unknown"
	}
}

// GeoCoord is a geodetic position used to place ground stations.
type GeoCoord struct {
	LatitudeDeg  float64
	LongitudeDeg float64
	AltitudeKm   float64
}
