package core

import "github.com/signalsfoundry/leo-mesh-sim/model"

// HandoverState is the ground station's connection state machine.
type HandoverState int

const (
	HandoverDisconnected HandoverState = iota
	HandoverConnected
)

func (s HandoverState) String() string {
	if s == HandoverConnected {
		return "connected"
	}
	return "disconnected"
}

// SatCandidate is an orbiting node considered during a handover scan.
type SatCandidate struct {
	ID       model.NodeID
	Position Vec3
}

// HandoverDecision tells the owning node what to do after a scan: tear
// down the previous link, establish a new one toward Target, or both (a
// satellite-to-satellite switch). Queued frames on a torn-down link are
// not flushed; they fail at their next dispatch attempt.
type HandoverDecision struct {
	Changed  bool
	TearDown bool
	Previous model.NodeID

	Establish  bool
	Target     model.NodeID
	DistanceKm float64
}

// GroundHandoverController selects and maintains a ground station's
// serving satellite. A station is connected to at most one satellite at
// any time.
type GroundHandoverController struct {
	maxRangeKm float64
	current    model.NodeID
}

// NewGroundHandoverController starts in the Disconnected state.
func NewGroundHandoverController(maxRangeKm float64) *GroundHandoverController {
	return &GroundHandoverController{maxRangeKm: maxRangeKm, current: model.NoNode}
}

// State reports the current state machine position.
func (h *GroundHandoverController) State() HandoverState {
	if h.current == model.NoNode {
		return HandoverDisconnected
	}
	return HandoverConnected
}

// ServingSatellite returns the currently serving satellite, if connected.
func (h *GroundHandoverController) ServingSatellite() (model.NodeID, bool) {
	if h.current == model.NoNode {
		return model.NoNode, false
	}
	return h.current, true
}

// Evaluate runs one handover tick: a linear scan for the nearest
// satellite within range. When the winner differs from the current
// serving satellite the controller transitions and returns the link
// operations the node must apply. No candidate in range transitions to
// Disconnected.
func (h *GroundHandoverController) Evaluate(selfPos Vec3, candidates []SatCandidate) HandoverDecision {
	nearest := model.NoNode
	minDistance := h.maxRangeKm
	for _, c := range candidates {
		distance := selfPos.DistanceTo(c.Position)
		if distance <= h.maxRangeKm && distance < minDistance {
			minDistance = distance
			nearest = c.ID
		}
	}

	if nearest == h.current {
		return HandoverDecision{}
	}

	dec := HandoverDecision{Changed: true}
	if h.current != model.NoNode {
		dec.TearDown = true
		dec.Previous = h.current
	}
	if nearest != model.NoNode {
		dec.Establish = true
		dec.Target = nearest
		dec.DistanceKm = minDistance
	}
	h.current = nearest
	return dec
}
