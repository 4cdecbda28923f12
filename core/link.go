package core

import (
	"time"

	"github.com/signalsfoundry/leo-mesh-sim/model"
)

// LinkKind distinguishes inter-satellite links from the single dynamic
// link a ground station keeps toward its serving satellite.
type LinkKind int

const (
	LinkISL LinkKind = iota
	LinkGround
)

func (k LinkKind) String() string {
	if k == LinkGround {
		return "ground"
	}
	return "isl"
}

// ProcessingDelay is the fixed per-hop processing time added on top of
// propagation, identical for ISL and ground links.
const ProcessingDelay = time.Millisecond

// Channel models one direction of a link's transmitter. A frame occupies
// the channel for sizeBits/dataRate seconds; while occupied the channel
// reports busy and the owning queue parks its backlog behind a single
// transmission-complete wake-up.
type Channel struct {
	DataRateBps float64

	busyUntil time.Duration
}

// IsBusy reports whether a transmission is still in progress at now.
func (c *Channel) IsBusy(now time.Duration) bool { return now < c.busyUntil }

// TransmissionFinishTime returns the instant the current transmission
// completes. Only meaningful while IsBusy.
func (c *Channel) TransmissionFinishTime() time.Duration { return c.busyUntil }

// BeginTransmission occupies the channel for the frame's serialization
// time and returns the finish instant.
func (c *Channel) BeginTransmission(now time.Duration, sizeBits int64) time.Duration {
	occupancy := time.Duration(float64(sizeBits) / c.DataRateBps * float64(time.Second))
	c.busyUntil = now + occupancy
	return c.busyUntil
}

// Link is a point-to-point connection between two nodes with one
// transmitter per direction. Links are owned by the registry; nodes refer
// to them by ID. A disconnected link keeps its identity so that frames
// still queued on it can fail lazily at their next dispatch attempt.
type Link struct {
	ID   model.LinkID
	Kind LinkKind
	A, B model.NodeID

	// Connected reflects current physical viability: in range for an
	// ISL, or the live handover connection for a ground link.
	Connected bool

	// DistanceKm drives the propagation delay. ISL distances are
	// refreshed every position tick; ground-link distances are frozen
	// at connection establishment.
	DistanceKm float64

	forward Channel // A → B
	reverse Channel // B → A
}

// Peer returns the far endpoint relative to self.
func (l *Link) Peer(self model.NodeID) model.NodeID {
	if self == l.A {
		return l.B
	}
	return l.A
}

// ChannelFrom returns the transmitter owned by self's side of the link.
func (l *Link) ChannelFrom(self model.NodeID) *Channel {
	if self == l.A {
		return &l.forward
	}
	return &l.reverse
}

// Delay is the one-way latency of the link: propagation at the speed of
// light plus the fixed processing delay.
func (l *Link) Delay() time.Duration {
	prop := time.Duration(l.DistanceKm / SpeedOfLightKmPerSec * float64(time.Second))
	return prop + ProcessingDelay
}
