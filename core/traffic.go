package core

import (
	"math/rand"
	"time"

	"github.com/signalsfoundry/leo-mesh-sim/model"
)

// TrafficProfile describes a ground station's generated load: fixed-size
// packets at a fixed interval toward one destination, or a uniformly
// random pick among several (the hub-and-spoke pattern where many
// stations target one hub and the hub sprays back).
type TrafficProfile struct {
	Interval     time.Duration
	SizeBits     int64
	Destinations []model.NodeID
}

// Enabled reports whether the profile generates anything at all.
func (p TrafficProfile) Enabled() bool {
	return p.Interval > 0 && p.SizeBits > 0 && len(p.Destinations) > 0
}

// TrafficGenerator mints packets for one source node. Destination picks
// come from a seeded generator so runs are reproducible.
type TrafficGenerator struct {
	profile TrafficProfile
	rng     *rand.Rand
	nextID  int64
}

// NewTrafficGenerator builds a generator with its own RNG stream.
func NewTrafficGenerator(profile TrafficProfile, seed int64) *TrafficGenerator {
	return &TrafficGenerator{
		profile: profile,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// Interval returns the generation period.
func (g *TrafficGenerator) Interval() time.Duration { return g.profile.Interval }

// Next creates the next packet from src at simulation time now.
func (g *TrafficGenerator) Next(now time.Duration, src model.NodeID) *model.Packet {
	dest := g.profile.Destinations[0]
	if len(g.profile.Destinations) > 1 {
		dest = g.profile.Destinations[g.rng.Intn(len(g.profile.Destinations))]
	}
	pkt := &model.Packet{
		SourceID:      src,
		DestinationID: dest,
		PacketID:      g.nextID,
		SizeBits:      g.profile.SizeBits,
		CreatedAt:     now,
	}
	g.nextID++
	return pkt
}
