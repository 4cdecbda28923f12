package core

import (
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/leo-mesh-sim/model"
)

// MotionModel yields a node's Earth-fixed position at a given simulation
// time. Implementations must be pure: the topology tracker and the ground
// handover controller recompute peer positions on their own ticks, so the
// same (model, t) pair has to produce the same point everywhere.
type MotionModel interface {
	PositionAt(t time.Duration) Vec3
}

// KeplerianMotion propagates a satellite from its classical orbital
// elements using the deterministic position engine.
type KeplerianMotion struct {
	Params model.OrbitParameters
}

func (m KeplerianMotion) PositionAt(t time.Duration) Vec3 {
	return ComputePosition(m.Params, t)
}

// StaticMotion pins a node to a fixed Earth-fixed position. Ground
// stations rotate with the Earth, so in ECEF they do not move.
type StaticMotion struct {
	Position Vec3
}

func (m StaticMotion) PositionAt(time.Duration) Vec3 { return m.Position }

// SGP4Motion propagates a satellite from a TLE using SGP4. It exists for
// scenarios that describe real constellations by catalog data instead of
// hand-written elements. go-satellite works in kilometres, matching the
// geometry layer.
type SGP4Motion struct {
	sat   satellite.Satellite
	epoch time.Time
}

// NewSGP4Motion constructs an SGP4 model from TLE lines. The epoch anchors
// simulation time zero to a wall-clock instant.
func NewSGP4Motion(line1, line2 string, epoch time.Time) *SGP4Motion {
	return &SGP4Motion{
		sat:   satellite.TLEToSat(line1, line2, satellite.GravityWGS72),
		epoch: epoch,
	}
}

func (m *SGP4Motion) PositionAt(t time.Duration) Vec3 {
	at := m.epoch.Add(t).UTC()
	year, month, day := at.Date()
	hour, min, sec := at.Clock()

	posECI, _ := satellite.Propagate(m.sat, year, int(month), day, hour, min, sec)
	jd := satellite.JDay(year, int(month), day, hour, min, sec)
	gmst := satellite.ThetaG_JD(jd)
	posECEF := satellite.ECIToECEF(posECI, gmst)

	return Vec3{X: posECEF.X, Y: posECEF.Y, Z: posECEF.Z}
}
