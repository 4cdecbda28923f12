package core

import (
	"math"
	"time"

	"github.com/signalsfoundry/leo-mesh-sim/model"
)

// keplerIterations is the fixed Newton-Raphson iteration count used when
// solving Kepler's equation. There is no convergence check; for the
// eccentricities the scenario loader admits (e ∈ [0,1)) ten steps are far
// beyond what double precision can resolve.
const keplerIterations = 10

// ComputePosition propagates a satellite along its Keplerian orbit and
// returns its Earth-fixed position at simulation time t. The function is
// pure and deterministic: identical inputs always yield identical outputs,
// which the topology and handover layers rely on so that every node can
// recompute any satellite's position without shared state.
//
// The caller is responsible for validating params (see
// model.OrbitParameters.Validate); invalid elements are a configuration
// error, not a runtime condition.
func ComputePosition(params model.OrbitParameters, t time.Duration) Vec3 {
	ts := t.Seconds()
	a := params.SemiMajorAxisKm
	e := params.Eccentricity

	// Mean motion and mean anomaly at t.
	n := math.Sqrt(GravitationalMu / (a * a * a))
	meanAnomaly := params.MeanAnomalyDeg*math.Pi/180.0 + n*ts

	// Solve Kepler's equation E - e·sin(E) = M by Newton-Raphson.
	eccAnomaly := meanAnomaly
	for i := 0; i < keplerIterations; i++ {
		eccAnomaly -= (eccAnomaly - e*math.Sin(eccAnomaly) - meanAnomaly) /
			(1 - e*math.Cos(eccAnomaly))
	}

	sinE := math.Sin(eccAnomaly)
	cosE := math.Cos(eccAnomaly)

	// True anomaly and radius from the eccentric anomaly.
	trueAnomaly := math.Atan2(math.Sqrt(1-e*e)*sinE, cosE-e)
	radius := a * (1 - e*cosE)

	// Position in the orbital plane, perigee along +x.
	xOrb := radius * math.Cos(trueAnomaly)
	yOrb := radius * math.Sin(trueAnomaly)

	// Rotate the perifocal frame into ECI: argument of perigee about z,
	// inclination about x, RAAN about z.
	argPerigee := params.ArgPerigeeDeg * math.Pi / 180.0
	inclination := params.InclinationDeg * math.Pi / 180.0
	raan := params.RAANDeg * math.Pi / 180.0

	cosW, sinW := math.Cos(argPerigee), math.Sin(argPerigee)
	cosI, sinI := math.Cos(inclination), math.Sin(inclination)
	cosO, sinO := math.Cos(raan), math.Sin(raan)

	xECI := (cosO*cosW-sinO*sinW*cosI)*xOrb + (-cosO*sinW-sinO*cosW*cosI)*yOrb
	yECI := (sinO*cosW+cosO*sinW*cosI)*xOrb + (-sinO*sinW+cosO*cosW*cosI)*yOrb
	zECI := (sinW*sinI)*xOrb + (cosW*sinI)*yOrb

	// Rotate by the Earth's rotation angle into the Earth-fixed frame.
	theta := EarthRotationRate * ts
	cosT, sinT := math.Cos(theta), math.Sin(theta)

	return Vec3{
		X: cosT*xECI + sinT*yECI,
		Y: -sinT*xECI + cosT*yECI,
		Z: zECI,
	}
}
