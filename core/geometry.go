package core

import (
	"math"

	"github.com/signalsfoundry/leo-mesh-sim/model"
)

// Physical constants shared by the geometry and propagation layers.
// Values follow the usual spherical-Earth approximations used for LEO
// link-budget style work; all lengths are kilometres.
const (
	EarthRadiusKm = 6371.0

	// GravitationalMu is the Earth's standard gravitational parameter
	// in km³/s².
	GravitationalMu = 398600.4418

	// EarthRotationRate is the sidereal rotation rate in rad/s.
	EarthRotationRate = 7.2921159e-5

	// SpeedOfLightKmPerSec bounds every propagation delay in the mesh.
	SpeedOfLightKmPerSec = 299792.458
)

// Vec3 is an ECEF-style vector in kilometres.
type Vec3 struct {
	X, Y, Z float64
}

// DistanceTo returns the straight-line distance between two points.
func (v Vec3) DistanceTo(other Vec3) float64 {
	dx := v.X - other.X
	dy := v.Y - other.Y
	dz := v.Z - other.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// GeoToECEF converts a geodetic coordinate to an Earth-fixed position on
// a spherical Earth. Ground stations rotate with the Earth, so their ECEF
// position is constant over the run.
func GeoToECEF(geo model.GeoCoord) Vec3 {
	lat := geo.LatitudeDeg * math.Pi / 180.0
	lon := geo.LongitudeDeg * math.Pi / 180.0
	r := EarthRadiusKm + geo.AltitudeKm
	return Vec3{
		X: r * math.Cos(lat) * math.Cos(lon),
		Y: r * math.Cos(lat) * math.Sin(lon),
		Z: r * math.Sin(lat),
	}
}
