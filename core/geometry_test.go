package core

import (
	"math"
	"testing"

	"github.com/signalsfoundry/leo-mesh-sim/model"
)

func TestGeoToECEF_Equator(t *testing.T) {
	got := GeoToECEF(model.GeoCoord{LatitudeDeg: 0, LongitudeDeg: 0, AltitudeKm: 0})
	want := Vec3{X: EarthRadiusKm, Y: 0, Z: 0}
	if math.Abs(got.X-want.X) > 1e-9 || math.Abs(got.Y) > 1e-9 || math.Abs(got.Z) > 1e-9 {
		t.Fatalf("GeoToECEF(0,0) = %+v, want %+v", got, want)
	}
}

func TestGeoToECEF_NorthPole(t *testing.T) {
	got := GeoToECEF(model.GeoCoord{LatitudeDeg: 90, LongitudeDeg: 45, AltitudeKm: 2})
	if math.Abs(got.Z-(EarthRadiusKm+2)) > 1e-6 {
		t.Fatalf("pole Z = %v, want %v", got.Z, EarthRadiusKm+2)
	}
	if math.Abs(got.X) > 1e-6 || math.Abs(got.Y) > 1e-6 {
		t.Fatalf("pole X,Y = %v,%v, want ~0", got.X, got.Y)
	}
}

func TestGeoToECEF_AltitudeExtendsRadius(t *testing.T) {
	got := GeoToECEF(model.GeoCoord{LatitudeDeg: 30, LongitudeDeg: -60, AltitudeKm: 5})
	if r := got.Norm(); math.Abs(r-(EarthRadiusKm+5)) > 1e-6 {
		t.Fatalf("norm = %v, want %v", r, EarthRadiusKm+5)
	}
}

func TestDistanceToIsSymmetric(t *testing.T) {
	a := Vec3{X: 7000, Y: -1200, Z: 300}
	b := Vec3{X: 6500, Y: 900, Z: -450}
	if d1, d2 := a.DistanceTo(b), b.DistanceTo(a); d1 != d2 {
		t.Fatalf("distance not symmetric: %v vs %v", d1, d2)
	}
	if d := a.DistanceTo(a); d != 0 {
		t.Fatalf("self-distance = %v, want 0", d)
	}
}
