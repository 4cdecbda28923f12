package model

import "errors"

var (
	ErrBadEccentricity  = errors.New("eccentricity must be in [0,1)")
	ErrBadSemiMajorAxis = errors.New("semi-major axis must be positive")
)

// OrbitParameters holds the classical Keplerian elements describing a
// satellite orbit. Lengths are kilometres, angles degrees. The values are
// immutable after creation; position at a given time is derived from them
// by the orbital position engine in core.
type OrbitParameters struct {
	SemiMajorAxisKm float64 // a = Earth radius + altitude for LEO
	Eccentricity    float64 // e, 0 = circular
	InclinationDeg  float64 // i
	RAANDeg         float64 // right ascension of ascending node
	ArgPerigeeDeg   float64 // argument of perigee
	MeanAnomalyDeg  float64 // mean anomaly at epoch t=0
}

// Validate enforces the configuration-time preconditions for orbit
// propagation. Elements outside these bounds are a scenario error, not a
// runtime condition.
func (p OrbitParameters) Validate() error {
	if p.Eccentricity < 0 || p.Eccentricity >= 1 {
		return ErrBadEccentricity
	}
	if p.SemiMajorAxisKm <= 0 {
		return ErrBadSemiMajorAxis
	}
	return nil
}
