package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/signalsfoundry/leo-mesh-sim/model"
)

var ErrBadScenario = errors.New("invalid scenario")

// Scenario is a fully validated simulation setup: the effective
// configuration plus a registry populated with every node.
type Scenario struct {
	Name     string
	Config   Config
	Registry *Registry
}

// Internal JSON shapes, unexported so the on-disk format can evolve
// without leaking into the API.
type scenarioJSON struct {
	Name           string              `json:"name"`
	Parameters     parametersJSON      `json:"parameters"`
	Satellites     []satelliteJSON     `json:"satellites"`
	GroundStations []groundStationJSON `json:"ground_stations"`
}

type parametersJSON struct {
	MaxISLRangeKm      float64 `json:"max_isl_range_km"`
	QueueCapacity      int     `json:"queue_capacity"`
	ISLDataRateBps     float64 `json:"isl_data_rate_bps"`
	GroundDataRateBps  float64 `json:"ground_data_rate_bps"`
	PositionIntervalMs int64   `json:"position_interval_ms"`
	HandoverIntervalMs int64   `json:"handover_interval_ms"`
	Seed               int64   `json:"seed"`

	// Epoch anchors simulation time zero for TLE-driven satellites,
	// RFC 3339. Ignored for scenarios using classical elements only.
	Epoch string `json:"epoch"`
}

type satelliteJSON struct {
	ID    int        `json:"id"`
	Name  string     `json:"name"`
	Orbit *orbitJSON `json:"orbit"`
	TLE   *tleJSON   `json:"tle"`
}

type orbitJSON struct {
	SemiMajorAxisKm float64 `json:"semi_major_axis_km"`
	Eccentricity    float64 `json:"eccentricity"`
	InclinationDeg  float64 `json:"inclination_deg"`
	RAANDeg         float64 `json:"raan_deg"`
	ArgPerigeeDeg   float64 `json:"arg_perigee_deg"`
	MeanAnomalyDeg  float64 `json:"mean_anomaly_deg"`
}

type tleJSON struct {
	Line1 string `json:"line1"`
	Line2 string `json:"line2"`
}

type groundStationJSON struct {
	ID           int          `json:"id"`
	Name         string       `json:"name"`
	LatitudeDeg  float64      `json:"latitude_deg"`
	LongitudeDeg float64      `json:"longitude_deg"`
	AltitudeKm   float64      `json:"altitude_km"`
	MaxRangeKm   float64      `json:"max_range_km"`
	Traffic      *trafficJSON `json:"traffic"`
}

type trafficJSON struct {
	IntervalMs   int64   `json:"interval_ms"`
	SizeBits     int64   `json:"size_bits"`
	Destinations []int   `json:"destinations"`
	SizeBytes    int64   `json:"size_bytes"`
	RateHz       float64 `json:"rate_hz"`
}

// LoadScenarioFile reads and validates a scenario from a JSON file.
func LoadScenarioFile(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load scenario: %w", err)
	}
	defer f.Close()
	return LoadScenario(f)
}

// LoadScenario reads a JSON scenario from r, validates every node and
// returns a registry ready to hand to the engine. Validation is strict:
// duplicate IDs, malformed orbits and dangling traffic destinations all
// fail the load rather than surfacing mid-run.
func LoadScenario(r io.Reader) (*Scenario, error) {
	var payload scenarioJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("load scenario: decode: %w", err)
	}

	cfg, epoch, err := configFromJSON(payload.Parameters)
	if err != nil {
		return nil, err
	}

	reg := NewRegistry()

	for _, js := range payload.Satellites {
		motion, err := satelliteMotion(js, epoch)
		if err != nil {
			return nil, err
		}
		name := js.Name
		if name == "" {
			name = fmt.Sprintf("sat-%d", js.ID)
		}
		if err := reg.AddNode(NewSatellite(model.NodeID(js.ID), name, motion)); err != nil {
			return nil, fmt.Errorf("load scenario: satellite %q: %w", name, err)
		}
	}

	for i, js := range payload.GroundStations {
		name := js.Name
		if name == "" {
			name = fmt.Sprintf("gs-%d", js.ID)
		}
		maxRange := js.MaxRangeKm
		if maxRange <= 0 {
			maxRange = cfg.MaxISLRangeKm
		}

		var gen *TrafficGenerator
		if js.Traffic != nil {
			profile, err := trafficProfile(*js.Traffic, name)
			if err != nil {
				return nil, err
			}
			if profile.Enabled() {
				// Each station gets its own RNG stream so adding a
				// station does not reshuffle everyone else's picks.
				gen = NewTrafficGenerator(profile, cfg.Seed+int64(i)+1)
			}
		}

		geo := model.GeoCoord{
			LatitudeDeg:  js.LatitudeDeg,
			LongitudeDeg: js.LongitudeDeg,
			AltitudeKm:   js.AltitudeKm,
		}
		gs := NewGroundStation(model.NodeID(js.ID), name, geo, maxRange, gen)
		if err := reg.AddNode(gs); err != nil {
			return nil, fmt.Errorf("load scenario: ground station %q: %w", name, err)
		}
	}

	if err := checkDestinations(reg, payload.GroundStations); err != nil {
		return nil, err
	}

	return &Scenario{
		Name:     payload.Name,
		Config:   cfg,
		Registry: reg,
	}, nil
}

func configFromJSON(p parametersJSON) (Config, time.Time, error) {
	cfg := Config{
		MaxISLRangeKm:     p.MaxISLRangeKm,
		QueueCapacity:     p.QueueCapacity,
		ISLDataRateBps:    p.ISLDataRateBps,
		GroundDataRateBps: p.GroundDataRateBps,
		PositionInterval:  time.Duration(p.PositionIntervalMs) * time.Millisecond,
		HandoverInterval:  time.Duration(p.HandoverIntervalMs) * time.Millisecond,
		Seed:              p.Seed,
	}.withDefaults()

	epoch := time.Unix(0, 0).UTC()
	if p.Epoch != "" {
		t, err := time.Parse(time.RFC3339, p.Epoch)
		if err != nil {
			return Config{}, time.Time{}, fmt.Errorf("load scenario: epoch: %w", err)
		}
		epoch = t.UTC()
	}
	return cfg, epoch, nil
}

func satelliteMotion(js satelliteJSON, epoch time.Time) (MotionModel, error) {
	switch {
	case js.Orbit != nil && js.TLE != nil:
		return nil, fmt.Errorf("%w: satellite %d has both orbit and tle", ErrBadScenario, js.ID)
	case js.Orbit != nil:
		params := model.OrbitParameters{
			SemiMajorAxisKm: js.Orbit.SemiMajorAxisKm,
			Eccentricity:    js.Orbit.Eccentricity,
			InclinationDeg:  js.Orbit.InclinationDeg,
			RAANDeg:         js.Orbit.RAANDeg,
			ArgPerigeeDeg:   js.Orbit.ArgPerigeeDeg,
			MeanAnomalyDeg:  js.Orbit.MeanAnomalyDeg,
		}
		if err := params.Validate(); err != nil {
			return nil, fmt.Errorf("load scenario: satellite %d: %w", js.ID, err)
		}
		return KeplerianMotion{Params: params}, nil
	case js.TLE != nil:
		if js.TLE.Line1 == "" || js.TLE.Line2 == "" {
			return nil, fmt.Errorf("%w: satellite %d has incomplete tle", ErrBadScenario, js.ID)
		}
		return NewSGP4Motion(js.TLE.Line1, js.TLE.Line2, epoch), nil
	default:
		return nil, fmt.Errorf("%w: satellite %d has neither orbit nor tle", ErrBadScenario, js.ID)
	}
}

func trafficProfile(js trafficJSON, station string) (TrafficProfile, error) {
	interval := time.Duration(js.IntervalMs) * time.Millisecond
	if interval <= 0 && js.RateHz > 0 {
		interval = time.Duration(float64(time.Second) / js.RateHz)
	}
	size := js.SizeBits
	if size <= 0 && js.SizeBytes > 0 {
		size = js.SizeBytes * 8
	}

	dests := make([]model.NodeID, 0, len(js.Destinations))
	for _, d := range js.Destinations {
		dests = append(dests, model.NodeID(d))
	}

	p := TrafficProfile{Interval: interval, SizeBits: size, Destinations: dests}
	if (interval > 0 || size > 0 || len(dests) > 0) && !p.Enabled() {
		return TrafficProfile{}, fmt.Errorf("%w: ground station %q has partial traffic profile", ErrBadScenario, station)
	}
	return p, nil
}

func checkDestinations(reg *Registry, stations []groundStationJSON) error {
	for _, js := range stations {
		if js.Traffic == nil {
			continue
		}
		for _, d := range js.Traffic.Destinations {
			if reg.Node(model.NodeID(d)) == nil {
				return fmt.Errorf("%w: ground station %d targets unknown node %d", ErrBadScenario, js.ID, d)
			}
		}
	}
	return nil
}
