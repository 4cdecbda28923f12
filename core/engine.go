package core

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/leo-mesh-sim/internal/logging"
	"github.com/signalsfoundry/leo-mesh-sim/model"
	"github.com/signalsfoundry/leo-mesh-sim/timectrl"
)

// Config carries the global simulation parameters shared by every node.
type Config struct {
	// MaxISLRangeKm bounds satellite-to-satellite adjacency.
	MaxISLRangeKm float64

	// QueueCapacity bounds every per-link transmission queue.
	QueueCapacity int

	// Channel data rates in bits per second.
	ISLDataRateBps    float64
	GroundDataRateBps float64

	// Tick periods. Each tick reschedules itself exactly once per firing.
	PositionInterval time.Duration
	HandoverInterval time.Duration

	// Seed feeds the per-station traffic generators.
	Seed int64
}

// DefaultConfig mirrors the reference parameterisation: 1000-frame
// queues, 4 Gbit/s channels, one-second ticks.
func DefaultConfig() Config {
	return Config{
		MaxISLRangeKm:     1000,
		QueueCapacity:     DefaultQueueCapacity,
		ISLDataRateBps:    4e9,
		GroundDataRateBps: 4e9,
		PositionInterval:  time.Second,
		HandoverInterval:  time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxISLRangeKm <= 0 {
		c.MaxISLRangeKm = d.MaxISLRangeKm
	}
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = d.QueueCapacity
	}
	if c.ISLDataRateBps <= 0 {
		c.ISLDataRateBps = d.ISLDataRateBps
	}
	if c.GroundDataRateBps <= 0 {
		c.GroundDataRateBps = d.GroundDataRateBps
	}
	if c.PositionInterval <= 0 {
		c.PositionInterval = d.PositionInterval
	}
	if c.HandoverInterval <= 0 {
		c.HandoverInterval = d.HandoverInterval
	}
	return c
}

// Engine owns a run of the simulation: it seeds the initial ticks, routes
// every delivered event to its target node and emits statistics at
// teardown. It implements timectrl.Dispatcher.
type Engine struct {
	cfg   Config
	reg   *Registry
	sched *timectrl.Scheduler
	log   logging.Logger
	sink  Sink

	ctx context.Context
}

// NewEngine wires an engine over a populated registry. log and sink may
// be nil.
func NewEngine(cfg Config, reg *Registry, sched *timectrl.Scheduler, log logging.Logger, sink Sink) *Engine {
	if log == nil {
		log = logging.Noop()
	}
	return &Engine{
		cfg:   cfg.withDefaults(),
		reg:   reg,
		sched: sched,
		log:   log,
		sink:  sink,
		ctx:   context.Background(),
	}
}

// Registry exposes the node/link arena.
func (e *Engine) Registry() *Registry { return e.reg }

// Scheduler exposes the event queue, mainly so tests can single-step.
func (e *Engine) Scheduler() *timectrl.Scheduler { return e.sched }

// Config returns the effective configuration after defaulting.
func (e *Engine) Config() Config { return e.cfg }

// Deliver routes one event to its target node. Implements
// timectrl.Dispatcher; events for unknown nodes are logged and discarded.
func (e *Engine) Deliver(now time.Duration, target model.NodeID, payload model.Payload) {
	n := e.reg.Node(target)
	if n == nil {
		e.log.Warn(e.ctx, "event for unknown node", logging.Int("node", int(target)))
		return
	}
	n.HandleEvent(e, now, payload)
}

// Run executes the simulation until the given time, then emits per-node
// statistics to the sink. The run is wrapped in a trace span.
func (e *Engine) Run(ctx context.Context, until time.Duration) {
	if ctx == nil {
		ctx = context.Background()
	}
	tracer := otel.Tracer("leo-mesh-sim/core")
	ctx, span := tracer.Start(ctx, "simulation.run", trace.WithAttributes(
		attribute.Int("nodes", len(e.reg.Nodes())),
		attribute.String("sim_duration", until.String()),
	))
	defer span.End()
	e.ctx = ctx

	e.scheduleInitialEvents()
	e.sched.Run(e, until)
	e.finish(until)
}

// scheduleInitialEvents seeds the self-rescheduling ticks. Satellites are
// seeded before ground stations so that at t=0 every satellite has a
// position and topology before any handover scan runs.
func (e *Engine) scheduleInitialEvents() {
	for _, n := range e.reg.Satellites() {
		e.sched.ScheduleAt(0, n.ID, model.TickEvent{Kind: model.PositionTick})
	}
	for _, n := range e.reg.Nodes() {
		if n.Kind != model.KindGroundStation {
			continue
		}
		e.sched.ScheduleAt(0, n.ID, model.TickEvent{Kind: model.HandoverTick})
		if n.traffic != nil && n.traffic.Interval() > 0 {
			e.sched.Schedule(n.traffic.Interval(), n.ID, model.TickEvent{Kind: model.TrafficTick})
		}
	}
}

func (e *Engine) finish(simDuration time.Duration) {
	for _, n := range e.reg.Nodes() {
		n.Stats.Emit(e.sink, n.ID, simDuration)
		e.log.Info(e.ctx, "node finished",
			logging.Int("node", int(n.ID)),
			logging.String("kind", n.Kind.String()),
			logging.Any("sent", n.Stats.PacketsSent),
			logging.Any("received", n.Stats.PacketsReceived),
			logging.Any("forwarded", n.Stats.PacketsForwarded),
			logging.Any("dropped", n.Stats.DroppedTotal()),
		)
	}
}

// topologyCandidates assembles the adjacency candidates for a satellite:
// every other satellite at its analytically recomputed position, plus any
// ground station holding a live connection to this satellite. Positions
// come from the pure motion models, so the result is independent of the
// order nodes process their same-instant ticks.
func (e *Engine) topologyCandidates(n *Node, now time.Duration) []Candidate {
	var out []Candidate
	for _, s := range e.reg.Satellites() {
		if s.ID == n.ID {
			continue
		}
		link := model.NoLink
		if l := e.reg.LinkBetween(n.ID, s.ID); l != nil && l.Kind == LinkISL {
			link = l.ID
		}
		out = append(out, Candidate{
			ID:       s.ID,
			Position: s.Motion.PositionAt(now),
			Link:     link,
		})
	}
	for _, l := range e.reg.GroundLinksOf(n.ID) {
		peer := l.Peer(n.ID)
		g := e.reg.Node(peer)
		if g == nil {
			continue
		}
		out = append(out, Candidate{
			ID:         peer,
			Position:   g.Motion.PositionAt(now),
			Link:       l.ID,
			GroundLink: true,
		})
	}
	return out
}

// satCandidates lists every orbiting node for a ground station's
// handover scan.
func (e *Engine) satCandidates(now time.Duration) []SatCandidate {
	sats := e.reg.Satellites()
	out := make([]SatCandidate, 0, len(sats))
	for _, s := range sats {
		out = append(out, SatCandidate{ID: s.ID, Position: s.Motion.PositionAt(now)})
	}
	return out
}
