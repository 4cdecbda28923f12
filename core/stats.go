package core

import (
	"context"
	"time"

	"github.com/signalsfoundry/leo-mesh-sim/internal/logging"
	"github.com/signalsfoundry/leo-mesh-sim/model"
)

// DropReason classifies the ways a packet can be lost. Every loss is
// locally recovered by dropping and counting; none is fatal to the run and
// there is no retry or negative acknowledgement.
type DropReason int

const (
	DropNoRoute DropReason = iota // forward attempted, no table entry
	DropQueueFull
	DropLinkDisconnected
	DropInvalidLink // bookkeeping pointed at a removed link
)

func (r DropReason) String() string {
	switch r {
	case DropNoRoute:
		return "no_route"
	case DropQueueFull:
		return "queue_full"
	case DropLinkDisconnected:
		return "link_disconnected"
	case DropInvalidLink:
		return "invalid_link"
	default:
		return "unknown"
	}
}

// NodeStats accumulates per-node traffic counters over a run. It mirrors
// what each node records: sends, accepts, forwards, drops by reason, bit
// totals, and the sample vectors emitted at teardown.
type NodeStats struct {
	PacketsSent      int64
	PacketsReceived  int64
	PacketsForwarded int64

	DropsNoRoute          int64
	DropsQueueFull        int64
	DropsLinkDisconnected int64
	DropsInvalidLink      int64

	TotalBitsReceived  int64
	TotalBitsForwarded int64

	// Active window for throughput: first/last accepted packet.
	FirstPacketAt time.Duration
	LastPacketAt  time.Duration
	sawPacket     bool

	DelaySamples    []float64 // end-to-end delay, seconds
	HopCountSamples []float64
}

// Drop counts one lost packet under the given reason.
func (s *NodeStats) Drop(reason DropReason) {
	switch reason {
	case DropNoRoute:
		s.DropsNoRoute++
	case DropQueueFull:
		s.DropsQueueFull++
	case DropLinkDisconnected:
		s.DropsLinkDisconnected++
	case DropInvalidLink:
		s.DropsInvalidLink++
	}
}

// DroppedTotal sums losses across all reasons.
func (s *NodeStats) DroppedTotal() int64 {
	return s.DropsNoRoute + s.DropsQueueFull + s.DropsLinkDisconnected + s.DropsInvalidLink
}

// Accept records a packet delivered to this node as its destination.
func (s *NodeStats) Accept(now time.Duration, pkt *model.Packet) {
	s.PacketsReceived++
	s.TotalBitsReceived += pkt.SizeBits
	if !s.sawPacket {
		s.FirstPacketAt = now
		s.sawPacket = true
	}
	s.LastPacketAt = now
	s.DelaySamples = append(s.DelaySamples, (now - pkt.CreatedAt).Seconds())
	s.HopCountSamples = append(s.HopCountSamples, float64(pkt.HopCount))
}

// Throughput returns received bits per second over the node's active
// window. When the active window is degenerate (≤1 ms) the total simulated
// duration is used instead.
func (s *NodeStats) Throughput(simDuration time.Duration) float64 {
	active := s.LastPacketAt - s.FirstPacketAt
	if active <= time.Millisecond {
		active = simDuration
	}
	if active <= 0 {
		return 0
	}
	return float64(s.TotalBitsReceived) / active.Seconds()
}

// DeliveryRatio is successes/(successes+drops), where a success is a
// packet this node accepted or forwarded. A node that saw no traffic at
// all reports 1.0.
func (s *NodeStats) DeliveryRatio() float64 {
	successes := s.PacketsReceived + s.PacketsForwarded
	drops := s.DroppedTotal()
	if successes+drops == 0 {
		return 1.0
	}
	return float64(successes) / float64(successes+drops)
}

// Sink receives per-node records at node teardown. Persistence and
// plotting live behind this interface, outside the core.
type Sink interface {
	Scalar(node model.NodeID, name string, value float64)
	Vector(node model.NodeID, name string, samples []float64)
}

// Emit pushes the standard scalar and vector records for one node.
func (s *NodeStats) Emit(sink Sink, node model.NodeID, simDuration time.Duration) {
	if sink == nil {
		return
	}
	sink.Scalar(node, "Throughput_bps", s.Throughput(simDuration))
	sink.Scalar(node, "PacketDeliveryRatio", s.DeliveryRatio())
	sink.Scalar(node, "PacketsSent", float64(s.PacketsSent))
	sink.Scalar(node, "PacketsReceived", float64(s.PacketsReceived))
	sink.Scalar(node, "PacketsForwarded", float64(s.PacketsForwarded))
	sink.Scalar(node, "PacketsDropped", float64(s.DroppedTotal()))
	sink.Scalar(node, "DropsNoRoute", float64(s.DropsNoRoute))
	sink.Scalar(node, "DropsQueueFull", float64(s.DropsQueueFull))
	sink.Scalar(node, "DropsLinkDisconnected", float64(s.DropsLinkDisconnected))
	sink.Scalar(node, "DropsInvalidLink", float64(s.DropsInvalidLink))
	sink.Vector(node, "endToEndDelay", s.DelaySamples)
	sink.Vector(node, "hopCount", s.HopCountSamples)
}

// MemorySink records emitted statistics in memory. Used by tests and by
// the CLI to print a run summary.
type MemorySink struct {
	scalars map[model.NodeID]map[string]float64
	vectors map[model.NodeID]map[string][]float64
}

func NewMemorySink() *MemorySink {
	return &MemorySink{
		scalars: make(map[model.NodeID]map[string]float64),
		vectors: make(map[model.NodeID]map[string][]float64),
	}
}

func (m *MemorySink) Scalar(node model.NodeID, name string, value float64) {
	if m.scalars[node] == nil {
		m.scalars[node] = make(map[string]float64)
	}
	m.scalars[node][name] = value
}

func (m *MemorySink) Vector(node model.NodeID, name string, samples []float64) {
	if m.vectors[node] == nil {
		m.vectors[node] = make(map[string][]float64)
	}
	m.vectors[node][name] = append([]float64(nil), samples...)
}

// ScalarValue returns a recorded scalar and whether it was present.
func (m *MemorySink) ScalarValue(node model.NodeID, name string) (float64, bool) {
	v, ok := m.scalars[node][name]
	return v, ok
}

// VectorValue returns a recorded sample vector.
func (m *MemorySink) VectorValue(node model.NodeID, name string) []float64 {
	return m.vectors[node][name]
}

// LogSink writes emitted statistics to the structured log. Vectors are
// summarized by their sample count rather than dumped.
type LogSink struct {
	log logging.Logger
}

func NewLogSink(log logging.Logger) *LogSink {
	if log == nil {
		log = logging.Noop()
	}
	return &LogSink{log: log}
}

func (l *LogSink) Scalar(node model.NodeID, name string, value float64) {
	l.log.Info(context.Background(), "stat",
		logging.Int("node", int(node)),
		logging.String("name", name),
		logging.Float64("value", value))
}

func (l *LogSink) Vector(node model.NodeID, name string, samples []float64) {
	l.log.Info(context.Background(), "stat vector",
		logging.Int("node", int(node)),
		logging.String("name", name),
		logging.Int("samples", len(samples)))
}

// MultiSink fans emissions out to several sinks.
type MultiSink []Sink

func (m MultiSink) Scalar(node model.NodeID, name string, value float64) {
	for _, s := range m {
		s.Scalar(node, name, value)
	}
}

func (m MultiSink) Vector(node model.NodeID, name string, samples []float64) {
	for _, s := range m {
		s.Vector(node, name, samples)
	}
}
