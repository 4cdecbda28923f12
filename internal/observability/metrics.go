package observability

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// SimCollector bundles Prometheus metrics for a simulation run and the ops
// gRPC surface, and provides helpers to wire them into servers and HTTP
// handlers.
type SimCollector struct {
	gatherer prometheus.Gatherer

	RPCRequests  *prometheus.CounterVec
	RPCDurations *prometheus.HistogramVec

	ScenarioSatellites     prometheus.Gauge
	ScenarioGroundStations prometheus.Gauge
	ScenarioLinks          prometheus.Gauge

	PacketsDelivered prometheus.Counter
	PacketsDropped   *prometheus.CounterVec
	EndToEndDelay    prometheus.Histogram
	HopCount         prometheus.Histogram
}

// NewSimCollector registers simulation Prometheus metrics against the
// provided registerer, defaulting to the global Prometheus registry when nil.
func NewSimCollector(reg prometheus.Registerer) (*SimCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ops_requests_total",
		Help: "Total number of handled ops RPCs, labeled by service, method, and gRPC status code.",
	}, []string{"service", "method", "code"})
	requests, err := registerCounterVec(reg, requests, "ops_requests_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ops_request_duration_seconds",
		Help:    "Ops RPC latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"service", "method"})
	durations, err = registerHistogramVec(reg, durations, "ops_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	satellites, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scenario_satellites",
		Help: "Number of satellites in the loaded scenario.",
	}), "scenario_satellites")
	if err != nil {
		return nil, err
	}
	grounds, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scenario_ground_stations",
		Help: "Number of ground stations in the loaded scenario.",
	}), "scenario_ground_stations")
	if err != nil {
		return nil, err
	}
	links, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scenario_links",
		Help: "Number of links created so far in the simulation.",
	}), "scenario_links")
	if err != nil {
		return nil, err
	}

	delivered := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_packets_delivered_total",
		Help: "Packets accepted at their destination node.",
	})
	delivered, err = registerCounter(reg, delivered, "sim_packets_delivered_total")
	if err != nil {
		return nil, err
	}

	dropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_packets_dropped_total",
		Help: "Packets dropped, labeled by drop reason.",
	}, []string{"reason"})
	dropped, err = registerCounterVec(reg, dropped, "sim_packets_dropped_total")
	if err != nil {
		return nil, err
	}

	delay := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sim_end_to_end_delay_seconds",
		Help:    "Per-packet end-to-end delay in simulated seconds.",
		Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	})
	delay, err = registerHistogram(reg, delay, "sim_end_to_end_delay_seconds")
	if err != nil {
		return nil, err
	}

	hops := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sim_packet_hop_count",
		Help:    "Per-packet hop count at delivery.",
		Buckets: []float64{1, 2, 3, 4, 5, 7, 10, 15, 20},
	})
	hops, err = registerHistogram(reg, hops, "sim_packet_hop_count")
	if err != nil {
		return nil, err
	}

	return &SimCollector{
		gatherer:               gatherer,
		RPCRequests:            requests,
		RPCDurations:           durations,
		ScenarioSatellites:     satellites,
		ScenarioGroundStations: grounds,
		ScenarioLinks:          links,
		PacketsDelivered:       delivered,
		PacketsDropped:         dropped,
		EndToEndDelay:          delay,
		HopCount:               hops,
	}, nil
}

// UnaryServerInterceptor records request counts and durations for unary RPCs.
func (c *SimCollector) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		if c == nil {
			return resp, err
		}

		fullMethod := ""
		if info != nil {
			fullMethod = info.FullMethod
		}
		service, method := SplitMethod(fullMethod)
		code := status.Code(err).String()

		if c.RPCRequests != nil {
			c.RPCRequests.WithLabelValues(service, method, code).Inc()
		}
		if c.RPCDurations != nil {
			c.RPCDurations.WithLabelValues(service, method).Observe(time.Since(start).Seconds())
		}

		return resp, err
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SimCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetScenarioCounts drives the scenario gauges from the loaded topology.
func (c *SimCollector) SetScenarioCounts(satellites, groundStations, links int) {
	if c == nil {
		return
	}
	if c.ScenarioSatellites != nil {
		c.ScenarioSatellites.Set(float64(satellites))
	}
	if c.ScenarioGroundStations != nil {
		c.ScenarioGroundStations.Set(float64(groundStations))
	}
	if c.ScenarioLinks != nil {
		c.ScenarioLinks.Set(float64(links))
	}
}

// ObserveDelivery records one accepted packet with its end-to-end delay and
// hop count.
func (c *SimCollector) ObserveDelivery(delay time.Duration, hops int) {
	if c == nil {
		return
	}
	if c.PacketsDelivered != nil {
		c.PacketsDelivered.Inc()
	}
	if c.EndToEndDelay != nil {
		c.EndToEndDelay.Observe(delay.Seconds())
	}
	if c.HopCount != nil {
		c.HopCount.Observe(float64(hops))
	}
}

// AddDrops adds n drops under the given reason label.
func (c *SimCollector) AddDrops(reason string, n uint64) {
	if c == nil || c.PacketsDropped == nil || n == 0 {
		return
	}
	c.PacketsDropped.WithLabelValues(reason).Add(float64(n))
}

// SplitMethod parses a fully-qualified gRPC method name into service and method
// components. It tolerates empty strings and partial paths, returning
// "unknown"/"unknown" when parsing fails.
func SplitMethod(fullMethod string) (string, string) {
	if fullMethod == "" {
		return "unknown", "unknown"
	}
	fullMethod = strings.TrimPrefix(fullMethod, "/")
	parts := strings.Split(fullMethod, "/")
	if len(parts) < 2 {
		return "unknown", "unknown"
	}
	service := parts[len(parts)-2]
	method := parts[len(parts)-1]
	if dot := strings.LastIndex(service, "."); dot >= 0 && dot+1 < len(service) {
		service = service[dot+1:]
	}
	if service == "" {
		service = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	return service, method
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
