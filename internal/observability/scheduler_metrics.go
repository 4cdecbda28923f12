package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EventQueue is the slice of the event scheduler the collector observes.
type EventQueue interface {
	AddListener(fn func(time.Duration))
	Pending() int
}

// SchedulerCollector exposes event-scheduler Prometheus metrics.
type SchedulerCollector struct {
	gatherer prometheus.Gatherer

	SimTimeSeconds prometheus.Gauge
	PendingEvents  prometheus.Gauge
	TimeAdvances   prometheus.Counter
}

// NewSchedulerCollector registers scheduler metrics against the provided registerer.
func NewSchedulerCollector(reg prometheus.Registerer) (*SchedulerCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	simTime := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scheduler_sim_time_seconds",
		Help: "Current simulation time in seconds.",
	})
	simTime, err := registerGauge(reg, simTime, "scheduler_sim_time_seconds")
	if err != nil {
		return nil, err
	}

	pending := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scheduler_pending_events",
		Help: "Number of events currently queued in the scheduler.",
	})
	pending, err = registerGauge(reg, pending, "scheduler_pending_events")
	if err != nil {
		return nil, err
	}

	advances := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_time_advances_total",
		Help: "Cumulative number of distinct simulation instants processed.",
	})
	advances, err = registerCounter(reg, advances, "scheduler_time_advances_total")
	if err != nil {
		return nil, err
	}

	return &SchedulerCollector{
		gatherer:       gatherer,
		SimTimeSeconds: simTime,
		PendingEvents:  pending,
		TimeAdvances:   advances,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *SchedulerCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Attach subscribes the collector to a scheduler's time advances. Must be
// called before the run starts.
func (c *SchedulerCollector) Attach(q EventQueue) {
	if c == nil || q == nil {
		return
	}
	q.AddListener(func(now time.Duration) {
		if c.SimTimeSeconds != nil {
			c.SimTimeSeconds.Set(now.Seconds())
		}
		if c.PendingEvents != nil {
			c.PendingEvents.Set(float64(q.Pending()))
		}
		if c.TimeAdvances != nil {
			c.TimeAdvances.Inc()
		}
	})
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}
