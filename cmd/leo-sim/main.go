package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/signalsfoundry/leo-mesh-sim/core"
	"github.com/signalsfoundry/leo-mesh-sim/internal/logging"
	"github.com/signalsfoundry/leo-mesh-sim/internal/observability"
	"github.com/signalsfoundry/leo-mesh-sim/model"
	"github.com/signalsfoundry/leo-mesh-sim/timectrl"
)

func main() {
	scenarioPath := flag.String("scenario", "configs/scenario.json", "path to the JSON scenario to simulate")
	duration := flag.Duration("duration", 60*time.Second, "total simulated duration")
	realtime := flag.Bool("realtime", false, "pace the run against wall-clock time instead of running accelerated")
	grpcAddr := flag.String("grpc-addr", "", "TCP address for the ops gRPC server; empty disables it")
	metricsAddr := flag.String("metrics-addr", ":9090", "HTTP address for Prometheus /metrics; empty disables it")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.String("error", err.Error()))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(ctx, shutdownTracing, log)

	collector, err := observability.NewSimCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.String("error", err.Error()))
		os.Exit(1)
	}
	schedCollector, err := observability.NewSchedulerCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise scheduler collector", logging.String("error", err.Error()))
		os.Exit(1)
	}

	scenario, err := core.LoadScenarioFile(*scenarioPath)
	if err != nil {
		log.Error(ctx, "failed to load scenario", logging.String("path", *scenarioPath), logging.String("error", err.Error()))
		os.Exit(1)
	}

	sats := len(scenario.Registry.Satellites())
	grounds := len(scenario.Registry.Nodes()) - sats
	collector.SetScenarioCounts(sats, grounds, 0)
	log.Info(ctx, "scenario loaded",
		logging.String("name", scenario.Name),
		logging.Int("satellites", sats),
		logging.Int("ground_stations", grounds))

	mode := timectrl.Accelerated
	if *realtime {
		mode = timectrl.RealTime
	}
	sched := timectrl.NewScheduler(mode)
	schedCollector.Attach(sched)

	sink := core.NewMemorySink()
	engine := core.NewEngine(scenario.Config, scenario.Registry, sched, log,
		core.MultiSink{sink, core.NewLogSink(log)})

	metricsSrv := serveMetrics(*metricsAddr, collector, log)
	grpcSrv := serveOps(*grpcAddr, collector, log)

	log.Info(ctx, "starting simulation",
		logging.Duration("duration", *duration),
		logging.String("mode", modeName(mode)))
	start := time.Now()
	engine.Run(ctx, *duration)
	log.Info(ctx, "simulation complete",
		logging.Duration("wall_time", time.Since(start)))

	exportRunMetrics(engine, collector)
	printSummary(engine, sink, *duration)

	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
}

func modeName(m timectrl.Mode) string {
	if m == timectrl.RealTime {
		return "realtime"
	}
	return "accelerated"
}

func serveMetrics(addr string, collector *observability.SimCollector, log logging.Logger) *http.Server {
	if addr == "" || collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.String("error", err.Error()))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}

// serveOps exposes a minimal ops surface: gRPC health checking with tracing
// and RPC metrics, so deployments can probe long-running realtime runs.
func serveOps(addr string, collector *observability.SimCollector, log logging.Logger) *grpc.Server {
	if addr == "" {
		return nil
	}

	server := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(collector.UnaryServerInterceptor()),
	)
	healthpb.RegisterHealthServer(server, health.NewServer())

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		log.Warn(context.Background(), "failed to listen for ops gRPC", logging.String("addr", addr), logging.String("error", err.Error()))
		return nil
	}

	go func() {
		if err := server.Serve(lis); err != nil {
			log.Warn(context.Background(), "ops gRPC server exited", logging.String("error", err.Error()))
		}
	}()

	log.Info(context.Background(), "serving ops gRPC", logging.String("addr", addr))
	return server
}

// exportRunMetrics folds the per-node counters into the Prometheus series
// after the run completes.
func exportRunMetrics(engine *core.Engine, collector *observability.SimCollector) {
	links := 0
	for _, n := range engine.Registry().Nodes() {
		links += len(engine.Registry().ISLLinksOf(n.ID))
	}
	sats := len(engine.Registry().Satellites())
	collector.SetScenarioCounts(sats, len(engine.Registry().Nodes())-sats, links/2)

	for _, n := range engine.Registry().Nodes() {
		s := &n.Stats
		for i, delay := range s.DelaySamples {
			hops := 0
			if i < len(s.HopCountSamples) {
				hops = int(s.HopCountSamples[i])
			}
			collector.ObserveDelivery(time.Duration(delay*float64(time.Second)), hops)
		}
		collector.AddDrops(core.DropNoRoute.String(), uint64(s.DropsNoRoute))
		collector.AddDrops(core.DropQueueFull.String(), uint64(s.DropsQueueFull))
		collector.AddDrops(core.DropLinkDisconnected.String(), uint64(s.DropsLinkDisconnected))
		collector.AddDrops(core.DropInvalidLink.String(), uint64(s.DropsInvalidLink))
	}
}

func printSummary(engine *core.Engine, sink *core.MemorySink, simDuration time.Duration) {
	fmt.Printf("simulated %s across %d nodes\n", simDuration, len(engine.Registry().Nodes()))
	for _, n := range engine.Registry().Nodes() {
		if n.Kind != model.KindGroundStation {
			continue
		}
		throughput, _ := sink.ScalarValue(n.ID, "Throughput_bps")
		pdr, _ := sink.ScalarValue(n.ID, "PacketDeliveryRatio")
		fmt.Printf("%-16s sent=%-6d received=%-6d forwarded=%-6d dropped=%-6d pdr=%.3f throughput=%.1f bps\n",
			n.Name,
			n.Stats.PacketsSent,
			n.Stats.PacketsReceived,
			n.Stats.PacketsForwarded,
			n.Stats.DroppedTotal(),
			pdr,
			throughput,
		)
	}
}
