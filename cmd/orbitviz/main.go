// Command orbitviz runs the orbital visualizer server: it loads a scenario,
// drives the simulation clock, computes frames, and serves them over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/signalsfoundry/orbital-visualizer/internal/api"
	"github.com/signalsfoundry/orbital-visualizer/internal/config"
	"github.com/signalsfoundry/orbital-visualizer/internal/logging"
	"github.com/signalsfoundry/orbital-visualizer/internal/observability"
	"github.com/signalsfoundry/orbital-visualizer/scene"
	"github.com/signalsfoundry/orbital-visualizer/simclock"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML configuration file (empty means defaults)")
	scenarioPath := flag.String("scenario", "", "Scenario JSON path, overriding the configuration")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error(ctx, "failed to load configuration", logging.String("error", err.Error()))
		os.Exit(1)
	}
	if *scenarioPath != "" {
		cfg.Scenario = *scenarioPath
	}

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.String("error", err.Error()))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	collector, err := observability.NewCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.String("error", err.Error()))
		os.Exit(1)
	}
	collector.SetClockSpeed(cfg.Clock.Speed)

	sc, err := loadScenario(cfg.Scenario)
	if err != nil {
		log.Error(ctx, "failed to load scenario",
			logging.String("path", cfg.Scenario),
			logging.String("error", err.Error()),
		)
		os.Exit(1)
	}

	epoch, err := cfg.TLE.EpochTime()
	if err != nil {
		log.Error(ctx, "invalid TLE epoch", logging.String("error", err.Error()))
		os.Exit(1)
	}

	engine, err := scene.NewEngine(sc,
		scene.WithLogger(log),
		scene.WithMetricsRecorder(collector),
		scene.WithTrailShape(cfg.Trail.Segments, cfg.Trail.LookbackDeg),
		scene.WithFollow(cfg.Follow),
		scene.WithMotionOptions(scene.MotionOptions{
			TLEEpoch: epoch,
			TLEScale: cfg.TLE.ScaleUnitsPerKm,
		}),
	)
	if err != nil {
		log.Error(ctx, "failed to build engine", logging.String("error", err.Error()))
		os.Exit(1)
	}

	clock := simclock.NewClock(cfg.Clock.Speed)

	mode := simclock.RealTime
	if cfg.Clock.Mode == "accelerated" {
		mode = simclock.Accelerated
	}
	driver := simclock.NewDriver(clock, cfg.Clock.Tick(), mode)
	driver.AddListener(engine.OnTick)

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := driver.Start(stopCtx, 0)

	srv := api.NewServer(api.Options{
		Engine:    engine,
		Clock:     clock,
		Collector: collector,
		Logger:    log,
		Auth:      cfg.Auth,
		Keepalive: cfg.Stream.Keepalive(),
	})

	metricsSrv := serveMetrics(cfg.MetricsAddr, collector, log)

	go watchScenario(stopCtx, log, engine, cfg.Scenario)

	log.Info(ctx, "starting orbital visualizer",
		logging.String("addr", cfg.ListenAddr),
		logging.String("scenario", cfg.Scenario),
		logging.Float64("clock_speed", cfg.Clock.Speed),
	)
	go func() {
		if err := srv.Start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "API server exited", logging.String("error", err.Error()))
			stop()
		}
	}()

	<-stopCtx.Done()
	log.Info(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn(ctx, "API shutdown failed", logging.String("error", err.Error()))
	}
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	<-done
}

func loadScenario(path string) (*scene.Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return scene.LoadScenario(f)
}

// serveMetrics exposes Prometheus metrics on a separate listener so scrapes
// never compete with API traffic.
func serveMetrics(addr string, collector *observability.Collector, log logging.Logger) *http.Server {
	if collector == nil || addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn(context.Background(), "metrics server exited", logging.String("error", err.Error()))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}

// watchScenario reloads the scenario file whenever it changes on disk and
// swaps the fresh scene into the engine. A broken edit keeps the previous
// scene running.
func watchScenario(ctx context.Context, log logging.Logger, engine *scene.Engine, path string) {
	for {
		watchCtx, cancel, err := config.UntilModified(ctx, path)
		if err != nil {
			log.Warn(ctx, "scenario watch unavailable",
				logging.String("path", path),
				logging.String("error", err.Error()),
			)
			return
		}

		<-watchCtx.Done()
		cancel()
		if ctx.Err() != nil {
			return
		}

		// Editors often write in bursts; give the file a moment to settle.
		time.Sleep(100 * time.Millisecond)

		sc, err := loadScenario(path)
		if err != nil {
			log.Warn(ctx, "scenario reload failed, keeping previous scene",
				logging.String("path", path),
				logging.String("error", err.Error()),
			)
			continue
		}
		if err := engine.SetScene(sc); err != nil {
			log.Warn(ctx, "scenario swap rejected, keeping previous scene",
				logging.String("path", path),
				logging.String("error", err.Error()),
			)
			continue
		}
		log.Info(ctx, "scenario reloaded", logging.String("path", path))
	}
}
