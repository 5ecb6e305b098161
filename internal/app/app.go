package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"voxelnav"
	"voxelnav/internal/pathing"
	"voxelnav/internal/telemetry"
	"voxelnav/internal/voxelworld"
	"voxelnav/logging"
	loggingSinks "voxelnav/logging/sinks"
)

// Run wires the whole daemon together and blocks until ctx is cancelled or
// a component fails: logging router, world, agent, navigator, monitor, the
// HTTP server and the tick loop.
func Run(ctx context.Context, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	telemetryLogger := telemetry.WrapLogger(log.Default())

	router, err := buildRouter(cfg.Logging)
	if err != nil {
		return fmt.Errorf("construct logging router: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if cerr := router.Close(closeCtx); cerr != nil {
			telemetryLogger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	metrics := &logging.Metrics{}

	world := voxelworld.NewFlat(cfg.World.GroundLevel)
	agent := voxelworld.NewSimAgent(pathing.Pos{
		X: cfg.Agent.StartX,
		Y: cfg.Agent.StartY,
		Z: cfg.Agent.StartZ,
	})
	agent.SetTicksPerMove(cfg.Agent.TicksPerMove)

	calcCtx := pathing.NewCalcContext(world, cfg.Pathing, true)

	navLog := logging.WithFields(router, map[string]any{"service": "navmon"})
	nav := voxelnav.NewNavigator(agent, navLog, telemetry.WrapMetrics(metrics))
	monitor := voxelnav.NewMonitor(telemetryLogger)
	nav.OnEvent(monitor.BroadcastEvent)
	defer monitor.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", monitor.HandleWS)
	srv := &http.Server{Addr: cfg.Listen, Handler: mux}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		telemetryLogger.Printf("navmon listening on %s", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	group.Go(func() error {
		return runTickLoop(groupCtx, cfg, nav, monitor, agent, calcCtx)
	})

	err = group.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// runTickLoop drives the navigator at the configured rate, adopting queued
// goal commands between ticks and broadcasting periodic status snapshots.
func runTickLoop(ctx context.Context, cfg Config, nav *voxelnav.Navigator, monitor *voxelnav.Monitor, agent *voxelworld.SimAgent, calcCtx *pathing.CalcContext) error {
	interval := time.Second / time.Duration(cfg.TickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var tick uint64
	for {
		select {
		case <-ctx.Done():
			nav.CancelEverything()
			return ctx.Err()
		case <-ticker.C:
		}

		if req, ok := monitor.PendingGoal(); ok {
			nav.SetGoalAndContext(req.Goal(), calcCtx)
		}

		nav.Tick()
		tick++

		if tick%uint64(cfg.StatusIntervalTicks) == 0 {
			monitor.BroadcastStatus(snapshot(tick, nav, agent))
		}
	}
}

func snapshot(tick uint64, nav *voxelnav.Navigator, agent *voxelworld.SimAgent) voxelnav.StatusSnapshot {
	feet := agent.Feet()
	status := voxelnav.StatusSnapshot{
		Tick:    tick,
		Pathing: nav.IsPathing(),
		Cursor:  nav.PathPosition(),
		FeetX:   feet.X,
		FeetY:   feet.Y,
		FeetZ:   feet.Z,
	}
	if path := nav.CurrentPath(); path != nil {
		status.PathLength = path.Length()
	}
	if goal := nav.Goal(); goal != nil {
		status.Goal = fmt.Sprintf("%v", goal)
	}
	if eta, ok := nav.EstimatedTicksToGoal(); ok {
		status.EstimatedETA = eta
		status.ETAKnown = true
	}
	return status
}

func buildRouter(cfg LoggingConfig) (*logging.Router, error) {
	logCfg := logging.DefaultConfig()
	logCfg.EnabledSinks = cfg.Sinks
	logCfg.MinimumSeverity = parseSeverity(cfg.MinSeverity)

	var sinks []logging.NamedSink
	if logCfg.HasSink("console") {
		sinks = append(sinks, logging.NamedSink{
			Name: "console",
			Sink: loggingSinks.NewConsoleSink(os.Stdout, logCfg.Console),
		})
	}
	if logCfg.HasSink("json") && cfg.JSONPath != "" {
		f, err := os.OpenFile(cfg.JSONPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open json log: %w", err)
		}
		sinks = append(sinks, logging.NamedSink{
			Name: "json",
			Sink: loggingSinks.NewJSON(f, logCfg.JSON.MaxBatch, logCfg.JSON.FlushInterval),
		})
	}

	return logging.NewRouter(nil, logCfg, sinks)
}

func parseSeverity(name string) logging.Severity {
	switch name {
	case "debug":
		return logging.SeverityDebug
	case "warn":
		return logging.SeverityWarn
	case "error":
		return logging.SeverityError
	default:
		return logging.SeverityInfo
	}
}
