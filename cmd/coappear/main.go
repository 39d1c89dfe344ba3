// Command coappear runs the visual co-presence investigation service:
// an HTTP/SSE/WS API backed by an LLM-guided search-and-verify
// orchestrator and a persistent social graph.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/photolink/coappear/pkg/api"
	"github.com/photolink/coappear/pkg/cleanup"
	"github.com/photolink/coappear/pkg/config"
	"github.com/photolink/coappear/pkg/events"
	"github.com/photolink/coappear/pkg/graph"
	"github.com/photolink/coappear/pkg/identity"
	"github.com/photolink/coappear/pkg/masking"
	"github.com/photolink/coappear/pkg/oracle"
	"github.com/photolink/coappear/pkg/orchestrator"
	"github.com/photolink/coappear/pkg/planner"
	"github.com/photolink/coappear/pkg/ratelimit"
	"github.com/photolink/coappear/pkg/run"
	"github.com/photolink/coappear/pkg/verify"
	"github.com/photolink/coappear/pkg/version"
)

func main() {
	baseLogger := slog.New(masking.NewHandler(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		masking.NewService(),
	))
	slog.SetDefault(baseLogger)
	logger := baseLogger.With("app", version.AppName, "version", version.Full())

	cfg, err := config.Load(logger)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := graph.OpenDB(ctx, graph.DefaultDBConfig(cfg.DatabaseDSN))
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to database and applied migrations")

	store := graph.NewStore(db)
	broadcast := events.NewGraphBroadcaster()
	logs := events.NewLogStore(cfg.Retention.EventTTL)
	runs := run.NewManager()

	aliases, err := identity.NewAliasTable()
	if err != nil {
		logger.Error("failed to build alias table", "error", err)
		os.Exit(1)
	}

	imageSearch := oracle.NewHTTPImageSearch(cfg.ImageSearch)
	faceRecognizer := oracle.NewHTTPFaceRecognizer(cfg.FaceRecognizer)
	visionFilter := oracle.NewHTTPVisionFilter(cfg.VisionFilter)
	fetcher := oracle.NewImageFetcher(15 * time.Second)

	healthMonitor := oracle.NewHealthMonitor(map[string]oracle.Prober{
		"image_search":    imageSearch,
		"face_recognizer": faceRecognizer,
		"vision_filter":   visionFilter,
	}, 30*time.Second, 5*time.Second, logger)
	healthMonitor.Start(ctx)
	defer healthMonitor.Stop()

	var p *planner.Planner
	if cfg.Planner.BaseURL != "" {
		p = planner.New(planner.NewHTTPCompleter(cfg.Planner), logger)
		logger.Info("planner configured", "base_url", cfg.Planner.BaseURL)
	} else {
		logger.Warn("no planner configured; orchestrator runs in basic mode")
	}

	pipeline := verify.New(fetcher, visionFilter, faceRecognizer, p, aliases, cfg.ConfidenceThreshold, logger)

	orchCfg := orchestrator.DefaultConfig()
	orchCfg.HopLimit = cfg.HopLimit
	orchCfg.Threshold = cfg.ConfidenceThreshold
	orchCfg.ImagesPerQuery = cfg.ImagesPerQuery
	orch := orchestrator.New(store, imageSearch, pipeline, p, aliases, broadcast, orchCfg, logger)

	limiter := ratelimit.New(cfg.RateLimitMax, cfg.RateLimitWindow, cfg.WhitelistedIPs)

	cleanupSvc := cleanup.NewService(cfg.Retention, runs, logs, limiter, logger)
	cleanupSvc.Start(ctx)
	defer cleanupSvc.Stop()

	server := api.NewServer(cfg, orch, p, runs, logs, store, broadcast, limiter)

	go func() {
		logger.Info("listening", "addr", cfg.ListenAddr)
		if err := server.Start(cfg.ListenAddr); err != nil && err != http.ErrServerClosed {
			logger.Error("server exited", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("error during shutdown", "error", err)
	}
}
