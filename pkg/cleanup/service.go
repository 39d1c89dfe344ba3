// Package cleanup runs the background retention sweeps spec.md §4.8.3
// requires: garbage-collecting finished Run objects, expiring per-run
// event logs past their TTL, and evicting stale rate-limiter windows.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/photolink/coappear/pkg/config"
	"github.com/photolink/coappear/pkg/events"
	"github.com/photolink/coappear/pkg/ratelimit"
	"github.com/photolink/coappear/pkg/run"
)

// Service periodically enforces the retention policies described in
// spec.md §4.8.3. All operations are idempotent and safe to run
// concurrently with in-flight investigations.
type Service struct {
	config  *config.RetentionConfig
	runs    *run.Manager
	logs    *events.LogStore
	limiter *ratelimit.Limiter
	logger  *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService wires the sweep targets together. limiter may be nil if
// rate limiting is disabled.
func NewService(cfg *config.RetentionConfig, runs *run.Manager, logs *events.LogStore, limiter *ratelimit.Limiter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{config: cfg, runs: runs, logs: logs, limiter: limiter, logger: logger}
}

// Start launches the background cleanup loop.
func (s *Service) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.loop(ctx)

	s.logger.Info("cleanup service started",
		"event_ttl", s.config.EventTTL,
		"run_gc_interval", s.config.RunGCInterval,
		"ratelimit_sweep_interval", s.config.RateLimitSweepInterval)
}

// Stop signals the cleanup loop to exit and waits for it to finish.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.logger.Info("cleanup service stopped")
}

func (s *Service) loop(ctx context.Context) {
	defer close(s.done)

	s.runAll()

	interval := s.config.RunGCInterval
	if s.config.RateLimitSweepInterval < interval {
		interval = s.config.RateLimitSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runAll()
		}
	}
}

func (s *Service) runAll() {
	s.sweepEventLogs()
	s.sweepFinishedRuns()
	s.sweepRateLimitWindows()
}

func (s *Service) sweepEventLogs() {
	if s.logs == nil {
		return
	}
	removed := s.logs.Sweep(time.Now())
	if len(removed) > 0 {
		s.logger.Info("retention: expired event logs", "count", len(removed))
	}
}

func (s *Service) sweepFinishedRuns() {
	if s.runs == nil {
		return
	}
	expired := s.runs.FinishedBefore(func(snap run.Snapshot) bool {
		return time.Since(snap.UpdatedAt) > s.config.EventTTL
	})
	for _, id := range expired {
		s.runs.Delete(id)
	}
	if len(expired) > 0 {
		s.logger.Info("retention: garbage-collected finished runs", "count", len(expired))
	}
}

func (s *Service) sweepRateLimitWindows() {
	if s.limiter == nil {
		return
	}
	s.limiter.Sweep()
}
