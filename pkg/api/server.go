// Package api provides the HTTP/SSE/WS surface for the investigation
// service (spec.md §6).
package api

import (
	"context"
	"net"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/photolink/coappear/pkg/config"
	"github.com/photolink/coappear/pkg/events"
	"github.com/photolink/coappear/pkg/graph"
	"github.com/photolink/coappear/pkg/orchestrator"
	"github.com/photolink/coappear/pkg/planner"
	"github.com/photolink/coappear/pkg/ratelimit"
	"github.com/photolink/coappear/pkg/run"
	"github.com/photolink/coappear/pkg/version"
)

// graphReader is the narrow slice of graph.Store the API needs to read.
type graphReader interface {
	GetFullGraph(ctx context.Context) (*graph.FullGraph, error)
	GetStats(ctx context.Context) (*graph.Stats, error)
	FindPath(ctx context.Context, fromID, toID string) (graph.PathResult, error)
	NodeNames(ctx context.Context, ids []string) (map[string]string, error)
}

// Server is the HTTP API server.
type Server struct {
	echo       *echo.Echo
	httpServer *http.Server

	cfg          *config.Config
	orchestrator *orchestrator.Orchestrator
	planner      *planner.Planner // nil => /chat/parse falls back to a heuristic split
	runs         *run.Manager
	logs         *events.LogStore
	graphStore   graphReader
	broadcast    *events.GraphBroadcaster
	limiter      *ratelimit.Limiter
	admission    *ratelimit.Admission
	connManager  *events.ConnectionManager
}

// NewServer wires an HTTP API server around the already-constructed
// service components. Every dependency is required except planner, which
// may be nil (spec.md §9 "Planner polymorphism").
func NewServer(
	cfg *config.Config,
	orch *orchestrator.Orchestrator,
	p *planner.Planner,
	runs *run.Manager,
	logs *events.LogStore,
	graphStore graphReader,
	broadcast *events.GraphBroadcaster,
	limiter *ratelimit.Limiter,
) *Server {
	e := echo.New()

	s := &Server{
		echo:         e,
		cfg:          cfg,
		orchestrator: orch,
		planner:      p,
		runs:         runs,
		logs:         logs,
		graphStore:   graphStore,
		broadcast:    broadcast,
		limiter:      limiter,
		admission:    ratelimit.NewAdmission(),
		connManager:  events.NewConnectionManager(),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.echo.Use(middleware.BodyLimit(1024 * 1024))
	s.echo.Use(securityHeaders())
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.cfg.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
	}))

	s.echo.GET("/health", s.healthHandler)

	chat := s.echo.Group("/chat")
	chat.POST("/parse", s.parseQueryHandler)
	chat.POST("/query", s.startRunHandler, rateLimited(s.limiter))
	chat.GET("/events/:runId", s.pollEventsHandler)
	chat.GET("/stream/:runId", s.streamEventsHandler)
	chat.GET("/ws/:runId", s.runWSHandler)
	chat.GET("/status/:runId", s.runStatusHandler)

	g := s.echo.Group("/graph")
	g.GET("", s.graphSnapshotHandler)
	g.GET("/stats", s.graphStatsHandler)
	g.GET("/path", s.graphPathHandler)
	g.GET("/ws", s.graphWSHandler)
}

// Start starts the HTTP server on the given address and blocks until the
// server stops.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s.echo}
	return s.httpServer.ListenAndServe()
}

// StartWithListener starts the HTTP server on a pre-created listener.
// Used by test infrastructure to serve on a random OS-assigned port.
func (s *Server) StartWithListener(ln net.Listener) error {
	s.httpServer = &http.Server{Handler: s.echo}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// healthHandler handles GET /health (spec.md §4.8.2). Only this
// service's own components are checked; external oracle/planner
// reachability is excluded so a flaky third party can't flip this
// service's readiness probe.
func (s *Server) healthHandler(c *echo.Context) error {
	reqCtx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]HealthCheck)
	status := "healthy"

	if _, err := s.graphStore.GetStats(reqCtx); err != nil {
		status = "unhealthy"
		checks["graph_store"] = HealthCheck{Status: "unhealthy", Message: err.Error()}
	} else {
		checks["graph_store"] = HealthCheck{Status: "healthy"}
	}

	checks["connections"] = HealthCheck{Status: "healthy"}

	httpStatus := http.StatusOK
	if status == "unhealthy" {
		httpStatus = http.StatusServiceUnavailable
	}

	return c.JSON(httpStatus, &HealthResponse{
		Status:  status,
		Version: version.Full(),
		Checks:  checks,
	})
}
